package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanchriswhite/xscreen/internal/clipboard"
	"github.com/bryanchriswhite/xscreen/internal/config"
	"github.com/bryanchriswhite/xscreen/internal/output"
	"github.com/bryanchriswhite/xscreen/internal/overlay"
	"github.com/bryanchriswhite/xscreen/internal/screenshot"
	"github.com/bryanchriswhite/xscreen/internal/selection"
	"github.com/bryanchriswhite/xscreen/internal/window"
	"github.com/bryanchriswhite/xscreen/internal/xerr"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type flags struct {
	region    bool
	window    bool
	clipboard bool
	delay     int
}

var captureFlags flags

// mode returns the capture mode selected by the flags
func (f flags) mode() screenshot.Mode {
	switch {
	case f.region:
		return screenshot.Region
	case f.window:
		return screenshot.Window
	default:
		return screenshot.FullScreen
	}
}

// validate repeats the flag group rules for callers that bypass cobra
func (f flags) validate() error {
	switch {
	case f.region && f.window:
		return xerr.Errorf(xerr.InvalidArgument, "--region and --window cannot be combined")
	case f.delay != 0 && (f.region || f.window):
		return xerr.Errorf(xerr.InvalidArgument, "--delay only applies to full screen captures")
	case f.delay < 0:
		return xerr.Errorf(xerr.InvalidArgument, "--delay must not be negative")
	}
	return nil
}

// captureOptions combines the configuration and flags
func captureOptions(cfg *config.Config, f flags) screenshot.Options {
	return screenshot.Options{
		Mode:         f.mode(),
		Delay:        time.Duration(f.delay) * time.Second,
		UseComposite: cfg.Capture.UseComposite,
		Picker: selection.PickerOptions{
			Visibility: cfg.Picker.Visibility,
			Fallback:   cfg.Picker.Fallback,
		},
		Overlay: overlay.Options{
			Background:   cfg.Overlay.Background,
			Foreground:   cfg.Overlay.Foreground,
			Fill:         cfg.Overlay.Fill,
			RefreshHz:    cfg.Overlay.RefreshHz,
			ShowSize:     cfg.Overlay.ShowSize,
			GrabAttempts: cfg.Overlay.GrabAttempts,
		},
	}
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	if err := captureFlags.validate(); err != nil {
		return err
	}

	fsys := afero.NewOsFs()

	// Resolve first so a bad path fails before any interaction
	var path string
	if !captureFlags.clipboard {
		arg := ""
		if len(args) > 0 {
			arg = args[0]
		}
		path, err = output.NewResolver(fsys, cfg.Output.FilenameFormat).Resolve(arg)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := window.NewX11Backend()
	if err != nil {
		return xerr.New(xerr.ConnectionError, err)
	}
	defer b.Close()
	defer closeOnDone(ctx, b)()

	shot, err := screenshot.Take(ctx, b, captureOptions(cfg, captureFlags))
	if err != nil {
		return err
	}

	if captureFlags.clipboard {
		return serveClipboard(ctx, b, shot, cmd.OutOrStdout())
	}

	if err := output.NewWriter(fsys).Write(path, shot.Raster); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved screenshot to %s\n", path)
	return nil
}

// closeOnDone closes c once ctx is done. Closing the connection unblocks a
// pending event wait and drops the grabs with it.
func closeOnDone(ctx context.Context, c io.Closer) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		c.Close()
	})
}

// serveClipboard offers the screenshot until another client takes the
// clipboard or the process is interrupted
func serveClipboard(ctx context.Context, b window.Backend, shot *screenshot.Shot, out io.Writer) error {
	var buf bytes.Buffer
	if err := shot.Raster.EncodePNG(&buf); err != nil {
		return xerr.New(xerr.IOError, err)
	}

	srv, err := clipboard.New(b, buf.Bytes())
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Screenshot copied to the clipboard")
	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
