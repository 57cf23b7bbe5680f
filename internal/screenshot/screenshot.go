// Package screenshot drives one capture from mode selection to raster.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/xscreen/internal/capture"
	"github.com/bryanchriswhite/xscreen/internal/compositor"
	"github.com/bryanchriswhite/xscreen/internal/geom"
	"github.com/bryanchriswhite/xscreen/internal/logger"
	"github.com/bryanchriswhite/xscreen/internal/overlay"
	"github.com/bryanchriswhite/xscreen/internal/selection"
	"github.com/bryanchriswhite/xscreen/internal/window"
	"github.com/bryanchriswhite/xscreen/internal/xerr"
)

// Mode selects what is captured
type Mode int

const (
	FullScreen Mode = iota
	Region
	Window
)

func (m Mode) String() string {
	switch m {
	case FullScreen:
		return "fullscreen"
	case Region:
		return "region"
	case Window:
		return "window"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// interactive reports whether the mode needs the overlay
func (m Mode) interactive() bool {
	return m == Region || m == Window
}

// Options configures a capture
type Options struct {
	Mode         Mode
	Delay        time.Duration
	UseComposite bool
	Picker       selection.PickerOptions
	Overlay      overlay.Options
}

// Shot is a finished capture
type Shot struct {
	Raster *capture.Raster
	Bounds geom.Rect     // captured area in root coordinates
	Window xproto.Window // picked window, 0 unless in window mode
}

// Take performs one capture. User cancellation is reported as an error of
// kind xerr.Cancelled. The caller may close b once ctx is done to unblock a
// pending selection; the failure this causes is reported as cancellation.
func Take(ctx context.Context, b window.Backend, opts Options) (*Shot, error) {
	shot, err := take(ctx, b, opts)
	if err != nil && ctx.Err() != nil && !errors.Is(err, xerr.Cancelled) {
		logger.WithComponent("screenshot").Debug().Err(err).Msg("Capture interrupted")
		return nil, xerr.New(xerr.Cancelled, ctx.Err())
	}
	return shot, err
}

func take(ctx context.Context, b window.Backend, opts Options) (*Shot, error) {
	log := logger.WithComponent("screenshot")

	if err := wait(ctx, opts.Delay); err != nil {
		return nil, err
	}

	if opts.Mode.interactive() && !compositor.HasCompositor(b) {
		return nil, xerr.New(xerr.CompositorError, nil)
	}

	capturer := capture.NewCapturer(b, opts.UseComposite)

	var (
		frame *capture.Frame
		shot  = &Shot{}
		err   error
	)
	switch opts.Mode {
	case FullScreen:
		shot.Bounds = capturer.ScreenBounds()
		frame, err = capturer.CaptureScreen()

	case Region:
		var r geom.Rect
		r, err = selectRegion(b, opts.Overlay)
		if err != nil {
			return nil, err
		}
		shot.Bounds = r.Clip(capturer.ScreenBounds())
		frame, err = capturer.CaptureRegion(r)

	case Window:
		var c selection.Candidate
		c, err = pickWindow(b, opts)
		if err != nil {
			return nil, err
		}
		shot.Bounds, shot.Window = c.Bounds, c.Window
		frame, err = capturer.CaptureWindow(c.Window)

	default:
		return nil, xerr.Errorf(xerr.InvalidArgument, "unknown capture mode %s", opts.Mode)
	}
	if err != nil {
		return nil, err
	}

	shot.Raster, err = frame.Raster()
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("mode", opts.Mode.String()).
		Str("bounds", shot.Bounds.String()).
		Msg("Capture complete")
	return shot, nil
}

// wait sleeps for d unless ctx ends first
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	logger.WithComponent("screenshot").Debug().Dur("delay", d).Msg("Waiting before capture")

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return xerr.New(xerr.Cancelled, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// selectRegion runs the region selector. The overlay is gone before the
// caller captures.
func selectRegion(b window.Backend, opts overlay.Options) (geom.Rect, error) {
	ov, err := overlay.New(b, opts)
	if err != nil {
		return geom.Rect{}, err
	}
	defer ov.Close()

	r, ok, err := selection.NewRegionSelector(ov).Select()
	if err != nil {
		return geom.Rect{}, err
	}
	if !ok {
		return geom.Rect{}, xerr.New(xerr.Cancelled, nil)
	}
	return r, ov.Close()
}

// pickWindow runs the window picker
func pickWindow(b window.Backend, opts Options) (selection.Candidate, error) {
	ov, err := overlay.New(b, opts.Overlay)
	if err != nil {
		return selection.Candidate{}, err
	}
	defer ov.Close()

	picker, err := selection.NewPicker(b, ov, opts.Picker)
	if err != nil {
		return selection.Candidate{}, xerr.New(xerr.InvalidArgument, err)
	}

	c, ok, err := picker.Pick()
	if err != nil {
		return selection.Candidate{}, err
	}
	if !ok {
		return selection.Candidate{}, xerr.New(xerr.Cancelled, nil)
	}
	return c, ov.Close()
}
