package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bryanchriswhite/xscreen/internal/config"
	"github.com/bryanchriswhite/xscreen/internal/logger"
	"github.com/bryanchriswhite/xscreen/internal/xerr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	appCfg  *config.Config
	cfgErr  error

	rootCmd = &cobra.Command{
		Use:   "xscreen [flags] [output]",
		Short: "xscreen - Screenshots of the X11 desktop",
		Long: `xscreen captures the whole screen, a region dragged out with the mouse,
or a single window picked with the mouse, and saves it as a PNG file.

The output argument may be a file or an existing directory. Without it the
screenshot is saved in the home directory as
"Screenshot YYYY-MM-DD HH-MM-SS.png".

Region and window selection need a running compositing manager. Press Escape,
q or the right mouse button to abort a selection.`,
		Example: `  # Capture the whole screen into the home directory
  xscreen

  # Capture the whole screen after 5 seconds
  xscreen --delay 5 ~/Pictures

  # Drag out a region and save it to a file
  xscreen --region /tmp/region.png

  # Pick a window and copy it to the clipboard
  xscreen --window --clipboard`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCapture,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/xscreen/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "human readable log output")

	// Bind flags to viper
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	// Capture flags
	rootCmd.Flags().BoolVarP(&captureFlags.region, "region", "r", false, "select a region to capture")
	rootCmd.Flags().BoolVarP(&captureFlags.window, "window", "w", false, "select a window to capture")
	rootCmd.Flags().IntVarP(&captureFlags.delay, "delay", "d", 0, "seconds to wait before a full screen capture")
	rootCmd.Flags().BoolVarP(&captureFlags.clipboard, "clipboard", "c", false, "copy to the clipboard instead of saving a file")

	rootCmd.MarkFlagsMutuallyExclusive("region", "window")
	rootCmd.MarkFlagsMutuallyExclusive("region", "delay")
	rootCmd.MarkFlagsMutuallyExclusive("window", "delay")
}

func initConfig() {
	v := viper.GetViper()
	if err := config.Setup(v, cfgFile); err != nil {
		cfgErr = err
		return
	}
	cfg, err := config.Load(v)
	if err != nil {
		cfgErr = err
		return
	}

	logger.Init(cfg.LogLevel, cfg.LogPretty)
	appCfg = cfg
}

// loadedConfig returns the configuration read by initConfig
func loadedConfig() (*config.Config, error) {
	if cfgErr != nil {
		return nil, xerr.New(xerr.InvalidArgument, cfgErr)
	}
	if appCfg == nil {
		return config.Defaults(), nil
	}
	return appCfg, nil
}

// Execute runs the root command and returns the process exit code
func Execute() int {
	return report(rootCmd.Execute(), os.Stdout, os.Stderr)
}

// report prints the outcome of a command and maps it to an exit code.
// Untyped errors come from argument parsing.
func report(err error, stdout, stderr io.Writer) int {
	if err == nil {
		return 0
	}

	var typed *xerr.Error
	var kind xerr.Kind
	if !errors.As(err, &typed) && !errors.As(err, &kind) {
		err = xerr.New(xerr.InvalidArgument, err)
	}

	k := xerr.KindOf(err)
	if k == xerr.Cancelled {
		fmt.Fprintln(stdout, "Nothing to save: operation aborted by user")
		return k.ExitCode()
	}

	fmt.Fprintf(stderr, "Error (%s): %v\n", k, err)
	return k.ExitCode()
}
