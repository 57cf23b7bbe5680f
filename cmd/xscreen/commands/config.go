package commands

import (
	"fmt"

	"github.com/bryanchriswhite/xscreen/internal/config"
	"github.com/bryanchriswhite/xscreen/internal/xerr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect xscreen configuration",
	Long: `Inspect the effective xscreen configuration. Settings come from flags,
XSCREEN_* environment variables and an optional config file; xscreen never
writes configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Long:  `Display the configuration after defaults, config file and environment are applied.`,
	Example: `  # Show configuration as YAML (default)
  xscreen config show

  # Show configuration as JSON
  xscreen config show --format json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path of the config file in use, or where one would be read from.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var formatFlag string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)

	configShowCmd.Flags().StringVarP(&formatFlag, "format", "f", "yaml", "output format (yaml or json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	if err := cfg.Render(cmd.OutOrStdout(), formatFlag); err != nil {
		return xerr.New(xerr.InvalidArgument, err)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := viper.ConfigFileUsed()
	if path == "" {
		path = config.DefaultConfigPath()
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
