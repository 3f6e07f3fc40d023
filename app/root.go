// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/uniportal/uniportal-rbac/internal/config"
	"github.com/uniportal/uniportal-rbac/internal/logger"
)

var (
	configPath string // directory holding main.toml
	devMode    bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "uniportal-rbac",
	Short: "UniPortal RBAC is the authorization service of the university portal",
	Long: `UniPortal RBAC manages permissions, roles and role assignments of the
university portal and answers permission checks for its routes and UI.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		if cfg, err = config.ReadConfig(configPath); err != nil {
			return err
		}

		if devMode {
			cfg.DevMode = true
		}

		return logger.Init(cfg.Log)
	},
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "directory containing main.toml")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "Enable dev mode")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
