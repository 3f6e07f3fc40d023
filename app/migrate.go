package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/uniportal/uniportal-rbac/internal/daemon"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema and install the catalog and system roles",
	RunE: func(_ *cobra.Command, _ []string) error {
		db, _, err := daemon.Open(&cfg)
		if err != nil {
			return err
		}

		log.Info().Str("engine", cfg.DB.GormEngine).Msg("database migrated and seeded")

		sqlDB, err := db.DB()
		if err != nil {
			return err
		}

		return sqlDB.Close()
	},
}
