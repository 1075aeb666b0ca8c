package main

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dkeye/OneVoice/internal/config"
	"github.com/dkeye/OneVoice/internal/store/postgres"
)

func migrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create or update the postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Database.Driver != "postgres" {
				return errors.New("migrate needs database.driver=postgres")
			}
			pg, err := postgres.Open(cfg.Database.DSN, cfg.Mode == "debug")
			if err != nil {
				return err
			}
			defer pg.Close()
			if err := pg.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info().Str("module", "store.postgres").Msg("schema up to date")
			return nil
		},
	}
}
