package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"trivia-rotation-service/internal/config"
	pgstore "trivia-rotation-service/internal/infra/postgres"
	"trivia-rotation-service/internal/seed"
)

// NewSeedCmd ingests a topics+questions JSON file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <seed-file.json>",
		Short: "Idempotently ingest topics and questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}

			file, err := seed.Load(args[0])
			if err != nil {
				return err
			}

			db := openBun(cfg.Postgres.URL)
			defer db.Close()

			stats, err := seed.Apply(cmd.Context(), pgstore.NewStore(db), file)
			if err != nil {
				return err
			}
			log.Printf("seeded %d topics, %d categories, %d questions",
				stats.Topics, stats.Categories, stats.Questions)
			return nil
		},
	}
}
