package cli

import (
	"context"
	"fmt"
	"log"

	"exam-quiz-service/internal/bank"
	"exam-quiz-service/internal/config"
	"exam-quiz-service/internal/infra/postgres"
	"github.com/spf13/cobra"
)

// NewMigrateCmd applies database migrations and optionally seeds the question table.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var seedPath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath, seedPath)
		},
	}
	cmd.Flags().StringVar(&seedPath, "seed", "", "question file to load into the questions table")
	return cmd
}

func runMigrations(ctx context.Context, configPath, seedPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	db := postgres.Open(cfg.Postgres.URL)
	defer db.Close()

	applied, err := postgres.Migrate(ctx, db)
	if err != nil {
		return err
	}
	log.Printf("migrations applied: %v", applied)

	if seedPath == "" {
		return nil
	}
	questions, err := bank.LoadFile(seedPath)
	if err != nil {
		return err
	}
	// the bank constructor enforces id uniqueness before anything is written
	if _, err := bank.New(questions, nil); err != nil {
		return err
	}
	n, err := postgres.SeedQuestions(ctx, db, questions)
	if err != nil {
		return err
	}
	log.Printf("seeded %d questions from %s", n, seedPath)
	return nil
}
