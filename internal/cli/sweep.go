package cli

import (
	"context"
	"fmt"
	"time"

	"edtrack-assessment-service/internal/app"
	"edtrack-assessment-service/internal/config"
	"edtrack-assessment-service/internal/infra/memory"
	pgstore "edtrack-assessment-service/internal/infra/postgres"
	"edtrack-assessment-service/internal/logger"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewSweepCmd force-submits attempts whose deadline passed unobserved. Meant
// to run from cron as a safety net behind the lazy expiry checks.
func NewSweepCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Force-submit expired in-progress attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd.Context(), *configPath)
		},
	}
}

func runSweep(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level)

	if cfg.Postgres.URL == "" {
		return fmt.Errorf("sweep requires a configured postgres url")
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	bank := memory.NewQuestionBank(pgstore.NewAssessmentLoader(pool),
		config.TTLDuration(cfg.Assessment.CacheTTL, 10*time.Minute))
	service := app.NewAttemptService(bank, pgstore.NewAttemptStore(pool), pgstore.NewAnswerStore(pool))

	finalized, err := service.SweepExpired(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("finalized", finalized).Msg("Sweep complete")
	return nil
}
