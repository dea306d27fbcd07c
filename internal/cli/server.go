package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edtrack-assessment-service/internal/app"
	"edtrack-assessment-service/internal/config"
	"edtrack-assessment-service/internal/domain"
	"edtrack-assessment-service/internal/infra/memory"
	pgstore "edtrack-assessment-service/internal/infra/postgres"
	rediscache "edtrack-assessment-service/internal/infra/redis"
	"edtrack-assessment-service/internal/logger"
	transport "edtrack-assessment-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the assessment server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.AssessmentLoader = memory.NewStaticAssessmentLoader(sampleAssessments())
	if pool != nil {
		loader = pgstore.NewAssessmentLoader(pool)
	}

	assessmentTTL := config.TTLDuration(cfg.Assessment.CacheTTL, 10*time.Minute)
	var bank app.QuestionBank
	if redisClient != nil {
		bank = rediscache.NewQuestionBank(redisClient, loader, assessmentTTL)
	} else {
		bank = memory.NewQuestionBank(loader, assessmentTTL)
	}

	var attempts app.AttemptStore = memory.NewAttemptStore()
	var answers app.AnswerStore = memory.NewAnswerStore()
	if pool != nil {
		attempts = pgstore.NewAttemptStore(pool)
		answers = pgstore.NewAnswerStore(pool)
	}

	service := app.NewAttemptService(bank, attempts, answers)

	// Listener order matters: the cache invalidation must run before the hub
	// rebuilds the board it broadcasts.
	var boards app.LeaderboardSource = service
	if redisClient != nil {
		cache := rediscache.NewLeaderboardCache(redisClient, service,
			config.TTLDuration(cfg.Leaderboard.CacheTTL, 30*time.Second))
		service.OnFinalize(cache.Invalidate)
		boards = cache
	}
	hub := app.NewLeaderboardHub(boards)
	service.OnFinalize(hub.AttemptFinalized)

	api := transport.NewAPI(service, boards, transport.HeaderUserDirectory{})
	wsHandler := transport.NewWSHandler(hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	api.Register(mux)
	mux.HandleFunc("/ws/leaderboard", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("Starting assessment service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("Shutting down server")
	case <-ctx.Done():
		log.Info().Msg("Context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleAssessments seeds the static loader for runs without Postgres.
func sampleAssessments() map[string]domain.Assessment {
	passing := 2.0
	return map[string]domain.Assessment{
		"demo-1": {
			ID:                     "demo-1",
			Title:                  "Demo Quiz",
			Type:                   "quiz",
			Published:              true,
			DurationMinutes:        30,
			MaxAttempts:            3,
			NegativeMarkingPercent: 25,
			PassingMarks:           &passing,
			ShowResultAfter:        domain.ShowResultAfterSubmit,
			Questions: []domain.Question{
				{
					ID:    "q1",
					Type:  domain.QuestionMCQ,
					Text:  "What is 2 + 2?",
					Marks: 1,
					Options: []domain.Option{
						{ID: "o1", Text: "3"},
						{ID: "o2", Text: "4"},
						{ID: "o3", Text: "5"},
					},
					Correct: domain.MCQAnswer{OptionID: "o2"},
				},
				{
					ID:    "q2",
					Type:  domain.QuestionMSQ,
					Text:  "Select the even numbers.",
					Marks: 2,
					Options: []domain.Option{
						{ID: "o1", Text: "2"},
						{ID: "o2", Text: "3"},
						{ID: "o3", Text: "4"},
					},
					Correct: domain.MSQAnswer{OptionIDs: []string{"o1", "o3"}},
				},
				{
					ID:      "q3",
					Type:    domain.QuestionNAT,
					Text:    "What is 10 / 4?",
					Marks:   2,
					Correct: domain.NATAnswer{Value: 2.5, Tolerance: 0.01},
				},
			},
		},
	}
}
