package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pretest-quiz-service/internal/app"
	"pretest-quiz-service/internal/config"
	"pretest-quiz-service/internal/domain"
	"pretest-quiz-service/internal/infra/memory"
	"pretest-quiz-service/internal/infra/postgres"
	infraredis "pretest-quiz-service/internal/infra/redis"
	"pretest-quiz-service/internal/infra/sqlite"
	"pretest-quiz-service/internal/logging"
	"pretest-quiz-service/internal/submission"
	transport "pretest-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log.Named("migrate")); err != nil {
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
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(memory.DefaultQuestions())
	if pool != nil {
		loader = postgres.NewQuestionLoader(pool)
	}

	questionTTL := config.Duration(cfg.Quiz.QuestionTTL, 10*time.Minute)
	var questions app.QuestionSource
	if redisClient != nil {
		questions = infraredis.NewQuestionRepository(redisClient, loader, config.Duration(cfg.Redis.TTL, questionTTL))
	} else {
		questions = memory.NewQuestionRepository(loader, questionTTL)
	}

	stores, closeStores, err := openStores(cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeStores()

	var submitter domain.Submitter = submission.Disabled{Log: log.Named("submission")}
	if cfg.Backend.Enabled && cfg.Backend.URL != "" {
		submitter = submission.NewClient(cfg.Backend.URL,
			submission.WithIdentity(submission.Identity{
				LearnerID: cfg.Backend.LearnerID,
				TestID:    cfg.Backend.TestID,
				Gender:    cfg.Backend.Gender,
				School:    cfg.Backend.School,
			}),
			submission.WithHTTPClient(&http.Client{Timeout: config.Duration(cfg.Backend.Timeout, 5*time.Second)}),
			submission.WithLogger(log.Named("submission")),
		)
	}

	var collector transport.SubmissionSaver = memory.NewSubmissionRepository()
	if pool != nil {
		collector = postgres.NewSubmissionRepository(pool)
	}

	service := app.NewQuizService(stores, questions, submitter,
		app.WithConfig(machineConfig(cfg)),
		app.WithLogger(log.Named("quiz")),
	)

	server := &http.Server{
		Addr: ":" + finalPort,
		Handler: transport.NewRouter(transport.RouterConfig{
			Service:        service,
			Collector:      collector,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Logger:         log,
		}),
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", zap.String("addr", server.Addr), zap.String("store", cfg.Store.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStores picks the SessionStore backend named by store.driver.
func openStores(cfg config.Config, redisClient *redis.Client) (app.ProfileStores, func(), error) {
	noop := func() {}
	switch cfg.Store.Driver {
	case "", "memory":
		return memory.NewSessionStore(), noop, nil
	case "redis":
		if redisClient == nil {
			return nil, noop, fmt.Errorf("store driver redis requires redis.addr")
		}
		return infraredis.NewSessionStore(redisClient, config.Duration(cfg.Store.TTL, 24*time.Hour)), noop, nil
	case "sqlite":
		if dir := filepath.Dir(cfg.Store.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, noop, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		store, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func machineConfig(cfg config.Config) app.Config {
	def := app.DefaultConfig()
	out := app.Config{
		TimerSeconds:   cfg.Quiz.TimerSeconds,
		MaxHearts:      cfg.Quiz.MaxHearts,
		RevealDelay:    config.Duration(cfg.Quiz.RevealDelay, def.RevealDelay),
		CorrectDelay:   config.Duration(cfg.Quiz.CorrectDelay, def.CorrectDelay),
		IncorrectDelay: config.Duration(cfg.Quiz.IncorrectDelay, def.IncorrectDelay),
		TimeoutDelay:   config.Duration(cfg.Quiz.TimeoutDelay, def.TimeoutDelay),
	}
	if out.TimerSeconds <= 0 {
		out.TimerSeconds = def.TimerSeconds
	}
	if out.MaxHearts <= 0 {
		out.MaxHearts = def.MaxHearts
	}
	return out
}
