package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"trivia-rotation-service/internal/analytics"
	"trivia-rotation-service/internal/app"
	"trivia-rotation-service/internal/config"
	"trivia-rotation-service/internal/diagnostics"
	"trivia-rotation-service/internal/infra/memory"
	pgstore "trivia-rotation-service/internal/infra/postgres"
	redcache "trivia-rotation-service/internal/infra/redis"
	"trivia-rotation-service/internal/pack"
	"trivia-rotation-service/internal/pool"
	"trivia-rotation-service/internal/rotation"
	"trivia-rotation-service/internal/score"
	"trivia-rotation-service/internal/topic"
	transport "trivia-rotation-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the trivia rotation server",
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

	// Without Postgres the server runs entirely on the in-memory store,
	// which is enough for local development against seeded data.
	memStore := memory.NewStore()
	var (
		registry topic.Registry            = memStore
		source   pool.QuestionSource       = memStore
		lookup   pack.QuestionLookup       = memStore
		progress rotation.ProgressStore    = memStore
		packs    pack.Store                = memStore
		scores   score.Store               = memStore
		index    diagnostics.QuestionIndex = memStore
	)
	if cfg.Postgres.URL != "" {
		pgPool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pgPool.Close()
		bunDB := openBun(cfg.Postgres.URL)
		defer bunDB.Close()

		questionSource := pgstore.NewQuestionSource(pgPool)
		store := pgstore.NewStore(bunDB)
		registry = questionSource
		source = questionSource
		lookup = questionSource
		index = questionSource
		progress = store
		packs = store
		scores = store
	}

	resolver := topic.NewResolver(registry)
	fetcher := pool.NewFetcher(source)
	selector := rotation.NewSelector(progress, fetcher)
	manager := pack.NewManager(packs, lookup)

	packTTL := config.TTLDuration(cfg.Cache.PackTTL, 10*time.Minute)
	var reader pack.Reader = memory.NewPackCache(manager, packTTL)
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		reader = redcache.NewPackCache(redisClient, manager, packTTL)
	}

	coordinator := score.NewCoordinator(scores)
	service := app.NewService(resolver, selector, manager, reader, coordinator, analytics.LogEmitter{})
	diag := diagnostics.NewService(resolver, index, packs)

	mux := http.NewServeMux()
	transport.NewHandler(service, diag, cfg.Selection.DefaultWindowSize).Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia rotation service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
