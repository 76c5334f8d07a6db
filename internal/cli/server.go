package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lms-quiz-service/internal/app"
	"lms-quiz-service/internal/auth"
	"lms-quiz-service/internal/config"
	"lms-quiz-service/internal/infra/memory"
	pgstore "lms-quiz-service/internal/infra/postgres"
	"lms-quiz-service/internal/infra/rabbitmq"
	redisstore "lms-quiz-service/internal/infra/redis"
	transport "lms-quiz-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
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
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	loader, err := quizLoader(cfg, pool)
	if err != nil {
		return err
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var (
		quizRepo app.QuizRepository
		attempts app.AttemptRepository
		boards   app.BoardRepository
		recorder app.ResultRecorder
	)
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
		attempts = redisstore.NewAttemptStore(redisClient, redisTTL)
		boards = redisstore.NewBoardStore(redisClient, redisTTL)
		recorder = redisstore.NewResultStore(redisClient)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		attempts = memory.NewAttemptStore()
		boards = memory.NewBoardStore()
		recorder = memory.NewResultStore()
	}
	// Postgres is the durable record when present; redis and memory counters are best effort.
	if pool != nil {
		recorder = pgstore.NewResultStore(pool)
	}

	service := app.NewAttemptService(attempts, boards, quizRepo, recorder)
	if cfg.RabbitMQ.URL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			return err
		}
		defer publisher.Close()
		service = service.WithPublisher(publisher)
	}

	sessions, refresher := sessionResolver(cfg)
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, sessions, refresher),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
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

// quizLoader prefers the database, then the configured seed file, then the built-in sample.
func quizLoader(cfg config.Config, pool *pgxpool.Pool) (memory.QuizLoader, error) {
	if pool != nil {
		return pgstore.NewQuizLoader(pool), nil
	}
	if cfg.Quiz.SeedFile != "" {
		return memory.LoadSeedFile(cfg.Quiz.SeedFile)
	}
	log.Println("no quiz store configured, serving the sample quiz")
	return memory.NewStaticQuizLoader(sampleQuizzes()), nil
}

func sessionResolver(cfg config.Config) (transport.SessionResolver, transport.TokenRefresher) {
	if cfg.Auth.JWTSecret == "" {
		log.Println("auth.jwt_secret not set, accepting unsigned dev tokens")
		return auth.DevResolver{}, nil
	}
	tokens := newTokenManager(cfg)
	return tokens, tokens
}

func newTokenManager(cfg config.Config) *auth.TokenManager {
	return auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		config.TTLDuration(cfg.Auth.AccessTTL, 15*time.Minute),
		config.TTLDuration(cfg.Auth.RefreshTTL, 7*24*time.Hour),
	)
}
