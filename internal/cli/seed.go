package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"lms-quiz-service/internal/config"
	"lms-quiz-service/internal/domain"
	"lms-quiz-service/internal/infra/memory"
	pgstore "lms-quiz-service/internal/infra/postgres"
	redisstore "lms-quiz-service/internal/infra/redis"
	"lms-quiz-service/internal/runner"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewSeedCmd upserts the quizzes of a JSON seed file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load quizzes from a JSON file into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "seed file (defaults to quiz.seed_file)")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if file == "" {
		file = cfg.Quiz.SeedFile
	}
	if file == "" {
		return fmt.Errorf("no seed file given")
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	seed, err := memory.LoadSeedFile(file)
	if err != nil {
		return err
	}
	quizzes := seed.Quizzes()
	for _, quiz := range quizzes {
		if err := runner.Validate(quiz); err != nil {
			return fmt.Errorf("quiz %s: %w", quiz.ID, err)
		}
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	loader := pgstore.NewQuizLoader(pool)
	var cache quizInvalidator
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		cache = redisstore.NewQuizRepository(client, loader, config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute))
	}
	if err := seedQuizzes(ctx, loader, cache, quizzes); err != nil {
		return err
	}
	log.Printf("seeded %d quizzes from %s", len(quizzes), file)
	return nil
}

type quizSaver interface {
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
}

type quizInvalidator interface {
	Invalidate(ctx context.Context, quizID string) error
}

// seedQuizzes saves each quiz and evicts its cached copy so running servers pick up the
// new content on their next start. cache may be nil.
func seedQuizzes(ctx context.Context, store quizSaver, cache quizInvalidator, quizzes []domain.Quiz) error {
	for _, quiz := range quizzes {
		if err := store.SaveQuiz(ctx, quiz); err != nil {
			return fmt.Errorf("save quiz %s: %w", quiz.ID, err)
		}
		if cache == nil {
			continue
		}
		if err := cache.Invalidate(ctx, quiz.ID); err != nil {
			return fmt.Errorf("invalidate quiz %s: %w", quiz.ID, err)
		}
	}
	return nil
}
