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
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizdash/internal/app"
	"quizdash/internal/config"
	"quizdash/internal/domain"
	"quizdash/internal/infra/memory"
	"quizdash/internal/infra/postgres"
	redisinfra "quizdash/internal/infra/redis"
	transport "quizdash/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
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
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var quizStore app.QuizStore
	var scoreStore app.ScoreStore
	if pool != nil {
		quizStore = postgres.NewQuizStore(pool)
		scoreStore = postgres.NewScoreStore(pool)
	} else {
		memQuizzes := memory.NewQuizStore()
		memQuizzes.Seed(sampleQuizzes()...)
		quizStore = memQuizzes
		scoreStore = memory.NewScoreStore()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizCache(redisClient, quizStore, quizTTL)
	} else {
		quizRepo = memory.NewQuizCache(quizStore, quizTTL)
	}

	if redisClient != nil {
		scoreStore = redisinfra.NewLeaderboardStore(redisClient, scoreStore)
	}

	var registry app.SessionRepository
	if redisClient != nil {
		registry = redisinfra.NewSessionRegistry(redisClient, redisTTL)
	} else {
		registry = memory.NewSessionRegistry()
	}

	hub := app.NewHub()
	service := app.NewSessionService(registry, quizRepo, hub, cfg.Game.TimePerQuestion)

	publicURL := cfg.Server.PublicURL
	if publicURL == "" {
		publicURL = "http://localhost:" + finalPort
	}

	apiHandler := transport.NewAPIHandler(service, quizStore, scoreStore, publicURL)
	wsHandler := transport.NewWSHandler(service)

	router := httprouter.New()
	apiHandler.Register(router)
	router.HandlerFunc(http.MethodGet, "/ws", wsHandler.ServeWS)
	router.HandlerFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizdash server on :%s", finalPort)
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

// sampleQuizzes provides demo data for running without Postgres.
func sampleQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			ID:          1,
			Title:       "General Knowledge",
			Description: "A quick warm-up quiz",
			Questions: []domain.Question{
				{
					ID:   1,
					Text: "What is 2 + 2?",
					Answers: []domain.Answer{
						{ID: 1, Text: "3", IsCorrect: false},
						{ID: 2, Text: "4", IsCorrect: true},
						{ID: 3, Text: "5", IsCorrect: false},
					},
				},
				{
					ID:   2,
					Text: "Which planet is closest to the sun?",
					Answers: []domain.Answer{
						{ID: 1, Text: "Venus", IsCorrect: false},
						{ID: 2, Text: "Mercury", IsCorrect: true},
						{ID: 3, Text: "Mars", IsCorrect: false},
					},
				},
			},
		},
	}
}
