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

	"arena-quiz-service/internal/app"
	"arena-quiz-service/internal/config"
	"arena-quiz-service/internal/domain"
	"arena-quiz-service/internal/identity"
	"arena-quiz-service/internal/infra/memory"
	pgstore "arena-quiz-service/internal/infra/postgres"
	redisstore "arena-quiz-service/internal/infra/redis"
	transport "arena-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the arena server",
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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.CatalogLoader = memory.NewStaticCatalogLoader(sampleStages(), sampleQuestionBank())
	if pool != nil {
		loader = pgstore.NewCatalogLoader(pool)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, time.Hour)
	var catalog app.CatalogRepository
	if redisClient != nil {
		catalog = redisstore.NewCatalogRepository(redisClient, loader, catalogTTL)
	} else {
		catalog = memory.NewCatalogRepository(loader, catalogTTL)
	}

	var rows app.RowStore
	switch {
	case pool != nil:
		rows = pgstore.NewRowStore(pool)
	case redisClient != nil:
		rows = redisstore.NewRowStore(redisClient)
	default:
		rows = memory.NewRowStore()
		log.Printf("no backend configured, progress is kept in memory only")
	}

	directory := identity.NewDirectory(directoryUsers(cfg))
	service := app.NewArenaService(directory, catalog, rows)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting arena service on :%s", finalPort)
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

func directoryUsers(cfg config.Config) []identity.User {
	users := make([]identity.User, 0, len(cfg.Users))
	for _, u := range cfg.Users {
		users = append(users, identity.User{
			Username:     u.Username,
			DisplayName:  u.Name,
			PasswordHash: u.PasswordHash,
		})
	}
	return users
}

// sampleStages provides a minimal stage catalog; swap the loader for the
// Postgres-backed one in production.
func sampleStages() []domain.Stage {
	return []domain.Stage{
		{
			ID:          1,
			Name:        "Crixus",
			Description: "O primeiro adversário da arena",
			Difficulty:  "Iniciante",
			Policy:      domain.TimeAndErrorBudget{MaxDurationMinutes: 60, MaxErrors: 7},
		},
		{
			ID:          2,
			Name:        "Gannicus",
			Description: "Veloz e implacável",
			Difficulty:  "Intermediário",
			Policy:      domain.TimeAndErrorBudget{MaxDurationMinutes: 50, MaxErrors: 5},
		},
		{
			ID:          3,
			Name:        "Theokoles",
			Description: "A sombra da morte",
			Difficulty:  "Avançado",
			Policy:      domain.AccuracyThreshold{MinPercent: 70},
		},
	}
}

func sampleQuestionBank() domain.QuestionBank {
	return domain.QuestionBank{
		"doctore": {
			Name:        "Doctore",
			Description: "Mestre de treinamento da arena",
			Subjects: map[string]map[string][]domain.QuestionItem{
				"Direito Constitucional": {
					"Princípios Fundamentais": {
						{
							ID:          "dc-pf-1",
							Prompt:      "A soberania é fundamento da República Federativa do Brasil.",
							Answer:      domain.AnswerRight,
							Explanation: "Art. 1º, I, da Constituição Federal.",
						},
						{
							ID:          "dc-pf-2",
							Prompt:      "O pluralismo político não figura entre os fundamentos da República.",
							Answer:      domain.AnswerWrong,
							Explanation: "O pluralismo político é fundamento expresso (art. 1º, V).",
						},
					},
				},
			},
		},
	}
}
