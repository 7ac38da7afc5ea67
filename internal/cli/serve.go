package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ranjith-47/care-navigator/internal/agent"
	"github.com/Ranjith-47/care-navigator/internal/config"
	"github.com/Ranjith-47/care-navigator/internal/consultation"
	"github.com/Ranjith-47/care-navigator/internal/logging"
	"github.com/Ranjith-47/care-navigator/internal/platform/telegram"
	"github.com/Ranjith-47/care-navigator/internal/report"
)

const (
	dbConnectAttempts = 10
	shutdownTimeout   = 10 * time.Second
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket API",
		RunE:  runServe,
	}
	cmd.Flags().StringP("port", "p", "", "Listen port (default: $PORT or 8080)")
	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	tables, err := loadTables(cfg)
	if err != nil {
		return err
	}

	repo, closeRepo, err := openRepository(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	ranker := tables.Ranker()
	engine := tables.Engine(ranker)

	var assistant consultation.Assistant
	if cfg.AssistantEnabled() {
		assistant = agent.NewOpenAIClient(agent.Config{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.AssistantTimeout,
		})
		log.Info("assistant enabled", zap.String("model", cfg.OpenAIModel))
	}

	reports := report.NewService(nil, 0, log)
	var escalator consultation.Escalator
	if cfg.EscalationEnabled() {
		reports = report.NewService(telegram.NewClient(cfg.TelegramToken), cfg.DoctorChatID, log)
		escalator = reports
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN or DOCTOR_CHAT_ID not set, urgent cases will not be escalated")
	}

	svc := consultation.NewService(repo, engine, ranker, assistant, escalator, log)
	defer svc.Close()

	handler := consultation.NewHandler(svc, reports, consultation.Directory{
		Hotlines:   tables.Hotlines,
		Guidelines: tables.Guidelines,
	}, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(h *consultation.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS for the browser client
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
			if r.Method == http.MethodOptions {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Route("/api", func(r chi.Router) {
		consultation.RegisterRoutes(r, h)
	})
	return r
}

// openRepository returns the store selected by cfg and a function that
// releases it.
func openRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) (consultation.Repository, func() error, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := connectPostgres(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		if err := consultation.Migrate(cfg.DatabaseURL); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info("migrations applied")
		return consultation.NewRepository(db), db.Close, nil
	case config.StoreSQLite:
		repo, err := consultation.NewSQLiteRepository(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	default:
		return consultation.NewMemoryRepository(), func() error { return nil }, nil
	}
}

func connectPostgres(ctx context.Context, dsn string, log *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	for i := 1; i <= dbConnectAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			log.Info("connected to database")
			return db, nil
		}
		log.Info("waiting for database", zap.Int("attempt", i), zap.Error(err))
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	db.Close()
	return nil, fmt.Errorf("could not connect to database: %w", err)
}
