package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	_ "github.com/lib/pq"

	"accountportal/session-auth/internal/audit"
	"accountportal/session-auth/internal/auth"
	"accountportal/session-auth/internal/config"
	"accountportal/session-auth/internal/httpserver"
	"accountportal/session-auth/internal/session"
	"accountportal/session-auth/internal/userdb"
)

type App struct {
	cfg    config.Config
	log    *slog.Logger
	db     *sql.DB
	server *httpserver.Server
}

func New(cfg config.Config) (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	secret, err := loadSecret(cfg.SessionSecretFile)
	if err != nil {
		return nil, err
	}
	sessions, err := session.NewManager(secret, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("create session manager: %w", err)
	}

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
	}

	var store userdb.Store
	if db != nil {
		store, err = userdb.NewPostgresStore(db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create postgres user store: %w", err)
		}
	} else {
		store, err = userdb.NewFileStore(cfg.UserDBFile)
		if err != nil {
			return nil, fmt.Errorf("create file user store: %w", err)
		}
	}

	authService, err := auth.NewService(store)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("create auth service: %w", err)
	}

	server := httpserver.New(cfg.HTTP, httpserver.Deps{
		Auth:     authService,
		Sessions: sessions,
		Audit:    audit.NewLogger(cfg.AuditLogFile),
		Log:      logger,
	})

	return &App{
		cfg:    cfg,
		log:    logger,
		db:     db,
		server: server,
	}, nil
}

// loadSecret reads the session signing secret once at startup.
func loadSecret(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session secret file: %w", err)
	}
	secret := []byte(strings.TrimSpace(string(b)))
	if len(secret) == 0 {
		return nil, fmt.Errorf("session secret file %s is empty", path)
	}
	return secret, nil
}

func (a *App) Run(ctx context.Context) error {
	defer func() {
		if a.db != nil {
			_ = a.db.Close()
		}
	}()

	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr)
		errCh <- a.server.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	}
}
