package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"orgauth.dev/internal/auth"
	"orgauth.dev/internal/config"
	"orgauth.dev/internal/directory"
	"orgauth.dev/internal/events"
	"orgauth.dev/internal/httpapi"
	"orgauth.dev/internal/migrate"
	"orgauth.dev/internal/obs"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	obs.Init(cfg.Env, obs.ParseLevel(cfg.LogLevel))
	obs.InitBuildInfo(version, commit)
	logger := obs.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		users directory.UserDirectory
		orgs  directory.OrganizationDirectory
		db    *sql.DB
	)
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		applied, err := migrate.NewManager(db).Up(ctx)
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		if len(applied) > 0 {
			logger.Info("applied migrations", "names", applied)
		}
		users = directory.NewPGUsers(db)
		orgs = directory.NewPGOrganizations(db)
	} else {
		logger.Warn("no database configured, using in-memory directories")
		users = directory.NewMemoryUsers()
		orgs = directory.NewMemoryOrganizations()
	}

	var hasher auth.Hasher = auth.BcryptHasher{}
	if cfg.PasswordSalt != "" {
		hasher = auth.SaltedSHA256Hasher{Salt: cfg.PasswordSalt}
	}

	store := auth.NewTokenStore(cfg.TokenTTL)
	bus := events.NewBus()
	tokens, err := auth.NewService(store, users, hasher, auth.WithEventBus(bus))
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	// Session lifecycle events feed the debug log; other subscribers
	// can attach without touching the auth core.
	go func() {
		for evt := range bus.Subscribe(ctx) {
			logger.Debug("session event", "type", string(evt.Type), "email", evt.Email, "count", evt.Count)
		}
	}()

	// Expired entries are also reclaimed lazily on lookup; the sweeper
	// only bounds memory for tokens that are never touched again.
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := store.Sweep(); removed > 0 {
					logger.Debug("token sweep", "removed", removed)
					bus.Publish(events.Event{Type: events.TokensSwept, Count: removed})
				}
			}
		}
	}()

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := bootstrapAdmin(ctx, users, hasher, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
	}

	api := httpapi.New(tokens, users, orgs, hasher, httpapi.Options{
		CookieDomain: cfg.CookieDomain,
		CookieTTL:    cfg.TokenTTL,
		Version:      version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting orgauth-api", "version", version, "addr", srv.Addr, "env", cfg.Env)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	if db != nil {
		_ = db.Close()
	}
	logger.Info("stopped")
}

// bootstrapAdmin ensures the initial global admin exists so a fresh
// deployment can log in. Existing accounts keep their password.
func bootstrapAdmin(ctx context.Context, users directory.UserDirectory, hasher auth.Hasher, email, password string) error {
	if _, err := users.FindByEmail(ctx, email); err == nil {
		return nil
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	return users.Save(ctx, &auth.User{
		Email:        auth.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
	})
}
