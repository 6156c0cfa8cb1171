package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"collabportal.org/internal/config"
	"collabportal.org/internal/httpapi"
	"collabportal.org/internal/identity"
	"collabportal.org/internal/obs"
	"collabportal.org/internal/portal"
	"collabportal.org/internal/session"
	"collabportal.org/internal/store/memory"
	"collabportal.org/internal/store/pg"
	"collabportal.org/internal/stream"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

// seedFallbackAdmin provisions the staff record behind the static
// gateway's fallback administrator, matching seeds/0001_seed_admin.sql.
// Without it the first admin login would auto-provision a staff role.
func seedFallbackAdmin(store portal.Store) error {
	admin, err := portal.NewStaffMember(portal.StaffMember{
		ID:         "staff-seed-admin",
		UserID:     "seed-admin",
		Name:       "Admin User",
		Email:      "admin@company.com",
		Department: "Operations",
		Role:       portal.RoleAdmin,
	}, time.Now())
	if err != nil {
		return err
	}
	if _, err := store.StaffMembers().Create(context.Background(), admin); err != nil && !errors.Is(err, portal.ErrConflict) {
		return err
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	var (
		store portal.Store
		probe httpapi.ReadyProbe
	)
	if cfg.Postgres.DSN != "" {
		pgStore, err := pg.Open(cfg.Postgres.DSN)
		if err != nil {
			log.Fatalf("open postgres: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		log.Println("no postgres dsn configured, using in-memory store")
		store = memory.New()
		if err := seedFallbackAdmin(store); err != nil {
			log.Fatalf("seed demo data: %v", err)
		}
	}

	gateway, err := identity.NewStatic(identity.DefaultSeeds()...)
	if err != nil {
		log.Fatalf("identity gateway: %v", err)
	}

	var cache session.Cache
	if dir := cfg.Auth.SessionCacheDir; dir != "" {
		fc, err := session.NewFileCache(dir)
		if err != nil {
			log.Fatalf("session cache: %v", err)
		}
		cache = fc
	} else {
		cache = session.NewMemoryCache()
	}

	sessions := session.NewManager(gateway, store.StaffMembers(), cache,
		session.WithAutoProvision(cfg.Auth.AutoProvision))

	hub := stream.New()

	opts := []httpapi.Option{
		httpapi.WithSessionTTL(cfg.Auth.SessionTTL),
		httpapi.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}
	if cfg.OIDC.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		federated, err := identity.NewOIDC(ctx, identity.OIDCConfig{
			IssuerURL:    cfg.OIDC.Issuer,
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			RedirectURL:  cfg.OIDC.RedirectURL,
		})
		cancel()
		if err != nil {
			log.Fatalf("oidc provider: %v", err)
		}
		opts = append(opts, httpapi.WithFederated(federated))
	}

	api := httpapi.New(probe, version, store, sessions, hub, opts...)

	// No WriteTimeout: /v1/events holds the response open.
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting collabportal-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
