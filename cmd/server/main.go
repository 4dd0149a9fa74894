package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "safeline/internal/admin/handler"
	"safeline/internal/admin/session"
	"safeline/internal/platform/config"
	"safeline/internal/platform/httpserver"
	"safeline/internal/platform/logger"
	platformmetrics "safeline/internal/platform/metrics"
	"safeline/internal/platform/storage"
	reputationhandler "safeline/internal/reputation/handler"
	reputationmetrics "safeline/internal/reputation/metrics"
	"safeline/internal/reputation/service"
	"safeline/internal/reputation/store"
	"safeline/internal/transport/http/shared"
	dErrors "safeline/pkg/domain-errors"
	"safeline/pkg/phone"
)

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal service packages.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	ctx := context.Background()

	repStore, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		log.Error("failed to open store", "error", err.Error())
		os.Exit(1)
	}
	defer cleanup()

	pinHash := cfg.AdminPINHash
	if pinHash == "" {
		// Development fallback: hash the plaintext PIN at startup.
		pinHash, err = session.HashPIN(cfg.AdminPIN)
		if err != nil {
			log.Error("failed to hash admin pin", "error", err.Error())
			os.Exit(1)
		}
		log.Warn("using SAFELINE_ADMIN_PIN fallback; set SAFELINE_ADMIN_PIN_HASH in production")
	}
	sessions := session.New(pinHash, cfg.JWTSigningKey, cfg.SessionTTL)

	norm := phone.NewNormalizer(cfg.CountryCode, cfg.MobilePrefix, cfg.SubscriberLen)
	httpMetrics := platformmetrics.New()

	reputationSvc, err := service.New(repStore, norm, cfg.ReportWindow,
		service.WithLogger(log),
		service.WithMetrics(reputationmetrics.New()),
		service.WithRecentWindow(cfg.RecentWindow),
	)
	if err != nil {
		log.Error("failed to build reputation service", "error", err.Error())
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := reputationSvc.Ping(r.Context()); err != nil {
			shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "store unreachable"))
			return
		}
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", promhttp.Handler())

	reputationhandler.New(reputationSvc, log, httpMetrics).Register(router)
	adminhandler.New(reputationSvc, sessions, log, httpMetrics).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting safeline",
		"addr", cfg.Addr,
		"store_driver", cfg.StoreDriver,
		"report_window", cfg.ReportWindow.String(),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}

// openStore builds the configured Store and its cleanup func.
func openStore(ctx context.Context, cfg config.Server) (store.Store, func(), error) {
	if cfg.StoreDriver == "memory" {
		return store.NewMemory(), func() {}, nil
	}

	db, err := storage.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = db.Close() }

	switch cfg.StoreDriver {
	case "sqlite":
		st := store.NewSQLite(db)
		if err := st.Migrate(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		return st, cleanup, nil
	default:
		st := store.NewPostgres(db)
		if err := st.Migrate(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		return st, cleanup, nil
	}
}
