package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/redblue-backend/internal/admin"
	"github.com/DoyleJ11/redblue-backend/internal/config"
	"github.com/DoyleJ11/redblue-backend/internal/httpapi"
	"github.com/DoyleJ11/redblue-backend/internal/hub"
	"github.com/DoyleJ11/redblue-backend/internal/ids"
	"github.com/DoyleJ11/redblue-backend/internal/logging"
	"github.com/DoyleJ11/redblue-backend/internal/session"
	"github.com/DoyleJ11/redblue-backend/internal/store"
	"github.com/DoyleJ11/redblue-backend/internal/store/gormstore"
	"github.com/DoyleJ11/redblue-backend/internal/store/memstore"
	"github.com/DoyleJ11/redblue-backend/internal/timer"
	"github.com/DoyleJ11/redblue-backend/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	auth, err := admin.New(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	if cfg.AdminPassword == "" {
		log.Warn("REDBLUE_ADMIN_PASSWORD is empty, admin login disabled")
	}

	h := hub.NewHub(ctx, log.Named("hub"))
	timers := timer.NewSupervisor(ctx, log.Named("timer"))

	svc := session.New(st, timers, h, ids.Generator{}, session.Config{
		LobbyExpiry:          cfg.LobbyExpiry(),
		RoundTimeout:         cfg.RoundTimeout,
		DisconnectGrace:      cfg.DisconnectGrace(),
		DisconnectCheckDelay: cfg.DisconnectCheckDelay(),
	}, log.Named("session"))
	if err := svc.Resume(ctx); err != nil {
		return fmt.Errorf("resume timers: %w", err)
	}

	// Build the router *with* the session service and hub injected
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Sessions:  svc,
			Hub:       h,
			Admin:     auth,
			Log:       log.Named("http"),
			WSOptions: ws.Options{OriginPatterns: cfg.WSOrigins},
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		timers.Stop()
		h.Shutdown()
		return err
	})
	return g.Wait()
}

func openStore(cfg config.Config, log *zap.Logger) (store.Store, error) {
	switch cfg.DBDriver {
	case config.DriverMemory:
		log.Warn("using in-memory store, games are lost on restart")
		return memstore.New(), nil
	default:
		st, err := gormstore.Open(cfg.DBDriver, cfg.DBDSN, log.Named("store"))
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return st, nil
	}
}
