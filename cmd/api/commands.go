package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	cli "github.com/urfave/cli/v2"

	httpadp "deco-ledger/internal/adapter/http"
	"deco-ledger/internal/adapter/middleware"
	"deco-ledger/internal/adapter/repository/sqlstore"
	"deco-ledger/internal/config"
	domain "deco-ledger/internal/domain/ledger"
	"deco-ledger/internal/infrastructure/cache"
	"deco-ledger/internal/infrastructure/db"
	"deco-ledger/internal/infrastructure/metrics"
	"deco-ledger/internal/usecase/ledger"
)

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "run the HTTP API",
	Action: func(cctx *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.close()

		rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("idempotency redis: %w", err)
		}
		defer rdb.Close()

		m, err := metrics.NewLedger(prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}
		uc, err := newUsecase(cfg, st, m)
		if err != nil {
			return err
		}
		key, err := cfg.JWTKey()
		if err != nil {
			return err
		}

		e := echo.New()
		e.HideBanner = true
		e.Validator = httpadp.NewValidator()
		e.Use(echomw.Logger(), echomw.Recover(), m.Middleware())
		e.Use(middleware.JWTAuth(middleware.JWTConfig{Key: key, Issuer: cfg.JWTIssuer, Audience: cfg.JWTAudience}))
		e.Use(middleware.Idempotency(rdb, cfg.IdempotencyTTL()))

		httpadp.Register(e, httpadp.NewHandler(st.ping).WithCommits(st.commits), httpadp.NewLedgerHandler(uc))
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(prometheus.DefaultGatherer)))

		addr := ":" + cfg.AppPort
		errCh := make(chan error, 1)
		go func() {
			log.Infow("listening", "addr", addr, "store", cfg.StoreBackend, "policy", uc.Policy())
			errCh <- e.Start(addr)
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		log.Infow("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(sctx)
	},
}

var migrateCmd = &cli.Command{
	Name:  "migrate",
	Usage: "create or update the SQL ledger tables",
	Action: func(cctx *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.StoreBackend != config.BackendSQL {
			return fmt.Errorf("migrate needs STORE_BACKEND=%s, have %q", config.BackendSQL, cfg.StoreBackend)
		}
		gdb, err := db.OpenGorm(cfg)
		if err != nil {
			return err
		}
		if sqlDB, err := gdb.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := sqlstore.Migrate(gdb); err != nil {
			return err
		}
		log.Infow("migrated", "driver", cfg.DBDriver)
		return nil
	},
}

var initCmd = &cli.Command{
	Name:  "init",
	Usage: "set the ledger admin, application fee and VC stake (once)",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "admin", Usage: "admin account address", Required: true},
		&cli.Int64Flag{Name: "fee", Usage: "application fee in the token's smallest unit"},
		&cli.Int64Flag{Name: "stake", Usage: "VC stake required in the token's smallest unit"},
	},
	Action: func(cctx *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := openStore(cctx.Context, cfg)
		if err != nil {
			return err
		}
		defer st.close()

		uc, err := newUsecase(cfg, st, nil)
		if err != nil {
			return err
		}
		err = uc.Init(cctx.Context, ledger.InitInput{
			Admin:           domain.Principal(cctx.String("admin")),
			ApplicationFee:  cctx.Int64("fee"),
			VCStakeRequired: cctx.Int64("stake"),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cctx.App.Writer, "ledger initialized, admin %s\n", cctx.String("admin"))
		return nil
	},
}
