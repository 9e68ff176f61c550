package main

import (
	"context"
	"fmt"

	httpadp "deco-ledger/internal/adapter/http"
	"deco-ledger/internal/adapter/repository/redisstore"
	"deco-ledger/internal/adapter/repository/sqlstore"
	"deco-ledger/internal/adapter/tokenclient"
	"deco-ledger/internal/config"
	"deco-ledger/internal/domain/auth"
	domain "deco-ledger/internal/domain/ledger"
	"deco-ledger/internal/domain/uow"
	"deco-ledger/internal/infrastructure/cache"
	"deco-ledger/internal/infrastructure/db"
	"deco-ledger/internal/usecase/ledger"
)

// store is the opened state backend plus what it needs to shut down.
// commits is set for backends that count committed units of work.
type store struct {
	uow     uow.UnitOfWork
	ping    httpadp.Pinger
	commits httpadp.Counter
	close   func() error
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.StoreBackend {
	case config.BackendSQL:
		gdb, err := db.OpenGorm(cfg)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		if err := sqlstore.Migrate(gdb); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return &store{uow: sqlstore.NewGormUoW(gdb), ping: sqlDB.PingContext, close: sqlDB.Close}, nil

	case config.BackendRedis:
		rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		ru := redisstore.NewRedisUoW(rdb, cfg.RedisPrefix, redisstore.WithLockTTL(cfg.RedisLockTTL))
		return &store{
			uow:     ru,
			ping:    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			commits: ru.Seq,
			close:   rdb.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
}

func newUsecase(cfg *config.Config, st *store, rec ledger.Recorder) (*ledger.Usecase, error) {
	tokens := tokenclient.NewClient(cfg.TokenServiceURL, cfg.TokenServiceAPIKey, cfg.TokenServiceTimeout, cfg.TokenServiceRetries)
	return ledger.NewUsecase(st.uow, tokens, auth.ContextAuthorizer{}, ledger.Options{
		Policy:   cfg.Policy(),
		Custody:  domain.Principal(cfg.CustodyAccount),
		Recorder: rec,
	})
}
