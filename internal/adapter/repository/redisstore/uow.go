package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/redis/go-redis/v9"

	"deco-ledger/internal/domain/uow"
	"deco-ledger/pkg/id"
)

var log = logging.Logger("redisstore")

var _ uow.Fencer = (*txStore)(nil)

const (
	defaultLockTTL   = 30 * time.Second
	lockRetryBackoff = 20 * time.Millisecond
)

// ErrLockLost means the ledger lock expired or was taken over while held.
var ErrLockLost = errors.New("redisstore: ledger lock lost before commit")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// commitScript applies the buffered writes only while the lock is still ours.
// KEYS: lock, seq, then the keys to set followed by the keys to delete.
// ARGV: lock token, number of sets, then one value per set.
var commitScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
	return 0
end
local n = tonumber(ARGV[2])
for i = 1, n do
	redis.call("SET", KEYS[i + 2], ARGV[i + 2])
end
for i = n + 3, #KEYS do
	redis.call("DEL", KEYS[i])
end
return redis.call("INCR", KEYS[2])`)

// RedisUoW serializes writers with a SETNX lock that is kept alive while fn
// runs, and commits buffered writes in one script that checks the lock first.
type RedisUoW struct {
	rdb     *redis.Client
	prefix  string
	lockTTL time.Duration
	mu      sync.Mutex
}

type Option func(*RedisUoW)

// WithLockTTL sets how long the lock outlives a holder that stopped refreshing it.
func WithLockTTL(d time.Duration) Option { return func(u *RedisUoW) { u.lockTTL = d } }

func NewRedisUoW(rdb *redis.Client, prefix string, opts ...Option) *RedisUoW {
	u := &RedisUoW{rdb: rdb, prefix: prefix, lockTTL: defaultLockTTL}
	for _, o := range opts {
		o(u)
	}
	if u.lockTTL <= 0 {
		u.lockTTL = defaultLockTTL
	}
	return u
}

func (u *RedisUoW) lockKey() string { return u.prefix + ":lock" }
func (u *RedisUoW) seqKey() string  { return u.prefix + ":seq" }

func (u *RedisUoW) WithinTx(ctx context.Context, fn func(s uow.Store) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	token := id.NewID32()
	if err := u.acquire(ctx, token); err != nil {
		return err
	}
	defer u.release(ctx, token)
	stop := u.keepAlive(ctx, token)
	defer stop()

	s := newTxStore(u.rdb, u.prefix, false)
	s.fence = func(ctx context.Context) error { return u.owns(ctx, token) }
	if err := fn(s); err != nil {
		return err
	}
	keys, args := s.commitArgs(u.lockKey(), u.seqKey(), token)
	seq, err := commitScript.Run(ctx, u.rdb, keys, args...).Int64()
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if seq == 0 {
		return ErrLockLost
	}
	return nil
}

func (u *RedisUoW) View(ctx context.Context, fn func(s uow.Store) error) error {
	return fn(newTxStore(u.rdb, u.prefix, true))
}

// Seq returns the number of committed units of work. The API reports it on
// /health.
func (u *RedisUoW) Seq(ctx context.Context) (int64, error) {
	n, err := u.rdb.Get(ctx, u.seqKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (u *RedisUoW) acquire(ctx context.Context, token string) error {
	for {
		ok, err := u.rdb.SetNX(ctx, u.lockKey(), token, u.lockTTL).Result()
		if err != nil {
			return fmt.Errorf("acquire ledger lock: %w", err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryBackoff):
		}
	}
}

// keepAlive extends the lock every third of its TTL until stop is called or
// the lock turns out to belong to someone else.
func (u *RedisUoW) keepAlive(ctx context.Context, token string) (stop func()) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		tick := time.NewTicker(u.lockTTL / 3)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
			}
			n, err := extendScript.Run(ctx, u.rdb, []string{u.lockKey()}, token, u.lockTTL.Milliseconds()).Int64()
			switch {
			case err != nil:
				if ctx.Err() == nil {
					log.Warnw("extend ledger lock", "err", err)
				}
			case n == 0:
				log.Warnw("ledger lock lost while held")
				return
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func (u *RedisUoW) owns(ctx context.Context, token string) error {
	owner, err := u.rdb.Get(ctx, u.lockKey()).Result()
	if errors.Is(err, redis.Nil) {
		return ErrLockLost
	}
	if err != nil {
		return fmt.Errorf("check ledger lock: %w", err)
	}
	if owner != token {
		return ErrLockLost
	}
	return nil
}

func (u *RedisUoW) release(ctx context.Context, token string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, u.rdb, []string{u.lockKey()}, token).Err(); err != nil {
		log.Warnw("release ledger lock", "err", err)
	}
}
