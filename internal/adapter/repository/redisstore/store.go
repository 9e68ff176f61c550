package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"deco-ledger/internal/domain/ledger"
)

var errReadOnly = errors.New("redisstore: write in read-only view")

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// txStore buffers writes until commit. Reads see the buffer first.
type txStore struct {
	r        getter
	prefix   string
	readOnly bool
	fence    func(ctx context.Context) error

	writes  map[string][]byte
	deletes map[string]struct{}
	order   []string
}

func newTxStore(r getter, prefix string, readOnly bool) *txStore {
	return &txStore{
		r:        r,
		prefix:   prefix,
		readOnly: readOnly,
		writes:   map[string][]byte{},
		deletes:  map[string]struct{}{},
	}
}

func (s *txStore) redisKey(k ledger.Key) string { return s.prefix + ":" + k.String() }

func (s *txStore) Get(ctx context.Context, key ledger.Key, out any) (bool, error) {
	rk := s.redisKey(key)
	if _, gone := s.deletes[rk]; gone {
		return false, nil
	}
	b, ok := s.writes[rk]
	if !ok {
		v, err := s.r.Get(ctx, rk).Bytes()
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		b = v
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *txStore) Has(ctx context.Context, key ledger.Key) (bool, error) {
	rk := s.redisKey(key)
	if _, gone := s.deletes[rk]; gone {
		return false, nil
	}
	if _, ok := s.writes[rk]; ok {
		return true, nil
	}
	n, err := s.r.Exists(ctx, rk).Result()
	return n > 0, err
}

func (s *txStore) Put(_ context.Context, key ledger.Key, value any) error {
	if s.readOnly {
		return errReadOnly
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	rk := s.redisKey(key)
	delete(s.deletes, rk)
	if _, seen := s.writes[rk]; !seen {
		s.order = append(s.order, rk)
	}
	s.writes[rk] = b
	return nil
}

func (s *txStore) Delete(_ context.Context, key ledger.Key) error {
	if s.readOnly {
		return errReadOnly
	}
	rk := s.redisKey(key)
	delete(s.writes, rk)
	s.deletes[rk] = struct{}{}
	return nil
}

// Fence reports whether the unit of work still holds the ledger lock.
func (s *txStore) Fence(ctx context.Context) error {
	if s.fence == nil {
		return nil
	}
	return s.fence(ctx)
}

// commitArgs lays out the buffered writes for commitScript.
func (s *txStore) commitArgs(lockKey, seqKey, token string) ([]string, []any) {
	keys := []string{lockKey, seqKey}
	args := []any{token, 0}
	for _, rk := range s.order {
		if b, ok := s.writes[rk]; ok {
			keys = append(keys, rk)
			args = append(args, b)
		}
	}
	args[1] = len(keys) - 2
	for rk := range s.deletes {
		keys = append(keys, rk)
	}
	return keys, args
}
