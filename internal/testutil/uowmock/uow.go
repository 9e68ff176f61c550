package uowmock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sync"

	"deco-ledger/internal/domain/ledger"
	"deco-ledger/internal/domain/uow"
)

// Ensure compile-time compliance
var (
	_ uow.UnitOfWork = (*UoW)(nil)
	_ uow.Store      = (*MemStore)(nil)
)

var (
	errUnimplemented = errors.New("uowmock: method not implemented")
	errReadOnly      = errors.New("uowmock: write in read-only view")
)

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn func(ctx context.Context, fn func(s uow.Store) error) error
	ViewFn     func(ctx context.Context, fn func(s uow.Store) error) error
}

// Convenience fluent setters
func New() *UoW { return &UoW{} }
func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Store) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithView(fn func(context.Context, func(uow.Store) error) error) *UoW {
	m.ViewFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

func (m *UoW) WithinTx(ctx context.Context, fn func(s uow.Store) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) View(ctx context.Context, fn func(s uow.Store) error) error {
	if m.ViewFn != nil {
		return m.ViewFn(ctx, fn)
	}
	return errUnimplemented
}

// MemStore is an in-memory key space. Values are stored as JSON like the real stores.
type MemStore struct {
	data     map[string][]byte
	readOnly bool
}

func (s *MemStore) Get(_ context.Context, key ledger.Key, out any) (bool, error) {
	b, ok := s.data[key.String()]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *MemStore) Has(_ context.Context, key ledger.Key) (bool, error) {
	_, ok := s.data[key.String()]
	return ok, nil
}

func (s *MemStore) Put(_ context.Context, key ledger.Key, value any) error {
	if s.readOnly {
		return errReadOnly
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.data[key.String()] = b
	return nil
}

func (s *MemStore) Delete(_ context.Context, key ledger.Key) error {
	if s.readOnly {
		return errReadOnly
	}
	delete(s.data, key.String())
	return nil
}

// Len is the number of stored keys.
func (s *MemStore) Len() int { return len(s.data) }

// NewInMemory returns a UoW whose WithinTx runs on a copy of the committed map
// and swaps it in only when fn succeeds.
func NewInMemory() *UoW {
	var (
		mu        sync.Mutex
		committed = map[string][]byte{}
	)
	return &UoW{
		WithinTxFn: func(ctx context.Context, fn func(uow.Store) error) error {
			mu.Lock()
			defer mu.Unlock()
			work := &MemStore{data: maps.Clone(committed)}
			if err := fn(work); err != nil {
				return err
			}
			committed = work.data
			return nil
		},
		ViewFn: func(ctx context.Context, fn func(uow.Store) error) error {
			mu.Lock()
			snapshot := &MemStore{data: maps.Clone(committed), readOnly: true}
			mu.Unlock()
			return fn(snapshot)
		},
	}
}
