package tokenmock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"deco-ledger/internal/domain/ledger"
	"deco-ledger/internal/domain/token"
)

var (
	_ token.Service = (*Service)(nil)
	_ token.Service = (*Bank)(nil)
)

// ErrInsufficientFunds is returned by Bank when the sender cannot cover a transfer.
var ErrInsufficientFunds = errors.New("tokenmock: insufficient funds")

// Service is a function-backed mock that satisfies token.Service.
// With TransferFn unset every transfer succeeds. Calls are recorded.
type Service struct {
	TransferFn func(ctx context.Context, t token.Transfer) error

	mu    sync.Mutex
	calls []token.Transfer
}

func (m *Service) Transfer(ctx context.Context, t token.Transfer) error {
	m.mu.Lock()
	m.calls = append(m.calls, t)
	m.mu.Unlock()
	if m.TransferFn != nil {
		return m.TransferFn(ctx, t)
	}
	return nil
}

func (m *Service) Calls() []token.Transfer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]token.Transfer(nil), m.calls...)
}

// Bank is a fake token service keeping per-account balances for a single token.
type Bank struct {
	mu       sync.Mutex
	balances map[ledger.Principal]int64
	refs     map[string]bool
}

func NewBank(initial map[ledger.Principal]int64) *Bank {
	b := &Bank{balances: map[ledger.Principal]int64{}, refs: map[string]bool{}}
	for p, v := range initial {
		b.balances[p] = v
	}
	return b
}

func (b *Bank) Transfer(_ context.Context, t token.Transfer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t.Amount <= 0 {
		return fmt.Errorf("tokenmock: non-positive amount %d", t.Amount)
	}
	if b.refs[t.Reference] {
		return fmt.Errorf("tokenmock: duplicate reference %s", t.Reference)
	}
	if b.balances[t.From] < t.Amount {
		return ErrInsufficientFunds
	}
	b.refs[t.Reference] = true
	b.balances[t.From] -= t.Amount
	b.balances[t.To] += t.Amount
	return nil
}

// Seed credits p outside of any transfer.
func (b *Bank) Seed(p ledger.Principal, amount int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[p] += amount
}

func (b *Bank) Balance(p ledger.Principal) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[p]
}
