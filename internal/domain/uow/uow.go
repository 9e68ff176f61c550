package uow

import (
	"context"

	"deco-ledger/internal/domain/ledger"
)

// Store is the ledger state as seen from inside one unit of work.
// Get decodes the value at key into out and reports whether it existed.
type Store interface {
	Get(ctx context.Context, key ledger.Key, out any) (bool, error)
	Has(ctx context.Context, key ledger.Key) (bool, error)
	Put(ctx context.Context, key ledger.Key, value any) error
	Delete(ctx context.Context, key ledger.Key) error
}

type UnitOfWork interface {
	// WithinTx runs fn exclusively: no other WithinTx interleaves with it, and a
	// non-nil error from fn discards every write it made.
	WithinTx(ctx context.Context, fn func(s Store) error) error
	// View runs fn against committed state. Writes fail.
	View(ctx context.Context, fn func(s Store) error) error
}

// Fencer is implemented by stores whose exclusivity is a lease that can lapse
// while fn runs. Fence fails once the lease is gone, so side effects outside
// the store can be held back.
type Fencer interface {
	Fence(ctx context.Context) error
}
