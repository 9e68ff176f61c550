package token

import (
	"context"
	"errors"

	"deco-ledger/internal/domain/ledger"
)

// Transfer moves Amount of Token from one account to another.
// Reference is unique per transfer so the token service can deduplicate retries.
type Transfer struct {
	Token     string
	From      ledger.Principal
	To        ledger.Principal
	Amount    int64
	Reference string
}

// ErrUnconfirmed is returned when the service could not establish whether a
// transfer was applied. Callers must not assume either outcome.
var ErrUnconfirmed = errors.New("token: transfer outcome unknown")

// Service is the external fungible-token service. Transfer is all-or-nothing:
// a nil error means the funds moved, an error wrapping ErrUnconfirmed means the
// outcome is unknown, and any other error means nothing moved.
type Service interface {
	Transfer(ctx context.Context, t Transfer) error
}
