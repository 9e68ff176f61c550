package auth

import (
	"context"

	"deco-ledger/internal/domain/ledger"
)

// Authorizer fails unless the current call was authorized by p.
type Authorizer interface {
	Require(ctx context.Context, p ledger.Principal) error
}

type callerKey struct{}

// WithCaller records the authenticated principal for the rest of the call.
func WithCaller(ctx context.Context, p ledger.Principal) context.Context {
	return context.WithValue(ctx, callerKey{}, p)
}

func CallerFrom(ctx context.Context) (ledger.Principal, bool) {
	p, ok := ctx.Value(callerKey{}).(ledger.Principal)
	return p, ok && p != ""
}

// ContextAuthorizer trusts the caller placed on the context by the transport.
type ContextAuthorizer struct{}

func (ContextAuthorizer) Require(ctx context.Context, p ledger.Principal) error {
	caller, ok := CallerFrom(ctx)
	if !ok || caller != p {
		return ledger.ErrUnauthorized
	}
	return nil
}
