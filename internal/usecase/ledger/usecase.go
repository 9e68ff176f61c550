package ledger

import (
	"context"
	"errors"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"deco-ledger/internal/domain/auth"
	domain "deco-ledger/internal/domain/ledger"
	"deco-ledger/internal/domain/token"
	"deco-ledger/internal/domain/uow"
	"deco-ledger/pkg/id"
)

var log = logging.Logger("ledger")

const recommitTimeout = 30 * time.Second

// Recorder observes completed operations and token movements.
type Recorder interface {
	ObserveOperation(op string, err error)
	ObserveTransfer(direction string, amount int64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, error) {}
func (nopRecorder) ObserveTransfer(string, int64)  {}

type Options struct {
	Policy domain.Policy
	// Custody is the account that holds escrowed funds and stakes.
	Custody  domain.Principal
	Now      func() time.Time
	Recorder Recorder
}

// Usecase is the ledger state machine. Every mutating method runs inside one
// exclusive unit of work; a failure leaves the stored state untouched.
type Usecase struct {
	uow     uow.UnitOfWork
	tokens  token.Service
	authz   auth.Authorizer
	policy  domain.Policy
	custody domain.Principal
	now     func() time.Time
	rec     Recorder
}

func NewUsecase(tx uow.UnitOfWork, tokens token.Service, authz auth.Authorizer, opts Options) (*Usecase, error) {
	if tx == nil || tokens == nil || authz == nil {
		return nil, errors.New("ledger: unit of work, token service and authorizer are required")
	}
	if opts.Policy == (domain.Policy{}) {
		opts.Policy = domain.DefaultPolicy()
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, err
	}
	if !opts.Custody.Valid() {
		return nil, errors.New("ledger: custody account must be a valid principal")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &Usecase{
		uow:     tx,
		tokens:  tokens,
		authz:   authz,
		policy:  opts.Policy,
		custody: opts.Custody,
		now:     opts.Now,
		rec:     opts.Recorder,
	}, nil
}

func (u *Usecase) Policy() domain.Policy { return u.policy }

// mutate authorizes p (when set) and runs fn in an exclusive unit of work.
func (u *Usecase) mutate(ctx context.Context, op string, p domain.Principal, fn func(st state) error) error {
	j := &journal{}
	err := u.authorize(ctx, p)
	if err == nil {
		err = u.attempt(ctx, j, fn)
		if err != nil && len(j.made) > 0 {
			err = u.recommit(ctx, op, p, j, fn, err)
		}
	}
	u.rec.ObserveOperation(op, err)
	if err != nil {
		log.Debugw("operation rejected", "op", op, "principal", p, "err", err)
		return err
	}
	log.Infow("operation committed", "op", op, "principal", p)
	return nil
}

func (u *Usecase) attempt(ctx context.Context, j *journal, fn func(st state) error) error {
	return u.uow.WithinTx(ctx, func(s uow.Store) error {
		j.begin()
		if err := fn(state{s: s, j: j}); err != nil {
			return err
		}
		if !j.settled() {
			return errDiverged
		}
		return nil
	})
}

// recommit runs fn once more after tokens moved but the state did not commit.
// The second attempt replays the journal, so it records the transfers without
// repeating them. It is bounded by its own deadline since the caller's context
// may be what failed the first commit.
func (u *Usecase) recommit(ctx context.Context, op string, p domain.Principal, j *journal, fn func(st state) error, cause error) error {
	log.Warnw("commit failed after token transfer, recording again", "op", op, "principal", p, "refs", j.refs(), "err", cause)
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recommitTimeout)
	defer cancel()
	err := u.attempt(rctx, j, fn)
	if err == nil {
		return nil
	}
	log.Errorw("token transfer not recorded", "op", op, "principal", p, "refs", j.refs(), "err", err)
	if domain.CodeOf(err) == domain.CodeTransferUnrecorded {
		return err
	}
	return domain.Wrap(domain.CodeTransferUnrecorded, "token transfer made but not recorded", err)
}

func (u *Usecase) authorize(ctx context.Context, p domain.Principal) error {
	if p == "" {
		return nil
	}
	if err := u.authz.Require(ctx, p); err != nil {
		if domain.CodeOf(err) == domain.CodeUnauthorized {
			return err
		}
		return domain.Wrap(domain.CodeUnauthorized, "authorization failed", err)
	}
	return nil
}

func (u *Usecase) view(ctx context.Context, fn func(st state) error) error {
	return u.uow.View(ctx, func(s uow.Store) error { return fn(state{s: s}) })
}

// requireAdmin checks the caller claims to be the stored admin. Authorization of
// the claim itself is done by mutate.
func requireAdmin(ctx context.Context, st state, admin domain.Principal) error {
	cfg, ok, err := st.config(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotInitialized
	}
	if cfg.Admin != admin {
		return domain.New(domain.CodeUnauthorized, "unauthorized: not admin")
	}
	return nil
}

// transfer is the last step of a unit of work, so a refusal rolls back the
// writes made before it.
func (u *Usecase) transfer(ctx context.Context, st state, direction, tok string, from, to domain.Principal, amount int64) error {
	if amount <= 0 {
		return domain.New(domain.CodeInvalidArgument, "transfer amount must be positive")
	}
	t := token.Transfer{Token: tok, From: from, To: to, Amount: amount}
	if prev, ok := st.j.replay(); ok {
		if !sameTransfer(prev, t) {
			return errDiverged
		}
		log.Infow("reusing earlier token transfer", "direction", direction, "ref", prev.Reference)
		return nil
	}
	// a lapsed lease means another writer may already be running
	if f, ok := st.s.(uow.Fencer); ok {
		if err := f.Fence(ctx); err != nil {
			return err
		}
	}
	t.Reference = id.NewTransferRef()
	if err := u.tokens.Transfer(ctx, t); err != nil {
		if errors.Is(err, token.ErrUnconfirmed) {
			log.Errorw("token transfer outcome unknown", "direction", direction, "from", from, "to", to, "amount", amount, "ref", t.Reference, "err", err)
			return domain.Wrap(domain.CodeTransferUnconfirmed, "token transfer outcome unknown", err)
		}
		log.Warnw("token transfer refused", "direction", direction, "from", from, "to", to, "amount", amount, "ref", t.Reference, "err", err)
		return domain.Wrap(domain.CodeTransferFailed, "token transfer failed", err)
	}
	st.j.record(t)
	u.rec.ObserveTransfer(direction, amount)
	return nil
}

func validPrincipals(ps ...domain.Principal) error {
	for _, p := range ps {
		if !p.Valid() {
			return domain.New(domain.CodeInvalidArgument, "invalid principal "+string(p))
		}
	}
	return nil
}
