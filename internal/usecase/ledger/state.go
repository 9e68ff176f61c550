package ledger

import (
	"context"

	domain "deco-ledger/internal/domain/ledger"
	"deco-ledger/internal/domain/uow"
)

// state gives typed access to the key space on top of a uow.Store. j tracks
// the token transfers of the operation across commit attempts.
type state struct {
	s uow.Store
	j *journal
}

func (st state) config(ctx context.Context) (domain.AdminConfig, bool, error) {
	var cfg domain.AdminConfig
	ok, err := st.s.Get(ctx, domain.AdminKey{}, &cfg.Admin)
	if err != nil || !ok {
		return cfg, false, err
	}
	if _, err := st.s.Get(ctx, domain.ApplicationFeeKey{}, &cfg.ApplicationFee); err != nil {
		return cfg, false, err
	}
	if _, err := st.s.Get(ctx, domain.VCStakeRequiredKey{}, &cfg.VCStakeRequired); err != nil {
		return cfg, false, err
	}
	return cfg, true, nil
}

func (st state) startup(ctx context.Context, founder domain.Principal) (*domain.StartupRecord, error) {
	var rec domain.StartupRecord
	ok, err := st.s.Get(ctx, domain.StartupKey{Founder: founder}, &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// putStartup refuses to persist a record that breaks the balance invariant.
func (st state) putStartup(ctx context.Context, rec *domain.StartupRecord) error {
	if err := rec.CheckBalances(); err != nil {
		return err
	}
	return st.s.Put(ctx, domain.StartupKey{Founder: rec.Founder}, rec)
}

func (st state) vc(ctx context.Context, vc domain.Principal) (*domain.VCRecord, bool, error) {
	var rec domain.VCRecord
	ok, err := st.s.Get(ctx, domain.VCDataKey{VC: vc}, &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return &rec, true, nil
}

func (st state) investment(ctx context.Context, vc, founder domain.Principal) (int64, error) {
	var amount int64
	_, err := st.s.Get(ctx, domain.InvestmentKey{VC: vc, Founder: founder}, &amount)
	return amount, err
}

func (st state) roster(ctx context.Context, key domain.Key) ([]domain.Principal, error) {
	var out []domain.Principal
	if _, err := st.s.Get(ctx, key, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Principal{}
	}
	return out, nil
}

func (st state) appendRoster(ctx context.Context, key domain.Key, p domain.Principal) error {
	list, err := st.roster(ctx, key)
	if err != nil {
		return err
	}
	return st.s.Put(ctx, key, append(list, p))
}
