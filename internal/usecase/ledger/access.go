package ledger

import (
	"context"

	domain "deco-ledger/internal/domain/ledger"
)

// Init stores the admin and global configuration. It succeeds once per ledger.
func (u *Usecase) Init(ctx context.Context, in InitInput) error {
	if err := validPrincipals(in.Admin); err != nil {
		return err
	}
	if in.ApplicationFee < 0 || in.VCStakeRequired < 0 {
		return domain.New(domain.CodeInvalidArgument, "fee and stake must not be negative")
	}
	return u.mutate(ctx, "init", "", func(st state) error {
		ok, err := st.s.Has(ctx, domain.AdminKey{})
		if err != nil {
			return err
		}
		if ok {
			return domain.ErrAlreadyInitialized
		}
		if err := st.s.Put(ctx, domain.AdminKey{}, in.Admin); err != nil {
			return err
		}
		if err := st.s.Put(ctx, domain.ApplicationFeeKey{}, in.ApplicationFee); err != nil {
			return err
		}
		return st.s.Put(ctx, domain.VCStakeRequiredKey{}, in.VCStakeRequired)
	})
}

// GetAdmin returns "" before Init.
func (u *Usecase) GetAdmin(ctx context.Context) (domain.Principal, error) {
	cfg, err := u.GetConfig(ctx)
	return cfg.Admin, err
}

func (u *Usecase) GetFee(ctx context.Context) (int64, error) {
	cfg, err := u.GetConfig(ctx)
	return cfg.ApplicationFee, err
}

func (u *Usecase) GetVCStakeRequired(ctx context.Context) (int64, error) {
	cfg, err := u.GetConfig(ctx)
	return cfg.VCStakeRequired, err
}

// GetConfig returns the zero config before Init.
func (u *Usecase) GetConfig(ctx context.Context) (domain.AdminConfig, error) {
	var cfg domain.AdminConfig
	err := u.view(ctx, func(st state) error {
		var err error
		cfg, _, err = st.config(ctx)
		return err
	})
	return cfg, err
}
