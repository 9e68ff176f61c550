package ledger

import (
	"context"
	"slices"
	"strings"

	domain "deco-ledger/internal/domain/ledger"
)

// StakeToBecomeVC moves the required stake into custody and registers the VC.
func (u *Usecase) StakeToBecomeVC(ctx context.Context, in StakeInput) (*domain.VCRecord, error) {
	if u.policy.VCAdmission != domain.AdmissionStake {
		return nil, domain.ErrReleaseModeDisabled
	}
	if err := validPrincipals(in.VC); err != nil {
		return nil, err
	}
	if err := validToken(in.Token); err != nil {
		return nil, err
	}

	var rec *domain.VCRecord
	err := u.mutate(ctx, "stake_to_become_vc", in.VC, func(st state) error {
		if _, exists, err := st.vc(ctx, in.VC); err != nil {
			return err
		} else if exists {
			return domain.ErrAlreadyVC
		}
		cfg, ok, err := st.config(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotInitialized
		}
		rec = &domain.VCRecord{VC: in.VC, CompanyName: in.CompanyName, StakeAmount: cfg.VCStakeRequired}
		if err := registerVC(ctx, st, rec); err != nil {
			return err
		}
		if rec.StakeAmount == 0 {
			return nil
		}
		return u.transfer(ctx, st, "stake_in", in.Token, in.VC, u.custody, rec.StakeAmount)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// RequestVC files an admission request for the admin to approve.
func (u *Usecase) RequestVC(ctx context.Context, vc domain.Principal, companyName string) error {
	if u.policy.VCAdmission != domain.AdmissionRequest {
		return domain.ErrReleaseModeDisabled
	}
	if err := validPrincipals(vc); err != nil {
		return err
	}
	return u.mutate(ctx, "request_vc", vc, func(st state) error {
		if _, exists, err := st.vc(ctx, vc); err != nil {
			return err
		} else if exists {
			return domain.ErrAlreadyVC
		}
		key := domain.VCRequestKey{VC: vc}
		pending, err := st.s.Has(ctx, key)
		if err != nil {
			return err
		}
		if pending {
			return domain.ErrAlreadyRequested
		}
		return st.s.Put(ctx, key, domain.VCRequest{VC: vc, CompanyName: companyName, RequestedAt: u.now().Unix()})
	})
}

// ApproveVC promotes a pending request to a VC record with no stake.
func (u *Usecase) ApproveVC(ctx context.Context, admin, vc domain.Principal) error {
	if u.policy.VCAdmission != domain.AdmissionRequest {
		return domain.ErrReleaseModeDisabled
	}
	return u.mutate(ctx, "approve_vc", admin, func(st state) error {
		if err := requireAdmin(ctx, st, admin); err != nil {
			return err
		}
		var req domain.VCRequest
		ok, err := st.s.Get(ctx, domain.VCRequestKey{VC: vc}, &req)
		if err != nil {
			return err
		}
		if !ok {
			return domain.New(domain.CodeNotFound, "no pending VC request")
		}
		if _, exists, err := st.vc(ctx, vc); err != nil {
			return err
		} else if exists {
			return domain.ErrAlreadyVC
		}
		if err := st.s.Delete(ctx, domain.VCRequestKey{VC: vc}); err != nil {
			return err
		}
		return registerVC(ctx, st, &domain.VCRecord{VC: vc, CompanyName: req.CompanyName})
	})
}

// VCInvest moves amount into custody and makes it immediately claimable by the founder.
func (u *Usecase) VCInvest(ctx context.Context, in InvestInput) error {
	if u.policy.ReleaseMode != domain.ReleaseVCInvest {
		return domain.ErrReleaseModeDisabled
	}
	if err := validPrincipals(in.VC); err != nil {
		return err
	}
	if in.Amount <= 0 {
		return domain.New(domain.CodeInvalidArgument, "investment amount must be positive")
	}
	if err := validToken(in.Token); err != nil {
		return err
	}
	return u.mutate(ctx, "vc_invest", in.VC, func(st state) error {
		vc, exists, err := st.vc(ctx, in.VC)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotVerifiedVC
		}
		rec, err := st.startup(ctx, in.Founder)
		if err != nil {
			return err
		}
		if !rec.Approved {
			return domain.ErrNotApproved
		}
		invested, err := st.investment(ctx, in.VC, in.Founder)
		if err != nil {
			return err
		}

		if rec.TotalAllocated, err = domain.AddAmount(rec.TotalAllocated, in.Amount); err != nil {
			return err
		}
		if rec.UnlockedBalance, err = domain.AddAmount(rec.UnlockedBalance, in.Amount); err != nil {
			return err
		}
		if vc.TotalInvested, err = domain.AddAmount(vc.TotalInvested, in.Amount); err != nil {
			return err
		}
		if invested, err = domain.AddAmount(invested, in.Amount); err != nil {
			return err
		}

		if err := st.putStartup(ctx, rec); err != nil {
			return err
		}
		if err := st.s.Put(ctx, domain.VCDataKey{VC: in.VC}, vc); err != nil {
			return err
		}
		if err := st.s.Put(ctx, domain.InvestmentKey{VC: in.VC, Founder: in.Founder}, invested); err != nil {
			return err
		}
		return u.transfer(ctx, st, "invest_in", in.Token, in.VC, u.custody, in.Amount)
	})
}

// WithdrawVCStake returns the stake and removes the VC record. Investments are
// not checked unless the policy asks for strict withdrawal.
func (u *Usecase) WithdrawVCStake(ctx context.Context, vc domain.Principal, tok string) error {
	if err := validPrincipals(vc); err != nil {
		return err
	}
	if err := validToken(tok); err != nil {
		return err
	}
	return u.mutate(ctx, "withdraw_vc_stake", vc, func(st state) error {
		rec, exists, err := st.vc(ctx, vc)
		if err != nil {
			return err
		}
		if !exists {
			return domain.New(domain.CodeNotFound, "not a VC")
		}
		if u.policy.StrictStakeWithdrawal && rec.TotalInvested > 0 {
			return domain.ErrActiveInvestments
		}
		if err := st.s.Delete(ctx, domain.VCDataKey{VC: vc}); err != nil {
			return err
		}
		if rec.StakeAmount == 0 {
			return nil
		}
		return u.transfer(ctx, st, "stake_out", tok, u.custody, vc, rec.StakeAmount)
	})
}

func (u *Usecase) IsVC(ctx context.Context, vc domain.Principal) (bool, error) {
	rec, err := u.GetVCData(ctx, vc)
	return rec != nil, err
}

// GetVCData returns nil for an unknown VC.
func (u *Usecase) GetVCData(ctx context.Context, vc domain.Principal) (*domain.VCRecord, error) {
	var rec *domain.VCRecord
	err := u.view(ctx, func(st state) error {
		var err error
		rec, _, err = st.vc(ctx, vc)
		return err
	})
	return rec, err
}

// GetVCRequest returns nil when no request is pending.
func (u *Usecase) GetVCRequest(ctx context.Context, vc domain.Principal) (*domain.VCRequest, error) {
	var req *domain.VCRequest
	err := u.view(ctx, func(st state) error {
		var r domain.VCRequest
		ok, err := st.s.Get(ctx, domain.VCRequestKey{VC: vc}, &r)
		if ok {
			req = &r
		}
		return err
	})
	return req, err
}

func (u *Usecase) GetAllVCs(ctx context.Context) ([]domain.Principal, error) {
	var out []domain.Principal
	err := u.view(ctx, func(st state) error {
		var err error
		out, err = st.roster(ctx, domain.AllVCsKey{})
		return err
	})
	return out, err
}

func (u *Usecase) GetVCInvestment(ctx context.Context, vc, founder domain.Principal) (int64, error) {
	var amount int64
	err := u.view(ctx, func(st state) error {
		var err error
		amount, err = st.investment(ctx, vc, founder)
		return err
	})
	return amount, err
}

// registerVC writes the record and adds the VC to AllVCs on its first registration.
func registerVC(ctx context.Context, st state, rec *domain.VCRecord) error {
	if err := st.s.Put(ctx, domain.VCDataKey{VC: rec.VC}, rec); err != nil {
		return err
	}
	all, err := st.roster(ctx, domain.AllVCsKey{})
	if err != nil {
		return err
	}
	if slices.Contains(all, rec.VC) {
		return nil
	}
	return st.s.Put(ctx, domain.AllVCsKey{}, append(all, rec.VC))
}

func validToken(tok string) error {
	if strings.TrimSpace(tok) == "" {
		return domain.New(domain.CodeInvalidArgument, "token is required")
	}
	return nil
}
