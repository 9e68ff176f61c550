package ledger

import (
	"context"

	domain "deco-ledger/internal/domain/ledger"
)

// FundStartup sets the founder's total allocation to total (not additive).
// The allocation may not drop below what is already unlocked.
func (u *Usecase) FundStartup(ctx context.Context, admin, founder domain.Principal, total int64) error {
	if u.policy.ReleaseMode != domain.ReleaseMilestone {
		return domain.ErrReleaseModeDisabled
	}
	if total < 0 {
		return domain.New(domain.CodeInvalidArgument, "allocation must not be negative")
	}
	return u.mutate(ctx, "fund_startup", admin, func(st state) error {
		if err := requireAdmin(ctx, st, admin); err != nil {
			return err
		}
		rec, err := st.startup(ctx, founder)
		if err != nil {
			return err
		}
		if total < rec.UnlockedBalance {
			return domain.ErrAllocationExceeded
		}
		rec.TotalAllocated = total
		return st.putStartup(ctx, rec)
	})
}

// UnlockMilestone releases amount of the allocation to the founder.
func (u *Usecase) UnlockMilestone(ctx context.Context, admin, founder domain.Principal, amount int64) error {
	if u.policy.ReleaseMode != domain.ReleaseMilestone {
		return domain.ErrReleaseModeDisabled
	}
	if amount <= 0 {
		return domain.New(domain.CodeInvalidArgument, "unlock amount must be positive")
	}
	return u.mutate(ctx, "unlock_milestone", admin, func(st state) error {
		if err := requireAdmin(ctx, st, admin); err != nil {
			return err
		}
		rec, err := st.startup(ctx, founder)
		if err != nil {
			return err
		}
		unlocked, err := domain.AddAmount(rec.UnlockedBalance, amount)
		if err != nil {
			return err
		}
		if unlocked > rec.TotalAllocated {
			return domain.ErrAllocationExceeded
		}
		rec.UnlockedBalance = unlocked
		return st.putStartup(ctx, rec)
	})
}

// ClaimFunds pays out everything unlocked but not yet claimed and returns the amount.
func (u *Usecase) ClaimFunds(ctx context.Context, founder domain.Principal, tok string) (int64, error) {
	if err := validPrincipals(founder); err != nil {
		return 0, err
	}
	if err := validToken(tok); err != nil {
		return 0, err
	}
	var claimable int64
	err := u.mutate(ctx, "claim_funds", founder, func(st state) error {
		rec, err := st.startup(ctx, founder)
		if err != nil {
			return err
		}
		claimable = rec.Claimable()
		if claimable <= 0 {
			return domain.ErrNothingToClaim
		}
		rec.ClaimedBalance = rec.UnlockedBalance
		if err := st.putStartup(ctx, rec); err != nil {
			return err
		}
		return u.transfer(ctx, st, "claim_out", tok, u.custody, founder, claimable)
	})
	if err != nil {
		return 0, err
	}
	return claimable, nil
}
