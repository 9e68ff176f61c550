package ledger

import (
	"context"

	"github.com/ipfs/go-cid"

	domain "deco-ledger/internal/domain/ledger"
)

// Apply registers the founder's project and opens its voting window.
func (u *Usecase) Apply(ctx context.Context, in ApplyInput) (*StartupDTO, error) {
	if err := validPrincipals(in.Founder); err != nil {
		return nil, err
	}
	if in.FundingGoal < 0 {
		return nil, domain.New(domain.CodeInvalidArgument, "funding goal must not be negative")
	}
	if in.Metadata.MetadataCID != "" {
		if _, err := cid.Decode(in.Metadata.MetadataCID); err != nil {
			return nil, domain.Wrap(domain.CodeInvalidArgument, "invalid metadata cid", err)
		}
	}

	var rec *domain.StartupRecord
	err := u.mutate(ctx, "apply", in.Founder, func(st state) error {
		key := domain.StartupKey{Founder: in.Founder}
		exists, err := st.s.Has(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrAlreadyApplied
		}
		rec = &domain.StartupRecord{
			Founder:       in.Founder,
			Metadata:      in.Metadata,
			FundingGoal:   in.FundingGoal,
			VotingEndTime: u.now().Add(domain.VotingPeriod).Unix(),
		}
		if err := st.putStartup(ctx, rec); err != nil {
			return err
		}
		return st.appendRoster(ctx, domain.AllStartupsKey{}, in.Founder)
	})
	if err != nil {
		return nil, err
	}
	return u.startupDTO(rec), nil
}

// ApproveApplication marks the startup approved. The vote tally is advisory and
// is not consulted.
func (u *Usecase) ApproveApplication(ctx context.Context, admin, founder domain.Principal) error {
	return u.mutate(ctx, "approve_application", admin, func(st state) error {
		if err := requireAdmin(ctx, st, admin); err != nil {
			return err
		}
		rec, err := st.startup(ctx, founder)
		if err != nil {
			return err
		}
		rec.Approved = true
		return st.putStartup(ctx, rec)
	})
}

// GetStartupStatus returns nil when the founder never applied.
func (u *Usecase) GetStartupStatus(ctx context.Context, founder domain.Principal) (*StartupDTO, error) {
	var rec *domain.StartupRecord
	err := u.view(ctx, func(st state) error {
		r, err := st.startup(ctx, founder)
		if err != nil {
			if domain.CodeOf(err) == domain.CodeNotFound {
				return nil
			}
			return err
		}
		rec = r
		return nil
	})
	if err != nil || rec == nil {
		return nil, err
	}
	return u.startupDTO(rec), nil
}

func (u *Usecase) GetAllStartups(ctx context.Context) ([]domain.Principal, error) {
	var out []domain.Principal
	err := u.view(ctx, func(st state) error {
		var err error
		out, err = st.roster(ctx, domain.AllStartupsKey{})
		return err
	})
	return out, err
}

func (u *Usecase) startupDTO(rec *domain.StartupRecord) *StartupDTO {
	return &StartupDTO{
		StartupRecord: *rec,
		Claimable:     rec.Claimable(),
		VotingOpen:    rec.VotingOpen(u.now()),
	}
}
