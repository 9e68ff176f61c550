package ledger

import (
	"context"

	domain "deco-ledger/internal/domain/ledger"
)

// Vote records one vote per (voter, founder) and bumps the tally in the same unit of work.
func (u *Usecase) Vote(ctx context.Context, in VoteInput) error {
	if err := validPrincipals(in.Voter); err != nil {
		return err
	}
	return u.mutate(ctx, "vote", in.Voter, func(st state) error {
		rec, err := st.startup(ctx, in.Founder)
		if err != nil {
			return err
		}
		if !rec.VotingOpen(u.now()) {
			return domain.ErrVotingClosed
		}
		key := domain.VoteKey{Voter: in.Voter, Founder: in.Founder}
		voted, err := st.s.Has(ctx, key)
		if err != nil {
			return err
		}
		if voted {
			return domain.ErrAlreadyVoted
		}
		if err := st.s.Put(ctx, key, in.VoteYes); err != nil {
			return err
		}
		if in.VoteYes {
			rec.YesVotes++
		} else {
			rec.NoVotes++
		}
		return st.putStartup(ctx, rec)
	})
}

func (u *Usecase) HasVoted(ctx context.Context, voter, founder domain.Principal) (bool, error) {
	var voted bool
	err := u.view(ctx, func(st state) error {
		var err error
		voted, err = st.s.Has(ctx, domain.VoteKey{Voter: voter, Founder: founder})
		return err
	})
	return voted, err
}
