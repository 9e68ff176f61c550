package ledger

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	domain "deco-ledger/internal/domain/ledger"
	"deco-ledger/internal/testutil"
)

// TestScenario_StakeInvestClaim walks a VC from staking through a founder's claim.
func TestScenario_StakeInvestClaim(t *testing.T) {
	h := newHarness(t, domain.DefaultPolicy())
	h.init(t, 100, 500)
	h.apply(t, founder)
	require.NoError(t, h.uc.Vote(as(voter), VoteInput{Voter: voter, Founder: founder, VoteYes: true}))
	require.NoError(t, h.uc.ApproveApplication(as(admin), admin, founder))

	_, err := h.uc.StakeToBecomeVC(as(vcAcct), StakeInput{VC: vcAcct, CompanyName: "Acme", Token: usdc})
	require.NoError(t, err)
	require.NoError(t, h.uc.VCInvest(as(vcAcct), InvestInput{VC: vcAcct, Founder: founder, Amount: 200, Token: usdc}))

	got := h.status(t, founder)
	require.Equal(t, int64(200), got.TotalAllocated)
	require.Equal(t, int64(200), got.UnlockedBalance)
	require.Equal(t, uint32(1), got.YesVotes)

	claimed, err := h.uc.ClaimFunds(as(founder), founder, usdc)
	require.NoError(t, err)
	require.Equal(t, int64(200), claimed)
	_, err = h.uc.ClaimFunds(as(founder), founder, usdc)
	wantCode(t, err, domain.CodeNothingToClaim)

	require.Equal(t, int64(9_300), h.bank.Balance(vcAcct))
	require.Equal(t, int64(10_200), h.bank.Balance(founder))
	require.Equal(t, int64(500), h.bank.Balance(custody))

	require.NoError(t, h.uc.WithdrawVCStake(as(vcAcct), vcAcct, usdc))
	require.Equal(t, int64(9_800), h.bank.Balance(vcAcct))
	require.Zero(t, h.bank.Balance(custody))
}

// TestInvariants_RandomOperations drives random operations from several actors
// and checks the ledger's accounting after every step.
func TestInvariants_RandomOperations(t *testing.T) {
	for _, policy := range []domain.Policy{domain.DefaultPolicy(), milestonePolicy()} {
		t.Run(string(policy.ReleaseMode), func(t *testing.T) {
			h := newHarness(t, policy)
			h.init(t, 100, 300)

			founders := []domain.Principal{founder, testutil.Principal("FOUNDERB"), testutil.Principal("FOUNDERC")}
			vcs := []domain.Principal{vcAcct, testutil.Principal("VCB")}
			voters := []domain.Principal{voter, mallory, founder}
			for _, f := range founders[1:] {
				h.bank.Seed(f, 10_000)
			}
			h.bank.Seed(vcs[1], 10_000)

			totalSupply := h.totalBalance(founders, vcs, voters)
			rng := rand.New(rand.NewPCG(7, uint64(len(policy.ReleaseMode))))
			pick := func(ps []domain.Principal) domain.Principal { return ps[rng.IntN(len(ps))] }
			ctx := context.Background()

			for step := 0; step < 400; step++ {
				f, v := pick(founders), pick(vcs)
				var err error
				switch rng.IntN(9) {
				case 0:
					_, err = h.uc.Apply(as(f), ApplyInput{Founder: f, FundingGoal: 1000})
				case 1:
					p := pick(voters)
					err = h.uc.Vote(as(p), VoteInput{Voter: p, Founder: f, VoteYes: rng.IntN(2) == 0})
				case 2:
					err = h.uc.ApproveApplication(as(admin), admin, f)
				case 3:
					_, err = h.uc.StakeToBecomeVC(as(v), StakeInput{VC: v, CompanyName: "co", Token: usdc})
				case 4:
					err = h.uc.VCInvest(as(v), InvestInput{VC: v, Founder: f, Amount: rng.Int64N(400) + 1, Token: usdc})
				case 5:
					err = h.uc.FundStartup(as(admin), admin, f, rng.Int64N(2000))
				case 6:
					err = h.uc.UnlockMilestone(as(admin), admin, f, rng.Int64N(500)+1)
				case 7:
					_, err = h.uc.ClaimFunds(as(f), f, usdc)
				case 8:
					err = h.uc.WithdrawVCStake(as(v), v, usdc)
				}
				if err != nil && domain.CodeOf(err) == "" {
					t.Fatalf("step %d: untyped error %v", step, err)
				}
				if step%20 == 0 {
					h.advance(domain.VotingPeriod / 10)
				}

				// custody holds current stakes plus unlocked-but-unclaimed escrow
				var escrow int64
				for _, f := range founders {
					rec, err := h.uc.GetStartupStatus(ctx, f)
					require.NoError(t, err)
					if rec == nil {
						continue
					}
					require.NoError(t, rec.CheckBalances(), "step %d", step)
					if policy.ReleaseMode == domain.ReleaseVCInvest {
						require.Equal(t, rec.TotalAllocated, rec.UnlockedBalance, "step %d", step)
						escrow += rec.UnlockedBalance - rec.ClaimedBalance
					}
					var votes uint32
					for _, p := range voters {
						if ok, _ := h.uc.HasVoted(ctx, p, f); ok {
							votes++
						}
					}
					require.Equal(t, votes, rec.YesVotes+rec.NoVotes, "step %d", step)
				}
				var stakes int64
				for _, v := range vcs {
					rec, err := h.uc.GetVCData(ctx, v)
					require.NoError(t, err)
					if rec != nil {
						stakes += rec.StakeAmount
					}
				}
				if policy.ReleaseMode == domain.ReleaseVCInvest {
					require.Equal(t, stakes+escrow, h.bank.Balance(custody), "step %d", step)
				}
				require.Equal(t, totalSupply, h.totalBalance(founders, vcs, voters), "step %d", step)

				all, err := h.uc.GetAllVCs(ctx)
				require.NoError(t, err)
				seen := map[domain.Principal]bool{}
				for _, p := range all {
					require.False(t, seen[p], "duplicate roster entry %s", p)
					seen[p] = true
				}
			}
		})
	}
}

func (h *harness) totalBalance(groups ...[]domain.Principal) int64 {
	seen := map[domain.Principal]bool{custody: true}
	total := h.bank.Balance(custody)
	for _, g := range groups {
		for _, p := range g {
			if !seen[p] {
				seen[p] = true
				total += h.bank.Balance(p)
			}
		}
	}
	return total
}
