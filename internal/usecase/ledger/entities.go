package ledger

import (
	domain "deco-ledger/internal/domain/ledger"
)

type InitInput struct {
	Admin           domain.Principal
	ApplicationFee  int64
	VCStakeRequired int64
}

type ApplyInput struct {
	Founder     domain.Principal
	Metadata    domain.ProjectMetadata
	FundingGoal int64
}

type VoteInput struct {
	Voter   domain.Principal
	Founder domain.Principal
	VoteYes bool
}

type StakeInput struct {
	VC          domain.Principal
	CompanyName string
	Token       string
}

type InvestInput struct {
	VC      domain.Principal
	Founder domain.Principal
	Amount  int64
	Token   string
}

// StartupDTO is a StartupRecord plus fields derived at read time.
type StartupDTO struct {
	domain.StartupRecord
	Claimable  int64 `json:"claimable"`
	VotingOpen bool  `json:"voting_open"`
}
