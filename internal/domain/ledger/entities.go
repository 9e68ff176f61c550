package ledger

import (
	"fmt"
	"math"
	"regexp"
	"time"
)

// VotingPeriod is how long a startup accepts votes after applying.
const VotingPeriod = 7 * 24 * time.Hour

// Principal is an account identity (a Stellar-style strkey, e.g. "GABC...").
type Principal string

var rePrincipal = regexp.MustCompile(`^[GC][A-Z2-7]{55}$`)

func (p Principal) Valid() bool { return rePrincipal.MatchString(string(p)) }

// ProjectMetadata is optional descriptive data for a startup. MetadataCID points
// at a JSON document on IPFS when the founder keeps the metadata off-ledger.
type ProjectMetadata struct {
	ProjectName string `json:"project_name,omitempty"`
	Description string `json:"description,omitempty"`
	ProjectURL  string `json:"project_url,omitempty"`
	TeamInfo    string `json:"team_info,omitempty"`
	MetadataCID string `json:"metadata_cid,omitempty"`
}

// StartupRecord is keyed by founder. Balances are in the token's smallest unit.
type StartupRecord struct {
	Founder         Principal       `json:"founder"`
	Metadata        ProjectMetadata `json:"metadata"`
	FundingGoal     int64           `json:"funding_goal"`
	TotalAllocated  int64           `json:"total_allocated"`
	UnlockedBalance int64           `json:"unlocked_balance"`
	ClaimedBalance  int64           `json:"claimed_balance"`
	VotingEndTime   int64           `json:"voting_end_time"` // unix seconds
	YesVotes        uint32          `json:"yes_votes"`
	NoVotes         uint32          `json:"no_votes"`
	Approved        bool            `json:"approved"`
}

func (s *StartupRecord) Claimable() int64 { return s.UnlockedBalance - s.ClaimedBalance }

// VotingOpen reports whether a vote cast at now is accepted; the end time itself is still open.
func (s *StartupRecord) VotingOpen(now time.Time) bool { return now.Unix() <= s.VotingEndTime }

// CheckBalances enforces 0 <= claimed <= unlocked <= allocated.
func (s *StartupRecord) CheckBalances() error {
	if s.ClaimedBalance < 0 || s.ClaimedBalance > s.UnlockedBalance || s.UnlockedBalance > s.TotalAllocated {
		return fmt.Errorf("balance invariant violated for %s: claimed=%d unlocked=%d allocated=%d",
			s.Founder, s.ClaimedBalance, s.UnlockedBalance, s.TotalAllocated)
	}
	return nil
}

type VCRecord struct {
	VC            Principal `json:"vc_address"`
	CompanyName   string    `json:"company_name"`
	StakeAmount   int64     `json:"stake_amount"`
	TotalInvested int64     `json:"total_invested"`
}

// VCRequest is a pending admission awaiting approve_vc.
type VCRequest struct {
	VC          Principal `json:"vc_address"`
	CompanyName string    `json:"company_name"`
	RequestedAt int64     `json:"requested_at"`
}

// AdminConfig is written once by init.
type AdminConfig struct {
	Admin           Principal `json:"admin"`
	ApplicationFee  int64     `json:"application_fee"`
	VCStakeRequired int64     `json:"vc_stake_required"`
}

type ReleaseMode string

const (
	// ReleaseVCInvest unlocks investment capital as soon as a VC invests.
	ReleaseVCInvest ReleaseMode = "vc_invest"
	// ReleaseMilestone leaves allocation and unlocking to the admin.
	ReleaseMilestone ReleaseMode = "milestone"
)

type VCAdmission string

const (
	AdmissionStake   VCAdmission = "stake"
	AdmissionRequest VCAdmission = "request"
)

// Policy selects between the mutually exclusive release and admission variants.
// It is fixed for the lifetime of a ledger.
type Policy struct {
	ReleaseMode           ReleaseMode `json:"release_mode"`
	VCAdmission           VCAdmission `json:"vc_admission"`
	StrictStakeWithdrawal bool        `json:"strict_stake_withdrawal"`
}

func DefaultPolicy() Policy {
	return Policy{ReleaseMode: ReleaseVCInvest, VCAdmission: AdmissionStake}
}

func (p Policy) Validate() error {
	switch p.ReleaseMode {
	case ReleaseVCInvest, ReleaseMilestone:
	default:
		return fmt.Errorf("unknown release mode %q", p.ReleaseMode)
	}
	switch p.VCAdmission {
	case AdmissionStake, AdmissionRequest:
	default:
		return fmt.Errorf("unknown VC admission %q", p.VCAdmission)
	}
	return nil
}

// AddAmount returns a+b, failing on int64 overflow.
func AddAmount(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, Wrap(CodeInvalidArgument, "amount overflow", fmt.Errorf("%d + %d", a, b))
	}
	return a + b, nil
}
