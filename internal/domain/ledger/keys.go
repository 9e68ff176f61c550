package ledger

// Key addresses a single value in the ledger state. The variants below are the
// whole key space; only point lookups are supported.
type Key interface {
	String() string
	isKey()
}

type (
	AdminKey           struct{}
	ApplicationFeeKey  struct{}
	VCStakeRequiredKey struct{}
	AllStartupsKey     struct{}
	AllVCsKey          struct{}

	StartupKey struct{ Founder Principal }
	VCDataKey  struct{ VC Principal }
	// VCRequestKey holds a pending admission request (request admission mode).
	VCRequestKey struct{ VC Principal }

	VoteKey       struct{ Voter, Founder Principal }
	InvestmentKey struct{ VC, Founder Principal }
)

func (AdminKey) String() string           { return "admin" }
func (ApplicationFeeKey) String() string  { return "application_fee" }
func (VCStakeRequiredKey) String() string { return "vc_stake_required" }
func (AllStartupsKey) String() string     { return "all_startups" }
func (AllVCsKey) String() string          { return "all_vcs" }

func (k StartupKey) String() string   { return "startup/" + string(k.Founder) }
func (k VCDataKey) String() string    { return "vc/" + string(k.VC) }
func (k VCRequestKey) String() string { return "vc_request/" + string(k.VC) }
func (k VoteKey) String() string      { return "vote/" + string(k.Voter) + "/" + string(k.Founder) }
func (k InvestmentKey) String() string {
	return "investment/" + string(k.VC) + "/" + string(k.Founder)
}

func (AdminKey) isKey()           {}
func (ApplicationFeeKey) isKey()  {}
func (VCStakeRequiredKey) isKey() {}
func (AllStartupsKey) isKey()     {}
func (AllVCsKey) isKey()          {}
func (StartupKey) isKey()         {}
func (VCDataKey) isKey()          {}
func (VCRequestKey) isKey()       {}
func (VoteKey) isKey()            {}
func (InvestmentKey) isKey()      {}
