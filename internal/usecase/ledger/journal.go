package ledger

import (
	domain "deco-ledger/internal/domain/ledger"
	"deco-ledger/internal/domain/token"
)

// journal remembers the transfers an operation has made, committed or not.
// When the unit of work runs again, transfer replays them in order instead of
// moving funds a second time.
type journal struct {
	made []token.Transfer
	next int
}

var errDiverged = domain.New(domain.CodeTransferUnrecorded, "ledger state no longer matches the transfer already made")

// begin rewinds the replay cursor for a new attempt.
func (j *journal) begin() { j.next = 0 }

// replay returns the transfer made at this point of an earlier attempt.
func (j *journal) replay() (token.Transfer, bool) {
	if j.next >= len(j.made) {
		return token.Transfer{}, false
	}
	t := j.made[j.next]
	j.next++
	return t, true
}

func (j *journal) record(t token.Transfer) {
	j.made = append(j.made, t)
	j.next++
}

// settled reports whether the current attempt reproduced every transfer made so far.
func (j *journal) settled() bool { return j.next == len(j.made) }

func (j *journal) refs() []string {
	refs := make([]string, len(j.made))
	for i, t := range j.made {
		refs[i] = t.Reference
	}
	return refs
}

func sameTransfer(a, b token.Transfer) bool {
	return a.Token == b.Token && a.From == b.From && a.To == b.To && a.Amount == b.Amount
}
