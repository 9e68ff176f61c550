package testutil

import (
	"strings"

	"deco-ledger/internal/domain/ledger"
)

// Principal builds a valid account address from a short uppercase name,
// e.g. Principal("ADMIN") == "GADMINAAAA...". Names may use A-Z and 2-7.
func Principal(name string) ledger.Principal {
	s := "G" + strings.ToUpper(name)
	if len(s) > 56 {
		s = s[:56]
	}
	return ledger.Principal(s + strings.Repeat("A", 56-len(s)))
}
