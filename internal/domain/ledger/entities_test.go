package ledger

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestPrincipal_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"G" + strings.Repeat("A", 55), true},
		{"C" + strings.Repeat("B", 50) + "23456", true},
		{"", false},
		{"G" + strings.Repeat("A", 54), false},
		{"G" + strings.Repeat("A", 56), false},
		{"X" + strings.Repeat("A", 55), false},
		{"g" + strings.Repeat("a", 55), false},
		{"G" + strings.Repeat("A", 54) + "1", false}, // 1 is not base32
	}
	for _, tt := range tests {
		if got := Principal(tt.in).Valid(); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStartupRecord_VotingOpen(t *testing.T) {
	end := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	rec := StartupRecord{VotingEndTime: end.Unix()}

	if !rec.VotingOpen(end.Add(-time.Hour)) {
		t.Fatal("closed before end")
	}
	if !rec.VotingOpen(end) {
		t.Fatal("closed at the end time")
	}
	if !rec.VotingOpen(end.Add(999 * time.Millisecond)) {
		t.Fatal("closed within the end second")
	}
	if rec.VotingOpen(end.Add(time.Second)) {
		t.Fatal("open after end")
	}
}

func TestStartupRecord_Balances(t *testing.T) {
	tests := []struct {
		name                         string
		allocated, unlocked, claimed int64
		ok                           bool
	}{
		{"empty", 0, 0, 0, true},
		{"partly unlocked", 1000, 400, 100, true},
		{"fully claimed", 1000, 1000, 1000, true},
		{"claimed over unlocked", 1000, 400, 500, false},
		{"unlocked over allocated", 300, 400, 0, false},
		{"negative claimed", 10, 10, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := StartupRecord{TotalAllocated: tt.allocated, UnlockedBalance: tt.unlocked, ClaimedBalance: tt.claimed}
			if err := rec.CheckBalances(); (err == nil) != tt.ok {
				t.Fatalf("CheckBalances() = %v, want ok=%v", err, tt.ok)
			}
			if tt.ok && rec.Claimable() != tt.unlocked-tt.claimed {
				t.Fatalf("Claimable() = %d", rec.Claimable())
			}
		})
	}
}

func TestPolicy_Validate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy: %v", err)
	}
	if p := DefaultPolicy(); p.ReleaseMode != ReleaseVCInvest || p.VCAdmission != AdmissionStake || p.StrictStakeWithdrawal {
		t.Fatalf("unexpected default %+v", p)
	}
	if err := (Policy{ReleaseMode: ReleaseMilestone, VCAdmission: AdmissionRequest}).Validate(); err != nil {
		t.Fatalf("milestone/request: %v", err)
	}
	if err := (Policy{ReleaseMode: "instant", VCAdmission: AdmissionStake}).Validate(); err == nil {
		t.Fatal("unknown release mode accepted")
	}
	if err := (Policy{ReleaseMode: ReleaseVCInvest}).Validate(); err == nil {
		t.Fatal("empty admission accepted")
	}
}

func TestAddAmount(t *testing.T) {
	if got, err := AddAmount(40, 2); err != nil || got != 42 {
		t.Fatalf("AddAmount(40, 2) = %d, %v", got, err)
	}
	if _, err := AddAmount(math.MaxInt64, 1); CodeOf(err) != CodeInvalidArgument {
		t.Fatalf("overflow: %v", err)
	}
	if _, err := AddAmount(math.MinInt64, -1); CodeOf(err) != CodeInvalidArgument {
		t.Fatalf("underflow: %v", err)
	}
}
