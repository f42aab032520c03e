package rules

import (
	"testing"
	"time"

	"github.com/quorumworks/govscore/internal/config"
)

func testTable(t *testing.T) *Table {
	t.Helper()
	table, err := Build(&config.RuleConfig{
		Version: "test",
		Scoring: config.ScoringConf{
			GraceWindowHours: 6,
			Rules: []config.RuleDef{
				{Kind: "voted", Tier: "standard", Delta: 1},
				{Kind: "removed_vote", Tier: "first", Delta: -10},
				{Kind: "removed_vote", Tier: "second_or_more", Delta: -20},
				{Kind: "claim_bounty", Tier: "standard", Delta: 5},
			},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return table
}

func TestVoteAndBountyAlwaysStandard(t *testing.T) {
	c := NewClassifier(testTable(t))

	v, err := c.Vote()
	if err != nil || v.Tier != TierStandard || v.Delta != 1 {
		t.Errorf("Vote() = %+v, %v; want standard/+1", v, err)
	}

	b, err := c.BountyClaim()
	if err != nil || b.Tier != TierStandard || b.Delta != 5 {
		t.Errorf("BountyClaim() = %+v, %v; want standard/+5", b, err)
	}
}

func TestRemovedVoteTiers(t *testing.T) {
	c := NewClassifier(testTable(t))
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		elapsed   time.Duration
		prior     int64
		wantTier  Tier
		wantDelta int64
	}{
		{name: "within grace", elapsed: 5 * time.Hour, wantTier: TierNone, wantDelta: 0},
		{name: "exactly at boundary is not a penalty", elapsed: 6 * time.Hour, wantTier: TierNone, wantDelta: 0},
		{name: "just over boundary", elapsed: 6*time.Hour + time.Second, wantTier: TierFirst, wantDelta: -10},
		{name: "well over, first offense", elapsed: 7 * time.Hour, wantTier: TierFirst, wantDelta: -10},
		{name: "repeat offense escalates", elapsed: 8 * time.Hour, prior: 1, wantTier: TierSecondOrMore, wantDelta: -20},
		{name: "many priors still second_or_more", elapsed: 48 * time.Hour, prior: 7, wantTier: TierSecondOrMore, wantDelta: -20},
		{name: "prior penalties irrelevant inside grace", elapsed: time.Hour, prior: 3, wantTier: TierNone, wantDelta: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.RemovedVote(t0, t0.Add(tc.elapsed), tc.prior)
			if err != nil {
				t.Fatalf("RemovedVote: %v", err)
			}
			if got.Tier != tc.wantTier || got.Delta != tc.wantDelta {
				t.Errorf("got %s/%d, want %s/%d", got.Tier, got.Delta, tc.wantTier, tc.wantDelta)
			}
		})
	}
}

func TestRemovedVoteRequiresBothTimestamps(t *testing.T) {
	c := NewClassifier(testTable(t))
	now := time.Now()

	if _, err := c.RemovedVote(time.Time{}, now, 0); err == nil {
		t.Error("missing first vote timestamp accepted")
	}
	if _, err := c.RemovedVote(now, time.Time{}, 0); err == nil {
		t.Error("missing current vote timestamp accepted")
	}
}

func TestTableDeltaUnknownPair(t *testing.T) {
	table := testTable(t)
	if _, err := table.Delta("voted", TierFirst); err == nil {
		t.Error("lookup of undefined (kind, tier) succeeded")
	}
	if d, err := table.Delta("removed_vote", TierNone); err != nil || d != 0 {
		t.Errorf("TierNone should be zero without a table entry, got %d, %v", d, err)
	}
}

func TestProviderSwap(t *testing.T) {
	table := testTable(t)
	p := NewProvider(table)
	if p.Table() != table {
		t.Fatal("provider does not return stored table")
	}

	other := testTable(t)
	p.Swap(other)
	if p.Table() != other {
		t.Error("swap did not take effect")
	}
}
