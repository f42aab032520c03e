// Package rules holds the static scoring rule table and the per-kind
// event classifier that selects which tier of a rule applies.
package rules

import (
	"fmt"
	"time"

	"github.com/quorumworks/govscore/internal/config"
	"github.com/quorumworks/govscore/internal/event"
)

// Tier is the classification bucket within an event kind that determines
// the score delta applied.
type Tier string

const (
	// TierStandard is the single tier for kinds without time sensitivity.
	TierStandard Tier = "standard"
	// TierNone marks a removed vote inside the grace window: recorded for
	// audit, zero delta.
	TierNone Tier = "none"
	// TierFirst is the first qualifying removed-vote penalty for an actor.
	TierFirst Tier = "first"
	// TierSecondOrMore escalates every subsequent qualifying removal.
	TierSecondOrMore Tier = "second_or_more"
)

type ruleKey struct {
	kind event.Kind
	tier Tier
}

// Table is an immutable (kind, tier) → delta lookup built once from
// validated config and injected into the processors. Swapping the table
// (reload) only affects events processed afterwards; recorded deltas are
// never recomputed.
type Table struct {
	version     string
	graceWindow time.Duration
	deltas      map[ruleKey]int64
}

// Build constructs a Table from a validated RuleConfig.
func Build(cfg *config.RuleConfig) (*Table, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	t := &Table{
		version:     cfg.Version,
		graceWindow: time.Duration(cfg.Scoring.GraceWindowHours) * time.Hour,
		deltas:      make(map[ruleKey]int64, len(cfg.Scoring.Rules)),
	}
	for _, r := range cfg.Scoring.Rules {
		kind, err := event.ParseKind(r.Kind)
		if err != nil {
			return nil, fmt.Errorf("rule table: %w", err)
		}
		t.deltas[ruleKey{kind: kind, tier: Tier(r.Tier)}] = r.Delta
	}
	return t, nil
}

// Version returns the config version the table was built from.
func (t *Table) Version() string { return t.version }

// GraceWindow is the removed-vote window within which no penalty applies.
func (t *Table) GraceWindow() time.Duration { return t.graceWindow }

// Delta looks up the signed score delta for a (kind, tier) pair.
// TierNone is always zero and needs no table entry.
func (t *Table) Delta(kind event.Kind, tier Tier) (int64, error) {
	if tier == TierNone {
		return 0, nil
	}
	d, ok := t.deltas[ruleKey{kind: kind, tier: tier}]
	if !ok {
		return 0, fmt.Errorf("no rule for (%s, %s)", kind, tier)
	}
	return d, nil
}
