package rules

import (
	"fmt"
	"time"

	"github.com/quorumworks/govscore/internal/event"
)

// Classification is the classifier's verdict for one event.
type Classification struct {
	Tier  Tier
	Delta int64
}

// Classifier applies per-kind tier selection against a rule table.
// It is pure: all chain facts (vote timestamps, prior penalty count)
// are supplied by the caller.
type Classifier struct {
	table *Table
}

func NewClassifier(t *Table) *Classifier {
	return &Classifier{table: t}
}

// Vote classifies a cast vote: always the standard tier, fixed reward.
func (c *Classifier) Vote() (Classification, error) {
	return c.standard(event.KindVoted)
}

// BountyClaim classifies a bounty claim: always the standard tier.
func (c *Classifier) BountyClaim() (Classification, error) {
	return c.standard(event.KindBountyClaimed)
}

// RemovedVote classifies a vote removal from the elapsed time between the
// actor's first vote on the proposal and the removal, plus how many
// penalised removals the actor already has on record (across all
// proposals).
//
// Elapsed time exactly at the grace window does not qualify for a
// penalty; the comparison is strictly greater-than.
func (c *Classifier) RemovedVote(firstVoteAt, removedAt time.Time, priorPenalties int64) (Classification, error) {
	if firstVoteAt.IsZero() || removedAt.IsZero() {
		return Classification{}, fmt.Errorf("removed vote classification requires both vote timestamps")
	}
	elapsed := removedAt.Sub(firstVoteAt)
	if elapsed <= c.table.GraceWindow() {
		return Classification{Tier: TierNone, Delta: 0}, nil
	}
	tier := TierFirst
	if priorPenalties > 0 {
		tier = TierSecondOrMore
	}
	delta, err := c.table.Delta(event.KindRemovedVote, tier)
	if err != nil {
		return Classification{}, err
	}
	return Classification{Tier: tier, Delta: delta}, nil
}

func (c *Classifier) standard(kind event.Kind) (Classification, error) {
	delta, err := c.table.Delta(kind, TierStandard)
	if err != nil {
		return Classification{}, err
	}
	return Classification{Tier: TierStandard, Delta: delta}, nil
}
