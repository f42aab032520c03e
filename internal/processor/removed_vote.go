package processor

import (
	"context"
	"fmt"

	"github.com/quorumworks/govscore/internal/event"
	"github.com/quorumworks/govscore/internal/rules"
)

// RemovedVoteProcessor penalises vote removals that happen after the
// grace window, escalating on repeat offenses. Removals inside the
// window are still recorded, with a zero delta, for audit.
type RemovedVoteProcessor struct {
	tables *rules.Provider
	facts  Facts
	ledger Ledger
}

func NewRemovedVote(tables *rules.Provider, facts Facts, led Ledger) *RemovedVoteProcessor {
	return &RemovedVoteProcessor{tables: tables, facts: facts, ledger: led}
}

func (p *RemovedVoteProcessor) Kind() event.Kind { return event.KindRemovedVote }

func (p *RemovedVoteProcessor) Process(ctx context.Context, ev *event.ChainEvent) (*Outcome, error) {
	id, err := resolveActor(ev)
	if err != nil {
		return nil, err
	}

	// Both timestamps must come from the indexer; without them the
	// removal cannot be classified and nothing may be written.
	ts, err := p.facts.RemovalTimestamps(ctx, ev.Ref(), ev.ActorAddress)
	if err != nil {
		return nil, mapFactsErr(fmt.Errorf("removal timestamps for %s: %w", ev.Ref(), err))
	}

	// First-vs-repeat is scoped per actor across all proposals. This read
	// is not linearizable with the actor's concurrent removals on other
	// proposals; under extreme concurrency two removals may both classify
	// as "first". Accepted limitation, not worth a distributed lock.
	prior, err := p.ledger.CountPenalisedRemovals(ctx, id)
	if err != nil {
		return nil, Retryable(err)
	}

	cls, err := p.tables.Classifier().RemovedVote(ts.FirstVoteAt, ts.CurrentVoteAt, prior)
	if err != nil {
		return nil, Terminal(err)
	}

	// The removal occurrence (current vote timestamp) is part of the key:
	// re-voting and removing again is a new logical event.
	key := fmt.Sprintf("removed_vote:%s:%s:%s:%s:%d",
		id, ev.Network, ev.ProposalType, ev.ProposalIndex, ts.CurrentVoteAt.Unix())
	return commit(ctx, p.ledger, newRecord(ev, id, cls, ts.CurrentVoteAt, key))
}
