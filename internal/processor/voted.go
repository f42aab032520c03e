package processor

import (
	"context"
	"fmt"

	"github.com/quorumworks/govscore/internal/event"
	"github.com/quorumworks/govscore/internal/rules"
)

// VotedProcessor awards the fixed vote reward once per
// (actor, proposal) pair regardless of timing.
type VotedProcessor struct {
	tables *rules.Provider
	facts  Facts
	ledger Ledger
}

func NewVoted(tables *rules.Provider, facts Facts, led Ledger) *VotedProcessor {
	return &VotedProcessor{tables: tables, facts: facts, ledger: led}
}

func (p *VotedProcessor) Kind() event.Kind { return event.KindVoted }

func (p *VotedProcessor) Process(ctx context.Context, ev *event.ChainEvent) (*Outcome, error) {
	id, err := resolveActor(ev)
	if err != nil {
		return nil, err
	}

	votedAt, err := p.facts.VoteTimestamp(ctx, ev.Ref(), ev.ActorAddress)
	if err != nil {
		return nil, mapFactsErr(fmt.Errorf("vote timestamp for %s: %w", ev.Ref(), err))
	}

	cls, err := p.tables.Classifier().Vote()
	if err != nil {
		return nil, Terminal(err)
	}

	key := fmt.Sprintf("voted:%s:%s:%s:%s", id, ev.Network, ev.ProposalType, ev.ProposalIndex)
	return commit(ctx, p.ledger, newRecord(ev, id, cls, votedAt, key))
}
