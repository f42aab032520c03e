package processor

import (
	"context"
	"fmt"

	"github.com/quorumworks/govscore/internal/event"
	"github.com/quorumworks/govscore/internal/rules"
)

// BountyClaimedProcessor awards the fixed claim reward once per
// (actor, network, bounty index). Claims carry their business timestamp
// on the event itself; no extra chain facts are needed to classify them.
type BountyClaimedProcessor struct {
	tables *rules.Provider
	ledger Ledger
}

func NewBountyClaimed(tables *rules.Provider, led Ledger) *BountyClaimedProcessor {
	return &BountyClaimedProcessor{tables: tables, ledger: led}
}

func (p *BountyClaimedProcessor) Kind() event.Kind { return event.KindBountyClaimed }

func (p *BountyClaimedProcessor) Process(ctx context.Context, ev *event.ChainEvent) (*Outcome, error) {
	id, err := resolveActor(ev)
	if err != nil {
		return nil, err
	}

	cls, err := p.tables.Classifier().BountyClaim()
	if err != nil {
		return nil, Terminal(err)
	}

	key := fmt.Sprintf("claim_bounty:%s:%s:%s", id, ev.Network, ev.ProposalIndex)
	return commit(ctx, p.ledger, newRecord(ev, id, cls, ev.OccurredAt, key))
}
