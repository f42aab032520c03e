package event

import (
	"fmt"
	"time"
)

// Kind identifies the class of governance action an event reports.
type Kind string

const (
	KindVoted         Kind = "voted"
	KindRemovedVote   Kind = "removed_vote"
	KindBountyClaimed Kind = "claim_bounty"
)

// ParseKind validates a raw kind string from an incoming payload.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindVoted, KindRemovedVote, KindBountyClaimed:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

// ChainEvent is the canonical input model for all incoming governance events.
type ChainEvent struct {
	ID            string        `json:"id"`
	Kind          Kind          `json:"kind"` // "voted", "removed_vote", "claim_bounty"
	Network       string        `json:"network"`
	ActorAddress  string        `json:"actor_address"`
	ProposalType  string        `json:"proposal_type"`
	ProposalIndex ProposalIndex `json:"proposal_index"`
	OccurredAt    time.Time     `json:"occurred_at"`
	ReceivedAt    time.Time     `json:"-"`
}

// Ref returns the proposal reference tuple for this event.
func (e *ChainEvent) Ref() ProposalRef {
	return ProposalRef{
		Network:      e.Network,
		ProposalType: e.ProposalType,
		Index:        e.ProposalIndex,
	}
}

// Validate checks the fields every processor requires.
func (e *ChainEvent) Validate() error {
	if _, err := ParseKind(string(e.Kind)); err != nil {
		return err
	}
	if e.Network == "" {
		return fmt.Errorf("network is required")
	}
	if e.ActorAddress == "" {
		return fmt.Errorf("actor_address is required")
	}
	if e.ProposalIndex.IsZero() {
		return fmt.Errorf("proposal_index is required")
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("occurred_at is required")
	}
	return nil
}

// ProposalRef identifies the governance item an event relates to.
type ProposalRef struct {
	Network      string        `json:"network"`
	ProposalType string        `json:"proposal_type"`
	Index        ProposalIndex `json:"proposal_index"`
}

func (r ProposalRef) String() string {
	return fmt.Sprintf("%s/%s/%s", r.Network, r.ProposalType, r.Index)
}
