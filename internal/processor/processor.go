// Package processor orchestrates one governance event end to end:
// resolve actor → fetch chain facts → classify → write one ledger record
// → apply the score delta. The ledger's dedup key is the sole idempotency
// gate; everything before it is read-only and everything after it is
// idempotent per record.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quorumworks/govscore/internal/actor"
	"github.com/quorumworks/govscore/internal/event"
	"github.com/quorumworks/govscore/internal/indexer"
	"github.com/quorumworks/govscore/internal/ledger"
	"github.com/quorumworks/govscore/internal/rules"
)

// Status is the terminal state of a processed event.
type Status string

const (
	// StatusApplied: new ledger record written, delta reflected in score.
	StatusApplied Status = "applied"
	// StatusDuplicate: the logical event was already on the ledger; no
	// further score mutation. This is a success, not an error.
	StatusDuplicate Status = "duplicate"
)

// Outcome reports what processing one event did.
type Outcome struct {
	Status   Status        `json:"status"`
	Actor    actor.ActorID `json:"actor"`
	Kind     event.Kind    `json:"kind"`
	Tier     rules.Tier    `json:"tier"`
	Delta    int64         `json:"delta"`
	NewScore int64         `json:"new_score"`
	RecordID string        `json:"record_id"`
	DedupKey string        `json:"dedup_key"`
}

// Ledger is the slice of the storage layer the processors need.
type Ledger interface {
	Append(ctx context.Context, rec *ledger.ActivityRecord) (bool, *ledger.ActivityRecord, error)
	ApplyDelta(ctx context.Context, dedupKey string) (int64, error)
	CountPenalisedRemovals(ctx context.Context, id actor.ActorID) (int64, error)
}

// Facts is the indexer surface the processors consume. Calls are
// read-only and freely retryable.
type Facts interface {
	VoteTimestamp(ctx context.Context, ref event.ProposalRef, address string) (time.Time, error)
	RemovalTimestamps(ctx context.Context, ref event.ProposalRef, address string) (indexer.VoteTimestamps, error)
}

// Processor handles one event kind.
type Processor interface {
	Kind() event.Kind
	Process(ctx context.Context, ev *event.ChainEvent) (*Outcome, error)
}

// resolveActor applies the canonical address normalization, treating an
// unparseable address as poison rather than falling back to the raw
// string as a score key.
func resolveActor(ev *event.ChainEvent) (actor.ActorID, error) {
	id, err := actor.Resolve(ev.ActorAddress)
	if err != nil {
		return "", Terminal(fmt.Errorf("resolve actor %q: %w", ev.ActorAddress, err))
	}
	return id, nil
}

// mapFactsErr converts indexer failure modes into the engine taxonomy:
// not-yet-indexed and transport failures are retryable, a malformed
// response is terminal.
func mapFactsErr(err error) error {
	if errors.Is(err, indexer.ErrMalformed) {
		return Terminal(err)
	}
	return Retryable(err)
}

// newRecord builds the single ledger row for an accepted event.
func newRecord(ev *event.ChainEvent, id actor.ActorID, cls rules.Classification, businessAt time.Time, dedupKey string) *ledger.ActivityRecord {
	return &ledger.ActivityRecord{
		ID:            uuid.New().String(),
		Actor:         id,
		Kind:          ev.Kind,
		Network:       ev.Network,
		ProposalType:  ev.ProposalType,
		ProposalIndex: ev.ProposalIndex,
		DedupKey:      dedupKey,
		Tier:          string(cls.Tier),
		ScoreDelta:    cls.Delta,
		CreatedAt:     businessAt.UTC(),
		ProcessedAt:   time.Now().UTC(),
	}
}

// commit writes the record and applies its delta. On a dedup rejection it
// still calls ApplyDelta for the existing record: that is a no-op when
// the delta already reached the score, and it completes the pipeline when
// a previous attempt crashed between append and apply.
func commit(ctx context.Context, led Ledger, rec *ledger.ActivityRecord) (*Outcome, error) {
	accepted, stored, err := led.Append(ctx, rec)
	if err != nil {
		return nil, Retryable(err)
	}

	newScore, err := led.ApplyDelta(ctx, stored.DedupKey)
	if err != nil {
		return nil, Retryable(err)
	}

	status := StatusApplied
	if !accepted {
		status = StatusDuplicate
	}
	return &Outcome{
		Status:   status,
		Actor:    stored.Actor,
		Kind:     stored.Kind,
		Tier:     rules.Tier(stored.Tier),
		Delta:    stored.ScoreDelta,
		NewScore: newScore,
		RecordID: stored.ID,
		DedupKey: stored.DedupKey,
	}, nil
}
