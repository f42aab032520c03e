// Package ledger is the durable half of the scoring engine: an
// append-only activity ledger whose dedup key is the idempotency gate,
// and a per-actor score counter mutated only by atomic increments.
package ledger

import (
	"time"

	"github.com/quorumworks/govscore/internal/actor"
	"github.com/quorumworks/govscore/internal/event"
)

// ActivityRecord is one row per processed governance action. Rows are
// never updated after creation except the soft-delete flag (administrative
// reversal) and the score-applied marker used for crash recovery.
type ActivityRecord struct {
	ID            string              `gorm:"primaryKey;size:36" json:"id"`
	Actor         actor.ActorID       `gorm:"size:80;index;not null" json:"actor"`
	Kind          event.Kind          `gorm:"size:32;not null" json:"kind"`
	Network       string              `gorm:"size:64;not null" json:"network"`
	ProposalType  string              `gorm:"size:64" json:"proposal_type"`
	ProposalIndex event.ProposalIndex `gorm:"type:text" json:"proposal_index"`
	DedupKey      string              `gorm:"uniqueIndex;size:256;not null" json:"dedup_key"`
	Tier          string              `gorm:"size:32;not null" json:"tier"`
	ScoreDelta    int64               `gorm:"not null" json:"score_delta"`
	CreatedAt     time.Time           `gorm:"not null" json:"created_at"`    // business timestamp (on-chain)
	ProcessedAt   time.Time           `gorm:"not null" json:"processed_at"`  // engine wall clock
	ScoreApplied  bool                `gorm:"not null;default:false" json:"-"`
	IsDeleted     bool                `gorm:"not null;default:false" json:"-"`
}

func (ActivityRecord) TableName() string { return "activity_records" }

// ActorScore is the single cumulative score row per actor, created lazily
// on first mutation.
type ActorScore struct {
	Actor        actor.ActorID `gorm:"primaryKey;size:80" json:"actor"`
	ProfileScore int64         `gorm:"not null;default:0" json:"profile_score"`
	UpdatedAt    time.Time     `gorm:"not null" json:"updated_at"`
}

func (ActorScore) TableName() string { return "actor_scores" }
