package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quorumworks/govscore/internal/actor"
	"github.com/quorumworks/govscore/internal/event"
)

// Store provides the two shared mutable resources of the engine: the
// append-only activity ledger and the per-actor score counter. Every
// method is safe for concurrent use from any number of processors; the
// storage layer's atomic primitives (unique index, conditional update)
// are the only coordination.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Append writes one activity record, guarded by the unique index on
// dedup_key. If a record with the same key already exists the insert is a
// no-op and the existing record is returned with accepted=false; callers
// must then skip the score mutation. Existing rows are never modified.
func (s *Store) Append(ctx context.Context, rec *ActivityRecord) (bool, *ActivityRecord, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedup_key"}},
			DoNothing: true,
		}).
		Create(rec)
	if res.Error != nil {
		return false, nil, fmt.Errorf("append activity record: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return true, rec, nil
	}

	var existing ActivityRecord
	if err := s.db.WithContext(ctx).
		Where("dedup_key = ?", rec.DedupKey).
		First(&existing).Error; err != nil {
		return false, nil, fmt.Errorf("load existing record for %s: %w", rec.DedupKey, err)
	}
	return false, &existing, nil
}

// ApplyDelta reflects one ledger record's delta in the actor's cumulative
// score. It is idempotent per dedup key: a conditional flip of the
// record's score_applied marker gates the increment, so a crash between
// ledger write and score apply is completed exactly once on retry, and
// re-running for an already-applied record changes nothing.
//
// The increment itself is an in-database upsert (profile_score =
// profile_score + delta), never a read-modify-write, so concurrent deltas
// for one actor cannot lose updates.
func (s *Store) ApplyDelta(ctx context.Context, dedupKey string) (int64, error) {
	var newScore int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec ActivityRecord
		if err := tx.Where("dedup_key = ?", dedupKey).First(&rec).Error; err != nil {
			return fmt.Errorf("load record %s: %w", dedupKey, err)
		}

		res := tx.Model(&ActivityRecord{}).
			Where("dedup_key = ? AND score_applied = ?", dedupKey, false).
			Update("score_applied", true)
		if res.Error != nil {
			return fmt.Errorf("mark applied %s: %w", dedupKey, res.Error)
		}

		if res.RowsAffected == 1 {
			now := time.Now().UTC()
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "actor"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"profile_score": gorm.Expr("profile_score + ?", rec.ScoreDelta),
					"updated_at":    now,
				}),
			}).Create(&ActorScore{
				Actor:        rec.Actor,
				ProfileScore: rec.ScoreDelta,
				UpdatedAt:    now,
			}).Error; err != nil {
				return fmt.Errorf("increment score for %s: %w", rec.Actor, err)
			}
		}

		var score ActorScore
		if err := tx.Where("actor = ?", rec.Actor).First(&score).Error; err != nil {
			return fmt.Errorf("read back score for %s: %w", rec.Actor, err)
		}
		newScore = score.ProfileScore
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newScore, nil
}

// CountPenalisedRemovals returns how many removed-vote penalties the
// actor already has on record, across all proposals. Soft-deleted rows
// and in-grace (zero delta) removals do not count.
func (s *Store) CountPenalisedRemovals(ctx context.Context, id actor.ActorID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&ActivityRecord{}).
		Where("actor = ? AND kind = ? AND score_delta < 0 AND is_deleted = ?", id, event.KindRemovedVote, false).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count penalised removals for %s: %w", id, err)
	}
	return n, nil
}

// Score returns the actor's current cumulative score, zero if the actor
// has never earned or lost points.
func (s *Store) Score(ctx context.Context, id actor.ActorID) (int64, error) {
	var score ActorScore
	err := s.db.WithContext(ctx).Where("actor = ?", id).First(&score).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read score for %s: %w", id, err)
	}
	return score.ProfileScore, nil
}

// SumDeltas recomputes the actor's score from the ledger. Reconciliation
// and audit only; the hot path never derives the score by summation.
func (s *Store) SumDeltas(ctx context.Context, id actor.ActorID) (int64, error) {
	var sum int64
	err := s.db.WithContext(ctx).Model(&ActivityRecord{}).
		Where("actor = ? AND is_deleted = ?", id, false).
		Select("COALESCE(SUM(score_delta), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("sum deltas for %s: %w", id, err)
	}
	return sum, nil
}

// UnappliedRecords lists ledger rows whose delta has not yet reached the
// score counter (a crash between append and apply). A sweep can hand each
// dedup key back to ApplyDelta to finish the job.
func (s *Store) UnappliedRecords(ctx context.Context, limit int) ([]ActivityRecord, error) {
	var recs []ActivityRecord
	err := s.db.WithContext(ctx).
		Where("score_applied = ? AND is_deleted = ?", false, false).
		Order("processed_at").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list unapplied records: %w", err)
	}
	return recs, nil
}

// Activity lists the actor's non-deleted records, newest first.
func (s *Store) Activity(ctx context.Context, id actor.ActorID, limit int) ([]ActivityRecord, error) {
	var recs []ActivityRecord
	err := s.db.WithContext(ctx).
		Where("actor = ? AND is_deleted = ?", id, false).
		Order("processed_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list activity for %s: %w", id, err)
	}
	return recs, nil
}
