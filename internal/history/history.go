// Package history records terminal match outcomes to postgres.
package history

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Runescape-Tracking/duelmate/internal/engine"
	"github.com/Runescape-Tracking/duelmate/internal/session"
)

// MatchRecord is one finished match.
type MatchRecord struct {
	ID                uint   `gorm:"primaryKey"`
	MatchCode         string `gorm:"uniqueIndex"`
	Player1           string
	Player2           string
	WinnerRSN         string
	WinnerCombatLevel int
	WinnerRating      int
	World             int
	Zone              string
	FinishedAt        time.Time
}

// Recorder subscribes to engine updates and inserts one row per match that
// reaches Completed with a reported winner.
type Recorder struct {
	db   *gorm.DB
	log  *zap.Logger
	seen map[string]bool
}

func Open(dsn string, log *zap.Logger) (*Recorder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&MatchRecord{}); err != nil {
		return nil, err
	}
	return &Recorder{db: db, log: log, seen: make(map[string]bool)}, nil
}

// Run consumes updates until the channel closes or ctx is canceled.
func (r *Recorder) Run(ctx context.Context, updates <-chan engine.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if u.Session != nil {
				r.record(ctx, u.Session)
			}
		}
	}
}

// shouldRecord reports whether a session update warrants a row: the match
// reached Completed with a winner payload, carries a code, and has not been
// written this run.
func (r *Recorder) shouldRecord(s *session.Session) bool {
	if s.Status != session.StatusCompleted || s.Winner == nil || s.MatchCode == "" {
		return false
	}
	return !r.seen[s.MatchCode]
}

func (r *Recorder) record(ctx context.Context, s *session.Session) {
	if !r.shouldRecord(s) {
		return
	}
	rec := MatchRecord{
		MatchCode:         s.MatchCode,
		Player1:           s.Participants[0].RSN,
		Player2:           s.Participants[1].RSN,
		WinnerRSN:         s.Winner.RSN,
		WinnerCombatLevel: s.Winner.CombatLevel,
		WinnerRating:      s.Winner.Rating,
		World:             s.World,
		Zone:              s.Zone,
		FinishedAt:        time.Now(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "match_code"}}, DoNothing: true}).
		Create(&rec).Error
	if err != nil {
		r.log.Error("record match", zap.String("match", s.MatchCode), zap.Error(err))
		return
	}
	r.seen[s.MatchCode] = true
	r.log.Info("match recorded",
		zap.String("match", s.MatchCode),
		zap.String("winner", s.Winner.RSN),
		zap.Int("rating", s.Winner.Rating),
	)
}
