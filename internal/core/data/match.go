package data

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dcrodman/roulette/internal/game"
)

// Match is the recorded outcome of a single game.
type Match struct {
	ID      string `gorm:"primaryKey"`
	Player1 string `gorm:"index; not null"`
	Player2 string `gorm:"index; not null"`
	// One of P1, P2, DRAW or ABANDONED.
	Result  string `gorm:"not null"`
	Shots   int
	Reloads int
	HP1     int
	HP2     int

	StartedAt  time.Time
	FinishedAt time.Time `gorm:"index"`
	CreatedAt  time.Time
}

// Winner returns the nickname of the winning player, or an empty string if
// the game had no winner.
func (m *Match) Winner() string {
	switch m.Result {
	case "P1":
		return m.Player1
	case "P2":
		return m.Player2
	}
	return ""
}

// CreateMatch persists the Match record to the database.
func CreateMatch(db *gorm.DB, match *Match) error {
	return db.Create(match).Error
}

// FindMatchByID returns the Match with the given ID or nil if there is none.
func FindMatchByID(db *gorm.DB, id string) (*Match, error) {
	var match Match
	err := db.Where("id = ?", id).First(&match).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &match, nil
}

// FindMatchesByNickname returns up to limit of the most recent matches in
// which nickname took either seat.
func FindMatchesByNickname(db *gorm.DB, nickname string, limit int) ([]Match, error) {
	var matches []Match
	err := db.Where("player1 = ? OR player2 = ?", nickname, nickname).
		Order("finished_at desc").
		Limit(limit).
		Find(&matches).Error
	return matches, err
}

// RecentMatches returns up to limit of the most recently finished matches.
func RecentMatches(db *gorm.DB, limit int) ([]Match, error) {
	var matches []Match
	err := db.Order("finished_at desc").Limit(limit).Find(&matches).Error
	return matches, err
}

// Recorder stores finished games as Match rows.
type Recorder struct {
	DB *gorm.DB
}

// RecordMatch saves the final state of a game.
func (r *Recorder) RecordMatch(ctx context.Context, final game.Snapshot) error {
	return CreateMatch(r.DB.WithContext(ctx), NewMatch(final))
}

// NewMatch converts the final snapshot of a game into a Match.
func NewMatch(final game.Snapshot) *Match {
	return &Match{
		ID:         final.ID,
		Player1:    final.Players[0],
		Player2:    final.Players[1],
		Result:     final.Result,
		Shots:      final.Shots,
		Reloads:    final.Reloads,
		HP1:        final.HP[0],
		HP2:        final.HP[1],
		StartedAt:  final.StartedAt,
		FinishedAt: final.FinishedAt,
	}
}
