package models

import (
	"encoding/json"
	"time"
)

// Game is one play-through of the quiz for one chat. QuestionIDs is the
// ordered pool snapshot fixed at creation; AnsweredIDs grows as questions
// are consumed and never exceeds the pool.
type Game struct {
	ID                uint       `gorm:"primaryKey"`
	ChatID            string     `gorm:"type:varchar(32);not null;index"`
	Status            string     `gorm:"type:varchar(20);not null;default:'started';index"`
	QuestionIDs       string     `gorm:"type:jsonb;default:'[]'"`
	AnsweredIDs       string     `gorm:"type:jsonb;default:'[]'"`
	CurrentQuestionID *uint      `gorm:"index"`
	WinnerUserID      *uint      `gorm:"index"`
	StartedAt         time.Time  `gorm:"default:CURRENT_TIMESTAMP"`
	FinishedAt        *time.Time `gorm:"index"`
	CreatedAt         time.Time  `gorm:"autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime"`
}

// Game status constants
const (
	GameStatusNotStarted = "not_started"
	GameStatusStarted    = "started"
	GameStatusFinished   = "finished"
)

func (Game) TableName() string {
	return "games"
}

// Pool decodes the ordered question-pool snapshot.
func (g *Game) Pool() []uint {
	return decodeIDs(g.QuestionIDs)
}

// Answered decodes the consumed question ids.
func (g *Game) Answered() []uint {
	return decodeIDs(g.AnsweredIDs)
}

// MarkAnswered appends a question id to the in-memory answered set.
// Already-present ids are ignored so the set stays monotonic.
func (g *Game) MarkAnswered(questionID uint) {
	answered := g.Answered()
	for _, id := range answered {
		if id == questionID {
			return
		}
	}
	answered = append(answered, questionID)
	g.AnsweredIDs = encodeIDs(answered)
}

// NextUnanswered picks the next question in original pool order that has
// not been consumed yet.
func (g *Game) NextUnanswered() (uint, bool) {
	answered := make(map[uint]bool, len(g.Answered()))
	for _, id := range g.Answered() {
		answered[id] = true
	}
	for _, id := range g.Pool() {
		if !answered[id] {
			return id, true
		}
	}
	return 0, false
}

func decodeIDs(raw string) []uint {
	if raw == "" {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}

func encodeIDs(ids []uint) string {
	if ids == nil {
		ids = []uint{}
	}
	data, _ := json.Marshal(ids)
	return string(data)
}

// EncodeIDs serializes a question id list the way Game stores it.
func EncodeIDs(ids []uint) string {
	return encodeIDs(ids)
}

// GameUser is the participant roster row; JoinOrder preserves the
// roster order used for winner tie-breaks.
type GameUser struct {
	ID        uint      `gorm:"primaryKey"`
	GameID    uint      `gorm:"not null;index:idx_game_user,unique"`
	Game      Game      `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`
	UserID    uint      `gorm:"not null;index:idx_game_user,unique"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	JoinOrder int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (GameUser) TableName() string {
	return "game_users"
}

// Score accumulates a participant's points within one game.
type Score struct {
	ID        uint      `gorm:"primaryKey"`
	GameID    uint      `gorm:"not null;index:idx_score_game_user,unique"`
	Game      Game      `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`
	UserID    uint      `gorm:"not null;index:idx_score_game_user,unique"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Count     int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Score) TableName() string {
	return "scores"
}

// UserScore is a scoreboard row: one participant with accumulated
// points, ordered by roster join order.
type UserScore struct {
	UserID    uint   `json:"user_id"`
	VkID      int64  `json:"vk_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Points    int    `json:"points"`
}

// DisplayName renders the participant name for leaderboard messages.
func (s UserScore) DisplayName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// GameSummary is the admin-API view of a finished game.
type GameSummary struct {
	ID         uint        `json:"id"`
	ChatID     string      `json:"chat_id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at"`
	Duration   int64       `json:"duration"`
	Winner     *WinnerInfo `json:"winner"`
}

type WinnerInfo struct {
	VkID   int64 `json:"vk_id"`
	Points int   `json:"points"`
}

// WinnerStat is one row of the admin statistics winners leaderboard.
type WinnerStat struct {
	VkID      int64  `json:"vk_id"`
	WinCount  int64  `json:"win_count"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// GameStats aggregates finished-game statistics for the admin API.
type GameStats struct {
	WinnersTop         []WinnerStat `json:"winners_top"`
	GamesTotal         int64        `json:"games_total"`
	DurationTotal      int64        `json:"duration_total"`
	DurationAverage    int64        `json:"duration_average"`
	GamesAveragePerDay float64      `json:"games_average_per_day"`
}
