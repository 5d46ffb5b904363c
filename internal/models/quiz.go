package models

import "time"

type Theme struct {
	ID        uint      `gorm:"primaryKey"`
	Title     string    `gorm:"type:varchar(120);uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Theme) TableName() string {
	return "themes"
}

type Question struct {
	ID        uint      `gorm:"primaryKey"`
	Title     string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	ThemeID   uint      `gorm:"not null;index"`
	Theme     Theme     `gorm:"foreignKey:ThemeID;constraint:OnDelete:CASCADE"`
	Answers   []Answer  `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Question) TableName() string {
	return "questions"
}

// CorrectAnswer returns the answer flagged correct. A question is
// validated at creation time to carry exactly one.
func (q *Question) CorrectAnswer() (*Answer, bool) {
	for i := range q.Answers {
		if q.Answers[i].IsCorrect {
			return &q.Answers[i], true
		}
	}
	return nil, false
}

type Answer struct {
	ID         uint   `gorm:"primaryKey"`
	QuestionID uint   `gorm:"not null;index"`
	Title      string `gorm:"type:varchar(255);not null"`
	IsCorrect  bool   `gorm:"not null;default:false"`
}

func (Answer) TableName() string {
	return "answers"
}
