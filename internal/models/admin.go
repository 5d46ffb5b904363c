package models

import "time"

type Admin struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Password  string    `gorm:"type:varchar(64);not null"` // sha256 hex
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Admin) TableName() string {
	return "admins"
}
