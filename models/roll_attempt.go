package models

import "time"

// RollAttempt is append-only telemetry: one row per slot-machine roll.
type RollAttempt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Jackpot   bool      `gorm:"not null;default:false" json:"jackpot"`
	CreatedAt time.Time `json:"created_at"`
}

func (RollAttempt) TableName() string {
	return "roll_attempts"
}
