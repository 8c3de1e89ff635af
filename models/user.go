package models

import "time"

// User is a participant of the giveaway, created on first interaction
// with either bot session. Rows are never deleted.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TelegramID int64     `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Username   string    `gorm:"size:255" json:"username"`
	FirstName  string    `gorm:"size:255" json:"first_name"`
	CreatedAt  time.Time `json:"created_at"`

	// Associations
	Wins []Win `gorm:"foreignKey:UserID" json:"wins,omitempty"`
}

func (User) TableName() string {
	return "users"
}
