package models

import "time"

// WinStatus is the claim lifecycle. The only transition is
// pending -> fulfilled; there is no cancellation path, a reserved unit
// stays consumed even if the win is never fulfilled.
type WinStatus string

const (
	WinPending   WinStatus = "pending"
	WinFulfilled WinStatus = "fulfilled"
)

// Win records one reserved prize unit. Its existence is the evidence that
// inventory was decremented; rows are never deleted, they are the audit
// trail.
type Win struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`
	GiftID uint `gorm:"not null;index" json:"gift_id"`
	// Copy of the winner's Telegram id so the sender session can find
	// pending wins without a join.
	TelegramID  int64      `gorm:"not null;index" json:"telegram_id"`
	Status      WinStatus  `gorm:"size:50;not null;default:'pending'" json:"status"`
	WonAt       time.Time  `gorm:"not null" json:"won_at"`
	FulfilledAt *time.Time `json:"fulfilled_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Gift *Gift `gorm:"foreignKey:GiftID" json:"gift,omitempty"`
}

func (Win) TableName() string {
	return "wins"
}
