package services

import (
	"context"
	"errors"
	"fmt"

	"giftbot/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Users handles participant registration. Users are created on first
// interaction and never deleted; only the handle fields get refreshed.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// EnsureUser returns the user for a Telegram id, creating the row on first
// contact. When Telegram reports a changed username or first name the
// stored handle is refreshed in place.
func (s *Users) EnsureUser(ctx context.Context, telegramID int64, username, firstName string) (*models.User, error) {
	if telegramID == 0 {
		return nil, fmt.Errorf("%w: telegram id is required", ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	db := s.db.WithContext(ctx)

	user := models.User{
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
	}
	// Two concurrent first contacts race on the unique index; DoNothing
	// makes the loser fall through to the read below.
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		DoNothing: true,
	}).Create(&user).Error; err != nil {
		return nil, classify(err)
	}

	var stored models.User
	if err := db.Where("telegram_id = ?", telegramID).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d vanished after upsert", ErrTransient, telegramID)
		}
		return nil, classify(err)
	}

	if stored.Username != username || stored.FirstName != firstName {
		updates := map[string]interface{}{"username": username, "first_name": firstName}
		if err := db.Model(&stored).Updates(updates).Error; err != nil {
			return nil, classify(err)
		}
		stored.Username = username
		stored.FirstName = firstName
	}
	return &stored, nil
}
