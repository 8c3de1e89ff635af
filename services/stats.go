package services

import (
	"context"

	"giftbot/models"

	"gorm.io/gorm"
)

// Stats records roll telemetry. Append-only; nothing reads it on the hot
// path.
type Stats struct {
	db *gorm.DB
}

func NewStats(db *gorm.DB) *Stats {
	return &Stats{db: db}
}

// RecordRoll appends one attempt row.
func (s *Stats) RecordRoll(ctx context.Context, userID uint, jackpot bool) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	attempt := models.RollAttempt{UserID: userID, Jackpot: jackpot}
	return classify(s.db.WithContext(ctx).Create(&attempt).Error)
}

// RollStats returns total attempts and jackpot count.
func (s *Stats) RollStats(ctx context.Context) (total, jackpots int64, err error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	db := s.db.WithContext(ctx)
	if err = db.Model(&models.RollAttempt{}).Count(&total).Error; err != nil {
		return 0, 0, classify(err)
	}
	if err = db.Model(&models.RollAttempt{}).Where("jackpot = ?", true).Count(&jackpots).Error; err != nil {
		return 0, 0, classify(err)
	}
	return total, jackpots, nil
}
