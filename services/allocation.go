package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"giftbot/models"

	"gorm.io/gorm"
)

const (
	// Bound every store round-trip so a stuck connection surfaces as
	// ErrTransient instead of hanging a webhook handler.
	storeTimeout = 5 * time.Second
	retryBackoff = 200 * time.Millisecond
)

// Allocation owns the prize inventory and the win ledger. All mutations go
// through single transactions; there is no partial state where inventory
// moved but no win exists, or the other way around.
type Allocation struct {
	db *gorm.DB
}

func NewAllocation(db *gorm.DB) *Allocation {
	return &Allocation{db: db}
}

func (s *Allocation) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, storeTimeout)
}

// classify translates store errors into the service taxonomy. Domain
// sentinels pass through untouched; anything else from the driver is
// treated as transient because the surrounding transaction either
// committed fully or not at all.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrNotFound, ErrOutOfStock, ErrAlreadyFulfilled, ErrInvalidArgument} {
		if errors.Is(err, kind) {
			return err
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// retryTransient runs op, retrying once after a short backoff when the
// store reported a transient failure. Safe because op is one transaction.
func retryTransient(op func() error) error {
	err := op()
	if errors.Is(err, ErrTransient) {
		time.Sleep(retryBackoff)
		err = op()
	}
	return err
}

// Reserve decrements the gift's remaining quantity and opens a pending win
// for the user, atomically. The decrement is a conditional update checked
// via RowsAffected, so two users redeeming the last unit cannot both pass
// a stale quantity check. Returns ErrOutOfStock when the gift is depleted
// and ErrNotFound when the id is unknown.
//
// Reserve is not idempotent per jackpot event; de-duplicating retried
// redemptions is the gateway's job.
func (s *Allocation) Reserve(ctx context.Context, user *models.User, giftID uint) (*models.Win, error) {
	if user == nil || user.ID == 0 {
		return nil, fmt.Errorf("%w: reserve requires a persisted user", ErrInvalidArgument)
	}

	var win *models.Win
	err := retryTransient(func() error {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		return classify(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Gift{}).
				Where("id = ? AND quantity > 0", giftID).
				Update("quantity", gorm.Expr("quantity - 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Distinguish depleted from unknown.
				var exists int64
				if err := tx.Model(&models.Gift{}).Where("id = ?", giftID).Count(&exists).Error; err != nil {
					return err
				}
				if exists == 0 {
					return fmt.Errorf("%w: gift %d", ErrNotFound, giftID)
				}
				return fmt.Errorf("%w: gift %d", ErrOutOfStock, giftID)
			}

			w := models.Win{
				UserID:     user.ID,
				GiftID:     giftID,
				TelegramID: user.TelegramID,
				Status:     models.WinPending,
				WonAt:      time.Now().UTC(),
			}
			if err := tx.Create(&w).Error; err != nil {
				return err
			}
			win = &w
			return nil
		}))
	})
	if err != nil {
		return nil, err
	}
	return win, nil
}

// Fulfill transitions a pending win to fulfilled and stamps FulfilledAt.
// The transition is a compare-and-swap on status, so a duplicate
// confirmation signal surfaces as ErrAlreadyFulfilled instead of
// overwriting the original timestamp. Inventory is untouched; it was
// committed at reserve time.
func (s *Allocation) Fulfill(ctx context.Context, winID uint) (*models.Win, error) {
	var win *models.Win
	err := retryTransient(func() error {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		return classify(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			w, err := fulfillTx(tx, winID)
			if err != nil {
				return err
			}
			win = w
			return nil
		}))
	})
	if err != nil {
		return nil, err
	}
	return win, nil
}

func fulfillTx(tx *gorm.DB, winID uint) (*models.Win, error) {
	now := time.Now().UTC()
	res := tx.Model(&models.Win{}).
		Where("id = ? AND status = ?", winID, models.WinPending).
		Updates(map[string]interface{}{"status": models.WinFulfilled, "fulfilled_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var w models.Win
		if err := tx.First(&w, winID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: win %d", ErrNotFound, winID)
			}
			return nil, err
		}
		return nil, fmt.Errorf("%w: win %d", ErrAlreadyFulfilled, winID)
	}

	var w models.Win
	if err := tx.Preload("Gift").First(&w, winID).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// FulfillOldestPending fulfills the user's oldest pending win, looked up
// by the Telegram id copy on the win row. This is the sender session's
// path: a confirmation sticker arrives with nothing but the sender's chat
// id. Returns ErrNotFound when the user has no pending win.
func (s *Allocation) FulfillOldestPending(ctx context.Context, telegramID int64) (*models.Win, error) {
	var win *models.Win
	err := retryTransient(func() error {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		return classify(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var pending models.Win
			err := tx.Where("telegram_id = ? AND status = ?", telegramID, models.WinPending).
				Order("won_at ASC").
				First(&pending).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: no pending win for telegram id %d", ErrNotFound, telegramID)
				}
				return err
			}
			w, err := fulfillTx(tx, pending.ID)
			if err != nil {
				return err
			}
			win = w
			return nil
		}))
	})
	if err != nil {
		return nil, err
	}
	return win, nil
}

// ListAvailable returns the catalog: available gifts with at least one
// unit left, rarity ascending then name. A depleted gift is excluded even
// when its availability flag is still set.
func (s *Allocation) ListAvailable(ctx context.Context) ([]models.Gift, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var gifts []models.Gift
	err := s.db.WithContext(ctx).
		Where("quantity > 0 AND available = ?", true).
		Find(&gifts).Error
	if err != nil {
		return nil, classify(err)
	}

	// Rarity lives as a string column; order here so the listing is stable
	// across MySQL and SQLite.
	sort.Slice(gifts, func(i, j int) bool {
		ri, rj := models.RarityRank(gifts[i].Rarity), models.RarityRank(gifts[j].Rarity)
		if ri != rj {
			return ri < rj
		}
		return gifts[i].Name < gifts[j].Name
	})
	return gifts, nil
}

// AddPrize inserts a new catalog entry. Duplicate names are allowed,
// distinct batches of the same nominal prize are separate rows.
func (s *Allocation) AddPrize(ctx context.Context, icon, name string, quantity int, rarity string) (*models.Gift, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: gift name is required", ErrInvalidArgument)
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity %d is negative", ErrInvalidArgument, quantity)
	}
	r, err := models.ParseRarity(rarity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	gift := models.Gift{
		Icon:      icon,
		Name:      name,
		Rarity:    r,
		Quantity:  quantity,
		Available: true,
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.db.WithContext(ctx).Create(&gift).Error; err != nil {
		return nil, classify(err)
	}
	return &gift, nil
}

// SetAvailability flips the soft-disable flag on a catalog entry.
func (s *Allocation) SetAvailability(ctx context.Context, giftID uint, available bool) (*models.Gift, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var gift models.Gift
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&gift, giftID).Error; err != nil {
			return err
		}
		if gift.Available == available {
			return nil
		}
		if err := tx.Model(&gift).Update("available", available).Error; err != nil {
			return err
		}
		gift.Available = available
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return &gift, nil
}

// Gifts lists the whole catalog for the admin surface, depleted and
// disabled entries included.
func (s *Allocation) Gifts(ctx context.Context, limit, offset int) ([]models.Gift, int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Gift{}).Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}
	var gifts []models.Gift
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&gifts).Error
	if err != nil {
		return nil, 0, classify(err)
	}
	return gifts, total, nil
}

// Wins lists the claim ledger, optionally filtered by status.
func (s *Allocation) Wins(ctx context.Context, status models.WinStatus, limit, offset int) ([]models.Win, int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := s.db.WithContext(ctx).Model(&models.Win{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}
	var wins []models.Win
	err := query.Preload("Gift").Preload("User").
		Order("won_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&wins).Error
	if err != nil {
		return nil, 0, classify(err)
	}
	return wins, total, nil
}

// WinCounts returns pending and fulfilled totals for the stats surfaces.
func (s *Allocation) WinCounts(ctx context.Context) (pending, fulfilled int64, err error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	db := s.db.WithContext(ctx)
	if err = db.Model(&models.Win{}).Where("status = ?", models.WinPending).Count(&pending).Error; err != nil {
		return 0, 0, classify(err)
	}
	if err = db.Model(&models.Win{}).Where("status = ?", models.WinFulfilled).Count(&fulfilled).Error; err != nil {
		return 0, 0, classify(err)
	}
	return pending, fulfilled, nil
}
