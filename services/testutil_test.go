package services

import (
	"path/filepath"
	"testing"

	"giftbot/database"
	"giftbot/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a throwaway SQLite store. A single pooled connection
// plus busy_timeout makes concurrent transactions queue on the write lock
// instead of erroring, which keeps the concurrency tests deterministic.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "giftbot_test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=10000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, telegramID int64) *models.User {
	t.Helper()
	user := models.User{TelegramID: telegramID, Username: "tester", FirstName: "Tester"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}

func seedGift(t *testing.T, db *gorm.DB, icon, name, rarity string, quantity int, available bool) *models.Gift {
	t.Helper()
	gift := models.Gift{Icon: icon, Name: name, Rarity: rarity, Quantity: quantity, Available: available}
	if err := db.Create(&gift).Error; err != nil {
		t.Fatalf("seed gift: %v", err)
	}
	return &gift
}
