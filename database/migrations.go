package database

import (
	"log"
	"os"

	"giftbot/models"

	"gorm.io/gorm"
)

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Admin{},
		&models.User{},
		&models.Gift{},
		&models.Win{},
		&models.RollAttempt{},
	)
}

// defaultCatalog mirrors the launch prize pool.
var defaultCatalog = []models.Gift{
	{Icon: "💎", Name: "Legendary Gift", Rarity: models.RarityLegendary, Quantity: 1, Available: true},
	{Icon: "⭐", Name: "Epic Gift", Rarity: models.RarityEpic, Quantity: 3, Available: true},
	{Icon: "🎁", Name: "Rare Gift", Rarity: models.RarityRare, Quantity: 5, Available: true},
	{Icon: "🎀", Name: "Common Gift", Rarity: models.RarityCommon, Quantity: 10, Available: true},
}

// SeedCatalog inserts the default prize pool when the gifts table is
// empty. Quantities are never topped up here; restocking is an explicit
// admin action.
func SeedCatalog(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Gift{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	gifts := make([]models.Gift, len(defaultCatalog))
	copy(gifts, defaultCatalog)
	if err := db.Create(&gifts).Error; err != nil {
		return err
	}
	log.Printf("[database] seeded %d catalog entries", len(gifts))
	return nil
}

// SeedAdmin bootstraps the operator account from ADMIN_USERNAME and
// ADMIN_PASSWORD. Skipped when unset or when the account already exists.
func SeedAdmin(db *gorm.DB) error {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.Admin{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := models.Admin{Username: username, Password: password, IsActive: true}
	if err := admin.HashPassword(); err != nil {
		return err
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("[database] seeded admin account %q", username)
	return nil
}
