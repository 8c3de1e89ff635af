package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"giftbot/database"
	"giftbot/models"
	"giftbot/services"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestController(t *testing.T) (*GiftsController, *gorm.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "giftbot_test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=10000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return NewGiftsController(services.NewAllocation(db)), db
}

func TestGiftsList(t *testing.T) {
	controller, db := newTestController(t)

	gifts := []models.Gift{
		{Icon: "💎", Name: "Legendary Gift", Rarity: models.RarityLegendary, Quantity: 1, Available: true},
		{Icon: "⭐", Name: "Epic Gift", Rarity: models.RarityEpic, Quantity: 0, Available: true},
		{Icon: "🎁", Name: "Rare Gift", Rarity: models.RarityRare, Quantity: 5, Available: false},
		{Icon: "🎀", Name: "Common Gift", Rarity: models.RarityCommon, Quantity: 10, Available: true},
	}
	if err := db.Create(&gifts).Error; err != nil {
		t.Fatalf("seed gifts: %v", err)
	}

	req := httptest.NewRequest("GET", "http://example.local/api/gifts", nil)
	rec := httptest.NewRecorder()
	controller.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Success bool `json:"success"`
		Data    []struct {
			ID       uint   `json:"id"`
			Icon     string `json:"icon"`
			Name     string `json:"name"`
			Rarity   string `json:"rarity"`
			Quantity int    `json:"quantity"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success {
		t.Fatal("expected success response")
	}

	// Depleted and disabled entries must not be served to the Mini App.
	if len(body.Data) != 2 {
		t.Fatalf("expected 2 gifts, got %d", len(body.Data))
	}
	if body.Data[0].Name != "Common Gift" || body.Data[1].Name != "Legendary Gift" {
		t.Fatalf("unexpected order: %+v", body.Data)
	}
	for _, g := range body.Data {
		if g.Quantity == 0 {
			t.Errorf("zero-quantity gift %q in response", g.Name)
		}
	}
}
