package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"giftbot/models"
)

func TestListAvailable(t *testing.T) {
	db := newTestDB(t)
	svc := NewAllocation(db)

	seedGift(t, db, "💎", "Legendary Gift", models.RarityLegendary, 1, true)
	seedGift(t, db, "🎁", "Rare Gift", models.RarityRare, 5, true)
	seedGift(t, db, "🎀", "Common Gift", models.RarityCommon, 10, true)
	seedGift(t, db, "⭐", "Depleted Gift", models.RarityEpic, 0, true)
	seedGift(t, db, "🚫", "Disabled Gift", models.RarityEpic, 3, false)

	gifts, err := svc.ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(gifts) != 3 {
		t.Fatalf("expected 3 available gifts, got %d", len(gifts))
	}
	for _, g := range gifts {
		if g.Quantity == 0 {
			t.Errorf("depleted gift %q leaked into the listing", g.Name)
		}
		if !g.Available {
			t.Errorf("disabled gift %q leaked into the listing", g.Name)
		}
	}

	// Rarity ascending then name: common, rare, legendary.
	wantOrder := []string{"Common Gift", "Rare Gift", "Legendary Gift"}
	for i, name := range wantOrder {
		if gifts[i].Name != name {
			t.Fatalf("position %d: expected %q, got %q", i, name, gifts[i].Name)
		}
	}
}

func TestReserve(t *testing.T) {
	t.Run("decrements and opens a pending win", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAllocation(db)
		user := seedUser(t, db, 1001)
		gift := seedGift(t, db, "🎁", "Rare Gift", models.RarityRare, 5, true)

		win, err := svc.Reserve(context.Background(), user, gift.ID)
		if err != nil {
			t.Fatalf("Reserve: %v", err)
		}
		if win.Status != models.WinPending {
			t.Errorf("expected pending status, got %s", win.Status)
		}
		if win.TelegramID != user.TelegramID {
			t.Errorf("expected telegram id copy %d, got %d", user.TelegramID, win.TelegramID)
		}
		if win.WonAt.IsZero() {
			t.Error("expected WonAt to be stamped")
		}
		if win.FulfilledAt != nil {
			t.Error("expected FulfilledAt to be null at reservation")
		}

		var stored models.Gift
		if err := db.First(&stored, gift.ID).Error; err != nil {
			t.Fatalf("reload gift: %v", err)
		}
		if stored.Quantity != 4 {
			t.Errorf("expected quantity 4 after reserve, got %d", stored.Quantity)
		}
	})

	t.Run("unknown gift fails with NotFound", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAllocation(db)
		user := seedUser(t, db, 1002)

		_, err := svc.Reserve(context.Background(), user, 9999)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("depleted gift fails with OutOfStock and mutates nothing", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAllocation(db)
		user := seedUser(t, db, 1003)
		gift := seedGift(t, db, "⭐", "Epic Gift", models.RarityEpic, 0, true)

		_, err := svc.Reserve(context.Background(), user, gift.ID)
		if !errors.Is(err, ErrOutOfStock) {
			t.Fatalf("expected ErrOutOfStock, got %v", err)
		}

		var wins int64
		if err := db.Model(&models.Win{}).Count(&wins).Error; err != nil {
			t.Fatalf("count wins: %v", err)
		}
		if wins != 0 {
			t.Fatalf("expected no win row, got %d", wins)
		}
		var stored models.Gift
		if err := db.First(&stored, gift.ID).Error; err != nil {
			t.Fatalf("reload gift: %v", err)
		}
		if stored.Quantity != 0 {
			t.Fatalf("quantity went negative: %d", stored.Quantity)
		}
	})
}

func TestReserveConcurrent(t *testing.T) {
	db := newTestDB(t)
	svc := NewAllocation(db)
	gift := seedGift(t, db, "🎁", "Rare Gift", models.RarityRare, 3, true)

	const callers = 10
	users := make([]*models.User, callers)
	for i := range users {
		users[i] = seedUser(t, db, int64(2000+i))
	}

	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), users[i], gift.ID)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var succeeded, outOfStock int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrOutOfStock):
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if succeeded != 3 {
		t.Errorf("expected exactly 3 successful reserves, got %d", succeeded)
	}
	if outOfStock != callers-3 {
		t.Errorf("expected %d OutOfStock failures, got %d", callers-3, outOfStock)
	}

	var stored models.Gift
	if err := db.First(&stored, gift.ID).Error; err != nil {
		t.Fatalf("reload gift: %v", err)
	}
	if stored.Quantity != 0 {
		t.Errorf("expected final quantity 0, got %d", stored.Quantity)
	}
	var wins int64
	if err := db.Model(&models.Win{}).Where("gift_id = ?", gift.ID).Count(&wins).Error; err != nil {
		t.Fatalf("count wins: %v", err)
	}
	if wins != 3 {
		t.Errorf("expected 3 win rows, got %d", wins)
	}
}

func TestFulfill(t *testing.T) {
	t.Run("pending becomes fulfilled once", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAllocation(db)
		user := seedUser(t, db, 3001)
		gift := seedGift(t, db, "💎", "Legendary Gift", models.RarityLegendary, 1, true)

		win, err := svc.Reserve(context.Background(), user, gift.ID)
		if err != nil {
			t.Fatalf("Reserve: %v", err)
		}

		fulfilled, err := svc.Fulfill(context.Background(), win.ID)
		if err != nil {
			t.Fatalf("Fulfill: %v", err)
		}
		if fulfilled.Status != models.WinFulfilled {
			t.Errorf("expected fulfilled status, got %s", fulfilled.Status)
		}
		if fulfilled.FulfilledAt == nil {
			t.Fatal("expected FulfilledAt to be set")
		}
		firstStamp := *fulfilled.FulfilledAt

		_, err = svc.Fulfill(context.Background(), win.ID)
		if !errors.Is(err, ErrAlreadyFulfilled) {
			t.Fatalf("expected ErrAlreadyFulfilled on second call, got %v", err)
		}

		var stored models.Win
		if err := db.First(&stored, win.ID).Error; err != nil {
			t.Fatalf("reload win: %v", err)
		}
		if stored.Status != models.WinFulfilled {
			t.Errorf("status changed after duplicate fulfill: %s", stored.Status)
		}
		if stored.FulfilledAt == nil || !stored.FulfilledAt.Equal(firstStamp) {
			t.Errorf("FulfilledAt changed after duplicate fulfill: %v vs %v", stored.FulfilledAt, firstStamp)
		}

		// No inventory side effect at fulfillment time.
		var storedGift models.Gift
		if err := db.First(&storedGift, gift.ID).Error; err != nil {
			t.Fatalf("reload gift: %v", err)
		}
		if storedGift.Quantity != 0 {
			t.Errorf("fulfill touched inventory: quantity %d", storedGift.Quantity)
		}
	})

	t.Run("unknown win fails with NotFound", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAllocation(db)

		_, err := svc.Fulfill(context.Background(), 4242)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestFulfillOldestPending(t *testing.T) {
	db := newTestDB(t)
	svc := NewAllocation(db)
	user := seedUser(t, db, 4001)
	gift := seedGift(t, db, "🎁", "Rare Gift", models.RarityRare, 2, true)

	first, err := svc.Reserve(context.Background(), user, gift.ID)
	if err != nil {
		t.Fatalf("first Reserve: %v", err)
	}
	if _, err := svc.Reserve(context.Background(), user, gift.ID); err != nil {
		t.Fatalf("second Reserve: %v", err)
	}

	fulfilled, err := svc.FulfillOldestPending(context.Background(), user.TelegramID)
	if err != nil {
		t.Fatalf("FulfillOldestPending: %v", err)
	}
	if fulfilled.ID != first.ID {
		t.Errorf("expected oldest win %d first, got %d", first.ID, fulfilled.ID)
	}
	if fulfilled.Gift == nil || fulfilled.Gift.Name != "Rare Gift" {
		t.Errorf("expected gift preloaded for the delivery message, got %+v", fulfilled.Gift)
	}

	if _, err := svc.FulfillOldestPending(context.Background(), user.TelegramID); err != nil {
		t.Fatalf("second FulfillOldestPending: %v", err)
	}
	_, err = svc.FulfillOldestPending(context.Background(), user.TelegramID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound when nothing is pending, got %v", err)
	}
}

func TestAddPrize(t *testing.T) {
	t.Run("rejects negative quantity", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAllocation(db)

		_, err := svc.AddPrize(context.Background(), "💎", "X", -1, models.RarityCommon)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		var count int64
		if err := db.Model(&models.Gift{}).Count(&count).Error; err != nil {
			t.Fatalf("count gifts: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected no row inserted, got %d", count)
		}
	})

	t.Run("rejects unknown rarity", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAllocation(db)

		_, err := svc.AddPrize(context.Background(), "💎", "X", 1, "mythic")
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("allows duplicate names and zero quantity", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAllocation(db)

		if _, err := svc.AddPrize(context.Background(), "🎁", "Batch", 0, models.RarityRare); err != nil {
			t.Fatalf("first AddPrize: %v", err)
		}
		if _, err := svc.AddPrize(context.Background(), "🎁", "Batch", 5, models.RarityRare); err != nil {
			t.Fatalf("duplicate-name AddPrize: %v", err)
		}
		var count int64
		if err := db.Model(&models.Gift{}).Where("name = ?", "Batch").Count(&count).Error; err != nil {
			t.Fatalf("count gifts: %v", err)
		}
		if count != 2 {
			t.Fatalf("expected 2 batches, got %d", count)
		}
	})
}

// The seeded-launch walkthrough from the release checklist: one legendary
// unit, reserve it, watch it disappear from the catalog, then fail closed.
func TestSeededScenario(t *testing.T) {
	db := newTestDB(t)
	svc := NewAllocation(db)
	user := seedUser(t, db, 5001)

	legendary := seedGift(t, db, "💎", "Legendary Gift", models.RarityLegendary, 1, true)
	seedGift(t, db, "⭐", "Epic Gift", models.RarityEpic, 3, true)
	seedGift(t, db, "🎁", "Rare Gift", models.RarityRare, 5, true)
	seedGift(t, db, "🎀", "Common Gift", models.RarityCommon, 10, true)

	if _, err := svc.Reserve(context.Background(), user, legendary.ID); err != nil {
		t.Fatalf("Reserve legendary: %v", err)
	}

	var stored models.Gift
	if err := db.First(&stored, legendary.ID).Error; err != nil {
		t.Fatalf("reload legendary: %v", err)
	}
	if stored.Quantity != 0 {
		t.Fatalf("expected legendary quantity 0, got %d", stored.Quantity)
	}

	gifts, err := svc.ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	for _, g := range gifts {
		if g.ID == legendary.ID {
			t.Fatal("depleted legendary still listed")
		}
	}
	if len(gifts) != 3 {
		t.Fatalf("expected 3 remaining gifts, got %d", len(gifts))
	}

	_, err = svc.Reserve(context.Background(), user, legendary.ID)
	if !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock on second reserve, got %v", err)
	}
}

func TestSetAvailability(t *testing.T) {
	db := newTestDB(t)
	svc := NewAllocation(db)
	gift := seedGift(t, db, "🎁", "Rare Gift", models.RarityRare, 5, true)

	updated, err := svc.SetAvailability(context.Background(), gift.ID, false)
	if err != nil {
		t.Fatalf("SetAvailability: %v", err)
	}
	if updated.Available {
		t.Error("expected gift to be disabled")
	}

	gifts, err := svc.ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(gifts) != 0 {
		t.Fatalf("disabled gift still listed: %+v", gifts)
	}

	if _, err := svc.SetAvailability(context.Background(), 9999, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
