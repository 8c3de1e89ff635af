package services

import (
	"context"
	"errors"
	"testing"

	"giftbot/models"
)

func TestEnsureUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUsers(db)

	t.Run("creates on first contact", func(t *testing.T) {
		user, err := svc.EnsureUser(context.Background(), 7001, "alice", "Alice")
		if err != nil {
			t.Fatalf("EnsureUser: %v", err)
		}
		if user.ID == 0 {
			t.Fatal("expected a persisted user")
		}
		if user.Username != "alice" || user.FirstName != "Alice" {
			t.Errorf("handle not stored: %+v", user)
		}
	})

	t.Run("second contact reuses the row", func(t *testing.T) {
		first, err := svc.EnsureUser(context.Background(), 7002, "bob", "Bob")
		if err != nil {
			t.Fatalf("EnsureUser: %v", err)
		}
		second, err := svc.EnsureUser(context.Background(), 7002, "bob", "Bob")
		if err != nil {
			t.Fatalf("EnsureUser repeat: %v", err)
		}
		if first.ID != second.ID {
			t.Fatalf("expected same user row, got %d and %d", first.ID, second.ID)
		}
		var count int64
		if err := db.Model(&models.User{}).Where("telegram_id = ?", 7002).Count(&count).Error; err != nil {
			t.Fatalf("count users: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected 1 row, got %d", count)
		}
	})

	t.Run("refreshes a changed handle", func(t *testing.T) {
		if _, err := svc.EnsureUser(context.Background(), 7003, "carol", "Carol"); err != nil {
			t.Fatalf("EnsureUser: %v", err)
		}
		updated, err := svc.EnsureUser(context.Background(), 7003, "carol_new", "Carol")
		if err != nil {
			t.Fatalf("EnsureUser rename: %v", err)
		}
		if updated.Username != "carol_new" {
			t.Errorf("expected refreshed username, got %q", updated.Username)
		}
	})

	t.Run("rejects a zero telegram id", func(t *testing.T) {
		_, err := svc.EnsureUser(context.Background(), 0, "x", "X")
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
