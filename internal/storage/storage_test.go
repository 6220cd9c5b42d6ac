package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/database"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatal("Failed to open test database:", err)
	}
	db.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatal("Failed to run migrations:", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	if _, err := s.Load(ctx, "p1", "cart-storage"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := s.Save(ctx, "p1", "cart-storage", []byte(`{"items":[]}`)); err != nil {
		t.Fatal("Failed to save:", err)
	}
	got, err := s.Load(ctx, "p1", "cart-storage")
	if err != nil {
		t.Fatal("Failed to load:", err)
	}
	if string(got) != `{"items":[]}` {
		t.Errorf("Unexpected value %s", got)
	}
}

func TestSealedEncryptsSelectedKeys(t *testing.T) {
	ctx := context.Background()
	inner := setupTestStore(t)
	s := NewSealed(inner, "test-secret", "auth-storage")

	secret := []byte(`{"user":{"authorization":"tok_live_123"}}`)
	if err := s.Save(ctx, "p1", "auth-storage", secret); err != nil {
		t.Fatal("Failed to save sealed entry:", err)
	}
	if err := s.Save(ctx, "p1", "cart-storage", []byte("plain")); err != nil {
		t.Fatal("Failed to save plain entry:", err)
	}

	raw, _ := inner.Load(ctx, "p1", "auth-storage")
	if bytes.Contains(raw, []byte("tok_live_123")) {
		t.Error("Expected sealed entry to be encrypted at rest")
	}
	raw, _ = inner.Load(ctx, "p1", "cart-storage")
	if string(raw) != "plain" {
		t.Errorf("Expected unsealed key to pass through, got %s", raw)
	}

	opened, err := s.Load(ctx, "p1", "auth-storage")
	if err != nil {
		t.Fatal("Failed to open sealed entry:", err)
	}
	if !bytes.Equal(opened, secret) {
		t.Errorf("Expected %s, got %s", secret, opened)
	}

	other := NewSealed(inner, "another-secret", "auth-storage")
	if _, err := other.Load(ctx, "p1", "auth-storage"); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Expected ErrCorrupt with wrong secret, got %v", err)
	}
}

func TestPruneThroughSealed(t *testing.T) {
	ctx := context.Background()
	s := NewSealed(setupTestStore(t), "secret", "auth-storage")

	if err := s.Save(ctx, "p1", "auth-storage", []byte(`{"user":null}`)); err != nil {
		t.Fatal("Failed to save:", err)
	}

	if n, err := s.Prune(ctx, time.Hour); err != nil || n != 0 {
		t.Fatalf("Expected fresh profile to survive, got %d, %v", n, err)
	}

	// A negative age puts the cutoff in the future, so everything is stale.
	if n, err := s.Prune(ctx, -time.Hour); err != nil || n != 1 {
		t.Fatalf("Expected 1 pruned profile, got %d, %v", n, err)
	}
	if _, err := s.Load(ctx, "p1", "auth-storage"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected pruned entry to be gone, got %v", err)
	}
}
