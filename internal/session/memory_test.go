package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_SetGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "sess-1", 42, time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	userID, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if userID != 42 {
		t.Errorf("Get() = %d, want 42", userID)
	}
}

func TestMemoryStore_UnknownID(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "never-issued")
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("Get() error = %v, want ErrNoSession", err)
	}
}

func TestMemoryStore_Destroy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "sess-2", 7, time.Hour)
	if err := store.Destroy(ctx, "sess-2"); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}

	if _, err := store.Get(ctx, "sess-2"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Get() after Destroy error = %v, want ErrNoSession", err)
	}

	// Destroying an already-gone session is a no-op.
	if err := store.Destroy(ctx, "sess-2"); err != nil {
		t.Errorf("second Destroy() error = %v", err)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "short", 9, 10*time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	if _, err := store.Get(ctx, "short"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Get() after TTL error = %v, want ErrNoSession", err)
	}
}

func TestMemoryStore_Overwrite(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "sess-3", 1, time.Hour)
	store.Set(ctx, "sess-3", 2, time.Hour)

	userID, err := store.Get(ctx, "sess-3")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if userID != 2 {
		t.Errorf("Get() = %d, want the later write (2)", userID)
	}
}
