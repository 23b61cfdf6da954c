package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

// newTestRedisStore spins up an in-process redis and a store connected to it.
func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	store, err := NewRedisStore("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestRedisStore_SetGet(t *testing.T) {
	store, _ := newTestRedisStore(t)
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

func TestRedisStore_UnknownID(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, err := store.Get(context.Background(), "never-issued")
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("Get() error = %v, want ErrNoSession", err)
	}
}

func TestRedisStore_Destroy(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	store.Set(ctx, "sess-2", 7, time.Hour)
	if err := store.Destroy(ctx, "sess-2"); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}

	if _, err := store.Get(ctx, "sess-2"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Get() after Destroy error = %v, want ErrNoSession", err)
	}
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	store.Set(ctx, "short", 9, time.Minute)

	// miniredis doesn't tick wall-clock time; advance it past the TTL.
	mr.FastForward(2 * time.Minute)

	if _, err := store.Get(ctx, "short"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Get() after TTL error = %v, want ErrNoSession", err)
	}
}

func TestRedisStore_CorruptValueTreatedAsGone(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	mr.Set(keyPrefix+"mangled", "not-a-user-id")

	if _, err := store.Get(ctx, "mangled"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Get() on corrupt value error = %v, want ErrNoSession", err)
	}

	// The corrupt key is cleared, not left to fail forever.
	if mr.Exists(keyPrefix + "mangled") {
		t.Error("corrupt session key was not deleted")
	}
}

func TestRedisStore_KeysAreNamespaced(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	store.Set(ctx, "sess-3", 5, time.Hour)

	if !mr.Exists(keyPrefix + "sess-3") {
		t.Errorf("expected key %q in redis", keyPrefix+"sess-3")
	}
	if mr.Exists("sess-3") {
		t.Error("session stored without the key prefix")
	}
}

func TestNewRedisStore_BadURL(t *testing.T) {
	if _, err := NewRedisStore("not a url"); err == nil {
		t.Fatal("NewRedisStore() with a bad URL should error")
	}
}
