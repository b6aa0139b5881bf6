package otp

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStorePutGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "owner@example.com", "482913", time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	code, ok, err := store.Get(ctx, "owner@example.com")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if code != "482913" {
		t.Fatalf("expected stored code, got %q", code)
	}

	if err := store.Delete(ctx, "owner@example.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "owner@example.com"); ok {
		t.Fatalf("expected code gone after delete")
	}
}

func TestMemoryStoreNormalizesEmails(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "  Owner@Example.COM ", "111222", time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "owner@example.com"); !ok {
		t.Fatalf("expected lookup by normalized email to hit")
	}
}

func TestMemoryStoreOverwritesPreviousCode(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_ = store.Put(ctx, "owner@example.com", "111111", time.Minute)
	_ = store.Put(ctx, "owner@example.com", "222222", time.Minute)

	code, ok, _ := store.Get(ctx, "owner@example.com")
	if !ok || code != "222222" {
		t.Fatalf("expected latest code to win, got %q ok=%v", code, ok)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "owner@example.com", "333444", time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, ok, _ := store.Get(ctx, "owner@example.com"); ok {
		t.Fatalf("expected code to expire")
	}
}

func TestMemoryStoreMissingKey(t *testing.T) {
	store := NewMemoryStore()

	if _, ok, err := store.Get(context.Background(), "nobody@example.com"); ok || err != nil {
		t.Fatalf("expected miss without error, got ok=%v err=%v", ok, err)
	}
	if err := store.Delete(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("delete of missing key should be a no-op, got %v", err)
	}
}
