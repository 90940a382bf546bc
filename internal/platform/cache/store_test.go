package cache

import (
	"context"
	"testing"
	"time"
)

func TestStore_SetGetDelete(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	ctx := context.Background()

	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatalf("expected miss before set")
	}

	store.Set(ctx, "k", "v")
	v, ok := store.Get(ctx, "k")
	if !ok || v != "v" {
		t.Fatalf("unexpected get result: ok=%v v=%v", ok, v)
	}

	store.Delete(ctx, "k")
	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestStore_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	store := NewStore(10 * time.Millisecond)
	ctx := context.Background()

	store.Set(ctx, "k", "v")
	time.Sleep(30 * time.Millisecond)

	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestStore_IgnoresEmptyKey(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	ctx := context.Background()

	store.Set(ctx, "", "v")
	if _, ok := store.Get(ctx, ""); ok {
		t.Fatalf("empty key must never hit")
	}
}
