package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"ticketdesk/internal/docstore/core"
)

func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("TICKETDESK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping redis test. Set TICKETDESK_TEST_REDIS_ADDR to run")
	}
	prefix := fmt.Sprintf("ticketdesk-test-%d:", time.Now().UnixNano())
	store, err := New(context.Background(), Config{Addr: addr, Password: os.Getenv("TICKETDESK_TEST_REDIS_PASSWORD"), Prefix: prefix})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		keys, _ := store.Keys(context.Background(), "")
		for _, k := range keys {
			_ = store.Delete(context.Background(), k)
		}
		_ = store.Close()
	})
	return store
}

func TestNewRequiresAddr(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected addr error")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newIntegrationStore(t)
	if store.Driver() != core.DriverRedis {
		t.Fatalf("expected redis driver")
	}
	if _, err := store.Get(ctx, "app_orgs"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	for _, k := range []string{"app_orgs", "app_users", "seen_announcement_x"} {
		if err := store.Set(ctx, k, []byte(`[]`)); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	got, err := store.Get(ctx, "app_orgs")
	if err != nil || string(got) != `[]` {
		t.Fatalf("unexpected get %q %v", got, err)
	}
	keys, err := store.Keys(ctx, "app_")
	if err != nil || len(keys) != 2 || keys[0] != "app_orgs" || keys[1] != "app_users" {
		t.Fatalf("unexpected keys %v %v", keys, err)
	}
	if err := store.Delete(ctx, "app_orgs"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "app_orgs"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected deleted key missing")
	}
}
