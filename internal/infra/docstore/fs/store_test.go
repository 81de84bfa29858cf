package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ticketdesk/internal/docstore/core"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func TestStore_SetGetKeysDelete(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	if store.Driver() != core.DriverFilesystem {
		t.Fatalf("expected fs driver")
	}
	if _, err := store.Get(ctx, "app_orgs"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Set(ctx, "app_orgs", []byte(`[{"id":"org-1"}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "app_orgs", []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.Get(ctx, "app_orgs")
	if err != nil || string(got) != `[]` {
		t.Fatalf("unexpected get %q %v", got, err)
	}
	if err := store.Set(ctx, "seen_announcement_ann-1", []byte(`true`)); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	keys, err := store.Keys(ctx, "app_")
	if err != nil || len(keys) != 1 || keys[0] != "app_orgs" {
		t.Fatalf("unexpected keys %v %v", keys, err)
	}
	if err := store.Delete(ctx, "app_orgs"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "app_orgs"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if _, err := store.Get(ctx, "app_orgs"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected deleted document to be missing")
	}
}

func TestStore_PathTraversal(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	for _, key := range []string{"../escape", "/abs", "nested/key", "  "} {
		if err := store.Set(ctx, key, []byte("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
		if _, err := store.Get(ctx, key); err == nil {
			t.Fatalf("expected get error for key %q", key)
		}
	}
}

func TestStore_MetadataSidecar(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	payload := []byte(`{"a":1}`)
	if err := store.Set(ctx, "app_user", payload); err != nil {
		t.Fatalf("set: %v", err)
	}
	dataPath, metaPath, _ := store.pathFor("app_user")
	if _, err := os.Stat(dataPath); err != nil {
		t.Fatalf("expected data path: %v", err)
	}
	if filepath.Ext(metaPath) != ".meta" {
		t.Fatalf("meta path extension mismatch")
	}
	etag, err := store.ETag("app_user")
	if err != nil {
		t.Fatalf("etag: %v", err)
	}
	sum := sha256.Sum256(payload)
	if etag != hex.EncodeToString(sum[:]) {
		t.Fatalf("unexpected etag %s", etag)
	}
}

func TestStore_ReopenKeepsDocuments(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	first, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.Set(ctx, "app_events", []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	second, err := New(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got, err := second.Get(ctx, "app_events"); err != nil || string(got) != `[]` {
		t.Fatalf("expected persisted document, got %q %v", got, err)
	}
}

func TestStore_MetaMarshalFailure(t *testing.T) {
	orig := jsonMarshal
	jsonMarshal = func(any) ([]byte, error) { return nil, errors.New("marshal boom") }
	defer func() { jsonMarshal = orig }()
	store := newTempStore(t)
	if err := store.Set(context.Background(), "app_sales", []byte(`[]`)); err == nil {
		t.Fatalf("expected sidecar marshal failure")
	}
}

func TestStore_KeysCorruptMeta(t *testing.T) {
	store := newTempStore(t)
	if err := os.WriteFile(filepath.Join(store.Root(), "broken"+dataSuffix+".meta"), []byte("{"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Keys(context.Background(), ""); err == nil {
		t.Fatalf("expected corrupt meta error")
	}
}
