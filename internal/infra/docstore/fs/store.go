// Package fs implements a document medium on the local filesystem.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ticketdesk/internal/docstore/core"
)

const dataSuffix = ".json"

// Store implements core.Medium using the local filesystem.
// Each key maps to one file under the root. A metadata sidecar
// (filename + `.meta`) records the sha256 etag and size of the last write.
// Writes go through a temp file and rename so a crash never leaves a torn document.
type Store struct {
	root string
}

// New returns a filesystem-backed medium rooted at path, creating it if needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = "./ticketdesk-data"
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create root: %w", err)
	}
	return &Store{root: root}, nil
}

// Driver returns the medium driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// Root returns the directory holding the documents.
func (s *Store) Root() string { return s.root }

// sanitizeKey ensures key doesn't escape root and forbids path traversal and absolute paths.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key contains '..'")
	}
	if strings.HasPrefix(key, "/") || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return key, nil
}

func (s *Store) pathFor(key string) (dataPath, metaPath string, err error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", "", err
	}
	dataPath = filepath.Join(s.root, k+dataSuffix)
	metaPath = dataPath + ".meta"
	return
}

type metaFile struct {
	Key       string    `json:"key"`
	ETag      string    `json:"etag"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Get reads the document stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	dataPath, _, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Set atomically replaces the document stored under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	dataPath, metaPath, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := writeAtomic(dataPath, value); err != nil {
		return err
	}
	sum := sha256.Sum256(value)
	mf := metaFile{Key: key, ETag: hex.EncodeToString(sum[:]), Size: int64(len(value)), UpdatedAt: time.Now().UTC()}
	return writeJSON(metaPath, mf)
}

// Delete removes the document and its sidecar.
func (s *Store) Delete(_ context.Context, key string) error {
	dataPath, metaPath, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dataPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	_ = os.Remove(metaPath)
	return nil
}

// Keys lists stored keys by walking the metadata sidecars.
func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), dataSuffix+".meta") {
			continue
		}
		mf, err := readMeta(filepath.Join(s.root, e.Name()))
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(mf.Key, prefix) {
			keys = append(keys, mf.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// ETag returns the sha256 of the last written document.
func (s *Store) ETag(key string) (string, error) {
	_, metaPath, err := s.pathFor(key)
	if err != nil {
		return "", err
	}
	mf, err := readMeta(metaPath)
	if err != nil {
		return "", err
	}
	return mf.ETag, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// --- helpers ---

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func writeJSON(path string, v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	return writeAtomic(path, b)
}

func readMeta(path string) (metaFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return metaFile{}, err
	}
	var mf metaFile
	if err := jsonUnmarshal(b, &mf); err != nil {
		return metaFile{}, err
	}
	return mf, nil
}

// isolate json usage so tests can inject failures.
var (
	jsonMarshal   = func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }
	jsonUnmarshal = func(b []byte, v any) error { return json.Unmarshal(b, v) }
)
