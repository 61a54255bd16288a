package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nftPool/internal/model"
)

// FileStore keeps one JSON snapshot per pool under Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(address string) string {
	return filepath.Join(s.Dir, strings.ToLower(address)+".json")
}

func (s *FileStore) LoadPool(ctx context.Context, address string) (model.PoolSnapshot, error) {
	path := s.path(address)
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.PoolSnapshot{}, fmt.Errorf("%w: %s", ErrNotFound, address)
		}
		return model.PoolSnapshot{}, fmt.Errorf("stat snapshot: %w", err)
	}
	if stat.IsDir() {
		return model.PoolSnapshot{}, fmt.Errorf("snapshot path is a directory")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snap model.PoolSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, nil
}

// SavePool writes the snapshot to a temp file and renames it into place so
// a crash never leaves a torn snapshot behind.
func (s *FileStore) SavePool(ctx context.Context, snap model.PoolSnapshot) error {
	if snap.Address == "" {
		return fmt.Errorf("snapshot address is required")
	}
	if s.Dir != "" && s.Dir != "." {
		if err := os.MkdirAll(s.Dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	path := s.path(snap.Address)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}
