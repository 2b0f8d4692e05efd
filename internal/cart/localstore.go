package cart

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileStore is the durable local copy of the cart, one JSON document
// under a fixed path. It is the fallback of record when the remote is
// unreachable. All failures degrade gracefully: a missing or corrupt
// file loads as an empty cart, and a failed save is logged but never
// surfaced, because the in-memory cart stays correct for the rest of
// the session.
type FileStore struct {
	path string
	log  *zap.Logger
}

func NewFileStore(path string, log *zap.Logger) *FileStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileStore{path: path, log: log}
}

func (s *FileStore) Load() Cart {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Debug("cart load failed", zap.String("path", s.path), zap.Error(err))
		}
		return Cart{}
	}

	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		s.log.Debug("cart parse failed, starting empty", zap.String("path", s.path), zap.Error(err))
		return Cart{}
	}
	if c == nil {
		return Cart{}
	}
	return c
}

func (s *FileStore) Save(c Cart) {
	raw, err := json.Marshal(c)
	if err != nil {
		s.log.Warn("cart marshal failed", zap.Error(err))
		return
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.log.Warn("cart save failed", zap.String("path", s.path), zap.Error(err))
		return
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		s.log.Warn("cart save failed", zap.String("path", s.path), zap.Error(err))
	}
}
