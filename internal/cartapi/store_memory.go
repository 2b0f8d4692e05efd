package cartapi

import (
	"context"
	"sync"
	"time"
)

type MemStore struct {
	mu sync.RWMutex
	m  map[string][]Line
}

func NewMemStore() *MemStore {
	return &MemStore{m: make(map[string][]Line)}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Get(ctx context.Context, userID string) ([]Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := s.m[userID]
	out := make([]Line, len(lines))
	copy(out, lines)
	return out, nil
}

func (s *MemStore) Upsert(ctx context.Context, userID string, l Line) error {
	if l.Quantity < 1 || l.Kind == kindUnique {
		l.Quantity = 1
	}
	if l.AddedAt == 0 {
		l.AddedAt = time.Now().UnixMilli()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.m[userID]
	for i, existing := range lines {
		if existing.ProductID == l.ProductID {
			l.AddedAt = existing.AddedAt
			lines[i] = l
			return nil
		}
	}
	s.m[userID] = append(lines, l)
	return nil
}

func (s *MemStore) SetQuantity(ctx context.Context, userID, productID string, qty int) error {
	if qty <= 0 {
		return s.Remove(ctx, userID, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.m[userID]
	for i, l := range lines {
		if l.ProductID == productID {
			if l.Kind != kindUnique {
				lines[i].Quantity = qty
			}
			return nil
		}
	}
	s.m[userID] = append(lines, Line{
		ProductID: productID,
		Quantity:  qty,
		AddedAt:   time.Now().UnixMilli(),
	})
	return nil
}

func (s *MemStore) Remove(ctx context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.m[userID]
	for i, l := range lines {
		if l.ProductID == productID {
			s.m[userID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *MemStore) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
	return nil
}
