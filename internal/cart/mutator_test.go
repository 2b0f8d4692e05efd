package cart

import (
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"PawMart/internal/identity"
)

// newLocalService builds an engine in unauthenticated, local-only mode:
// mutations hit the durable store and the notifier but never the network.
func newLocalService(t *testing.T) *Service {
	t.Helper()
	return New(Options{
		StatePath: filepath.Join(t.TempDir(), "cart.json"),
		Identity:  identity.Anonymous,
		Log:       zap.NewNop(),
	})
}

func TestAddMergesQuantities(t *testing.T) {
	s := newLocalService(t)

	s.Add(Line{ProductID: "p1", Price: 10}, 2)
	got := s.Add(Line{ProductID: "p1", Price: 10}, 3)

	if len(got) != 1 {
		t.Fatalf("expected one line, got %d", len(got))
	}
	if got[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", got[0].Quantity)
	}
}

func TestAddRefreshesMetadata(t *testing.T) {
	s := newLocalService(t)

	s.Add(Line{ProductID: "p1", Price: 10, Name: "Old", Stock: 3}, 1)
	got := s.Add(Line{ProductID: "p1", Price: 12, Name: "New", Stock: 7}, 1)

	l := got[0]
	if l.Price != 12 || l.Name != "New" || l.Stock != 7 {
		t.Fatalf("metadata not refreshed: %+v", l)
	}
	if l.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", l.Quantity)
	}
}

func TestAddDefaultsQuantityToOne(t *testing.T) {
	s := newLocalService(t)

	got := s.Add(Line{ProductID: "p1"}, 0)
	if got[0].Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", got[0].Quantity)
	}
}

func TestUpdateMissingLine(t *testing.T) {
	s := newLocalService(t)
	s.Add(Line{ProductID: "p1"}, 1)

	_, err := s.Update("ghost", 3)
	if !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}

	if got := s.Snapshot(); len(got) != 1 || got[0].Quantity != 1 {
		t.Fatalf("failed update must not mutate state: %+v", got)
	}
}

func TestUpdateToZeroRemoves(t *testing.T) {
	s := newLocalService(t)
	s.Add(Line{ProductID: "p1"}, 2)

	got, err := s.Update("p1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty cart, got %+v", got)
	}
}

func TestUpdateNegativeRemoves(t *testing.T) {
	s := newLocalService(t)
	s.Add(Line{ProductID: "p1"}, 2)

	got, err := s.Update("p1", -4)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty cart, got %+v", got)
	}
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	s := newLocalService(t)
	s.Add(Line{ProductID: "p1"}, 1)

	got := s.Remove("ghost")
	if len(got) != 1 || got[0].ProductID != "p1" {
		t.Fatalf("cart changed on no-op remove: %+v", got)
	}
}

func TestClear(t *testing.T) {
	s := newLocalService(t)
	s.Add(Line{ProductID: "p1"}, 1)
	s.Add(Line{ProductID: "p2"}, 1)

	if got := s.Clear(); len(got) != 0 {
		t.Fatalf("expected empty cart, got %+v", got)
	}
	if got := s.Snapshot(); len(got) != 0 {
		t.Fatalf("clear not persisted: %+v", got)
	}
}

func TestUniqueLineQuantityPinned(t *testing.T) {
	s := newLocalService(t)

	got := s.Add(Line{ProductID: "a1", Kind: KindUnique, Price: 350}, 5)
	if got[0].Quantity != 1 {
		t.Fatalf("unique line must have quantity 1, got %d", got[0].Quantity)
	}

	got = s.Add(Line{ProductID: "a1", Kind: KindUnique, Price: 375}, 2)
	if got[0].Quantity != 1 {
		t.Fatalf("re-adding a unique line must keep quantity 1, got %d", got[0].Quantity)
	}
	if got[0].Price != 375 {
		t.Fatalf("re-add should refresh metadata, got price %v", got[0].Price)
	}

	if _, err := s.Update("a1", 3); !errors.Is(err, ErrFixedQuantity) {
		t.Fatalf("expected ErrFixedQuantity, got %v", err)
	}

	got, err := s.Update("a1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("update-to-zero should remove a unique line too: %+v", got)
	}
}

func TestInsertionOrderPreserved(t *testing.T) {
	s := newLocalService(t)
	s.Add(Line{ProductID: "p1"}, 1)
	s.Add(Line{ProductID: "p2"}, 1)
	s.Add(Line{ProductID: "p3"}, 1)

	if _, err := s.Update("p2", 9); err != nil {
		t.Fatal(err)
	}
	s.Add(Line{ProductID: "p1"}, 1)

	got := s.Snapshot()
	want := []string{"p1", "p2", "p3"}
	for i, id := range want {
		if got[i].ProductID != id {
			t.Fatalf("order changed: got %+v", got)
		}
	}
}

func TestMutationsSurviveRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")

	s := New(Options{StatePath: path, Log: zap.NewNop()})
	s.Add(Line{ProductID: "p1", Price: 10}, 2)

	s2 := New(Options{StatePath: path, Log: zap.NewNop()})
	got := s2.Snapshot()
	if len(got) != 1 || got[0].Quantity != 2 {
		t.Fatalf("cart did not survive restart: %+v", got)
	}
}

func TestNotifierFiresOnEveryMutation(t *testing.T) {
	s := newLocalService(t)

	var events []Cart
	s.Subscribe(func(c Cart) { events = append(events, c) })

	s.Add(Line{ProductID: "p1"}, 1)
	if _, err := s.Update("p1", 4); err != nil {
		t.Fatal(err)
	}
	s.Remove("p1")
	s.Clear()

	if len(events) != 4 {
		t.Fatalf("expected 4 broadcasts, got %d", len(events))
	}
	if events[1][0].Quantity != 4 {
		t.Fatalf("broadcast should carry the updated cart: %+v", events[1])
	}
}
