package cart

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"PawMart/internal/identity"
)

func TestClientMapsBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, identity.Anonymous)

	if _, err := c.Get(context.Background(), "u1"); !errors.Is(err, ErrRemoteBadStatus) {
		t.Fatalf("expected ErrRemoteBadStatus, got %v", err)
	}
	if err := c.Upsert(context.Background(), "u1", Line{ProductID: "p1", Quantity: 1}); !errors.Is(err, ErrRemoteBadStatus) {
		t.Fatalf("expected ErrRemoteBadStatus, got %v", err)
	}
}

func TestClientMapsConnectionFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	ts.Close() // refuse connections

	c := NewClient(ts.URL, identity.Anonymous)

	if _, err := c.Get(context.Background(), "u1"); !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
	if err := c.Clear(context.Background(), "u1"); !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
}

func TestClientGetDecodesNullAsEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("null"))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, identity.Anonymous)

	got, err := c.Get(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty cart, got %+v", got)
	}
}
