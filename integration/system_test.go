package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"PawMart/internal/cart"
	"PawMart/internal/cartapi"
	"PawMart/internal/identity"
)

const jwtSecret = "integration-secret"

func startAuthd(t *testing.T) *httptest.Server {
	t.Helper()

	s := &identity.Server{
		Log:   zap.NewNop(),
		Store: identity.NewMemStore(),
		JWT:   identity.NewTokenMaker(jwtSecret),
	}
	ts := httptest.NewServer(identity.NewHandler(s, identity.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "authd",
	}))
	t.Cleanup(ts.Close)
	return ts
}

func startCartd(t *testing.T) *httptest.Server {
	t.Helper()

	s := &cartapi.Server{
		Store: cartapi.NewMemStore(),
		Log:   zap.NewNop(),
		JWT:   identity.NewTokenMaker(jwtSecret),
	}
	ts := httptest.NewServer(cartapi.NewHandler(s, cartapi.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "cartd",
	}))
	t.Cleanup(ts.Close)
	return ts
}

func signUp(t *testing.T, authURL string) (userID, token string) {
	t.Helper()

	creds := map[string]string{"email": "pat@example.com", "password": "hunter2hunter2"}
	raw, _ := json.Marshal(creds)

	resp, err := http.Post(authURL+"/auth/register", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d", resp.StatusCode)
	}

	resp, err = http.Post(authURL+"/auth/login", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var login struct {
		AccessToken string `json:"access_token"`
		UserID      string `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		t.Fatal(err)
	}
	return login.UserID, login.AccessToken
}

func serverCart(t *testing.T, cartURL, userID, token string) []cartapi.Line {
	t.Helper()

	req, _ := http.NewRequest(http.MethodGet, cartURL+"/cart?userId="+userID, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("server cart: status %d", resp.StatusCode)
	}

	var lines []cartapi.Line
	if err := json.NewDecoder(resp.Body).Decode(&lines); err != nil {
		t.Fatal(err)
	}
	return lines
}

func TestSystemOptimisticCartSync(t *testing.T) {
	authTS := startAuthd(t)
	cartTS := startCartd(t)

	userID, token := signUp(t, authTS.URL)
	if userID == "" || token == "" {
		t.Fatal("sign-up did not yield an identity")
	}

	svc := cart.New(cart.Options{
		BaseURL:        cartTS.URL,
		StatePath:      filepath.Join(t.TempDir(), "cart.json"),
		Identity:       identity.Static{ID: userID, Bearer: token},
		Log:            zap.NewNop(),
		DebounceWindow: 30 * time.Millisecond,
	})

	// Local mutation is visible immediately.
	got := svc.Add(cart.Line{ProductID: "p1", Price: 19.99, Name: "Chew Toy"}, 1)
	if len(got) != 1 || got[0].Quantity != 1 {
		t.Fatalf("unexpected cart after add: %+v", got)
	}

	// Background sync lands at the store-of-record.
	svc.Wait()
	lines := serverCart(t, cartTS.URL, userID, token)
	if len(lines) != 1 || lines[0].ProductID != "p1" {
		t.Fatalf("add did not reach the server: %+v", lines)
	}

	// Debounced quantity update converges to the last value.
	for q := 2; q <= 5; q++ {
		if _, err := svc.Update("p1", q); err != nil {
			t.Fatal(err)
		}
	}
	svc.Wait()
	lines = serverCart(t, cartTS.URL, userID, token)
	if lines[0].Quantity != 5 {
		t.Fatalf("expected server quantity 5, got %+v", lines)
	}

	// The engine's next fetch sees server truth (cache was invalidated
	// by the successful sync).
	fetched := svc.Fetch(context.Background())
	if len(fetched) != 1 || fetched[0].Quantity != 5 {
		t.Fatalf("fetch should pick up server state: %+v", fetched)
	}

	// A one-of-a-kind listing stays at quantity 1 on both sides.
	svc.Add(cart.Line{ProductID: "a1", Kind: cart.KindUnique, Price: 350, Name: "Beagle"}, 3)
	svc.Wait()
	lines = serverCart(t, cartTS.URL, userID, token)
	if len(lines) != 2 || lines[1].Quantity != 1 {
		t.Fatalf("unique listing mishandled: %+v", lines)
	}

	// Clear empties both copies.
	svc.Clear()
	svc.Wait()
	if lines = serverCart(t, cartTS.URL, userID, token); len(lines) != 0 {
		t.Fatalf("clear did not reach the server: %+v", lines)
	}
	if local := svc.Snapshot(); len(local) != 0 {
		t.Fatalf("clear did not persist locally: %+v", local)
	}
}

func TestSystemSurvivesBackendOutage(t *testing.T) {
	cartTS := startCartd(t)

	svc := cart.New(cart.Options{
		BaseURL:        cartTS.URL,
		StatePath:      filepath.Join(t.TempDir(), "cart.json"),
		Identity:       identity.Static{ID: "u_offline", Bearer: ""},
		Log:            zap.NewNop(),
		DebounceWindow: 30 * time.Millisecond,
	})

	svc.Add(cart.Line{ProductID: "p1", Price: 5}, 2)
	svc.Wait()

	// Backend goes away; mutations keep working against local state.
	cartTS.Close()

	if _, err := svc.Update("p1", 7); err != nil {
		t.Fatal(err)
	}
	svc.Wait()

	got := svc.Fetch(context.Background())
	if len(got) != 1 || got[0].Quantity != 7 {
		t.Fatalf("engine should serve the local copy during an outage: %+v", got)
	}
}
