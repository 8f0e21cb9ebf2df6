package devicestate

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func newTestStores(t *testing.T) map[string]Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// In-memory SQLite is per-connection; keep the pool at one.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	sq, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	return map[string]Store{
		"sqlite": sq,
		"memory": NewMemoryStore(),
	}
}

func TestStore_TokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := store.Token(ctx)
			if err != nil {
				t.Fatalf("Token: %v", err)
			}
			if got != nil {
				t.Fatal("expected nil token on empty store")
			}

			exp := time.Now().UTC().Add(15 * time.Minute).Truncate(time.Millisecond)
			rec := &TokenRecord{
				AccessToken:  "access-1",
				RefreshToken: "refresh-1",
				ExpiresAt:    exp,
				CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
			}
			if err := store.SaveToken(ctx, rec); err != nil {
				t.Fatalf("SaveToken: %v", err)
			}
			got, err = store.Token(ctx)
			if err != nil {
				t.Fatalf("Token: %v", err)
			}
			if got == nil || got.AccessToken != "access-1" || !got.ExpiresAt.Equal(exp) {
				t.Fatalf("token round trip: got %+v", got)
			}

			// Overwrite replaces, not duplicates.
			rec2 := *rec
			rec2.AccessToken = "access-2"
			if err := store.SaveToken(ctx, &rec2); err != nil {
				t.Fatalf("SaveToken overwrite: %v", err)
			}
			got, _ = store.Token(ctx)
			if got.AccessToken != "access-2" {
				t.Errorf("overwrite: got %q", got.AccessToken)
			}

			if err := store.ClearToken(ctx); err != nil {
				t.Fatalf("ClearToken: %v", err)
			}
			got, _ = store.Token(ctx)
			if got != nil {
				t.Error("expected nil token after clear")
			}
		})
	}
}

func TestStore_PinRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := store.Pin(ctx)
			if err != nil {
				t.Fatalf("Pin: %v", err)
			}
			if got != nil {
				t.Fatal("expected nil pin on empty store")
			}

			p := &PinCredential{
				Hash:           "$2a$10$abcdef",
				FailedAttempts: 2,
				UpdatedAt:      time.Now().UTC().Truncate(time.Millisecond),
			}
			if err := store.SavePin(ctx, p); err != nil {
				t.Fatalf("SavePin: %v", err)
			}
			got, err = store.Pin(ctx)
			if err != nil {
				t.Fatalf("Pin: %v", err)
			}
			if got == nil || got.Hash != p.Hash || got.FailedAttempts != 2 {
				t.Fatalf("pin round trip: got %+v", got)
			}
			if !got.LockedUntil.IsZero() {
				t.Errorf("expected zero LockedUntil, got %v", got.LockedUntil)
			}

			until := time.Now().UTC().Add(5 * time.Minute).Truncate(time.Millisecond)
			p.LockedUntil = until
			if err := store.SavePin(ctx, p); err != nil {
				t.Fatalf("SavePin locked: %v", err)
			}
			got, _ = store.Pin(ctx)
			if !got.LockedUntil.Equal(until) {
				t.Errorf("LockedUntil: got %v want %v", got.LockedUntil, until)
			}
			if !got.Locked(time.Now().UTC()) {
				t.Error("expected Locked true")
			}

			if err := store.ClearPin(ctx); err != nil {
				t.Fatalf("ClearPin: %v", err)
			}
			got, _ = store.Pin(ctx)
			if got != nil {
				t.Error("expected nil pin after clear")
			}
		})
	}
}

func TestStore_SessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			sess := &Session{
				ID:        "sess-1",
				UserID:    "user-1",
				Active:    true,
				ExpiresAt: time.Now().UTC().Add(time.Hour).Truncate(time.Millisecond),
				CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
			}
			if err := store.SaveSession(ctx, sess); err != nil {
				t.Fatalf("SaveSession: %v", err)
			}
			got, err := store.Session(ctx)
			if err != nil {
				t.Fatalf("Session: %v", err)
			}
			if got == nil || got.ID != "sess-1" || !got.Active {
				t.Fatalf("session round trip: got %+v", got)
			}
			if err := store.ClearSession(ctx); err != nil {
				t.Fatalf("ClearSession: %v", err)
			}
			got, _ = store.Session(ctx)
			if got != nil {
				t.Error("expected nil session after clear")
			}
		})
	}
}

func TestTokenRecord_Status(t *testing.T) {
	now := time.Now().UTC()
	var nilRec *TokenRecord
	if st := nilRec.Status(now); st.Exists {
		t.Error("nil record should not exist")
	}
	live := &TokenRecord{AccessToken: "a", ExpiresAt: now.Add(time.Minute)}
	if st := live.Status(now); !st.Exists || st.Expired {
		t.Errorf("live token: got %+v", st)
	}
	stale := &TokenRecord{AccessToken: "a", ExpiresAt: now.Add(-time.Minute)}
	if st := stale.Status(now); !st.Exists || !st.Expired {
		t.Errorf("stale token: got %+v", st)
	}
}
