package testsupport

import (
	"testing"

	"redub/internal/config"
	"redub/internal/session"
)

// MustOpenStore opens the session store for cfg and closes it when the
// test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *session.Store {
	t.Helper()

	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
