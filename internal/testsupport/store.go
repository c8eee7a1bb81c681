package testsupport

import (
	"context"
	"testing"

	"cmdetect/internal/config"
	"cmdetect/internal/history"
)

// MustOpenHistory opens the run ledger configured in cfg and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(context.Background(), cfg.History.Path)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
