package testsupport

import (
	"context"
	"testing"

	"animesync/internal/catalog"
	"animesync/internal/config"
)

// MustOpenStore opens the SQLite catalog for cfg and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.SQLStore {
	t.Helper()

	store, err := catalog.OpenSQLite(context.Background(), cfg.SQLitePath())
	if err != nil {
		t.Fatalf("catalog.OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// SeedRecords inserts one record per title list and returns them in order.
func SeedRecords(t testing.TB, store catalog.Store, titles ...[]string) []catalog.Record {
	t.Helper()

	records := make([]catalog.Record, 0, len(titles))
	for _, list := range titles {
		record, err := store.Add(context.Background(), list...)
		if err != nil {
			t.Fatalf("seed record %v: %v", list, err)
		}
		records = append(records, record)
	}
	return records
}
