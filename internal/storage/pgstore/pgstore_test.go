//go:build testutil
// +build testutil

package pgstore_test

import (
	"context"
	"testing"

	"github.com/rusl-cricket/attendance-bot/internal/storage/pgstore"
	"github.com/rusl-cricket/attendance-bot/internal/storage/storagetest"
	"github.com/rusl-cricket/attendance-bot/internal/testutil/testdb"
)

func TestStore_Contract(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	storagetest.Run(t, pgstore.New(h.DB))
}

func TestMigrate_Idempotent(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	// testdb уже накатил миграции; повторный прогон не должен падать
	if err := pgstore.Migrate(h.DB); err != nil {
		t.Fatal(err)
	}
}
