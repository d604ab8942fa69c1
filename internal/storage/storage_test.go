package storage_test

import (
	"testing"

	"github.com/rusl-cricket/attendance-bot/internal/storage"
	"github.com/rusl-cricket/attendance-bot/internal/storage/storagetest"
)

func TestMemory(t *testing.T) {
	storagetest.Run(t, storage.NewMemory())
}
