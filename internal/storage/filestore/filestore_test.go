package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rusl-cricket/attendance-bot/internal/storage/storagetest"
)

func TestStore_Contract(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	storagetest.Run(t, s)
}

func TestStore_CorruptFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "77.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := s.Get(context.Background(), 77, "token"); err != nil || ok {
		t.Fatalf("битый файл должен читаться как пустой: ok=%v err=%v", ok, err)
	}
	// запись поверх битого файла восстанавливает его
	if err := s.Set(context.Background(), 77, "token", "x"); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := s.Get(context.Background(), 77, "token"); !ok || v != "x" {
		t.Fatalf("получили %q", v)
	}
}

func TestStore_RemoveLastKeyDeletesFile(t *testing.T) {
	dir := t.TempDir()
	s, _ := Open(dir)
	ctx := context.Background()
	_ = s.Set(ctx, 5, "token", "t")
	if err := s.Remove(ctx, 5, "token"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "5.json")); !os.IsNotExist(err) {
		t.Fatalf("файл чата должен быть удалён, err=%v", err)
	}
}
