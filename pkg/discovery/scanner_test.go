package discovery

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
}

func TestListSortsMatches(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "epoch-30.nnue"))
	touch(t, filepath.Join(dir, "epoch-10.nnue"))
	touch(t, filepath.Join(dir, "epoch-20.nnue"))

	got, err := NewScanner(dir, "*.nnue").List()
	if err != nil {
		t.Fatalf("failed to list candidates: %v", err)
	}
	want := []string{
		filepath.Join(dir, "epoch-10.nnue"),
		filepath.Join(dir, "epoch-20.nnue"),
		filepath.Join(dir, "epoch-30.nnue"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestListFiltersByPattern(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "cand.nnue"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "cand.nnue.sha256"))

	got, err := NewScanner(dir, "*.nnue").List()
	if err != nil {
		t.Fatalf("failed to list candidates: %v", err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "cand.nnue" {
		t.Errorf("List() = %v, want only cand.nnue", got)
	}
}

func TestListEmptyDirectory(t *testing.T) {
	got, err := NewScanner(t.TempDir(), "").List()
	if err != nil {
		t.Fatalf("failed to list candidates: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List() = %v, want empty", got)
	}
}

func TestNewScannerDefaultPattern(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "cand.nnue"))
	touch(t, filepath.Join(dir, "other.bin"))

	got, err := NewScanner(dir, "  ").List()
	if err != nil {
		t.Fatalf("failed to list candidates: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("List() = %v, want the default *.nnue match", got)
	}
}
