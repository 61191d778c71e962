package input

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestReadList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ips.txt")
	content := "8.8.8.8\n  1.1.1.1  \n\n10 .0.0.1\n192.168.1.0/24\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	tokens, err := ReadList(path)
	if err != nil {
		t.Fatalf("ReadList: %v", err)
	}
	want := []string{"8.8.8.8", "1.1.1.1", "10.0.0.1", "192.168.1.0/24"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("tokens = %v, want %v", tokens, want)
	}
}

func TestReadList_Missing(t *testing.T) {
	if _, err := ReadList(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLatestFile(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.txt")
	recent := filepath.Join(dir, "recent.txt")
	if err := os.WriteFile(old, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(recent, []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Make mtimes unambiguous regardless of filesystem resolution.
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	got, err := LatestFile(dir, "*.txt")
	if err != nil {
		t.Fatalf("LatestFile: %v", err)
	}
	if got != recent {
		t.Errorf("LatestFile = %q, want %q", got, recent)
	}
}

func TestLatestFile_NoMatch(t *testing.T) {
	if _, err := LatestFile(t.TempDir(), "*.xlsx"); err == nil {
		t.Error("expected error when nothing matches")
	}
}
