package file

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListSorted(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "log_data", "b.json"))
	touch(t, filepath.Join(root, "log_data", "a.json"))

	got, err := List(root, "log_data/*.json")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(root, "log_data", "a.json"),
		filepath.Join(root, "log_data", "b.json"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestListEmptyIsFatal(t *testing.T) {
	if _, err := List(t.TempDir(), "song_data/*/*/*/*.json"); err == nil {
		t.Fatal("empty glob resolution must be an error")
	}
}

func TestOpenCanceledContext(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "x.json")
	touch(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Open(ctx, p); err == nil {
		t.Fatal("canceled context should fail Open")
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("missing file should fail Open")
	}
}
