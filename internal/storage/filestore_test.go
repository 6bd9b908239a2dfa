package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wallet.json")

	fs, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	want := record{Name: "ada", Count: 3}
	if err := fs.Set(ctx, "k1", want); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got record
	ok, err := fs.Get(ctx, "k1", &got)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if ok, err := fs.Get(ctx, "missing", &got); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	// reopen and verify the value survived the rewrite
	if err := fs.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	fs2, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer fs2.Close()

	got = record{}
	if ok, err := fs2.Get(ctx, "k1", &got); err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("after reopen got %+v, want %+v", got, want)
	}
}

func TestFileStoreShrinkingValue(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wallet.json")

	fs, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	long := make([]string, 100)
	for i := range long {
		long[i] = "xxxxxxxxxx"
	}
	if err := fs.Set(ctx, "k", long); err != nil {
		t.Fatalf("set long: %v", err)
	}
	if err := fs.Set(ctx, "k", []string{"short"}); err != nil {
		t.Fatalf("set short: %v", err)
	}
	if err := fs.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// a stale tail would make the file unparseable
	fs2, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("reopen after shrink: %v", err)
	}
	defer fs2.Close()

	var got []string
	if ok, err := fs2.Get(ctx, "k", &got); err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0] != "short" {
		t.Fatalf("got %v, want [short]", got)
	}
}
