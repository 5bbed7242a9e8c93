package client

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConnectWithoutDaemon(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Connect("default", Options{})
	if !errors.Is(err, ErrNotRunning) {
		t.Fatalf("err = %v, want ErrNotRunning", err)
	}
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()
	if Probe(filepath.Join(dir, "missing.sock")) {
		t.Fatal("probe of a missing socket succeeded")
	}

	stale := filepath.Join(dir, "stale.sock")
	if err := os.WriteFile(stale, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if Probe(stale) {
		t.Fatal("probe of a plain file succeeded")
	}
}
