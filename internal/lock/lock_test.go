package lock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s", "LOCK")

	l, err := Acquire(path, "work")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	h := parse(mustRead(t, path))
	if h.PID != os.Getpid() || h.Session != "work" || h.Since.IsZero() {
		t.Errorf("holder = %+v", h)
	}

	if err := l.Release(); err != nil {
		t.Errorf("Release() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("lock file still present after release: %v", err)
	}
}

func TestDoubleAcquireFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LOCK")

	l1, err := Acquire(path, "work")
	if err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	defer func() { _ = l1.Release() }()

	_, err = Acquire(path, "work")
	var lockErr *LockHeldError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected LockHeldError, got %T: %v", err, err)
	}
	if lockErr.Holder.PID != os.Getpid() || lockErr.Holder.Session != "work" {
		t.Errorf("holder = %+v", lockErr.Holder)
	}
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LOCK")

	if _, ok, err := Inspect(path); err != nil || ok {
		t.Fatalf("Inspect(missing) = %v, %v", ok, err)
	}

	l, err := Acquire(path, "work")
	if err != nil {
		t.Fatal(err)
	}
	h, ok, err := Inspect(path)
	if err != nil || !ok || h.Session != "work" {
		t.Fatalf("Inspect(held) = %+v, %v, %v", h, ok, err)
	}

	_ = l.Release()
	if _, ok, _ := Inspect(path); ok {
		t.Error("Inspect after release reports held")
	}
}

func TestReleaseNil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Errorf("nil Release() error = %v", err)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	l, err := Acquire(filepath.Join(t.TempDir(), "LOCK"), "work")
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Release(); err != nil {
		t.Fatal(err)
	}
	if err := l.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
}

func TestParseToleratesGarbage(t *testing.T) {
	h := parse("junk\npid=abc\nsession=x\n")
	if h.PID != 0 || h.Session != "x" {
		t.Errorf("parse = %+v", h)
	}
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
