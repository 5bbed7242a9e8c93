package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "freightd.log")

	logger, err := New(path, "main", "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug("hidden")
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := string(data)
	for _, want := range []string{`"msg":"hello"`, `"session":"main"`, `"pid":`, `"ts":`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %s", line, want)
		}
	}
	if strings.Contains(line, "hidden") {
		t.Errorf("debug entry written at default level: %q", line)
	}
}

func TestNewLevel(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(filepath.Join(dir, "debug.log"), "main", "debug")
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("visible")
	_ = logger.Sync()
	data, _ := os.ReadFile(filepath.Join(dir, "debug.log"))
	if !strings.Contains(string(data), "visible") {
		t.Errorf("debug entry missing: %q", data)
	}

	if _, err := New(filepath.Join(dir, "bad.log"), "main", "loud"); err == nil {
		t.Error("New() with unknown level succeeded")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
}
