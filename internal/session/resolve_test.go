package session

import (
	"testing"

	"github.com/matheus3301/freightmsg/internal/config"
)

func TestResolvePrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvSession, "")

	if got := Resolve(""); got != DefaultSessionName {
		t.Errorf("Resolve() with nothing set = %q, want %q", got, DefaultSessionName)
	}

	if err := config.Save(ConfigPath(), &config.Config{DefaultSession: "fromfile"}); err != nil {
		t.Fatal(err)
	}
	if got := Resolve(""); got != "fromfile" {
		t.Errorf("Resolve() = %q, want fromfile", got)
	}

	t.Setenv(config.EnvSession, "fromenv")
	if got := Resolve(""); got != "fromenv" {
		t.Errorf("Resolve() = %q, want fromenv", got)
	}

	if got := Resolve("flag"); got != "flag" {
		t.Errorf("Resolve(flag) = %q, want flag", got)
	}
}
