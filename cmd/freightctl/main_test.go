package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/matheus3301/freightmsg/internal/lock"
	"github.com/matheus3301/freightmsg/internal/session"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := run(t, "--help")
	if err != nil {
		t.Fatalf("--help failed: %v", err)
	}
	for _, sub := range []string{"status", "conversations", "open", "send", "delete", "search", "outbox", "link", "logout", "watch"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help does not list %q:\n%s", sub, out)
		}
	}
	for _, flag := range []string{"--session", "--json", "--timeout"} {
		if !strings.Contains(out, flag) {
			t.Errorf("help does not list %s", flag)
		}
	}
}

func TestStatusWithoutDaemon(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FREIGHTMSG_SESSION", "")

	out, err := run(t, "status", "--session", "ops")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Session: ops") || !strings.Contains(out, "stopped") {
		t.Fatalf("output = %q", out)
	}
	if strings.Contains(out, "Lock:") {
		t.Fatalf("reported a lock holder with no lock: %q", out)
	}
}

func TestStatusReportsLockHolder(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := session.EnsureDir("ops"); err != nil {
		t.Fatal(err)
	}
	l, err := lock.Acquire(session.LockPath("ops"), "ops")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = l.Release() }()

	out, err := run(t, "status", "--session", "ops", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var st offlineStatus
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if st.Running || st.Holder == nil || st.Holder.PID != os.Getpid() {
		t.Fatalf("status = %+v", st)
	}
}

func TestCommandsNeedDaemon(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := run(t, "conversations", "--session", "ops")
	if err == nil || !strings.Contains(err.Error(), "daemon not running") {
		t.Fatalf("err = %v", err)
	}
}

func TestLinkNeedsTarget(t *testing.T) {
	_, err := run(t, "link", "--prefill", "selam")
	if err == nil || !strings.Contains(err.Error(), "--user or --shipment") {
		t.Fatalf("err = %v", err)
	}
}

func TestArgValidation(t *testing.T) {
	if _, err := run(t, "send", "conv:1:2"); err == nil {
		t.Fatal("send without text accepted")
	}
	if _, err := run(t, "open"); err == nil {
		t.Fatal("open without id accepted")
	}
}

func TestDescribe(t *testing.T) {
	err := grpcstatus.Error(codes.FailedPrecondition, "no conversation selected")
	if got := describe(err); got != "FailedPrecondition: no conversation selected" {
		t.Fatalf("describe = %q", got)
	}
	if got := describe(errors.New("plain")); got != "plain" {
		t.Fatalf("describe = %q", got)
	}
}

func TestClip(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"", 5, ""},
		{"kısa", 10, "kısa"},
		{"yük\nhazır   mı", 20, "yük hazır mı"},
		{"çok uzun bir mesaj", 8, "çok uzu…"},
	}
	for _, tt := range tests {
		if got := clip(tt.in, tt.n); got != tt.want {
			t.Errorf("clip(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
	if dash("") != "-" || dash("x") != "x" {
		t.Fatal("dash")
	}
}
