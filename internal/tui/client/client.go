// Package client connects front ends to a session daemon, starting one when
// asked to.
package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/matheus3301/freightmsg/internal/api"
	"github.com/matheus3301/freightmsg/internal/session"
)

// DaemonBinary is the executable started by Connect when autostart is set.
const DaemonBinary = "freightd"

// ErrNotRunning is returned when no daemon answers on the session socket.
var ErrNotRunning = errors.New("daemon not running")

// Options tunes Connect.
type Options struct {
	Autostart bool
	// Wait bounds how long Connect polls a freshly started daemon.
	Wait time.Duration
	// Args are appended to the daemon command line.
	Args []string
}

// Connect returns a client for the named session's daemon.
func Connect(sessionName string, opts Options) (*api.Client, error) {
	socketPath := session.SocketPath(sessionName)
	if !Probe(socketPath) {
		if !opts.Autostart {
			return nil, fmt.Errorf("session %q: %w", sessionName, ErrNotRunning)
		}
		if err := start(sessionName, opts.Args); err != nil {
			return nil, fmt.Errorf("start daemon: %w", err)
		}
		wait := opts.Wait
		if wait <= 0 {
			wait = 10 * time.Second
		}
		if !waitFor(socketPath, wait) {
			return nil, fmt.Errorf("session %q: daemon did not become ready", sessionName)
		}
	}
	return api.Dial(socketPath)
}

// Probe reports whether a daemon answers GetSession on socketPath.
func Probe(socketPath string) bool {
	if _, err := os.Stat(socketPath); err != nil {
		return false
	}
	c, err := api.Dial(socketPath)
	if err != nil {
		return false
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = c.Session(ctx)
	return err == nil
}

func start(sessionName string, args []string) error {
	bin := DaemonBinary
	if executable, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(executable), DaemonBinary)
		if _, err := os.Stat(sibling); err == nil {
			bin = sibling
		}
	}

	cmd := exec.Command(bin, append([]string{"--session", sessionName}, args...)...)
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

func waitFor(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if Probe(socketPath) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}
