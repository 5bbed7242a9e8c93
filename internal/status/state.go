// Package status holds the table-driven state machines for the daemon session
// and for individual send attempts.
package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/freightmsg/internal/bus"
)

// State is one node of a transition table.
type State string

// Session states.
const (
	Booting      State = "BOOTING"
	AuthRequired State = "AUTH_REQUIRED"
	Ready        State = "READY"
	Degraded     State = "DEGRADED"
	Error        State = "ERROR"
)

// Send attempt phases.
const (
	Idle    State = "idle"
	Sending State = "sending"
	Sent    State = "sent"
	Failed  State = "failed"
)

// Table maps each state to the states it may move to.
type Table map[State][]State

// SessionTable governs the daemon's session status.
var SessionTable = Table{
	Booting:      {AuthRequired, Ready, Error},
	AuthRequired: {Ready, Error},
	Ready:        {Degraded, AuthRequired, Error},
	Degraded:     {Ready, AuthRequired, Error},
	Error:        {Booting},
}

// SendTable governs one optimistic send attempt. Sent and Failed are final.
var SendTable = Table{
	Idle:    {Sending, Failed},
	Sending: {Sent, Failed},
}

// Machine tracks and enforces transitions over a Table.
type Machine struct {
	mu      sync.RWMutex
	table   Table
	current State
	bus     *bus.Bus
	kind    string
	subject string
}

// NewMachine creates a machine over table, starting at initial. Every accepted
// transition is published on b as an event of the given kind.
func NewMachine(b *bus.Bus, table Table, initial State, kind string) *Machine {
	return &Machine{table: table, current: initial, bus: b, kind: kind}
}

// NewSessionMachine creates the daemon session machine in Booting.
func NewSessionMachine(b *bus.Bus) *Machine {
	return NewMachine(b, SessionTable, Booting, bus.KindSessionStatusChanged)
}

// NewSendMachine creates a send machine in Idle. subject identifies the
// attempt in published events.
func NewSendMachine(b *bus.Bus, subject string) *Machine {
	m := NewMachine(b, SendTable, Idle, bus.KindSendPhaseChanged)
	m.subject = subject
	return m
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Final reports whether the current state has no outgoing transitions.
func (m *Machine) Final() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.table[m.current]) == 0
}

// Transition attempts to move to a new state. Moving to the current state is
// a no-op.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	if m.current == to {
		m.mu.Unlock()
		return nil
	}
	if !slices.Contains(m.table[m.current], to) {
		from := m.current
		m.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	from := m.current
	m.current = to
	m.mu.Unlock()

	m.bus.Publish(bus.NewEvent(m.kind, StatusChange{Subject: m.subject, From: from, To: to}))
	return nil
}

// StatusChange is the payload for transition events.
type StatusChange struct {
	Subject string
	From    State
	To      State
}
