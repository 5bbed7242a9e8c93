// Package notify holds the controller's transient toast notifications.
package notify

import (
	"sync"
	"time"

	"github.com/matheus3301/freightmsg/internal/bus"
)

// Severity is the kind of toast.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Info    Severity = "info"
)

// Toast is one notification with its expiry.
type Toast struct {
	Text     string    `json:"text"`
	Severity Severity  `json:"severity"`
	Expires  time.Time `json:"expires"`
}

// Notifier keeps the most recent toast until it expires and announces each
// new one on the bus.
type Notifier struct {
	mu      sync.RWMutex
	current Toast
	ttl     time.Duration
	now     func() time.Time
	bus     *bus.Bus
}

// New creates a notifier whose toasts last ttl.
func New(ttl time.Duration, b *bus.Bus) *Notifier {
	if ttl <= 0 {
		ttl = 4 * time.Second
	}
	return &Notifier{ttl: ttl, now: time.Now, bus: b}
}

// Success shows a success toast.
func (n *Notifier) Success(text string) { n.show(text, Success) }

// Error shows an error toast.
func (n *Notifier) Error(text string) { n.show(text, Error) }

// Info shows an info toast.
func (n *Notifier) Info(text string) { n.show(text, Info) }

func (n *Notifier) show(text string, sev Severity) {
	if n == nil || text == "" {
		return
	}
	n.mu.Lock()
	t := Toast{Text: text, Severity: sev, Expires: n.now().Add(n.ttl)}
	n.current = t
	n.mu.Unlock()
	n.bus.Publish(bus.NewEvent(bus.KindToastShown, t))
}

// Current returns the visible toast. ok is false once it expired.
func (n *Notifier) Current() (t Toast, ok bool) {
	if n == nil {
		return Toast{}, false
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.current.Text == "" || !n.now().Before(n.current.Expires) {
		return Toast{}, false
	}
	return n.current, true
}

// Dismiss hides the current toast early.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	n.current = Toast{}
	n.mu.Unlock()
}
