// Package keys maps key events to actions, per page and globally.
package keys

import "github.com/gdamore/tcell/v2"

// Action is one key binding.
type Action struct {
	Key     tcell.Key
	Rune    rune
	Name    string
	Handler func()
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Rune builds a binding for a printable key.
func Rune(r rune, name string, fn func()) *Action {
	return &Action{Key: tcell.KeyRune, Rune: r, Name: name, Handler: fn}
}

// Key builds a binding for a special key.
func Key(k tcell.Key, name string, fn func()) *Action {
	return &Action{Key: k, Name: name, Handler: fn}
}

// Registry holds bindings in registration order. Page bindings shadow
// global ones.
type Registry struct {
	global []*Action
	pages  map[string][]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{pages: make(map[string][]*Action)}
}

// AddGlobal registers bindings active on every page.
func (r *Registry) AddGlobal(actions ...*Action) {
	r.global = append(r.global, actions...)
}

// AddPage registers bindings active only on page.
func (r *Registry) AddPage(page string, actions ...*Action) {
	r.pages[page] = append(r.pages[page], actions...)
}

// Lookup returns the binding ev triggers on page, or nil.
func (r *Registry) Lookup(page string, ev *tcell.EventKey) *Action {
	for _, a := range r.pages[page] {
		if a.Matches(ev) {
			return a
		}
	}
	for _, a := range r.global {
		if a.Matches(ev) {
			return a
		}
	}
	return nil
}

// HandleEvent runs the binding ev triggers on page. It reports whether one
// matched.
func (r *Registry) HandleEvent(page string, ev *tcell.EventKey) bool {
	a := r.Lookup(page, ev)
	if a == nil {
		return false
	}
	if a.Handler != nil {
		a.Handler()
	}
	return true
}
