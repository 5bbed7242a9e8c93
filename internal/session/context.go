package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/matheus3301/freightmsg/internal/bus"
	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/wire"
)

// ErrNoSession is returned by Store.Current when no authenticated session is
// held, either because none was loaded or because it was invalidated.
var ErrNoSession = errors.New("no authenticated session")

// Context is the authenticated identity every mapping and send reads. It is
// parsed once and passed by value.
type Context struct {
	UserID string     `json:"user_id"`
	Role   convo.Role `json:"role"`
	Name   string     `json:"name,omitempty"`
	Token  string     `json:"-"`
}

// Authenticated reports whether c carries a token and a user id.
func (c Context) Authenticated() bool {
	return c.Token != "" && c.UserID != ""
}

var (
	tokenKeys = []string{"token", "authToken", "auth_token", "accessToken", "access_token"}
	userKeys  = []string{"userId", "userid", "user_id"}
	roleKeys  = []string{"role", "userRole", "user_role", "userType", "user_type"}
	nameKeys  = []string{"name", "fullName", "full_name", "userName", "user_name"}
	blobKeys  = []string{"user", "freightmsg_user"}

	// A nested user blob may carry its own id under a bare key.
	nestedUserKeys = []string{"userId", "userid", "user_id", "id", "_id"}
)

// ParseContext reads the session key-value blob. Identity may sit at the top
// level or inside a nested user object, which itself may be JSON-encoded as a
// string. Top-level values win.
func ParseContext(data []byte) (Context, error) {
	var top wire.Fields
	if err := json.Unmarshal(data, &top); err != nil {
		return Context{}, fmt.Errorf("parse session: %w", err)
	}
	nested := nestedUser(top)

	ctx := Context{
		Token:  first(top, nested, tokenKeys, tokenKeys),
		UserID: first(top, nested, userKeys, nestedUserKeys),
		Name:   first(top, nested, nameKeys, nameKeys),
	}
	if role, ok := convo.ParseRole(first(top, nested, roleKeys, roleKeys)); ok {
		ctx.Role = role
	}
	return ctx, nil
}

func first(top, nested wire.Fields, topKeys, nestedKeys []string) string {
	if v := top.Pick(topKeys...); v != "" {
		return v
	}
	return nested.Pick(nestedKeys...)
}

func nestedUser(top wire.Fields) wire.Fields {
	for _, key := range blobKeys {
		raw, ok := top[key]
		if !ok {
			continue
		}
		var obj wire.Fields
		if err := json.Unmarshal(raw, &obj); err == nil && obj != nil {
			return obj
		}
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err == nil {
			if err := json.Unmarshal([]byte(strings.TrimSpace(encoded)), &obj); err == nil && obj != nil {
				return obj
			}
		}
	}
	return nil
}

// LoadContext reads and parses the session file at path.
func LoadContext(path string) (Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Context{}, fmt.Errorf("read session: %w", err)
	}
	return ParseContext(data)
}

// Store holds the current session context for the daemon's lifetime.
type Store struct {
	mu    sync.RWMutex
	ctx   Context
	valid bool
	bus   *bus.Bus
}

// NewStore creates a store holding ctx. An unauthenticated ctx leaves the
// store empty.
func NewStore(ctx Context, b *bus.Bus) *Store {
	return &Store{ctx: ctx, valid: ctx.Authenticated(), bus: b}
}

// Current returns the held context, or ErrNoSession.
func (s *Store) Current() (Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid {
		return Context{}, ErrNoSession
	}
	return s.ctx, nil
}

// Replace installs a new context, e.g. after the session file changed.
func (s *Store) Replace(ctx Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.valid = ctx.Authenticated()
	s.mu.Unlock()
}

// Invalidate drops the held context and announces it on the bus. It is safe
// to call more than once; only the first call publishes.
func (s *Store) Invalidate() {
	s.mu.Lock()
	was := s.valid
	s.ctx = Context{}
	s.valid = false
	s.mu.Unlock()
	if was {
		s.bus.Publish(bus.NewEvent(bus.KindSessionInvalidated, nil))
	}
}
