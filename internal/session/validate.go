package session

import (
	"fmt"
	"regexp"
)

// MaxNameLength bounds a session name, which is also a directory name.
const MaxNameLength = 64

var nameRegexp = regexp.MustCompile(fmt.Sprintf(`^[a-z0-9_-]{1,%d}$`, MaxNameLength))

// NameError reports a session name that breaks the naming rules.
type NameError struct {
	Name   string
	Reason string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("invalid session name %q: %s", e.Name, e.Reason)
}

// ValidateName checks that name is usable as a session directory name:
// lower-case letters, digits, '-' and '_', at most MaxNameLength bytes.
func ValidateName(name string) error {
	switch {
	case name == "":
		return &NameError{Name: name, Reason: "empty"}
	case len(name) > MaxNameLength:
		return &NameError{Name: name, Reason: fmt.Sprintf("longer than %d characters", MaxNameLength)}
	case !nameRegexp.MatchString(name):
		return &NameError{Name: name, Reason: "only a-z, 0-9, '-' and '_' are allowed"}
	}
	return nil
}
