package auth

import (
	"fmt"
	"strings"
)

// Mode selects how a multi-capability check combines its flags.
type Mode int

const (
	// ModeAll grants only when every requested capability is held.
	ModeAll Mode = iota
	// ModeAny grants when at least one requested capability is held.
	ModeAny
)

func (m Mode) String() string {
	if m == ModeAny {
		return "any"
	}
	return "all"
}

// DeniedError reports which capabilities the caller lacked. The names are for
// caller-side diagnostics; the caller already knows its own identity, so this
// leaks nothing.
type DeniedError struct {
	Missing []Capability
}

func (e *DeniedError) Error() string {
	names := make([]string, len(e.Missing))
	for i, c := range e.Missing {
		names[i] = string(c)
	}
	return fmt.Sprintf("permission denied: missing %s", strings.Join(names, ", "))
}

func (e *DeniedError) Unwrap() error { return ErrPermissionDenied }

// Decide evaluates the requested capabilities against a freshly loaded role
// and capability set. The admin role short-circuits everything, including an
// all-false stored set. Decide is pure; loading the identity (and denying when
// it cannot be found) is the caller's responsibility.
func Decide(role Role, set CapabilitySet, mode Mode, caps ...Capability) error {
	if role.IsAdmin() {
		return nil
	}
	if len(caps) == 0 {
		return nil
	}
	var missing []Capability
	for _, c := range caps {
		if !set.Has(c) {
			missing = append(missing, c)
		}
	}
	switch mode {
	case ModeAny:
		if len(missing) < len(caps) {
			return nil
		}
	default:
		if len(missing) == 0 {
			return nil
		}
	}
	return &DeniedError{Missing: missing}
}
