// Package permission models repository access levels and their expanded
// capability vectors.
package permission

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/assignctl/internal/foundation/errors"
)

// Level is a symbolic repository access tier. Levels are totally ordered:
// pull < push < admin.
type Level string

const (
	Pull  Level = "pull"
	Push  Level = "push"
	Admin Level = "admin"

	// Default is used when a caller asks for a level without naming one.
	Default = Pull
)

// ErrInvalidLevel is returned for any level outside {pull, push, admin}.
var ErrInvalidLevel = errors.ValidationError("invalid permission level").Build()

// Levels lists every valid level in ascending order.
func Levels() []Level { return []Level{Pull, Push, Admin} }

// IsSet reports whether l names a level at all. The empty level means "skip".
func (l Level) IsSet() bool { return l != "" }

// Validate returns ErrInvalidLevel unless l is one of the known levels.
func (l Level) Validate() error {
	switch l {
	case Pull, Push, Admin:
		return nil
	default:
		return ErrInvalidLevel.WithContext("level", string(l))
	}
}

// ParseLevel normalizes s and validates it.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if err := l.Validate(); err != nil {
		return "", err
	}
	return l, nil
}

// CapabilityVector is the expanded boolean form of a Level. Triage and
// Maintain are only meaningful for team-scoped comparison and are always false
// in vectors produced by LevelToMatrix.
type CapabilityVector struct {
	Pull     bool `json:"pull"`
	Push     bool `json:"push"`
	Admin    bool `json:"admin"`
	Triage   bool `json:"triage"`
	Maintain bool `json:"maintain"`
}

// LevelToMatrix maps a level to its canonical capability vector.
func LevelToMatrix(l Level) (CapabilityVector, error) {
	if err := l.Validate(); err != nil {
		return CapabilityVector{}, err
	}
	return CapabilityVector{
		Pull:  true,
		Push:  l == Push || l == Admin,
		Admin: l == Admin,
	}, nil
}

// Collaborator returns the three-key view used when comparing direct user
// collaborators; Triage and Maintain are cleared.
func (v CapabilityVector) Collaborator() CapabilityVector {
	return CapabilityVector{Pull: v.Pull, Push: v.Push, Admin: v.Admin}
}

// Dominates reports whether v grants at least every capability of o.
func (v CapabilityVector) Dominates(o CapabilityVector) bool {
	return (v.Pull || !o.Pull) &&
		(v.Push || !o.Push) &&
		(v.Admin || !o.Admin) &&
		(v.Triage || !o.Triage) &&
		(v.Maintain || !o.Maintain)
}

// String renders the vector compactly for logs, e.g. "pull,push".
func (v CapabilityVector) String() string {
	var parts []string
	for _, f := range []struct {
		name string
		on   bool
	}{{"pull", v.Pull}, {"triage", v.Triage}, {"push", v.Push}, {"maintain", v.Maintain}, {"admin", v.Admin}} {
		if f.on {
			parts = append(parts, f.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// Describe renders an optional observed vector; nil means no permission record.
func Describe(v *CapabilityVector) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprint(*v)
}
