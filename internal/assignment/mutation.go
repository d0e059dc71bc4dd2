package assignment

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/assignctl/internal/logfields"
	"git.home.luguber.info/inful/assignctl/internal/permission"
)

// MutationKind names a state-changing remote call.
type MutationKind string

const (
	KindCreateRepository MutationKind = "create-repository"
	KindAddCollaborator  MutationKind = "add-collaborator"
	KindSetCollaborator  MutationKind = "set-collaborator"
	KindSetTeam          MutationKind = "set-team-permission"
	KindDeleteRepository MutationKind = "delete-repository"
)

// PrincipalClass is one of the independently reconciled principal classes.
type PrincipalClass string

const (
	ClassCollaborator   PrincipalClass = "collaborator"
	ClassTeam           PrincipalClass = "team"
	ClassPrivilegedTeam PrincipalClass = "privileged-team"
)

// Mutation is one computed corrective or provisioning action. It is the unit
// logged, journaled and (in live mode) applied by the Gate.
type Mutation struct {
	Kind       MutationKind     `json:"kind"`
	Repository string           `json:"repository"`
	Principal  string           `json:"principal,omitempty"`
	Class      PrincipalClass   `json:"class,omitempty"`
	Level      permission.Level `json:"level,omitempty"`
	Previous   string           `json:"previous,omitempty"`
	Template   string           `json:"template,omitempty"`
}

func (m Mutation) String() string {
	switch m.Kind {
	case KindCreateRepository:
		if m.Template != "" {
			return fmt.Sprintf("create %s from %s", m.Repository, m.Template)
		}
		return fmt.Sprintf("create %s", m.Repository)
	case KindDeleteRepository:
		return fmt.Sprintf("delete %s", m.Repository)
	default:
		return fmt.Sprintf("%s@%s set to %s (was %s)", m.Principal, m.Repository, m.Level, m.Previous)
	}
}

func (m Mutation) attrs() []slog.Attr {
	attrs := []slog.Attr{
		logfields.Mutation(string(m.Kind)),
		logfields.Repository(m.Repository),
	}
	if m.Principal != "" {
		attrs = append(attrs, logfields.Principal(m.Principal), logfields.PrincipalClass(string(m.Class)))
	}
	if m.Level != "" {
		attrs = append(attrs, logfields.Permission(string(m.Level)))
	}
	if m.Previous != "" {
		attrs = append(attrs, logfields.Previous(m.Previous))
	}
	if m.Template != "" {
		attrs = append(attrs, slog.String("template", m.Template))
	}
	return attrs
}
