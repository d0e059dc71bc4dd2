package assignment

import (
	"context"
	"sort"
	"strings"

	"git.home.luguber.info/inful/assignctl/internal/forge"
)

// Prefix returns the repository name prefix shared by an assignment.
func Prefix(assignment string) string { return assignment + "_" }

// RepoName returns the repository name for one student of an assignment.
func RepoName(assignment, login string) string { return Prefix(assignment) + login }

// OwnerLogin extracts the student login from an assignment repository name.
func OwnerLogin(assignment, repoName string) (string, bool) {
	login, ok := strings.CutPrefix(repoName, Prefix(assignment))
	return login, ok && login != ""
}

// Resolution is the desired-vs-observed view of one assignment.
type Resolution struct {
	// Desired maps repository name to the login it belongs to.
	Desired map[string]string
	// Observed holds the existing assignment repositories keyed by name.
	Observed *Collection[forge.Repository]
	// ToCreate is Desired minus Observed, sorted by name.
	ToCreate []string
}

func validateAssignment(assignment string) error {
	if strings.TrimSpace(assignment) == "" {
		return invalidInput("assignment name is empty")
	}
	if strings.ContainsAny(assignment, "/ \t\r\n") {
		return invalidInput("assignment name must not contain slashes or whitespace").WithContext("assignment", assignment)
	}
	return nil
}

// validateUsers requires a non-nil list of unique, non-empty logins.
func validateUsers(users []string) error {
	if users == nil {
		return invalidInput("users needs to be a list")
	}
	seen := make(map[string]bool, len(users))
	for _, u := range users {
		if strings.TrimSpace(u) == "" || strings.ContainsAny(u, "/ \t\r\n") {
			return invalidInput("invalid login").WithContext("login", u)
		}
		key := strings.ToLower(u)
		if seen[key] {
			return invalidInput("duplicate login").WithContext("login", u)
		}
		seen[key] = true
	}
	return nil
}

// desiredSet computes {assignment_user : user in users}.
func desiredSet(assignment string, users []string) map[string]string {
	desired := make(map[string]string, len(users))
	for _, u := range users {
		desired[RepoName(assignment, u)] = u
	}
	return desired
}

// observedRepos lists the organization repositories belonging to assignment.
func (s *Service) observedRepos(ctx context.Context, assignment string) (*Collection[forge.Repository], error) {
	prefix := Prefix(assignment)
	return fetchAll(ctx, s.remote, s.recorder, fetchSpec[forge.Repository]{
		start: s.endpoints.OrgRepos(),
		key:   func(r forge.Repository) string { return r.Name },
		keep:  func(r forge.Repository) bool { return strings.HasPrefix(r.Name, prefix) },
	})
}

// resolve validates input, fetches the observed set and computes what is missing.
func (s *Service) resolve(ctx context.Context, assignment string, users []string) (*Resolution, error) {
	if err := validateAssignment(assignment); err != nil {
		return nil, err
	}
	if err := validateUsers(users); err != nil {
		return nil, err
	}

	observed, err := s.observedRepos(ctx, assignment)
	if err != nil {
		return nil, err
	}

	desired := desiredSet(assignment, users)
	toCreate := make([]string, 0, len(desired))
	for name := range desired {
		if !observed.Has(name) {
			toCreate = append(toCreate, name)
		}
	}
	sort.Strings(toCreate)

	return &Resolution{Desired: desired, Observed: observed, ToCreate: toCreate}, nil
}
