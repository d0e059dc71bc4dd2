package assignment

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/assignctl/internal/forge"
	"git.home.luguber.info/inful/assignctl/internal/foundation/errors"
	"git.home.luguber.info/inful/assignctl/internal/logfields"
	"git.home.luguber.info/inful/assignctl/internal/permission"
)

// Pass names reported to observers.
const (
	PassCollaborators = "collaborators"
	PassTeams         = "teams"
	PassStaff         = "staff"
	PassAdmin         = "admin"
)

// DesiredLevels holds the requested level per principal class. An unset
// level skips that class entirely.
type DesiredLevels struct {
	Collaborators permission.Level
	Teams         permission.Level
	Staff         permission.Level
	Admin         permission.Level
}

// Validate rejects any set level outside pull, push and admin.
func (d DesiredLevels) Validate() error {
	for _, l := range []permission.Level{d.Collaborators, d.Teams, d.Staff, d.Admin} {
		if !l.IsSet() {
			continue
		}
		if err := l.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Empty reports whether no class is requested.
func (d DesiredLevels) Empty() bool {
	return !d.Collaborators.IsSet() && !d.Teams.IsSet() && !d.Staff.IsSet() && !d.Admin.IsSet()
}

// SyncPerms brings every existing repository of assignment to the desired
// levels and returns the mutations it applied (or, in a dry run, would apply).
// A second run against unchanged state returns no mutations.
func (s *Service) SyncPerms(ctx context.Context, assignment string, desired DesiredLevels) (mutations []Mutation, err error) {
	r := s.begin(ctx, OpSync, assignment)
	defer func(start time.Time) { r.finish(ctx, start, err) }(time.Now())

	if err := desired.Validate(); err != nil {
		return nil, err
	}
	if err := validateAssignment(assignment); err != nil {
		return nil, err
	}
	if desired.Empty() {
		r.log.Info("No principal class requested; nothing to reconcile")
		return []Mutation{}, nil
	}

	// Privileged teams must exist before anything is read per repository.
	var staff, admin *forge.Team
	if desired.Staff.IsSet() {
		if staff, err = r.requiredTeam(ctx, s.privileged.Staff); err != nil {
			return nil, err
		}
	}
	if desired.Admin.IsSet() {
		if admin, err = r.requiredTeam(ctx, s.privileged.Admin); err != nil {
			return nil, err
		}
	}

	observed, err := s.observedRepos(ctx, assignment)
	if err != nil {
		return nil, err
	}
	repos := observed.Values()
	r.log.Info("Reconciling assignment repositories", logfields.Count(len(repos)))

	if desired.Collaborators.IsSet() {
		if err := r.collaboratorPass(ctx, repos, desired.Collaborators); err != nil {
			return nil, err
		}
	}
	if desired.Teams.IsSet() {
		if err := r.teamPass(ctx, repos, desired.Teams); err != nil {
			return nil, err
		}
	}
	if staff != nil {
		if err := r.privilegedPass(ctx, PassStaff, repos, staff, desired.Staff); err != nil {
			return nil, err
		}
	}
	if admin != nil {
		if err := r.privilegedPass(ctx, PassAdmin, repos, admin, desired.Admin); err != nil {
			return nil, err
		}
	}

	mutations = r.gate.Planned()
	if mutations == nil {
		mutations = []Mutation{}
	}
	return mutations, nil
}

// collaboratorPass compares every direct collaborator using the 3-key vector
// and adds the student owner when they are missing altogether.
func (r *run) collaboratorPass(ctx context.Context, repos []forge.Repository, level permission.Level) error {
	want, err := permission.LevelToMatrix(level)
	if err != nil {
		return err
	}
	want = want.Collaborator()

	for i, repo := range repos {
		r.progress(PassCollaborators, repo.FullName, i+1, len(repos))

		collabs, err := fetchAll(ctx, r.remote, r.recorder, fetchSpec[forge.Collaborator]{
			start:         r.repoTarget(repo, "/collaborators?affiliation=direct", r.endpoints.DirectCollaborators(repo.FullName)),
			key:           func(c forge.Collaborator) string { return c.Login },
			notFoundEmpty: true,
		})
		if err != nil {
			return rewrap(ErrReconcileReadFailed, err).WithContext("repository", repo.FullName)
		}

		for _, c := range collabs.Values() {
			var have permission.CapabilityVector
			if c.Permissions != nil {
				have = c.Permissions.Collaborator()
			}
			if have == want {
				continue
			}
			m := Mutation{Kind: KindSetCollaborator, Repository: repo.FullName, Principal: c.Login, Class: ClassCollaborator, Level: level, Previous: permission.Describe(c.Permissions)}
			target := r.collaboratorTarget(repo, c.Login)
			if err := r.gate.Submit(ctx, m, func(ctx context.Context) error {
				return r.putPermission(ctx, target, level, ErrReconcileWriteFailed, repo.FullName, http.StatusCreated, http.StatusNoContent)
			}); err != nil {
				return err
			}
		}

		owner, ok := OwnerLogin(r.assignment, repo.Name)
		if !ok || hasLogin(collabs, owner) {
			continue
		}
		invited, err := r.ownerInvited(ctx, repo, owner)
		if err != nil {
			return err
		}
		if invited {
			r.log.Debug("Owner invitation pending", logfields.Repository(repo.FullName), logfields.Principal(owner))
			continue
		}
		m := Mutation{Kind: KindAddCollaborator, Repository: repo.FullName, Principal: owner, Class: ClassCollaborator, Level: level, Previous: "none"}
		target := r.collaboratorTarget(repo, owner)
		if err := r.gate.Submit(ctx, m, func(ctx context.Context) error {
			return r.putPermission(ctx, target, level, ErrReconcileWriteFailed, repo.FullName, http.StatusCreated, http.StatusNoContent)
		}); err != nil {
			return err
		}
	}
	return nil
}

// ownerInvited reports whether login holds a pending invitation to repo. An
// invited owner is not listed as a collaborator until they accept.
func (r *run) ownerInvited(ctx context.Context, repo forge.Repository, login string) (bool, error) {
	invitations, err := fetchAll(ctx, r.remote, r.recorder, fetchSpec[forge.Invitation]{
		start:         r.repoTarget(repo, "/invitations", r.endpoints.Invitations(repo.FullName)),
		key:           func(i forge.Invitation) string { return strconv.FormatInt(i.ID, 10) },
		notFoundEmpty: true,
	})
	if err != nil {
		return false, rewrap(ErrReconcileReadFailed, err).WithContext("repository", repo.FullName)
	}
	for _, inv := range invitations.Values() {
		if strings.EqualFold(inv.Invitee.Login, login) {
			return true, nil
		}
	}
	return false, nil
}

// teamPass reconciles the teams already granted on each repository, skipping
// the privileged teams which have their own passes.
func (r *run) teamPass(ctx context.Context, repos []forge.Repository, level permission.Level) error {
	want, err := permission.LevelToMatrix(level)
	if err != nil {
		return err
	}

	for i, repo := range repos {
		r.progress(PassTeams, repo.FullName, i+1, len(repos))

		teams, err := fetchAll(ctx, r.remote, r.recorder, fetchSpec[forge.Team]{
			start:         r.repoTarget(repo, "/teams", r.endpoints.RepoTeams(repo.FullName)),
			key:           func(t forge.Team) string { return t.Slug },
			keep:          func(t forge.Team) bool { return !r.privileged.contains(t.Slug) },
			notFoundEmpty: true,
		})
		if err != nil {
			return rewrap(ErrReconcileReadFailed, err).WithContext("repository", repo.FullName)
		}

		for _, t := range teams.Values() {
			have := teamVector(t)
			if have != nil && *have == want {
				continue
			}
			m := Mutation{Kind: KindSetTeam, Repository: repo.FullName, Principal: t.Slug, Class: ClassTeam, Level: level, Previous: permission.Describe(have)}
			target := r.endpoints.TeamRepo(t.Slug, repo.FullName)
			if err := r.gate.Submit(ctx, m, func(ctx context.Context) error {
				return r.putPermission(ctx, target, level, ErrReconcileWriteFailed, repo.FullName, http.StatusNoContent)
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// privilegedPass reads the single team-to-repository permission object; a 404
// means the team holds no permission and is corrected like any mismatch.
func (r *run) privilegedPass(ctx context.Context, pass string, repos []forge.Repository, team *forge.Team, level permission.Level) error {
	want, err := permission.LevelToMatrix(level)
	if err != nil {
		return err
	}

	for i, repo := range repos {
		r.progress(pass, repo.FullName, i+1, len(repos))

		target := r.endpoints.TeamRepo(team.Slug, repo.FullName)
		if team.RepositoriesURL != "" {
			target = forge.TeamRepoFromCollection(team.RepositoriesURL, repo.FullName)
		}

		have, rerr := r.teamRepoPermission(ctx, target)
		if rerr != nil {
			return rerr.WithContext("repository", repo.FullName).WithContext("team", team.Slug)
		}
		if have != nil && *have == want {
			continue
		}

		m := Mutation{Kind: KindSetTeam, Repository: repo.FullName, Principal: team.Slug, Class: ClassPrivilegedTeam, Level: level, Previous: permission.Describe(have)}
		if err := r.gate.Submit(ctx, m, func(ctx context.Context) error {
			return r.putPermission(ctx, target, level, ErrReconcileWriteFailed, repo.FullName, http.StatusNoContent)
		}); err != nil {
			return err
		}
	}
	return nil
}

// teamRepoPermission returns nil when the team has no permission on the repository.
// Only 200 and 404 are expected; the repository media type makes a granted
// team answer with a body, so a bare 204 is a read failure.
func (r *run) teamRepoPermission(ctx context.Context, target string) (*permission.CapabilityVector, *errors.ClassifiedError) {
	resp, err := r.remote.Get(ctx, target, forge.WithAccept(forge.MediaTypeRepositoryObject))
	if err != nil {
		return nil, rewrap(ErrReconcileReadFailed, err).WithContext("url", target)
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, ErrReconcileReadFailed.
			WithContext("url", resp.URL).
			WithContext("status", resp.StatusCode).
			WithContext("response", resp.Snippet())
	}

	var repo forge.Repository
	if err := resp.Decode(&repo); err != nil {
		return nil, rewrap(ErrReconcileReadFailed, err)
	}
	if repo.Permissions == nil {
		return &permission.CapabilityVector{}, nil
	}
	return repo.Permissions, nil
}

// putPermission sets level on target and accepts only the listed statuses.
func (r *run) putPermission(ctx context.Context, target string, level permission.Level, failure *errors.ClassifiedError, repo string, accept ...int) error {
	resp, err := r.remote.Put(ctx, target, forge.PermissionRequest{Permission: level})
	if err != nil {
		return rewrap(failure, err).WithContext("repository", repo)
	}
	if !slices.Contains(accept, resp.StatusCode) {
		return failure.
			WithContext("repository", repo).
			WithContext("url", resp.URL).
			WithContext("status", resp.StatusCode).
			WithContext("response", resp.Snippet())
	}
	return nil
}

// repoTarget prefers the repository's own resource URL over a rebuilt path.
func (r *run) repoTarget(repo forge.Repository, suffix, fallback string) string {
	if repo.URL != "" {
		return repo.URL + suffix
	}
	return fallback
}

func (r *run) collaboratorTarget(repo forge.Repository, login string) string {
	if repo.URL != "" {
		return forge.CollaboratorFromRepoURL(repo.URL, login)
	}
	return r.endpoints.Collaborator(repo.FullName, login)
}

// teamVector returns the 5-key vector of a team listed on a repository. Older
// servers only report the level name.
func teamVector(t forge.Team) *permission.CapabilityVector {
	if t.Permissions != nil {
		return t.Permissions
	}
	if t.Permission == "" {
		return nil
	}
	level, err := permission.ParseLevel(t.Permission)
	if err != nil {
		return nil
	}
	v, _ := permission.LevelToMatrix(level)
	return &v
}

func hasLogin(c *Collection[forge.Collaborator], login string) bool {
	for _, k := range c.Keys() {
		if strings.EqualFold(k, login) {
			return true
		}
	}
	return false
}
