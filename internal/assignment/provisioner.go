package assignment

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/assignctl/internal/forge"
	"git.home.luguber.info/inful/assignctl/internal/logfields"
	"git.home.luguber.info/inful/assignctl/internal/permission"
)

// CreateOptions tunes CreateRepos.
type CreateOptions struct {
	// Template is an optional "owner/name" template repository.
	Template string
	// Level is the collaborator level granted to each student; defaults to pull.
	Level permission.Level
}

func (o CreateOptions) level() permission.Level {
	if !o.Level.IsSet() {
		return permission.Default
	}
	return o.Level
}

func validateTemplate(template string) error {
	if template == "" {
		return nil
	}
	owner, name, ok := strings.Cut(template, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return ErrInvalidTemplate.WithContext("template", template).WithContext("reason", "expected owner/name")
	}
	return nil
}

// CreateRepos creates the missing repositories of assignment, one per user,
// and adds each user as a collaborator. It returns the names it created (or,
// in a dry run, would create). Repositories that already exist are untouched.
func (s *Service) CreateRepos(ctx context.Context, assignment string, users []string, opts CreateOptions) (created []string, err error) {
	r := s.begin(ctx, OpCreate, assignment)
	defer func(start time.Time) { r.finish(ctx, start, err) }(time.Now())

	level := opts.level()
	if err := level.Validate(); err != nil {
		return nil, err
	}
	if err := validateTemplate(opts.Template); err != nil {
		return nil, err
	}
	if err := validateAssignment(assignment); err != nil {
		return nil, err
	}
	if err := validateUsers(users); err != nil {
		return nil, err
	}

	staff, err := r.requiredTeam(ctx, s.privileged.Staff)
	if err != nil {
		return nil, err
	}
	if opts.Template != "" {
		if err := r.checkTemplate(ctx, opts.Template); err != nil {
			return nil, err
		}
	}

	res, err := s.resolve(ctx, assignment, users)
	if err != nil {
		return nil, err
	}
	r.log.Info("Resolved assignment repositories",
		slog.Int("desired", len(res.Desired)), slog.Int("observed", res.Observed.Len()), slog.Int("missing", len(res.ToCreate)))

	for i, name := range res.ToCreate {
		r.progress(OpCreate, name, i+1, len(res.ToCreate))
		if err := r.provisionOne(ctx, name, res.Desired[name], staff, opts.Template, level); err != nil {
			return nil, err
		}
	}
	return res.ToCreate, nil
}

// requiredTeam fetches a team that must already exist.
func (r *run) requiredTeam(ctx context.Context, slug string) (*forge.Team, error) {
	target := r.endpoints.Team(slug)
	resp, err := r.remote.Get(ctx, target)
	if err != nil {
		return nil, rewrap(ErrFetchFailed, err).WithContext("url", target)
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrMissingRequiredTeam.WithContext("team", slug).WithContext("url", resp.URL)
	default:
		return nil, ErrFetchFailed.
			WithContext("url", resp.URL).
			WithContext("status", resp.StatusCode).
			WithContext("response", resp.Snippet())
	}

	var team forge.Team
	if err := resp.Decode(&team); err != nil {
		return nil, rewrap(ErrFetchFailed, err)
	}
	if team.Slug == "" {
		team.Slug = slug
	}
	return &team, nil
}

func (r *run) checkTemplate(ctx context.Context, template string) error {
	resp, err := r.remote.Get(ctx, r.endpoints.Repo(template), forge.WithAccept(forge.MediaTypeTemplatePreview))
	if err != nil {
		return rewrap(ErrFetchFailed, err).WithContext("template", template)
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrInvalidTemplate.WithContext("template", template).WithContext("reason", "not found")
	default:
		return ErrFetchFailed.
			WithContext("url", resp.URL).
			WithContext("status", resp.StatusCode).
			WithContext("response", resp.Snippet())
	}

	var repo forge.Repository
	if err := resp.Decode(&repo); err != nil {
		return rewrap(ErrFetchFailed, err)
	}
	if !repo.IsTemplate {
		return ErrInvalidTemplate.WithContext("template", template).WithContext("reason", "not marked as template")
	}
	return nil
}

// provisionOne creates one repository and grants its student access. The two
// steps are not atomic; a repository left without its collaborator is picked
// up by the collaborator pass of the next sync.
func (r *run) provisionOne(ctx context.Context, name, login string, staff *forge.Team, template string, level permission.Level) error {
	fullName := r.Org() + "/" + name
	repoURL := ""

	create := Mutation{Kind: KindCreateRepository, Repository: fullName, Template: template}
	err := r.gate.Submit(ctx, create, func(ctx context.Context) error {
		target := r.endpoints.OrgRepos()
		body := forge.CreateRepositoryRequest{Name: name, Owner: r.Org(), Private: true, TeamID: staff.ID}
		var opts []forge.RequestOption
		if template != "" {
			// Template generation rejects team_id.
			target = r.endpoints.Generate(template)
			body.TeamID = 0
			opts = append(opts, forge.WithAccept(forge.MediaTypeTemplatePreview))
		}

		resp, err := r.remote.Post(ctx, target, body, opts...)
		if err != nil {
			return rewrap(ErrProvisionFailed, err).WithContext("repository", fullName)
		}
		if resp.StatusCode != http.StatusCreated {
			return ErrProvisionFailed.
				WithContext("repository", fullName).
				WithContext("url", resp.URL).
				WithContext("status", resp.StatusCode).
				WithContext("response", resp.Snippet())
		}
		var repo forge.Repository
		if err := resp.Decode(&repo); err != nil {
			return rewrap(ErrProvisionFailed, err).WithContext("repository", fullName)
		}
		repoURL = repo.URL
		r.log.Debug("Repository created", logfields.Repository(fullName), logfields.URL(repo.URL))
		return nil
	})
	if err != nil {
		return err
	}

	target := r.endpoints.Collaborator(fullName, login)
	if repoURL != "" {
		target = forge.CollaboratorFromRepoURL(repoURL, login)
	}
	add := Mutation{Kind: KindAddCollaborator, Repository: fullName, Principal: login, Class: ClassCollaborator, Level: level, Previous: "none"}
	return r.gate.Submit(ctx, add, func(ctx context.Context) error {
		return r.putPermission(ctx, target, level, ErrProvisionFailed, fullName, http.StatusCreated, http.StatusNoContent)
	})
}
