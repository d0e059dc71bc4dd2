package forge

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoints builds API paths relative to the API root for one organization.
type Endpoints struct {
	org string
}

// NewEndpoints returns the endpoint builder for org.
func NewEndpoints(org string) Endpoints { return Endpoints{org: org} }

// Org returns the organization the endpoints are scoped to.
func (e Endpoints) Org() string { return e.org }

// OrgRepos lists (GET) or creates (POST) organization repositories.
func (e Endpoints) OrgRepos() string {
	return fmt.Sprintf("/orgs/%s/repos", url.PathEscape(e.org))
}

// TeamMembers lists the members of a team.
func (e Endpoints) TeamMembers(team string) string {
	return fmt.Sprintf("/orgs/%s/teams/%s/members", url.PathEscape(e.org), url.PathEscape(team))
}

// Team addresses a team by slug.
func (e Endpoints) Team(slug string) string {
	return fmt.Sprintf("/orgs/%s/teams/%s", url.PathEscape(e.org), url.PathEscape(slug))
}

// TeamRepo addresses a team's permission on one repository. It is used when a
// team object did not carry its repositories_url.
func (e Endpoints) TeamRepo(slug, fullName string) string {
	return fmt.Sprintf("%s/repos/%s", e.Team(slug), escapeFullName(fullName))
}

// Repo addresses a repository by full name.
func (e Endpoints) Repo(fullName string) string {
	return "/repos/" + escapeFullName(fullName)
}

// Generate creates a repository from a template repository.
func (e Endpoints) Generate(template string) string {
	return e.Repo(template) + "/generate"
}

// DirectCollaborators lists the direct collaborators of a repository.
func (e Endpoints) DirectCollaborators(fullName string) string {
	return e.Repo(fullName) + "/collaborators?affiliation=direct"
}

// Collaborator addresses one collaborator of a repository.
func (e Endpoints) Collaborator(fullName, login string) string {
	return e.Repo(fullName) + "/collaborators/" + url.PathEscape(login)
}

// Invitations lists the pending invitations of a repository.
func (e Endpoints) Invitations(fullName string) string {
	return e.Repo(fullName) + "/invitations"
}

// RepoTeams lists the teams with access to a repository.
func (e Endpoints) RepoTeams(fullName string) string {
	return e.Repo(fullName) + "/teams"
}

// TeamRepoFromCollection joins a team's repositories_url with a full name.
func TeamRepoFromCollection(repositoriesURL, fullName string) string {
	return strings.TrimSuffix(repositoriesURL, "/") + "/" + escapeFullName(fullName)
}

// CollaboratorFromRepoURL joins a repository resource URL with a login.
func CollaboratorFromRepoURL(repoURL, login string) string {
	return strings.TrimSuffix(repoURL, "/") + "/collaborators/" + url.PathEscape(login)
}

func escapeFullName(fullName string) string {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok {
		return url.PathEscape(fullName)
	}
	return url.PathEscape(owner) + "/" + url.PathEscape(name)
}
