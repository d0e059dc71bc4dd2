package forge

import "git.home.luguber.info/inful/assignctl/internal/permission"

// Account is a user or organization as embedded in API payloads.
type Account struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Type  string `json:"type"`
}

// Repository is the subset of the repository resource assignctl reads.
type Repository struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	FullName   string  `json:"full_name"`
	URL        string  `json:"url"`
	Private    bool    `json:"private"`
	IsTemplate bool    `json:"is_template"`
	Owner      Account `json:"owner"`

	// Permissions is only populated on team-scoped repository reads.
	Permissions *permission.CapabilityVector `json:"permissions,omitempty"`
}

// Team is the subset of the team resource assignctl reads.
type Team struct {
	ID              int64  `json:"id"`
	Slug            string `json:"slug"`
	Name            string `json:"name"`
	RepositoriesURL string `json:"repositories_url"`

	// Permission and Permissions are present when a team is listed in the
	// context of a repository.
	Permission  string                       `json:"permission,omitempty"`
	Permissions *permission.CapabilityVector `json:"permissions,omitempty"`
}

// Collaborator is a direct repository collaborator.
type Collaborator struct {
	Login       string                       `json:"login"`
	Type        string                       `json:"type"`
	Permissions *permission.CapabilityVector `json:"permissions,omitempty"`
}

// Invitation is a pending repository invitation. A collaborator added with a
// 201 response only appears in the collaborator list once it is accepted.
type Invitation struct {
	ID          int64   `json:"id"`
	Invitee     Account `json:"invitee"`
	Permissions string  `json:"permissions"`
}

// Member is a team member entry.
type Member struct {
	Login string `json:"login"`
	Type  string `json:"type"`
}

// CreateRepositoryRequest is the body for both plain and template-based creation.
// TeamID must stay zero for template generation, which rejects it.
type CreateRepositoryRequest struct {
	Name    string `json:"name"`
	Owner   string `json:"owner,omitempty"`
	Private bool   `json:"private"`
	TeamID  int64  `json:"team_id,omitempty"`
}

// PermissionRequest sets a collaborator or team permission.
type PermissionRequest struct {
	Permission permission.Level `json:"permission"`
}
