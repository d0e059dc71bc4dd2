package testforge

import (
	"encoding/json"
	"net/http"
	"sort"

	"git.home.luguber.info/inful/assignctl/internal/permission"
)

func (tf *TestForge) routes() http.Handler {
	mux := http.NewServeMux()
	p := APIPrefix

	mux.HandleFunc("GET "+p+"/orgs/{org}/repos", tf.listOrgRepos)
	mux.HandleFunc("POST "+p+"/orgs/{org}/repos", tf.createOrgRepo)
	mux.HandleFunc("GET "+p+"/orgs/{org}/teams/{team}", tf.getTeam)
	mux.HandleFunc("GET "+p+"/orgs/{org}/teams/{team}/members", tf.listTeamMembers)
	mux.HandleFunc("GET "+p+"/orgs/{org}/teams/{team}/repos/{owner}/{repo}", tf.getTeamRepo)
	mux.HandleFunc("PUT "+p+"/orgs/{org}/teams/{team}/repos/{owner}/{repo}", tf.putTeamRepo)
	mux.HandleFunc("GET "+p+"/repos/{owner}/{repo}", tf.getRepo)
	mux.HandleFunc("DELETE "+p+"/repos/{owner}/{repo}", tf.deleteRepo)
	mux.HandleFunc("POST "+p+"/repos/{owner}/{repo}/generate", tf.generateRepo)
	mux.HandleFunc("GET "+p+"/repos/{owner}/{repo}/collaborators", tf.listCollaborators)
	mux.HandleFunc("PUT "+p+"/repos/{owner}/{repo}/collaborators/{user}", tf.putCollaborator)
	mux.HandleFunc("GET "+p+"/repos/{owner}/{repo}/teams", tf.listRepoTeams)
	mux.HandleFunc("GET "+p+"/repos/{owner}/{repo}/invitations", tf.listInvitations)

	return tf.intercept(mux)
}

type account struct {
	Login string `json:"login"`
	Type  string `json:"type"`
}

type repoPayload struct {
	ID          int64                        `json:"id"`
	Name        string                       `json:"name"`
	FullName    string                       `json:"full_name"`
	URL         string                       `json:"url"`
	Private     bool                         `json:"private"`
	IsTemplate  bool                         `json:"is_template"`
	Owner       account                      `json:"owner"`
	Permissions *permission.CapabilityVector `json:"permissions,omitempty"`
}

type teamPayload struct {
	ID              int64                        `json:"id"`
	Slug            string                       `json:"slug"`
	Name            string                       `json:"name"`
	RepositoriesURL string                       `json:"repositories_url"`
	Permission      string                       `json:"permission,omitempty"`
	Permissions     *permission.CapabilityVector `json:"permissions,omitempty"`
}

type collaboratorPayload struct {
	Login       string                      `json:"login"`
	Type        string                      `json:"type"`
	Permissions permission.CapabilityVector `json:"permissions"`
}

type invitationPayload struct {
	ID          int64   `json:"id"`
	Invitee     account `json:"invitee"`
	Permissions string  `json:"permissions"`
}

// invitationPermission is the invitation API's name for a level.
func invitationPermission(l permission.Level) string {
	switch l {
	case permission.Pull:
		return "read"
	case permission.Push:
		return "write"
	default:
		return string(l)
	}
}

type createBody struct {
	Name    string `json:"name"`
	Owner   string `json:"owner"`
	Private bool   `json:"private"`
	TeamID  int64  `json:"team_id"`
}

type permissionBody struct {
	Permission string `json:"permission"`
}

func (tf *TestForge) repoPayloadLocked(r *http.Request, rs *repoState) repoPayload {
	return repoPayload{
		ID:         rs.id,
		Name:       rs.name,
		FullName:   tf.org + "/" + rs.name,
		URL:        tf.baseURL(r) + "/repos/" + tf.org + "/" + rs.name,
		Private:    rs.private,
		IsTemplate: rs.template,
		Owner:      account{Login: tf.org, Type: "Organization"},
	}
}

func (tf *TestForge) teamPayload(r *http.Request, ts *teamState) teamPayload {
	return teamPayload{
		ID:              ts.id,
		Slug:            ts.slug,
		Name:            ts.slug,
		RepositoriesURL: tf.baseURL(r) + "/orgs/" + tf.org + "/teams/" + ts.slug + "/repos",
	}
}

// collaboratorVector mirrors the server: push implies triage, admin implies maintain.
func collaboratorVector(l permission.Level) permission.CapabilityVector {
	v, _ := permission.LevelToMatrix(l)
	v.Triage = v.Push
	v.Maintain = v.Admin
	return v
}

func teamVector(l permission.Level) *permission.CapabilityVector {
	v, _ := permission.LevelToMatrix(l)
	return &v
}

// orgRepo looks up an organization repository addressed by owner/repo.
func (tf *TestForge) orgRepoLocked(r *http.Request) (*repoState, bool) {
	if r.PathValue("owner") != tf.org {
		return nil, false
	}
	rs, ok := tf.repos[r.PathValue("repo")]
	return rs, ok
}

func (tf *TestForge) listOrgRepos(w http.ResponseWriter, r *http.Request) {
	tf.mu.Lock()
	if r.PathValue("org") != tf.org {
		tf.mu.Unlock()
		notFound(w)
		return
	}
	items := make([]repoPayload, 0, len(tf.repoOrder))
	for _, name := range tf.repoOrder {
		items = append(items, tf.repoPayloadLocked(r, tf.repos[name]))
	}
	size := tf.pageSize
	tf.mu.Unlock()
	paginate(w, r, size, items)
}

func (tf *TestForge) createOrgRepo(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "name is required"})
		return
	}

	tf.mu.Lock()
	defer tf.mu.Unlock()
	if r.PathValue("org") != tf.org {
		notFound(w)
		return
	}
	if _, exists := tf.repos[body.Name]; exists {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "name already exists on this account"})
		return
	}
	rs := tf.addRepoLocked(body.Name)
	rs.private = body.Private
	if body.TeamID != 0 {
		for _, ts := range tf.teams {
			if ts.id == body.TeamID {
				rs.teams[ts.slug] = permission.Pull
			}
		}
	}
	writeJSON(w, http.StatusCreated, tf.repoPayloadLocked(r, rs))
}

func (tf *TestForge) getTeam(w http.ResponseWriter, r *http.Request) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	ts, ok := tf.teams[r.PathValue("team")]
	if !ok || r.PathValue("org") != tf.org {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, tf.teamPayload(r, ts))
}

func (tf *TestForge) listTeamMembers(w http.ResponseWriter, r *http.Request) {
	tf.mu.Lock()
	ts, ok := tf.teams[r.PathValue("team")]
	if !ok || r.PathValue("org") != tf.org {
		tf.mu.Unlock()
		notFound(w)
		return
	}
	items := make([]account, 0, len(ts.members))
	for _, m := range ts.members {
		items = append(items, account(m))
	}
	size := tf.pageSize
	tf.mu.Unlock()
	paginate(w, r, size, items)
}

func (tf *TestForge) getTeamRepo(w http.ResponseWriter, r *http.Request) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	_, teamOK := tf.teams[r.PathValue("team")]
	rs, repoOK := tf.orgRepoLocked(r)
	if !teamOK || !repoOK {
		notFound(w)
		return
	}
	level, granted := rs.teams[r.PathValue("team")]
	if !granted {
		notFound(w)
		return
	}
	payload := tf.repoPayloadLocked(r, rs)
	payload.Permissions = teamVector(level)
	writeJSON(w, http.StatusOK, payload)
}

func (tf *TestForge) putTeamRepo(w http.ResponseWriter, r *http.Request) {
	var body permissionBody
	_ = json.NewDecoder(r.Body).Decode(&body)
	level, err := permission.ParseLevel(body.Permission)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "invalid permission"})
		return
	}

	tf.mu.Lock()
	defer tf.mu.Unlock()
	_, teamOK := tf.teams[r.PathValue("team")]
	rs, repoOK := tf.orgRepoLocked(r)
	if !teamOK || !repoOK {
		notFound(w)
		return
	}
	rs.teams[r.PathValue("team")] = level
	w.WriteHeader(http.StatusNoContent)
}

func (tf *TestForge) getRepo(w http.ResponseWriter, r *http.Request) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	if rs, ok := tf.orgRepoLocked(r); ok {
		writeJSON(w, http.StatusOK, tf.repoPayloadLocked(r, rs))
		return
	}
	full := r.PathValue("owner") + "/" + r.PathValue("repo")
	isTemplate, ok := tf.templates[full]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, repoPayload{
		Name:       r.PathValue("repo"),
		FullName:   full,
		URL:        tf.baseURL(r) + "/repos/" + full,
		IsTemplate: isTemplate,
		Owner:      account{Login: r.PathValue("owner"), Type: "Organization"},
	})
}

func (tf *TestForge) deleteRepo(w http.ResponseWriter, r *http.Request) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	rs, ok := tf.orgRepoLocked(r)
	if !ok {
		notFound(w)
		return
	}
	delete(tf.repos, rs.name)
	for i, n := range tf.repoOrder {
		if n == rs.name {
			tf.repoOrder = append(tf.repoOrder[:i], tf.repoOrder[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (tf *TestForge) generateRepo(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "name is required"})
		return
	}
	if body.TeamID != 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "team_id is not supported for template generation"})
		return
	}

	tf.mu.Lock()
	defer tf.mu.Unlock()
	full := r.PathValue("owner") + "/" + r.PathValue("repo")
	if !tf.templates[full] {
		notFound(w)
		return
	}
	if body.Owner != tf.org {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "unknown owner"})
		return
	}
	if _, exists := tf.repos[body.Name]; exists {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "name already exists on this account"})
		return
	}
	rs := tf.addRepoLocked(body.Name)
	rs.private = body.Private
	writeJSON(w, http.StatusCreated, tf.repoPayloadLocked(r, rs))
}

func (tf *TestForge) listCollaborators(w http.ResponseWriter, r *http.Request) {
	tf.mu.Lock()
	rs, ok := tf.orgRepoLocked(r)
	if !ok {
		tf.mu.Unlock()
		notFound(w)
		return
	}
	items := make([]collaboratorPayload, 0, len(rs.collabOrder))
	for _, login := range rs.collabOrder {
		items = append(items, collaboratorPayload{
			Login:       login,
			Type:        "User",
			Permissions: collaboratorVector(rs.collaborators[login]),
		})
	}
	size := tf.pageSize
	tf.mu.Unlock()
	paginate(w, r, size, items)
}

func (tf *TestForge) putCollaborator(w http.ResponseWriter, r *http.Request) {
	var body permissionBody
	_ = json.NewDecoder(r.Body).Decode(&body)
	level, err := permission.ParseLevel(body.Permission)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "invalid permission"})
		return
	}

	tf.mu.Lock()
	defer tf.mu.Unlock()
	rs, ok := tf.orgRepoLocked(r)
	if !ok {
		notFound(w)
		return
	}
	login := r.PathValue("user")
	if _, ok := rs.collaborators[login]; ok {
		rs.collaborators[login] = level
		w.WriteHeader(http.StatusNoContent)
		return
	}
	// Anyone else gets a pending invitation and is not listed as a
	// collaborator until it is accepted.
	inv := tf.inviteLocked(rs, login, level)
	writeJSON(w, http.StatusCreated, invitationPayload{
		ID:          inv.id,
		Invitee:     account{Login: login, Type: "User"},
		Permissions: invitationPermission(level),
	})
}

func (tf *TestForge) listInvitations(w http.ResponseWriter, r *http.Request) {
	tf.mu.Lock()
	rs, ok := tf.orgRepoLocked(r)
	if !ok {
		tf.mu.Unlock()
		notFound(w)
		return
	}
	items := make([]invitationPayload, 0, len(rs.invitations))
	for _, inv := range rs.invitations {
		items = append(items, invitationPayload{
			ID:          inv.id,
			Invitee:     account{Login: inv.login, Type: "User"},
			Permissions: invitationPermission(inv.level),
		})
	}
	size := tf.pageSize
	tf.mu.Unlock()
	paginate(w, r, size, items)
}

func (tf *TestForge) listRepoTeams(w http.ResponseWriter, r *http.Request) {
	tf.mu.Lock()
	rs, ok := tf.orgRepoLocked(r)
	if !ok {
		tf.mu.Unlock()
		notFound(w)
		return
	}
	slugs := make([]string, 0, len(rs.teams))
	for slug := range rs.teams {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	items := make([]teamPayload, 0, len(slugs))
	for _, slug := range slugs {
		level := rs.teams[slug]
		var p teamPayload
		if ts, ok := tf.teams[slug]; ok {
			p = tf.teamPayload(r, ts)
		} else {
			p = teamPayload{Slug: slug, Name: slug}
		}
		p.Permission = string(level)
		p.Permissions = teamVector(level)
		items = append(items, p)
	}
	size := tf.pageSize
	tf.mu.Unlock()
	paginate(w, r, size, items)
}
