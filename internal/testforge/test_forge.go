// Package testforge provides an in-process fake GitHub Enterprise API for tests.
package testforge

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/assignctl/internal/permission"
)

// APIPrefix is the path under which the fake serves the v3 API.
const APIPrefix = "/api/v3"

// FailMode defines how the test forge should behave for every request.
type FailMode int

const (
	FailModeNone FailMode = iota
	FailModeAuth
	FailModeRateLimit
	FailModeServerError
)

// Request is one recorded API call.
type Request struct {
	Method string
	// Path is relative to APIPrefix and includes the raw query, if any.
	Path string
	Body string
}

type repoState struct {
	id            int64
	name          string
	private       bool
	template      bool
	collabOrder   []string
	collaborators map[string]permission.Level
	invitations   []*invitationState
	teams         map[string]permission.Level
}

type invitationState struct {
	id    int64
	login string
	level permission.Level
}

type teamState struct {
	id      int64
	slug    string
	members []Member
}

// Member is a team member entry served by the fake.
type Member struct {
	Login string
	Type  string
}

type failure struct {
	method string
	target string
	status int
	left   int // <0 means unlimited
}

// TestForge is a stateful fake of the GitHub Enterprise endpoints assignctl uses.
// Repositories live in one organization; templates may live elsewhere.
type TestForge struct {
	mu sync.Mutex

	org      string
	server   *httptest.Server
	pageSize int
	failMode FailMode
	delay    time.Duration
	nextID   int64

	repoOrder []string
	repos     map[string]*repoState
	teams     map[string]*teamState
	templates map[string]bool

	failures []*failure
	requests []Request
}

// NewTestForge starts a fake for org. Call Close when done.
func NewTestForge(org string) *TestForge {
	tf := &TestForge{
		org:       org,
		pageSize:  30,
		nextID:    1000,
		repos:     make(map[string]*repoState),
		teams:     make(map[string]*teamState),
		templates: make(map[string]bool),
	}
	tf.server = httptest.NewServer(tf.routes())
	return tf
}

// Close shuts the server down.
func (tf *TestForge) Close() { tf.server.Close() }

// APIURL is the base URL to hand to forge.NewClient.
func (tf *TestForge) APIURL() string { return tf.server.URL + APIPrefix }

// Org returns the organization served.
func (tf *TestForge) Org() string { return tf.org }

// SetPageSize sets the number of items per page for every listing.
func (tf *TestForge) SetPageSize(n int) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	if n < 1 {
		n = 1
	}
	tf.pageSize = n
}

// SetFailMode configures how the test forge should fail
func (tf *TestForge) SetFailMode(mode FailMode) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	tf.failMode = mode
}

// SetDelay adds artificial delay to simulate network latency
func (tf *TestForge) SetDelay(delay time.Duration) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	tf.delay = delay
}

// FailOn makes requests matching method and target answer with status.
// target is a path relative to APIPrefix; when it contains a query the raw
// query must match too. times < 0 fails every matching request.
func (tf *TestForge) FailOn(method, target string, status, times int) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	tf.failures = append(tf.failures, &failure{method: method, target: target, status: status, left: times})
}

// AddTeam registers a team with User-type members.
func (tf *TestForge) AddTeam(slug string, members ...string) int64 {
	ms := make([]Member, 0, len(members))
	for _, m := range members {
		ms = append(ms, Member{Login: m, Type: "User"})
	}
	return tf.AddTeamMembers(slug, ms...)
}

// AddTeamMembers registers a team with explicit member entries.
func (tf *TestForge) AddTeamMembers(slug string, members ...Member) int64 {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	tf.nextID++
	tf.teams[slug] = &teamState{id: tf.nextID, slug: slug, members: members}
	return tf.nextID
}

// AddRepository creates an organization repository directly.
func (tf *TestForge) AddRepository(name string) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	tf.addRepoLocked(name)
}

// AddTemplate registers fullName as a repository; isTemplate sets its flag.
func (tf *TestForge) AddTemplate(fullName string, isTemplate bool) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	tf.templates[fullName] = isTemplate
}

// ClearRepositories removes all repositories
func (tf *TestForge) ClearRepositories() {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	tf.repos = make(map[string]*repoState)
	tf.repoOrder = nil
}

// SetCollaborator grants login level on repository name.
func (tf *TestForge) SetCollaborator(name, login string, level permission.Level) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	if r, ok := tf.repos[name]; ok {
		r.setCollaborator(login, level)
	}
}

// SetTeamPermission grants team slug level on repository name.
func (tf *TestForge) SetTeamPermission(slug, name string, level permission.Level) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	if r, ok := tf.repos[name]; ok {
		r.teams[slug] = level
	}
}

// RepositoryNames returns every repository name, sorted.
func (tf *TestForge) RepositoryNames() []string {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	out := append([]string(nil), tf.repoOrder...)
	sort.Strings(out)
	return out
}

// Collaborators returns the direct collaborators of a repository.
func (tf *TestForge) Collaborators(name string) map[string]permission.Level {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	out := map[string]permission.Level{}
	if r, ok := tf.repos[name]; ok {
		for k, v := range r.collaborators {
			out[k] = v
		}
	}
	return out
}

// Invitations returns the pending invitations of a repository by login.
func (tf *TestForge) Invitations(name string) map[string]permission.Level {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	out := map[string]permission.Level{}
	if r, ok := tf.repos[name]; ok {
		for _, inv := range r.invitations {
			out[inv.login] = inv.level
		}
	}
	return out
}

// AcceptInvitations turns every pending invitation into a direct collaborator.
func (tf *TestForge) AcceptInvitations() {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	for _, r := range tf.repos {
		for _, inv := range r.invitations {
			r.setCollaborator(inv.login, inv.level)
		}
		r.invitations = nil
	}
}

// TeamPermission returns a team's level on a repository.
func (tf *TestForge) TeamPermission(slug, name string) (permission.Level, bool) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	r, ok := tf.repos[name]
	if !ok {
		return "", false
	}
	l, ok := r.teams[slug]
	return l, ok
}

// Requests returns every recorded request in arrival order.
func (tf *TestForge) Requests() []Request {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	return append([]Request(nil), tf.requests...)
}

// Writes returns the recorded non-GET requests.
func (tf *TestForge) Writes() []Request {
	var out []Request
	for _, r := range tf.Requests() {
		if r.Method != http.MethodGet {
			out = append(out, r)
		}
	}
	return out
}

// CountWrites counts recorded requests with method.
func (tf *TestForge) CountWrites(method string) int {
	n := 0
	for _, r := range tf.Writes() {
		if r.Method == method {
			n++
		}
	}
	return n
}

// ResetRequests clears the request log.
func (tf *TestForge) ResetRequests() {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	tf.requests = nil
}

func (tf *TestForge) addRepoLocked(name string) *repoState {
	if r, ok := tf.repos[name]; ok {
		return r
	}
	tf.nextID++
	r := &repoState{
		id:            tf.nextID,
		name:          name,
		private:       true,
		collaborators: make(map[string]permission.Level),
		teams:         make(map[string]permission.Level),
	}
	tf.repos[name] = r
	tf.repoOrder = append(tf.repoOrder, name)
	return r
}

// inviteLocked creates or updates the pending invitation of login.
func (tf *TestForge) inviteLocked(r *repoState, login string, level permission.Level) *invitationState {
	for _, inv := range r.invitations {
		if inv.login == login {
			inv.level = level
			return inv
		}
	}
	tf.nextID++
	inv := &invitationState{id: tf.nextID, login: login, level: level}
	r.invitations = append(r.invitations, inv)
	return inv
}

func (r *repoState) setCollaborator(login string, level permission.Level) {
	if _, existed := r.collaborators[login]; !existed {
		r.collabOrder = append(r.collabOrder, login)
	}
	r.collaborators[login] = level
}

// intercept records the request and applies the failure configuration.
func (tf *TestForge) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		rel := strings.TrimPrefix(r.URL.Path, APIPrefix)
		full := rel
		if r.URL.RawQuery != "" {
			full += "?" + r.URL.RawQuery
		}

		tf.mu.Lock()
		tf.requests = append(tf.requests, Request{Method: r.Method, Path: full, Body: string(body)})
		delay, mode := tf.delay, tf.failMode
		status := 0
		for _, f := range tf.failures {
			if f.left == 0 || f.method != r.Method {
				continue
			}
			if (strings.Contains(f.target, "?") && f.target == full) || f.target == rel {
				status = f.status
				if f.left > 0 {
					f.left--
				}
				break
			}
		}
		tf.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		switch mode {
		case FailModeAuth:
			status = http.StatusUnauthorized
		case FailModeRateLimit:
			status = http.StatusForbidden
		case FailModeServerError:
			status = http.StatusInternalServerError
		}
		if status != 0 {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
}

// paginate writes items[page] and a Link header when more pages follow.
func paginate[T any](w http.ResponseWriter, r *http.Request, pageSize int, items []T) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start > len(items) {
		start = len(items)
	}
	end := min(start+pageSize, len(items))

	if end < len(items) {
		next := *r.URL
		next.Scheme = "http"
		next.Host = r.Host
		q := next.Query()
		q.Set("page", strconv.Itoa(page+1))
		next.RawQuery = q.Encode()
		last := next
		lq := last.Query()
		lq.Set("page", strconv.Itoa((len(items)+pageSize-1)/pageSize))
		last.RawQuery = lq.Encode()
		w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next", <%s>; rel="last"`, next.String(), last.String()))
	}
	writeJSON(w, http.StatusOK, items[start:end])
}

func (tf *TestForge) baseURL(r *http.Request) string {
	return (&url.URL{Scheme: "http", Host: r.Host, Path: APIPrefix}).String()
}
