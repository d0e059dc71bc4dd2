package assignment

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assignctl/internal/forge"
	"git.home.luguber.info/inful/assignctl/internal/foundation/errors"
	"git.home.luguber.info/inful/assignctl/internal/metrics"
)

func TestFetchAllUnionRegardlessOfPageSize(t *testing.T) {
	const total = 7
	for _, size := range []int{1, 2, total, 100} {
		t.Run(fmt.Sprintf("page size %d", size), func(t *testing.T) {
			f := newFixture(t, false)
			f.forge.SetPageSize(size)
			want := make([]string, 0, total)
			for i := range total {
				name := fmt.Sprintf("a1_user%d", i)
				f.forge.AddRepository(name)
				want = append(want, name)
			}
			f.forge.AddRepository("a2_other")

			got, err := f.service.observedRepos(context.Background(), "a1")
			require.NoError(t, err)
			assert.Equal(t, want, got.Keys())
			assert.Equal(t, (total+1+size-1)/size, got.Pages())
		})
	}
}

func TestFetchAllAbortsOnFailedPage(t *testing.T) {
	f := newFixture(t, false)
	f.forge.SetPageSize(1)
	f.forge.AddRepository("a1_alice")
	f.forge.AddRepository("a1_bob")
	f.forge.AddRepository("a1_carol")
	f.forge.FailOn(http.MethodGet, "/orgs/course/repos?page=2", http.StatusInternalServerError, -1)

	got, err := f.service.observedRepos(context.Background(), "a1")
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, stderrors.Is(err, ErrFetchFailed))

	c, ok := errors.AsClassified(err)
	require.True(t, ok)
	status, _ := c.Context().GetInt("status")
	assert.Equal(t, http.StatusInternalServerError, status)
	url, _ := c.Context().GetString("url")
	assert.Contains(t, url, "page=2")
}

func TestFetchAllNotFoundIsEmptyOnlyWhenAllowed(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	q := fetchSpec[forge.Collaborator]{
		start: f.service.endpoints.DirectCollaborators("course/missing"),
		key:   func(c forge.Collaborator) string { return c.Login },
	}

	_, err := fetchAll(ctx, f.service.remote, metrics.NoopRecorder{}, q)
	require.True(t, stderrors.Is(err, ErrFetchFailed))

	q.notFoundEmpty = true
	got, err := fetchAll(ctx, f.service.remote, metrics.NoopRecorder{}, q)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestFetchAllDetectsPaginationCycle(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", fmt.Sprintf(`<%s/items>; rel="next"`, srv.URL))
		_, _ = w.Write([]byte(`[{"login":"a","type":"User"}]`))
	}))
	defer srv.Close()

	client, err := forge.NewClient(forge.ClientConfig{APIURL: srv.URL, Token: "t"})
	require.NoError(t, err)

	_, err = fetchAll(context.Background(), client, metrics.NoopRecorder{}, fetchSpec[forge.Member]{
		start: srv.URL + "/items",
		key:   func(m forge.Member) string { return m.Login },
	})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrFetchFailed))
}

func TestCollectionKeepsFirstSeenOrder(t *testing.T) {
	c := newCollection[int]()
	c.put("b", 1)
	c.put("a", 2)
	c.put("b", 3)

	assert.Equal(t, []string{"b", "a"}, c.Keys())
	assert.Equal(t, []int{3, 2}, c.Values())
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Has("a"))
	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestTeamMembersKeepsUsersOnly(t *testing.T) {
	f := newFixture(t, false)
	f.forge.SetPageSize(2)
	f.forge.AddTeamMembers("cpsc210-students",
		testforgeMember("alice", "User"),
		testforgeMember("ci-bot", "Bot"),
		testforgeMember("bob", "User"),
		testforgeMember("carol", "User"),
	)

	got, err := f.service.TeamMembers(context.Background(), "cpsc210-students")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, got)

	_, err = f.service.TeamMembers(context.Background(), "nope")
	assert.True(t, stderrors.Is(err, ErrFetchFailed))
}
