package assignment

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assignctl/internal/permission"
)

func TestCreateReposProvisionsMissingOnly(t *testing.T) {
	f := newFixture(t, true)
	f.forge.AddTeam("staff")
	f.forge.AddRepository("a1_alice")
	ctx := context.Background()

	created, err := f.service.CreateRepos(ctx, "a1", []string{"alice", "bob", "carol"}, CreateOptions{Level: permission.Push})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1_bob", "a1_carol"}, created)
	assert.Equal(t, []string{"a1_alice", "a1_bob", "a1_carol"}, f.forge.RepositoryNames())
	assert.Equal(t, permission.Push, f.forge.Invitations("a1_bob")["bob"])
	assert.Equal(t, permission.Push, f.forge.Invitations("a1_carol")["carol"])
	assert.Empty(t, f.forge.Collaborators("a1_alice"), "existing repository must not be touched")
	assert.Empty(t, f.forge.Invitations("a1_alice"))

	level, ok := f.forge.TeamPermission("staff", "a1_bob")
	assert.True(t, ok, "non-template creation carries the staff team")
	assert.Equal(t, permission.Pull, level)

	f.forge.ResetRequests()
	created, err = f.service.CreateRepos(ctx, "a1", []string{"alice", "bob", "carol"}, CreateOptions{Level: permission.Push})
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Empty(t, f.forge.Writes())
}

func TestCreateReposDefaultsToPull(t *testing.T) {
	f := newFixture(t, true)
	f.forge.AddTeam("staff")

	_, err := f.service.CreateRepos(context.Background(), "a1", []string{"alice"}, CreateOptions{})
	require.NoError(t, err)
	assert.Equal(t, permission.Pull, f.forge.Invitations("a1_alice")["alice"])
}

func TestCreateReposMissingStaffTeamAbortsBeforeCreation(t *testing.T) {
	f := newFixture(t, true)

	created, err := f.service.CreateRepos(context.Background(), "a1", []string{"alice"}, CreateOptions{})
	require.Error(t, err)
	assert.Nil(t, created)
	assert.True(t, stderrors.Is(err, ErrMissingRequiredTeam))
	assert.Empty(t, f.forge.Writes())
}

func TestCreateReposFromTemplate(t *testing.T) {
	f := newFixture(t, true)
	f.forge.AddTeam("staff")
	f.forge.AddTemplate("templates/starter", true)

	created, err := f.service.CreateRepos(context.Background(), "a1", []string{"alice"}, CreateOptions{Template: "templates/starter"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1_alice"}, created)

	var generate []string
	for _, w := range f.forge.Writes() {
		if w.Method == http.MethodPost {
			generate = append(generate, w.Path)
			var body map[string]any
			require.NoError(t, json.Unmarshal([]byte(w.Body), &body))
			assert.NotContains(t, body, "team_id")
			assert.Equal(t, true, body["private"])
		}
	}
	assert.Equal(t, []string{"/repos/templates/starter/generate"}, generate)
	assert.Equal(t, permission.Pull, f.forge.Invitations("a1_alice")["alice"])
}

func TestCreateReposRejectsInvalidTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		seed     func(*fixture)
		network  bool
	}{
		{name: "not a template", template: "templates/plain", seed: func(f *fixture) { f.forge.AddTemplate("templates/plain", false) }, network: true},
		{name: "missing", template: "templates/gone", network: true},
		{name: "malformed", template: "starter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			f.forge.AddTeam("staff")
			if tt.seed != nil {
				tt.seed(f)
			}
			_, err := f.service.CreateRepos(context.Background(), "a1", []string{"alice"}, CreateOptions{Template: tt.template})
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, ErrInvalidTemplate))
			assert.Empty(t, f.forge.Writes())
			if !tt.network {
				assert.Empty(t, f.forge.Requests())
			}
		})
	}
}

func TestCreateReposInvalidLevelBeforeNetwork(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.service.CreateRepos(context.Background(), "a1", []string{"alice"}, CreateOptions{Level: "write"})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrInvalidPermissionLevel))
	assert.Empty(t, f.forge.Requests())
}

func TestCreateReposCollaboratorFailureIsRecoveredBySync(t *testing.T) {
	f := newFixture(t, true)
	f.forge.AddTeam("staff")
	f.forge.FailOn(http.MethodPut, "/repos/course/a1_alice/collaborators/alice", http.StatusBadGateway, 1)
	ctx := context.Background()

	created, err := f.service.CreateRepos(ctx, "a1", []string{"alice"}, CreateOptions{})
	require.Error(t, err)
	assert.Nil(t, created)
	assert.True(t, stderrors.Is(err, ErrProvisionFailed))
	assert.Equal(t, []string{"a1_alice"}, f.forge.RepositoryNames(), "partial progress is left in place")
	assert.Empty(t, f.forge.Collaborators("a1_alice"))

	created, err = f.service.CreateRepos(ctx, "a1", []string{"alice"}, CreateOptions{})
	require.NoError(t, err)
	assert.Empty(t, created)

	mutations, err := f.service.SyncPerms(ctx, "a1", DesiredLevels{Collaborators: permission.Pull})
	require.NoError(t, err)
	require.Len(t, mutations, 1)
	assert.Equal(t, KindAddCollaborator, mutations[0].Kind)
	assert.Equal(t, "alice", mutations[0].Principal)
	assert.Equal(t, permission.Pull, f.forge.Invitations("a1_alice")["alice"])

	f.forge.ResetRequests()
	mutations, err = f.service.SyncPerms(ctx, "a1", DesiredLevels{Collaborators: permission.Pull})
	require.NoError(t, err)
	assert.Empty(t, mutations, "a pending invitation counts as present")
	assert.Empty(t, f.forge.Writes())
}

func TestCreateReposDryRunWritesNothing(t *testing.T) {
	f := newFixture(t, false)
	f.forge.AddTeam("staff")

	created, err := f.service.CreateRepos(context.Background(), "a1", []string{"alice", "bob"}, CreateOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1_alice", "a1_bob"}, created)
	assert.Empty(t, f.forge.Writes())
	assert.Empty(t, f.forge.RepositoryNames())

	msgs := f.logs.messages(slogInfo, "Mutation: ")
	assert.Len(t, msgs, 4)
	for _, m := range msgs {
		assert.True(t, strings.HasPrefix(m, "Mutation: "))
	}
}
