package assignment

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCreationSetExactness(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	res, err := f.service.Resolve(ctx, "a1", []string{"alice", "bob"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1_alice", "a1_bob"}, res.ToCreate)
	assert.Equal(t, map[string]string{"a1_alice": "alice", "a1_bob": "bob"}, res.Desired)

	f.forge.AddRepository("a1_alice")
	f.forge.AddRepository("a10_bob") // different assignment sharing a textual prefix
	res, err = f.service.Resolve(ctx, "a1", []string{"alice", "bob"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1_bob"}, res.ToCreate)
	assert.Equal(t, []string{"a1_alice"}, res.Observed.Keys())
}

func TestResolveNeverSchedulesObservedRepos(t *testing.T) {
	f := newFixture(t, false)
	for _, n := range []string{"a1_alice", "a1_bob", "a1_zed"} {
		f.forge.AddRepository(n)
	}

	res, err := f.service.Resolve(context.Background(), "a1", []string{"alice", "bob"})
	require.NoError(t, err)
	assert.Empty(t, res.ToCreate)
	assert.Equal(t, 3, res.Observed.Len())
}

func TestResolveRejectsBadInputBeforeNetwork(t *testing.T) {
	tests := []struct {
		name       string
		assignment string
		users      []string
	}{
		{name: "nil users", assignment: "a1", users: nil},
		{name: "empty login", assignment: "a1", users: []string{"alice", ""}},
		{name: "duplicate login", assignment: "a1", users: []string{"alice", "Alice"}},
		{name: "login with slash", assignment: "a1", users: []string{"al/ice"}},
		{name: "empty assignment", assignment: " ", users: []string{"alice"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			res, err := f.service.Resolve(context.Background(), tt.assignment, tt.users)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, stderrors.Is(err, ErrInvalidInput))
			assert.Empty(t, f.forge.Requests())
		})
	}
}

func TestResolveEmptyUserListIsValid(t *testing.T) {
	f := newFixture(t, false)
	res, err := f.service.Resolve(context.Background(), "a1", []string{})
	require.NoError(t, err)
	assert.Empty(t, res.ToCreate)
}

func TestOwnerLogin(t *testing.T) {
	login, ok := OwnerLogin("a1", "a1_alice")
	assert.True(t, ok)
	assert.Equal(t, "alice", login)

	_, ok = OwnerLogin("a1", "a1_")
	assert.False(t, ok)
	_, ok = OwnerLogin("a1", "a2_alice")
	assert.False(t, ok)
}
