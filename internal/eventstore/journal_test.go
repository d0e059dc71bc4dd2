package eventstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assignctl/internal/assignment"
	"git.home.luguber.info/inful/assignctl/internal/eventstore"
	"git.home.luguber.info/inful/assignctl/internal/forge"
	"git.home.luguber.info/inful/assignctl/internal/permission"
	"git.home.luguber.info/inful/assignctl/internal/testforge"
)

func TestJournalRecordsSyncRun(t *testing.T) {
	tf := testforge.NewTestForge("course")
	defer tf.Close()
	tf.AddTeam("staff")
	tf.AddRepository("a1_alice")
	tf.SetCollaborator("a1_alice", "alice", permission.Pull)

	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	client, err := forge.NewClient(forge.ClientConfig{APIURL: tf.APIURL(), Token: "t"})
	require.NoError(t, err)
	svc, err := assignment.NewService(client, assignment.Options{
		Org:      "course",
		Live:     true,
		Journals: []assignment.Journal{eventstore.NewJournal(store)},
		NewRunID: func() string { return "run-42" },
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.SyncPerms(ctx, "a1", assignment.DesiredLevels{Collaborators: permission.Push, Staff: permission.Pull})
	require.NoError(t, err)

	events, err := store.GetByRunID(ctx, "run-42")
	require.NoError(t, err)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type())
	}
	assert.Equal(t, []string{
		eventstore.TypeRunStarted,
		eventstore.TypeMutationRecorded,
		eventstore.TypeMutationRecorded,
		eventstore.TypeRunCompleted,
	}, types)

	var m eventstore.MutationPayload
	require.NoError(t, eventstore.DecodePayload(events[1], &m))
	assert.Equal(t, "set-collaborator", m.Kind)
	assert.Equal(t, "alice", m.Principal)
	assert.True(t, m.Applied)

	p := eventstore.NewRunHistoryProjection(store, 0)
	require.NoError(t, p.Rebuild(ctx))
	run, ok := p.GetRun("run-42")
	require.True(t, ok)
	assert.Equal(t, "success", run.Status)
	assert.Equal(t, 2, run.Mutations)
}

func TestJournalClassifiesAbortedDelete(t *testing.T) {
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	j := eventstore.NewJournal(store)
	require.NoError(t, j.RunStarted(ctx, "r", assignment.OpDelete, "a1", true))
	require.NoError(t, j.RunFinished(ctx, "r", assignment.OpDelete, 0, assignment.ErrDeletionNotConfirmed))

	p := eventstore.NewRunHistoryProjection(store, 0)
	require.NoError(t, p.Rebuild(ctx))
	run, ok := p.GetRun("r")
	require.True(t, ok)
	assert.Equal(t, "aborted", run.Status)
}
