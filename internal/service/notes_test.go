package service

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/technotes/internal/events"
	"github.com/Skotchmaster/technotes/internal/models"
	"github.com/Skotchmaster/technotes/internal/repo"
	"github.com/Skotchmaster/technotes/internal/transport"
)

func newTestNotesService(t *testing.T) (*NotesService, *repo.GormRepo, *recordingPublisher) {
	t.Helper()
	store := newStore(t)
	pub := &recordingPublisher{}
	return &NotesService{Notes: store, Users: store, Events: pub}, store, pub
}

func TestNotesService_List(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestNotesService(t)
	ctx := context.Background()

	_, err := svc.List(ctx)
	requireServiceError(t, err, ErrValidation, MsgNoNotes)

	alice := seedUser(t, store, "alice", "pw")
	bob := seedUser(t, store, "bob", "pw")

	owners := []*models.User{alice, bob, alice, bob, alice, bob, alice, bob, alice, bob, alice, bob}
	for i, owner := range owners {
		_, err := svc.Create(ctx, transport.CreateNoteRequest{
			User:  owner.ID.String(),
			Title: fmt.Sprintf("note-%02d", i),
			Text:  "text",
		})
		require.NoError(t, err)
	}

	stored, err := store.ListNotes(ctx)
	require.NoError(t, err)

	views, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, len(owners))
	for i, v := range views {
		assert.Equal(t, stored[i].ID, v.ID, "store order is kept")
		want := "alice"
		if v.User == bob.ID {
			want = "bob"
		}
		assert.Equal(t, want, v.Username)
	}
}

func TestNotesService_List_MissingOwner(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestNotesService(t)
	ctx := context.Background()

	orphan := &models.Note{UserID: uuid.New(), Title: "orphan", Text: "no owner"}
	require.NoError(t, store.CreateNote(ctx, orphan))

	views, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "", views[0].Username)
	assert.Equal(t, orphan.UserID, views[0].User)
}

func TestNotesService_Create(t *testing.T) {
	t.Parallel()

	svc, store, pub := newTestNotesService(t)
	idx := newFakeIndex()
	svc.Index = idx
	ctx := context.Background()
	owner := seedUser(t, store, "alice", "pw")

	res, err := svc.Create(ctx, transport.CreateNoteRequest{User: owner.ID.String(), Title: "Printer", Text: "jammed"})
	require.NoError(t, err)
	assert.Equal(t, "New note Printer created", res.Message)

	note, err := store.GetNoteByID(ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, note.Completed)
	assert.Equal(t, owner.ID, note.UserID)

	assert.Contains(t, idx.docs, res.ID.String())
	assert.Equal(t, []string{"note_created"}, pub.types())
	assert.Equal(t, events.TopicNotes, pub.events[0].topic)
	assert.Equal(t, res.ID.String(), pub.events[0].key)
}

func TestNotesService_Create_Failures(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestNotesService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice", "pw")

	_, err := svc.Create(ctx, transport.CreateNoteRequest{User: owner.ID.String(), Title: "Taken", Text: "x"})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  transport.CreateNoteRequest
		kind error
		msg  string
	}{
		{name: "missing user", req: transport.CreateNoteRequest{Title: "t", Text: "x"}, kind: ErrValidation, msg: MsgAllFieldsRequired},
		{name: "missing title", req: transport.CreateNoteRequest{User: owner.ID.String(), Text: "x"}, kind: ErrValidation, msg: MsgAllFieldsRequired},
		{name: "missing text", req: transport.CreateNoteRequest{User: owner.ID.String(), Title: "t"}, kind: ErrValidation, msg: MsgAllFieldsRequired},
		{name: "malformed owner", req: transport.CreateNoteRequest{User: "not-a-uuid", Title: "t", Text: "x"}, kind: ErrValidation, msg: MsgInvalidNoteData},
		{name: "unknown owner", req: transport.CreateNoteRequest{User: uuid.NewString(), Title: "t", Text: "x"}, kind: ErrNotFound, msg: MsgUserNotFound},
		{name: "duplicate title", req: transport.CreateNoteRequest{User: owner.ID.String(), Title: "Taken", Text: "y"}, kind: ErrDuplicate, msg: MsgDuplicateNoteTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Create(ctx, tt.req)
			assert.Nil(t, res)
			requireServiceError(t, err, tt.kind, tt.msg)
		})
	}
}

func TestNotesService_Create_IndexFailureIsLogged(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestNotesService(t)
	idx := newFakeIndex()
	idx.err = errBoom
	svc.Index = idx
	owner := seedUser(t, store, "alice", "pw")

	res, err := svc.Create(context.Background(), transport.CreateNoteRequest{User: owner.ID.String(), Title: "t", Text: "x"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.ID)
}

func TestNotesService_Update(t *testing.T) {
	t.Parallel()

	svc, store, pub := newTestNotesService(t)
	ctx := context.Background()
	alice := seedUser(t, store, "alice", "pw")
	bob := seedUser(t, store, "bob", "pw")

	created, err := svc.Create(ctx, transport.CreateNoteRequest{User: alice.ID.String(), Title: "Mine", Text: "x"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, transport.CreateNoteRequest{User: alice.ID.String(), Title: "Other", Text: "y"})
	require.NoError(t, err)

	res, err := svc.Update(ctx, transport.UpdateNoteRequest{
		ID: created.ID, User: bob.ID.String(), Title: "Mine", Text: "reassigned", Completed: ptr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "Mine updated", res.Message)

	note, err := store.GetNoteByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, note.UserID)
	assert.Equal(t, "reassigned", note.Text)
	assert.True(t, note.Completed)
	assert.Contains(t, pub.types(), "note_updated")

	tests := []struct {
		name string
		req  transport.UpdateNoteRequest
		kind error
		msg  string
	}{
		{
			name: "missing completed",
			req:  transport.UpdateNoteRequest{ID: created.ID, User: bob.ID.String(), Title: "Mine", Text: "x"},
			kind: ErrValidation, msg: MsgAllFieldsRequired,
		},
		{
			name: "missing id",
			req:  transport.UpdateNoteRequest{User: bob.ID.String(), Title: "Mine", Text: "x", Completed: ptr(false)},
			kind: ErrValidation, msg: MsgAllFieldsRequired,
		},
		{
			name: "unknown note",
			req:  transport.UpdateNoteRequest{ID: uuid.New(), User: bob.ID.String(), Title: "Mine", Text: "x", Completed: ptr(false)},
			kind: ErrNotFound, msg: MsgNoteNotFound,
		},
		{
			name: "unknown owner",
			req:  transport.UpdateNoteRequest{ID: created.ID, User: uuid.NewString(), Title: "Mine", Text: "x", Completed: ptr(false)},
			kind: ErrNotFound, msg: MsgUserNotFound,
		},
		{
			name: "title of another note",
			req:  transport.UpdateNoteRequest{ID: created.ID, User: bob.ID.String(), Title: "Other", Text: "x", Completed: ptr(false)},
			kind: ErrDuplicate, msg: MsgDuplicateNoteTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Update(ctx, tt.req)
			assert.Nil(t, res)
			requireServiceError(t, err, tt.kind, tt.msg)
		})
	}
}

func TestNotesService_Delete(t *testing.T) {
	t.Parallel()

	svc, store, pub := newTestNotesService(t)
	idx := newFakeIndex()
	svc.Index = idx
	ctx := context.Background()
	owner := seedUser(t, store, "alice", "pw")

	created, err := svc.Create(ctx, transport.CreateNoteRequest{User: owner.ID.String(), Title: "Bye", Text: "x"})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, uuid.Nil)
	requireServiceError(t, err, ErrValidation, MsgNoteIDRequired)

	_, err = svc.Delete(ctx, uuid.New())
	requireServiceError(t, err, ErrNotFound, MsgNoteNotFound)

	res, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Note Bye with ID %s deleted successfully", created.ID), res.Message)
	assert.Equal(t, "Bye", res.Title)
	assert.Equal(t, created.ID, res.ID)

	_, err = store.GetNoteByID(ctx, created.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.NotContains(t, idx.docs, created.ID.String())
	assert.Equal(t, []string{"note_created", "note_deleted"}, pub.types())
}

func TestNotesService_Search(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	seed := func(t *testing.T, svc *NotesService, store *repo.GormRepo) {
		owner := seedUser(t, store, "alice", "pw")
		for _, title := range []string{"Printer jam", "Printer toner", "Laptop"} {
			_, err := svc.Create(ctx, transport.CreateNoteRequest{User: owner.ID.String(), Title: title, Text: "body"})
			require.NoError(t, err)
		}
	}

	t.Run("store fallback", func(t *testing.T) {
		t.Parallel()
		svc, store, _ := newTestNotesService(t)
		seed(t, svc, store)

		res, err := svc.Search(ctx, "printer", 1, 1)
		require.NoError(t, err)
		assert.EqualValues(t, 2, res.Total)
		assert.Equal(t, 1, res.Page)
		assert.Equal(t, 1, res.Size)
		require.Len(t, res.Notes, 1)
		assert.Equal(t, "alice", res.Notes[0].Username)

		res, err = svc.Search(ctx, "printer", math.MaxInt, 100)
		require.NoError(t, err)
		assert.EqualValues(t, 2, res.Total)
		assert.Equal(t, math.MaxInt/100, res.Page)
		assert.Empty(t, res.Notes)
	})

	t.Run("index", func(t *testing.T) {
		t.Parallel()
		svc, store, _ := newTestNotesService(t)
		svc.Index = newFakeIndex()
		seed(t, svc, store)

		res, err := svc.Search(ctx, "printer", 2, 1)
		require.NoError(t, err)
		assert.EqualValues(t, 2, res.Total)
		assert.Equal(t, 2, res.Page)
		require.Len(t, res.Notes, 1)
		assert.Equal(t, "Printer toner", res.Notes[0].Title)
		assert.Equal(t, "alice", res.Notes[0].Username)
	})

	t.Run("index failure", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestNotesService(t)
		idx := newFakeIndex()
		idx.err = errBoom
		svc.Index = idx

		_, err := svc.Search(ctx, "printer", 1, 10)
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("empty query", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestNotesService(t)

		_, err := svc.Search(ctx, "", 1, 10)
		requireServiceError(t, err, ErrValidation, MsgSearchQueryMissing)
	})
}
