package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/store"
)

func TestNoteStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	note, err := ts.CreateNote(ctx, &store.Note{
		UID:       "welcome",
		CreatorID: 1,
		Title:     "Welcome",
		Body:      "See [[Tags]]",
		Tags:      []string{"guide", "start"},
		Favorite:  true,
	})
	require.NoError(t, err)
	require.Greater(t, note.ID, int32(0))
	assert.Equal(t, store.Normal, note.RowStatus)
	assert.NotZero(t, note.CreatedTs)

	uid := "welcome"
	got, err := ts.GetNote(ctx, &store.FindNote{UID: &uid})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Welcome", got.Title)
	assert.Equal(t, []string{"guide", "start"}, got.Tags)
	assert.True(t, got.Favorite)

	title, favorite := "Hello", false
	tags := []string{}
	require.NoError(t, ts.UpdateNote(ctx, &store.UpdateNote{ID: note.ID, Title: &title, Favorite: &favorite, Tags: &tags}))
	got, err = ts.GetNote(ctx, &store.FindNote{ID: &note.ID})
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.False(t, got.Favorite)
	assert.Empty(t, got.Tags)

	require.NoError(t, ts.DeleteNote(ctx, &store.DeleteNote{ID: note.ID}))
	got, err = ts.GetNote(ctx, &store.FindNote{ID: &note.ID})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListNotesFilters(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	for _, n := range []*store.Note{
		{UID: "a", CreatorID: 1, Title: "A"},
		{UID: "b", CreatorID: 1, Title: "B", RowStatus: store.Archived},
		{UID: "c", CreatorID: 1, Title: "C", RowStatus: store.Deleted},
		{UID: "d", CreatorID: 2, Title: "D"},
	} {
		_, err := ts.CreateNote(ctx, n)
		require.NoError(t, err)
	}

	creator := int32(1)
	all, err := ts.ListNotes(ctx, &store.FindNote{CreatorID: &creator})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	live, err := ts.ListNotes(ctx, &store.FindNote{CreatorID: &creator, ExcludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, live, 2)
	assert.Equal(t, "A", live[0].Title)
	assert.Equal(t, "B", live[1].Title)

	archived := store.Archived
	list, err := ts.ListNotes(ctx, &store.FindNote{RowStatus: &archived})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "B", list[0].Title)

	limit, offset := 1, 1
	page, err := ts.ListNotes(ctx, &store.FindNote{CreatorID: &creator, Limit: &limit, Offset: &offset})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "B", page[0].Title)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	created, err := ts.Seed(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, created)

	creator := int32(5)
	list, err := ts.ListNotes(ctx, &store.FindNote{CreatorID: &creator})
	require.NoError(t, err)
	assert.Len(t, list, len(created))

	uids := map[string]bool{}
	for _, n := range list {
		assert.NotEmpty(t, n.UID)
		uids[n.UID] = true
	}
	assert.Len(t, uids, len(list))
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	require.NoError(t, ts.Migrate(ctx))
}
