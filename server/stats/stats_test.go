package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/store"
	"github.com/hrygo/notegraph/store/test"
)

func TestCollector_Collect(t *testing.T) {
	ctx := context.Background()
	ts := test.NewTestingStore(ctx, t)

	now := time.Now()
	old := now.AddDate(0, -3, 0).Unix()
	for _, n := range []*store.Note{
		{UID: "a", CreatorID: 1, Title: "Alpha", Body: "[[Beta]] [[Gamma]]", Tags: []string{"go"}, Favorite: true},
		{UID: "b", CreatorID: 1, Title: "Beta", Tags: []string{"go", "db"}},
		{UID: "c", CreatorID: 1, Title: "Gamma", Tags: []string{"db"}, RowStatus: store.Archived},
		{UID: "d", CreatorID: 1, Title: "Old", CreatedTs: old, UpdatedTs: old},
		{UID: "e", CreatorID: 1, Title: "Gone", RowStatus: store.Deleted},
		{UID: "f", CreatorID: 2, Title: "Other"},
	} {
		_, err := ts.CreateNote(ctx, n)
		require.NoError(t, err)
	}

	collector := NewCollector(ts, 1)
	collector.now = func() time.Time { return now }
	require.NoError(t, collector.Collect(ctx))
	stats := collector.GetStats()

	assert.Equal(t, int64(4), stats.TotalNotes)
	assert.Equal(t, int64(1), stats.ArchivedNotes)
	assert.Equal(t, int64(1), stats.FavoriteNotes)
	assert.Equal(t, int64(3), stats.NotesLastWeek)
	assert.Equal(t, int64(3), stats.NotesLastMonth)

	assert.Equal(t, 4, stats.Graph.NodeCount)
	assert.Equal(t, 2, stats.Graph.LinkEdges)
	assert.Equal(t, 1, stats.Graph.SharedTagEdges)
	assert.Equal(t, 1, stats.Graph.OrphanCount)
	assert.Equal(t, []TagCount{{Tag: "db", Count: 2}, {Tag: "go", Count: 2}}, stats.TopTags)
	assert.Len(t, stats.Hubs, 3)
	assert.Contains(t, stats.Hubs, "Alpha")

	assert.Equal(t, int64(1), stats.ActiveDays)
	assert.Equal(t, int64(1), stats.StreakDays)
	assert.False(t, stats.LastActivityTime.IsZero())
	assert.NotNil(t, stats.Views)
}

func TestCollector_StartStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ts := test.NewTestingStore(ctx, t)

	collector := NewCollector(ts, 1)
	collector.interval = 10 * time.Millisecond
	collector.Start(ctx)
	collector.Stop()
	collector.Stop()

	assert.Equal(t, int64(0), collector.GetStats().TotalNotes)
}

func TestStreakDays(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	active := map[string]bool{
		"2026-03-10": true,
		"2026-03-09": true,
		"2026-03-07": true,
	}
	assert.Equal(t, int64(2), streakDays(active, now))
	assert.Equal(t, int64(0), streakDays(map[string]bool{"2026-03-09": true}, now))
}

func TestStats_GetSummary(t *testing.T) {
	stats := &Stats{
		TotalNotes:       12,
		FavoriteNotes:    2,
		TopTags:          []TagCount{{Tag: "go", Count: 4}},
		Hubs:             []string{"Index"},
		StreakDays:       3,
		LastActivityTime: time.Now(),
		LastUpdated:      time.Now(),
	}

	summary := stats.GetSummary()
	for _, want := range []string{"Notes", "Graph", "Activity", "#go (4)", "hubs: Index", "streak: 3 days", "last edit: just now"} {
		assert.Contains(t, summary, want)
	}
	assert.Contains(t, (&Stats{}).GetSummary(), "top tags: none")
	assert.Contains(t, (&Stats{}).GetSummary(), "last edit: never")
}
