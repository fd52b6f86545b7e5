// Package stats collects local statistics about a note collection and its graph.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/plugin/graph"
	"github.com/hrygo/notegraph/server/internal/observability"
	"github.com/hrygo/notegraph/server/view"
	"github.com/hrygo/notegraph/store"
)

// Stats represents collection statistics.
type Stats struct {
	// Note stats
	TotalNotes     int64 `json:"total_notes"`
	ArchivedNotes  int64 `json:"archived_notes"`
	FavoriteNotes  int64 `json:"favorite_notes"`
	NotesLastWeek  int64 `json:"notes_last_week"`
	NotesLastMonth int64 `json:"notes_last_month"`

	// Graph stats
	Graph   graph.Stats `json:"graph"`
	TopTags []TagCount  `json:"top_tags"`
	// Hubs are the most important notes by title.
	Hubs []string `json:"hubs"`

	// Activity stats
	ActiveDays       int64     `json:"active_days"` // Days with edits in the last 30 days
	StreakDays       int64     `json:"streak_days"` // Consecutive days with edits ending today
	LastActivityTime time.Time `json:"last_activity_time"`

	// Views are the per-surface view counters of this process.
	Views map[string]observability.SurfaceSnapshot `json:"views"`

	LastUpdated time.Time `json:"last_updated"`
}

// TagCount is a tag and the number of notes carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

const (
	topTagLimit = 5
	hubLimit    = 3
)

// Collector collects and manages statistics.
type Collector struct {
	store     *store.Store
	creatorID int32
	interval  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	stats    *Stats
	tickStop chan struct{}
	stopOnce sync.Once
}

// NewCollector creates a collector for the notes of creatorID.
func NewCollector(st *store.Store, creatorID int32) *Collector {
	return &Collector{
		store:     st,
		creatorID: creatorID,
		interval:  time.Hour,
		now:       time.Now,
		stats: &Stats{
			LastUpdated: time.Now(),
		},
		tickStop: make(chan struct{}),
	}
}

// Start collects once, then refreshes every interval until ctx is done or Stop is called.
func (c *Collector) Start(ctx context.Context) {
	if err := c.Collect(ctx); err != nil {
		slog.Warn("initial stats collection failed", slog.String("error", err.Error()))
	}

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := c.Collect(ctx); err != nil {
					slog.Warn("stats collection failed", slog.String("error", err.Error()))
				}
			case <-ctx.Done():
				return
			case <-c.tickStop:
				return
			}
		}
	}()
}

// Stop stops the periodic collection.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.tickStop) })
}

// GetStats returns a copy of current statistics.
func (c *Collector) GetStats() *Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := *c.stats
	copied.TopTags = append([]TagCount(nil), c.stats.TopTags...)
	copied.Hubs = append([]string(nil), c.stats.Hubs...)
	copied.Views = observability.GlobalMetrics().Snapshot()
	return &copied
}

// Collect gathers current statistics from the store.
func (c *Collector) Collect(ctx context.Context) error {
	creatorID := c.creatorID
	list, err := c.store.ListNotes(ctx, &store.FindNote{
		CreatorID:      &creatorID,
		ExcludeDeleted: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to list notes")
	}
	notes, err := (&view.StoreSource{Store: c.store, CreatorID: c.creatorID}).ListNotes(ctx)
	if err != nil {
		return err
	}
	g := graph.FromNotes(notes)
	graph.Analyze(g)

	now := c.now()
	s := &Stats{
		Graph:       g.Stats(),
		TopTags:     topTags(g, topTagLimit),
		Hubs:        hubs(g, hubLimit),
		LastUpdated: now,
	}

	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)
	activeDays := make(map[string]bool)
	for _, n := range list {
		s.TotalNotes++
		if n.RowStatus == store.Archived {
			s.ArchivedNotes++
		}
		if n.Favorite {
			s.FavoriteNotes++
		}
		created := time.Unix(n.CreatedTs, 0)
		if !created.Before(weekAgo) {
			s.NotesLastWeek++
		}
		if !created.Before(monthAgo) {
			s.NotesLastMonth++
		}
		updated := time.Unix(n.UpdatedTs, 0)
		if updated.After(s.LastActivityTime) {
			s.LastActivityTime = updated
		}
		day := updated.In(now.Location()).Format(time.DateOnly)
		if !updated.Before(monthAgo) && !activeDays[day] {
			s.ActiveDays++
		}
		activeDays[day] = true
	}
	s.StreakDays = streakDays(activeDays, now)

	c.mu.Lock()
	c.stats = s
	c.mu.Unlock()
	return nil
}

// streakDays counts consecutive active days ending today.
func streakDays(active map[string]bool, now time.Time) int64 {
	streak := int64(0)
	for i := 0; i < 365; i++ {
		if !active[now.AddDate(0, 0, -i).Format(time.DateOnly)] {
			break
		}
		streak++
	}
	return streak
}

func topTags(g *graph.Graph, limit int) []TagCount {
	counts := make(map[string]int)
	for _, n := range g.Nodes {
		for _, tag := range n.Tags {
			counts[tag]++
		}
	}
	tags := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		tags = append(tags, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}

func hubs(g *graph.Graph, limit int) []string {
	nodes := append([]*graph.Node(nil), g.Nodes...)
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Importance > nodes[j].Importance
	})
	var titles []string
	for _, n := range nodes {
		if len(titles) == limit {
			break
		}
		titles = append(titles, n.Title)
	}
	return titles
}

// GetSummary returns a human-readable summary.
func (s *Stats) GetSummary() string {
	tags := make([]string, 0, len(s.TopTags))
	for _, t := range s.TopTags {
		tags = append(tags, fmt.Sprintf("#%s (%d)", t.Tag, t.Count))
	}
	return fmt.Sprintf(
		`Statistics (updated %s)

Notes
  total: %d
  archived: %d
  favorites: %d
  last week: %d
  last month: %d

Graph
  nodes: %d
  links: %d
  shared-tag edges: %d
  clusters: %d
  orphans: %d
  top tags: %s
  hubs: %s

Activity
  active days (30d): %d
  streak: %d days
  last edit: %s`,
		s.LastUpdated.Format("2006-01-02 15:04"),
		s.TotalNotes,
		s.ArchivedNotes,
		s.FavoriteNotes,
		s.NotesLastWeek,
		s.NotesLastMonth,
		s.Graph.NodeCount,
		s.Graph.LinkEdges,
		s.Graph.SharedTagEdges,
		s.Graph.ClusterCount,
		s.Graph.OrphanCount,
		orNone(strings.Join(tags, ", ")),
		orNone(strings.Join(s.Hubs, ", ")),
		s.ActiveDays,
		s.StreakDays,
		formatLastActivity(s.LastActivityTime),
	)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func formatLastActivity(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	duration := time.Since(t)
	if duration < time.Hour {
		return "just now"
	}
	if duration < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(duration.Hours()))
	}
	if duration < 7*24*time.Hour {
		return fmt.Sprintf("%dd ago", int(duration.Hours()/24))
	}
	return t.Format("2006-01-02")
}
