package store

import (
	"context"
	"log/slog"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

// demoNotes is a small linked notebook used in demo mode and by the seed command.
var demoNotes = []Note{
	{Title: "Welcome", Body: "Start here. The graph view shows [[Linking notes]] and [[Tags]]. #guide", Favorite: true},
	{Title: "Linking notes", Body: "Write [[Title]] or [[Title|an alias]] to link another note. See [[Graph view#navigation]]. #guide"},
	{Title: "Tags", Body: "Notes that share a #tag are joined by a faint edge. #guide #organizing"},
	{Title: "Graph view", Body: "Drag the background to pan, scroll to zoom, click a node to open it. #guide"},
	{Title: "Reading list", Body: "Books to read next. #reading #organizing", Tags: []string{"books"}},
	{Title: "Designing Data-Intensive Applications", Body: "Chapter notes, linked from [[Reading list]]. #reading", Tags: []string{"books"}},
	{Title: "Project ideas", Body: "A tiny terminal graph viewer. Related: [[Graph view]]. #projects", Favorite: true},
	{Title: "Weekly review", Body: "Look at [[Project ideas]] and the [[Reading list]]. #routine"},
	{Title: "Inbox", Body: "Unsorted scraps. Nothing links here yet."},
}

// Seed inserts the demo notebook for creatorID and returns the created notes.
func (s *Store) Seed(ctx context.Context, creatorID int32) ([]*Note, error) {
	created := make([]*Note, 0, len(demoNotes))
	for _, n := range demoNotes {
		note := n
		note.UID = shortuuid.New()
		note.CreatorID = creatorID
		note.Tags = append([]string(nil), n.Tags...)
		c, err := s.CreateNote(ctx, &note)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to seed note %q", n.Title)
		}
		created = append(created, c)
	}
	slog.Info("seeded demo notes", slog.Int("count", len(created)), slog.Int("creatorID", int(creatorID)))
	return created, nil
}
