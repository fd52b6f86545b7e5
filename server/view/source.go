package view

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/plugin/graph"
	"github.com/hrygo/notegraph/store"
)

// NoteSource loads the notes a view graphs.
type NoteSource interface {
	ListNotes(ctx context.Context) ([]graph.Note, error)
}

// NoteSourceFunc adapts a function to NoteSource.
type NoteSourceFunc func(ctx context.Context) ([]graph.Note, error)

func (f NoteSourceFunc) ListNotes(ctx context.Context) ([]graph.Note, error) {
	return f(ctx)
}

// Navigator opens a note in the host application.
type Navigator interface {
	NavigateToNote(ctx context.Context, noteID string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, noteID string) error

func (f NavigatorFunc) NavigateToNote(ctx context.Context, noteID string) error {
	return f(ctx, noteID)
}

// StoreSource reads the non-deleted notes of one principal from the store.
// Graph node ids are note UIDs.
type StoreSource struct {
	Store     *store.Store
	CreatorID int32
}

func (s *StoreSource) ListNotes(ctx context.Context) ([]graph.Note, error) {
	creatorID := s.CreatorID
	list, err := s.Store.ListNotes(ctx, &store.FindNote{
		CreatorID:      &creatorID,
		ExcludeDeleted: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notes")
	}
	notes := make([]graph.Note, 0, len(list))
	for _, n := range list {
		notes = append(notes, graph.Note{
			ID:        n.UID,
			Title:     n.Title,
			Body:      n.Body,
			Tags:      n.Tags,
			Favorite:  n.Favorite,
			UpdatedAt: time.Unix(n.UpdatedTs, 0),
		})
	}
	return notes, nil
}
