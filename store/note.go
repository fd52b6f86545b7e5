package store

import (
	"context"

	"github.com/pkg/errors"
)

// RowStatus is the lifecycle status of a row.
type RowStatus string

const (
	// Normal is the status for a normal row.
	Normal RowStatus = "NORMAL"
	// Archived is the status for an archived row.
	Archived RowStatus = "ARCHIVED"
	// Deleted is the status for a soft-deleted row.
	Deleted RowStatus = "DELETED"
)

func (r RowStatus) String() string {
	return string(r)
}

// Note is a note as persisted by the note database.
type Note struct {
	ID  int32
	UID string

	// Standard fields
	CreatorID int32
	RowStatus RowStatus
	CreatedTs int64
	UpdatedTs int64

	// Domain specific fields
	Title    string
	Body     string
	Tags     []string
	Favorite bool
}

// FindNote selects notes. Nil fields do not filter.
type FindNote struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	RowStatus *RowStatus
	// ExcludeDeleted drops soft-deleted rows when RowStatus is nil.
	ExcludeDeleted bool
	Favorite       *bool

	Limit  *int
	Offset *int
}

// UpdateNote carries the fields to change. Nil fields are left untouched.
type UpdateNote struct {
	ID        int32
	UpdatedTs *int64
	RowStatus *RowStatus
	Title     *string
	Body      *string
	Tags      *[]string
	Favorite  *bool
}

// DeleteNote removes a row permanently.
type DeleteNote struct {
	ID int32
}

func (s *Store) CreateNote(ctx context.Context, create *Note) (*Note, error) {
	if create.RowStatus == "" {
		create.RowStatus = Normal
	}
	return s.driver.CreateNote(ctx, create)
}

func (s *Store) ListNotes(ctx context.Context, find *FindNote) ([]*Note, error) {
	return s.driver.ListNotes(ctx, find)
}

// GetNote returns the first note matching find, or nil when none does.
func (s *Store) GetNote(ctx context.Context, find *FindNote) (*Note, error) {
	limit := 1
	find.Limit = &limit
	list, err := s.ListNotes(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get note")
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateNote(ctx context.Context, update *UpdateNote) error {
	return s.driver.UpdateNote(ctx, update)
}

func (s *Store) DeleteNote(ctx context.Context, delete *DeleteNote) error {
	return s.driver.DeleteNote(ctx, delete)
}
