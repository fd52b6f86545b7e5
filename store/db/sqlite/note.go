package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hrygo/notegraph/store"
)

func (d *DB) CreateNote(ctx context.Context, create *store.Note) (*store.Note, error) {
	tags, err := encodeTags(create.Tags)
	if err != nil {
		return nil, err
	}
	fields := []string{"uid", "creator_id", "row_status", "title", "body", "tags", "favorite"}
	placeholderValues := []any{create.UID, create.CreatorID, create.RowStatus, create.Title, create.Body, tags, create.Favorite}

	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		placeholderValues = append(placeholderValues, create.CreatedTs)
	}
	if create.UpdatedTs != 0 {
		fields = append(fields, "updated_ts")
		placeholderValues = append(placeholderValues, create.UpdatedTs)
	}

	stmt := `INSERT INTO note (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id, created_ts, updated_ts, row_status`
	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
		&create.RowStatus,
	); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return create, nil
}

func (d *DB) ListNotes(ctx context.Context, find *store.FindNote) ([]*store.Note, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "note.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "note.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "note.creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.RowStatus; v != nil {
		where, args = append(where, "note.row_status = "+placeholder(len(args)+1)), append(args, *v)
	} else if find.ExcludeDeleted {
		where, args = append(where, "note.row_status <> "+placeholder(len(args)+1)), append(args, store.Deleted)
	}
	if v := find.Favorite; v != nil {
		where, args = append(where, "note.favorite = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, uid, creator_id, created_ts, updated_ts, row_status,
			title, body, tags, favorite
		FROM note
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY note.id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Note, 0)
	for rows.Next() {
		var note store.Note
		var tags string
		if err := rows.Scan(
			&note.ID,
			&note.UID,
			&note.CreatorID,
			&note.CreatedTs,
			&note.UpdatedTs,
			&note.RowStatus,
			&note.Title,
			&note.Body,
			&tags,
			&note.Favorite,
		); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		if note.Tags, err = decodeTags(tags); err != nil {
			return nil, err
		}
		list = append(list, &note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateNote(ctx context.Context, update *store.UpdateNote) error {
	set, args := []string{}, []any{}

	if v := update.UpdatedTs; v != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *v)
	} else {
		set = append(set, "updated_ts = strftime('%s', 'now')")
	}
	if v := update.RowStatus; v != nil {
		set, args = append(set, "row_status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Body; v != nil {
		set, args = append(set, "body = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Tags; v != nil {
		tags, err := encodeTags(*v)
		if err != nil {
			return err
		}
		set, args = append(set, "tags = "+placeholder(len(args)+1)), append(args, tags)
	}
	if v := update.Favorite; v != nil {
		set, args = append(set, "favorite = "+placeholder(len(args)+1)), append(args, *v)
	}

	args = append(args, update.ID)
	stmt := `UPDATE note SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return nil
}

func (d *DB) DeleteNote(ctx context.Context, delete *store.DeleteNote) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM note WHERE id = ?", delete.ID); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

func encodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return tags, nil
}
