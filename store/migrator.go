package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

// Migration flow:
// 1. preMigrate: if the database has no note table, apply LATEST.sql and
//    record the schema version in system_setting.
// 2. demo mode: seed demo notes when the principal has none.
//
// Schema files live at migration/{driver}/LATEST.sql.

//go:embed migration
var migrationFS embed.FS

const (
	// LatestSchemaFileName is the name of the latest schema file.
	LatestSchemaFileName = "LATEST.sql"
	// SchemaVersion is the version recorded for LATEST.sql.
	SchemaVersion = "0.1.0"

	schemaVersionKey = "schema_version"

	modeDemo = "demo"
)

// Migrate prepares the database schema and seeds demo data in demo mode.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.preMigrate(ctx); err != nil {
		return errors.Wrap(err, "failed to pre-migrate")
	}

	current, err := s.driver.GetSystemSetting(ctx, schemaVersionKey)
	if err != nil {
		return errors.Wrap(err, "failed to get schema version")
	}
	if current != SchemaVersion {
		slog.Error("unsupported schema version",
			slog.String("databaseVersion", current),
			slog.String("currentVersion", SchemaVersion),
		)
		return errors.Errorf("unsupported schema version %q, want %s", current, SchemaVersion)
	}

	if s.profile.Mode == modeDemo {
		creatorID := s.profile.CreatorID
		existing, err := s.ListNotes(ctx, &FindNote{CreatorID: &creatorID})
		if err != nil {
			return errors.Wrap(err, "failed to list notes")
		}
		if len(existing) == 0 {
			if _, err := s.Seed(ctx, creatorID); err != nil {
				return errors.Wrap(err, "failed to seed")
			}
		}
	}
	return nil
}

// preMigrate applies the latest schema to an uninitialized database.
func (s *Store) preMigrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		return nil
	}

	filePath := s.getMigrationBasePath() + LatestSchemaFileName
	bytes, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Errorf("failed to read latest schema file: %s", err)
	}
	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()
	slog.Info("initializing new database with latest schema", slog.String("file", filePath))
	if err := s.execute(ctx, tx, string(bytes)); err != nil {
		return errors.Errorf("failed to execute SQL file %s, err %s", filePath, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	if err := s.driver.UpsertSystemSetting(ctx, schemaVersionKey, SchemaVersion); err != nil {
		return errors.Wrap(err, "failed to update current schema version")
	}
	slog.Info("database initialized successfully", slog.String("schemaVersion", SchemaVersion))
	return nil
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s/", s.profile.Driver)
}

// execute runs a schema script inside tx one statement at a time.
func (s *Store) execute(ctx context.Context, tx *sql.Tx, script string) error {
	for i, stmt := range splitSQL(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute statement %d: %s", i+1, stmt)
		}
	}
	return nil
}

// splitSQL splits a script on semicolons outside single-quoted strings and
// drops -- comments.
func splitSQL(script string) []string {
	var statements []string
	var current strings.Builder
	inQuote := false

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for _, line := range strings.Split(script, "\n") {
		for i := 0; i < len(line); i++ {
			ch := line[i]
			if !inQuote && ch == '-' && i+1 < len(line) && line[i+1] == '-' {
				break
			}
			if ch == '\'' {
				inQuote = !inQuote
			}
			current.WriteByte(ch)
			if ch == ';' && !inQuote {
				flush()
			}
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
	}
	flush()
	return statements
}
