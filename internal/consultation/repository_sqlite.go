package consultation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRepository stores consultations in a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens or creates the database at path and applies the
// schema.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS consultations (
		id             TEXT PRIMARY KEY,
		patient_id     TEXT NOT NULL,
		history        TEXT NOT NULL DEFAULT '[]',
		session        TEXT NOT NULL DEFAULT '{}',
		facilities     TEXT,
		assistant_note TEXT NOT NULL DEFAULT '',
		is_complete    INTEGER NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_consultations_patient ON consultations(patient_id);
	`
	_, err := r.db.Exec(schema)
	return err
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, patient_id, history, session, facilities, assistant_note, is_complete, created_at, updated_at
		FROM consultations WHERE id = ?`, id.String())

	var (
		c                    Consultation
		idStr, patientStr    string
		history, session     string
		facilities           sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&idStr, &patientStr, &history, &session, &facilities, &c.AssistantNote, &c.IsComplete, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if c.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	if c.PatientID, err = uuid.Parse(patientStr); err != nil {
		return nil, fmt.Errorf("parse patient id: %w", err)
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if err := decodeColumns(&c, []byte(history), []byte(session), []byte(facilities.String)); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, c *Consultation) error {
	cols, err := encodeColumns(c)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO consultations (id, patient_id, history, session, facilities, assistant_note, is_complete, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			history = excluded.history,
			session = excluded.session,
			facilities = excluded.facilities,
			assistant_note = excluded.assistant_note,
			is_complete = excluded.is_complete,
			updated_at = excluded.updated_at`,
		c.ID.String(), c.PatientID.String(), string(cols.history), string(cols.session), string(cols.facilities),
		c.AssistantNote, c.IsComplete, c.CreatedAt.Format(time.RFC3339Nano), c.UpdatedAt.Format(time.RFC3339Nano))
	return err
}
