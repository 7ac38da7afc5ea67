package consultation

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
)

// ErrNotFound is returned when no consultation has the requested id.
var ErrNotFound = errors.New("consultation not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	Save(ctx context.Context, c *Consultation) error
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the embedded Postgres migrations to databaseURL.
func Migrate(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("migration init: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}
	return nil
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	query := `SELECT id, patient_id, history, session, facilities, assistant_note, is_complete, created_at, updated_at
		FROM consultations WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)
	c, err := scanConsultation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresRepo) Save(ctx context.Context, c *Consultation) error {
	cols, err := encodeColumns(c)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO consultations (id, patient_id, history, session, facilities, assistant_note, is_complete, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			history = $3,
			session = $4,
			facilities = $5,
			assistant_note = $6,
			is_complete = $7,
			updated_at = $9
	`
	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.PatientID, string(cols.history), string(cols.session), string(cols.facilities), c.AssistantNote, c.IsComplete, c.CreatedAt, c.UpdatedAt)
	return err
}

func scanConsultation(row *sql.Row) (*Consultation, error) {
	var c Consultation
	var historyJSON, sessionJSON, facilitiesJSON []byte

	err := row.Scan(
		&c.ID,
		&c.PatientID,
		&historyJSON,
		&sessionJSON,
		&facilitiesJSON,
		&c.AssistantNote,
		&c.IsComplete,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := decodeColumns(&c, historyJSON, sessionJSON, facilitiesJSON); err != nil {
		return nil, err
	}
	return &c, nil
}

func decodeColumns(c *Consultation, history, session, facilities []byte) error {
	if len(history) > 0 {
		if err := json.Unmarshal(history, &c.History); err != nil {
			return fmt.Errorf("failed to unmarshal history: %w", err)
		}
	}
	if len(session) > 0 {
		if err := json.Unmarshal(session, &c.Session); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}
	}
	if len(facilities) > 0 && string(facilities) != "null" {
		if err := json.Unmarshal(facilities, &c.Facilities); err != nil {
			return fmt.Errorf("failed to unmarshal facilities: %w", err)
		}
	}
	return nil
}

type encoded struct {
	history, session, facilities []byte
}

// encodeColumns stamps timestamps and marshals the JSON columns.
func encodeColumns(c *Consultation) (encoded, error) {
	var e encoded
	var err error

	if c.History == nil {
		c.History = []Message{}
	}
	if e.history, err = json.Marshal(c.History); err != nil {
		return e, err
	}
	if e.session, err = json.Marshal(c.Session); err != nil {
		return e, err
	}
	if e.facilities, err = json.Marshal(c.Facilities); err != nil {
		return e, err
	}

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	return e, nil
}
