// Package audit keeps a Postgres ledger of submission outcomes. The ledger is
// informational: the CRM stays the system of record.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"grant-intake/internal/common/logger"
)

const (
	StatusSubmitted = "submitted"
	StatusRejected  = "rejected"
	StatusFailed    = "failed"
	StatusFeedback  = "feedback"
)

// undefinedTable is the Postgres SQLSTATE for a missing relation.
const undefinedTable = "42P01"

var ErrSchemaMissing = errors.New("submission_audit table does not exist")

const schemaDDL = `
CREATE TABLE IF NOT EXISTS submission_audit (
	id             UUID PRIMARY KEY,
	form_type      TEXT NOT NULL,
	application_id TEXT,
	status         TEXT NOT NULL,
	error_code     TEXT,
	details        JSONB NOT NULL DEFAULT '{}',
	created_at     TIMESTAMPTZ NOT NULL
)`

type Entry struct {
	FormType      string
	ApplicationID string
	Status        string
	ErrorCode     string
	Details       map[string]interface{}
}

type Store struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Store{db: db, logger: log, now: time.Now}
}

// EnsureSchema creates the ledger table if needed.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("create submission_audit: %w", err)
	}
	return nil
}

// Record inserts one ledger row and returns its id.
func (s *Store) Record(ctx context.Context, entry Entry) (string, error) {
	details := entry.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		s.logger.Warn("failed to marshal audit details", map[string]interface{}{"error": err})
		detailsJSON = []byte("{}")
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submission_audit (id, form_type, application_id, status, error_code, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id,
		entry.FormType,
		nullable(entry.ApplicationID),
		entry.Status,
		nullable(entry.ErrorCode),
		detailsJSON,
		s.now().UTC(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == undefinedTable {
			return "", ErrSchemaMissing
		}
		return "", fmt.Errorf("insert submission_audit: %w", err)
	}
	return id, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
