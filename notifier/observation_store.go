package notifier

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// NewDBConnection opens a new connection pool using the configured DSN
func NewDBConnection(config MySQLConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("database connection error: %s", err)
	}

	return db, nil
}

// ObservationStore appends StoredObservation rows. Rows are never updated
// in place; a retried run after a crash may insert a duplicate row for the
// same content, which the dispatch guard deduplicates downstream.
type ObservationStore interface {
	Put(ctx context.Context, obs StoredObservation) error
}

// MySQLObservationStore writes observations to the observations table.
type MySQLObservationStore struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// NewMySQLObservationStore creates a new MySQLObservationStore
func NewMySQLObservationStore(db *sql.DB) *MySQLObservationStore {
	return &MySQLObservationStore{
		db: db,
	}
}

func (s *MySQLObservationStore) prepareStmt(ctx context.Context) (*sql.Stmt, error) {
	if s.stmt != nil {
		return s.stmt, nil
	}

	query := "INSERT INTO `observations` " +
		"(`stream`, `record_date`, `fingerprint`, `payload`, `created_at`) " +
		"VALUES (?, ?, ?, ?, ?)"

	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("observations: %v: %w", err, ErrStore)
	}

	s.stmt = stmt

	return stmt, nil
}

// Put inserts a single observation row.
func (s *MySQLObservationStore) Put(ctx context.Context, obs StoredObservation) error {
	stmt, err := s.prepareStmt(ctx)
	if err != nil {
		return err
	}

	_, err = stmt.ExecContext(ctx, obs.Stream, obs.RecordDate, obs.Fingerprint, obs.Payload, obs.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("observations: put %s/%s: %v: %w", obs.Stream, obs.RecordDate, err, ErrStore)
	}

	return nil
}
