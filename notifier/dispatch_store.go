package notifier

import (
	"context"
	"database/sql"
	"fmt"
)

// DispatchStore is the idempotency guard's backing store. A lookup miss is
// the only condition under which a notification may be posted; marking
// happens only after the channel confirmed the post. The check-then-act
// sequence is not atomic against a racing duplicate trigger: the occasional
// duplicate post is tolerated, but the stored record converges to a single
// row per fingerprint.
type DispatchStore interface {
	AlreadyDispatched(ctx context.Context, fingerprint string) (bool, error)
	MarkDispatched(ctx context.Context, rec DispatchRecord) error
}

// MySQLDispatchStore keeps dispatch records in the tweet_status table,
// keyed by fingerprint.
type MySQLDispatchStore struct {
	db *sql.DB
}

// NewMySQLDispatchStore creates a new MySQLDispatchStore
func NewMySQLDispatchStore(db *sql.DB) *MySQLDispatchStore {
	return &MySQLDispatchStore{
		db: db,
	}
}

// AlreadyDispatched reports whether a record exists for the fingerprint.
func (s *MySQLDispatchStore) AlreadyDispatched(ctx context.Context, fingerprint string) (bool, error) {
	query := "SELECT EXISTS(SELECT 1 FROM `tweet_status` WHERE `hash` = ?)"

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, fingerprint).Scan(&exists); err != nil {
		return false, fmt.Errorf("dispatch records: lookup: %v: %w", err, ErrStore)
	}

	return exists, nil
}

// MarkDispatched records the fingerprint as sent. The first writer wins;
// a lost race leaves the existing row untouched.
func (s *MySQLDispatchStore) MarkDispatched(ctx context.Context, rec DispatchRecord) error {
	query := "INSERT INTO `tweet_status` " +
		"(`hash`, `stream`, `text`, `payload`, `sent_at`) " +
		"VALUES (?, ?, ?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE `hash` = `hash`"

	_, err := s.db.ExecContext(ctx, query, rec.Fingerprint, rec.Stream, rec.Text, rec.Payload, rec.SentAt.UTC())
	if err != nil {
		return fmt.Errorf("dispatch records: mark %s: %v: %w", rec.Fingerprint, err, ErrStore)
	}

	return nil
}
