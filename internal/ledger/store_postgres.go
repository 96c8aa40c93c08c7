package ledger

import (
	"context"
	"database/sql"

	dErrors "lifelink/pkg/domain-errors"
	txcontext "lifelink/pkg/platform/tx"
)

// PostgresStore appends ledger events to PostgreSQL. Appends join a caller
// transaction when one is present so notarization of a lifecycle step lands
// with the step itself.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) conn(ctx context.Context) execer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO ledger_events (id, tx_hash, type, match_id, donor_id, recipient_id, organ, score, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		event.ID, event.TxHash, string(event.Type), event.MatchID, event.DonorID, event.RecipientID, event.Organ, event.Score, event.Status, event.CreatedAt,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "append ledger event")
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tx_hash, type, match_id, donor_id, recipient_id, organ, score, status, created_at
		FROM ledger_events
		ORDER BY created_at DESC, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "list ledger events")
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var eventType string
		if err := rows.Scan(&e.ID, &e.TxHash, &eventType, &e.MatchID, &e.DonorID, &e.RecipientID, &e.Organ, &e.Score, &e.Status, &e.CreatedAt); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodePersistence, "scan ledger event")
		}
		e.Type = EventType(eventType)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "list ledger events")
	}
	return out, nil
}
