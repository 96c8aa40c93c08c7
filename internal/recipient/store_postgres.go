package recipient

import (
	"context"
	"database/sql"
	"errors"

	"lifelink/internal/domain"
	dErrors "lifelink/pkg/domain-errors"
	txcontext "lifelink/pkg/platform/tx"
)

// PostgresStore persists recipients in PostgreSQL. Mutations join a caller
// transaction when one is present in context.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) conn(ctx context.Context) dbtx {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const recipientColumns = `id, name, blood_type, organ_needed, location, age, urgency_level, active, status, registered_at`

func (s *PostgresStore) Insert(ctx context.Context, r Recipient) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO recipients (`+recipientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.Name, string(r.BloodType), string(r.OrganNeeded), r.Location, r.Age, r.UrgencyLevel, r.Active, string(r.Status), r.RegisteredAt,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "insert recipient")
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Recipient, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+recipientColumns+` FROM recipients WHERE id = $1`, id)
	r, err := scanRecipient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Recipient{}, dErrors.New(dErrors.CodeNotFound, "recipient not found")
		}
		return Recipient{}, dErrors.Wrap(err, dErrors.CodePersistence, "find recipient")
	}
	return r, nil
}

func (s *PostgresStore) FindWaitingByOrgan(ctx context.Context, organ domain.Organ) ([]Recipient, error) {
	return s.list(ctx, `
		SELECT `+recipientColumns+` FROM recipients
		WHERE active AND status = 'waiting' AND organ_needed = $1
		ORDER BY registered_at, id`, string(organ))
}

func (s *PostgresStore) FindAllWaiting(ctx context.Context) ([]Recipient, error) {
	return s.list(ctx, `
		SELECT `+recipientColumns+` FROM recipients
		WHERE active AND status = 'waiting'
		ORDER BY registered_at, id`)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status Status) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE recipients SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "update recipient status")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "update recipient status")
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "recipient not found")
	}
	return nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]Recipient, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "list recipients")
	}
	defer rows.Close()

	var out []Recipient
	for rows.Next() {
		r, err := scanRecipient(rows)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodePersistence, "scan recipient")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "list recipients")
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipient(row rowScanner) (Recipient, error) {
	var r Recipient
	var bloodType, organ, status string
	if err := row.Scan(&r.ID, &r.Name, &bloodType, &organ, &r.Location, &r.Age, &r.UrgencyLevel, &r.Active, &status, &r.RegisteredAt); err != nil {
		return Recipient{}, err
	}
	r.BloodType = domain.BloodType(bloodType)
	r.OrganNeeded = domain.Organ(organ)
	r.Status = Status(status)
	return r, nil
}
