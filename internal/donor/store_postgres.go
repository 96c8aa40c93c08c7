package donor

import (
	"context"
	"database/sql"
	"errors"

	"lifelink/internal/domain"
	dErrors "lifelink/pkg/domain-errors"
	txcontext "lifelink/pkg/platform/tx"
)

// PostgresStore persists donors in PostgreSQL. Mutations join a caller
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

const donorColumns = `id, name, blood_type, organ, location, age, active, status, created_at`

func (s *PostgresStore) Insert(ctx context.Context, d Donor) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO donors (`+donorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.Name, string(d.BloodType), string(d.Organ), d.Location, d.Age, d.Active, string(d.Status), d.CreatedAt,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "insert donor")
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Donor, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+donorColumns+` FROM donors WHERE id = $1`, id)
	d, err := scanDonor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Donor{}, dErrors.New(dErrors.CodeNotFound, "donor not found")
		}
		return Donor{}, dErrors.Wrap(err, dErrors.CodePersistence, "find donor")
	}
	return d, nil
}

func (s *PostgresStore) FindActiveByOrgan(ctx context.Context, organ domain.Organ) ([]Donor, error) {
	return s.list(ctx, `
		SELECT `+donorColumns+` FROM donors
		WHERE active AND status = 'active' AND organ = $1
		ORDER BY created_at, id`, string(organ))
}

func (s *PostgresStore) FindAllActive(ctx context.Context) ([]Donor, error) {
	return s.list(ctx, `
		SELECT `+donorColumns+` FROM donors
		WHERE active AND status = 'active'
		ORDER BY created_at, id`)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status Status) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE donors SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "update donor status")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "update donor status")
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "donor not found")
	}
	return nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]Donor, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "list donors")
	}
	defer rows.Close()

	var out []Donor
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodePersistence, "scan donor")
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "list donors")
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonor(row rowScanner) (Donor, error) {
	var d Donor
	var bloodType, organ, status string
	if err := row.Scan(&d.ID, &d.Name, &bloodType, &organ, &d.Location, &d.Age, &d.Active, &status, &d.CreatedAt); err != nil {
		return Donor{}, err
	}
	d.BloodType = domain.BloodType(bloodType)
	d.Organ = domain.Organ(organ)
	d.Status = Status(status)
	return d, nil
}
