package match

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"lifelink/internal/domain"
	dErrors "lifelink/pkg/domain-errors"
	txcontext "lifelink/pkg/platform/tx"
)

// PostgresStore persists matches in PostgreSQL. The matches table carries a
// unique index on (donor_id, recipient_id); that constraint, not the
// application-level pre-check, is what holds the one-match-per-pair
// invariant under concurrent orchestrator and batch runs.
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

const matchColumns = `id, donor_id, recipient_id, organ, score, breakdown, status, created_at, approved_by, approved_at`

// uniqueViolation is the PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

func (s *PostgresStore) Insert(ctx context.Context, m Match) error {
	breakdown, err := json.Marshal(m.Breakdown)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "marshal breakdown")
	}
	_, err = s.conn(ctx).ExecContext(ctx, `
		INSERT INTO matches (`+matchColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)`,
		m.ID, m.DonorID, m.RecipientID, string(m.Organ), m.Score, breakdown, string(m.Status), m.CreatedAt, m.ApprovedBy, m.ApprovedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return dErrors.Wrap(err, dErrors.CodeDuplicateMatch, "match already exists for pair")
		}
		return dErrors.Wrap(err, dErrors.CodePersistence, "insert match")
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Match, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	return s.scanOne(row, "find match")
}

func (s *PostgresStore) FindByPair(ctx context.Context, donorID, recipientID string) (Match, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE donor_id = $1 AND recipient_id = $2`, donorID, recipientID)
	return s.scanOne(row, "find match by pair")
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]Match, error) {
	return s.list(ctx, `
		SELECT `+matchColumns+` FROM matches
		ORDER BY created_at DESC, id`)
}

func (s *PostgresStore) ListPendingByScore(ctx context.Context) ([]Match, error) {
	return s.list(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE status = 'pending'
		ORDER BY score DESC, id`)
}

// UpdateStatus applies a transition only while the row still holds the
// command's FromStatus. Under concurrent transitions the second UPDATE waits
// on the row lock, re-evaluates its predicate against the committed row, and
// matches nothing, so exactly one transition per status wins.
func (s *PostgresStore) UpdateStatus(ctx context.Context, cmd TransitionCommand) (Match, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		UPDATE matches
		SET status = $2,
		    approved_by = COALESCE(NULLIF($3, ''), approved_by),
		    approved_at = COALESCE($4, approved_at)
		WHERE id = $1 AND status = $5
		RETURNING `+matchColumns,
		cmd.MatchID, string(cmd.NewStatus), cmd.ApprovedBy, cmd.ApprovedAt, string(cmd.FromStatus),
	)
	m, err := scanMatch(row)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Match{}, dErrors.Wrap(err, dErrors.CodePersistence, "update match status")
	}
	// Zero rows: the match is either gone or no longer in FromStatus.
	current, findErr := s.FindByID(ctx, cmd.MatchID)
	if findErr != nil {
		return Match{}, findErr
	}
	return Match{}, dErrors.New(dErrors.CodeIllegalTransition,
		"match is "+string(current.Status)+", not "+string(cmd.FromStatus))
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]Match, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "list matches")
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodePersistence, "scan match")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "list matches")
	}
	return out, nil
}

func (s *PostgresStore) scanOne(row *sql.Row, op string) (Match, error) {
	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Match{}, dErrors.New(dErrors.CodeNotFound, "match not found")
		}
		return Match{}, dErrors.Wrap(err, dErrors.CodePersistence, op)
	}
	return m, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (Match, error) {
	var m Match
	var organ, status string
	var breakdown []byte
	var approvedBy sql.NullString
	var approvedAt sql.NullTime
	if err := row.Scan(&m.ID, &m.DonorID, &m.RecipientID, &organ, &m.Score, &breakdown, &status, &m.CreatedAt, &approvedBy, &approvedAt); err != nil {
		return Match{}, err
	}
	m.Organ = domain.Organ(organ)
	m.Status = Status(status)
	if approvedBy.Valid {
		m.ApprovedBy = approvedBy.String
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		m.ApprovedAt = &t
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &m.Breakdown); err != nil {
			return Match{}, err
		}
	}
	return m, nil
}
