package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"safeline/internal/reputation/models"
	"safeline/pkg/domain"
	"safeline/pkg/phone"
	"safeline/pkg/platform/sentinel"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// Postgres is the server-deployment Store, for installations that outgrow
// the embedded file. Pure I/O; races are closed with row locks and
// conflict-triggered re-fetch, not advisory pre-checks.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open pgx stdlib database.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate applies the schema. Safe to run repeatedly.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate postgres schema: %w", err)
	}
	return nil
}

func (s *Postgres) GetOrCreateNumber(ctx context.Context, rec *models.PhoneRecord) (*models.PhoneRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO numbers (id, canonical_number, category)
		VALUES ($1, $2, $3)
		RETURNING id::text, canonical_number, category, last_reported_at
	`, rec.ID.String(), string(rec.CanonicalNumber), string(rec.Category))

	created, err := scanNumber(row)
	if err == nil {
		return created, true, nil
	}

	// Concurrent creators hit the unique constraint; the loser re-fetches
	// the winner's row.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		existing, ferr := s.FindNumberByCanonical(ctx, rec.CanonicalNumber)
		if ferr != nil {
			return nil, false, ferr
		}
		return existing, false, nil
	}
	return nil, false, fmt.Errorf("insert number: %w", err)
}

func (s *Postgres) FindNumberByID(ctx context.Context, id domain.NumberID) (*models.PhoneRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id::text, canonical_number, category, last_reported_at
		FROM numbers
		WHERE id = $1
	`, id.String())
	return scanNumber(row)
}

func (s *Postgres) FindNumberByCanonical(ctx context.Context, canonical phone.Canonical) (*models.PhoneRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id::text, canonical_number, category, last_reported_at
		FROM numbers
		WHERE canonical_number = $1
	`, string(canonical))
	return scanNumber(row)
}

func (s *Postgres) InsertReportIfAllowed(ctx context.Context, rep *models.Report, window time.Duration) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin report tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Lock the parent row: concurrent submissions for the same number
	// serialize here, so both cannot pass the window check.
	var one int
	err = tx.QueryRowContext(ctx, `
		SELECT 1 FROM numbers WHERE id = $1 FOR UPDATE
	`, rep.NumberID.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, sentinel.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("lock number row: %w", err)
	}

	cutoff := rep.CreatedAt.Add(-window)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO reports (id, number_id, report_type, channel, message_excerpt, created_at)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE NOT EXISTS (
			SELECT 1 FROM reports WHERE number_id = $2 AND created_at > $7
		)
	`, rep.ID.String(), rep.NumberID.String(), string(rep.Type), string(rep.Channel),
		nullString(rep.Excerpt), rep.CreatedAt, cutoff)
	if err != nil {
		return false, fmt.Errorf("insert report: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert report rows affected: %w", err)
	}
	if inserted == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE numbers SET last_reported_at = $1 WHERE id = $2
	`, rep.CreatedAt, rep.NumberID.String()); err != nil {
		return false, fmt.Errorf("update last reported at: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit report tx: %w", err)
	}
	return true, nil
}

func (s *Postgres) CountReports(ctx context.Context, id domain.NumberID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reports WHERE number_id = $1
	`, id.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

func (s *Postgres) CountReportsByType(ctx context.Context, id domain.NumberID) (map[models.ReportType]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT report_type, COUNT(*)
		FROM reports
		WHERE number_id = $1
		GROUP BY report_type
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("count reports by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ReportType]int)
	for rows.Next() {
		var rt string
		var n int
		if err := rows.Scan(&rt, &n); err != nil {
			return nil, fmt.Errorf("scan report type count: %w", err)
		}
		counts[models.ReportType(rt)] = n
	}
	return counts, rows.Err()
}

func (s *Postgres) ListReports(ctx context.Context, id domain.NumberID, limit int) ([]*models.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id::text, number_id::text, report_type, channel, message_excerpt, created_at
		FROM reports
		WHERE number_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, id.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

func (s *Postgres) SetCategory(ctx context.Context, id domain.NumberID, cat models.Category) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE numbers SET category = $1 WHERE id = $2
	`, string(cat), id.String())
	if err != nil {
		return fmt.Errorf("set category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set category rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) SetCategoryAuto(ctx context.Context, id domain.NumberID, cat models.Category) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE numbers
		SET category = $1
		WHERE id = $2 AND category <> 'Safe' AND category <> $1
	`, string(cat), id.String())
	if err != nil {
		return false, fmt.Errorf("set category auto: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set category auto rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Postgres) ListRecords(ctx context.Context, q ListQuery) ([]*RecordWithCount, error) {
	category := ""
	if q.Category != nil {
		category = string(*q.Category)
	}
	query := `
		SELECT n.id::text, n.canonical_number, n.category, n.last_reported_at,
		       COUNT(r.id) AS report_count
		FROM numbers n
		LEFT JOIN reports r ON r.number_id = n.id
		WHERE ($1 = '' OR POSITION($1 IN n.canonical_number) > 0)
		  AND ($2 = '' OR n.category = $2)
		GROUP BY n.id, n.canonical_number, n.category, n.last_reported_at
		ORDER BY ` + orderClause(q.Sort) + `
		LIMIT $3`
	rows, err := s.db.QueryContext(ctx, query, q.Search, category, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()
	return scanRecordsWithCount(rows)
}

func (s *Postgres) Totals(ctx context.Context, recentWindow time.Duration) (*Totals, error) {
	t := &Totals{}
	cutoff := time.Now().Add(-recentWindow)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM numbers),
			(SELECT COUNT(*) FROM reports),
			(SELECT COUNT(*) FROM reports WHERE created_at > $1)
	`, cutoff).Scan(&t.Numbers, &t.Reports, &t.RecentReports)
	if err != nil {
		return nil, fmt.Errorf("totals: %w", err)
	}
	return t, nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
