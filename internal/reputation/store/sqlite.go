package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"safeline/internal/reputation/models"
	"safeline/pkg/domain"
	"safeline/pkg/phone"
	"safeline/pkg/platform/sentinel"
)

// SQLite is the embedded single-node Store. SQLite serializes writers, so
// the transactional sequences below are race-free without application
// locks.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an open modernc.org/sqlite database.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// Migrate applies the schema. Safe to run repeatedly.
func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLite) GetOrCreateNumber(ctx context.Context, rec *models.PhoneRecord) (*models.PhoneRecord, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO numbers (id, canonical_number, category)
		VALUES (?, ?, ?)
		ON CONFLICT(canonical_number) DO NOTHING
	`, rec.ID.String(), string(rec.CanonicalNumber), string(rec.Category))
	if err != nil {
		return nil, false, fmt.Errorf("insert number: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert number rows affected: %w", err)
	}

	got, err := s.FindNumberByCanonical(ctx, rec.CanonicalNumber)
	if err != nil {
		return nil, false, err
	}
	return got, inserted > 0, nil
}

func (s *SQLite) FindNumberByID(ctx context.Context, id domain.NumberID) (*models.PhoneRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, canonical_number, category, last_reported_at
		FROM numbers
		WHERE id = ?
	`, id.String())
	return scanNumber(row)
}

func (s *SQLite) FindNumberByCanonical(ctx context.Context, canonical phone.Canonical) (*models.PhoneRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, canonical_number, category, last_reported_at
		FROM numbers
		WHERE canonical_number = ?
	`, string(canonical))
	return scanNumber(row)
}

func (s *SQLite) InsertReportIfAllowed(ctx context.Context, rep *models.Report, window time.Duration) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin report tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM numbers WHERE id = ?`, rep.NumberID.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, sentinel.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("check number exists: %w", err)
	}

	// Insert only when the trailing window is clear; the existence check
	// and the insert commit atomically. Timestamps are stored in UTC so
	// sqlite's text comparison orders them correctly.
	createdAt := rep.CreatedAt.UTC()
	cutoff := createdAt.Add(-window)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO reports (id, number_id, report_type, channel, message_excerpt, created_at)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM reports WHERE number_id = ? AND created_at > ?
		)
	`, rep.ID.String(), rep.NumberID.String(), string(rep.Type), string(rep.Channel),
		nullString(rep.Excerpt), createdAt, rep.NumberID.String(), cutoff)
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
		UPDATE numbers SET last_reported_at = ? WHERE id = ?
	`, createdAt, rep.NumberID.String()); err != nil {
		return false, fmt.Errorf("update last reported at: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit report tx: %w", err)
	}
	return true, nil
}

func (s *SQLite) CountReports(ctx context.Context, id domain.NumberID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reports WHERE number_id = ?
	`, id.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

func (s *SQLite) CountReportsByType(ctx context.Context, id domain.NumberID) (map[models.ReportType]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT report_type, COUNT(*)
		FROM reports
		WHERE number_id = ?
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

func (s *SQLite) ListReports(ctx context.Context, id domain.NumberID, limit int) ([]*models.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, number_id, report_type, channel, message_excerpt, created_at
		FROM reports
		WHERE number_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, id.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

func (s *SQLite) SetCategory(ctx context.Context, id domain.NumberID, cat models.Category) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE numbers SET category = ? WHERE id = ?
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

func (s *SQLite) SetCategoryAuto(ctx context.Context, id domain.NumberID, cat models.Category) (bool, error) {
	// The guard lives in the statement so a concurrent manual Safe wins.
	res, err := s.db.ExecContext(ctx, `
		UPDATE numbers
		SET category = ?
		WHERE id = ? AND category <> 'Safe' AND category <> ?
	`, string(cat), id.String(), string(cat))
	if err != nil {
		return false, fmt.Errorf("set category auto: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set category auto rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SQLite) ListRecords(ctx context.Context, q ListQuery) ([]*RecordWithCount, error) {
	category := ""
	if q.Category != nil {
		category = string(*q.Category)
	}
	query := `
		SELECT n.id, n.canonical_number, n.category, n.last_reported_at,
		       COUNT(r.id) AS report_count
		FROM numbers n
		LEFT JOIN reports r ON r.number_id = n.id
		WHERE (? = '' OR instr(n.canonical_number, ?) > 0)
		  AND (? = '' OR n.category = ?)
		GROUP BY n.id, n.canonical_number, n.category, n.last_reported_at
		ORDER BY ` + orderClause(q.Sort) + `
		LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query,
		q.Search, q.Search, category, category, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()
	return scanRecordsWithCount(rows)
}

func (s *SQLite) Totals(ctx context.Context, recentWindow time.Duration) (*Totals, error) {
	t := &Totals{}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM numbers`).Scan(&t.Numbers); err != nil {
		return nil, fmt.Errorf("count numbers: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&t.Reports); err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}
	cutoff := time.Now().UTC().Add(-recentWindow)
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reports WHERE created_at > ?
	`, cutoff).Scan(&t.RecentReports); err != nil {
		return nil, fmt.Errorf("count recent reports: %w", err)
	}
	return t, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
