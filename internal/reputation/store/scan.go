package store

import (
	"database/sql"
	"errors"
	"fmt"

	"safeline/internal/reputation/models"
	"safeline/pkg/domain"
	"safeline/pkg/phone"
	"safeline/pkg/platform/sentinel"
)

// Row scanning shared by the SQL backends. Both select columns in the same
// order, with ids serialized as text.

func orderClause(mode SortMode) string {
	switch mode {
	case SortReportsAsc:
		return "report_count ASC, n.last_reported_at DESC NULLS LAST"
	case SortLastReportedDesc:
		return "n.last_reported_at DESC NULLS LAST"
	case SortLastReportedAsc:
		return "n.last_reported_at ASC NULLS LAST"
	default:
		return "report_count DESC, n.last_reported_at DESC NULLS LAST"
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNumber(row rowScanner) (*models.PhoneRecord, error) {
	var (
		idText    string
		canonical string
		category  string
		last      sql.NullTime
	)
	err := row.Scan(&idText, &canonical, &category, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan number: %w", err)
	}

	id, err := domain.ParseNumberID(idText)
	if err != nil {
		return nil, fmt.Errorf("scan number: %w", err)
	}
	rec := &models.PhoneRecord{
		ID:              id,
		CanonicalNumber: phone.Canonical(canonical),
		Category:        models.Category(category),
	}
	if last.Valid {
		t := last.Time
		rec.LastReportedAt = &t
	}
	return rec, nil
}

func scanReports(rows *sql.Rows) ([]*models.Report, error) {
	var out []*models.Report
	for rows.Next() {
		var (
			idText     string
			numberText string
			rtype      string
			channel    string
			excerpt    sql.NullString
			rep        models.Report
		)
		if err := rows.Scan(&idText, &numberText, &rtype, &channel, &excerpt, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		id, err := domain.ParseReportID(idText)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		numberID, err := domain.ParseNumberID(numberText)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		rep.ID = id
		rep.NumberID = numberID
		rep.Type = models.ReportType(rtype)
		rep.Channel = models.Channel(channel)
		rep.Excerpt = excerpt.String
		out = append(out, &rep)
	}
	return out, rows.Err()
}

func scanRecordsWithCount(rows *sql.Rows) ([]*RecordWithCount, error) {
	var out []*RecordWithCount
	for rows.Next() {
		var (
			idText    string
			canonical string
			category  string
			last      sql.NullTime
			count     int
		)
		if err := rows.Scan(&idText, &canonical, &category, &last, &count); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		id, err := domain.ParseNumberID(idText)
		if err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		rec := &models.PhoneRecord{
			ID:              id,
			CanonicalNumber: phone.Canonical(canonical),
			Category:        models.Category(category),
		}
		if last.Valid {
			t := last.Time
			rec.LastReportedAt = &t
		}
		out = append(out, &RecordWithCount{Record: rec, ReportCount: count})
	}
	return out, rows.Err()
}
