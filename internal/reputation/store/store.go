// Package store persists phone records and their report ledger. Stores are
// pure I/O: they enforce storage invariants (uniqueness, the atomic rate
// window insert) and return sentinel errors; business policy lives in the
// service layer.
package store

import (
	"context"
	"fmt"
	"time"

	"safeline/internal/reputation/models"
	"safeline/pkg/domain"
	"safeline/pkg/phone"
)

// SortMode orders ListRecords results. Count sorts use last_reported_at
// descending as the tiebreaker.
type SortMode string

const (
	SortReportsDesc      SortMode = "reports_desc"
	SortReportsAsc       SortMode = "reports_asc"
	SortLastReportedDesc SortMode = "last_reported_desc"
	SortLastReportedAsc  SortMode = "last_reported_asc"
)

// ParseSortMode validates and returns a SortMode.
func ParseSortMode(s string) (SortMode, error) {
	m := SortMode(s)
	switch m {
	case SortReportsDesc, SortReportsAsc, SortLastReportedDesc, SortLastReportedAsc:
		return m, nil
	}
	return "", fmt.Errorf("unknown sort mode: %q", s)
}

// ListQuery filters and orders the administrative record listing.
type ListQuery struct {
	// Search is a substring match against the canonical number; empty
	// matches everything.
	Search string
	// Category restricts to one category; nil matches all.
	Category *models.Category
	Sort     SortMode
	// Limit caps the result size and must be positive.
	Limit int
}

// RecordWithCount joins a record with its ledger size so callers can
// derive score and label without another round trip.
type RecordWithCount struct {
	Record      *models.PhoneRecord
	ReportCount int
}

// Totals summarizes the whole store for the admin dashboard.
type Totals struct {
	Numbers       int
	Reports       int
	RecentReports int
}

// Store is the persistence port for the reputation service.
type Store interface {
	// GetOrCreateNumber inserts rec unless a record with the same
	// canonical number already exists, and returns the live record plus
	// whether it was created by this call. The uniqueness decision is
	// made by the store atomically, never by a caller-side pre-check.
	GetOrCreateNumber(ctx context.Context, rec *models.PhoneRecord) (*models.PhoneRecord, bool, error)

	// FindNumberByID returns the record or sentinel.ErrNotFound.
	FindNumberByID(ctx context.Context, id domain.NumberID) (*models.PhoneRecord, error)

	// FindNumberByCanonical returns the record or sentinel.ErrNotFound.
	FindNumberByCanonical(ctx context.Context, canonical phone.Canonical) (*models.PhoneRecord, error)

	// InsertReportIfAllowed appends rep to the ledger only if the number
	// has no report within the trailing window ending at rep.CreatedAt,
	// updating the record's last_reported_at in the same transaction.
	// Returns false with no write when the window is still occupied.
	// Returns sentinel.ErrNotFound when the number does not exist.
	InsertReportIfAllowed(ctx context.Context, rep *models.Report, window time.Duration) (bool, error)

	// CountReports returns the ledger size for one number.
	CountReports(ctx context.Context, id domain.NumberID) (int, error)

	// CountReportsByType returns per-type ledger counts for one number.
	// Types with zero reports are absent from the map.
	CountReportsByType(ctx context.Context, id domain.NumberID) (map[models.ReportType]int, error)

	// ListReports returns the newest reports for a number, newest first.
	ListReports(ctx context.Context, id domain.NumberID, limit int) ([]*models.Report, error)

	// SetCategory writes the category unconditionally (manual override).
	SetCategory(ctx context.Context, id domain.NumberID, cat models.Category) error

	// SetCategoryAuto writes the category only if the current one is
	// neither Safe nor already equal to cat. Returns whether a write
	// happened, so the sticky Safe rule holds under concurrent writers.
	SetCategoryAuto(ctx context.Context, id domain.NumberID, cat models.Category) (bool, error)

	// ListRecords runs the filtered, sorted, limited administrative query.
	ListRecords(ctx context.Context, q ListQuery) ([]*RecordWithCount, error)

	// Totals counts numbers, reports, and reports newer than now-recentWindow.
	Totals(ctx context.Context, recentWindow time.Duration) (*Totals, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}
