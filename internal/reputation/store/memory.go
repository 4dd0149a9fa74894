package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"safeline/internal/reputation/models"
	"safeline/pkg/domain"
	"safeline/pkg/phone"
	"safeline/pkg/platform/sentinel"
)

// Memory is the in-memory Store used by unit tests and dev mode. A single
// mutex serializes all access, which makes the check-then-insert sequences
// atomic by construction.
type Memory struct {
	mu          sync.RWMutex
	numbers     map[domain.NumberID]*models.PhoneRecord
	byCanonical map[phone.Canonical]domain.NumberID
	reports     map[domain.NumberID][]*models.Report
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		numbers:     make(map[domain.NumberID]*models.PhoneRecord),
		byCanonical: make(map[phone.Canonical]domain.NumberID),
		reports:     make(map[domain.NumberID][]*models.Report),
	}
}

func (s *Memory) GetOrCreateNumber(ctx context.Context, rec *models.PhoneRecord) (*models.PhoneRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byCanonical[rec.CanonicalNumber]; ok {
		return s.numbers[id].Clone(), false, nil
	}
	cp := rec.Clone()
	s.numbers[cp.ID] = cp
	s.byCanonical[cp.CanonicalNumber] = cp.ID
	return cp.Clone(), true, nil
}

func (s *Memory) FindNumberByID(ctx context.Context, id domain.NumberID) (*models.PhoneRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.numbers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *Memory) FindNumberByCanonical(ctx context.Context, canonical phone.Canonical) (*models.PhoneRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCanonical[canonical]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.numbers[id].Clone(), nil
}

func (s *Memory) InsertReportIfAllowed(ctx context.Context, rep *models.Report, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.numbers[rep.NumberID]
	if !ok {
		return false, sentinel.ErrNotFound
	}

	cutoff := rep.CreatedAt.Add(-window)
	for _, existing := range s.reports[rep.NumberID] {
		if existing.CreatedAt.After(cutoff) {
			return false, nil
		}
	}

	cp := rep.Clone()
	s.reports[rep.NumberID] = append(s.reports[rep.NumberID], cp)
	t := cp.CreatedAt
	rec.LastReportedAt = &t
	return true, nil
}

func (s *Memory) CountReports(ctx context.Context, id domain.NumberID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports[id]), nil
}

func (s *Memory) CountReportsByType(ctx context.Context, id domain.NumberID) (map[models.ReportType]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.ReportType]int)
	for _, rep := range s.reports[id] {
		counts[rep.Type]++
	}
	return counts, nil
}

func (s *Memory) ListReports(ctx context.Context, id domain.NumberID, limit int) ([]*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.reports[id]
	out := make([]*models.Report, 0, len(all))
	for _, rep := range all {
		out = append(out, rep.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Memory) SetCategory(ctx context.Context, id domain.NumberID, cat models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.numbers[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.Category = cat
	return nil
}

func (s *Memory) SetCategoryAuto(ctx context.Context, id domain.NumberID, cat models.Category) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.numbers[id]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if rec.Category == models.CategorySafe || rec.Category == cat {
		return false, nil
	}
	rec.Category = cat
	return true, nil
}

func (s *Memory) ListRecords(ctx context.Context, q ListQuery) ([]*RecordWithCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]*RecordWithCount, 0, len(s.numbers))
	for id, rec := range s.numbers {
		if q.Search != "" && !strings.Contains(string(rec.CanonicalNumber), q.Search) {
			continue
		}
		if q.Category != nil && rec.Category != *q.Category {
			continue
		}
		rows = append(rows, &RecordWithCount{Record: rec.Clone(), ReportCount: len(s.reports[id])})
	}

	sortRows(rows, q.Sort)

	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

// sortRows orders rows by the requested mode. Never-reported records sort
// after reported ones in both time orderings.
func sortRows(rows []*RecordWithCount, mode SortMode) {
	lastDesc := func(a, b *RecordWithCount) bool {
		at, bt := a.Record.LastReportedAt, b.Record.LastReportedAt
		switch {
		case at == nil && bt == nil:
			return false
		case at == nil:
			return false
		case bt == nil:
			return true
		default:
			return at.After(*bt)
		}
	}
	// Not lastDesc reversed: nil timestamps stay last on both
	// directions, matching NULLS LAST in the SQL stores.
	lastAsc := func(a, b *RecordWithCount) bool {
		at, bt := a.Record.LastReportedAt, b.Record.LastReportedAt
		switch {
		case at == nil:
			return false
		case bt == nil:
			return true
		default:
			return at.Before(*bt)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch mode {
		case SortReportsAsc:
			if a.ReportCount != b.ReportCount {
				return a.ReportCount < b.ReportCount
			}
			return lastDesc(a, b)
		case SortLastReportedDesc:
			return lastDesc(a, b)
		case SortLastReportedAsc:
			return lastAsc(a, b)
		default: // SortReportsDesc
			if a.ReportCount != b.ReportCount {
				return a.ReportCount > b.ReportCount
			}
			return lastDesc(a, b)
		}
	})
}

func (s *Memory) Totals(ctx context.Context, recentWindow time.Duration) (*Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := &Totals{Numbers: len(s.numbers)}
	cutoff := time.Now().Add(-recentWindow)
	for _, reps := range s.reports {
		t.Reports += len(reps)
		for _, rep := range reps {
			if rep.CreatedAt.After(cutoff) {
				t.RecentReports++
			}
		}
	}
	return t, nil
}

func (s *Memory) Ping(ctx context.Context) error { return nil }
