// Package service implements the phone reputation operations: identity
// resolution, rate-limited report ingestion, derived risk stats, category
// management, and the administrative query surface.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"safeline/internal/reputation/metrics"
	"safeline/internal/reputation/models"
	"safeline/internal/reputation/store"
	"safeline/pkg/domain"
	dErrors "safeline/pkg/domain-errors"
	"safeline/pkg/phone"
	"safeline/pkg/platform/sentinel"
)

// Defaults applied when a caller passes a non-positive limit.
const (
	defaultRecentsLimit = 20
	defaultListLimit    = 50
)

type Service struct {
	store        store.Store
	norm         phone.Normalizer
	window       time.Duration
	recentWindow time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRecentWindow sets the trailing window used by Totals.
func WithRecentWindow(d time.Duration) Option {
	return func(s *Service) { s.recentWindow = d }
}

// WithClock injects the time source. Tests use this to walk the rate
// window without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New builds the reputation service. window is the rolling interval during
// which at most one report per number is accepted; it is policy, so it is
// an explicit argument rather than a constant.
func New(st store.Store, norm phone.Normalizer, window time.Duration, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("reputation store is required")
	}
	if window <= 0 {
		return nil, errors.New("report window must be positive")
	}

	svc := &Service{
		store:        st,
		norm:         norm,
		window:       window,
		recentWindow: 24 * time.Hour,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// LookupOrCreate resolves raw input to its phone record, creating the
// record on first sight. Unnormalizable input never touches storage.
func (s *Service) LookupOrCreate(ctx context.Context, raw string) (*models.PhoneRecord, error) {
	canonical, err := s.norm.Normalize(raw)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "unrecognizable phone number")
	}

	rec := &models.PhoneRecord{
		ID:              domain.NewNumberID(),
		CanonicalNumber: canonical,
		Category:        models.CategoryUnknown,
	}
	got, created, err := s.store.GetOrCreateNumber(ctx, rec)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve phone record")
	}

	s.metrics.IncLookups()
	if created {
		s.metrics.IncNumbersCreated()
		s.logger.InfoContext(ctx, "phone record created",
			"number_id", got.ID.String(),
		)
	}
	return got, nil
}

// SubmitResult is the outcome of one submission attempt. RateLimited is an
// expected outcome, not an error.
type SubmitResult struct {
	Accepted bool
	// Report is the accepted ledger entry; nil when rate limited.
	Report *models.Report
	// NewCategory is set when this report moved the record's category.
	NewCategory *models.Category
}

// SubmitReport appends a report unless one was already accepted for the
// number inside the rolling window, then re-evaluates the category rules.
func (s *Service) SubmitReport(ctx context.Context, numberID domain.NumberID, reportType models.ReportType, channel models.Channel, excerpt string) (*SubmitResult, error) {
	if numberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "number id is required")
	}
	if !reportType.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid report type")
	}
	if !channel.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid channel")
	}

	rec, err := s.store.FindNumberByID(ctx, numberID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "phone record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load phone record")
	}

	rep := &models.Report{
		ID:        domain.NewReportID(),
		NumberID:  numberID,
		Type:      reportType,
		Channel:   channel,
		Excerpt:   excerpt,
		CreatedAt: s.now(),
	}
	accepted, err := s.store.InsertReportIfAllowed(ctx, rep, s.window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record report")
	}
	if !accepted {
		s.metrics.IncReportsRateLimited()
		return &SubmitResult{Accepted: false}, nil
	}

	s.metrics.IncReportsAccepted(reportType.String())
	result := &SubmitResult{Accepted: true, Report: rep}

	// Safe is a manual verdict; automation never overrides it.
	if rec.Category == models.CategorySafe {
		return result, nil
	}

	counts, err := s.store.CountReportsByType(ctx, numberID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count reports")
	}
	next := Classify(counts)
	if next == rec.Category {
		return result, nil
	}

	changed, err := s.store.SetCategoryAuto(ctx, numberID, next)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update category")
	}
	if changed {
		result.NewCategory = &next
		s.metrics.IncCategoryChanges(next.String())
		s.logger.InfoContext(ctx, "category changed",
			"number_id", numberID.String(),
			"from", rec.Category.String(),
			"to", next.String(),
		)
	}
	return result, nil
}

// Stats is the derived risk view of one record, recomputed on every read.
type Stats struct {
	ReportCount int
	Score       int
	Label       models.RiskLabel
}

// GetStats returns the report count and the derived score and label.
func (s *Service) GetStats(ctx context.Context, numberID domain.NumberID) (*Stats, error) {
	if numberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "number id is required")
	}
	if _, err := s.store.FindNumberByID(ctx, numberID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "phone record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load phone record")
	}

	count, err := s.store.CountReports(ctx, numberID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count reports")
	}
	score := models.Score(count)
	return &Stats{ReportCount: count, Score: score, Label: models.LabelForScore(score)}, nil
}

// SetCategory applies a manual category, including Safe, which then
// suppresses automatic changes until moved off Safe manually.
func (s *Service) SetCategory(ctx context.Context, numberID domain.NumberID, cat models.Category) error {
	if numberID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "number id is required")
	}
	if !cat.IsValid() {
		return dErrors.New(dErrors.CodeBadRequest, "invalid category")
	}

	if err := s.store.SetCategory(ctx, numberID, cat); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "phone record not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set category")
	}

	s.logger.InfoContext(ctx, "category set manually",
		"number_id", numberID.String(),
		"category", cat.String(),
	)
	return nil
}

// ListRecents returns the newest reports for a record, newest first.
func (s *Service) ListRecents(ctx context.Context, numberID domain.NumberID, limit int) ([]*models.Report, error) {
	if numberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "number id is required")
	}
	if limit <= 0 {
		limit = defaultRecentsLimit
	}

	reports, err := s.store.ListReports(ctx, numberID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reports")
	}
	return reports, nil
}

// ListRecords runs the administrative filter/sort/limit query.
func (s *Service) ListRecords(ctx context.Context, q store.ListQuery) ([]*store.RecordWithCount, error) {
	if q.Sort == "" {
		q.Sort = store.SortReportsDesc
	}
	if _, err := store.ParseSortMode(string(q.Sort)); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid sort mode")
	}
	if q.Category != nil && !q.Category.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid category filter")
	}
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}

	rows, err := s.store.ListRecords(ctx, q)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}
	return rows, nil
}

// Totals summarizes the store for the admin dashboard.
func (s *Service) Totals(ctx context.Context) (*store.Totals, error) {
	totals, err := s.store.Totals(ctx, s.recentWindow)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute totals")
	}
	return totals, nil
}

// Ping reports store health for the liveness endpoint.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store unreachable")
	}
	return nil
}
