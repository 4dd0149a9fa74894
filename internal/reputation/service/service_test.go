package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"safeline/internal/reputation/models"
	"safeline/internal/reputation/store"
	"safeline/pkg/domain"
	dErrors "safeline/pkg/domain-errors"
	"safeline/pkg/phone"
)

type ServiceSuite struct {
	suite.Suite
	store *store.Memory
	svc   *Service
	ctx   context.Context
	now   time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewMemory()
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	svc, err := New(s.store, phone.Default(), 24*time.Hour,
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *ServiceSuite) advance(d time.Duration) {
	s.now = s.now.Add(d)
}

func (s *ServiceSuite) TestLookupOrCreate() {
	s.Run("creates record with Unknown category and no last report", func() {
		rec, err := s.svc.LookupOrCreate(s.ctx, "0532 111 22 33")
		s.Require().NoError(err)
		s.Equal(phone.Canonical("+905321112233"), rec.CanonicalNumber)
		s.Equal(models.CategoryUnknown, rec.Category)
		s.Nil(rec.LastReportedAt)
	})

	s.Run("equivalent spellings resolve to the same record", func() {
		first, err := s.svc.LookupOrCreate(s.ctx, "0532 111 22 33")
		s.Require().NoError(err)
		second, err := s.svc.LookupOrCreate(s.ctx, "+90 532 111 22 33")
		s.Require().NoError(err)
		third, err := s.svc.LookupOrCreate(s.ctx, "905321112233")
		s.Require().NoError(err)

		s.Equal(first.ID, second.ID)
		s.Equal(first.ID, third.ID)
	})

	s.Run("invalid input touches nothing", func() {
		_, err := s.svc.LookupOrCreate(s.ctx, "not a phone")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))

		totals, err := s.store.Totals(s.ctx, time.Hour)
		s.Require().NoError(err)
		s.Equal(0, totals.Numbers)
	})
}

func (s *ServiceSuite) TestSubmitReportRateWindow() {
	rec, err := s.svc.LookupOrCreate(s.ctx, "05321112233")
	s.Require().NoError(err)

	res, err := s.svc.SubmitReport(s.ctx, rec.ID, models.ReportTypeScam, models.ChannelCall, "asked for bank PIN")
	s.Require().NoError(err)
	s.True(res.Accepted)
	s.Require().NotNil(res.Report)
	s.Equal(s.now, res.Report.CreatedAt)

	s.Run("second report inside the window is rate limited", func() {
		s.advance(1 * time.Hour)
		res, err := s.svc.SubmitReport(s.ctx, rec.ID, models.ReportTypeScam, models.ChannelCall, "")
		s.Require().NoError(err)
		s.False(res.Accepted)
		s.Nil(res.Report)

		count, err := s.store.CountReports(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("report after the window is accepted", func() {
		s.advance(24 * time.Hour) // now 25h past the first report
		res, err := s.svc.SubmitReport(s.ctx, rec.ID, models.ReportTypeScam, models.ChannelSMS, "")
		s.Require().NoError(err)
		s.True(res.Accepted)
	})

	s.Run("last reported at mirrors the newest report", func() {
		got, err := s.store.FindNumberByID(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Require().NotNil(got.LastReportedAt)
		s.Equal(s.now, *got.LastReportedAt)
	})
}

func (s *ServiceSuite) TestSubmitReportValidation() {
	rec, err := s.svc.LookupOrCreate(s.ctx, "05321112233")
	s.Require().NoError(err)

	_, err = s.svc.SubmitReport(s.ctx, rec.ID, "Pyramid", models.ChannelCall, "")
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))

	_, err = s.svc.SubmitReport(s.ctx, rec.ID, models.ReportTypeScam, "Fax", "")
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))

	_, err = s.svc.SubmitReport(s.ctx, domain.NewNumberID(), models.ReportTypeScam, models.ChannelCall, "")
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

// submitN accepts n reports of one type, spacing them past the window.
func (s *ServiceSuite) submitN(id domain.NumberID, rt models.ReportType, n int) *SubmitResult {
	var last *SubmitResult
	for i := 0; i < n; i++ {
		s.advance(25 * time.Hour)
		res, err := s.svc.SubmitReport(s.ctx, id, rt, models.ChannelCall, "")
		s.Require().NoError(err)
		s.Require().True(res.Accepted)
		last = res
	}
	return last
}

func (s *ServiceSuite) TestAutoCategorization() {
	s.Run("two scam reports turn the record Scam", func() {
		rec, err := s.svc.LookupOrCreate(s.ctx, "05321110001")
		s.Require().NoError(err)

		res := s.submitN(rec.ID, models.ReportTypeScam, 2)
		s.Require().NotNil(res.NewCategory)
		s.Equal(models.CategoryScam, *res.NewCategory)

		got, err := s.store.FindNumberByID(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.CategoryScam, got.Category)
	})

	s.Run("category change is reported only when it happens", func() {
		rec, err := s.svc.LookupOrCreate(s.ctx, "05321110002")
		s.Require().NoError(err)

		first := s.submitN(rec.ID, models.ReportTypeBetting, 1)
		s.Nil(first.NewCategory)

		second := s.submitN(rec.ID, models.ReportTypeBetting, 1)
		s.Require().NotNil(second.NewCategory)
		s.Equal(models.CategoryBetting, *second.NewCategory)

		third := s.submitN(rec.ID, models.ReportTypeBetting, 1)
		s.Nil(third.NewCategory) // already Betting, no redundant write
	})

	s.Run("manual Safe is sticky against automation", func() {
		rec, err := s.svc.LookupOrCreate(s.ctx, "05321110003")
		s.Require().NoError(err)

		s.Require().NoError(s.svc.SetCategory(s.ctx, rec.ID, models.CategorySafe))

		for i := 0; i < 5; i++ {
			res := s.submitN(rec.ID, models.ReportTypeSuspicious, 1)
			s.Nil(res.NewCategory)
		}

		got, err := s.store.FindNumberByID(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.CategorySafe, got.Category)
	})

	s.Run("moving off Safe re-enables automation", func() {
		rec, err := s.svc.LookupOrCreate(s.ctx, "05321110004")
		s.Require().NoError(err)

		s.Require().NoError(s.svc.SetCategory(s.ctx, rec.ID, models.CategorySafe))
		s.submitN(rec.ID, models.ReportTypeScam, 2)
		s.Require().NoError(s.svc.SetCategory(s.ctx, rec.ID, models.CategoryUnknown))

		res := s.submitN(rec.ID, models.ReportTypeScam, 1)
		s.Require().NotNil(res.NewCategory)
		s.Equal(models.CategoryScam, *res.NewCategory)
	})
}

func (s *ServiceSuite) TestGetStats() {
	rec, err := s.svc.LookupOrCreate(s.ctx, "05321110005")
	s.Require().NoError(err)

	stats, err := s.svc.GetStats(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(0, stats.ReportCount)
	s.Equal(0, stats.Score)
	s.Equal(models.RiskLow, stats.Label)

	s.submitN(rec.ID, models.ReportTypeScam, 7)
	stats, err = s.svc.GetStats(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(7, stats.ReportCount)
	s.Equal(100, stats.Score)
	s.Equal(models.RiskHigh, stats.Label)

	_, err = s.svc.GetStats(s.ctx, domain.NewNumberID())
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestListRecents() {
	rec, err := s.svc.LookupOrCreate(s.ctx, "05321110006")
	s.Require().NoError(err)
	s.submitN(rec.ID, models.ReportTypeScam, 3)

	reports, err := s.svc.ListRecents(s.ctx, rec.ID, 2)
	s.Require().NoError(err)
	s.Require().Len(reports, 2)
	s.True(reports[0].CreatedAt.After(reports[1].CreatedAt))
}

func (s *ServiceSuite) TestEndToEndScenario() {
	// New record starts Unknown with score 0.
	rec, err := s.svc.LookupOrCreate(s.ctx, "0532 111 22 33")
	s.Require().NoError(err)
	s.Equal(models.CategoryUnknown, rec.Category)

	stats, err := s.svc.GetStats(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(0, stats.Score)

	// Two scam reports more than 24h apart: category Scam, score 30.
	res, err := s.svc.SubmitReport(s.ctx, rec.ID, models.ReportTypeScam, models.ChannelCall, "")
	s.Require().NoError(err)
	s.True(res.Accepted)

	s.advance(25 * time.Hour)
	res, err = s.svc.SubmitReport(s.ctx, rec.ID, models.ReportTypeScam, models.ChannelWhatsApp, "")
	s.Require().NoError(err)
	s.True(res.Accepted)
	s.Require().NotNil(res.NewCategory)
	s.Equal(models.CategoryScam, *res.NewCategory)

	stats, err = s.svc.GetStats(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(30, stats.Score)

	// A third attempt within 24h of the second is rate limited.
	s.advance(1 * time.Hour)
	res, err = s.svc.SubmitReport(s.ctx, rec.ID, models.ReportTypeScam, models.ChannelCall, "")
	s.Require().NoError(err)
	s.False(res.Accepted)

	count, err := s.store.CountReports(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *ServiceSuite) TestListRecordsValidation() {
	_, err := s.svc.ListRecords(s.ctx, store.ListQuery{Sort: "by_vibes"})
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))

	bad := models.Category("Fraudulent")
	_, err = s.svc.ListRecords(s.ctx, store.ListQuery{Category: &bad})
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}
