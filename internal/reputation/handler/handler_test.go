package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"safeline/internal/reputation/service"
	"safeline/internal/reputation/store"
	"safeline/pkg/phone"
)

type HandlerSuite struct {
	suite.Suite
	router chi.Router
	now    time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *HandlerSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	svc, err := service.New(store.NewMemory(), phone.Default(), 24*time.Hour,
		service.WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)

	h := New(svc, testLogger(), nil)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(v))
}

// lookup resolves a raw number and returns the record ID.
func (s *HandlerSuite) lookup(raw string) string {
	rec := s.do(http.MethodPost, "/lookup", map[string]string{"phone_number": raw})
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp struct {
		ID          string `json:"id"`
		PhoneNumber string `json:"phone_number"`
	}
	s.decode(rec, &resp)
	s.Require().NotEmpty(resp.ID)
	return resp.ID
}

func (s *HandlerSuite) TestLookup() {
	s.Run("creates on first sight", func() {
		rec := s.do(http.MethodPost, "/lookup", map[string]string{"phone_number": "0532 111 22 33"})
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp struct {
			ID          string `json:"id"`
			PhoneNumber string `json:"phone_number"`
			Category    string `json:"category"`
		}
		s.decode(rec, &resp)
		s.Equal("+905321112233", resp.PhoneNumber)
		s.Equal("Unknown", resp.Category)
	})

	s.Run("equivalent spellings share one identity", func() {
		first := s.lookup("0532 111 22 33")
		second := s.lookup("+90 532 111 22 33")
		s.Equal(first, second)
	})

	s.Run("unnormalizable input is rejected", func() {
		rec := s.do(http.MethodPost, "/lookup", map[string]string{"phone_number": "garbage"})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("malformed body is rejected", func() {
		req := httptest.NewRequest(http.MethodPost, "/lookup", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("non-json content type is rejected", func() {
		req := httptest.NewRequest(http.MethodPost, "/lookup", bytes.NewBufferString("phone=123"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusUnsupportedMediaType, rec.Code)
	})
}

func (s *HandlerSuite) TestSubmitReport() {
	id := s.lookup("0532 111 22 33")
	path := fmt.Sprintf("/numbers/%s/reports", id)

	s.Run("first report is accepted", func() {
		rec := s.do(http.MethodPost, path, map[string]string{
			"report_type": "Scam", "channel": "Call", "message_excerpt": "claimed to be the bank",
		})
		s.Require().Equal(http.StatusCreated, rec.Code)

		var resp struct {
			Accepted bool   `json:"accepted"`
			ReportID string `json:"report_id"`
		}
		s.decode(rec, &resp)
		s.True(resp.Accepted)
		s.NotEmpty(resp.ReportID)
	})

	s.Run("second report inside the window gets 429", func() {
		s.now = s.now.Add(time.Hour)
		rec := s.do(http.MethodPost, path, map[string]string{
			"report_type": "Scam", "channel": "Call",
		})
		s.Require().Equal(http.StatusTooManyRequests, rec.Code)

		var resp struct {
			Accepted bool `json:"accepted"`
		}
		s.decode(rec, &resp)
		s.False(resp.Accepted)
	})

	s.Run("second accepted scam report flips the category", func() {
		s.now = s.now.Add(25 * time.Hour)
		rec := s.do(http.MethodPost, path, map[string]string{
			"report_type": "Scam", "channel": "SMS",
		})
		s.Require().Equal(http.StatusCreated, rec.Code)

		var resp struct {
			NewCategory string `json:"new_category"`
		}
		s.decode(rec, &resp)
		s.Equal("Scam", resp.NewCategory)
	})

	s.Run("invalid report type is rejected", func() {
		rec := s.do(http.MethodPost, path, map[string]string{
			"report_type": "Nonsense", "channel": "Call",
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown number gets 404", func() {
		rec := s.do(http.MethodPost, "/numbers/3e6f4d0e-76f1-4915-9f3c-2a62a9bb2dcb/reports", map[string]string{
			"report_type": "Scam", "channel": "Call",
		})
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("malformed number id gets 400", func() {
		rec := s.do(http.MethodPost, "/numbers/not-a-uuid/reports", map[string]string{
			"report_type": "Scam", "channel": "Call",
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestGetStats() {
	id := s.lookup("0532 111 22 33")

	submit := func() {
		rec := s.do(http.MethodPost, fmt.Sprintf("/numbers/%s/reports", id), map[string]string{
			"report_type": "Suspicious", "channel": "SMS",
		})
		s.Require().Equal(http.StatusCreated, rec.Code)
		s.now = s.now.Add(25 * time.Hour)
	}
	submit()
	submit()

	rec := s.do(http.MethodGet, fmt.Sprintf("/numbers/%s/stats", id), nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp struct {
		ReportCount int    `json:"report_count"`
		Score       int    `json:"score"`
		RiskLabel   string `json:"risk_label"`
	}
	s.decode(rec, &resp)
	s.Equal(2, resp.ReportCount)
	s.Equal(30, resp.Score)
	s.Equal("Low Risk", resp.RiskLabel)

	rec = s.do(http.MethodGet, "/numbers/3e6f4d0e-76f1-4915-9f3c-2a62a9bb2dcb/stats", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestListReports() {
	id := s.lookup("0532 111 22 33")
	path := fmt.Sprintf("/numbers/%s/reports", id)

	for i := 0; i < 3; i++ {
		rec := s.do(http.MethodPost, path, map[string]string{
			"report_type": "Betting", "channel": "WhatsApp", "message_excerpt": "free bets",
		})
		s.Require().Equal(http.StatusCreated, rec.Code)
		s.now = s.now.Add(25 * time.Hour)
	}

	s.Run("newest first", func() {
		rec := s.do(http.MethodGet, path, nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp []struct {
			ReportType string `json:"report_type"`
			CreatedAt  string `json:"created_at"`
		}
		s.decode(rec, &resp)
		s.Require().Len(resp, 3)
		s.Greater(resp[0].CreatedAt, resp[1].CreatedAt)
	})

	s.Run("limit caps the result", func() {
		rec := s.do(http.MethodGet, path+"?limit=1", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp []struct {
			ReportType string `json:"report_type"`
		}
		s.decode(rec, &resp)
		s.Len(resp, 1)
	})
}
