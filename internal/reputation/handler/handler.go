// Package handler exposes the public reputation endpoints: lookup,
// report submission, derived stats, and recent reports.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	pmetrics "safeline/internal/platform/metrics"
	"safeline/internal/platform/middleware"
	"safeline/internal/reputation/models"
	"safeline/internal/reputation/service"
	"safeline/internal/transport/http/shared"
	"safeline/pkg/domain"
	dErrors "safeline/pkg/domain-errors"
)

// Service defines the reputation operations the public surface needs.
type Service interface {
	LookupOrCreate(ctx context.Context, raw string) (*models.PhoneRecord, error)
	SubmitReport(ctx context.Context, numberID domain.NumberID, reportType models.ReportType, channel models.Channel, excerpt string) (*service.SubmitResult, error)
	GetStats(ctx context.Context, numberID domain.NumberID) (*service.Stats, error)
	ListRecents(ctx context.Context, numberID domain.NumberID, limit int) ([]*models.Report, error)
}

// Handler handles public reputation endpoints.
type Handler struct {
	logger     *slog.Logger
	reputation Service
	metrics    *pmetrics.Metrics
}

// New creates a reputation Handler.
func New(reputation Service, logger *slog.Logger, metrics *pmetrics.Metrics) *Handler {
	return &Handler{
		logger:     logger,
		reputation: reputation,
		metrics:    metrics,
	}
}

// Register mounts the public routes with the standard middleware chain.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.LatencyMiddleware(h.metrics))
	router.Post("/lookup", h.handleLookup)
	router.Post("/numbers/{id}/reports", h.handleSubmitReport)
	router.Get("/numbers/{id}/stats", h.handleGetStats)
	router.Get("/numbers/{id}/reports", h.handleListReports)

	r.Mount("/", router)
}

// handleLookup resolves raw input to its record, creating it on first
// sight.
func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	rec, err := h.reputation.LookupOrCreate(ctx, req.PhoneNumber)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInvalidInput) {
			h.logger.WarnContext(ctx, "lookup rejected",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "lookup failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to resolve phone number"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

// handleSubmitReport appends a report; a submission inside the rolling
// window returns 429 without touching the ledger.
func (h *Handler) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	numberID, err := domain.ParseNumberID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid number id"))
		return
	}

	var req submitReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	reportType, err := models.ParseReportType(req.ReportType)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid report type"))
		return
	}
	channel, err := models.ParseChannel(req.Channel)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid channel"))
		return
	}

	result, err := h.reputation.SubmitReport(ctx, numberID, reportType, channel, req.MessageExcerpt)
	if err != nil {
		switch {
		case dErrors.Is(err, dErrors.CodeBadRequest), dErrors.Is(err, dErrors.CodeNotFound):
			shared.WriteError(w, err)
		default:
			h.logger.ErrorContext(ctx, "report submission failed",
				"request_id", middleware.GetRequestID(ctx),
				"number_id", numberID.String(),
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to record report"))
		}
		return
	}

	if !result.Accepted {
		shared.WriteJSON(w, http.StatusTooManyRequests, submitReportResponse{
			Accepted: false,
			Message:  "a report for this number was already recorded recently",
		})
		return
	}

	resp := submitReportResponse{
		Accepted: true,
		ReportID: result.Report.ID.String(),
	}
	if result.NewCategory != nil {
		resp.NewCategory = result.NewCategory.String()
	}
	shared.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	numberID, err := domain.ParseNumberID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid number id"))
		return
	}

	stats, err := h.reputation.GetStats(ctx, numberID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "stats lookup failed",
			"request_id", middleware.GetRequestID(ctx),
			"number_id", numberID.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to compute stats"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, statsResponse{
		ReportCount: stats.ReportCount,
		Score:       stats.Score,
		RiskLabel:   string(stats.Label),
	})
}

func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	numberID, err := domain.ParseNumberID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid number id"))
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))
	reports, err := h.reputation.ListRecents(ctx, numberID, limit)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeBadRequest) || dErrors.Is(err, dErrors.CodeNotFound) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "report listing failed",
			"request_id", middleware.GetRequestID(ctx),
			"number_id", numberID.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list reports"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, toReportsResponse(reports))
}
