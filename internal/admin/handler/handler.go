// Package handler exposes the operator API: login, record queries, CSV
// export, manual categorization, and dashboard totals.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"safeline/internal/admin/export"
	pmetrics "safeline/internal/platform/metrics"
	"safeline/internal/platform/middleware"
	"safeline/internal/reputation/models"
	"safeline/internal/reputation/store"
	"safeline/internal/transport/http/shared"
	"safeline/pkg/domain"
	dErrors "safeline/pkg/domain-errors"
)

// Service defines the reputation operations the admin surface needs.
type Service interface {
	ListRecords(ctx context.Context, q store.ListQuery) ([]*store.RecordWithCount, error)
	SetCategory(ctx context.Context, numberID domain.NumberID, cat models.Category) error
	Totals(ctx context.Context) (*store.Totals, error)
}

// SessionService issues and validates operator sessions.
type SessionService interface {
	Login(pin string) (string, error)
	ValidateSessionToken(token string) (*middleware.AdminSession, error)
}

// Handler handles the admin endpoints.
type Handler struct {
	logger     *slog.Logger
	reputation Service
	sessions   SessionService
	metrics    *pmetrics.Metrics
}

// New creates an admin Handler.
func New(reputation Service, sessions SessionService, logger *slog.Logger, metrics *pmetrics.Metrics) *Handler {
	return &Handler{
		logger:     logger,
		reputation: reputation,
		sessions:   sessions,
		metrics:    metrics,
	}
}

// Register mounts the admin routes. Everything except login sits behind
// the session middleware.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.LatencyMiddleware(h.metrics))

	router.Post("/login", h.handleLogin)

	router.Group(func(g chi.Router) {
		g.Use(middleware.RequireAdminSession(h.sessions, h.logger))
		g.Get("/numbers", h.handleListNumbers)
		g.Get("/numbers/export.csv", h.handleExportCSV)
		g.Put("/numbers/{id}/category", h.handleSetCategory)
		g.Get("/totals", h.handleTotals)
	})

	r.Mount("/admin", router)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	token, err := h.sessions.Login(req.PIN)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeUnauthorized) {
			h.logger.WarnContext(ctx, "admin login rejected",
				"request_id", middleware.GetRequestID(ctx),
			)
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "admin login failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "login failed"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, loginResponse{Token: token})
}

// listQueryFromRequest builds the record query from URL parameters.
// Validation happens in the service.
func listQueryFromRequest(r *http.Request) store.ListQuery {
	params := r.URL.Query()
	q := store.ListQuery{
		Search: params.Get("search"),
		Sort:   store.SortMode(params.Get("sort")),
		Limit:  parseLimit(params.Get("limit")),
	}
	if raw := params.Get("category"); raw != "" {
		cat := models.Category(raw)
		q.Category = &cat
	}
	return q
}

func (h *Handler) handleListNumbers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.reputation.ListRecords(ctx, listQueryFromRequest(r))
	if err != nil {
		if dErrors.Is(err, dErrors.CodeBadRequest) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "record listing failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list records"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, toNumbersResponse(rows))
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.reputation.ListRecords(ctx, listQueryFromRequest(r))
	if err != nil {
		if dErrors.Is(err, dErrors.CodeBadRequest) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "export failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to export records"))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="numbers.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(export.CSV(rows)))
}

func (h *Handler) handleSetCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	numberID, err := domain.ParseNumberID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid number id"))
		return
	}

	var req setCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	cat, err := models.ParseCategory(req.Category)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid category"))
		return
	}

	if err := h.reputation.SetCategory(ctx, numberID, cat); err != nil {
		switch {
		case dErrors.Is(err, dErrors.CodeBadRequest), dErrors.Is(err, dErrors.CodeNotFound):
			shared.WriteError(w, err)
		default:
			h.logger.ErrorContext(ctx, "manual categorization failed",
				"request_id", middleware.GetRequestID(ctx),
				"number_id", numberID.String(),
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to set category"))
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTotals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totals, err := h.reputation.Totals(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "totals failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to compute totals"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, totalsResponse{
		Numbers:       totals.Numbers,
		Reports:       totals.Reports,
		RecentReports: totals.RecentReports,
	})
}
