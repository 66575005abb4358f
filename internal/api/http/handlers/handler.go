package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"gitlab.com/nevasik7/alerting/logger"

	"personastats/internal/service"
	"personastats/pkg/httputil"
)

type Handler struct {
	Log logger.Logger
	Svc *service.IndexerService
}

func NewHandler(log logger.Logger, svc *service.IndexerService) *Handler {
	if svc == nil {
		panic("indexer service cannot be nil")
	}

	return &Handler{Log: log, Svc: svc}
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	if err := httputil.JSON(w, http.StatusOK, map[string]any{}, nil); err != nil {
		h.Log.Errorf("Healthz handler error: %s", err.Error())
	}
}

// Check health external services/clients
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if err := h.Svc.CheckDependency(ctx); err != nil {
		err = httputil.Error(w, r, http.StatusServiceUnavailable, "dependencies_unhealthy", "dependencies check failed", map[string]any{
			"error": err.Error(),
		})
		if err != nil {
			h.Log.Errorf("Readiness handler error: %s", err.Error())
		}
		return
	}

	if err := httputil.JSON(w, http.StatusOK, map[string]string{"dependencies": "healthy"}, nil); err != nil {
		h.Log.Errorf("Readiness handler error: %s", err.Error())
	}
}

func (h *Handler) GlobalStats(w http.ResponseWriter, r *http.Request) {
	g, err := h.Svc.GetGlobalStats(r.Context())
	if err != nil {
		h.renderErr(w, r, "GlobalStats", err)
		return
	}

	if err := httputil.JSON(w, http.StatusOK, g, nil); err != nil {
		h.Log.Errorf("GlobalStats handler error: %s", err.Error())
	}
}

func (h *Handler) DailyStats(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	d, err := h.Svc.GetDailyStats(r.Context(), date)
	if err != nil {
		h.renderErr(w, r, "DailyStats", err)
		return
	}

	if err := httputil.JSON(w, http.StatusOK, d, nil); err != nil {
		h.Log.Errorf("DailyStats handler error: %s", err.Error())
	}
}

func (h *Handler) Persona(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.Svc.GetPersona(r.Context(), id)
	if err != nil {
		h.renderErr(w, r, "Persona", err)
		return
	}

	if err := httputil.JSON(w, http.StatusOK, p, nil); err != nil {
		h.Log.Errorf("Persona handler error: %s", err.Error())
	}
}

func (h *Handler) PersonaDailyStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	date := chi.URLParam(r, "date")

	row, err := h.Svc.GetPersonaDailyStats(r.Context(), id, date)
	if err != nil {
		h.renderErr(w, r, "PersonaDailyStats", err)
		return
	}

	if err := httputil.JSON(w, http.StatusOK, row, nil); err != nil {
		h.Log.Errorf("PersonaDailyStats handler error: %s", err.Error())
	}
}

func (h *Handler) renderErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, service.ErrPersonaNotFound), errors.Is(err, service.ErrStatsNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrInvalidDay):
		status, code = http.StatusBadRequest, "bad_request"
	default:
		status, code = http.StatusInternalServerError, "internal_error"
	}

	if werr := httputil.Error(w, r, status, code, err.Error(), nil); werr != nil {
		h.Log.Errorf("%s handler error: %s", op, werr.Error())
	}
}
