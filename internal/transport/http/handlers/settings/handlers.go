package settingshandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ipcr/internal/domain/auth"
	"ipcr/internal/domain/rating"
	"ipcr/internal/domain/settings"
	"ipcr/internal/transport/http/api"
	"ipcr/internal/transport/http/middleware"
)

type Handler struct {
	Service *settings.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *settings.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermSettingsRead, h.Perms)).Get("/", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermSettingsWrite, h.Perms)).Patch("/", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermSettingsWrite, h.Perms)).Post("/period", h.handleChangePeriod)
		r.With(middleware.RequirePermission(auth.PermSettingsRead, h.Perms)).Get("/phases", h.handleCurrentPhases)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := h.Service.GetOrCreate(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_get_failed", "failed to load settings", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch settings.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	record, err := h.Service.Update(r.Context(), patch)
	if err != nil {
		if errors.Is(err, rating.ErrInvalidFormula) || errors.Is(err, rating.ErrMissingFormula) {
			api.Fail(w, http.StatusBadRequest, "invalid_formula", err.Error(), middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "settings_update_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleChangePeriod(w http.ResponseWriter, r *http.Request) {
	record, err := h.Service.ChangePeriod(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "period_change_failed", "failed to start a new period", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCurrentPhases(w http.ResponseWriter, r *http.Request) {
	phases, err := h.Service.CurrentPhases(r.Context(), time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "phases_failed", "failed to resolve current phases", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"phases": phases}, middleware.GetRequestID(r.Context()))
}
