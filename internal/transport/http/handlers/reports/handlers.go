package reportshandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ipcr/internal/domain/auth"
	"ipcr/internal/domain/reports"
	"ipcr/internal/platform/metrics"
	"ipcr/internal/transport/http/api"
	"ipcr/internal/transport/http/middleware"
)

type Handler struct {
	Service *reports.Service
	Perms   middleware.PermissionStore
	Metrics *metrics.Collector
}

func NewHandler(service *reports.Service, perms middleware.PermissionStore, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Perms: perms, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermReportsRead, h.Perms))
		r.Get("/tasks", h.handleTaskSummaries)
		r.Get("/categories", h.handleCategoryBreakdown)
		r.Get("/categories/{categoryID}", h.handleCategorySummary)
		r.Get("/departments/{departmentID}", h.handleDepartmentSummary)
		r.Get("/departments/{departmentID}/breakdown", h.handleDepartmentBreakdown)
		r.Get("/standings", h.handleStandings)
		r.Get("/standings/top", h.handleTopDepartment)
		r.Get("/users/{userID}/final-rating", h.handleUserFinalRating)
		r.Get("/documents/{documentID}/pdf", h.handleDocumentPDF)
	})
}

func (h *Handler) handleTaskSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.Service.TaskSummaries(r.Context(), r.URL.Query().Get("categoryId"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "task_summaries_failed", "failed to summarize tasks", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summaries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.Service.CategoryBreakdown(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "category_breakdown_failed", "failed to summarize categories", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, breakdown, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.CategorySummary(r.Context(), chi.URLParam(r, "categoryID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "category_summary_failed", "failed to summarize category", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDepartmentSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.DepartmentSummary(r.Context(), chi.URLParam(r, "departmentID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "department_summary_failed", "failed to summarize department", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDepartmentBreakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.Service.DepartmentBreakdown(r.Context(), chi.URLParam(r, "departmentID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "department_breakdown_failed", "failed to summarize department categories", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, breakdown, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStandings(w http.ResponseWriter, r *http.Request) {
	standings, err := h.Service.Standings(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "standings_failed", "failed to rank departments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, standings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTopDepartment(w http.ResponseWriter, r *http.Request) {
	top, err := h.Service.TopDepartment(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "top_department_failed", "failed to rank departments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, top, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUserFinalRating(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.UserFinalRating(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		if errors.Is(err, reports.ErrUserNotFound) {
			api.Fail(w, http.StatusNotFound, "user_not_found", "user not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "final_rating_failed", "failed to compute final rating", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDocumentPDF(w http.ResponseWriter, r *http.Request) {
	path, err := h.Service.GeneratePDF(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		if errors.Is(err, reports.ErrDocumentNotFound) {
			api.Fail(w, http.StatusNotFound, "document_not_found", "appraisal document not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "pdf_failed", "failed to render document", middleware.GetRequestID(r.Context()))
		return
	}

	if h.Metrics != nil {
		h.Metrics.PDFRendered()
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}
