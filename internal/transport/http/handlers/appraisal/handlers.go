package appraisalhandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ipcr/internal/domain/appraisal"
	"ipcr/internal/domain/auth"
	"ipcr/internal/platform/metrics"
	"ipcr/internal/transport/http/api"
	"ipcr/internal/transport/http/middleware"
	"ipcr/internal/transport/http/shared"
)

type Handler struct {
	Service *appraisal.Service
	Perms   middleware.PermissionStore
	Idem    *middleware.IdempotencyStore
	Metrics *metrics.Collector
}

func NewHandler(service *appraisal.Service, perms middleware.PermissionStore, idem *middleware.IdempotencyStore, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Perms: perms, Idem: idem, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/appraisal", func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermAppraisalRead, h.Perms)).Get("/", h.handleListCategories)
			r.With(middleware.RequirePermission(auth.PermAppraisalPlan, h.Perms)).Post("/", h.handleCreateCategory)
			r.Route("/{categoryID}", func(r chi.Router) {
				r.With(middleware.RequirePermission(auth.PermAppraisalRead, h.Perms)).Get("/", h.handleGetCategory)
				r.With(middleware.RequirePermission(auth.PermAppraisalPlan, h.Perms)).Put("/", h.handleUpdateCategory)
				r.With(middleware.RequirePermission(auth.PermAppraisalArchive, h.Perms)).Post("/archive", h.handleArchiveCategory)
			})
		})
		r.Route("/tasks", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermAppraisalRead, h.Perms)).Get("/", h.handleListTasks)
			r.With(middleware.RequirePermission(auth.PermAppraisalPlan, h.Perms)).Post("/", h.handleCreateTask)
			r.Route("/{taskID}", func(r chi.Router) {
				r.With(middleware.RequirePermission(auth.PermAppraisalRead, h.Perms)).Get("/", h.handleGetTask)
				r.With(middleware.RequirePermission(auth.PermAppraisalPlan, h.Perms)).Put("/", h.handleUpdateTask)
				r.With(middleware.RequirePermission(auth.PermAppraisalArchive, h.Perms)).Post("/archive", h.handleArchiveTask)
			})
		})
		r.Route("/documents", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermAppraisalRead, h.Perms)).Get("/", h.handleListDocuments)
			r.With(middleware.RequirePermission(auth.PermAppraisalWrite, h.Perms)).Post("/", h.handleGenerateDocument)
			r.Route("/{documentID}", func(r chi.Router) {
				r.With(middleware.RequirePermission(auth.PermAppraisalRead, h.Perms)).Get("/", h.handleGetDocument)
				r.With(middleware.RequirePermission(auth.PermAppraisalRead, h.Perms)).Get("/sub-tasks", h.handleDocumentSubTasks)
				r.With(middleware.RequirePermission(auth.PermAppraisalSignoff, h.Perms)).Post("/signoff", h.handleSignoff)
			})
		})
		r.Route("/sub-tasks/{subTaskID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermAppraisalRead, h.Perms)).Get("/", h.handleGetSubTask)
			r.With(middleware.RequirePermission(auth.PermAppraisalWrite, h.Perms)).Put("/targets", h.handleSetTargets)
			r.With(middleware.RequirePermission(auth.PermAppraisalWrite, h.Perms)).Put("/accomplishment", h.handleRecordAccomplishment)
		})
	})
}

type categoryRequest struct {
	Name         string `json:"name"`
	FunctionType string `json:"functionType"`
	Priority     int    `json:"priority"`
	Status       string `json:"status"`
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.ListCategories(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "category_list_failed", "failed to list categories", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, categories, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Required("functionType", payload.FunctionType, "function type is required")
	v.Enum("functionType", payload.FunctionType, appraisal.FunctionTypes, "must be a core, support or strategic function")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	category, err := h.Service.CreateCategory(r.Context(), payload.Name, payload.FunctionType, payload.Priority)
	if err != nil {
		if errors.Is(err, appraisal.ErrDuplicateCategory) {
			api.Fail(w, http.StatusConflict, "duplicate_category", "an active category with that name already exists", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "category_create_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, category, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.Service.GetCategory(r.Context(), chi.URLParam(r, "categoryID"))
	if err != nil {
		if errors.Is(err, appraisal.ErrCategoryNotFound) {
			api.Fail(w, http.StatusNotFound, "category_not_found", "category not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "category_get_failed", "failed to load category", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, category, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	category := appraisal.Category{
		ID:           chi.URLParam(r, "categoryID"),
		Name:         payload.Name,
		FunctionType: payload.FunctionType,
		Priority:     payload.Priority,
		Status:       payload.Status,
	}
	if err := h.Service.UpdateCategory(r.Context(), category); err != nil {
		if errors.Is(err, appraisal.ErrCategoryNotFound) {
			api.Fail(w, http.StatusNotFound, "category_not_found", "category not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "category_update_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleArchiveCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ArchiveCategory(r.Context(), chi.URLParam(r, "categoryID")); err != nil {
		if errors.Is(err, appraisal.ErrCategoryNotFound) {
			api.Fail(w, http.StatusNotFound, "category_not_found", "category not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "category_archive_failed", "failed to archive category", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "archived"}, middleware.GetRequestID(r.Context()))
}

type taskRequest struct {
	CategoryID              string `json:"categoryId"`
	DepartmentID            string `json:"departmentId"`
	Title                   string `json:"title"`
	TargetDescription       string `json:"targetDescription"`
	TimeDescription         string `json:"timeDescription"`
	ModificationDescription string `json:"modificationDescription"`
	Status                  string `json:"status"`
}

func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Service.ListTasks(r.Context(), r.URL.Query().Get("categoryId"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "task_list_failed", "failed to list tasks", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, tasks, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var payload taskRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	task, err := h.Service.CreateTask(r.Context(), appraisal.MainTask{
		CategoryID:              payload.CategoryID,
		DepartmentID:            payload.DepartmentID,
		Title:                   payload.Title,
		TargetDescription:       payload.TargetDescription,
		TimeDescription:         payload.TimeDescription,
		ModificationDescription: payload.ModificationDescription,
	})
	if err != nil {
		if errors.Is(err, appraisal.ErrCategoryNotFound) {
			api.Fail(w, http.StatusNotFound, "category_not_found", "category not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "task_create_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, task, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.Service.GetTask(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		if errors.Is(err, appraisal.ErrTaskNotFound) {
			api.Fail(w, http.StatusNotFound, "task_not_found", "main task not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "task_get_failed", "failed to load task", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, task, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var payload taskRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	task := appraisal.MainTask{
		ID:                      chi.URLParam(r, "taskID"),
		CategoryID:              payload.CategoryID,
		DepartmentID:            payload.DepartmentID,
		Title:                   payload.Title,
		TargetDescription:       payload.TargetDescription,
		TimeDescription:         payload.TimeDescription,
		ModificationDescription: payload.ModificationDescription,
		Status:                  payload.Status,
	}
	if err := h.Service.UpdateTask(r.Context(), task); err != nil {
		if errors.Is(err, appraisal.ErrTaskNotFound) {
			api.Fail(w, http.StatusNotFound, "task_not_found", "main task not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "task_update_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleArchiveTask(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ArchiveTask(r.Context(), chi.URLParam(r, "taskID")); err != nil {
		if errors.Is(err, appraisal.ErrTaskNotFound) {
			api.Fail(w, http.StatusNotFound, "task_not_found", "main task not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "task_archive_failed", "failed to archive task", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "archived"}, middleware.GetRequestID(r.Context()))
}

type generateDocumentRequest struct {
	UserID       string   `json:"userId"`
	DepartmentID string   `json:"departmentId"`
	Kind         string   `json:"kind"`
	TaskIDs      []string `json:"taskIds"`
}

// handleGenerateDocument absorbs client retries through the
// Idempotency-Key header: generation always creates a fresh document,
// so a replayed request must return the stored response instead of
// running again.
func (h *Handler) handleGenerateDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	var payload generateDocumentRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	requestHash := middleware.RequestHash(body)
	if idemKey != "" {
		stored, found, err := h.Idem.Check(r.Context(), user.UserID, "appraisal.documents.generate", idemKey, requestHash)
		if err != nil {
			if errors.Is(err, middleware.ErrIdempotencyConflict) {
				api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different payload", middleware.GetRequestID(r.Context()))
				return
			}
			api.Fail(w, http.StatusInternalServerError, "idempotency_check_failed", "failed to check idempotency key", middleware.GetRequestID(r.Context()))
			return
		}
		if found {
			var doc appraisal.Document
			if err := json.Unmarshal(stored, &doc); err == nil {
				api.Success(w, doc, middleware.GetRequestID(r.Context()))
				return
			}
		}
	}

	doc, err := h.Service.GenerateDocument(r.Context(), payload.UserID, payload.DepartmentID, payload.Kind, payload.TaskIDs)
	if err != nil {
		switch {
		case errors.Is(err, appraisal.ErrNoTasks):
			api.Fail(w, http.StatusBadRequest, "no_tasks", "at least one main task is required", middleware.GetRequestID(r.Context()))
		case errors.Is(err, appraisal.ErrTaskNotFound):
			api.Fail(w, http.StatusNotFound, "task_not_found", "one of the main tasks does not exist", middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusBadRequest, "document_generate_failed", err.Error(), middleware.GetRequestID(r.Context()))
		}
		return
	}

	if h.Metrics != nil {
		h.Metrics.DocumentGenerated()
	}

	if idemKey != "" {
		response, err := json.Marshal(doc)
		if err == nil {
			if err := h.Idem.Save(r.Context(), user.UserID, "appraisal.documents.generate", idemKey, requestHash, response); err != nil {
				slog.Warn("idempotency save failed", "userId", user.UserID, "err", err)
			}
		}
	}

	api.Created(w, doc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Service.ListDocuments(r.Context(), r.URL.Query().Get("userId"), r.URL.Query().Get("departmentId"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "document_list_failed", "failed to list documents", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	total := len(docs)
	start := min(page.Offset, total)
	end := min(start+page.Limit, total)
	api.Success(w, map[string]any{
		"documents": docs[start:end],
		"total":     total,
		"limit":     page.Limit,
		"offset":    page.Offset,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Service.GetDocument(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		if errors.Is(err, appraisal.ErrDocumentNotFound) {
			api.Fail(w, http.StatusNotFound, "document_not_found", "appraisal document not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "document_get_failed", "failed to load document", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, doc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDocumentSubTasks(w http.ResponseWriter, r *http.Request) {
	subTasks, err := h.Service.DocumentSubTasks(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		if errors.Is(err, appraisal.ErrDocumentNotFound) {
			api.Fail(w, http.StatusNotFound, "document_not_found", "appraisal document not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "subtask_list_failed", "failed to list sub-tasks", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, subTasks, middleware.GetRequestID(r.Context()))
}

type signoffRequest struct {
	Field string `json:"field"`
	Name  string `json:"name"`
}

func (h *Handler) handleSignoff(w http.ResponseWriter, r *http.Request) {
	var payload signoffRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	doc, err := h.Service.Signoff(r.Context(), chi.URLParam(r, "documentID"), payload.Field, payload.Name)
	if err != nil {
		switch {
		case errors.Is(err, appraisal.ErrDocumentNotFound):
			api.Fail(w, http.StatusNotFound, "document_not_found", "appraisal document not found", middleware.GetRequestID(r.Context()))
		case errors.Is(err, appraisal.ErrUnknownSignoff):
			api.Fail(w, http.StatusBadRequest, "unknown_signoff", "unknown sign-off field", middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "signoff_failed", "failed to record sign-off", middleware.GetRequestID(r.Context()))
		}
		return
	}
	api.Success(w, doc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSubTask(w http.ResponseWriter, r *http.Request) {
	subTask, err := h.Service.GetSubTask(r.Context(), chi.URLParam(r, "subTaskID"))
	if err != nil {
		if errors.Is(err, appraisal.ErrSubTaskNotFound) {
			api.Fail(w, http.StatusNotFound, "subtask_not_found", "sub-task not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "subtask_get_failed", "failed to load sub-task", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, subTask, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetTargets(w http.ResponseWriter, r *http.Request) {
	var payload appraisal.Targets
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	subTask, warnings, err := h.Service.SetTargets(r.Context(), chi.URLParam(r, "subTaskID"), payload)
	if err != nil {
		if errors.Is(err, appraisal.ErrSubTaskNotFound) {
			api.Fail(w, http.StatusNotFound, "subtask_not_found", "sub-task not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "targets_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"subTask": subTask, "warnings": warnings}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRecordAccomplishment(w http.ResponseWriter, r *http.Request) {
	var payload appraisal.Accomplishment
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	subTask, warnings, err := h.Service.RecordAccomplishment(r.Context(), chi.URLParam(r, "subTaskID"), payload)
	if err != nil {
		if errors.Is(err, appraisal.ErrSubTaskNotFound) {
			api.Fail(w, http.StatusNotFound, "subtask_not_found", "sub-task not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "accomplishment_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"subTask": subTask, "warnings": warnings}, middleware.GetRequestID(r.Context()))
}
