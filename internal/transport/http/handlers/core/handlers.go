package corehandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ipcr/internal/domain/auth"
	"ipcr/internal/domain/core"
	"ipcr/internal/transport/http/api"
	"ipcr/internal/transport/http/middleware"
	"ipcr/internal/transport/http/shared"
)

type Handler struct {
	Service *core.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *core.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/departments", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermOrgRead, h.Perms)).Get("/", h.handleListDepartments)
		r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Post("/", h.handleCreateDepartment)
		r.Route("/{departmentID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermOrgRead, h.Perms)).Get("/", h.handleGetDepartment)
			r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Put("/", h.handleUpdateDepartment)
			r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Delete("/", h.handleDeleteDepartment)
		})
	})
	r.Route("/positions", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermOrgRead, h.Perms)).Get("/", h.handleListPositions)
		r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Post("/", h.handleCreatePosition)
		r.Route("/{positionID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermOrgRead, h.Perms)).Get("/", h.handleGetPosition)
			r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Put("/", h.handleUpdatePosition)
			r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Delete("/", h.handleDeletePosition)
		})
	})
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermOrgRead, h.Perms)).Get("/", h.handleListUsers)
		r.With(middleware.RequirePermission(auth.PermUsersWrite, h.Perms)).Post("/", h.handleCreateUser)
		r.Route("/{userID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermOrgRead, h.Perms)).Get("/", h.handleGetUser)
			r.With(middleware.RequirePermission(auth.PermUsersWrite, h.Perms)).Put("/", h.handleUpdateUser)
		})
	})
}

type departmentRequest struct {
	Name      string `json:"name"`
	ManagerID string `json:"managerId"`
	Status    string `json:"status"`
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.ListDepartments(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "department_list_failed", "failed to list departments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, departments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	var payload departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	dep, err := h.Service.CreateDepartment(r.Context(), payload.Name, payload.ManagerID)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "department_create_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, dep, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetDepartment(w http.ResponseWriter, r *http.Request) {
	dep, err := h.Service.GetDepartment(r.Context(), chi.URLParam(r, "departmentID"))
	if err != nil {
		if errors.Is(err, core.ErrDepartmentNotFound) {
			api.Fail(w, http.StatusNotFound, "department_not_found", "department not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "department_get_failed", "failed to load department", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, dep, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	var payload departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	dep := core.Department{
		ID:        chi.URLParam(r, "departmentID"),
		Name:      payload.Name,
		ManagerID: payload.ManagerID,
		Status:    payload.Status,
	}
	if err := h.Service.UpdateDepartment(r.Context(), dep); err != nil {
		if errors.Is(err, core.ErrDepartmentNotFound) {
			api.Fail(w, http.StatusNotFound, "department_not_found", "department not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "department_update_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteDepartment(r.Context(), chi.URLParam(r, "departmentID")); err != nil {
		switch {
		case errors.Is(err, core.ErrDepartmentNotFound):
			api.Fail(w, http.StatusNotFound, "department_not_found", "department not found", middleware.GetRequestID(r.Context()))
		case errors.Is(err, core.ErrDepartmentInUse):
			api.Fail(w, http.StatusConflict, "department_in_use", "department still has assigned users", middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "department_delete_failed", "failed to delete department", middleware.GetRequestID(r.Context()))
		}
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

type positionRequest struct {
	Title           string  `json:"title"`
	CoreWeight      float64 `json:"coreWeight"`
	StrategicWeight float64 `json:"strategicWeight"`
	SupportWeight   float64 `json:"supportWeight"`
}

func (h *Handler) handleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.Service.ListPositions(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "position_list_failed", "failed to list positions", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, positions, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreatePosition(w http.ResponseWriter, r *http.Request) {
	var payload positionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	pos, err := h.Service.CreatePosition(r.Context(), core.Position{
		Title:           payload.Title,
		CoreWeight:      payload.CoreWeight,
		StrategicWeight: payload.StrategicWeight,
		SupportWeight:   payload.SupportWeight,
	})
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "position_create_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, pos, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	pos, err := h.Service.GetPosition(r.Context(), chi.URLParam(r, "positionID"))
	if err != nil {
		if errors.Is(err, core.ErrPositionNotFound) {
			api.Fail(w, http.StatusNotFound, "position_not_found", "position not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "position_get_failed", "failed to load position", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, pos, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	var payload positionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	pos := core.Position{
		ID:              chi.URLParam(r, "positionID"),
		Title:           payload.Title,
		CoreWeight:      payload.CoreWeight,
		StrategicWeight: payload.StrategicWeight,
		SupportWeight:   payload.SupportWeight,
	}
	if err := h.Service.UpdatePosition(r.Context(), pos); err != nil {
		if errors.Is(err, core.ErrPositionNotFound) {
			api.Fail(w, http.StatusNotFound, "position_not_found", "position not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "position_update_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeletePosition(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeletePosition(r.Context(), chi.URLParam(r, "positionID")); err != nil {
		switch {
		case errors.Is(err, core.ErrPositionNotFound):
			api.Fail(w, http.StatusNotFound, "position_not_found", "position not found", middleware.GetRequestID(r.Context()))
		case errors.Is(err, core.ErrPositionInUse):
			api.Fail(w, http.StatusConflict, "position_in_use", "position still has assigned users", middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "position_delete_failed", "failed to delete position", middleware.GetRequestID(r.Context()))
		}
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context(), r.URL.Query().Get("departmentId"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_list_failed", "failed to list users", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload core.NewUser
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Required("email", payload.Email, "email is required")
	v.Required("password", payload.Password, "password is required")
	v.Enum("role", payload.Role, core.Roles, "must be one of admin, head, employee")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	user, err := h.Service.CreateUser(r.Context(), payload)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateEmail) {
			api.Fail(w, http.StatusConflict, "duplicate_email", "email already registered", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "user_create_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, user, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			api.Fail(w, http.StatusNotFound, "user_not_found", "user not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "user_get_failed", "failed to load user", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, user, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var payload core.User
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	payload.ID = chi.URLParam(r, "userID")
	if err := h.Service.UpdateUser(r.Context(), payload); err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			api.Fail(w, http.StatusNotFound, "user_not_found", "user not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "user_update_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}
