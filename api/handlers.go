/*
handlers.go - HTTP API handlers for the leave tracker

PURPOSE:
  Exposes the User Directory and Leave Ledger via REST. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Users:
    POST   /api/users                Register a user; first becomes admin
    GET    /api/users                List all users (admin)
    GET    /api/users/{id}           Get user
    PUT    /api/users/me             Update own profile
    PUT    /api/users/{id}/promote   Change admin/active flags (admin)

  Leaves:
    POST   /api/leaves               Request leave
    GET    /api/leaves               My leaves (optional ?status=)
    GET    /api/leaves/{id}          Get one leave (owner or admin)
    PUT    /api/leaves/{id}          Change dates (owner)
    PUT    /api/leaves/{id}/status   Approve/reject (admin)
    DELETE /api/leaves/{id}          Cancel while pending (owner)

ERROR HANDLING:
  Domain error categories map to HTTP status:
  - 400: validation
  - 403: permission
  - 404: not found
  - 409: conflict
  - 500: everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/leave-tracker/core"
	"github.com/warp/leave-tracker/directory"
	"github.com/warp/leave-tracker/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Directory *directory.Service
	Ledger    *leave.Ledger
	Log       *zap.Logger
}

// NewHandler creates a new handler.
func NewHandler(dir *directory.Service, ledger *leave.Ledger, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Directory: dir, Ledger: ledger, Log: log}
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// CreateUser registers a user. The first registered user becomes an
// active admin; everyone else starts pending.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	user, err := h.Directory.Create(r.Context(), req.Name, req.Email)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

// GetUser returns a single user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := core.UserID(chi.URLParam(r, "id"))

	user, err := h.Directory.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// ListUsers returns all users. Admin only.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r)

	users, err := h.Directory.List(r.Context(), principal)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]UserDTO, len(users))
	for i := range users {
		dtos[i] = toUserDTO(&users[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateMe applies the supplied profile fields to the caller's record.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r)

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	user, err := h.Directory.UpdateProfile(r.Context(), principal, directory.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// PromoteUser changes a target user's admin/active flags. Admin only,
// never self.
func (h *Handler) PromoteUser(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r)
	targetID := core.UserID(chi.URLParam(r, "id"))

	var req PromoteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	user, err := h.Directory.Promote(r.Context(), principal, targetID, directory.PromoteUpdate{
		IsAdmin:  req.IsAdmin,
		IsActive: req.IsActive,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// RequestLeave creates a PENDING leave for the caller and debits the
// balance.
func (h *Handler) RequestLeave(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r)

	start, end, ok := h.decodeDates(w, r)
	if !ok {
		return
	}

	lv, err := h.Ledger.Request(r.Context(), principal, start, end)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveDTO(lv))
}

// GetLeave returns a single leave, visible to its owner and admins.
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r)
	id := core.LeaveID(chi.URLParam(r, "id"))

	lv, err := h.Ledger.Get(r.Context(), principal, id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(lv))
}

// ListMyLeaves returns the caller's leaves, optionally filtered by
// ?status=.
func (h *Handler) ListMyLeaves(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r)

	var (
		leaves []core.Leave
		err    error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		leaves, err = h.Ledger.ListMineByStatus(r.Context(), principal, core.LeaveStatus(status))
	} else {
		leaves, err = h.Ledger.ListMine(r.Context(), principal)
	}
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTOs(leaves))
}

// UpdateLeave changes a leave's date range. Owner only.
func (h *Handler) UpdateLeave(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r)
	id := core.LeaveID(chi.URLParam(r, "id"))

	start, end, ok := h.decodeDates(w, r)
	if !ok {
		return
	}

	lv, err := h.Ledger.UpdateDates(r.Context(), principal, id, start, end)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(lv))
}

// UpdateLeaveStatus moves a leave to a new status. Admin only. A
// transition into REJECTED refunds the owner's balance.
func (h *Handler) UpdateLeaveStatus(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r)
	id := core.LeaveID(chi.URLParam(r, "id"))

	var req UpdateLeaveStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	lv, err := h.Ledger.UpdateStatus(r.Context(), principal, id, core.LeaveStatus(req.Status))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(lv))
}

// DeleteLeave cancels a PENDING leave and refunds its days. Owner only.
func (h *Handler) DeleteLeave(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r)
	id := core.LeaveID(chi.URLParam(r, "id"))

	lv, err := h.Ledger.Delete(r.Context(), principal, id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(lv))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) decodeDates(w http.ResponseWriter, r *http.Request) (start, end time.Time, ok bool) {
	var req LeaveDatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var err error
	if start, err = time.Parse(dateFormat, req.StartDate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	if end, err = time.Parse(dateFormat, req.EndDate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date format (use YYYY-MM-DD)", err)
		return
	}
	return start, end, true
}

// writeDomainError maps a domain error category to an HTTP status.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		writeError(w, http.StatusBadRequest, "validation failed", err)
	case core.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found", err)
	case core.IsPermission(err):
		writeError(w, http.StatusForbidden, "forbidden", err)
	case core.IsConflict(err):
		writeError(w, http.StatusConflict, "conflict", err)
	default:
		h.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
