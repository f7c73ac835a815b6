/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DATES:
  Leave endpoints exchange calendar dates as "YYYY-MM-DD" strings.
  Record timestamps are RFC3339.

PARTIAL UPDATES:
  Optional fields are pointers; a field absent from the JSON stays nil
  and the corresponding record field is untouched.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/leave-tracker/core"
)

// =============================================================================
// USER TYPES
// =============================================================================

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	IsActive      bool    `json:"is_active"`
	IsAdmin       bool    `json:"is_admin"`
	AvailableDays float64 `json:"available_days"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     *string `json:"updated_at,omitempty"`
}

// CreateUserRequest is the request to register a user.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateUserRequest carries optional profile fields.
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// PromoteUserRequest carries optional privilege flags.
type PromoteUserRequest struct {
	IsAdmin  *bool `json:"is_admin,omitempty"`
	IsActive *bool `json:"is_active,omitempty"`
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

// LeaveDTO represents a leave request in API responses.
type LeaveDTO struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Days      float64 `json:"days"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt *string `json:"updated_at,omitempty"`
}

// LeaveDatesRequest carries a date range, used both for creating a leave
// and for changing its dates.
type LeaveDatesRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// UpdateLeaveStatusRequest carries the target status.
type UpdateLeaveStatusRequest struct {
	Status string `json:"status"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

const dateFormat = "2006-01-02"

func toUserDTO(u *core.User) UserDTO {
	days, _ := u.AvailableDays.Float64()
	return UserDTO{
		ID:            string(u.ID),
		Name:          u.Name,
		Email:         u.Email,
		IsActive:      u.IsActive,
		IsAdmin:       u.IsAdmin,
		AvailableDays: days,
		CreatedAt:     u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     formatOptTime(u.UpdatedAt),
	}
}

func toLeaveDTO(l *core.Leave) LeaveDTO {
	days, _ := l.Days.Float64()
	return LeaveDTO{
		ID:        string(l.ID),
		UserID:    string(l.UserID),
		StartDate: l.StartDate.Format(dateFormat),
		EndDate:   l.EndDate.Format(dateFormat),
		Days:      days,
		Status:    string(l.Status),
		CreatedAt: l.CreatedAt.Format(time.RFC3339),
		UpdatedAt: formatOptTime(l.UpdatedAt),
	}
}

func toLeaveDTOs(leaves []core.Leave) []LeaveDTO {
	dtos := make([]LeaveDTO, len(leaves))
	for i := range leaves {
		dtos[i] = toLeaveDTO(&leaves[i])
	}
	return dtos
}

func formatOptTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
