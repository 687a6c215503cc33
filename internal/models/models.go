package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the authenticated profile returned by the backend.
type User struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	TenantID   uuid.UUID `json:"tenantId"`
	TenantName string    `json:"tenantName"`
	Role       string    `json:"role"`
}

// Project represents a client or category, owned by the tenant.
type Project struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	TenantID      uuid.UUID `json:"tenantId"`
	CreatedByName string    `json:"createdByName"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TimeEntry represents a single unit of tracked work. EndTime is nil while
// the entry is still running.
type TimeEntry struct {
	ID          uuid.UUID  `json:"id"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
	ProjectID   uuid.UUID  `json:"projectId"`
	ProjectName string     `json:"projectName"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Running reports whether the entry has not been stopped yet.
func (e TimeEntry) Running() bool {
	return e.EndTime == nil
}

// Duration returns the tracked duration, using now for running entries.
// Never negative, to tolerate small clock skew against the server.
func (e TimeEntry) Duration(now time.Time) time.Duration {
	end := now
	if e.EndTime != nil {
		end = *e.EndTime
	}
	d := end.Sub(e.StartTime)
	if d < 0 {
		return 0
	}
	return d
}

// Page mirrors the backend's paginated list responses.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Size          int   `json:"size"`
	Number        int   `json:"number"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}
