package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all persisted records. Version is the
// optimistic-concurrency token: every committed update increments it, and a
// writer that presents a stale version loses.
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Version   int64     `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// DateRange bounds time-windowed list queries. Zero values mean unbounded.
type DateRange struct {
	Start time.Time `json:"start" form:"start"`
	End   time.Time `json:"end" form:"end"`
}
