package model

import (
	"time"

	"github.com/google/uuid"
)

// Rating is an append-only satisfaction record a patient leaves on a completed
// appointment or order. Exactly one of AppointmentID/OrderID is set.
type Rating struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	OrderID       *uuid.UUID `db:"order_id" json:"order_id,omitempty"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	StaffID       uuid.UUID  `db:"staff_id" json:"staff_id"`
	Score         int        `db:"score" json:"score"`
	Comment       string     `db:"comment" json:"comment,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

type CreateRatingInput struct {
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	OrderID       *uuid.UUID `json:"order_id,omitempty"`
	Score         int        `json:"score" validate:"required,min=1,max=5"`
	Comment       string     `json:"comment" validate:"max=2000"`
}
