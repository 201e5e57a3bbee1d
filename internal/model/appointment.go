package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Terminal reports whether no transition may leave this status.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

type AppointmentMode string

const (
	AppointmentModeInPerson AppointmentMode = "in_person"
	AppointmentModeVirtual  AppointmentMode = "virtual"
)

type Appointment struct {
	Base
	PatientID    uuid.UUID         `db:"patient_id" json:"patient_id"`
	ClinicianID  uuid.UUID         `db:"clinician_id" json:"clinician_id"`
	ScheduledAt  time.Time         `db:"scheduled_at" json:"scheduled_at"`
	Mode         AppointmentMode   `db:"mode" json:"mode"`
	Reason       string            `db:"reason" json:"reason"`
	Notes        string            `db:"notes" json:"notes,omitempty"`
	Status       AppointmentStatus `db:"status" json:"status"`
	CancelReason *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

type RequestAppointmentInput struct {
	ClinicianID uuid.UUID       `json:"clinician_id" validate:"required"`
	ScheduledAt time.Time       `json:"scheduled_at" validate:"required"`
	Mode        AppointmentMode `json:"mode" validate:"required,oneof=in_person virtual"`
	Reason      string          `json:"reason" validate:"required,max=1000"`
}

type AppointmentFilters struct {
	PatientID   uuid.UUID
	ClinicianID uuid.UUID
	Status      AppointmentStatus
	Range       DateRange
}
