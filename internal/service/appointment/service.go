// Package appointment owns the clinical appointment state machine:
// pending → scheduled → completed, with cancellation from either live state.
package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brookside/clinic-portal/internal/model"
	"github.com/brookside/clinic-portal/internal/repository"
	"github.com/brookside/clinic-portal/internal/service/access"
	"github.com/brookside/clinic-portal/internal/service/notification"
	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

// ScheduleSource exposes the clinician working-day data the portal does not
// own. Slots outside published working days are invalid at request time.
type ScheduleSource interface {
	WorkingDays(ctx context.Context, clinicianID uuid.UUID) ([]time.Weekday, error)
}

// Weekdays is the default schedule when no external source is wired: every
// clinician works Monday through Friday.
type Weekdays struct{}

func (Weekdays) WorkingDays(ctx context.Context, clinicianID uuid.UUID) ([]time.Weekday, error) {
	return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}, nil
}

type Service struct {
	repo     repository.AppointmentRepository
	gate     *access.Gate
	schedule ScheduleSource
	notifSvc notification.Service
	now      func() time.Time
}

func NewService(repo repository.AppointmentRepository, gate *access.Gate, schedule ScheduleSource, notifSvc notification.Service) *Service {
	return &Service{
		repo:     repo,
		gate:     gate,
		schedule: schedule,
		notifSvc: notifSvc,
		now:      time.Now,
	}
}

// WithClock overrides the service clock; tests use it to pin "now".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Request creates a new appointment in pending for the given patient. Admins
// and clinicians may request on a patient's behalf; patients only for
// themselves (enforced by the gate through the ownership pair).
func (s *Service) Request(ctx context.Context, actor model.Actor, patientID uuid.UUID, input *model.RequestAppointmentInput) (*model.Appointment, error) {
	if err := s.gate.Authorize(actor, access.OpAppointmentRequest, access.Ownership{PatientID: patientID}); err != nil {
		return nil, err
	}
	if actor.Role == model.RolePatient && actor.ID != patientID {
		return nil, apperrors.Forbidden("patients may only book for themselves")
	}

	if err := s.validateSlot(ctx, input.ClinicianID, input.ScheduledAt); err != nil {
		return nil, err
	}

	now := s.now()
	apt := &model.Appointment{
		PatientID:   patientID,
		ClinicianID: input.ClinicianID,
		ScheduledAt: input.ScheduledAt,
		Mode:        input.Mode,
		Reason:      input.Reason,
		Status:      model.AppointmentStatusPending,
	}
	apt.ID = uuid.New()
	apt.Version = 1
	apt.CreatedAt = now
	apt.UpdatedAt = now

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, err
	}

	s.notifSvc.Notify(ctx, apt.PatientID, notification.EventAppointmentRequested, apt)
	return apt, nil
}

// Confirm moves pending → scheduled. Clinician/admin only.
func (s *Service) Confirm(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, access.OpAppointmentConfirm, ownershipOf(apt)); err != nil {
		return nil, err
	}

	if apt.Status != model.AppointmentStatusPending {
		return nil, apperrors.InvalidTransition("only pending appointments can be confirmed")
	}
	if apt.ScheduledAt.IsZero() {
		return nil, apperrors.InvalidTransition("appointment has no scheduled time")
	}

	apt.Status = model.AppointmentStatusScheduled
	if err := s.repo.UpdateIfVersion(ctx, apt); err != nil {
		return nil, err
	}

	s.notifSvc.Notify(ctx, apt.PatientID, notification.EventAppointmentConfirmed, apt)
	return apt, nil
}

// Reschedule moves the scheduled time without leaving the current live state.
func (s *Service) Reschedule(ctx context.Context, actor model.Actor, id uuid.UUID, newSlot time.Time) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, access.OpAppointmentReschedule, ownershipOf(apt)); err != nil {
		return nil, err
	}

	if apt.Status.Terminal() {
		return nil, apperrors.InvalidTransition("completed or cancelled appointments cannot be rescheduled")
	}
	if err := s.validateSlot(ctx, apt.ClinicianID, newSlot); err != nil {
		return nil, err
	}

	apt.ScheduledAt = newSlot
	if err := s.repo.UpdateIfVersion(ctx, apt); err != nil {
		return nil, err
	}

	s.notifSvc.Notify(ctx, apt.PatientID, notification.EventAppointmentMoved, apt)
	return apt, nil
}

// Complete moves scheduled → completed and unlocks rating creation.
func (s *Service) Complete(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, access.OpAppointmentComplete, ownershipOf(apt)); err != nil {
		return nil, err
	}

	if apt.Status != model.AppointmentStatusScheduled {
		return nil, apperrors.InvalidTransition("only scheduled appointments can be completed")
	}

	apt.Status = model.AppointmentStatusCompleted
	if err := s.repo.UpdateIfVersion(ctx, apt); err != nil {
		return nil, err
	}

	s.notifSvc.Notify(ctx, apt.PatientID, notification.EventAppointmentCompleted, apt)
	return apt, nil
}

// Cancel terminates a pending or scheduled appointment. The owning patient,
// the assigned clinician, or any admin may cancel.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, id uuid.UUID, reason string) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, access.OpAppointmentCancel, ownershipOf(apt)); err != nil {
		return nil, err
	}

	if apt.Status.Terminal() {
		return nil, apperrors.InvalidTransition("appointment is already completed or cancelled")
	}

	apt.Status = model.AppointmentStatusCancelled
	if reason != "" {
		apt.CancelReason = &reason
	}
	if err := s.repo.UpdateIfVersion(ctx, apt); err != nil {
		return nil, err
	}

	s.notifSvc.Notify(ctx, apt.PatientID, notification.EventAppointmentCancelled, apt)
	return apt, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, access.OpAppointmentRead, ownershipOf(apt)); err != nil {
		return nil, err
	}
	return apt, nil
}

// List applies the actor's visibility: patients see their own, clinicians
// their assigned, admins everything matching the filters.
func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if !actor.Authenticated() {
		return nil, apperrors.Forbidden("authentication required")
	}
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}
	switch actor.Role {
	case model.RolePatient:
		filters.PatientID = actor.ID
	case model.RoleClinician:
		filters.ClinicianID = actor.ID
	}
	return s.repo.List(ctx, filters)
}

func (s *Service) validateSlot(ctx context.Context, clinicianID uuid.UUID, slot time.Time) error {
	if !slot.After(s.now()) {
		return apperrors.InvalidSlot("requested slot is in the past")
	}

	days, err := s.schedule.WorkingDays(ctx, clinicianID)
	if err != nil {
		return apperrors.Unavailable(err)
	}
	for _, d := range days {
		if slot.Weekday() == d {
			return nil
		}
	}
	return apperrors.InvalidSlot("requested slot is outside the clinician's working days")
}

func ownershipOf(apt *model.Appointment) access.Ownership {
	return access.Ownership{PatientID: apt.PatientID, ClinicianID: apt.ClinicianID}
}
