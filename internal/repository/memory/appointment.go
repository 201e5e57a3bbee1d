package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/brookside/clinic-portal/internal/model"
	"github.com/brookside/clinic-portal/internal/repository"
	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

type appointmentRepository struct {
	*store
}

func NewAppointmentRepository() repository.AppointmentRepository {
	return &appointmentRepository{store: newStore()}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stored model.Appointment
	if err := clone(appointment, &stored); err != nil {
		return apperrors.Unavailable(err)
	}
	r.items.Set(appointment.ID.String(), &stored, 0)
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id)
}

func (r *appointmentRepository) get(id uuid.UUID) (*model.Appointment, error) {
	v, ok := r.items.Get(id.String())
	if !ok {
		return nil, apperrors.NotFound("appointment")
	}
	var out model.Appointment
	if err := clone(v, &out); err != nil {
		return nil, apperrors.Unavailable(err)
	}
	return &out, nil
}

func (r *appointmentRepository) UpdateIfVersion(ctx context.Context, appointment *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.get(appointment.ID)
	if err != nil {
		return err
	}
	if current.Version != appointment.Version {
		return apperrors.StaleState("appointment")
	}

	var stored model.Appointment
	if err := clone(appointment, &stored); err != nil {
		return apperrors.Unavailable(err)
	}
	stored.Version++
	r.items.Set(stored.ID.String(), &stored, 0)
	appointment.Version = stored.Version
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Appointment
	for _, item := range r.items.Items() {
		apt := item.Object.(*model.Appointment)
		if !matchAppointment(apt, filters) {
			continue
		}
		var cp model.Appointment
		if err := clone(apt, &cp); err != nil {
			return nil, apperrors.Unavailable(err)
		}
		out = append(out, &cp)
	}
	return out, nil
}

func matchAppointment(apt *model.Appointment, filters *model.AppointmentFilters) bool {
	if filters == nil {
		return true
	}
	if filters.PatientID != uuid.Nil && apt.PatientID != filters.PatientID {
		return false
	}
	if filters.ClinicianID != uuid.Nil && apt.ClinicianID != filters.ClinicianID {
		return false
	}
	if filters.Status != "" && apt.Status != filters.Status {
		return false
	}
	if !filters.Range.Start.IsZero() && apt.ScheduledAt.Before(filters.Range.Start) {
		return false
	}
	if !filters.Range.End.IsZero() && apt.ScheduledAt.After(filters.Range.End) {
		return false
	}
	return true
}
