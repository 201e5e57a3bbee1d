package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brookside/clinic-portal/internal/model"
	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, clinician_id, scheduled_at, mode,
			reason, notes, status, cancel_reason, version,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.ClinicianID,
		appointment.ScheduledAt,
		appointment.Mode,
		appointment.Reason,
		appointment.Notes,
		appointment.Status,
		appointment.CancelReason,
		appointment.Version,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return apperrors.Unavailable(fmt.Errorf("failed to create appointment: %w", err))
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, patient_id, clinician_id, scheduled_at, mode,
			   reason, notes, status, cancel_reason, version,
			   created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("appointment")
	}
	if err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("failed to get appointment: %w", err))
	}
	return &appointment, nil
}

// UpdateIfVersion commits the record only when the stored version still equals
// appointment.Version. The committed row carries version+1.
func (r *appointmentRepository) UpdateIfVersion(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET scheduled_at = $1, mode = $2, reason = $3, notes = $4,
			status = $5, cancel_reason = $6, version = version + 1, updated_at = $7
		WHERE id = $8 AND version = $9
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appointment.ScheduledAt,
		appointment.Mode,
		appointment.Reason,
		appointment.Notes,
		appointment.Status,
		appointment.CancelReason,
		appointment.UpdatedAt,
		appointment.ID,
		appointment.Version,
	)
	if err != nil {
		return apperrors.Unavailable(fmt.Errorf("failed to update appointment: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Unavailable(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperrors.StaleState("appointment")
	}

	appointment.Version++
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, clinician_id, scheduled_at, mode,
			   reason, notes, status, cancel_reason, version,
			   created_at, updated_at
		FROM appointments
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND patient_id = $%d", argCount)
			args = append(args, filters.PatientID)
			argCount++
		}
		if filters.ClinicianID != uuid.Nil {
			query += fmt.Sprintf(" AND clinician_id = $%d", argCount)
			args = append(args, filters.ClinicianID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if !filters.Range.Start.IsZero() {
			query += fmt.Sprintf(" AND scheduled_at >= $%d", argCount)
			args = append(args, filters.Range.Start)
			argCount++
		}
		if !filters.Range.End.IsZero() {
			query += fmt.Sprintf(" AND scheduled_at <= $%d", argCount)
			args = append(args, filters.Range.End)
			argCount++
		}
	}

	query += " ORDER BY scheduled_at ASC"

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("failed to list appointments: %w", err))
	}
	return appointments, nil
}
