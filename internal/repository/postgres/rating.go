package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/brookside/clinic-portal/internal/model"
	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

func (r *ratingRepository) Create(ctx context.Context, rating *model.Rating) error {
	query := `
		INSERT INTO ratings (
			id, appointment_id, order_id, patient_id, staff_id,
			score, comment, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	rating.ID = uuid.New()
	rating.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		rating.ID,
		rating.AppointmentID,
		rating.OrderID,
		rating.PatientID,
		rating.StaffID,
		rating.Score,
		rating.Comment,
		rating.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return apperrors.BadRequest("rating already submitted", err)
		}
		return apperrors.Unavailable(fmt.Errorf("failed to create rating: %w", err))
	}
	return nil
}

func (r *ratingRepository) GetForAppointment(ctx context.Context, patientID, appointmentID uuid.UUID) (*model.Rating, error) {
	query := `
		SELECT id, appointment_id, order_id, patient_id, staff_id, score, comment, created_at
		FROM ratings
		WHERE patient_id = $1 AND appointment_id = $2
	`
	var rating model.Rating
	err := r.db.GetContext(ctx, &rating, query, patientID, appointmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("rating")
	}
	if err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("failed to get rating: %w", err))
	}
	return &rating, nil
}

func (r *ratingRepository) GetForOrder(ctx context.Context, patientID, orderID uuid.UUID) (*model.Rating, error) {
	query := `
		SELECT id, appointment_id, order_id, patient_id, staff_id, score, comment, created_at
		FROM ratings
		WHERE patient_id = $1 AND order_id = $2
	`
	var rating model.Rating
	err := r.db.GetContext(ctx, &rating, query, patientID, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("rating")
	}
	if err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("failed to get rating: %w", err))
	}
	return &rating, nil
}

func (r *ratingRepository) List(ctx context.Context) ([]*model.Rating, error) {
	query := `
		SELECT id, appointment_id, order_id, patient_id, staff_id, score, comment, created_at
		FROM ratings
		ORDER BY created_at DESC
	`
	var ratings []*model.Rating
	err := r.db.SelectContext(ctx, &ratings, query)
	if err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("failed to list ratings: %w", err))
	}
	return ratings, nil
}
