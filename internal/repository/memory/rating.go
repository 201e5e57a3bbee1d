package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brookside/clinic-portal/internal/model"
	"github.com/brookside/clinic-portal/internal/repository"
	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

type ratingRepository struct {
	*store
}

func NewRatingRepository() repository.RatingRepository {
	return &ratingRepository{store: newStore()}
}

func (r *ratingRepository) Create(ctx context.Context, rating *model.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range r.items.Items() {
		existing := item.Object.(*model.Rating)
		if existing.PatientID != rating.PatientID {
			continue
		}
		if rating.AppointmentID != nil && existing.AppointmentID != nil && *existing.AppointmentID == *rating.AppointmentID {
			return apperrors.BadRequest("rating already submitted", nil)
		}
		if rating.OrderID != nil && existing.OrderID != nil && *existing.OrderID == *rating.OrderID {
			return apperrors.BadRequest("rating already submitted", nil)
		}
	}

	rating.ID = uuid.New()
	rating.CreatedAt = time.Now()

	var stored model.Rating
	if err := clone(rating, &stored); err != nil {
		return apperrors.Unavailable(err)
	}
	r.items.Set(rating.ID.String(), &stored, 0)
	return nil
}

func (r *ratingRepository) GetForAppointment(ctx context.Context, patientID, appointmentID uuid.UUID) (*model.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range r.items.Items() {
		rating := item.Object.(*model.Rating)
		if rating.PatientID == patientID && rating.AppointmentID != nil && *rating.AppointmentID == appointmentID {
			var out model.Rating
			if err := clone(rating, &out); err != nil {
				return nil, apperrors.Unavailable(err)
			}
			return &out, nil
		}
	}
	return nil, apperrors.NotFound("rating")
}

func (r *ratingRepository) GetForOrder(ctx context.Context, patientID, orderID uuid.UUID) (*model.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range r.items.Items() {
		rating := item.Object.(*model.Rating)
		if rating.PatientID == patientID && rating.OrderID != nil && *rating.OrderID == orderID {
			var out model.Rating
			if err := clone(rating, &out); err != nil {
				return nil, apperrors.Unavailable(err)
			}
			return &out, nil
		}
	}
	return nil, apperrors.NotFound("rating")
}

func (r *ratingRepository) List(ctx context.Context) ([]*model.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Rating
	for _, item := range r.items.Items() {
		var cp model.Rating
		if err := clone(item.Object, &cp); err != nil {
			return nil, apperrors.Unavailable(err)
		}
		out = append(out, &cp)
	}
	return out, nil
}
