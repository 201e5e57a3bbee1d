// Package rating records patient satisfaction against completed
// appointments and orders. Ratings are append-only and feed the statistics
// aggregator's satisfaction figures.
package rating

import (
	"context"

	"github.com/brookside/clinic-portal/internal/model"
	"github.com/brookside/clinic-portal/internal/repository"
	"github.com/brookside/clinic-portal/internal/service/access"
	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

type Service struct {
	ratings      repository.RatingRepository
	appointments repository.AppointmentRepository
	orders       repository.OrderRepository
	gate         *access.Gate
}

func NewService(ratings repository.RatingRepository, appointments repository.AppointmentRepository, orders repository.OrderRepository, gate *access.Gate) *Service {
	return &Service{
		ratings:      ratings,
		appointments: appointments,
		orders:       orders,
		gate:         gate,
	}
}

// Create records a rating. The target must be a completed appointment or
// order belonging to the acting patient, and each (patient, target) pair may
// be rated once.
func (s *Service) Create(ctx context.Context, actor model.Actor, input *model.CreateRatingInput) (*model.Rating, error) {
	if (input.AppointmentID == nil) == (input.OrderID == nil) {
		return nil, apperrors.BadRequest("exactly one of appointment_id or order_id is required", nil)
	}
	if input.Score < 1 || input.Score > 5 {
		return nil, apperrors.BadRequest("score must be between 1 and 5", nil)
	}

	rating := &model.Rating{
		AppointmentID: input.AppointmentID,
		OrderID:       input.OrderID,
		PatientID:     actor.ID,
		Score:         input.Score,
		Comment:       input.Comment,
	}

	if input.AppointmentID != nil {
		apt, err := s.appointments.Get(ctx, *input.AppointmentID)
		if err != nil {
			return nil, err
		}
		if err := s.gate.Authorize(actor, access.OpRatingCreate, access.Ownership{PatientID: apt.PatientID}); err != nil {
			return nil, err
		}
		if apt.Status != model.AppointmentStatusCompleted {
			return nil, apperrors.InvalidTransition("only completed appointments can be rated")
		}
		if _, err := s.ratings.GetForAppointment(ctx, actor.ID, apt.ID); err == nil {
			return nil, apperrors.BadRequest("appointment already rated", nil)
		} else if !apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, err
		}
		rating.StaffID = apt.ClinicianID
	} else {
		order, err := s.orders.Get(ctx, *input.OrderID)
		if err != nil {
			return nil, err
		}
		if err := s.gate.Authorize(actor, access.OpRatingCreate, access.Ownership{PatientID: order.PatientID}); err != nil {
			return nil, err
		}
		if order.Status != model.OrderStatusCompleted {
			return nil, apperrors.InvalidTransition("only completed orders can be rated")
		}
		if _, err := s.ratings.GetForOrder(ctx, actor.ID, order.ID); err == nil {
			return nil, apperrors.BadRequest("order already rated", nil)
		} else if !apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, err
		}
	}

	if err := s.ratings.Create(ctx, rating); err != nil {
		return nil, err
	}
	return rating, nil
}

// List returns every rating; admin dashboards use it.
func (s *Service) List(ctx context.Context, actor model.Actor) ([]*model.Rating, error) {
	if err := s.gate.Authorize(actor, access.OpStatsAdmin, access.Ownership{}); err != nil {
		return nil, err
	}
	return s.ratings.List(ctx)
}
