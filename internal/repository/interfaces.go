package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/brookside/clinic-portal/internal/model"
)

// All repository interfaces in one file.
//
// Update semantics are optimistic: implementations commit only when the stored
// Version matches the record's Version, increment it on success, and return a
// StaleState error otherwise. There is no partial-update surface; callers
// re-read, re-check, and resubmit.
type (
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		UpdateIfVersion(ctx context.Context, appointment *model.Appointment) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	}

	OrderRepository interface {
		Create(ctx context.Context, order *model.DiagnosticOrder) error
		Get(ctx context.Context, id uuid.UUID) (*model.DiagnosticOrder, error)
		GetByOrderNumber(ctx context.Context, orderNumber string) (*model.DiagnosticOrder, error)
		UpdateIfVersion(ctx context.Context, order *model.DiagnosticOrder) error
		List(ctx context.Context, filters *model.OrderFilters) ([]*model.DiagnosticOrder, error)
	}

	RatingRepository interface {
		Create(ctx context.Context, rating *model.Rating) error
		GetForAppointment(ctx context.Context, patientID, appointmentID uuid.UUID) (*model.Rating, error)
		GetForOrder(ctx context.Context, patientID, orderID uuid.UUID) (*model.Rating, error)
		List(ctx context.Context) ([]*model.Rating, error)
	}

	CatalogRepository interface {
		GetEntry(ctx context.Context, testID string) (*model.TestCatalogEntry, error)
	}
)
