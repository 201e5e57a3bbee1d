package rating_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brookside/clinic-portal/internal/model"
	"github.com/brookside/clinic-portal/internal/repository"
	"github.com/brookside/clinic-portal/internal/repository/memory"
	"github.com/brookside/clinic-portal/internal/service/access"
	"github.com/brookside/clinic-portal/internal/service/rating"
	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

type fixture struct {
	svc          *rating.Service
	appointments repository.AppointmentRepository
	orders       repository.OrderRepository
}

func newFixture() *fixture {
	appointments := memory.NewAppointmentRepository()
	orders := memory.NewOrderRepository()
	ratings := memory.NewRatingRepository()
	return &fixture{
		svc:          rating.NewService(ratings, appointments, orders, access.NewGate()),
		appointments: appointments,
		orders:       orders,
	}
}

func (f *fixture) addAppointment(t *testing.T, patientID, clinicianID uuid.UUID, status model.AppointmentStatus) uuid.UUID {
	t.Helper()
	apt := &model.Appointment{
		PatientID:   patientID,
		ClinicianID: clinicianID,
		ScheduledAt: time.Now().Add(-24 * time.Hour),
		Mode:        model.AppointmentModeInPerson,
		Status:      status,
	}
	apt.ID = uuid.New()
	apt.Version = 1
	require.NoError(t, f.appointments.Create(context.Background(), apt))
	return apt.ID
}

func (f *fixture) addOrder(t *testing.T, patientID uuid.UUID, status model.OrderStatus, payment model.PaymentStatus) uuid.UUID {
	t.Helper()
	ord := &model.DiagnosticOrder{
		PatientID:     patientID,
		OrderNumber:   "LAB-20250602-" + uuid.New().String()[:6],
		TotalAmount:   decimal.NewFromFloat(49.99),
		Status:        status,
		PaymentStatus: payment,
		PaymentMethod: model.PaymentMethodCreditCard,
	}
	ord.ID = uuid.New()
	ord.Version = 1
	require.NoError(t, f.orders.Create(context.Background(), ord))
	return ord.ID
}

func TestCreateRatingForAppointment(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	patient := model.Actor{ID: uuid.New(), Role: model.RolePatient}
	clinicianID := uuid.New()

	aptID := f.addAppointment(t, patient.ID, clinicianID, model.AppointmentStatusCompleted)

	rt, err := f.svc.Create(ctx, patient, &model.CreateRatingInput{
		AppointmentID: &aptID,
		Score:         5,
		Comment:       "great visit",
	})
	require.NoError(t, err)
	assert.Equal(t, patient.ID, rt.PatientID)
	assert.Equal(t, clinicianID, rt.StaffID, "staff attribution comes from the appointment")

	// One rating per target
	_, err = f.svc.Create(ctx, patient, &model.CreateRatingInput{AppointmentID: &aptID, Score: 3})
	assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest))
}

func TestCreateRatingForOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	patient := model.Actor{ID: uuid.New(), Role: model.RolePatient}

	orderID := f.addOrder(t, patient.ID, model.OrderStatusCompleted, model.PaymentStatusPaid)

	rt, err := f.svc.Create(ctx, patient, &model.CreateRatingInput{OrderID: &orderID, Score: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, rt.Score)
}

func TestCreateRatingTargetValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	patient := model.Actor{ID: uuid.New(), Role: model.RolePatient}

	aptID := f.addAppointment(t, patient.ID, uuid.New(), model.AppointmentStatusCompleted)
	orderID := f.addOrder(t, patient.ID, model.OrderStatusCompleted, model.PaymentStatusPaid)

	// Neither target
	_, err := f.svc.Create(ctx, patient, &model.CreateRatingInput{Score: 5})
	assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest))

	// Both targets
	_, err = f.svc.Create(ctx, patient, &model.CreateRatingInput{AppointmentID: &aptID, OrderID: &orderID, Score: 5})
	assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest))

	// Score out of range
	_, err = f.svc.Create(ctx, patient, &model.CreateRatingInput{AppointmentID: &aptID, Score: 6})
	assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest))
	_, err = f.svc.Create(ctx, patient, &model.CreateRatingInput{AppointmentID: &aptID, Score: 0})
	assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest))
}

func TestCreateRatingRequiresCompletedTarget(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	patient := model.Actor{ID: uuid.New(), Role: model.RolePatient}

	pendingApt := f.addAppointment(t, patient.ID, uuid.New(), model.AppointmentStatusPending)
	_, err := f.svc.Create(ctx, patient, &model.CreateRatingInput{AppointmentID: &pendingApt, Score: 5})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))

	openOrder := f.addOrder(t, patient.ID, model.OrderStatusScheduled, model.PaymentStatusPaid)
	_, err = f.svc.Create(ctx, patient, &model.CreateRatingInput{OrderID: &openOrder, Score: 5})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))
}

func TestCreateRatingOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := model.Actor{ID: uuid.New(), Role: model.RolePatient}
	stranger := model.Actor{ID: uuid.New(), Role: model.RolePatient}

	aptID := f.addAppointment(t, owner.ID, uuid.New(), model.AppointmentStatusCompleted)

	_, err := f.svc.Create(ctx, stranger, &model.CreateRatingInput{AppointmentID: &aptID, Score: 1})
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestListRatingsAdminOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	patient := model.Actor{ID: uuid.New(), Role: model.RolePatient}

	aptID := f.addAppointment(t, patient.ID, uuid.New(), model.AppointmentStatusCompleted)
	_, err := f.svc.Create(ctx, patient, &model.CreateRatingInput{AppointmentID: &aptID, Score: 5})
	require.NoError(t, err)

	_, err = f.svc.List(ctx, patient)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	all, err := f.svc.List(ctx, model.Actor{ID: uuid.New(), Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
