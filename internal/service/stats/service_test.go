package stats_test

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
	"github.com/brookside/clinic-portal/internal/service/stats"
	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

var now = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc          *stats.Service
	appointments repository.AppointmentRepository
	orders       repository.OrderRepository
	ratings      repository.RatingRepository
}

func newFixture() *fixture {
	appointments := memory.NewAppointmentRepository()
	orders := memory.NewOrderRepository()
	ratings := memory.NewRatingRepository()
	return &fixture{
		svc:          stats.NewService(appointments, orders, ratings, access.NewGate()),
		appointments: appointments,
		orders:       orders,
		ratings:      ratings,
	}
}

func admin() model.Actor {
	return model.Actor{ID: uuid.New(), Role: model.RoleAdmin}
}

func (f *fixture) addAppointment(t *testing.T, patientID uuid.UUID, status model.AppointmentStatus, createdAt time.Time) {
	t.Helper()
	apt := &model.Appointment{
		PatientID:   patientID,
		ClinicianID: uuid.New(),
		ScheduledAt: createdAt.Add(24 * time.Hour),
		Mode:        model.AppointmentModeInPerson,
		Status:      status,
	}
	apt.ID = uuid.New()
	apt.Version = 1
	apt.CreatedAt = createdAt
	apt.UpdatedAt = createdAt
	require.NoError(t, f.appointments.Create(context.Background(), apt))
}

func (f *fixture) addOrder(t *testing.T, patientID uuid.UUID, payment model.PaymentStatus, amount float64, createdAt time.Time, items ...model.LineItem) {
	t.Helper()
	status := model.OrderStatusProcessing
	if payment == model.PaymentStatusFailed {
		status = model.OrderStatusCancelled
	}
	ord := &model.DiagnosticOrder{
		PatientID:     patientID,
		OrderNumber:   "LAB-20250602-" + uuid.New().String()[:6],
		LineItems:     items,
		TotalAmount:   decimal.NewFromFloat(amount),
		Status:        status,
		PaymentStatus: payment,
		PaymentMethod: model.PaymentMethodCreditCard,
	}
	ord.ID = uuid.New()
	ord.Version = 1
	ord.CreatedAt = createdAt
	ord.UpdatedAt = createdAt
	require.NoError(t, f.orders.Create(context.Background(), ord))
}

func (f *fixture) addRating(t *testing.T, score int) {
	t.Helper()
	aptID := uuid.New()
	require.NoError(t, f.ratings.Create(context.Background(), &model.Rating{
		AppointmentID: &aptID,
		PatientID:     uuid.New(),
		StaffID:       uuid.New(),
		Score:         score,
	}))
}

func TestAdminSummaryRevenue(t *testing.T) {
	f := newFixture()
	patient := uuid.New()

	f.addOrder(t, patient, model.PaymentStatusPaid, 100.00, now.Add(-time.Hour))
	f.addOrder(t, patient, model.PaymentStatusPaid, 50.00, now.Add(-2*time.Hour))
	f.addOrder(t, patient, model.PaymentStatusPending, 50.00, now.Add(-3*time.Hour))
	// Failed payments count toward neither bucket
	f.addOrder(t, patient, model.PaymentStatusFailed, 999.00, now.Add(-4*time.Hour))

	summary, err := f.svc.ComputeAdminSummary(context.Background(), admin(), now)
	require.NoError(t, err)

	assert.True(t, summary.TotalRevenue.Equal(decimal.NewFromInt(150)))
	assert.True(t, summary.PendingRevenue.Equal(decimal.NewFromInt(50)))
	assert.True(t, summary.CollectionRate.Equal(decimal.NewFromFloat(0.75)), "rate %s", summary.CollectionRate)
	assert.Equal(t, 3, summary.OrderCounts[model.OrderStatusProcessing])
	assert.Equal(t, 1, summary.OrderCounts[model.OrderStatusCancelled])
}

func TestAdminSummaryEmptyClinic(t *testing.T) {
	f := newFixture()

	summary, err := f.svc.ComputeAdminSummary(context.Background(), admin(), now)
	require.NoError(t, err)

	assert.True(t, summary.TotalRevenue.IsZero())
	assert.True(t, summary.CollectionRate.IsZero(), "no billing means rate 0, not a division error")
	assert.True(t, summary.AvgSatisfaction.IsZero())
	assert.Empty(t, summary.TopTests)
}

func TestAdminSummaryTopTests(t *testing.T) {
	f := newFixture()
	patient := uuid.New()

	cbc := model.LineItem{TestID: "cbc", TestName: "Complete Blood Count", UnitPrice: decimal.NewFromFloat(49.99), Quantity: 1}
	lipid := model.LineItem{TestID: "lipid", TestName: "Lipid Panel", UnitPrice: decimal.NewFromFloat(39.50), Quantity: 1}
	tsh := model.LineItem{TestID: "tsh", TestName: "TSH", UnitPrice: decimal.NewFromFloat(55), Quantity: 3}

	// lipid first encountered (oldest order), then cbc; both end at quantity 2
	f.addOrder(t, patient, model.PaymentStatusPaid, 39.50, now.Add(-3*time.Hour), lipid)
	f.addOrder(t, patient, model.PaymentStatusPaid, 89.49, now.Add(-2*time.Hour), cbc, lipid)
	f.addOrder(t, patient, model.PaymentStatusPaid, 214.99, now.Add(-time.Hour), cbc, tsh)

	summary, err := f.svc.ComputeAdminSummary(context.Background(), admin(), now)
	require.NoError(t, err)

	require.Len(t, summary.TopTests, 3)
	assert.Equal(t, "tsh", summary.TopTests[0].TestID)
	assert.Equal(t, 3, summary.TopTests[0].Quantity)
	// Tie between lipid and cbc: first encountered wins
	assert.Equal(t, "lipid", summary.TopTests[1].TestID)
	assert.Equal(t, "cbc", summary.TopTests[2].TestID)
}

func TestAdminSummaryTrendWindows(t *testing.T) {
	f := newFixture()
	patient := uuid.New()

	f.addAppointment(t, patient, model.AppointmentStatusPending, now.Add(-time.Hour))       // today
	f.addAppointment(t, patient, model.AppointmentStatusCompleted, now.AddDate(0, 0, -3))   // 7d
	f.addAppointment(t, patient, model.AppointmentStatusCancelled, now.AddDate(0, 0, -20))  // 30d
	f.addAppointment(t, patient, model.AppointmentStatusCompleted, now.AddDate(0, 0, -40))  // outside

	f.addOrder(t, patient, model.PaymentStatusPaid, 100, now.Add(-time.Hour))
	f.addOrder(t, patient, model.PaymentStatusPaid, 50, now.AddDate(0, 0, -10))

	summary, err := f.svc.ComputeAdminSummary(context.Background(), admin(), now)
	require.NoError(t, err)
	require.Len(t, summary.Trend, 3)

	today, week, month := summary.Trend[0], summary.Trend[1], summary.Trend[2]
	assert.Equal(t, "today", today.Window)
	assert.Equal(t, 1, today.Appointments)
	assert.Equal(t, 1, today.Orders)
	assert.True(t, today.Revenue.Equal(decimal.NewFromInt(100)))

	assert.Equal(t, 2, week.Appointments)
	assert.Equal(t, 1, week.Orders)

	assert.Equal(t, 3, month.Appointments)
	assert.Equal(t, 2, month.Orders)
	assert.True(t, month.Revenue.Equal(decimal.NewFromInt(150)))
}

func TestAdminSummarySatisfaction(t *testing.T) {
	f := newFixture()
	f.addRating(t, 5)
	f.addRating(t, 4)
	f.addRating(t, 4)

	summary, err := f.svc.ComputeAdminSummary(context.Background(), admin(), now)
	require.NoError(t, err)
	assert.True(t, summary.AvgSatisfaction.Equal(decimal.NewFromFloat(4.33)), "avg %s", summary.AvgSatisfaction)
}

func TestAdminSummaryRequiresAdmin(t *testing.T) {
	f := newFixture()
	patient := model.Actor{ID: uuid.New(), Role: model.RolePatient}

	_, err := f.svc.ComputeAdminSummary(context.Background(), patient, now)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestPatientSummary(t *testing.T) {
	f := newFixture()
	patient := model.Actor{ID: uuid.New(), Role: model.RolePatient}
	other := uuid.New()

	f.addAppointment(t, patient.ID, model.AppointmentStatusCompleted, now.Add(-time.Hour))
	f.addAppointment(t, patient.ID, model.AppointmentStatusPending, now.Add(-2*time.Hour))
	f.addAppointment(t, other, model.AppointmentStatusCompleted, now.Add(-time.Hour))

	for i := 0; i < 12; i++ {
		f.addOrder(t, patient.ID, model.PaymentStatusPaid, 10, now.Add(-time.Duration(i)*time.Hour))
	}

	summary, err := f.svc.ComputePatientSummary(context.Background(), patient, patient.ID, now)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.AppointmentCounts[model.AppointmentStatusCompleted])
	assert.Equal(t, 1, summary.AppointmentCounts[model.AppointmentStatusPending])
	assert.Len(t, summary.RecentOrders, 10, "recent orders are capped")

	// Patients cannot read another patient's summary; admins can
	_, err = f.svc.ComputePatientSummary(context.Background(), patient, other, now)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	_, err = f.svc.ComputePatientSummary(context.Background(), admin(), other, now)
	assert.NoError(t, err)
}
