package order_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brookside/clinic-portal/internal/model"
	"github.com/brookside/clinic-portal/internal/repository/memory"
	"github.com/brookside/clinic-portal/internal/service/access"
	"github.com/brookside/clinic-portal/internal/service/catalog"
	"github.com/brookside/clinic-portal/internal/service/notification"
	"github.com/brookside/clinic-portal/internal/service/order"
	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

var fixedNow = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *order.Service
	catalog *memory.CatalogRepository
}

func newFixture() *fixture {
	catalogRepo := memory.NewCatalogRepository()
	catalogRepo.Put(model.TestCatalogEntry{TestID: "cbc", Name: "Complete Blood Count", Code: "CBC", UnitPrice: decimal.NewFromFloat(49.99)})
	catalogRepo.Put(model.TestCatalogEntry{TestID: "lipid", Name: "Lipid Panel", Code: "LIPID", UnitPrice: decimal.NewFromFloat(39.50)})

	svc := order.NewService(
		memory.NewOrderRepository(),
		access.NewGate(),
		catalog.NewService(catalogRepo),
		notification.Noop{},
	).WithClock(func() time.Time { return fixedNow })

	return &fixture{svc: svc, catalog: catalogRepo}
}

func patientActor() model.Actor {
	return model.Actor{ID: uuid.New(), Role: model.RolePatient}
}

func adminActor() model.Actor {
	return model.Actor{ID: uuid.New(), Role: model.RoleAdmin}
}

func clinicianActor() model.Actor {
	return model.Actor{ID: uuid.New(), Role: model.RoleClinician}
}

func cardCart() *model.PlaceOrderInput {
	return &model.PlaceOrderInput{
		Items:         []model.CartItem{{TestID: "cbc", Quantity: 1}},
		PaymentMethod: model.PaymentMethodCreditCard,
	}
}

func insuranceCart() *model.PlaceOrderInput {
	return &model.PlaceOrderInput{
		Items:         []model.CartItem{{TestID: "cbc", Quantity: 1}},
		PaymentMethod: model.PaymentMethodInsurance,
	}
}

func claim() *model.InsuranceClaim {
	return &model.InsuranceClaim{Provider: "Acme Health", PolicyNumber: "POL-123", Subscriber: "self"}
}

func visit() *model.Visit {
	return &model.Visit{Date: "2025-06-05", Time: "10:30", Location: "Main Lab"}
}

// Card path end to end: place, pay with a visit slot, attach the result,
// auto-complete.
func TestCardOrderFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	patient := patientActor()

	ord, err := f.svc.Place(ctx, patient, cardCart())
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusProcessing, ord.Status)
	assert.Equal(t, model.PaymentStatusPending, ord.PaymentStatus)
	assert.True(t, ord.TotalAmount.Equal(decimal.NewFromFloat(49.99)), "total %s", ord.TotalAmount)
	assert.True(t, strings.HasPrefix(ord.OrderNumber, "LAB-20250602-"))

	ord, err = f.svc.RecordCardPayment(ctx, patient, ord.ID, "txn-001", visit())
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusScheduled, ord.Status)
	assert.Equal(t, model.PaymentStatusPaid, ord.PaymentStatus)
	require.NotNil(t, ord.ScheduledVisit)

	ord, err = f.svc.AttachResult(ctx, clinicianActor(), ord.ID, model.TestResult{
		TestID: "cbc", Value: "normal", NormalRange: "4.5-11.0", Unit: "10^9/L", Status: model.ResultStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, ord.Status)
	assert.Equal(t, model.PaymentStatusPaid, ord.PaymentStatus)
}

// Insurance path ending in rejection: place, submit claim, adjudicate reject.
func TestInsuranceRejectionFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	patient := patientActor()

	ord, err := f.svc.Place(ctx, patient, insuranceCart())
	require.NoError(t, err)

	// Adjudication before a claim exists is rejected
	_, err = f.svc.Adjudicate(ctx, adminActor(), ord.ID, false, nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))

	ord, err = f.svc.SubmitClaim(ctx, patient, ord.ID, claim())
	require.NoError(t, err)
	require.NotNil(t, ord.InsuranceClaim)
	assert.Equal(t, "awaiting_adjudication", ord.InsuranceClaim.ClaimStatus(ord.PaymentStatus))

	ord, err = f.svc.Adjudicate(ctx, adminActor(), ord.ID, false, nil)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, ord.Status)
	assert.Equal(t, model.PaymentStatusFailed, ord.PaymentStatus)
	assert.Equal(t, "rejected", ord.InsuranceClaim.ClaimStatus(ord.PaymentStatus))
}

func TestInsuranceApprovalIsAtomic(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	patient := patientActor()

	ord, err := f.svc.Place(ctx, patient, insuranceCart())
	require.NoError(t, err)
	_, err = f.svc.SubmitClaim(ctx, patient, ord.ID, claim())
	require.NoError(t, err)

	// Approval without a visit slot would strand the order in paid/processing
	_, err = f.svc.Adjudicate(ctx, adminActor(), ord.ID, true, nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))

	ord, err = f.svc.Adjudicate(ctx, adminActor(), ord.ID, true, visit())
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusScheduled, ord.Status)
	assert.Equal(t, model.PaymentStatusPaid, ord.PaymentStatus)
	require.NotNil(t, ord.ScheduledVisit)

	// Only admins adjudicate
	other, err := f.svc.Place(ctx, patient, insuranceCart())
	require.NoError(t, err)
	_, err = f.svc.SubmitClaim(ctx, patient, other.ID, claim())
	require.NoError(t, err)
	_, err = f.svc.Adjudicate(ctx, patient, other.ID, true, visit())
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.Place(ctx, patientActor(), &model.PlaceOrderInput{
		PaymentMethod: model.PaymentMethodCreditCard,
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindEmptyCart))
}

func TestPlaceOrderUnknownTest(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.Place(ctx, patientActor(), &model.PlaceOrderInput{
		Items:         []model.CartItem{{TestID: "unknown", Quantity: 1}},
		PaymentMethod: model.PaymentMethodCreditCard,
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestTotalAmountFrozenAtPlacement(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	patient := patientActor()

	ord, err := f.svc.Place(ctx, patient, &model.PlaceOrderInput{
		Items:         []model.CartItem{{TestID: "cbc", Quantity: 2}, {TestID: "lipid", Quantity: 1}},
		PaymentMethod: model.PaymentMethodCreditCard,
	})
	require.NoError(t, err)
	want := decimal.NewFromFloat(139.48) // 2*49.99 + 39.50
	assert.True(t, ord.TotalAmount.Equal(want), "total %s", ord.TotalAmount)

	// Catalog price change after placement must not touch the order
	f.catalog.Put(model.TestCatalogEntry{TestID: "cbc", Name: "Complete Blood Count", Code: "CBC", UnitPrice: decimal.NewFromFloat(99.99)})

	got, err := f.svc.Get(ctx, patient, ord.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(want))
	assert.True(t, got.LineItems[0].UnitPrice.Equal(decimal.NewFromFloat(49.99)))
}

func TestCardPaymentIdempotency(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	patient := patientActor()

	ord, err := f.svc.Place(ctx, patient, cardCart())
	require.NoError(t, err)

	ord, err = f.svc.RecordCardPayment(ctx, patient, ord.ID, "txn-001", nil)
	require.NoError(t, err)
	firstVersion := ord.Version

	// Same transaction id: no-op success
	ord, err = f.svc.RecordCardPayment(ctx, patient, ord.ID, "txn-001", nil)
	require.NoError(t, err)
	assert.Equal(t, firstVersion, ord.Version)

	// Different transaction id against a paid order: double charge
	_, err = f.svc.RecordCardPayment(ctx, patient, ord.ID, "txn-002", nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))
}

func TestCardPaymentOnInsuranceOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	patient := patientActor()

	ord, err := f.svc.Place(ctx, patient, insuranceCart())
	require.NoError(t, err)

	_, err = f.svc.RecordCardPayment(ctx, patient, ord.ID, "txn-001", nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))
}

func TestScheduleVisitRequiresPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	patient := patientActor()

	ord, err := f.svc.Place(ctx, patient, cardCart())
	require.NoError(t, err)

	_, err = f.svc.ScheduleVisit(ctx, patient, ord.ID, *visit())
	assert.True(t, apperrors.IsKind(err, apperrors.KindPaymentRequired))

	_, err = f.svc.RecordCardPayment(ctx, patient, ord.ID, "txn-001", nil)
	require.NoError(t, err)

	ord, err = f.svc.ScheduleVisit(ctx, patient, ord.ID, *visit())
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusScheduled, ord.Status)
}

func TestAttachResult(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	patient := patientActor()
	clinician := clinicianActor()

	ord, err := f.svc.Place(ctx, patient, &model.PlaceOrderInput{
		Items:         []model.CartItem{{TestID: "cbc", Quantity: 1}, {TestID: "lipid", Quantity: 1}},
		PaymentMethod: model.PaymentMethodCreditCard,
	})
	require.NoError(t, err)

	// Patients cannot attach results
	_, err = f.svc.AttachResult(ctx, patient, ord.ID, model.TestResult{TestID: "cbc", Status: model.ResultStatusCompleted})
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	// Results only for tests on the order
	_, err = f.svc.AttachResult(ctx, clinician, ord.ID, model.TestResult{TestID: "tsh", Status: model.ResultStatusCompleted})
	assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest))

	// All results in but unpaid: no auto-completion
	ord, err = f.svc.AttachResult(ctx, clinician, ord.ID, model.TestResult{TestID: "cbc", Status: model.ResultStatusCompleted})
	require.NoError(t, err)
	ord, err = f.svc.AttachResult(ctx, clinician, ord.ID, model.TestResult{TestID: "lipid", Status: model.ResultStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, ord.Status)

	_, err = f.svc.RecordCardPayment(ctx, patient, ord.ID, "txn-001", nil)
	require.NoError(t, err)

	// Re-attaching an existing result upserts and now completes the order
	ord, err = f.svc.AttachResult(ctx, clinician, ord.ID, model.TestResult{TestID: "lipid", Value: "borderline", Status: model.ResultStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, ord.Status)
	require.Len(t, ord.Results, 2)
	assert.Equal(t, "borderline", ord.ResultFor("lipid").Value)

	// Closed orders take no more results
	_, err = f.svc.AttachResult(ctx, clinician, ord.ID, model.TestResult{TestID: "cbc", Status: model.ResultStatusCompleted})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))
}

func TestCancelRefundSemantics(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	patient := patientActor()

	// Unpaid cancel resolves to failed
	ord, err := f.svc.Place(ctx, patient, cardCart())
	require.NoError(t, err)
	ord, err = f.svc.Cancel(ctx, patient, ord.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, ord.Status)
	assert.Equal(t, model.PaymentStatusFailed, ord.PaymentStatus)

	// Paid cancel records a refund
	paid, err := f.svc.Place(ctx, patient, cardCart())
	require.NoError(t, err)
	_, err = f.svc.RecordCardPayment(ctx, patient, paid.ID, "txn-001", visit())
	require.NoError(t, err)
	paid, err = f.svc.Cancel(ctx, patient, paid.ID, "moved away")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, paid.Status)
	assert.Equal(t, model.PaymentStatusRefunded, paid.PaymentStatus)

	// Cancelled orders stay cancelled
	_, err = f.svc.Cancel(ctx, patient, paid.ID, "again")
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))
}

func TestListVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := patientActor()
	bob := patientActor()

	_, err := f.svc.Place(ctx, alice, cardCart())
	require.NoError(t, err)
	_, err = f.svc.Place(ctx, bob, cardCart())
	require.NoError(t, err)

	own, err := f.svc.List(ctx, alice, nil)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, alice.ID, own[0].PatientID)

	all, err := f.svc.List(ctx, adminActor(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Another patient cannot read alice's order
	_, err = f.svc.Get(ctx, bob, own[0].ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestGetByNumber(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := patientActor()

	placed, err := f.svc.Place(ctx, alice, cardCart())
	require.NoError(t, err)

	found, err := f.svc.GetByNumber(ctx, alice, placed.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, placed.ID, found.ID)

	_, err = f.svc.GetByNumber(ctx, patientActor(), placed.OrderNumber)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	_, err = f.svc.GetByNumber(ctx, alice, "LAB-19700101-000000")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestValidOrderStatePairs(t *testing.T) {
	assert.True(t, model.ValidOrderState(model.OrderStatusProcessing, model.PaymentStatusPending))
	assert.True(t, model.ValidOrderState(model.OrderStatusScheduled, model.PaymentStatusPaid))
	assert.True(t, model.ValidOrderState(model.OrderStatusCompleted, model.PaymentStatusRefunded))
	assert.True(t, model.ValidOrderState(model.OrderStatusCancelled, model.PaymentStatusFailed))

	assert.False(t, model.ValidOrderState(model.OrderStatusScheduled, model.PaymentStatusPending))
	assert.False(t, model.ValidOrderState(model.OrderStatusCompleted, model.PaymentStatusPending))
	assert.False(t, model.ValidOrderState(model.OrderStatusCancelled, model.PaymentStatusPaid))
}
