// Package order owns the diagnostic order lifecycle: placement from a cart,
// the payment state machine, the insurance adjudication sub-workflow, visit
// scheduling, and per-test result attachment with derived completion.
package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brookside/clinic-portal/internal/model"
	"github.com/brookside/clinic-portal/internal/repository"
	"github.com/brookside/clinic-portal/internal/service/access"
	"github.com/brookside/clinic-portal/internal/service/catalog"
	"github.com/brookside/clinic-portal/internal/service/notification"
	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

type Service struct {
	repo     repository.OrderRepository
	gate     *access.Gate
	catalog  *catalog.Service
	notifSvc notification.Service
	now      func() time.Time
}

func NewService(repo repository.OrderRepository, gate *access.Gate, catalogSvc *catalog.Service, notifSvc notification.Service) *Service {
	return &Service{
		repo:     repo,
		gate:     gate,
		catalog:  catalogSvc,
		notifSvc: notifSvc,
		now:      time.Now,
	}
}

// WithClock overrides the service clock; tests use it to pin "now".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Place converts a cart into an order. Prices are read from the catalog here
// and frozen into the line items; nothing recomputes the total afterwards.
func (s *Service) Place(ctx context.Context, actor model.Actor, input *model.PlaceOrderInput) (*model.DiagnosticOrder, error) {
	if err := s.gate.Authorize(actor, access.OpOrderPlace, access.Ownership{}); err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, apperrors.EmptyCart()
	}

	now := s.now()
	items := make([]model.LineItem, 0, len(input.Items))
	total := decimal.Zero
	for _, cartItem := range input.Items {
		entry, err := s.catalog.Entry(ctx, cartItem.TestID)
		if err != nil {
			return nil, err
		}
		if cartItem.Quantity < 1 {
			return nil, apperrors.BadRequest(fmt.Sprintf("invalid quantity for test %s", cartItem.TestID), nil)
		}
		item := model.LineItem{
			TestID:    entry.TestID,
			TestName:  entry.Name,
			UnitPrice: entry.UnitPrice.Round(2),
			Quantity:  cartItem.Quantity,
		}
		items = append(items, item)
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(cartItem.Quantity))))
	}

	order := &model.DiagnosticOrder{
		PatientID:     actor.ID,
		LineItems:     items,
		TotalAmount:   total.Round(2),
		Status:        model.OrderStatusProcessing,
		PaymentStatus: model.PaymentStatusPending,
		PaymentMethod: input.PaymentMethod,
	}
	order.ID = uuid.New()
	order.Version = 1
	order.CreatedAt = now
	order.UpdatedAt = now

	// Human-readable numbers can collide on the random suffix; one retry with
	// a fresh suffix covers it, anything past that is a real storage problem.
	for attempt := 0; attempt < 2; attempt++ {
		order.OrderNumber = newOrderNumber(now)
		err := s.repo.Create(ctx, order)
		if err == nil {
			break
		}
		if attempt == 1 || !apperrors.IsKind(err, apperrors.KindBadRequest) {
			return nil, err
		}
	}

	s.notifSvc.Notify(ctx, order.PatientID, notification.EventOrderPlaced, order)
	return order, nil
}

// RecordCardPayment marks a card order paid. Repeating the call with the same
// transaction id is a no-op success; a different id against a paid order is
// rejected as a double charge. When a visit slot is supplied, the order moves
// to scheduled in the same commit.
func (s *Service) RecordCardPayment(ctx context.Context, actor model.Actor, orderID uuid.UUID, transactionID string, visit *model.Visit) (*model.DiagnosticOrder, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, access.OpOrderPayCard, ownershipOf(order)); err != nil {
		return nil, err
	}

	if order.PaymentMethod != model.PaymentMethodCreditCard {
		return nil, apperrors.InvalidTransition("order is not payable by card")
	}
	if order.PaymentStatus == model.PaymentStatusPaid {
		if order.TransactionID != nil && *order.TransactionID == transactionID {
			return order, nil
		}
		return nil, apperrors.InvalidTransition("order is already paid under a different transaction")
	}
	if order.Status != model.OrderStatusProcessing {
		return nil, apperrors.InvalidTransition("payment can only be recorded while the order is processing")
	}

	order.PaymentStatus = model.PaymentStatusPaid
	order.TransactionID = &transactionID
	if visit != nil {
		order.ScheduledVisit = visit
		order.Status = model.OrderStatusScheduled
	}

	if err := s.commit(ctx, order); err != nil {
		return nil, err
	}

	s.notifSvc.Notify(ctx, order.PatientID, notification.EventPaymentRecorded, order)
	if visit != nil {
		s.notifSvc.Notify(ctx, order.PatientID, notification.EventVisitScheduled, order)
	}
	return order, nil
}

// SubmitClaim attaches the insurance claim details; payment stays pending
// until an admin adjudicates.
func (s *Service) SubmitClaim(ctx context.Context, actor model.Actor, orderID uuid.UUID, claim *model.InsuranceClaim) (*model.DiagnosticOrder, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, access.OpOrderSubmitClaim, ownershipOf(order)); err != nil {
		return nil, err
	}

	if order.PaymentMethod != model.PaymentMethodInsurance {
		return nil, apperrors.InvalidTransition("order is not an insurance order")
	}
	if order.Status != model.OrderStatusProcessing || order.PaymentStatus != model.PaymentStatusPending {
		return nil, apperrors.InvalidTransition("claims can only be submitted while the order awaits payment")
	}

	order.InsuranceClaim = claim
	if err := s.commit(ctx, order); err != nil {
		return nil, err
	}

	s.notifSvc.Notify(ctx, order.PatientID, notification.EventClaimSubmitted, order)
	return order, nil
}

// Adjudicate decides an insurance claim. Approval must carry the visit slot —
// payment, status and visit commit atomically so a paid order without a visit
// is never observable. Rejection cancels the order with a failed payment.
func (s *Service) Adjudicate(ctx context.Context, actor model.Actor, orderID uuid.UUID, approve bool, visit *model.Visit) (*model.DiagnosticOrder, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, access.OpOrderAdjudicate, ownershipOf(order)); err != nil {
		return nil, err
	}

	if order.PaymentMethod != model.PaymentMethodInsurance {
		return nil, apperrors.InvalidTransition("order is not an insurance order")
	}
	if order.PaymentStatus != model.PaymentStatusPending {
		return nil, apperrors.InvalidTransition("claim is not awaiting adjudication")
	}
	if order.InsuranceClaim == nil {
		return nil, apperrors.InvalidTransition("no insurance claim on file")
	}

	if approve {
		if visit == nil {
			return nil, apperrors.InvalidTransition("approval requires a visit slot")
		}
		order.PaymentStatus = model.PaymentStatusPaid
		order.Status = model.OrderStatusScheduled
		order.ScheduledVisit = visit
	} else {
		order.PaymentStatus = model.PaymentStatusFailed
		order.Status = model.OrderStatusCancelled
	}

	if err := s.commit(ctx, order); err != nil {
		return nil, err
	}

	kind := notification.EventInsuranceApproved
	if !approve {
		kind = notification.EventInsuranceRejected
	}
	s.notifSvc.Notify(ctx, order.PatientID, kind, order)
	return order, nil
}

// ScheduleVisit attaches the visit slot to a paid order and moves it to
// scheduled. Unpaid orders are rejected with PaymentRequired.
func (s *Service) ScheduleVisit(ctx context.Context, actor model.Actor, orderID uuid.UUID, visit model.Visit) (*model.DiagnosticOrder, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, access.OpOrderScheduleVisit, ownershipOf(order)); err != nil {
		return nil, err
	}

	if order.PaymentStatus != model.PaymentStatusPaid {
		return nil, apperrors.PaymentRequired("order must be paid before a visit is scheduled")
	}
	if order.Status != model.OrderStatusProcessing {
		return nil, apperrors.InvalidTransition("only processing orders can be scheduled")
	}

	order.ScheduledVisit = &visit
	order.Status = model.OrderStatusScheduled

	if err := s.commit(ctx, order); err != nil {
		return nil, err
	}

	s.notifSvc.Notify(ctx, order.PatientID, notification.EventVisitScheduled, order)
	return order, nil
}

// AttachResult appends or updates a per-test result. It never changes order
// status directly; completion is derived — once every line item has a
// completed result on a paid order, the order transitions to completed.
func (s *Service) AttachResult(ctx context.Context, actor model.Actor, orderID uuid.UUID, result model.TestResult) (*model.DiagnosticOrder, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, access.OpOrderAttachResult, ownershipOf(order)); err != nil {
		return nil, err
	}

	if order.Status == model.OrderStatusCancelled || order.Status == model.OrderStatusCompleted {
		return nil, apperrors.InvalidTransition("results cannot be attached to a closed order")
	}
	if !hasLineItem(order, result.TestID) {
		return nil, apperrors.BadRequest(fmt.Sprintf("test %s is not part of this order", result.TestID), nil)
	}

	if existing := order.ResultFor(result.TestID); existing != nil {
		*existing = result
	} else {
		order.Results = append(order.Results, result)
	}

	completed := order.AllResultsCompleted() && order.PaymentStatus == model.PaymentStatusPaid
	if completed {
		order.Status = model.OrderStatusCompleted
	}

	if err := s.commit(ctx, order); err != nil {
		return nil, err
	}

	s.notifSvc.Notify(ctx, order.PatientID, notification.EventResultAttached, order)
	if completed {
		s.notifSvc.Notify(ctx, order.PatientID, notification.EventOrderCompleted, order)
	}
	return order, nil
}

// Cancel terminates a processing or scheduled order. A paid order records a
// refunded payment; anything else resolves to failed. The refund transfer
// itself is the payment collaborator's concern.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, orderID uuid.UUID, reason string) (*model.DiagnosticOrder, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, access.OpOrderCancel, ownershipOf(order)); err != nil {
		return nil, err
	}

	if order.Status != model.OrderStatusProcessing && order.Status != model.OrderStatusScheduled {
		return nil, apperrors.InvalidTransition("order is already closed")
	}

	if order.PaymentStatus == model.PaymentStatusPaid {
		order.PaymentStatus = model.PaymentStatusRefunded
	} else {
		order.PaymentStatus = model.PaymentStatusFailed
	}
	order.Status = model.OrderStatusCancelled

	if err := s.commit(ctx, order); err != nil {
		return nil, err
	}

	s.notifSvc.Notify(ctx, order.PatientID, notification.EventOrderCancelled, order)
	return order, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, orderID uuid.UUID) (*model.DiagnosticOrder, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, access.OpOrderRead, ownershipOf(order)); err != nil {
		return nil, err
	}
	return order, nil
}

// GetByNumber resolves the human-readable order number printed on receipts.
func (s *Service) GetByNumber(ctx context.Context, actor model.Actor, orderNumber string) (*model.DiagnosticOrder, error) {
	order, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, access.OpOrderRead, ownershipOf(order)); err != nil {
		return nil, err
	}
	return order, nil
}

// List applies the actor's visibility: patients see their own orders, staff
// see everything matching the filters.
func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.OrderFilters) ([]*model.DiagnosticOrder, error) {
	if !actor.Authenticated() {
		return nil, apperrors.Forbidden("authentication required")
	}
	if filters == nil {
		filters = &model.OrderFilters{}
	}
	if actor.Role == model.RolePatient {
		filters.PatientID = actor.ID
	}
	return s.repo.List(ctx, filters)
}

// commit enforces the state-pair table on every write. An invalid pair here
// is a programming error in a transition above, surfaced before it can be
// persisted.
func (s *Service) commit(ctx context.Context, order *model.DiagnosticOrder) error {
	if !model.ValidOrderState(order.Status, order.PaymentStatus) {
		return apperrors.InvalidTransition(fmt.Sprintf("state %s/%s is not reachable", order.Status, order.PaymentStatus))
	}
	if order.Status == model.OrderStatusScheduled && order.ScheduledVisit == nil {
		return apperrors.InvalidTransition("a scheduled order must carry a visit slot")
	}
	return s.repo.UpdateIfVersion(ctx, order)
}

func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.New().String()[:6])
	return fmt.Sprintf("LAB-%s-%s", now.Format("20060102"), suffix)
}

func hasLineItem(order *model.DiagnosticOrder, testID string) bool {
	for _, item := range order.LineItems {
		if item.TestID == testID {
			return true
		}
	}
	return false
}

func ownershipOf(order *model.DiagnosticOrder) access.Ownership {
	return access.Ownership{PatientID: order.PatientID}
}
