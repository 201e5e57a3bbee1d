package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusScheduled  OrderStatus = "scheduled"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodInsurance  PaymentMethod = "insurance"
)

// validOrderPairs lists every (status, paymentStatus) combination a committed
// order may hold. Anything outside this table is a bug, not a state.
var validOrderPairs = map[OrderStatus][]PaymentStatus{
	OrderStatusProcessing: {PaymentStatusPending, PaymentStatusProcessing, PaymentStatusPaid, PaymentStatusFailed},
	OrderStatusScheduled:  {PaymentStatusPaid},
	OrderStatusCompleted:  {PaymentStatusPaid, PaymentStatusRefunded},
	OrderStatusCancelled:  {PaymentStatusFailed, PaymentStatusRefunded},
}

// ValidOrderState reports whether the (status, paymentStatus) pair is allowed.
func ValidOrderState(status OrderStatus, payment PaymentStatus) bool {
	for _, p := range validOrderPairs[status] {
		if p == payment {
			return true
		}
	}
	return false
}

// LineItem is a priced catalog entry snapshotted into an order. UnitPrice is
// frozen at placement time; later catalog price changes never touch it.
type LineItem struct {
	TestID    string          `db:"test_id" json:"test_id"`
	TestName  string          `db:"test_name" json:"test_name"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	Quantity  int             `db:"quantity" json:"quantity"`
}

type ResultStatus string

const (
	ResultStatusPending   ResultStatus = "pending"
	ResultStatusCompleted ResultStatus = "completed"
)

type TestResult struct {
	TestID      string       `db:"test_id" json:"test_id"`
	Value       string       `db:"value" json:"value"`
	NormalRange string       `db:"normal_range" json:"normal_range"`
	Unit        string       `db:"unit" json:"unit"`
	Status      ResultStatus `db:"status" json:"status"`
}

type Visit struct {
	Date     string `db:"date" json:"date"`
	Time     string `db:"time" json:"time"`
	Location string `db:"location" json:"location"`
}

type InsuranceClaim struct {
	Provider     string `db:"provider" json:"provider" validate:"required"`
	PolicyNumber string `db:"policy_number" json:"policy_number" validate:"required"`
	GroupNumber  string `db:"group_number" json:"group_number,omitempty"`
	Subscriber   string `db:"subscriber" json:"subscriber,omitempty"`
}

// ClaimStatus is derived from the order's payment status; the claim carries no
// state of its own.
func (c *InsuranceClaim) ClaimStatus(payment PaymentStatus) string {
	switch payment {
	case PaymentStatusPaid:
		return "approved"
	case PaymentStatusFailed:
		return "rejected"
	default:
		return "awaiting_adjudication"
	}
}

type DiagnosticOrder struct {
	Base
	PatientID      uuid.UUID       `db:"patient_id" json:"patient_id"`
	OrderNumber    string          `db:"order_number" json:"order_number"`
	LineItems      []LineItem      `json:"line_items"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status         OrderStatus     `db:"status" json:"status"`
	PaymentStatus  PaymentStatus   `db:"payment_status" json:"payment_status"`
	PaymentMethod  PaymentMethod   `db:"payment_method" json:"payment_method"`
	TransactionID  *string         `db:"transaction_id" json:"transaction_id,omitempty"`
	ScheduledVisit *Visit          `json:"scheduled_visit,omitempty"`
	InsuranceClaim *InsuranceClaim `json:"insurance_claim,omitempty"`
	Results        []TestResult    `json:"results,omitempty"`
}

// ResultFor returns the result entry for a test id, if any.
func (o *DiagnosticOrder) ResultFor(testID string) *TestResult {
	for i := range o.Results {
		if o.Results[i].TestID == testID {
			return &o.Results[i]
		}
	}
	return nil
}

// AllResultsCompleted reports whether every line item has a completed result.
func (o *DiagnosticOrder) AllResultsCompleted() bool {
	for _, item := range o.LineItems {
		res := o.ResultFor(item.TestID)
		if res == nil || res.Status != ResultStatusCompleted {
			return false
		}
	}
	return len(o.LineItems) > 0
}

// CartItem is one entry of the patient's cart at placement time. Prices come
// from the catalog, not from the client.
type CartItem struct {
	TestID   string `json:"test_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type PlaceOrderInput struct {
	Items         []CartItem    `json:"items" validate:"dive"`
	PaymentMethod PaymentMethod `json:"payment_method" validate:"required,oneof=credit_card insurance"`
}

type OrderFilters struct {
	PatientID     uuid.UUID
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Range         DateRange
}

// TestCatalogEntry is the catalog collaborator's view of a lab test.
type TestCatalogEntry struct {
	TestID    string          `db:"test_id" json:"test_id"`
	Name      string          `db:"name" json:"name"`
	Code      string          `db:"code" json:"code"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}
