package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/brookside/clinic-portal/internal/model"
	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

// orderRow flattens DiagnosticOrder for sqlx; the nested parts live in jsonb
// columns.
type orderRow struct {
	ID             uuid.UUID       `db:"id"`
	PatientID      uuid.UUID       `db:"patient_id"`
	OrderNumber    string          `db:"order_number"`
	LineItems      []byte          `db:"line_items"`
	TotalAmount    decimal.Decimal `db:"total_amount"`
	Status         string          `db:"status"`
	PaymentStatus  string          `db:"payment_status"`
	PaymentMethod  string          `db:"payment_method"`
	TransactionID  *string         `db:"transaction_id"`
	ScheduledVisit []byte          `db:"scheduled_visit"`
	InsuranceClaim []byte          `db:"insurance_claim"`
	Results        []byte          `db:"results"`
	Version        int64           `db:"version"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func (row *orderRow) toModel() (*model.DiagnosticOrder, error) {
	order := &model.DiagnosticOrder{
		PatientID:     row.PatientID,
		OrderNumber:   row.OrderNumber,
		TotalAmount:   row.TotalAmount,
		Status:        model.OrderStatus(row.Status),
		PaymentStatus: model.PaymentStatus(row.PaymentStatus),
		PaymentMethod: model.PaymentMethod(row.PaymentMethod),
		TransactionID: row.TransactionID,
	}
	order.ID = row.ID
	order.Version = row.Version
	order.CreatedAt = row.CreatedAt
	order.UpdatedAt = row.UpdatedAt

	if err := unmarshalColumn(row.LineItems, &order.LineItems); err != nil {
		return nil, fmt.Errorf("line_items: %w", err)
	}
	if err := unmarshalColumn(row.Results, &order.Results); err != nil {
		return nil, fmt.Errorf("results: %w", err)
	}
	if len(row.ScheduledVisit) > 0 {
		order.ScheduledVisit = &model.Visit{}
		if err := unmarshalColumn(row.ScheduledVisit, order.ScheduledVisit); err != nil {
			return nil, fmt.Errorf("scheduled_visit: %w", err)
		}
	}
	if len(row.InsuranceClaim) > 0 {
		order.InsuranceClaim = &model.InsuranceClaim{}
		if err := unmarshalColumn(row.InsuranceClaim, order.InsuranceClaim); err != nil {
			return nil, fmt.Errorf("insurance_claim: %w", err)
		}
	}
	return order, nil
}

func (r *orderRepository) Create(ctx context.Context, order *model.DiagnosticOrder) error {
	query := `
		INSERT INTO diagnostic_orders (
			id, patient_id, order_number, line_items, total_amount,
			status, payment_status, payment_method, transaction_id,
			scheduled_visit, insurance_claim, results, version,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.PatientID,
		order.OrderNumber,
		marshalColumn(order.LineItems),
		order.TotalAmount,
		order.Status,
		order.PaymentStatus,
		order.PaymentMethod,
		order.TransactionID,
		marshalOptional(order.ScheduledVisit),
		marshalOptional(order.InsuranceClaim),
		marshalColumn(order.Results),
		order.Version,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return apperrors.BadRequest("order number already taken", err)
		}
		return apperrors.Unavailable(fmt.Errorf("failed to create order: %w", err))
	}
	return nil
}

const orderColumns = `
	id, patient_id, order_number, line_items, total_amount,
	status, payment_status, payment_method, transaction_id,
	scheduled_visit, insurance_claim, results, version,
	created_at, updated_at
`

func (r *orderRepository) Get(ctx context.Context, id uuid.UUID) (*model.DiagnosticOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM diagnostic_orders WHERE id = $1`

	var row orderRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("order")
	}
	if err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("failed to get order: %w", err))
	}
	return row.toModel()
}

func (r *orderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*model.DiagnosticOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM diagnostic_orders WHERE order_number = $1`

	var row orderRow
	err := r.db.GetContext(ctx, &row, query, orderNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("order")
	}
	if err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("failed to get order: %w", err))
	}
	return row.toModel()
}

func (r *orderRepository) UpdateIfVersion(ctx context.Context, order *model.DiagnosticOrder) error {
	query := `
		UPDATE diagnostic_orders
		SET status = $1, payment_status = $2, transaction_id = $3,
			scheduled_visit = $4, insurance_claim = $5, results = $6,
			version = version + 1, updated_at = $7
		WHERE id = $8 AND version = $9
	`
	order.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		order.Status,
		order.PaymentStatus,
		order.TransactionID,
		marshalOptional(order.ScheduledVisit),
		marshalOptional(order.InsuranceClaim),
		marshalColumn(order.Results),
		order.UpdatedAt,
		order.ID,
		order.Version,
	)
	if err != nil {
		return apperrors.Unavailable(fmt.Errorf("failed to update order: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Unavailable(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperrors.StaleState("order")
	}

	order.Version++
	return nil
}

func (r *orderRepository) List(ctx context.Context, filters *model.OrderFilters) ([]*model.DiagnosticOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM diagnostic_orders WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND patient_id = $%d", argCount)
			args = append(args, filters.PatientID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.PaymentStatus != "" {
			query += fmt.Sprintf(" AND payment_status = $%d", argCount)
			args = append(args, filters.PaymentStatus)
			argCount++
		}
		if !filters.Range.Start.IsZero() {
			query += fmt.Sprintf(" AND created_at >= $%d", argCount)
			args = append(args, filters.Range.Start)
			argCount++
		}
		if !filters.Range.End.IsZero() {
			query += fmt.Sprintf(" AND created_at <= $%d", argCount)
			args = append(args, filters.Range.End)
			argCount++
		}
	}

	query += " ORDER BY created_at DESC"

	var rows []orderRow
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("failed to list orders: %w", err))
	}

	orders := make([]*model.DiagnosticOrder, 0, len(rows))
	for i := range rows {
		order, err := rows[i].toModel()
		if err != nil {
			return nil, apperrors.Unavailable(fmt.Errorf("failed to decode order %s: %w", rows[i].ID, err))
		}
		orders = append(orders, order)
	}
	return orders, nil
}
