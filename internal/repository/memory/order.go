package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/brookside/clinic-portal/internal/model"
	"github.com/brookside/clinic-portal/internal/repository"
	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

type orderRepository struct {
	*store
}

func NewOrderRepository() repository.OrderRepository {
	return &orderRepository{store: newStore()}
}

func (r *orderRepository) Create(ctx context.Context, order *model.DiagnosticOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range r.items.Items() {
		if item.Object.(*model.DiagnosticOrder).OrderNumber == order.OrderNumber {
			return apperrors.BadRequest("order number already taken", nil)
		}
	}

	var stored model.DiagnosticOrder
	if err := clone(order, &stored); err != nil {
		return apperrors.Unavailable(err)
	}
	r.items.Set(order.ID.String(), &stored, 0)
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id uuid.UUID) (*model.DiagnosticOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id)
}

func (r *orderRepository) get(id uuid.UUID) (*model.DiagnosticOrder, error) {
	v, ok := r.items.Get(id.String())
	if !ok {
		return nil, apperrors.NotFound("order")
	}
	var out model.DiagnosticOrder
	if err := clone(v, &out); err != nil {
		return nil, apperrors.Unavailable(err)
	}
	return &out, nil
}

func (r *orderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*model.DiagnosticOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range r.items.Items() {
		order := item.Object.(*model.DiagnosticOrder)
		if order.OrderNumber == orderNumber {
			var out model.DiagnosticOrder
			if err := clone(order, &out); err != nil {
				return nil, apperrors.Unavailable(err)
			}
			return &out, nil
		}
	}
	return nil, apperrors.NotFound("order")
}

func (r *orderRepository) UpdateIfVersion(ctx context.Context, order *model.DiagnosticOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.get(order.ID)
	if err != nil {
		return err
	}
	if current.Version != order.Version {
		return apperrors.StaleState("order")
	}

	var stored model.DiagnosticOrder
	if err := clone(order, &stored); err != nil {
		return apperrors.Unavailable(err)
	}
	stored.Version++
	r.items.Set(stored.ID.String(), &stored, 0)
	order.Version = stored.Version
	return nil
}

func (r *orderRepository) List(ctx context.Context, filters *model.OrderFilters) ([]*model.DiagnosticOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.DiagnosticOrder
	for _, item := range r.items.Items() {
		order := item.Object.(*model.DiagnosticOrder)
		if !matchOrder(order, filters) {
			continue
		}
		var cp model.DiagnosticOrder
		if err := clone(order, &cp); err != nil {
			return nil, apperrors.Unavailable(err)
		}
		out = append(out, &cp)
	}

	// Newest first, matching the postgres ORDER BY.
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func matchOrder(order *model.DiagnosticOrder, filters *model.OrderFilters) bool {
	if filters == nil {
		return true
	}
	if filters.PatientID != uuid.Nil && order.PatientID != filters.PatientID {
		return false
	}
	if filters.Status != "" && order.Status != filters.Status {
		return false
	}
	if filters.PaymentStatus != "" && order.PaymentStatus != filters.PaymentStatus {
		return false
	}
	if !filters.Range.Start.IsZero() && order.CreatedAt.Before(filters.Range.Start) {
		return false
	}
	if !filters.Range.End.IsZero() && order.CreatedAt.After(filters.Range.End) {
		return false
	}
	return true
}
