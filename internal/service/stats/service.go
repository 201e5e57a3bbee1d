// Package stats derives dashboard figures from the live appointment, order
// and rating collections on every read. Nothing here maintains running
// totals; a recompute over the current snapshot cannot drift from committed
// lifecycle transitions.
package stats

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brookside/clinic-portal/internal/model"
	"github.com/brookside/clinic-portal/internal/repository"
	"github.com/brookside/clinic-portal/internal/service/access"
)

type Service struct {
	appointments repository.AppointmentRepository
	orders       repository.OrderRepository
	ratings      repository.RatingRepository
	gate         *access.Gate
}

func NewService(appointments repository.AppointmentRepository, orders repository.OrderRepository, ratings repository.RatingRepository, gate *access.Gate) *Service {
	return &Service{
		appointments: appointments,
		orders:       orders,
		ratings:      ratings,
		gate:         gate,
	}
}

// WindowCount is one time-windowed slice of activity, measured against the
// caller-supplied now.
type WindowCount struct {
	Window       string          `json:"window"`
	Appointments int             `json:"appointments"`
	Orders       int             `json:"orders"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// TestVolume is one entry of the top-N tests list.
type TestVolume struct {
	TestID   string `json:"test_id"`
	TestName string `json:"test_name"`
	Quantity int    `json:"quantity"`
}

type AdminSummary struct {
	TotalRevenue      decimal.Decimal               `json:"total_revenue"`
	PendingRevenue    decimal.Decimal               `json:"pending_revenue"`
	CollectionRate    decimal.Decimal               `json:"collection_rate"`
	AppointmentCounts map[model.AppointmentStatus]int `json:"appointment_counts"`
	OrderCounts       map[model.OrderStatus]int     `json:"order_counts"`
	TopTests          []TestVolume                  `json:"top_tests"`
	Trend             []WindowCount                 `json:"trend"`
	AvgSatisfaction   decimal.Decimal               `json:"avg_satisfaction"`
}

type PatientSummary struct {
	AppointmentCounts map[model.AppointmentStatus]int `json:"appointment_counts"`
	RecentOrders      []*model.DiagnosticOrder      `json:"recent_orders"`
}

const topTestsLimit = 5

// ComputeAdminSummary recomputes the admin dashboard from the current
// snapshot. O(n) over the clinic's records, which is the deliberate trade for
// never double counting.
func (s *Service) ComputeAdminSummary(ctx context.Context, actor model.Actor, now time.Time) (*AdminSummary, error) {
	if err := s.gate.Authorize(actor, access.OpStatsAdmin, access.Ownership{}); err != nil {
		return nil, err
	}

	appointments, err := s.appointments.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	ratings, err := s.ratings.List(ctx)
	if err != nil {
		return nil, err
	}

	summary := &AdminSummary{
		TotalRevenue:      decimal.Zero,
		PendingRevenue:    decimal.Zero,
		AppointmentCounts: make(map[model.AppointmentStatus]int),
		OrderCounts:       make(map[model.OrderStatus]int),
	}

	for _, apt := range appointments {
		summary.AppointmentCounts[apt.Status]++
	}
	for _, order := range orders {
		summary.OrderCounts[order.Status]++
		switch order.PaymentStatus {
		case model.PaymentStatusPaid:
			summary.TotalRevenue = summary.TotalRevenue.Add(order.TotalAmount)
		case model.PaymentStatusPending, model.PaymentStatusProcessing:
			summary.PendingRevenue = summary.PendingRevenue.Add(order.TotalAmount)
		}
	}

	summary.CollectionRate = collectionRate(summary.TotalRevenue, summary.PendingRevenue)
	summary.TopTests = topTests(orders, topTestsLimit)
	summary.Trend = trend(appointments, orders, now)
	summary.AvgSatisfaction = avgSatisfaction(ratings)
	return summary, nil
}

// ComputePatientSummary is the patient-facing slice of the same snapshot.
func (s *Service) ComputePatientSummary(ctx context.Context, actor model.Actor, patientID uuid.UUID, now time.Time) (*PatientSummary, error) {
	if actor.Role != model.RoleAdmin {
		if err := s.gate.Authorize(actor, access.OpStatsPatient, access.Ownership{PatientID: patientID}); err != nil {
			return nil, err
		}
	}

	appointments, err := s.appointments.List(ctx, &model.AppointmentFilters{PatientID: patientID})
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.List(ctx, &model.OrderFilters{PatientID: patientID})
	if err != nil {
		return nil, err
	}

	summary := &PatientSummary{
		AppointmentCounts: make(map[model.AppointmentStatus]int),
	}
	for _, apt := range appointments {
		summary.AppointmentCounts[apt.Status]++
	}

	const recentLimit = 10
	if len(orders) > recentLimit {
		orders = orders[:recentLimit]
	}
	summary.RecentOrders = orders
	return summary, nil
}

// collectionRate is paid / (paid + pending), 0 when nothing has been billed.
func collectionRate(paid, pending decimal.Decimal) decimal.Decimal {
	denom := paid.Add(pending)
	if denom.IsZero() {
		return decimal.Zero
	}
	return paid.Div(denom).Round(4)
}

// topTests ranks tests by aggregate quantity, ties broken by the order the
// test was first encountered walking orders oldest-first.
func topTests(orders []*model.DiagnosticOrder, n int) []TestVolume {
	byAge := make([]*model.DiagnosticOrder, len(orders))
	copy(byAge, orders)
	sort.SliceStable(byAge, func(i, j int) bool {
		return byAge[i].CreatedAt.Before(byAge[j].CreatedAt)
	})

	index := make(map[string]int)
	var volumes []TestVolume
	for _, order := range byAge {
		for _, item := range order.LineItems {
			i, seen := index[item.TestID]
			if !seen {
				index[item.TestID] = len(volumes)
				volumes = append(volumes, TestVolume{TestID: item.TestID, TestName: item.TestName})
				i = len(volumes) - 1
			}
			volumes[i].Quantity += item.Quantity
		}
	}

	sort.SliceStable(volumes, func(i, j int) bool {
		return volumes[i].Quantity > volumes[j].Quantity
	})
	if len(volumes) > n {
		volumes = volumes[:n]
	}
	return volumes
}

func trend(appointments []*model.Appointment, orders []*model.DiagnosticOrder, now time.Time) []WindowCount {
	windows := []struct {
		name  string
		start time.Time
	}{
		{"today", now.Truncate(24 * time.Hour)},
		{"7d", now.AddDate(0, 0, -7)},
		{"30d", now.AddDate(0, 0, -30)},
	}

	out := make([]WindowCount, 0, len(windows))
	for _, w := range windows {
		wc := WindowCount{Window: w.name, Revenue: decimal.Zero}
		for _, apt := range appointments {
			if !apt.CreatedAt.Before(w.start) && !apt.CreatedAt.After(now) {
				wc.Appointments++
			}
		}
		for _, order := range orders {
			if !order.CreatedAt.Before(w.start) && !order.CreatedAt.After(now) {
				wc.Orders++
				if order.PaymentStatus == model.PaymentStatusPaid {
					wc.Revenue = wc.Revenue.Add(order.TotalAmount)
				}
			}
		}
		out = append(out, wc)
	}
	return out
}

func avgSatisfaction(ratings []*model.Rating) decimal.Decimal {
	if len(ratings) == 0 {
		return decimal.Zero
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Score
	}
	return decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(ratings)))).Round(2)
}
