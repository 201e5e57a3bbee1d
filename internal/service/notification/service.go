// Package notification emits domain events to interested actors. Emission is
// fire-and-forget: a failed publish is logged and dropped, never surfaced to
// the lifecycle operation that triggered it.
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brookside/clinic-portal/pkg/logger"
	"github.com/brookside/clinic-portal/pkg/messaging"
)

// Channel is the broker channel the dispatcher worker subscribes to.
const Channel = "clinic.notifications"

// EventKind names a successful state transition.
type EventKind string

const (
	EventAppointmentRequested EventKind = "appointment_requested"
	EventAppointmentConfirmed EventKind = "appointment_confirmed"
	EventAppointmentMoved     EventKind = "appointment_rescheduled"
	EventAppointmentCompleted EventKind = "appointment_completed"
	EventAppointmentCancelled EventKind = "appointment_cancelled"

	EventOrderPlaced       EventKind = "order_placed"
	EventPaymentRecorded   EventKind = "payment_recorded"
	EventClaimSubmitted    EventKind = "insurance_claim_submitted"
	EventInsuranceApproved EventKind = "insurance_approved"
	EventInsuranceRejected EventKind = "insurance_rejected"
	EventVisitScheduled    EventKind = "visit_scheduled"
	EventResultAttached    EventKind = "result_attached"
	EventOrderCompleted    EventKind = "order_completed"
	EventOrderCancelled    EventKind = "order_cancelled"
)

// Event is the wire shape published to the broker.
type Event struct {
	ActorID   uuid.UUID   `json:"actor_id"`
	Kind      EventKind   `json:"kind"`
	Payload   interface{} `json:"payload,omitempty"`
	EmittedAt time.Time   `json:"emitted_at"`
}

type Service interface {
	Notify(ctx context.Context, actorID uuid.UUID, kind EventKind, payload interface{})
}

type service struct {
	broker messaging.Broker
	log    *logger.Logger
}

func NewService(broker messaging.Broker, log *logger.Logger) Service {
	return &service{broker: broker, log: log}
}

func (s *service) Notify(ctx context.Context, actorID uuid.UUID, kind EventKind, payload interface{}) {
	event := Event{
		ActorID:   actorID,
		Kind:      kind,
		Payload:   payload,
		EmittedAt: time.Now(),
	}
	if err := s.broker.Publish(ctx, Channel, event); err != nil {
		s.log.Error(err, "failed to publish notification", "kind", string(kind))
	}
}

// Noop discards every event; used in tests and when no broker is configured.
type Noop struct{}

func (Noop) Notify(ctx context.Context, actorID uuid.UUID, kind EventKind, payload interface{}) {}
