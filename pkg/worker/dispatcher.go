package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/brookside/clinic-portal/internal/email"
	"github.com/brookside/clinic-portal/internal/service/notification"
	"github.com/brookside/clinic-portal/pkg/logger"
	"github.com/brookside/clinic-portal/pkg/messaging"
	"github.com/brookside/clinic-portal/pkg/metrics"
)

// Dispatcher drains the notification channel and fans events out as e-mail.
// It sits on the consuming side of the fire-and-forget contract: the API
// publishes and forgets, the dispatcher owns delivery and its failures.
type Dispatcher struct {
	broker   messaging.Broker
	emailSvc email.Service
	inbox    string
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewDispatcher(broker messaging.Broker, emailSvc email.Service, inbox string, logger *logger.Logger, metrics *metrics.Metrics) *Dispatcher {
	if inbox == "" {
		panic("dispatcher inbox address must be set")
	}
	return &Dispatcher{
		broker:   broker,
		emailSvc: emailSvc,
		inbox:    inbox,
		logger:   logger,
		metrics:  metrics,
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	msgs, err := d.broker.Subscribe(ctx, notification.Channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	d.logger.Info("notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("notification dispatcher shutting down")
			return nil
		case raw, ok := <-msgs:
			if !ok {
				return nil
			}
			d.handle(ctx, raw)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, raw []byte) {
	timer := prometheus.NewTimer(d.metrics.DeliveryLatency)
	defer timer.ObserveDuration()

	var event notification.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		d.metrics.EventsFailed.Inc()
		d.logger.Error(err, "failed to decode notification event")
		return
	}
	d.metrics.EventsByKind.WithLabelValues(string(event.Kind)).Inc()

	subject := fmt.Sprintf("[clinic] %s", event.Kind)
	body := fmt.Sprintf("actor %s triggered %s at %s", event.ActorID, event.Kind, event.EmittedAt.Format("2006-01-02 15:04:05"))

	if err := d.emailSvc.SendEventMail(ctx, d.inbox, subject, body); err != nil {
		d.metrics.EventsFailed.Inc()
		d.logger.Error(err, "failed to deliver notification", "kind", string(event.Kind))
		return
	}
	d.metrics.EventsDelivered.Inc()
}
