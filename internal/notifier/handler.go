package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FatihaELHABTI/go-shop/internal/domain"
)

// Handler consumes order lifecycle events and emits notification records for
// the customers involved.
type Handler struct {
	logger          *slog.Logger
	eventsProcessed metric.Int64Counter
}

func NewHandler(logger *slog.Logger) (*Handler, error) {
	meter := otel.Meter("notifier")

	eventsProcessed, err := meter.Int64Counter("notifier.events.processed",
		metric.WithDescription("Number of order lifecycle events processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("create events counter: %w", err)
	}

	return &Handler{
		logger:          logger,
		eventsProcessed: eventsProcessed,
	}, nil
}

func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	// An unparseable payload is dropped, not returned as an error: failing
	// here would stop the consume loop before the commit and refetch the same
	// message forever.
	var event domain.OrderEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("dropping unparseable order event", "error", err)
		return nil
	}

	switch event.Type {
	case domain.OrderEventCreated:
		h.logger.Info("order confirmation sent",
			"order_id", event.OrderID,
			"customer_id", event.CustomerID,
			"total_amount", event.TotalAmount,
			"lines", len(event.Lines),
		)
	case domain.OrderEventCanceled:
		h.logger.Info("order cancellation notice sent",
			"order_id", event.OrderID,
			"customer_id", event.CustomerID,
		)
	default:
		h.logger.Warn("skipping unknown order event type",
			"type", event.Type,
			"order_id", event.OrderID,
		)
		return nil
	}

	h.eventsProcessed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("event.type", string(event.Type))),
	)

	return nil
}
