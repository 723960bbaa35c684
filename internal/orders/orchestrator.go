package orders

import (
	"context"
	"log/slog"
	"time"

	"github.com/FatihaELHABTI/go-shop/internal/domain"
)

// Orchestrator coordinates one order creation: sequential stock reservations
// against the catalog service, price/name snapshots, then a single order
// write. Reservations are all-or-nothing: when a later line fails, the
// already-reserved lines are restocked in reverse order before the error
// surfaces.
type Orchestrator struct {
	catalog *CatalogClient
	repo    Repository
	logger  *slog.Logger
	now     func() time.Time
}

func NewOrchestrator(catalog *CatalogClient, repo Repository, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		catalog: catalog,
		repo:    repo,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder runs the orchestration on behalf of the verified identity.
// The raw bearer token is forwarded unchanged on every catalog call, so the
// catalog enforces the original caller's roles.
func (o *Orchestrator) CreateOrder(ctx context.Context, ident domain.Identity, token string, lines []domain.LineRequest) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, domain.ErrInvalidOrder
	}
	for _, line := range lines {
		if line.ProductID == "" || line.Quantity <= 0 {
			return nil, domain.ErrInvalidOrder
		}
	}

	startedAt := o.now()

	var reserved []domain.LineRequest
	orderLines := make([]domain.OrderLine, 0, len(lines))
	var total float64

	// Lines are reserved strictly in caller order, one call at a time.
	for _, line := range lines {
		if err := o.catalog.ReduceStock(ctx, token, line.ProductID, line.Quantity); err != nil {
			o.compensate(ctx, token, reserved)
			return nil, &domain.StockUnavailableError{ProductID: line.ProductID, Err: err}
		}
		reserved = append(reserved, line)

		product, err := o.catalog.GetProduct(ctx, token, line.ProductID)
		if err != nil {
			o.compensate(ctx, token, reserved)
			return nil, &domain.StockUnavailableError{ProductID: line.ProductID, Err: err}
		}

		orderLines = append(orderLines, domain.OrderLine{
			ProductID:   line.ProductID,
			ProductName: product.Name,
			Price:       product.Price,
			Quantity:    line.Quantity,
		})
		total += product.Price * float64(line.Quantity)
	}

	order := &domain.Order{
		CustomerID:  ident.Subject,
		Status:      domain.OrderStatusCreated,
		TotalAmount: total,
		CreatedAt:   startedAt,
		Lines:       orderLines,
	}

	if err := o.repo.Create(ctx, order); err != nil {
		o.compensate(ctx, token, reserved)
		return nil, err
	}

	o.logger.Info("order created",
		"order_id", order.ID,
		"customer_id", order.CustomerID,
		"total", order.TotalAmount,
		"lines", len(order.Lines),
	)
	return order, nil
}

// compensate restocks already-reserved lines, most recent first. Failures are
// logged but do not mask the original orchestration error.
func (o *Orchestrator) compensate(ctx context.Context, token string, reserved []domain.LineRequest) {
	for i := len(reserved) - 1; i >= 0; i-- {
		line := reserved[i]
		if err := o.catalog.Restock(ctx, token, line.ProductID, line.Quantity); err != nil {
			o.logger.Error("failed to restock after aborted orchestration",
				"product_id", line.ProductID,
				"quantity", line.Quantity,
				"error", err,
			)
		}
	}
}

// Cancel transitions an order to CANCELED. Catalog stock is intentionally
// left untouched.
func (o *Orchestrator) Cancel(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := o.repo.Cancel(ctx, orderID)
	if err != nil {
		return nil, err
	}

	o.logger.Info("order canceled", "order_id", order.ID, "customer_id", order.CustomerID)
	return order, nil
}
