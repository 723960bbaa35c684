package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/FatihaELHABTI/go-shop/internal/auth"
	"github.com/FatihaELHABTI/go-shop/internal/domain"
	"github.com/FatihaELHABTI/go-shop/internal/messaging"
)

type Handler struct {
	orchestrator *Orchestrator
	repo         Repository
	producer     *messaging.OrderEventProducer
	logger       *slog.Logger
}

func NewHandler(orchestrator *Orchestrator, repo Repository, producer *messaging.OrderEventProducer, logger *slog.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		repo:         repo,
		producer:     producer,
		logger:       logger,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var lines []domain.LineRequest
	if err := json.NewDecoder(r.Body).Decode(&lines); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}
	token, _ := auth.TokenFrom(r.Context())

	order, err := h.orchestrator.CreateOrder(r.Context(), ident, token, lines)
	if err != nil {
		var stockErr *domain.StockUnavailableError
		switch {
		case errors.Is(err, domain.ErrInvalidOrder):
			h.writeError(w, http.StatusBadRequest, "invalid_request", "order must contain at least one line with a positive quantity")
		case errors.As(err, &stockErr):
			h.logger.Warn("order rejected, stock unavailable", "product_id", stockErr.ProductID, "user", ident.Username)
			h.writeError(w, http.StatusConflict, "insufficient_stock", "stock unavailable for product "+stockErr.ProductID)
		default:
			h.serverError(w, r, "failed to create order", err)
		}
		return
	}

	h.publish(r, domain.OrderEvent{
		Type:        domain.OrderEventCreated,
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		TotalAmount: order.TotalAmount,
		Lines:       order.Lines,
		Timestamp:   order.CreatedAt,
	})

	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	order, err := h.repo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
		h.serverError(w, r, "failed to get order", err)
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.serverError(w, r, "failed to list orders", err)
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleMyOrders(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}

	orders, err := h.repo.ListByCustomer(r.Context(), ident.Subject)
	if err != nil {
		h.serverError(w, r, "failed to list customer orders", err)
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	order, err := h.orchestrator.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			h.writeError(w, http.StatusNotFound, "not_found", "order not found")
		case errors.Is(err, domain.ErrAlreadyCanceled):
			h.writeError(w, http.StatusConflict, "already_canceled", "order is already canceled")
		default:
			h.serverError(w, r, "failed to cancel order", err)
		}
		return
	}

	h.publish(r, domain.OrderEvent{
		Type:        domain.OrderEventCanceled,
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		TotalAmount: order.TotalAmount,
		Timestamp:   time.Now().UTC(),
	})

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		h.serverError(w, r, "failed to compute order stats", err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) HandleMyStats(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}

	stats, err := h.repo.CustomerStats(r.Context(), ident.Subject)
	if err != nil {
		h.serverError(w, r, "failed to compute customer stats", err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) publish(r *http.Request, event domain.OrderEvent) {
	if h.producer == nil {
		return
	}
	if err := h.producer.Publish(r.Context(), event); err != nil {
		h.logger.Error("failed to publish order event", "error", err, "order_id", event.OrderID, "type", event.Type)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	username := ""
	if ident, ok := auth.IdentityFrom(r.Context()); ok {
		username = ident.Username
	}
	h.logger.Error(msg, "error", err, "user", username, "path", r.URL.Path)
	h.writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg, "code": code})
}
