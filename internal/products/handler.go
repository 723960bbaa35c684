package products

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/FatihaELHABTI/go-shop/internal/auth"
	"github.com/FatihaELHABTI/go-shop/internal/domain"
)

type Handler struct {
	repo   Repository
	logger *slog.Logger
}

func NewHandler(repo Repository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.List(r.Context())
	if err != nil {
		h.serverError(w, r, "failed to list products", err)
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		h.serverError(w, r, "failed to get product", err)
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	if msg, ok := validate(&product); !ok {
		h.writeError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}

	if err := h.repo.Create(r.Context(), &product); err != nil {
		h.serverError(w, r, "failed to create product", err)
		return
	}

	h.logger.Info("product created", "product_id", product.ID, "name", product.Name)
	h.writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	product.ID = r.PathValue("id")

	if msg, ok := validate(&product); !ok {
		h.writeError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}

	if err := h.repo.Update(r.Context(), &product); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		h.serverError(w, r, "failed to update product", err)
		return
	}

	h.logger.Info("product updated", "product_id", product.ID)
	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		h.serverError(w, r, "failed to delete product", err)
		return
	}

	h.logger.Info("product deleted", "product_id", id)
	w.WriteHeader(http.StatusOK)
}

// HandleReduceStock is the reservation primitive used by the order service.
// The quantity comes from the query string; the stock check and subtraction
// happen in one atomic statement in the store.
func (h *Handler) HandleReduceStock(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	quantity, ok := parseQuantity(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "quantity must be a positive integer")
		return
	}

	if err := h.repo.DecrementStock(r.Context(), id, quantity); err != nil {
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			h.writeError(w, http.StatusNotFound, "not_found", "product not found")
		case errors.Is(err, domain.ErrInsufficientStock):
			h.writeError(w, http.StatusConflict, "insufficient_stock", "insufficient stock")
		default:
			h.serverError(w, r, "failed to reduce stock", err)
		}
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.serverError(w, r, "failed to get updated product", err)
		return
	}

	h.logger.Info("stock reduced", "product_id", id, "quantity", quantity, "remaining", product.StockQuantity)
	h.writeJSON(w, http.StatusOK, product)
}

// HandleRestock reverses a reservation when an orchestration aborts.
func (h *Handler) HandleRestock(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	quantity, ok := parseQuantity(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "quantity must be a positive integer")
		return
	}

	if err := h.repo.Restock(r.Context(), id, quantity); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		h.serverError(w, r, "failed to restock", err)
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.serverError(w, r, "failed to get updated product", err)
		return
	}

	h.logger.Info("stock restored", "product_id", id, "quantity", quantity)
	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		h.serverError(w, r, "failed to compute product stats", err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

func validate(p *domain.Product) (string, bool) {
	if p.Name == "" {
		return "name is required", false
	}
	if p.Price < 0 {
		return "price must not be negative", false
	}
	if p.StockQuantity < 0 {
		return "stockQuantity must not be negative", false
	}
	return "", true
}

func parseQuantity(r *http.Request) (int, bool) {
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil || quantity <= 0 {
		return 0, false
	}
	return quantity, true
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
