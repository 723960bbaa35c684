package orders

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/FatihaELHABTI/go-shop/internal/auth"
	"github.com/FatihaELHABTI/go-shop/internal/domain"
)

func newHandlerMux(t *testing.T, catalog *fakeCatalog, repo Repository) *http.ServeMux {
	t.Helper()
	orch := newTestOrchestrator(t, catalog, repo)
	h := NewHandler(orch, repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", h.HandleCreate)
	mux.HandleFunc("GET /orders", h.HandleListAll)
	mux.HandleFunc("GET /orders/stats", h.HandleStats)
	mux.HandleFunc("GET /orders/my-orders", h.HandleMyOrders)
	mux.HandleFunc("GET /orders/my-stats", h.HandleMyStats)
	mux.HandleFunc("GET /orders/{id}", h.HandleGet)
	mux.HandleFunc("PUT /orders/{id}/cancel", h.HandleCancel)
	return mux
}

func asIdentity(req *http.Request, ident domain.Identity) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), ident, "test-token"))
}

func TestHandler_HandleCreate(t *testing.T) {
	t.Run("creates an order for the authenticated customer", func(t *testing.T) {
		catalog := newFakeCatalog(&domain.Product{ID: "p1", Name: "Laptop", Price: 100, StockQuantity: 10})
		mux := newHandlerMux(t, catalog, newMemoryRepo())

		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`[{"productId":"p1","quantity":3}]`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asIdentity(req, customer))

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var order domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&order); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if order.TotalAmount != 300 {
			t.Errorf("expected totalAmount 300, got %v", order.TotalAmount)
		}
		if order.CustomerID != customer.Subject {
			t.Errorf("expected customerId %s, got %s", customer.Subject, order.CustomerID)
		}
	})

	t.Run("maps stock shortage to 409 with the failing product", func(t *testing.T) {
		catalog := newFakeCatalog(&domain.Product{ID: "p1", Name: "Laptop", Price: 100, StockQuantity: 2})
		mux := newHandlerMux(t, catalog, newMemoryRepo())

		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`[{"productId":"p1","quantity":5}]`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asIdentity(req, customer))

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		var resp map[string]string
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["code"] != "insufficient_stock" {
			t.Errorf("expected code insufficient_stock, got %s", resp["code"])
		}
		if !strings.Contains(resp["error"], "p1") {
			t.Errorf("expected failing product id in message, got %q", resp["error"])
		}
	})

	t.Run("rejects an empty line list", func(t *testing.T) {
		catalog := newFakeCatalog()
		mux := newHandlerMux(t, catalog, newMemoryRepo())

		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`[]`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asIdentity(req, customer))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		mux := newHandlerMux(t, newFakeCatalog(), newMemoryRepo())

		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{not json`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asIdentity(req, customer))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleCancel(t *testing.T) {
	catalog := newFakeCatalog(&domain.Product{ID: "p1", Name: "Laptop", Price: 50, StockQuantity: 10})
	repo := newMemoryRepo()
	mux := newHandlerMux(t, catalog, repo)

	order := &domain.Order{CustomerID: customer.Subject, Status: domain.OrderStatusCreated, TotalAmount: 50, CreatedAt: time.Now().UTC()}
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	t.Run("cancels once", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/orders/"+order.ID+"/cancel", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asIdentity(req, customer))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var got domain.Order
		_ = json.Unmarshal(rec.Body.Bytes(), &got)
		if got.Status != domain.OrderStatusCanceled {
			t.Errorf("expected CANCELED, got %s", got.Status)
		}
	})

	t.Run("second cancel conflicts", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/orders/"+order.ID+"/cancel", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asIdentity(req, customer))

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		var resp map[string]string
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["code"] != "already_canceled" {
			t.Errorf("expected code already_canceled, got %s", resp["code"])
		}
	})

	t.Run("unknown order is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/orders/nope/cancel", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asIdentity(req, customer))

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestHandler_MyOrdersAndStats(t *testing.T) {
	catalog := newFakeCatalog()
	repo := newMemoryRepo()
	mux := newHandlerMux(t, catalog, repo)

	seed := []*domain.Order{
		{CustomerID: "cust-1", Status: domain.OrderStatusCreated, TotalAmount: 300},
		{CustomerID: "cust-1", Status: domain.OrderStatusCanceled, TotalAmount: 100},
		{CustomerID: "cust-2", Status: domain.OrderStatusCreated, TotalAmount: 40},
	}
	for _, o := range seed {
		o.CreatedAt = time.Now().UTC()
		if err := repo.Create(context.Background(), o); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	t.Run("my-orders lists only the caller's orders", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders/my-orders", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asIdentity(req, customer))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var got []domain.Order
		_ = json.Unmarshal(rec.Body.Bytes(), &got)
		if len(got) != 2 {
			t.Errorf("expected 2 orders, got %d", len(got))
		}
	})

	t.Run("global stats exclude canceled revenue", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders/stats", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asIdentity(req, domain.Identity{Subject: "admin", Roles: []domain.Role{domain.RoleAdmin}}))

		var stats domain.OrderStats
		_ = json.Unmarshal(rec.Body.Bytes(), &stats)
		if stats.TotalOrders != 3 {
			t.Errorf("expected totalOrders 3, got %d", stats.TotalOrders)
		}
		if stats.TotalRevenue != 340 {
			t.Errorf("expected totalRevenue 340, got %v", stats.TotalRevenue)
		}
		if stats.CanceledOrders != 1 {
			t.Errorf("expected canceledOrders 1, got %d", stats.CanceledOrders)
		}
	})

	t.Run("my-stats aggregates the caller only", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders/my-stats", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asIdentity(req, customer))

		var stats domain.CustomerStats
		_ = json.Unmarshal(rec.Body.Bytes(), &stats)
		if stats.Count != 2 {
			t.Errorf("expected count 2, got %d", stats.Count)
		}
		if stats.Spent != 300 {
			t.Errorf("expected spent 300, got %v", stats.Spent)
		}
		if stats.Active != 1 {
			t.Errorf("expected active 1, got %d", stats.Active)
		}
	})

	t.Run("get by id returns 404 for unknown order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders/does-not-exist", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asIdentity(req, customer))

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}
