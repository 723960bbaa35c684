package products

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/FatihaELHABTI/go-shop/internal/domain"
)

// fakeRepo is a mutex-guarded in-memory catalog used by handler tests.
type fakeRepo struct {
	mu       sync.Mutex
	products map[string]domain.Product
}

func newFakeRepo(seed ...domain.Product) *fakeRepo {
	r := &fakeRepo{products: make(map[string]domain.Product)}
	for _, p := range seed {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeRepo) List(ctx context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Product{}
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (r *fakeRepo) Create(ctx context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = uuid.New().String()
	r.products[p.ID] = *p
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	r.products[p.ID] = *p
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *fakeRepo) DecrementStock(ctx context.Context, id string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.StockQuantity < quantity {
		return domain.ErrInsufficientStock
	}
	p.StockQuantity -= quantity
	r.products[id] = p
	return nil
}

func (r *fakeRepo) Restock(ctx context.Context, id string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.StockQuantity += quantity
	r.products[id] = p
	return nil
}

func (r *fakeRepo) Stats(ctx context.Context) (domain.ProductStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := domain.ProductStats{TotalProducts: len(r.products)}
	for _, p := range r.products {
		if p.StockQuantity < lowStockThreshold {
			stats.LowStock++
		}
	}
	return stats, nil
}

func newTestHandler(repo Repository) *Handler {
	return NewHandler(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", h.HandleList)
	mux.HandleFunc("POST /products", h.HandleCreate)
	mux.HandleFunc("GET /products/stats", h.HandleStats)
	mux.HandleFunc("GET /products/{id}", h.HandleGet)
	mux.HandleFunc("PUT /products/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /products/{id}", h.HandleDelete)
	mux.HandleFunc("PUT /products/{id}/reduce-stock", h.HandleReduceStock)
	mux.HandleFunc("PUT /products/{id}/restock", h.HandleRestock)
	return mux
}

func TestHandler_HandleReduceStock(t *testing.T) {
	t.Run("reduces stock and returns the updated product", func(t *testing.T) {
		repo := newFakeRepo(domain.Product{ID: "p1", Name: "Laptop", Price: 100, StockQuantity: 10})
		mux := newMux(newTestHandler(repo))

		req := httptest.NewRequest(http.MethodPut, "/products/p1/reduce-stock?quantity=3", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var p domain.Product
		if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if p.StockQuantity != 7 {
			t.Errorf("expected stock 7, got %d", p.StockQuantity)
		}
	})

	t.Run("returns 409 when stock is insufficient", func(t *testing.T) {
		repo := newFakeRepo(domain.Product{ID: "p1", Name: "Laptop", StockQuantity: 2})
		mux := newMux(newTestHandler(repo))

		req := httptest.NewRequest(http.MethodPut, "/products/p1/reduce-stock?quantity=3", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}

		var resp map[string]string
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["code"] != "insufficient_stock" {
			t.Errorf("expected code insufficient_stock, got %s", resp["code"])
		}

		if p, _ := repo.GetByID(context.Background(), "p1"); p.StockQuantity != 2 {
			t.Errorf("stock must be unchanged on failure, got %d", p.StockQuantity)
		}
	})

	t.Run("returns 404 for an unknown product", func(t *testing.T) {
		mux := newMux(newTestHandler(newFakeRepo()))

		req := httptest.NewRequest(http.MethodPut, "/products/nope/reduce-stock?quantity=1", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("rejects missing or non-positive quantity", func(t *testing.T) {
		mux := newMux(newTestHandler(newFakeRepo(domain.Product{ID: "p1", StockQuantity: 5})))

		for _, target := range []string{
			"/products/p1/reduce-stock",
			"/products/p1/reduce-stock?quantity=0",
			"/products/p1/reduce-stock?quantity=-2",
			"/products/p1/reduce-stock?quantity=abc",
		} {
			req := httptest.NewRequest(http.MethodPut, target, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", target, rec.Code)
			}
		}
	})
}

func TestHandler_HandleRestock(t *testing.T) {
	repo := newFakeRepo(domain.Product{ID: "p1", Name: "Laptop", StockQuantity: 2})
	mux := newMux(newTestHandler(repo))

	req := httptest.NewRequest(http.MethodPut, "/products/p1/restock?quantity=3", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if p, _ := repo.GetByID(context.Background(), "p1"); p.StockQuantity != 5 {
		t.Errorf("expected stock 5, got %d", p.StockQuantity)
	}
}

func TestHandler_HandleStats(t *testing.T) {
	repo := newFakeRepo(
		domain.Product{ID: "p1", Name: "A", StockQuantity: 2},
		domain.Product{ID: "p2", Name: "B", StockQuantity: 10},
		domain.Product{ID: "p3", Name: "C", StockQuantity: 40},
	)
	mux := newMux(newTestHandler(repo))

	req := httptest.NewRequest(http.MethodGet, "/products/stats", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var stats domain.ProductStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if stats.TotalProducts != 3 {
		t.Errorf("expected totalProducts 3, got %d", stats.TotalProducts)
	}
	if stats.LowStock != 1 {
		t.Errorf("expected lowStock 1, got %d", stats.LowStock)
	}
}

func TestHandler_HandleCreate(t *testing.T) {
	t.Run("creates a product with a generated id", func(t *testing.T) {
		mux := newMux(newTestHandler(newFakeRepo()))

		body := `{"name":"Laptop","description":"13 inch","price":999.5,"stockQuantity":4}`
		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var p domain.Product
		if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if p.ID == "" {
			t.Error("expected generated id")
		}
		if p.Price != 999.5 {
			t.Errorf("expected price 999.5, got %v", p.Price)
		}
	})

	t.Run("rejects negative price", func(t *testing.T) {
		mux := newMux(newTestHandler(newFakeRepo()))

		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name":"X","price":-1}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects missing name", func(t *testing.T) {
		mux := newMux(newTestHandler(newFakeRepo()))

		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"price":10}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleUpdate(t *testing.T) {
	repo := newFakeRepo(domain.Product{ID: "p1", Name: "Old", Price: 10, StockQuantity: 1})
	mux := newMux(newTestHandler(repo))

	body := `{"name":"New","description":"d","price":20,"stockQuantity":8}`
	req := httptest.NewRequest(http.MethodPut, "/products/p1", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	p, _ := repo.GetByID(context.Background(), "p1")
	if p.Name != "New" || p.Price != 20 || p.StockQuantity != 8 {
		t.Errorf("unexpected product after update: %+v", p)
	}
}

func TestHandler_HandleDelete(t *testing.T) {
	repo := newFakeRepo(domain.Product{ID: "p1", Name: "A"})
	mux := newMux(newTestHandler(repo))

	req := httptest.NewRequest(http.MethodDelete, "/products/p1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/products/p1", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}
}
