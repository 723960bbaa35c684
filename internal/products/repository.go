package products

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/FatihaELHABTI/go-shop/internal/domain"
)

const lowStockThreshold = 5

// Repository is the catalog store contract. The postgres implementation is
// the authoritative one; tests use an in-memory fake.
type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id string, quantity int) error
	Restock(ctx context.Context, id string, quantity int) error
	Stats(ctx context.Context) (domain.ProductStats, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price, stock_quantity
		FROM products
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p := &domain.Product{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, stock_quantity
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}

	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *domain.Product) error {
	p.ID = uuid.New().String()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, stock_quantity)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.Name, p.Description, p.Price, p.StockQuantity)
	return err
}

func (r *PostgresRepository) Update(ctx context.Context, p *domain.Product) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock_quantity = $5
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.Price, p.StockQuantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// DecrementStock is the single atomic check-and-subtract. The conditional
// UPDATE is the only mutation path, so concurrent callers can never drive
// stock below zero.
func (r *PostgresRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $2
		WHERE id = $1 AND stock_quantity >= $2
	`, id, quantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrInsufficientStock
	}

	return nil
}

func (r *PostgresRepository) Restock(ctx context.Context, id string, quantity int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $2
		WHERE id = $1
	`, id, quantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

func (r *PostgresRepository) Stats(ctx context.Context) (domain.ProductStats, error) {
	var stats domain.ProductStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE stock_quantity < $1)
		FROM products
	`, lowStockThreshold).Scan(&stats.TotalProducts, &stats.LowStock)
	return stats, err
}
