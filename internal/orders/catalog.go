package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/FatihaELHABTI/go-shop/internal/domain"
)

// CatalogClient talks to the product service over HTTP. Every call carries
// the original caller's bearer token so the catalog evaluates the caller's
// own roles, never a service credential.
type CatalogClient struct {
	baseURL string
	client  *http.Client
}

func NewCatalogClient(baseURL string, client *http.Client) *CatalogClient {
	return &CatalogClient{
		baseURL: baseURL,
		client:  client,
	}
}

func (c *CatalogClient) GetProduct(ctx context.Context, token, productID string) (*domain.Product, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/products/"+url.PathEscape(productID), token)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", productID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(resp.StatusCode, productID); err != nil {
		return nil, err
	}

	var product domain.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("decode product %s: %w", productID, err)
	}
	return &product, nil
}

func (c *CatalogClient) ReduceStock(ctx context.Context, token, productID string, quantity int) error {
	return c.stockCall(ctx, token, productID, "reduce-stock", quantity)
}

func (c *CatalogClient) Restock(ctx context.Context, token, productID string, quantity int) error {
	return c.stockCall(ctx, token, productID, "restock", quantity)
}

func (c *CatalogClient) stockCall(ctx context.Context, token, productID, action string, quantity int) error {
	path := "/products/" + url.PathEscape(productID) + "/" + action + "?quantity=" + strconv.Itoa(quantity)
	req, err := c.newRequest(ctx, http.MethodPut, path, token)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s product %s: %w", action, productID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return statusError(resp.StatusCode, productID)
}

func (c *CatalogClient) newRequest(ctx context.Context, method, path, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

func statusError(status int, productID string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return domain.ErrProductNotFound
	case status == http.StatusConflict:
		return domain.ErrInsufficientStock
	default:
		return fmt.Errorf("catalog service returned status %d for product %s", status, productID)
	}
}
