package domain

// Product is the authoritative catalog record. Stock never goes negative:
// decrements are guarded by an atomic conditional update in the store.
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stockQuantity"`
}

type ProductStats struct {
	TotalProducts int `json:"totalProducts"`
	LowStock      int `json:"lowStock"`
}
