package dto

import "time"

// CreateProductRequest entrada para crear un producto. Montos en yenes enteros.
type CreateProductRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	Price int64  `json:"price" validate:"min=0,max=10000000"`
	Cost  int64  `json:"cost" validate:"min=0,max=10000000"`
	Stock int64  `json:"stock" validate:"min=0,max=100000"`
}

// UpdateProductRequest entrada para actualizar un producto; los campos nil no cambian.
type UpdateProductRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=200"`
	Price *int64  `json:"price" validate:"omitempty,min=0,max=10000000"`
	Cost  *int64  `json:"cost" validate:"omitempty,min=0,max=10000000"`
	Stock *int64  `json:"stock" validate:"omitempty,min=0,max=100000"`
}

// PriceChangeResponse entrada del historial de precios.
type PriceChangeResponse struct {
	Price int64     `json:"price"`
	Time  time.Time `json:"time"`
	By    string    `json:"by"`
}

// ProductResponse salida de un producto para el panel de administración.
type ProductResponse struct {
	ID           string                `json:"id"`
	ClassID      string                `json:"class_id"`
	Name         string                `json:"name"`
	Price        int64                 `json:"price"`
	Cost         int64                 `json:"cost"`
	Stock        int64                 `json:"stock"`
	PriceHistory []PriceChangeResponse `json:"price_history"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// PublicProductResponse producto visto desde caja o consulta (sin costo).
type PublicProductResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Stock int64  `json:"stock"`
}

// ProductListResponse lista de productos de la clase.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
}
