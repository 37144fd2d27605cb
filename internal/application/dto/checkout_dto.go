package dto

import "time"

// CheckoutLine producto y cantidad pedidos en un cobro sin sesión de caja.
type CheckoutLine struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity"`
}

// CheckoutRequest carrito enviado por el cliente.
type CheckoutRequest struct {
	Items []CheckoutLine `json:"items" validate:"dive"`
}

// SaleItemResponse línea de una venta.
type SaleItemResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Price       int64  `json:"price"`
	Quantity    int64  `json:"quantity"`
	Subtotal    int64  `json:"subtotal"`
}

// SaleReceipt resultado de un cobro exitoso.
type SaleReceipt struct {
	SaleID    string             `json:"sale_id"`
	Total     int64              `json:"total"`
	Items     []SaleItemResponse `json:"items"`
	CreatedAt time.Time          `json:"created_at"`
	TokenUsed bool               `json:"token_used"`
}
