package dto

import "time"

// AdjustItemRequest cambia la cantidad de un producto en el carrito de la sesión.
// Delta negativo descuenta; llegar a 0 quita la línea.
type AdjustItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Delta     int64  `json:"delta"`
}

// CartLineResponse línea del carrito reconciliado.
type CartLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

// RegisterView estado de una sesión de caja: carrito, total y catálogo vivo.
type RegisterView struct {
	SessionID  string                  `json:"session_id"`
	ClassID    string                  `json:"class_id"`
	Lines      []CartLineResponse      `json:"lines"`
	Total      int64                   `json:"total"`
	Products   []PublicProductResponse `json:"products"`
	Checkout   bool                    `json:"checkout_in_progress"`
	LastSynced time.Time               `json:"last_synced"`
}
