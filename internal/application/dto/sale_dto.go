package dto

import "time"

// SaleResponse venta del libro.
type SaleResponse struct {
	ID        string             `json:"id"`
	ClassID   string             `json:"class_id"`
	Status    string             `json:"status"`
	Total     int64              `json:"total"`
	Items     []SaleItemResponse `json:"items"`
	CreatedAt time.Time          `json:"created_at"`
}

// SaleListResponse lista paginada de ventas.
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// ProductSalesSummary acumulado por producto de las ventas activas.
type ProductSalesSummary struct {
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	Units         int64  `json:"units"`
	Revenue       int64  `json:"revenue"`
	Cost          int64  `json:"cost"`
	MarginPercent string `json:"margin_percent"` // decimal con 1 cifra, "" si no hay ingresos
}

// SalesSummaryResponse resumen de ventas de la clase.
type SalesSummaryResponse struct {
	SalesCount    int                   `json:"sales_count"`
	CanceledCount int                   `json:"canceled_count"`
	Revenue       int64                 `json:"revenue"`
	Cost          int64                 `json:"cost"`
	MarginPercent string                `json:"margin_percent"`
	Products      []ProductSalesSummary `json:"products"`
}
