package entity

import (
	"math"
	"time"

	"github.com/jhoicas/festival-pos/internal/domain"
)

// Estados de una venta.
const (
	SaleStatusActive   = "Active"
	SaleStatusCanceled = "Canceled"
)

// SaleItem línea inmutable de una venta.
type SaleItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Price       int64  `json:"price"`
	Quantity    int64  `json:"quantity"`
	Subtotal    int64  `json:"subtotal"`
}

// Sale venta registrada en el libro. Total y subtotales se fijan al crearla.
type Sale struct {
	ID        string
	ClassID   string
	Status    string
	Total     int64
	Items     []SaleItem
	CreatedAt time.Time
}

// NewSaleItem calcula el subtotal de la línea.
func NewSaleItem(productID, name string, price, qty int64) SaleItem {
	return SaleItem{
		ProductID:   productID,
		ProductName: name,
		Price:       price,
		Quantity:    qty,
		Subtotal:    price * qty,
	}
}

// NewSale arma una venta activa; total = suma de subtotales.
func NewSale(classID string, items []SaleItem, now time.Time) (*Sale, error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	var total int64
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		if it.Price < 0 {
			return nil, domain.ErrInvalidInput
		}
		if overflows(it.Price, it.Quantity) || total > math.MaxInt64-it.Price*it.Quantity {
			return nil, domain.ErrInvalidQuantity
		}
		if it.Subtotal != it.Price*it.Quantity {
			return nil, domain.ErrInvalidInput
		}
		total += it.Subtotal
	}
	return &Sale{
		ClassID:   classID,
		Status:    SaleStatusActive,
		Total:     total,
		Items:     append([]SaleItem(nil), items...),
		CreatedAt: now,
	}, nil
}

// Consistent verifica total == Σ subtotal y subtotal == price*quantity.
func (s *Sale) Consistent() bool {
	var total int64
	for _, it := range s.Items {
		if overflows(it.Price, it.Quantity) || it.Subtotal != it.Price*it.Quantity {
			return false
		}
		if total > math.MaxInt64-it.Subtotal {
			return false
		}
		total += it.Subtotal
	}
	return total == s.Total
}

// overflows indica si price*qty no cabe en int64 (ambos no negativos).
func overflows(price, qty int64) bool {
	return price > 0 && qty > math.MaxInt64/price
}
