package entity

import (
	"strings"
	"time"

	"github.com/jhoicas/festival-pos/internal/domain"
)

// PriceChange entrada del historial de precios (solo se agregan, nunca se editan).
type PriceChange struct {
	Price int64     `json:"price"`
	Time  time.Time `json:"time"`
	By    string    `json:"by"`
}

// Product producto a la venta en el puesto de una clase.
// Price y Cost en yenes enteros; Stock nunca puede quedar negativo.
type Product struct {
	ID           string
	ClassID      string
	Name         string
	Price        int64
	Cost         int64
	Stock        int64
	PriceHistory []PriceChange
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Topes de catálogo. Con ellos price*stock cabe siempre en int64.
const (
	MaxPrice int64 = 10_000_000
	MaxStock int64 = 100_000
)

// Validate comprueba los invariantes del registro antes de persistirlo.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" || p.ClassID == "" {
		return domain.ErrInvalidInput
	}
	if p.Price < 0 || p.Cost < 0 || p.Stock < 0 {
		return domain.ErrInvalidInput
	}
	if p.Price > MaxPrice || p.Cost > MaxPrice || p.Stock > MaxStock {
		return domain.ErrInvalidInput
	}
	return nil
}

// ChangePrice actualiza el precio y agrega la entrada al historial.
// Devuelve false si el precio no cambió (el historial queda igual).
func (p *Product) ChangePrice(price int64, by string, now time.Time) bool {
	if price == p.Price {
		return false
	}
	p.Price = price
	p.PriceHistory = append(p.PriceHistory, PriceChange{Price: price, Time: now, By: by})
	return true
}

// Withdraw descuenta qty del stock; rechaza la operación antes de aplicarla si quedaría negativo.
func (p *Product) Withdraw(qty int64) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	if qty > p.Stock {
		return domain.ErrInsufficientStock
	}
	p.Stock -= qty
	return nil
}

// Clone copia profunda (el historial es un slice).
func (p Product) Clone() Product {
	p.PriceHistory = append([]PriceChange(nil), p.PriceHistory...)
	return p
}
