// Package cart selección de productos de una sesión de caja y su reconciliación
// contra el stock en vivo.
//
// Invariante: toda línea cumple 0 < Quantity <= stock vivo conocido. Reconcile la
// restablece cada vez que llega un snapshot nuevo de productos.
package cart

import (
	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
)

// Line copia del producto al momento de seleccionarlo, más la cantidad.
type Line struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

// Subtotal precio por cantidad.
func (l Line) Subtotal() int64 {
	return l.Price * l.Quantity
}

// Cart selección efímera; no es segura para uso concurrente (la protege su dueño).
type Cart struct {
	lines map[string]*Line
	order []string // orden de selección
}

// New crea un carrito vacío.
func New() *Cart {
	return &Cart{lines: make(map[string]*Line)}
}

// Add suma una unidad del producto. Falla si no hay stock para una unidad más.
func (c *Cart) Add(p entity.Product) error {
	return c.Adjust(p, 1)
}

// Adjust cambia la cantidad en delta. Subir por encima del stock vivo se rechaza;
// bajar a 0 o menos quita la línea.
func (c *Cart) Adjust(p entity.Product, delta int64) error {
	if delta == 0 {
		return domain.ErrInvalidQuantity
	}
	line, ok := c.lines[p.ID]
	if !ok {
		if delta < 0 {
			return domain.ErrNotFound
		}
		if delta > p.Stock {
			return domain.ErrInsufficientStock
		}
		c.lines[p.ID] = &Line{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: delta}
		c.order = append(c.order, p.ID)
		return nil
	}
	next := line.Quantity + delta
	if next > p.Stock {
		return domain.ErrInsufficientStock
	}
	if next <= 0 {
		c.remove(p.ID)
		return nil
	}
	line.Name = p.Name
	line.Price = p.Price
	line.Quantity = next
	return nil
}

// Remove quita la línea del producto si existe.
func (c *Cart) Remove(productID string) {
	c.remove(productID)
}

// Reconcile alinea el carrito con el último snapshot: refresca nombre y precio,
// recorta la cantidad al stock vivo y elimina las líneas que quedan en 0 o cuyo
// producto ya no existe. Devuelve los ids de las líneas modificadas o eliminadas.
func (c *Cart) Reconcile(products map[string]entity.Product) []string {
	var touched []string
	for _, id := range append([]string(nil), c.order...) {
		line := c.lines[id]
		latest, ok := products[id]
		if !ok {
			c.remove(id)
			touched = append(touched, id)
			continue
		}
		changed := line.Name != latest.Name || line.Price != latest.Price
		line.Name = latest.Name
		line.Price = latest.Price
		if line.Quantity > latest.Stock {
			line.Quantity = max(latest.Stock, 0)
			changed = true
		}
		if line.Quantity <= 0 {
			c.remove(id)
			touched = append(touched, id)
			continue
		}
		if changed {
			touched = append(touched, id)
		}
	}
	return touched
}

// Lines devuelve copia de las líneas en orden de selección.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// Quantity cantidad seleccionada del producto (0 si no está).
func (c *Cart) Quantity(productID string) int64 {
	if l, ok := c.lines[productID]; ok {
		return l.Quantity
	}
	return 0
}

// Total suma de subtotales.
func (c *Cart) Total() int64 {
	var total int64
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

// Len cantidad de líneas.
func (c *Cart) Len() int {
	return len(c.order)
}

// Empty indica si no hay líneas.
func (c *Cart) Empty() bool {
	return len(c.order) == 0
}

// Clear vacía el carrito (tras un cobro exitoso).
func (c *Cart) Clear() {
	c.lines = make(map[string]*Line)
	c.order = nil
}

func (c *Cart) remove(id string) {
	if _, ok := c.lines[id]; !ok {
		return
	}
	delete(c.lines, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
