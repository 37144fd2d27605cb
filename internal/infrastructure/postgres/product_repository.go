package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, class_id, name, price, cost, stock, price_history, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto con su historial de precios inicial.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	history, err := marshalHistory(p.PriceHistory)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.ClassID, p.Name, p.Price, p.Cost, p.Stock, history, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isCheckViolation(err):
			return domain.ErrInvalidInput
		}
		return storeErr(err, "insert product")
	}
	return nil
}

// GetByID obtiene un producto de la clase por ID.
func (r *ProductRepo) GetByID(ctx context.Context, classID, id string) (*entity.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE class_id = $1 AND id = $2`, classID, id)
}

// GetForUpdate bloquea la fila del producto hasta el fin de la transacción.
func (r *ProductRepo) GetForUpdate(ctx context.Context, classID, id string) (*entity.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE class_id = $1 AND id = $2 FOR UPDATE`, classID, id)
}

func (r *ProductRepo) get(ctx context.Context, query, classID, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, classID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, storeErr(err, "get product")
	}
	return p, nil
}

// ListByClass lista los productos de la clase en orden de alta.
func (r *ProductRepo) ListByClass(ctx context.Context, classID string) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM products WHERE class_id = $1 ORDER BY created_at, id`, classID)
	if err != nil {
		return nil, storeErr(err, "list products")
	}
	defer rows.Close()

	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, storeErr(err, "scan product")
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "list products")
	}
	return list, nil
}

// Update reemplaza nombre, precio, costo, stock e historial.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	history, err := marshalHistory(p.PriceHistory)
	if err != nil {
		return err
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET name = $3, price = $4, cost = $5, stock = $6, price_history = $7, updated_at = $8
		WHERE class_id = $1 AND id = $2`,
		p.ClassID, p.ID, p.Name, p.Price, p.Cost, p.Stock, history, p.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInsufficientStock
		}
		return storeErr(err, "update product")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el producto; las ventas conservan nombre y precio en sus líneas.
func (r *ProductRepo) Delete(ctx context.Context, classID, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM products WHERE class_id = $1 AND id = $2`, classID, id)
	if err != nil {
		return storeErr(err, "delete product")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DecrementStock resta qty solo si alcanza el stock; la condición va en el UPDATE.
func (r *ProductRepo) DecrementStock(ctx context.Context, classID, id string, qty int64) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET stock = stock - $3
		WHERE class_id = $1 AND id = $2 AND stock >= $3`,
		classID, id, qty,
	)
	if err != nil {
		return storeErr(err, "decrement stock")
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	p, err := r.GetByID(ctx, classID, id)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrNotFound
	}
	return domain.ErrInsufficientStock
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	var history []byte
	if err := row.Scan(&p.ID, &p.ClassID, &p.Name, &p.Price, &p.Cost, &p.Stock, &history, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &p.PriceHistory); err != nil {
			return nil, fmt.Errorf("decode price_history: %w", err)
		}
	}
	return &p, nil
}

func marshalHistory(h []entity.PriceChange) ([]byte, error) {
	if h == nil {
		h = []entity.PriceChange{}
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("encode price_history: %w", err)
	}
	return b, nil
}
