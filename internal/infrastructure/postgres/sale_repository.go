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

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, class_id, status, total, items, created_at`

// SaleRepo libro de ventas sobre PostgreSQL. Las líneas se guardan como JSONB.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create persiste la venta.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	items, err := json.Marshal(s.Items)
	if err != nil {
		return fmt.Errorf("encode sale items: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO sales (`+saleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.ClassID, s.Status, s.Total, items, s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return storeErr(err, "insert sale")
	}
	return nil
}

// GetByID obtiene una venta de la clase.
func (r *SaleRepo) GetByID(ctx context.Context, classID, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE class_id = $1 AND id = $2`, classID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, storeErr(err, "get sale")
	}
	return s, nil
}

// ListByClass lista ventas con paginación, más recientes primero.
func (r *SaleRepo) ListByClass(ctx context.Context, classID string, limit, offset int) ([]*entity.Sale, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+saleColumns+` FROM sales WHERE class_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		classID, limit, offset,
	)
	if err != nil {
		return nil, storeErr(err, "list sales")
	}
	defer rows.Close()

	var list []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, storeErr(err, "scan sale")
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "list sales")
	}
	return list, nil
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	var items []byte
	if err := row.Scan(&s.ID, &s.ClassID, &s.Status, &s.Total, &items, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &s.Items); err != nil {
		return nil, fmt.Errorf("decode sale items: %w", err)
	}
	return &s, nil
}
