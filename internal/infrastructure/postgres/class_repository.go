package postgres

import (
	"context"

	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/domain/repository"
)

var (
	_ repository.ClassRepository = (*ClassRepo)(nil)
	_ repository.AdminRepository = (*AdminRepo)(nil)
)

// ClassRepo clases registradas.
type ClassRepo struct {
	q Querier
}

// NewClassRepository construye el adaptador. Pasar pool o tx (Querier).
func NewClassRepository(q Querier) *ClassRepo {
	return &ClassRepo{q: q}
}

func (r *ClassRepo) Create(ctx context.Context, c *entity.Class) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO classes (id, committee_count, created_at) VALUES ($1, $2, $3)`,
		c.ID, c.CommitteeCount, c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return storeErr(err, "insert class")
	}
	return nil
}

func (r *ClassRepo) GetByID(ctx context.Context, id string) (*entity.Class, error) {
	var c entity.Class
	err := r.q.QueryRow(ctx, `SELECT id, committee_count, created_at FROM classes WHERE id = $1`, id).
		Scan(&c.ID, &c.CommitteeCount, &c.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, storeErr(err, "get class")
	}
	return &c, nil
}

func (r *ClassRepo) List(ctx context.Context) ([]*entity.Class, error) {
	rows, err := r.q.Query(ctx, `SELECT id, committee_count, created_at FROM classes ORDER BY id`)
	if err != nil {
		return nil, storeErr(err, "list classes")
	}
	defer rows.Close()

	var list []*entity.Class
	for rows.Next() {
		var c entity.Class
		if err := rows.Scan(&c.ID, &c.CommitteeCount, &c.CreatedAt); err != nil {
			return nil, storeErr(err, "scan class")
		}
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "list classes")
	}
	return list, nil
}

// AdminRepo miembros del comité de cada clase.
type AdminRepo struct {
	q Querier
}

// NewAdminRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdminRepository(q Querier) *AdminRepo {
	return &AdminRepo{q: q}
}

func (r *AdminRepo) Create(ctx context.Context, a *entity.Admin) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO admins (class_id, user_id, password_hash, must_change_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ClassID, a.UserID, a.PasswordHash, a.MustChangePassword, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return storeErr(err, "insert admin")
	}
	return nil
}

func (r *AdminRepo) Get(ctx context.Context, classID, userID string) (*entity.Admin, error) {
	var a entity.Admin
	err := r.q.QueryRow(ctx, `
		SELECT class_id, user_id, password_hash, must_change_password, created_at, updated_at
		FROM admins WHERE class_id = $1 AND user_id = $2`, classID, userID).
		Scan(&a.ClassID, &a.UserID, &a.PasswordHash, &a.MustChangePassword, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, storeErr(err, "get admin")
	}
	return &a, nil
}

// UpdatePassword guarda el hash nuevo y la marca de cambio obligatorio.
func (r *AdminRepo) UpdatePassword(ctx context.Context, a *entity.Admin) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE admins SET password_hash = $3, must_change_password = $4, updated_at = $5
		WHERE class_id = $1 AND user_id = $2`,
		a.ClassID, a.UserID, a.PasswordHash, a.MustChangePassword, a.UpdatedAt,
	)
	if err != nil {
		return storeErr(err, "update admin password")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
