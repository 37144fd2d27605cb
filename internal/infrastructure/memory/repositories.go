package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/domain/repository"
)

var (
	_ repository.TokenRepository   = (*tokenRepo)(nil)
	_ repository.ProductRepository = (*productRepo)(nil)
	_ repository.SaleRepository    = (*saleRepo)(nil)
	_ repository.ClassRepository   = (*classRepo)(nil)
	_ repository.AdminRepository   = (*adminRepo)(nil)
	_ repository.AuditRepository   = (*auditRepo)(nil)
)

// ── tokens ───────────────────────────────────────────────────────────────────

type tokenRepo struct{ do access }

func (r *tokenRepo) Create(_ context.Context, t *entity.AccessToken) error {
	return r.do("tokens.create", func(s *state) error {
		k := key{t.ClassID, t.Token}
		if _, ok := s.tokens[k]; ok {
			return domain.ErrDuplicate
		}
		s.tokens[k] = *t
		return nil
	})
}

func (r *tokenRepo) Get(_ context.Context, classID, token string) (*entity.AccessToken, error) {
	var out *entity.AccessToken
	err := r.do("tokens.get", func(s *state) error {
		if t, ok := s.tokens[key{classID, token}]; ok {
			out = &t
		}
		return nil
	})
	return out, err
}

func (r *tokenRepo) GetForUpdate(ctx context.Context, classID, token string) (*entity.AccessToken, error) {
	return r.Get(ctx, classID, token)
}

func (r *tokenRepo) MarkUsed(_ context.Context, classID, token string, usedAt time.Time) error {
	return r.do("tokens.mark_used", func(s *state) error {
		k := key{classID, token}
		t, ok := s.tokens[k]
		if !ok {
			return domain.ErrNotFound
		}
		if err := t.MarkUsed(usedAt); err != nil {
			return err
		}
		s.tokens[k] = t
		return nil
	})
}

// ── productos ────────────────────────────────────────────────────────────────

type productRepo struct{ do access }

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	return r.do("products.create", func(s *state) error {
		k := key{p.ClassID, p.ID}
		if _, ok := s.products[k]; ok {
			return domain.ErrDuplicate
		}
		s.products[k] = p.Clone()
		return nil
	})
}

func (r *productRepo) GetByID(_ context.Context, classID, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.do("products.get", func(s *state) error {
		if p, ok := s.products[key{classID, id}]; ok {
			c := p.Clone()
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *productRepo) GetForUpdate(ctx context.Context, classID, id string) (*entity.Product, error) {
	return r.GetByID(ctx, classID, id)
}

func (r *productRepo) ListByClass(_ context.Context, classID string) ([]*entity.Product, error) {
	var list []*entity.Product
	err := r.do("products.list", func(s *state) error {
		for k, p := range s.products {
			if k.classID == classID {
				c := p.Clone()
				list = append(list, &c)
			}
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, err
}

func (r *productRepo) Update(_ context.Context, p *entity.Product) error {
	return r.do("products.update", func(s *state) error {
		k := key{p.ClassID, p.ID}
		if _, ok := s.products[k]; !ok {
			return domain.ErrNotFound
		}
		if p.Stock < 0 {
			return domain.ErrInsufficientStock
		}
		s.products[k] = p.Clone()
		return nil
	})
}

func (r *productRepo) Delete(_ context.Context, classID, id string) error {
	return r.do("products.delete", func(s *state) error {
		k := key{classID, id}
		if _, ok := s.products[k]; !ok {
			return domain.ErrNotFound
		}
		delete(s.products, k)
		return nil
	})
}

func (r *productRepo) DecrementStock(_ context.Context, classID, id string, qty int64) error {
	return r.do("products.decrement", func(s *state) error {
		k := key{classID, id}
		p, ok := s.products[k]
		if !ok {
			return domain.ErrNotFound
		}
		if err := p.Withdraw(qty); err != nil {
			return err
		}
		s.products[k] = p
		return nil
	})
}

// ── ventas ───────────────────────────────────────────────────────────────────

type saleRepo struct{ do access }

func (r *saleRepo) Create(_ context.Context, sale *entity.Sale) error {
	return r.do("sales.create", func(s *state) error {
		k := key{sale.ClassID, sale.ID}
		if _, ok := s.sales[k]; ok {
			return domain.ErrDuplicate
		}
		c := *sale
		c.Items = append([]entity.SaleItem(nil), sale.Items...)
		s.sales[k] = c
		s.saleSeq[sale.ClassID] = append(s.saleSeq[sale.ClassID], sale.ID)
		return nil
	})
}

func (r *saleRepo) GetByID(_ context.Context, classID, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.do("sales.get", func(s *state) error {
		if v, ok := s.sales[key{classID, id}]; ok {
			v.Items = append([]entity.SaleItem(nil), v.Items...)
			out = &v
		}
		return nil
	})
	return out, err
}

func (r *saleRepo) ListByClass(_ context.Context, classID string, limit, offset int) ([]*entity.Sale, error) {
	var list []*entity.Sale
	err := r.do("sales.list", func(s *state) error {
		ids := s.saleSeq[classID]
		// más reciente primero; a igual fecha gana el último insertado
		ordered := make([]entity.Sale, 0, len(ids))
		for i := len(ids) - 1; i >= 0; i-- {
			ordered = append(ordered, s.sales[key{classID, ids[i]}])
		}
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
		})
		for i := offset; i < len(ordered) && (limit <= 0 || len(list) < limit); i++ {
			v := ordered[i]
			v.Items = append([]entity.SaleItem(nil), v.Items...)
			list = append(list, &v)
		}
		return nil
	})
	return list, err
}

// ── clases y comité ──────────────────────────────────────────────────────────

type classRepo struct{ do access }

func (r *classRepo) Create(_ context.Context, c *entity.Class) error {
	return r.do("classes.create", func(s *state) error {
		if _, ok := s.classes[c.ID]; ok {
			return domain.ErrDuplicate
		}
		s.classes[c.ID] = *c
		return nil
	})
}

func (r *classRepo) GetByID(_ context.Context, id string) (*entity.Class, error) {
	var out *entity.Class
	err := r.do("classes.get", func(s *state) error {
		if c, ok := s.classes[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *classRepo) List(_ context.Context) ([]*entity.Class, error) {
	var list []*entity.Class
	err := r.do("classes.list", func(s *state) error {
		for _, c := range s.classes {
			c := c
			list = append(list, &c)
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, err
}

type adminRepo struct{ do access }

func (r *adminRepo) Create(_ context.Context, a *entity.Admin) error {
	return r.do("admins.create", func(s *state) error {
		k := key{a.ClassID, a.UserID}
		if _, ok := s.admins[k]; ok {
			return domain.ErrDuplicate
		}
		s.admins[k] = *a
		return nil
	})
}

func (r *adminRepo) Get(_ context.Context, classID, userID string) (*entity.Admin, error) {
	var out *entity.Admin
	err := r.do("admins.get", func(s *state) error {
		if a, ok := s.admins[key{classID, userID}]; ok {
			out = &a
		}
		return nil
	})
	return out, err
}

func (r *adminRepo) UpdatePassword(_ context.Context, a *entity.Admin) error {
	return r.do("admins.update_password", func(s *state) error {
		k := key{a.ClassID, a.UserID}
		cur, ok := s.admins[k]
		if !ok {
			return domain.ErrNotFound
		}
		cur.PasswordHash = a.PasswordHash
		cur.MustChangePassword = a.MustChangePassword
		cur.UpdatedAt = a.UpdatedAt
		s.admins[k] = cur
		return nil
	})
}

// ── auditoría ────────────────────────────────────────────────────────────────

type auditRepo struct{ do access }

func (r *auditRepo) Create(_ context.Context, e *entity.AuditEntry) error {
	return r.do("audit.create", func(s *state) error {
		s.audit[e.ClassID] = append(s.audit[e.ClassID], *e)
		return nil
	})
}

func (r *auditRepo) ListByClass(_ context.Context, classID string, limit int) ([]*entity.AuditEntry, error) {
	var list []*entity.AuditEntry
	err := r.do("audit.list", func(s *state) error {
		entries := s.audit[classID]
		for i := len(entries) - 1; i >= 0 && (limit <= 0 || len(list) < limit); i-- {
			e := entries[i]
			list = append(list, &e)
		}
		return nil
	})
	return list, err
}
