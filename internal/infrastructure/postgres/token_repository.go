package postgres

import (
	"context"
	"time"

	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/domain/repository"
)

var _ repository.TokenRepository = (*TokenRepo)(nil)

const tokenColumns = `token, class_id, type, created_at, expires_at, used, used_at`

// TokenRepo implementación del puerto TokenRepository sobre PostgreSQL (usable con pool o tx).
type TokenRepo struct {
	q Querier
}

// NewTokenRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTokenRepository(q Querier) *TokenRepo {
	return &TokenRepo{q: q}
}

// Create persiste un token nuevo.
func (r *TokenRepo) Create(ctx context.Context, t *entity.AccessToken) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO access_tokens (`+tokenColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.Token, t.ClassID, string(t.Type), t.CreatedAt, t.ExpiresAt, t.Used, t.UsedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return storeErr(err, "insert token")
	}
	return nil
}

// Get obtiene un token por clase y valor.
func (r *TokenRepo) Get(ctx context.Context, classID, token string) (*entity.AccessToken, error) {
	return r.get(ctx, `SELECT `+tokenColumns+` FROM access_tokens WHERE class_id = $1 AND token = $2`, classID, token)
}

// GetForUpdate bloquea la fila del token hasta el fin de la transacción.
func (r *TokenRepo) GetForUpdate(ctx context.Context, classID, token string) (*entity.AccessToken, error) {
	return r.get(ctx, `SELECT `+tokenColumns+` FROM access_tokens WHERE class_id = $1 AND token = $2 FOR UPDATE`, classID, token)
}

func (r *TokenRepo) get(ctx context.Context, query, classID, token string) (*entity.AccessToken, error) {
	var t entity.AccessToken
	var typ string
	err := r.q.QueryRow(ctx, query, classID, token).Scan(
		&t.Token, &t.ClassID, &typ, &t.CreatedAt, &t.ExpiresAt, &t.Used, &t.UsedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, storeErr(err, "get token")
	}
	t.Type = entity.TokenType(typ)
	return &t, nil
}

// MarkUsed consume el token con un UPDATE condicional: dos cobros concurrentes no pueden usarlo ambos.
func (r *TokenRepo) MarkUsed(ctx context.Context, classID, token string, usedAt time.Time) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE access_tokens SET used = TRUE, used_at = $3
		WHERE class_id = $1 AND token = $2 AND used = FALSE`,
		classID, token, usedAt,
	)
	if err != nil {
		return storeErr(err, "mark token used")
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	existing, err := r.Get(ctx, classID, token)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrNotFound
	}
	return domain.ErrAlreadyUsed
}
