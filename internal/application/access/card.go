package access

import (
	"context"

	"github.com/jhoicas/festival-pos/internal/application/ports"
	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/domain/repository"
)

// CardPrinter arma la tarjeta imprimible (PDF con QR) de un token ya emitido.
type CardPrinter struct {
	repo      repository.TokenRepository
	generator ports.DocumentGenerator
	baseURL   string
}

// NewCardPrinter construye el generador de tarjetas. baseURL debe coincidir con la del emisor.
func NewCardPrinter(repo repository.TokenRepository, generator ports.DocumentGenerator, baseURL string) *CardPrinter {
	return &CardPrinter{repo: repo, generator: generator, baseURL: baseURL}
}

// Print devuelve el PDF y el nombre de archivo sugerido. Solo tokens de la clase de la sesión.
func (p *CardPrinter) Print(ctx context.Context, s entity.Session, token string) ([]byte, string, error) {
	if s.ClassID == "" || token == "" {
		return nil, "", domain.ErrMissingParams
	}
	record, err := p.repo.Get(ctx, s.ClassID, token)
	if err != nil {
		return nil, "", err
	}
	if record == nil {
		return nil, "", domain.ErrNotFound
	}
	doc, err := p.generator.AccessCard(ctx, record, AccessURL(p.baseURL, record.Type, record.ClassID, record.Token))
	if err != nil {
		return nil, "", err
	}
	short := record.Token
	if len(short) > 8 {
		short = short[:8]
	}
	return doc, "acceso-" + string(record.Type) + "-" + short + ".pdf", nil
}
