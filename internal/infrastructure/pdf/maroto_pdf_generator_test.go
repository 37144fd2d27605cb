package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/infrastructure/pdf"
)

var t0 = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func TestYen(t *testing.T) {
	g := pdf.NewMarotoPDFGenerator(nil)
	assert.Equal(t, "¥0", g.Yen(0))
	assert.Equal(t, "¥300", g.Yen(300))
	assert.Equal(t, "¥1,200", g.Yen(1200))
	assert.Equal(t, "¥1,234,567", g.Yen(1234567))
}

func TestSaleReceipt(t *testing.T) {
	g := pdf.NewMarotoPDFGenerator(nil)
	sale, err := entity.NewSale("3-A", []entity.SaleItem{
		entity.NewSaleItem("p1", "Takoyaki", 400, 2),
		entity.NewSaleItem("p2", "Ramune", 150, 1),
	}, t0)
	require.NoError(t, err)
	sale.ID = "0b7f5c1e-0000-4000-8000-000000000000"

	out, err := g.SaleReceipt(context.Background(), sale)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestAccessCard(t *testing.T) {
	g := pdf.NewMarotoPDFGenerator(time.FixedZone("JST", 9*3600))
	tok := &entity.AccessToken{Token: "abc", ClassID: "3-A", Type: entity.TokenTypeCash, CreatedAt: t0, ExpiresAt: t0.Add(entity.CashTokenTTL)}

	out, err := g.AccessCard(context.Background(), tok, "http://localhost:8080/cash.html?classId=3-A&token=abc")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
