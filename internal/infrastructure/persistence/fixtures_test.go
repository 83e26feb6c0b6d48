package persistence_test

import (
	"bytes"
	"testing"
	"time"

	domnum "github.com/erp/backoffice/internal/domain/numbering"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/erp/backoffice/internal/infrastructure/crypto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func testCipher(t *testing.T) *crypto.Cipher {
	t.Helper()
	c, err := crypto.NewCipher(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	return c
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newParty(t *testing.T, tc shared.TenantContext, numero int64, taxID string) *partner.Party {
	t.Helper()
	p, err := partner.NewParty(tc, partner.PartyDraft{
		IsClient:   true,
		IsSupplier: true,
		Name:       "Construções Lda " + taxID,
		Locality:   "Porto",
		TaxID:      taxID,
		Email:      "geral@example.pt",
	}, testCipher(t), testNow)
	require.NoError(t, err)
	p.AssignNumero(domnum.NewNumber(domnum.Entities(), numero))
	return p
}

func newProposal(t *testing.T, tc shared.TenantContext, clientID uuid.UUID, supplierIDs ...*uuid.UUID) *trade.Proposal {
	t.Helper()
	p, err := trade.NewProposal(tc, clientID, nil, nil, "", testNow)
	require.NoError(t, err)
	inputs := []trade.LineInput{
		{Description: "Tijolo", Quantity: dec("2"), UnitPrice: dec("10.00")},
		{Description: "Areia", Quantity: dec("1"), UnitPrice: dec("5.00")},
	}
	for i, s := range supplierIDs {
		if i < len(inputs) {
			inputs[i].SupplierID = s
		}
	}
	require.NoError(t, p.ReplaceLines(inputs, testNow))
	return p
}
