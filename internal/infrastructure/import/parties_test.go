package csvimport

import (
	"strings"
	"testing"

	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadParties(t *testing.T) {
	t.Run("Portuguese export", func(t *testing.T) {
		csv := "numero;tipo;nome;nif;morada;codigo_postal;localidade;pais;telefone;telemovel;email;observacoes;consentimento_rgpd\n" +
			"12;Cliente;Acme Lda;PT 501 234 567;Rua A;1000-001;Lisboa;pt;210000000;910000000;geral@acme.pt;vip;sim\n" +
			"7;ambos;Beta SA;502 345 678;;;;;;;;;nao\n"

		records, errs, err := ReadParties(strings.NewReader(csv), 10)
		require.NoError(t, err)
		assert.False(t, errs.HasErrors(), errs.String())
		require.Len(t, records, 2)

		acme := records[0]
		assert.Equal(t, 2, acme.Line)
		assert.Equal(t, int64(12), acme.Numero)
		assert.Equal(t, partner.PartyDraft{
			IsClient:    true,
			Name:        "Acme Lda",
			Address:     "Rua A",
			PostalCode:  "1000-001",
			Locality:    "Lisboa",
			CountryCode: "PT",
			Notes:       "vip",
			TaxID:       "PT 501 234 567",
			Phone:       "210000000",
			Mobile:      "910000000",
			Email:       "geral@acme.pt",
			Consent:     partner.ConsentYes,
		}, acme.Draft)

		beta := records[1]
		assert.True(t, beta.Draft.IsClient)
		assert.True(t, beta.Draft.IsSupplier)
		assert.Equal(t, partner.ConsentNo, beta.Draft.Consent)
	})

	t.Run("English headers with role flags", func(t *testing.T) {
		csv := "name,tax_id,is_client,is_supplier,consent\n" +
			"Acme,501234567,yes,no,\n" +
			"Beta,502345678,0,1,true\n"

		records, errs, err := ReadParties(strings.NewReader(csv), 10)
		require.NoError(t, err)
		assert.False(t, errs.HasErrors(), errs.String())
		require.Len(t, records, 2)

		assert.Zero(t, records[0].Numero)
		assert.True(t, records[0].Draft.IsClient)
		assert.False(t, records[0].Draft.IsSupplier)
		assert.Equal(t, partner.ConsentNo, records[0].Draft.Consent)
		assert.False(t, records[1].Draft.IsClient)
		assert.True(t, records[1].Draft.IsSupplier)
		assert.Equal(t, partner.ConsentYes, records[1].Draft.Consent)
	})

	t.Run("Missing required columns", func(t *testing.T) {
		_, _, err := ReadParties(strings.NewReader("nome,email\nAcme,a@b.pt"), 10)

		require.ErrorIs(t, err, ErrMissingColumns)
		assert.Contains(t, err.Error(), "tax_id")
		assert.Contains(t, err.Error(), "is_client/is_supplier")
	})

	t.Run("Invalid rows are reported and skipped", func(t *testing.T) {
		csv := "numero,tipo,nome,nif,cliente\n" +
			"abc,cliente,Acme,501234567,\n" +
			",parceiro,Beta,502345678,\n" +
			",cliente,,503456789,\n" +
			",,Delta,504567890,talvez\n" +
			",cliente,Gama,505678901,\n"

		records, errs, err := ReadParties(strings.NewReader(csv), 10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Gama", records[0].Draft.Name)

		got := errs.Errors()
		require.Len(t, got, 4)
		assert.Equal(t, RowError{Row: 2, Column: "numero", Code: ErrCodeInvalidFormat, Message: "invalid format, expected a positive integer", Value: "abc"}, got[0])
		assert.Equal(t, "type", got[1].Column)
		assert.Equal(t, 3, got[1].Row)
		assert.Equal(t, ErrCodeRequiredField, got[2].Code)
		assert.Equal(t, "name", got[2].Column)
		assert.Equal(t, "is_client", got[3].Column)
	})

	t.Run("Duplicates within the file", func(t *testing.T) {
		csv := "numero,tipo,nome,nif\n" +
			"1,cliente,Acme,501234567\n" +
			"2,cliente,Acme bis,PT501234567\n" +
			"1,cliente,Beta,502345678\n" +
			",cliente,Gama,503456789\n" +
			",cliente,Delta,504567890\n"

		records, errs, err := ReadParties(strings.NewReader(csv), 10)
		require.NoError(t, err)
		require.Len(t, records, 3)

		got := errs.Errors()
		require.Len(t, got, 2)
		assert.Equal(t, ErrCodeDuplicate, got[0].Code)
		assert.Equal(t, "tax_id", got[0].Column)
		assert.Equal(t, 3, got[0].Row)
		assert.Equal(t, ErrCodeDuplicate, got[1].Code)
		assert.Equal(t, "numero", got[1].Column)
		assert.Equal(t, 4, got[1].Row)
	})

	t.Run("Blank lines are ignored", func(t *testing.T) {
		csv := "tipo,nome,nif\ncliente,Acme,501234567\n,,\n"

		records, errs, err := ReadParties(strings.NewReader(csv), 10)
		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.False(t, errs.HasErrors())
	})

	t.Run("Unreadable file", func(t *testing.T) {
		_, _, err := ReadParties(strings.NewReader(""), 10)

		assert.ErrorIs(t, err, ErrEmptyFile)
	})
}
