package csvimport

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/erp/backoffice/internal/domain/partner"
)

// Party columns and the header names accepted for each
var partyColumns = map[string][]string{
	"numero":       {"numero", "number"},
	"type":         {"tipo", "type"},
	"is_client":    {"is_client", "is_cliente", "cliente", "client"},
	"is_supplier":  {"is_supplier", "is_fornecedor", "fornecedor", "supplier"},
	"name":         {"name", "nome"},
	"tax_id":       {"tax_id", "nif", "vat"},
	"address":      {"address", "morada"},
	"postal_code":  {"postal_code", "codigo_postal"},
	"locality":     {"locality", "localidade"},
	"country_code": {"country_code", "pais", "country"},
	"website":      {"website"},
	"notes":        {"notes", "observacoes"},
	"phone":        {"phone", "telefone"},
	"mobile":       {"mobile", "telemovel"},
	"email":        {"email"},
	"consent":      {"consent", "consentimento_rgpd"},
}

// PartyRecord is a party read from a file
type PartyRecord struct {
	Line int
	// Numero is zero when the file leaves numbering to the directory
	Numero int64
	Draft  partner.PartyDraft
}

// ReadParties parses a party export. Rows with problems are reported in the
// returned collection and left out of the records; an error is returned only
// when the file as a whole cannot be read.
func ReadParties(r io.Reader, maxErrors int, opts ...ParserOption) ([]PartyRecord, *ErrorCollection, error) {
	p, err := NewParser(r, opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := p.ParseHeader(); err != nil {
		return nil, nil, err
	}

	columns := resolveColumns(p)
	var missing []string
	for _, required := range []string{"name", "tax_id"} {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	_, hasType := columns["type"]
	_, hasClient := columns["is_client"]
	_, hasSupplier := columns["is_supplier"]
	if !hasType && !hasClient && !hasSupplier {
		missing = append(missing, "type or is_client/is_supplier")
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	errs := NewErrorCollection(maxErrors)
	seenTax := make(map[string]int)
	seenNumero := make(map[int64]int)
	var records []PartyRecord
	for {
		row, err := p.ReadRow()
		if errors.Is(err, io.EOF) {
			break
		}
		var rowErr RowError
		if errors.As(err, &rowErr) {
			errs.Add(rowErr)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if row.IsEmpty() {
			continue
		}

		rec, ok := partyRecord(row, columns, errs)
		if !ok {
			continue
		}
		tax := partner.NormalizeTaxID(rec.Draft.TaxID)
		if first, dup := seenTax[tax]; dup && tax != "" {
			errs.Add(NewRowError(row.Line, "tax_id", ErrCodeDuplicate, fmt.Sprintf("tax id already used on row %d", first)))
			continue
		}
		if first, dup := seenNumero[rec.Numero]; dup && rec.Numero > 0 {
			errs.Add(NewRowError(row.Line, "numero", ErrCodeDuplicate, fmt.Sprintf("numero already used on row %d", first)))
			continue
		}
		seenTax[tax] = row.Line
		if rec.Numero > 0 {
			seenNumero[rec.Numero] = row.Line
		}
		records = append(records, rec)
	}
	return records, errs, nil
}

// resolveColumns maps canonical column names to the header present in the file
func resolveColumns(p *Parser) map[string]string {
	columns := make(map[string]string, len(partyColumns))
	for canonical, aliases := range partyColumns {
		for _, alias := range aliases {
			if p.HasHeader(alias) {
				columns[canonical] = alias
				break
			}
		}
	}
	return columns
}

func partyRecord(row *Row, columns map[string]string, errs *ErrorCollection) (PartyRecord, bool) {
	get := func(canonical string) string {
		header, ok := columns[canonical]
		if !ok {
			return ""
		}
		return row.Get(header)
	}
	before := errs.TotalCount()

	rec := PartyRecord{Line: row.Line}
	if v := get("numero"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			errs.AddFormat(row.Line, "numero", "a positive integer", v)
		}
		rec.Numero = n
	}

	d := &rec.Draft
	if v := get("type"); v != "" {
		var ok bool
		if d.IsClient, d.IsSupplier, ok = parseType(v); !ok {
			errs.AddFormat(row.Line, "type", "cliente, fornecedor or ambos", v)
		}
	}
	for canonical, target := range map[string]*bool{"is_client": &d.IsClient, "is_supplier": &d.IsSupplier} {
		v := get(canonical)
		if v == "" {
			continue
		}
		b, ok := parseBool(v)
		if !ok {
			errs.AddFormat(row.Line, canonical, "a yes/no value", v)
			continue
		}
		*target = *target || b
	}

	d.Name = get("name")
	if d.Name == "" {
		errs.AddRequired(row.Line, "name")
	}
	d.TaxID = get("tax_id")
	if d.TaxID == "" {
		errs.AddRequired(row.Line, "tax_id")
	}
	d.Address = get("address")
	d.PostalCode = get("postal_code")
	d.Locality = get("locality")
	d.CountryCode = strings.ToUpper(get("country_code"))
	d.Website = get("website")
	d.Notes = get("notes")
	d.Phone = get("phone")
	d.Mobile = get("mobile")
	d.Email = get("email")

	d.Consent = partner.ConsentNo
	if v := get("consent"); v != "" {
		b, ok := parseBool(v)
		if !ok {
			errs.AddFormat(row.Line, "consent", "a yes/no value", v)
		} else if b {
			d.Consent = partner.ConsentYes
		}
	}

	return rec, errs.TotalCount() == before
}

func parseType(v string) (client, supplier, ok bool) {
	switch strings.ToLower(v) {
	case "cliente", "client":
		return true, false, true
	case "fornecedor", "supplier":
		return false, true, true
	case "ambos", "both":
		return true, true, true
	}
	return false, false, false
}

func parseBool(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "sim", "s", "y", "x":
		return true, true
	case "0", "false", "no", "nao", "não", "n":
		return false, true
	}
	return false, false
}
