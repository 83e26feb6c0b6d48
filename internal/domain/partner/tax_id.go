package partner

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeTaxID upper-cases raw and keeps only its digits, so that
// "pt 123-456-789" and "123456789" normalize to the same value.
func NormalizeTaxID(raw string) string {
	raw = cases.Upper(language.Und).String(raw)
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

// HashTaxID returns the hex SHA-256 of a normalized tax id. The hash is
// deterministic so it can back uniqueness checks and lookups without
// decrypting stored values.
func HashTaxID(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
