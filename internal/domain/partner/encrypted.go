package partner

import (
	"database/sql/driver"
	"fmt"
)

// Sealer is the reversible transform applied to sensitive party fields
type Sealer interface {
	Seal(plaintext []byte) (string, error)
	Open(ciphertext string) ([]byte, error)
}

// Encrypted holds the ciphertext of a sensitive string. The cleartext is only
// reachable through an explicit Open call with a Sealer; there is no implicit
// decryption on read. The zero value represents an absent field.
type Encrypted struct {
	ciphertext string
}

// Seal encrypts plaintext. An empty plaintext yields the zero value.
func Seal(s Sealer, plaintext string) (Encrypted, error) {
	if plaintext == "" {
		return Encrypted{}, nil
	}
	ct, err := s.Seal([]byte(plaintext))
	if err != nil {
		return Encrypted{}, fmt.Errorf("seal: %w", err)
	}
	return Encrypted{ciphertext: ct}, nil
}

// EncryptedFromCiphertext wraps ciphertext loaded from storage
func EncryptedFromCiphertext(ciphertext string) Encrypted {
	return Encrypted{ciphertext: ciphertext}
}

// Open decrypts the value
func (e Encrypted) Open(s Sealer) (string, error) {
	if e.ciphertext == "" {
		return "", nil
	}
	pt, err := s.Open(e.ciphertext)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	return string(pt), nil
}

// IsZero reports whether no value is stored
func (e Encrypted) IsZero() bool {
	return e.ciphertext == ""
}

// Ciphertext returns the stored representation
func (e Encrypted) Ciphertext() string {
	return e.ciphertext
}

// String never reveals the payload
func (e Encrypted) String() string {
	if e.ciphertext == "" {
		return ""
	}
	return "[sealed]"
}

// GoString keeps %#v from printing ciphertext
func (e Encrypted) GoString() string {
	return "partner.Encrypted{" + e.String() + "}"
}

// Value implements driver.Valuer. Absent fields are stored as NULL.
func (e Encrypted) Value() (driver.Value, error) {
	if e.ciphertext == "" {
		return nil, nil
	}
	return e.ciphertext, nil
}

// Scan implements sql.Scanner
func (e *Encrypted) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		e.ciphertext = ""
	case string:
		e.ciphertext = v
	case []byte:
		e.ciphertext = string(v)
	default:
		return fmt.Errorf("partner: cannot scan %T into Encrypted", src)
	}
	return nil
}
