// Package currency defines the closed set of coin denominations and
// transaction types used by the ledger. Values are validated once at the
// boundary; storage code maps variants to fixed column names and never
// interpolates caller input into SQL text.
package currency

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCurrency        = errors.New("invalid currency type")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
)

type Type string

const (
	Coin   Type = "coin"
	Copper Type = "copper"
	Silver Type = "silver"
	Gold   Type = "gold"
)

// All returns the four denominations in schema column order.
func All() []Type {
	return []Type{Coin, Copper, Silver, Gold}
}

// Parse maps a raw string onto a Type. Matching is case-insensitive,
// surrounding whitespace is ignored.
func Parse(raw string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case Coin:
		return Coin, nil
	case Copper:
		return Copper, nil
	case Silver:
		return Silver, nil
	case Gold:
		return Gold, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, raw)
	}
}

func (t Type) Valid() bool {
	switch t {
	case Coin, Copper, Silver, Gold:
		return true
	default:
		return false
	}
}

// Column returns the balance column holding this denomination. The return
// value is always one of four fixed literals; callers may splice it into
// query text.
func (t Type) Column() (string, error) {
	switch t {
	case Coin:
		return "coin", nil
	case Copper:
		return "copper", nil
	case Silver:
		return "silver", nil
	case Gold:
		return "gold", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, string(t))
	}
}

func (t Type) String() string { return string(t) }

type TransactionType string

const (
	Pay      TransactionType = "pay"
	Purchase TransactionType = "purchase"
)

func (tt TransactionType) Valid() bool {
	switch tt {
	case Pay, Purchase:
		return true
	default:
		return false
	}
}

func (tt TransactionType) String() string { return string(tt) }
