package domain

import (
	"fmt"
	"math/big"
	"strings"
)

// Wei is an integer minor-unit ("wei") amount. It marshals to JSON as a
// decimal string so the value survives clients that parse JSON numbers as
// 64-bit floats.
type Wei struct {
	big.Int
}

// NewWei copies i into a Wei. A nil input yields a nil Wei.
func NewWei(i *big.Int) *Wei {
	if i == nil {
		return nil
	}
	w := new(Wei)
	w.Int.Set(i)
	return w
}

// NewWeiFromInt64 creates a Wei from an int64.
func NewWeiFromInt64(i int64) *Wei {
	w := new(Wei)
	w.Int.SetInt64(i)
	return w
}

// BigInt returns a copy of the underlying integer, or nil for a nil Wei.
func (w *Wei) BigInt() *big.Int {
	if w == nil {
		return nil
	}
	return new(big.Int).Set(&w.Int)
}

// MarshalJSON encodes the amount as a quoted decimal string.
func (w Wei) MarshalJSON() ([]byte, error) {
	return []byte(`"` + w.Int.String() + `"`), nil
}

// UnmarshalJSON accepts both a quoted decimal string and a bare JSON number.
func (w *Wei) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		w.Int.SetInt64(0)
		return nil
	}
	if _, ok := w.Int.SetString(s, 10); !ok {
		return fmt.Errorf("domain: invalid wei amount %q", s)
	}
	return nil
}
