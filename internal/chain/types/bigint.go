package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	big2 "github.com/filecoin-project/go-state-types/big"
	"github.com/shopspring/decimal"
)

// OctasPerAPT is the number of base units in 1 APT.
const OctasPerAPT = uint64(100_000_000)

type BigInt = big2.Int

var EmptyInt = BigInt{}

func NewInt(i uint64) BigInt {
	return BigInt{Int: big.NewInt(0).SetUint64(i)}
}

func BigMul(a, b BigInt) BigInt {
	return big2.Mul(a, b)
}

func BigDiv(a, b BigInt) BigInt {
	return big2.Div(a, b)
}

func BigSub(a, b BigInt) BigInt {
	return big2.Sub(a, b)
}

func BigAdd(a, b BigInt) BigInt {
	return big2.Add(a, b)
}

func BigCmp(a, b BigInt) int {
	return big2.Cmp(OrZero(a), OrZero(b))
}

// OrZero replaces an unset BigInt with zero.
func OrZero(v BigInt) BigInt {
	if v.Int == nil {
		return big2.Zero()
	}
	return v
}

// IsZero reports whether v is unset or zero.
func IsZero(v BigInt) bool {
	return v.Int == nil || v.Sign() == 0
}

// ParseBigInt parses a base-10 unsigned integer.
func ParseBigInt(s string) (BigInt, error) {
	v, err := big2.FromString(s)
	if err != nil {
		return EmptyInt, fmt.Errorf("invalid integer %q: %w", s, err)
	}
	if v.Sign() < 0 {
		return EmptyInt, fmt.Errorf("negative integer %q", s)
	}
	return v, nil
}

// MulDiv returns floor(v * num / den).
func MulDiv(v BigInt, num, den uint64) BigInt {
	return BigDiv(BigMul(OrZero(v), NewInt(num)), NewInt(den))
}

// ToBaseUnits converts a human-readable decimal quantity into base units.
// It rejects negative amounts and amounts with more fractional digits than decimals.
func ToBaseUnits(amount decimal.Decimal, decimals uint8) (BigInt, error) {
	if amount.IsNegative() {
		return EmptyInt, fmt.Errorf("negative amount %s", amount)
	}
	shifted := amount.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return EmptyInt, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	return big2.NewFromGo(shifted.BigInt()), nil
}

// FormatUnits renders base units as a decimal string, for display only.
func FormatUnits(v BigInt, decimals uint8) string {
	return decimal.NewFromBigInt(OrZero(v).Int, -int32(decimals)).String()
}

// FlexInt decodes integers the indexer returns either as JSON numbers or strings.
type FlexInt struct {
	BigInt
}

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		f.BigInt = big2.Zero()
		return nil
	}
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		s = n.String()
	}
	v, err := ParseBigInt(s)
	if err != nil {
		return err
	}
	f.BigInt = v
	return nil
}
