// Package liquidswap builds Liquidswap v0.5 pool lookups, quotes and swap payloads.
package liquidswap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"aptos-swap/internal/chain/types"
)

const (
	// FeeScale is the denominator of the pool fee.
	FeeScale = uint64(10000)
	// DefaultFee applies when the pool resource carries no fee field.
	DefaultFee = uint64(30)

	CurveUncorrelated = "Uncorrelated"
)

var (
	ErrSameCoin       = errors.New("from and to coin are the same")
	ErrEmptyReserves  = errors.New("pool reserves are empty")
	ErrUnsupportedFee = errors.New("pool fee out of range")
)

// Config locates the Liquidswap deployment.
type Config struct {
	ModuleAddress   types.Address
	ResourceAccount types.Address
	ScriptsModule   string
	Curve           string
}

// NewConfig parses deployment addresses. Only the uncorrelated curve is supported.
func NewConfig(moduleAddr, resourceAccount, scriptsModule, curve string) (*Config, error) {
	mod, err := types.ParseAddress(moduleAddr)
	if err != nil {
		return nil, fmt.Errorf("liquidswap module address: %w", err)
	}
	res, err := types.ParseAddress(resourceAccount)
	if err != nil {
		return nil, fmt.Errorf("liquidswap resource account: %w", err)
	}
	if curve == "" {
		curve = CurveUncorrelated
	}
	if curve != CurveUncorrelated {
		return nil, fmt.Errorf("unsupported curve %q", curve)
	}
	if scriptsModule == "" {
		scriptsModule = "scripts"
	}
	return &Config{ModuleAddress: mod, ResourceAccount: res, ScriptsModule: scriptsModule, Curve: curve}, nil
}

// CurveType is the Move type of the configured curve.
func (c *Config) CurveType() string {
	return fmt.Sprintf("%s::curves::%s", c.ModuleAddress, c.Curve)
}

// PoolType returns the LiquidityPool resource type for the pair and whether
// x is the pool's X coin. The struct is declared by the module and stored
// under the resource account.
func (c *Config) PoolType(x, y string) (string, bool, error) {
	sorted, err := IsSorted(x, y)
	if err != nil {
		return "", false, err
	}
	if !sorted {
		x, y = y, x
	}
	return fmt.Sprintf("%s::liquidity_pool::LiquidityPool<%s, %s, %s>",
		c.ModuleAddress, types.NormalizeTypeTag(x), types.NormalizeTypeTag(y), c.CurveType()), sorted, nil
}

// SwapPayload is scripts::swap<From, To, Curve>(amountIn, minOut).
func (c *Config) SwapPayload(from, to string, amountIn, minOut types.BigInt) *types.EntryFunctionPayload {
	fn := fmt.Sprintf("%s::%s::swap", c.ModuleAddress, c.ScriptsModule)
	return types.NewEntryFunction(fn,
		[]string{types.NormalizeTypeTag(from), types.NormalizeTypeTag(to), c.CurveType()},
		types.OrZero(amountIn).String(), types.OrZero(minOut).String())
}

// IsSorted reports whether x orders before y the way coin_helper::compare
// orders pool coins: struct name, then module name, then account address.
// Names compare by length first, then bytewise.
func IsSorted(x, y string) (bool, error) {
	tx, err := types.ParseStructTag(x)
	if err != nil {
		return false, err
	}
	ty, err := types.ParseStructTag(y)
	if err != nil {
		return false, err
	}
	if c := compareName(tx.Name, ty.Name); c != 0 {
		return c < 0, nil
	}
	if c := compareName(tx.Module, ty.Module); c != 0 {
		return c < 0, nil
	}
	c := bytes.Compare(tx.Address[:], ty.Address[:])
	if c == 0 {
		return false, ErrSameCoin
	}
	return c < 0, nil
}

// compareName orders the BCS encoding of a name: length prefix, then bytes.
func compareName(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// Pool is the decoded state of a LiquidityPool resource.
type Pool struct {
	ReserveX types.BigInt
	ReserveY types.BigInt
	Fee      uint64
}

type coinValue struct {
	Value types.FlexInt `json:"value"`
}

type poolData struct {
	CoinXReserve coinValue      `json:"coin_x_reserve"`
	CoinYReserve coinValue      `json:"coin_y_reserve"`
	Fee          *types.FlexInt `json:"fee"`
}

// ParsePool decodes the data of a LiquidityPool resource.
func ParsePool(data json.RawMessage) (*Pool, error) {
	var d poolData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode pool: %w", err)
	}
	p := &Pool{
		ReserveX: types.OrZero(d.CoinXReserve.Value.BigInt),
		ReserveY: types.OrZero(d.CoinYReserve.Value.BigInt),
		Fee:      DefaultFee,
	}
	if d.Fee != nil && d.Fee.Int != nil {
		if !d.Fee.IsUint64() || d.Fee.Uint64() >= FeeScale {
			return nil, ErrUnsupportedFee
		}
		p.Fee = d.Fee.Uint64()
	}
	return p, nil
}

// Reserves returns (reserveIn, reserveOut) for a swap whose input is X when xIn is true.
func (p *Pool) Reserves(xIn bool) (types.BigInt, types.BigInt) {
	if xIn {
		return p.ReserveX, p.ReserveY
	}
	return p.ReserveY, p.ReserveX
}

// GetAmountOut applies the constant-product curve with the pool fee:
// out = in*(S-fee)*rOut / (rIn*S + in*(S-fee)).
func GetAmountOut(amountIn, reserveIn, reserveOut types.BigInt, fee uint64) (types.BigInt, error) {
	if types.IsZero(reserveIn) || types.IsZero(reserveOut) {
		return types.EmptyInt, ErrEmptyReserves
	}
	if fee >= FeeScale {
		return types.EmptyInt, ErrUnsupportedFee
	}
	inWithFee := types.BigMul(types.OrZero(amountIn), types.NewInt(FeeScale-fee))
	num := types.BigMul(inWithFee, reserveOut)
	den := types.BigAdd(types.BigMul(reserveIn, types.NewInt(FeeScale)), inWithFee)
	return types.BigDiv(num, den), nil
}

// MinOut is quoted*(10000-slippageBps)/10000.
func MinOut(quoted types.BigInt, slippageBps uint64) types.BigInt {
	return types.MulDiv(quoted, FeeScale-slippageBps, FeeScale)
}
