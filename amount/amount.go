package amount

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// divisionPrecision keeps quotients exact well past the 18 fractional digits
// of a base-unit amount before the explicit ceiling at the call boundary.
const divisionPrecision = 36

var (
	ErrInvalidAmount = errors.New("amount: invalid decimal value")
	ErrZeroDivisor   = errors.New("amount: division by zero")
	ErrDegenerate    = errors.New("amount: degenerate conversion result")
)

var (
	weiPerEther = decimal.New(1, 18)
	zero        = decimal.Zero
)

// WeiPerEther scales a human-denominated quantity to 18-decimal base units.
var WeiPerEther = Amount{d: weiPerEther}

// Amount is an arbitrary-precision decimal token quantity, held in 18-decimal
// base units. All arithmetic returns a new Amount; values are never mutated.
type Amount struct {
	d decimal.Decimal
}

func New(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Amount{d: d}, nil
}

// MustNew is for constants and tests only.
func MustNew(s string) Amount {
	a, err := New(s)
	if err != nil {
		panic(err)
	}
	return a
}

func Zero() Amount {
	return Amount{d: zero}
}

func FromInt(v int64) Amount {
	return Amount{d: decimal.NewFromInt(v)}
}

// FromEther parses a human-denominated quantity ("1", "0.5") and scales it to
// base units.
func FromEther(qty string) (Amount, error) {
	a, err := New(qty)
	if err != nil {
		return Amount{}, err
	}
	return Amount{d: a.d.Mul(weiPerEther)}, nil
}

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }
func (a Amount) Mul(b Amount) Amount { return Amount{d: a.d.Mul(b.d)} }

func (a Amount) Div(b Amount) (Amount, error) {
	if b.d.IsZero() {
		return Amount{}, ErrZeroDivisor
	}
	return Amount{d: a.d.DivRound(b.d, divisionPrecision)}, nil
}

// DivRate divides by an 18-decimal fixed-point rate, normalizing the rate to a
// plain ratio first. A zero rate means the oracle had no liquidity to quote.
func (a Amount) DivRate(rate Amount) (Amount, error) {
	if rate.d.IsZero() {
		return Amount{}, ErrDegenerate
	}
	ratio := rate.d.DivRound(weiPerEther, divisionPrecision)
	if ratio.IsZero() {
		return Amount{}, ErrDegenerate
	}
	return Amount{d: a.d.DivRound(ratio, divisionPrecision)}, nil
}

func Min(a, b Amount) Amount {
	if a.d.LessThan(b.d) {
		return a
	}
	return b
}

func (a Amount) Cmp(b Amount) int         { return a.d.Cmp(b.d) }
func (a Amount) Equal(b Amount) bool      { return a.d.Equal(b.d) }
func (a Amount) LessThan(b Amount) bool   { return a.d.LessThan(b.d) }
func (a Amount) IsZero() bool             { return a.d.IsZero() }
func (a Amount) Sign() int                { return a.d.Sign() }

// Ceil rounds up to a whole base unit.
func (a Amount) Ceil() Amount {
	return Amount{d: a.d.Ceil()}
}

// BaseUnits renders the amount as an integral base-unit string for the
// external-call boundary. Fractional results are rounded up: the protocol only
// accepts whole base units and rounding up never under-collateralizes.
func (a Amount) BaseUnits() string {
	return a.d.Ceil().StringFixed(0)
}

func (a Amount) String() string {
	return a.d.String()
}
