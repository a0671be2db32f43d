package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cents is a monetary amount in hundredths of the currency unit.
// Totals are accumulated as integers so sums never drift.
type Cents int64

// MaxAmount bounds a single amount, one billion currency units. Sums of
// bounded amounts stay far inside int64.
const MaxAmount Cents = 1_000_000_000 * 100

var (
	// errAmount is wrapped by ParseAmount for any value that is not a finite number.
	errAmount = errors.New("amount is not a finite number")
	// ErrAmountRange is wrapped by ParseAmount for magnitudes above MaxAmount.
	ErrAmountRange = errors.New("amount out of range")
)

// ParseAmount converts a stored or submitted amount into Cents.
// It accepts JSON numbers (float64, json.Number), Go integers and numeric
// strings. Values are rounded half away from zero to whole cents and must
// not exceed MaxAmount in magnitude.
func ParseAmount(v any) (Cents, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		return wholeUnits(int64(x))
	case int64:
		return wholeUnits(x)
	case json.Number:
		parsed, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errAmount, x.String())
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errAmount, x)
		}
		f = parsed
	case nil:
		return 0, fmt.Errorf("%w: missing", errAmount)
	default:
		return 0, fmt.Errorf("%w: %T", errAmount, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", errAmount, f)
	}
	f = math.Round(f * 100)
	if math.Abs(f) > float64(MaxAmount) {
		return 0, fmt.Errorf("%w: %v", ErrAmountRange, f/100)
	}
	return Cents(f), nil
}

func wholeUnits(x int64) (Cents, error) {
	if x > int64(MaxAmount/100) || x < -int64(MaxAmount/100) {
		return 0, fmt.Errorf("%w: %d", ErrAmountRange, x)
	}
	return Cents(x * 100), nil
}

// Float returns the amount in currency units, for storage as a JSON number.
func (c Cents) Float() float64 {
	return float64(c) / 100
}

// String renders the amount with exactly two decimals, e.g. "20.00".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
