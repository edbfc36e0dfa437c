package pricing

import (
	"strings"

	"mentorbook/internal/apperr"

	"github.com/shopspring/decimal"
)

// CanonicalMinutes is the session length a base rate is quoted for.
const CanonicalMinutes = 30

var (
	ErrInvalidRate     = apperr.New(apperr.KindValidation, "base rate must be positive")
	ErrInvalidDuration = apperr.New(apperr.KindValidation, "duration must be positive")
)

var (
	sixty     = decimal.NewFromInt(60)
	canonical = decimal.NewFromInt(CanonicalMinutes)
)

// Round2 rounds half away from zero to two places, which is half-up for the
// non-negative amounts priced here.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func PerMinuteRate(baseRate decimal.Decimal) (decimal.Decimal, error) {
	if !baseRate.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}
	return Round2(baseRate.Div(sixty)), nil
}

// SessionPrice scales the 30-minute base rate linearly to minutes.
func SessionPrice(baseRate decimal.Decimal, minutes int) (decimal.Decimal, error) {
	if !baseRate.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}
	if minutes <= 0 {
		return decimal.Zero, ErrInvalidDuration
	}
	return Round2(baseRate.Mul(decimal.NewFromInt(int64(minutes))).Div(canonical)), nil
}

// ServicePrice prices minutes of a service offered at price for
// serviceMinutes. Services without a duration are sold at a flat price.
func ServicePrice(price decimal.Decimal, serviceMinutes, minutes int) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}
	if minutes <= 0 {
		return decimal.Zero, ErrInvalidDuration
	}
	if serviceMinutes <= 0 {
		return Round2(price), nil
	}
	return Round2(price.Mul(decimal.NewFromInt(int64(minutes))).Div(decimal.NewFromInt(int64(serviceMinutes)))), nil
}

// DefaultSymbol is used by FormatCurrency.
const DefaultSymbol = "₹"

type Formatter struct {
	Symbol string
}

func FormatCurrency(amount decimal.Decimal) string {
	return Formatter{Symbol: DefaultSymbol}.Format(amount)
}

// Format renders amount with two decimals and comma thousands separators,
// e.g. "₹1,234.50" or "-₹75.00".
func (f Formatter) Format(amount decimal.Decimal) string {
	rounded := Round2(amount)
	fixed := rounded.Abs().StringFixed(2)
	dot := strings.IndexByte(fixed, '.')

	var b strings.Builder
	if rounded.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString(f.Symbol)
	b.WriteString(groupThousands(fixed[:dot]))
	b.WriteString(fixed[dot:])
	return b.String()
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
