package parsing

import (
	"math"
	"strconv"

	"bankbot/internal/logging"
	"bankbot/internal/types"
)

// DefaultCurrency is assumed for bare numbers.
const DefaultCurrency = "$"

// Slot names filled from money annotations.
const (
	SlotAmount   = "amount-of-money"
	SlotCurrency = "currency"
)

// Money is a normalized amount and its currency.
type Money struct {
	Amount   float64
	Currency string
}

// Formatted returns the amount with two decimals.
func (m Money) Formatted() string {
	return strconv.FormatFloat(m.Amount, 'f', 2, 64)
}

// Slots returns the amount and currency slot values.
func (m Money) Slots() []types.SlotValue {
	return []types.SlotValue{
		{Name: SlotAmount, Value: m.Formatted()},
		{Name: SlotCurrency, Value: m.Currency},
	}
}

// ParseMoney reads an amount-of-money or number entity. Any other entity
// kind is not money.
func ParseMoney(e types.Entity) (Money, bool) {
	info := e.Info()
	switch e.Entity {
	case EntityMoney:
		amount, ok := numericValue(info.Value, e.Value)
		if !ok {
			logging.ParsingDebug("amount-of-money without numeric value")
			return Money{}, false
		}
		currency := info.Unit
		if currency == "" {
			currency = DefaultCurrency
		}
		return Money{Amount: amount, Currency: currency}, true
	case EntityNumber:
		amount, ok := numericValue(info.Value, e.Value)
		if !ok {
			logging.ParsingDebug("number without numeric value")
			return Money{}, false
		}
		return Money{Amount: amount, Currency: DefaultCurrency}, true
	default:
		return Money{}, false
	}
}

// numericValue returns the first candidate that is a finite number.
func numericValue(candidates ...any) (float64, bool) {
	for _, c := range candidates {
		if f, ok := types.AsFloat(c); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
	}
	return 0, false
}
