// Package money переводит суммы между основной единицей валюты и минимальными единицами платёжного провайдера.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency задаёт валюту всех платежей платформы.
const Currency = "INR"

// MinorUnitsPerMajor равно количеству пайс в рупии.
const MinorUnitsPerMajor = 100

var (
	// ErrNonPositive возвращается для нулевой или отрицательной суммы.
	ErrNonPositive = errors.New("amount must be positive")
	// ErrTooPrecise возвращается, если сумма не выражается целым числом минимальных единиц.
	ErrTooPrecise = errors.New("amount has more than two fractional digits")
	// ErrTooLarge возвращается для суммы больше MaxAmount.
	ErrTooLarge = errors.New("amount exceeds allowed maximum")
)

// MaxAmount ограничивает одну сумму (цель кампании или пожертвование).
var MaxAmount = decimal.NewFromInt(10_000_000)

var hundred = decimal.NewFromInt(MinorUnitsPerMajor)

// ToMinor переводит положительную сумму в основных единицах в минимальные единицы.
func ToMinor(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, ErrNonPositive
	}
	if amount.GreaterThan(MaxAmount) {
		return 0, fmt.Errorf("%w: %s", ErrTooLarge, amount.String())
	}

	minor := amount.Mul(hundred)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s", ErrTooPrecise, amount.String())
	}

	return minor.IntPart(), nil
}

// FromMinor переводит минимальные единицы в основные.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
