// Package validation содержит функции валидации входных данных.
package validation

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/crowdfund/internal/model"
	"github.com/mmeshcher/crowdfund/internal/money"
)

// ErrInvalid служит общим признаком ошибки валидации входных данных.
var ErrInvalid = errors.New("validation failed")

// MaxTitleLength ограничивает длину названия кампании в символах.
const MaxTitleLength = 100

// Title проверяет название кампании.
func Title(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("%w: title cannot be more than %d characters", ErrInvalid, MaxTitleLength)
	}
	return nil
}

// Category проверяет, что категория входит в список допустимых.
func Category(category string) error {
	if !slices.Contains(model.Categories, category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvalid, category)
	}
	return nil
}

// Amount проверяет денежную сумму и возвращает её в минимальных единицах.
func Amount(field string, amount decimal.Decimal) (int64, error) {
	minor, err := money.ToMinor(amount)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalid, field, err)
	}
	return minor, nil
}

// Deadline проверяет, что срок окончания задан и ещё не наступил.
func Deadline(deadline, now time.Time) error {
	if deadline.IsZero() {
		return fmt.Errorf("%w: deadline is required", ErrInvalid)
	}
	if !deadline.After(now) {
		return fmt.Errorf("%w: deadline must be in the future", ErrInvalid)
	}
	return nil
}

// Status проверяет статус кампании.
func Status(status model.CampaignStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, status)
	}
	return nil
}

// Email выполняет упрощённую проверку адреса электронной почты.
func Email(email string) error {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return fmt.Errorf("%w: invalid email %q", ErrInvalid, email)
	}
	return nil
}
