package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmeshcher/crowdfund/internal/repository"
	"github.com/mmeshcher/crowdfund/internal/validation"
)

var (
	// ErrValidation возвращается при некорректных входных данных.
	ErrValidation = validation.ErrInvalid
	// ErrInvalidCredentials возвращается при неверном email или пароле.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden возвращается, если у пользователя нет прав на операцию.
	ErrForbidden = errors.New("forbidden")
	// ErrUserBanned возвращается для заблокированного пользователя.
	ErrUserBanned = errors.New("user is banned")
	// ErrNotFound возвращается, если упомянутая кампания или пользователь не найдены.
	ErrNotFound = errors.New("not found")
	// ErrConflict возвращается, если операция противоречит уже сохранённым данным.
	ErrConflict = errors.New("conflict")
	// ErrPersistence возвращается при сбое чтения или записи в хранилище.
	ErrPersistence = errors.New("persistence failure")
)

// storeError переводит ошибки репозитория в ошибки сервиса.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrCampaignNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrPaymentOrderNotFound),
		errors.Is(err, repository.ErrPaymentOrderMismatch):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	case errors.Is(err, repository.ErrUserExists),
		errors.Is(err, repository.ErrUserReferenced),
		errors.Is(err, repository.ErrCampaignHasDonations),
		errors.Is(err, repository.ErrDonationConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
}
