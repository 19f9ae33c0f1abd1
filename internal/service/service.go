// Package service реализует бизнес-логику краудфандинговой платформы.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/crowdfund/internal/model"
	"github.com/mmeshcher/crowdfund/internal/payment"
	"github.com/mmeshcher/crowdfund/internal/repository"
	"github.com/mmeshcher/crowdfund/internal/validation"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context, keyword string) ([]model.User, error)
	ToggleUserBan(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error

	ListCampaigns(ctx context.Context, f repository.CampaignFilter) ([]model.Campaign, error)
	ListAllCampaigns(ctx context.Context) ([]model.Campaign, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (*model.Campaign, error)
	CreateCampaign(ctx context.Context, c *model.Campaign, goalMinor int64) error
	UpdateCampaign(ctx context.Context, id uuid.UUID, p repository.CampaignPatch) error
	ModerateCampaign(ctx context.Context, id uuid.UUID, m repository.CampaignModeration) error
	DeleteCampaign(ctx context.Context, id uuid.UUID) error
	SweepCampaignStatuses(ctx context.Context, now time.Time) (int64, int64, error)

	SavePaymentOrder(ctx context.Context, o model.PaymentOrder) error
	ApplyDonation(ctx context.Context, e model.LedgerEntry) (model.LedgerResult, error)
	GetDonationsByDonor(ctx context.Context, donorID uuid.UUID) ([]model.DonationView, error)
	ListDonations(ctx context.Context, limit int) ([]model.DonationView, error)

	GetCounts(ctx context.Context) (*repository.Counts, error)
	GetMonthlyDonations(ctx context.Context, since time.Time) ([]model.MonthlyAmount, error)
}

// OrderCreator открывает заказы у платёжного провайдера.
type OrderCreator interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency string) (*payment.Order, error)
}

// SignatureVerifier проверяет подпись уведомления о платеже.
type SignatureVerifier interface {
	Verify(orderID, paymentID, signature string) error
}

// Service содержит бизнес-логику платформы.
type Service struct {
	repo       Repository
	orders     OrderCreator
	verifier   SignatureVerifier
	logger     *zap.Logger
	now        func() time.Time
	bcryptCost int
}

// NewService создаёт сервис с репозиторием, клиентом провайдера и проверкой подписи.
func NewService(repo Repository, orders OrderCreator, verifier SignatureVerifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:       repo,
		orders:     orders,
		verifier:   verifier,
		logger:     logger,
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// MinPasswordLength ограничивает длину пароля снизу.
const MinPasswordLength = 6

// RegisterUser регистрирует нового пользователя с ролью user.
func (s *Service) RegisterUser(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := validation.Email(email); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, storeError(err)
	}
	return u, nil
}

// AuthenticateUser проверяет email и пароль пользователя.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeError(err)
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if u.IsBanned {
		return nil, ErrUserBanned
	}

	return u, nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return u, nil
}

// activeUser загружает пользователя и отказывает заблокированным.
func (s *Service) activeUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsBanned {
		return nil, ErrUserBanned
	}
	return u, nil
}
