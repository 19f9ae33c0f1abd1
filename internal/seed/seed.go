// Package seed загружает тестовые данные из YAML в хранилище.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/mmeshcher/crowdfund/internal/model"
	"github.com/mmeshcher/crowdfund/internal/money"
	"github.com/mmeshcher/crowdfund/internal/repository"
	"github.com/mmeshcher/crowdfund/internal/validation"
)

// Store описывает операции хранилища, нужные загрузчику.
type Store interface {
	Reset(ctx context.Context) error
	CreateUser(ctx context.Context, u *model.User) error
	CreateCampaign(ctx context.Context, c *model.Campaign, goalMinor int64) error
	ModerateCampaign(ctx context.Context, id uuid.UUID, m repository.CampaignModeration) error
	SavePaymentOrder(ctx context.Context, o model.PaymentOrder) error
	ApplyDonation(ctx context.Context, e model.LedgerEntry) (model.LedgerResult, error)
}

// Fixtures отражает содержимое файла с тестовыми данными.
type Fixtures struct {
	Users     []User     `yaml:"users"`
	Campaigns []Campaign `yaml:"campaigns"`
	Donations []Donation `yaml:"donations"`
}

// User описывает пользователя. Пароль хранится в открытом виде и хешируется при загрузке.
type User struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	Banned   bool   `yaml:"banned"`
}

// Campaign описывает кампанию. Creator содержит email пользователя из раздела users.
type Campaign struct {
	Key             string    `yaml:"key"`
	Title           string    `yaml:"title"`
	Description     string    `yaml:"description"`
	Image           string    `yaml:"image"`
	Category        string    `yaml:"category"`
	Goal            string    `yaml:"goal"`
	Creator         string    `yaml:"creator"`
	Approved        bool      `yaml:"approved"`
	RejectionReason string    `yaml:"rejectionReason"`
	Deadline        time.Time `yaml:"deadline"`
}

// Donation описывает проведённый платёж. Campaign ссылается на ключ кампании, Donor на email.
type Donation struct {
	Donor     string    `yaml:"donor"`
	Campaign  string    `yaml:"campaign"`
	Amount    string    `yaml:"amount"`
	OrderID   string    `yaml:"orderId"`
	PaymentID string    `yaml:"paymentId"`
	CreatedAt time.Time `yaml:"createdAt"`
}

// Summary содержит количество загруженных записей.
type Summary struct {
	Users     int
	Campaigns int
	Donations int
	Replayed  int
}

// Options управляет загрузкой.
type Options struct {
	Reset      bool
	BcryptCost int
	Now        func() time.Time
}

// Decode читает фикстуры из YAML. Неизвестные поля считаются ошибкой.
func Decode(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fx Fixtures
	if err := dec.Decode(&fx); err != nil {
		if errors.Is(err, io.EOF) {
			return &fx, nil
		}
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &fx, nil
}

// Apply записывает фикстуры в хранилище: пользователей, затем кампании, затем пожертвования.
// Пожертвования проводятся через ApplyDonation, поэтому собранные суммы кампаний согласованы с журналом.
func Apply(ctx context.Context, store Store, fx *Fixtures, opts Options) (Summary, error) {
	var sum Summary

	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.Reset {
		if err := store.Reset(ctx); err != nil {
			return sum, err
		}
	}

	users := make(map[string]uuid.UUID, len(fx.Users))
	for _, fu := range fx.Users {
		u, err := buildUser(fu, opts.BcryptCost)
		if err != nil {
			return sum, err
		}
		if err := store.CreateUser(ctx, u); err != nil {
			return sum, fmt.Errorf("user %s: %w", fu.Email, err)
		}
		users[strings.ToLower(u.Email)] = u.ID
		sum.Users++
	}

	campaigns := make(map[string]uuid.UUID, len(fx.Campaigns))
	for _, fc := range fx.Campaigns {
		id, err := applyCampaign(ctx, store, fc, users)
		if err != nil {
			return sum, err
		}
		key := fc.Key
		if key == "" {
			key = fc.Title
		}
		campaigns[key] = id
		sum.Campaigns++
	}

	for i, fd := range fx.Donations {
		entry, err := buildEntry(fd, users, campaigns, opts.Now)
		if err != nil {
			return sum, fmt.Errorf("donation #%d: %w", i+1, err)
		}
		err = store.SavePaymentOrder(ctx, model.PaymentOrder{
			ID:          entry.OrderID,
			UserID:      entry.DonorID,
			AmountMinor: entry.AmountMinor,
			Currency:    money.Currency,
			CreatedAt:   entry.CreatedAt,
		})
		if err != nil {
			return sum, fmt.Errorf("donation #%d: save order: %w", i+1, err)
		}
		res, err := store.ApplyDonation(ctx, entry)
		if err != nil {
			return sum, fmt.Errorf("donation #%d: %w", i+1, err)
		}
		if res.Applied {
			sum.Donations++
		} else {
			sum.Replayed++
		}
	}

	return sum, nil
}

func buildUser(fu User, cost int) (*model.User, error) {
	if strings.TrimSpace(fu.Name) == "" {
		return nil, fmt.Errorf("%w: user name is required", validation.ErrInvalid)
	}
	if err := validation.Email(fu.Email); err != nil {
		return nil, err
	}

	role := model.Role(fu.Role)
	switch role {
	case "":
		role = model.RoleUser
	case model.RoleUser, model.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q for %s", validation.ErrInvalid, fu.Role, fu.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(fu.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password for %s: %w", fu.Email, err)
	}

	return &model.User{
		Name:         strings.TrimSpace(fu.Name),
		Email:        strings.TrimSpace(fu.Email),
		PasswordHash: hash,
		Role:         role,
		IsBanned:     fu.Banned,
	}, nil
}

func applyCampaign(ctx context.Context, store Store, fc Campaign, users map[string]uuid.UUID) (uuid.UUID, error) {
	creatorID, ok := users[strings.ToLower(fc.Creator)]
	if !ok {
		return uuid.Nil, fmt.Errorf("campaign %q: unknown creator %q", fc.Title, fc.Creator)
	}
	if err := validation.Title(fc.Title); err != nil {
		return uuid.Nil, fmt.Errorf("campaign %q: %w", fc.Title, err)
	}

	category := fc.Category
	if category == "" {
		category = model.CategoryOther
	}
	if err := validation.Category(category); err != nil {
		return uuid.Nil, fmt.Errorf("campaign %q: %w", fc.Title, err)
	}

	goal, err := decimal.NewFromString(fc.Goal)
	if err != nil {
		return uuid.Nil, fmt.Errorf("campaign %q: %w: goal %q", fc.Title, validation.ErrInvalid, fc.Goal)
	}
	goalMinor, err := validation.Amount("goal", goal)
	if err != nil {
		return uuid.Nil, fmt.Errorf("campaign %q: %w", fc.Title, err)
	}

	image := fc.Image
	if image == "" {
		image = model.DefaultCampaignImage
	}

	c := &model.Campaign{
		Title:       strings.TrimSpace(fc.Title),
		Description: fc.Description,
		Image:       image,
		Category:    category,
		CreatorID:   creatorID,
		Status:      model.CampaignStatusActive,
		Deadline:    fc.Deadline,
	}
	if err := store.CreateCampaign(ctx, c, goalMinor); err != nil {
		return uuid.Nil, fmt.Errorf("campaign %q: %w", fc.Title, err)
	}

	if fc.Approved || fc.RejectionReason != "" {
		m := repository.CampaignModeration{IsApproved: &fc.Approved}
		if fc.RejectionReason != "" {
			m.RejectionReason = &fc.RejectionReason
		}
		if err := store.ModerateCampaign(ctx, c.ID, m); err != nil {
			return uuid.Nil, fmt.Errorf("moderate campaign %q: %w", fc.Title, err)
		}
	}

	return c.ID, nil
}

func buildEntry(fd Donation, users, campaigns map[string]uuid.UUID, now func() time.Time) (model.LedgerEntry, error) {
	donorID, ok := users[strings.ToLower(fd.Donor)]
	if !ok {
		return model.LedgerEntry{}, fmt.Errorf("unknown donor %q", fd.Donor)
	}
	campaignID, ok := campaigns[fd.Campaign]
	if !ok {
		return model.LedgerEntry{}, fmt.Errorf("unknown campaign %q", fd.Campaign)
	}

	amount, err := decimal.NewFromString(fd.Amount)
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("%w: amount %q", validation.ErrInvalid, fd.Amount)
	}
	amountMinor, err := validation.Amount("amount", amount)
	if err != nil {
		return model.LedgerEntry{}, err
	}

	paymentID := fd.PaymentID
	if paymentID == "" {
		paymentID = "pay_seed_" + uuid.NewString()
	}
	orderID := fd.OrderID
	if orderID == "" {
		orderID = "order_" + paymentID
	}
	createdAt := fd.CreatedAt
	if createdAt.IsZero() {
		createdAt = now()
	}

	return model.LedgerEntry{
		DonorID:     donorID,
		CampaignID:  campaignID,
		AmountMinor: amountMinor,
		OrderID:     orderID,
		PaymentID:   paymentID,
		CreatedAt:   createdAt,
	}, nil
}
