// Package model содержит доменные сущности краудфандинговой платформы.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role описывает роль пользователя.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User представляет зарегистрированного пользователя платформы.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Role         Role      `json:"role"`
	IsBanned     bool      `json:"isBanned"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin сообщает, обладает ли пользователь правами администратора.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CampaignStatus описывает стадию жизненного цикла кампании.
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusExpired   CampaignStatus = "expired"
)

// Valid сообщает, является ли статус одним из допустимых значений.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusActive, CampaignStatusCompleted, CampaignStatusExpired:
		return true
	}
	return false
}

// Допустимые категории кампаний.
const (
	CategoryMedical     = "Medical"
	CategoryEducation   = "Education"
	CategoryEnvironment = "Environment"
	CategoryTechnology  = "Technology"
	CategoryCommunity   = "Community"
	CategoryOther       = "Other"
)

// Categories перечисляет все категории в порядке отображения.
var Categories = []string{
	CategoryMedical,
	CategoryEducation,
	CategoryEnvironment,
	CategoryTechnology,
	CategoryCommunity,
	CategoryOther,
}

// DefaultCampaignImage подставляется, если создатель не указал изображение.
const DefaultCampaignImage = "https://via.placeholder.com/600x400"

// Campaign описывает сбор средств с целевой суммой и сроком окончания.
type Campaign struct {
	ID              uuid.UUID       `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	GoalAmount      decimal.Decimal `json:"goalAmount"`
	RaisedAmount    decimal.Decimal `json:"raisedAmount"`
	Image           string          `json:"image"`
	Category        string          `json:"category"`
	CreatorID       uuid.UUID       `json:"creatorId"`
	Creator         *UserRef        `json:"creator,omitempty"`
	IsApproved      bool            `json:"isApproved"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	Status          CampaignStatus  `json:"status"`
	Deadline        time.Time       `json:"deadline"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// UserRef содержит краткое представление пользователя для вложения в ответы.
type UserRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// CampaignRef содержит краткое представление кампании для вложения в ответы.
type CampaignRef struct {
	ID     uuid.UUID      `json:"id"`
	Title  string         `json:"title"`
	Image  string         `json:"image,omitempty"`
	Status CampaignStatus `json:"status,omitempty"`
}

// DonationStatus описывает статус пожертвования.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusCompleted DonationStatus = "completed"
	DonationStatusFailed    DonationStatus = "failed"
)

// Donation хранит неизменяемую запись об одном подтверждённом платеже в пользу кампании.
type Donation struct {
	ID         uuid.UUID       `json:"id"`
	DonorID    uuid.UUID       `json:"donorId"`
	CampaignID uuid.UUID       `json:"campaignId"`
	Amount     decimal.Decimal `json:"amount"`
	OrderID    string          `json:"orderId"`
	PaymentID  string          `json:"paymentId"`
	Status     DonationStatus  `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// DonationView дополняет пожертвование с данными донора и кампании.
type DonationView struct {
	Donation
	Donor        *UserRef     `json:"donor,omitempty"`
	Campaign     *CampaignRef `json:"campaign,omitempty"`
	IsSuspicious bool         `json:"isSuspicious,omitempty"`
}

// PaymentOrder хранит заказ, открытый у провайдера для конкретного пользователя.
// Проведение пожертвования сверяет с ним сумму и донора.
type PaymentOrder struct {
	ID          string    `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	AmountMinor int64     `json:"amount"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LedgerEntry описывает пожертвование, которое нужно провести по кампании.
type LedgerEntry struct {
	DonorID     uuid.UUID
	CampaignID  uuid.UUID
	AmountMinor int64
	OrderID     string
	PaymentID   string
	CreatedAt   time.Time
}

// LedgerResult описывает итог проведения пожертвования.
// Applied=false означает, что платёж уже был учтён ранее.
type LedgerResult struct {
	DonationID uuid.UUID
	Applied    bool
}

// MonthlyAmount хранит сумму пожертвований за календарный месяц.
type MonthlyAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// AdminStats содержит сводку для панели администратора.
type AdminStats struct {
	TotalUsers         int64           `json:"totalUsers"`
	TotalCampaigns     int64           `json:"totalCampaigns"`
	ActiveCampaigns    int64           `json:"activeCampaigns"`
	CompletedCampaigns int64           `json:"completedCampaigns"`
	TotalDonations     int64           `json:"totalDonations"`
	TotalFunds         decimal.Decimal `json:"totalFunds"`
	ChartData          []MonthlyAmount `json:"chartData"`
	RecentTransactions []DonationView  `json:"recentTransactions"`
}
