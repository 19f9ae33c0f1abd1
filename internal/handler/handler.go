// Package handler содержит HTTP-обработчики API краудфандинговой платформы.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/crowdfund/internal/middleware"
	"github.com/mmeshcher/crowdfund/internal/model"
	"github.com/mmeshcher/crowdfund/internal/payment"
	"github.com/mmeshcher/crowdfund/internal/repository"
	"github.com/mmeshcher/crowdfund/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, name, email, password string) (*model.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)

	ListCampaigns(ctx context.Context, f repository.CampaignFilter) ([]model.Campaign, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (*model.Campaign, error)
	CreateCampaign(ctx context.Context, userID uuid.UUID, in service.CampaignInput) (*model.Campaign, error)
	UpdateCampaign(ctx context.Context, userID, campaignID uuid.UUID, in service.CampaignUpdate) (*model.Campaign, error)
	DeleteCampaign(ctx context.Context, userID, campaignID uuid.UUID) error

	CreateOrder(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*payment.Order, error)
	VerifyAndRecord(ctx context.Context, userID uuid.UUID, req service.VerifyRequest) (uuid.UUID, error)
	ListDonationsForUser(ctx context.Context, userID uuid.UUID) ([]model.DonationView, error)

	AdminStats(ctx context.Context) (*model.AdminStats, error)
	ListUsers(ctx context.Context, keyword string) ([]model.User, error)
	ToggleUserBan(ctx context.Context, actorID, userID uuid.UUID) (bool, error)
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error
	ListAllCampaigns(ctx context.Context) ([]model.Campaign, error)
	ModerateCampaign(ctx context.Context, actorID, campaignID uuid.UUID, m repository.CampaignModeration) (*model.Campaign, error)
	AdminDeleteCampaign(ctx context.Context, actorID, campaignID uuid.UUID) error
	ListAllDonations(ctx context.Context) ([]model.DonationView, error)
}

// Handler реализует HTTP-обработчики API.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// errorStatus сопоставляет ошибку сервиса HTTP-статусу.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, payment.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrUserBanned):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, payment.ErrProvider):
		return http.StatusBadGateway
	case errors.Is(err, payment.ErrSecretNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError отвечает клиенту статусом, соответствующим ошибке.
// Серверные ошибки пишутся в журнал, клиент получает только текст статуса.
func (h *Handler) writeError(w http.ResponseWriter, err error, op string, fields ...zap.Field) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" error", append(fields, zap.Error(err))...)
		writeMessage(w, status, http.StatusText(status))
		return
	}
	writeMessage(w, status, err.Error())
}

func currentUser(r *http.Request) (uuid.UUID, bool) {
	return middleware.GetUserIDFromContext(r.Context())
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.service.RegisterUser(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeError(w, err, "register user")
		return
	}

	h.issueToken(w, u, http.StatusCreated)
}

// Login выполняет аутентификацию пользователя и выдаёт токен.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := h.service.AuthenticateUser(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		h.writeError(w, err, "login user")
		return
	}

	h.issueToken(w, u, http.StatusOK)
}

func (h *Handler) issueToken(w http.ResponseWriter, u *model.User, status int) {
	token, err := h.authMiddleware.IssueToken(u.ID, u.Role)
	if err != nil {
		h.writeError(w, err, "issue token", zap.String("user_id", u.ID.String()))
		return
	}

	h.authMiddleware.SetAuthCookie(w, token)
	writeJSON(w, status, authResponse{Token: token, User: u})
}

// Me возвращает профиль текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	u, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "get user", zap.String("user_id", userID.String()))
		return
	}

	writeJSON(w, http.StatusOK, u)
}
