package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/crowdfund/internal/repository"
	"github.com/mmeshcher/crowdfund/internal/service"
)

// dateTime принимает как RFC 3339, так и дату без времени (2006-01-02).
type dateTime struct {
	time.Time
}

func (d *dateTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

func pathID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

type campaignRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	GoalAmount  decimal.Decimal `json:"goalAmount"`
	Deadline    dateTime        `json:"deadline"`
}

type campaignUpdateRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Image       *string          `json:"image"`
	Category    *string          `json:"category"`
	GoalAmount  *decimal.Decimal `json:"goalAmount"`
	Deadline    *dateTime        `json:"deadline"`
}

// ListCampaigns возвращает публичный список кампаний с фильтрами category, search и sort.
func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	campaigns, err := h.service.ListCampaigns(r.Context(), repository.CampaignFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Sort:     q.Get("sort"),
	})
	if err != nil {
		h.writeError(w, err, "list campaigns")
		return
	}

	writeJSON(w, http.StatusOK, nonNil(campaigns))
}

// GetCampaign возвращает кампанию по идентификатору.
func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	c, err := h.service.GetCampaign(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get campaign", zap.String("campaign_id", id.String()))
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// CreateCampaign создаёт кампанию от имени текущего пользователя.
func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req campaignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.service.CreateCampaign(r.Context(), userID, service.CampaignInput{
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		Category:    req.Category,
		GoalAmount:  req.GoalAmount,
		Deadline:    req.Deadline.Time,
	})
	if err != nil {
		h.writeError(w, err, "create campaign", zap.String("user_id", userID.String()))
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// UpdateCampaign изменяет кампанию владельцем или администратором.
func (h *Handler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	var req campaignUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := service.CampaignUpdate{
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		Category:    req.Category,
		GoalAmount:  req.GoalAmount,
	}
	if req.Deadline != nil && !req.Deadline.IsZero() {
		in.Deadline = &req.Deadline.Time
	}

	c, err := h.service.UpdateCampaign(r.Context(), userID, id, in)
	if err != nil {
		h.writeError(w, err, "update campaign", zap.String("campaign_id", id.String()))
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// DeleteCampaign удаляет кампанию владельцем или администратором.
func (h *Handler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	if err := h.service.DeleteCampaign(r.Context(), userID, id); err != nil {
		h.writeError(w, err, "delete campaign", zap.String("campaign_id", id.String()))
		return
	}

	writeMessage(w, http.StatusOK, "Campaign removed")
}

// nonNil заменяет nil-срез пустым, чтобы в ответе был [] вместо null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
