package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/crowdfund/internal/model"
	"github.com/mmeshcher/crowdfund/internal/repository"
)

// Stats возвращает сводку для панели администратора.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.AdminStats(r.Context())
	if err != nil {
		h.writeError(w, err, "admin stats")
		return
	}

	stats.ChartData = nonNil(stats.ChartData)
	stats.RecentTransactions = nonNil(stats.RecentTransactions)
	writeJSON(w, http.StatusOK, stats)
}

// ListUsers ищет пользователей по параметру keyword.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context(), r.URL.Query().Get("keyword"))
	if err != nil {
		h.writeError(w, err, "list users")
		return
	}

	writeJSON(w, http.StatusOK, nonNil(users))
}

type banResponse struct {
	Message  string `json:"message"`
	IsBanned bool   `json:"isBanned"`
}

// ToggleBan блокирует или разблокирует пользователя.
func (h *Handler) ToggleBan(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid user id")
		return
	}

	banned, err := h.service.ToggleUserBan(r.Context(), actorID, id)
	if err != nil {
		h.writeError(w, err, "toggle ban", zap.String("user_id", id.String()))
		return
	}

	msg := "User unbanned"
	if banned {
		msg = "User banned"
	}
	writeJSON(w, http.StatusOK, banResponse{Message: msg, IsBanned: banned})
}

// DeleteUser удаляет пользователя.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.service.DeleteUser(r.Context(), actorID, id); err != nil {
		h.writeError(w, err, "delete user", zap.String("user_id", id.String()))
		return
	}

	writeMessage(w, http.StatusOK, "User removed")
}

// ListAllCampaigns возвращает все кампании, включая неодобренные.
func (h *Handler) ListAllCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.service.ListAllCampaigns(r.Context())
	if err != nil {
		h.writeError(w, err, "list all campaigns")
		return
	}

	writeJSON(w, http.StatusOK, nonNil(campaigns))
}

type moderationRequest struct {
	IsApproved      *bool                 `json:"isApproved"`
	Status          *model.CampaignStatus `json:"status"`
	RejectionReason *string               `json:"rejectionReason"`
}

// ModerateCampaign сохраняет решение администратора по кампании.
func (h *Handler) ModerateCampaign(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	var req moderationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.service.ModerateCampaign(r.Context(), actorID, id, repository.CampaignModeration{
		IsApproved:      req.IsApproved,
		Status:          req.Status,
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		h.writeError(w, err, "moderate campaign", zap.String("campaign_id", id.String()))
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// AdminDeleteCampaign удаляет кампанию без проверки владельца.
func (h *Handler) AdminDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	if err := h.service.AdminDeleteCampaign(r.Context(), actorID, id); err != nil {
		h.writeError(w, err, "admin delete campaign", zap.String("campaign_id", id.String()))
		return
	}

	writeMessage(w, http.StatusOK, "Campaign removed")
}

// ListAllDonations возвращает все пожертвования с отметкой подозрительных.
func (h *Handler) ListAllDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := h.service.ListAllDonations(r.Context())
	if err != nil {
		h.writeError(w, err, "list all donations")
		return
	}

	writeJSON(w, http.StatusOK, nonNil(donations))
}
