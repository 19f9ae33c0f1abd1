package handler

import (
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/crowdfund/internal/service"
)

type createOrderRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// verifyRequest повторяет имена полей, которые виджет провайдера передаёт клиенту.
type verifyRequest struct {
	OrderID    string          `json:"razorpay_order_id"`
	PaymentID  string          `json:"razorpay_payment_id"`
	Signature  string          `json:"razorpay_signature"`
	CampaignID string          `json:"campaignId"`
	Amount     decimal.Decimal `json:"amount"`
}

type verifyResponse struct {
	Message    string `json:"message"`
	DonationID string `json:"donationId"`
}

// CreateOrder открывает заказ у платёжного провайдера.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.CreateOrder(r.Context(), userID, req.Amount)
	if err != nil {
		h.writeError(w, err, "create order", zap.String("user_id", userID.String()))
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// VerifyPayment проверяет подпись платежа и записывает пожертвование.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	donationID, err := h.service.VerifyAndRecord(r.Context(), userID, service.VerifyRequest{
		OrderID:    req.OrderID,
		PaymentID:  req.PaymentID,
		Signature:  req.Signature,
		CampaignID: req.CampaignID,
		Amount:     req.Amount,
	})
	if err != nil {
		h.writeError(w, err, "verify payment",
			zap.String("order_id", req.OrderID),
			zap.String("payment_id", req.PaymentID),
		)
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Message:    "Payment verified successfully",
		DonationID: donationID.String(),
	})
}

// MyDonations возвращает пожертвования текущего пользователя.
func (h *Handler) MyDonations(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	donations, err := h.service.ListDonationsForUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "list donations", zap.String("user_id", userID.String()))
		return
	}

	writeJSON(w, http.StatusOK, nonNil(donations))
}
