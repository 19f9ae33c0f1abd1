package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/crowdfund/internal/model"
	"github.com/mmeshcher/crowdfund/internal/money"
	"github.com/mmeshcher/crowdfund/internal/payment"
	"github.com/mmeshcher/crowdfund/internal/validation"
)

// VerifyRequest содержит данные, которые клиент присылает после оплаты в виджете провайдера.
type VerifyRequest struct {
	OrderID    string
	PaymentID  string
	Signature  string
	CampaignID string
	Amount     decimal.Decimal
}

// CreateOrder открывает заказ у провайдера на сумму в рупиях.
// Ошибки провайдера не повторяются: клиент должен начать оплату заново.
func (s *Service) CreateOrder(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*payment.Order, error) {
	if _, err := s.activeUser(ctx, userID); err != nil {
		return nil, err
	}

	amountMinor, err := validation.Amount("amount", amount)
	if err != nil {
		return nil, err
	}

	if s.orders == nil {
		return nil, fmt.Errorf("%w: client not configured", payment.ErrProvider)
	}

	order, err := s.orders.CreateOrder(ctx, amountMinor, money.Currency)
	if err != nil {
		s.logger.Warn("create payment order failed",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int64("amount_minor", amountMinor),
		)
		return nil, err
	}

	err = s.repo.SavePaymentOrder(ctx, model.PaymentOrder{
		ID:          order.ID,
		UserID:      userID,
		AmountMinor: order.Amount,
		Currency:    order.Currency,
		CreatedAt:   s.now(),
	})
	if err != nil {
		s.logger.Error("save payment order failed",
			zap.Error(err),
			zap.String("order_id", order.ID),
			zap.String("user_id", userID.String()),
		)
		return nil, storeError(err)
	}

	s.logger.Info("payment order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID.String()),
		zap.Int64("amount_minor", order.Amount),
	)
	return order, nil
}

// VerifyAndRecord проверяет подпись платежа и проводит пожертвование.
// Сумма должна совпадать с заказом, который пользователь открыл через CreateOrder.
// Повторный вызов с тем же платежом возвращает ту же запись без повторного зачисления.
func (s *Service) VerifyAndRecord(ctx context.Context, userID uuid.UUID, req VerifyRequest) (uuid.UUID, error) {
	campaignID, err := uuid.Parse(req.CampaignID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid campaignId %q", ErrValidation, req.CampaignID)
	}

	amountMinor, err := validation.Amount("amount", req.Amount)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.verifier.Verify(req.OrderID, req.PaymentID, req.Signature); err != nil {
		s.logger.Warn("payment signature rejected",
			zap.Error(err),
			zap.String("order_id", req.OrderID),
			zap.String("payment_id", req.PaymentID),
			zap.String("user_id", userID.String()),
		)
		return uuid.Nil, err
	}

	res, err := s.repo.ApplyDonation(ctx, model.LedgerEntry{
		DonorID:     userID,
		CampaignID:  campaignID,
		AmountMinor: amountMinor,
		OrderID:     req.OrderID,
		PaymentID:   req.PaymentID,
		CreatedAt:   s.now(),
	})
	if err != nil {
		s.logger.Error("record donation failed",
			zap.Error(err),
			zap.String("order_id", req.OrderID),
			zap.String("payment_id", req.PaymentID),
			zap.String("campaign_id", campaignID.String()),
		)
		return uuid.Nil, storeError(err)
	}

	if res.Applied {
		s.logger.Info("donation recorded",
			zap.String("donation_id", res.DonationID.String()),
			zap.String("payment_id", req.PaymentID),
			zap.String("campaign_id", campaignID.String()),
			zap.Int64("amount_minor", amountMinor),
		)
	} else {
		s.logger.Info("donation already recorded",
			zap.String("donation_id", res.DonationID.String()),
			zap.String("payment_id", req.PaymentID),
		)
	}

	return res.DonationID, nil
}

// ListDonationsForUser возвращает пожертвования пользователя, новые первыми.
func (s *Service) ListDonationsForUser(ctx context.Context, userID uuid.UUID) ([]model.DonationView, error) {
	donations, err := s.repo.GetDonationsByDonor(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	return donations, nil
}
