package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/crowdfund/internal/model"
	"github.com/mmeshcher/crowdfund/internal/money"
)

// SuspiciousAmountMinor задаёт порог, начиная с которого пожертвование помечается для проверки (50 000 ₹).
const SuspiciousAmountMinor int64 = 50000 * money.MinorUnitsPerMajor

// ApplyDonation в одной транзакции записывает пожертвование и увеличивает собранную сумму кампании.
// Сумма и донор должны совпадать с заказом, сохранённым через SavePaymentOrder.
// Повтор того же платежа с теми же реквизитами возвращает существующую запись с Applied=false.
func (r *PostgresRepository) ApplyDonation(ctx context.Context, e model.LedgerEntry) (model.LedgerResult, error) {
	var res model.LedgerResult

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := checkPaymentOrder(ctx, tx, e); err != nil {
			return err
		}

		var donationID uuid.UUID
		err = tx.QueryRow(ctx,
			`INSERT INTO donations (id, donor_id, campaign_id, amount, order_id, payment_id, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (payment_id) DO NOTHING
			 RETURNING id`,
			uuid.New(), e.DonorID, e.CampaignID, e.AmountMinor, e.OrderID, e.PaymentID,
			string(model.DonationStatusCompleted), createdAt,
		).Scan(&donationID)

		switch {
		case errors.Is(err, pgx.ErrNoRows):
			existing, err := existingDonation(ctx, tx, e.PaymentID)
			if err != nil {
				return err
			}
			if existing.orderID != e.OrderID || existing.donorID != e.DonorID ||
				existing.campaignID != e.CampaignID || existing.amount != e.AmountMinor {
				return fmt.Errorf("%w: payment %s", ErrDonationConflict, e.PaymentID)
			}
			res = model.LedgerResult{DonationID: existing.id, Applied: false}
			return nil
		case err != nil:
			if code, constraint := pgErrorCode(err); code == pgerrcode.ForeignKeyViolation {
				if constraint == "donations_donor_id_fkey" {
					return ErrUserNotFound
				}
				return ErrCampaignNotFound
			}
			return fmt.Errorf("insert donation: %w", err)
		}

		tag, err := tx.Exec(ctx,
			`UPDATE campaigns SET raised_amount = raised_amount + $2 WHERE id = $1`,
			e.CampaignID, e.AmountMinor,
		)
		if err != nil {
			return fmt.Errorf("increment raised amount: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrCampaignNotFound
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		res = model.LedgerResult{DonationID: donationID, Applied: true}
		return nil
	})
	if err != nil {
		return model.LedgerResult{}, err
	}

	return res, nil
}

// SavePaymentOrder запоминает заказ, открытый у провайдера.
// Повторное сохранение заказа с тем же идентификатором ничего не меняет.
func (r *PostgresRepository) SavePaymentOrder(ctx context.Context, o model.PaymentOrder) error {
	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return r.withRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO payment_orders (order_id, user_id, amount, currency, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (order_id) DO NOTHING`,
			o.ID, o.UserID, o.AmountMinor, o.Currency, createdAt,
		)
		if err != nil {
			if code, _ := pgErrorCode(err); code == pgerrcode.ForeignKeyViolation {
				return ErrUserNotFound
			}
			return fmt.Errorf("insert payment order: %w", err)
		}
		return nil
	})
}

// checkPaymentOrder сверяет донора и сумму с заказом, открытым через CreateOrder.
func checkPaymentOrder(ctx context.Context, tx pgx.Tx, e model.LedgerEntry) error {
	var (
		userID uuid.UUID
		amount int64
	)
	err := tx.QueryRow(ctx,
		`SELECT user_id, amount FROM payment_orders WHERE order_id = $1`,
		e.OrderID,
	).Scan(&userID, &amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrPaymentOrderNotFound, e.OrderID)
	}
	if err != nil {
		return fmt.Errorf("select payment order: %w", err)
	}

	if userID != e.DonorID || amount != e.AmountMinor {
		return fmt.Errorf("%w: order %s", ErrPaymentOrderMismatch, e.OrderID)
	}
	return nil
}

type donationKey struct {
	id         uuid.UUID
	orderID    string
	donorID    uuid.UUID
	campaignID uuid.UUID
	amount     int64
}

func existingDonation(ctx context.Context, tx pgx.Tx, paymentID string) (donationKey, error) {
	var k donationKey
	err := tx.QueryRow(ctx,
		`SELECT id, order_id, donor_id, campaign_id, amount FROM donations WHERE payment_id = $1`,
		paymentID,
	).Scan(&k.id, &k.orderID, &k.donorID, &k.campaignID, &k.amount)
	if err != nil {
		return donationKey{}, fmt.Errorf("select existing donation: %w", err)
	}
	return k, nil
}

const donationViewSelect = `
	SELECT d.id, d.donor_id, d.campaign_id, d.amount, d.order_id, d.payment_id, d.status, d.created_at,
	       u.name, u.email, c.title, c.image, c.status
	FROM donations d
	JOIN users u ON u.id = d.donor_id
	JOIN campaigns c ON c.id = d.campaign_id`

func scanDonationView(row scanner) (*model.DonationView, error) {
	var (
		v                    model.DonationView
		amount               int64
		status               string
		donorName, donorMail string
		title, image         string
		campaignStatus       string
	)
	err := row.Scan(
		&v.ID, &v.DonorID, &v.CampaignID, &amount, &v.OrderID, &v.PaymentID, &status, &v.CreatedAt,
		&donorName, &donorMail, &title, &image, &campaignStatus,
	)
	if err != nil {
		return nil, err
	}

	v.Amount = money.FromMinor(amount)
	v.Status = model.DonationStatus(status)
	v.Donor = &model.UserRef{ID: v.DonorID, Name: donorName, Email: donorMail}
	v.Campaign = &model.CampaignRef{
		ID:     v.CampaignID,
		Title:  title,
		Image:  image,
		Status: model.CampaignStatus(campaignStatus),
	}
	v.IsSuspicious = amount > SuspiciousAmountMinor
	return &v, nil
}

func (r *PostgresRepository) queryDonations(ctx context.Context, sql string, args ...any) ([]model.DonationView, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select donations: %w", err)
	}
	defer rows.Close()

	var res []model.DonationView
	for rows.Next() {
		v, err := scanDonationView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		res = append(res, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetDonationsByDonor возвращает пожертвования пользователя, новые первыми.
func (r *PostgresRepository) GetDonationsByDonor(ctx context.Context, donorID uuid.UUID) ([]model.DonationView, error) {
	return r.queryDonations(ctx,
		donationViewSelect+`
		 WHERE d.donor_id = $1
		 ORDER BY d.created_at DESC`,
		donorID,
	)
}

// ListDonations возвращает последние limit пожертвований; при limit <= 0 возвращаются все.
func (r *PostgresRepository) ListDonations(ctx context.Context, limit int) ([]model.DonationView, error) {
	if limit <= 0 {
		return r.queryDonations(ctx, donationViewSelect+` ORDER BY d.created_at DESC`)
	}
	return r.queryDonations(ctx, donationViewSelect+` ORDER BY d.created_at DESC LIMIT $1`, limit)
}
