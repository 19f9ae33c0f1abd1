package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"go.uber.org/zap"
)

var (
	// ErrInvalidSignature возвращается, если подпись платежа не совпала с ожидаемой.
	ErrInvalidSignature = errors.New("invalid payment signature")
	// ErrSecretNotConfigured возвращается, если секрет провайдера не задан и режим песочницы выключен.
	ErrSecretNotConfigured = errors.New("payment secret is not configured")
)

// Verifier проверяет подлинность уведомления о платеже.
type Verifier struct {
	secret  []byte
	sandbox bool
	logger  *zap.Logger
}

// NewVerifier создаёт проверяющего с общим секретом провайдера.
// При пустом секрете подписи принимаются только в явно включённом режиме песочницы.
func NewVerifier(secret string, sandbox bool, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		secret:  []byte(secret),
		sandbox: sandbox,
		logger:  logger,
	}
}

// Sign вычисляет hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify сравнивает присланную подпись с ожидаемой за постоянное время.
func (v *Verifier) Verify(orderID, paymentID, signature string) error {
	if orderID == "" || paymentID == "" || signature == "" {
		return ErrInvalidSignature
	}

	if len(v.secret) == 0 {
		if !v.sandbox {
			return ErrSecretNotConfigured
		}
		v.logger.Warn("payment signature accepted without verification",
			zap.Bool("sandbox", true),
			zap.String("order_id", orderID),
			zap.String("payment_id", paymentID),
		)
		return nil
	}

	expected := Sign(string(v.secret), orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}

	return nil
}

// Sandbox сообщает, включён ли режим песочницы без проверки подписи.
func (v *Verifier) Sandbox() bool {
	return len(v.secret) == 0 && v.sandbox
}
