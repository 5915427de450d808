// Package payment issues payment orders and checks the signatures the
// payment page hands back after a successful charge.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
)

// Config holds the merchant credentials.
type Config struct {
	KeyID     string
	KeySecret string
	Currency  string
}

// Gateway implements booking.PaymentProvider with locally issued order
// references and HMAC-SHA256 signatures over "orderRef|paymentID".
type Gateway struct {
	cfg Config
}

// NewGateway returns a gateway for cfg.  Without a key secret every
// verification fails.
func NewGateway(cfg Config) *Gateway {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.KeySecret == "" {
		logger.Get().Warn("PAYMENT_KEY_SECRET is not set; payments cannot be verified")
	}
	return &Gateway{cfg: cfg}
}

// KeyID is the public key the payment page is opened with.
func (g *Gateway) KeyID() string { return g.cfg.KeyID }

// Currency of every order.
func (g *Gateway) Currency() string { return g.cfg.Currency }

// InitiateOrder returns a new order reference such as order_9f1c2ab04e7d3c.
func (g *Gateway) InitiateOrder(ctx context.Context, bookingID string, amount int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
	logger.WithContext(ctx).Info("payment order created",
		"booking_id", bookingID, "order_ref", ref, "amount", amount, "currency", g.cfg.Currency)
	return ref, nil
}

// Verify checks proof.Signature against the expected signature of orderRef
// and proof.PaymentID.
func (g *Gateway) Verify(ctx context.Context, orderRef string, proof booking.PaymentProof) (booking.Verification, error) {
	if err := ctx.Err(); err != nil {
		return booking.Verification{}, err
	}
	if g.cfg.KeySecret == "" || orderRef == "" || proof.PaymentID == "" || proof.Signature == "" {
		return booking.Verification{PaymentID: proof.PaymentID}, nil
	}
	want := Sign(g.cfg.KeySecret, orderRef, proof.PaymentID)
	ok := hmac.Equal([]byte(want), []byte(strings.ToLower(proof.Signature)))
	return booking.Verification{Verified: ok, PaymentID: proof.PaymentID}, nil
}

// Sign returns the hex signature a genuine payment carries.
func Sign(secret, orderRef, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
