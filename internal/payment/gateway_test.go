package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
)

func TestInitiateOrder(t *testing.T) {
	g := NewGateway(Config{KeyID: "key_test", KeySecret: "s3cret"})

	a, err := g.InitiateOrder(context.Background(), "b1", 738)
	require.NoError(t, err)
	b, err := g.InitiateOrder(context.Background(), "b1", 738)
	require.NoError(t, err)

	assert.Regexp(t, `^order_[0-9a-f]{14}$`, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "INR", g.Currency())
}

func TestVerify(t *testing.T) {
	g := NewGateway(Config{KeySecret: "s3cret"})
	ctx := context.Background()
	good := Sign("s3cret", "order_abc", "pay_1")

	tests := []struct {
		name  string
		order string
		proof booking.PaymentProof
		want  bool
	}{
		{"valid", "order_abc", booking.PaymentProof{PaymentID: "pay_1", Signature: good}, true},
		{"wrong payment", "order_abc", booking.PaymentProof{PaymentID: "pay_2", Signature: good}, false},
		{"wrong order", "order_xyz", booking.PaymentProof{PaymentID: "pay_1", Signature: good}, false},
		{"missing signature", "order_abc", booking.PaymentProof{PaymentID: "pay_1"}, false},
		{"forged", "order_abc", booking.PaymentProof{PaymentID: "pay_1", Signature: Sign("other", "order_abc", "pay_1")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := g.Verify(ctx, tt.order, tt.proof)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Verified)
			assert.Equal(t, tt.proof.PaymentID, v.PaymentID)
		})
	}
}

func TestVerifyWithoutSecretAlwaysFails(t *testing.T) {
	g := NewGateway(Config{})

	v, err := g.Verify(context.Background(), "order_abc", booking.PaymentProof{PaymentID: "pay_1", Signature: Sign("", "order_abc", "pay_1")})
	require.NoError(t, err)
	assert.False(t, v.Verified)
}
