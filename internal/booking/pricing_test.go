package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

func TestComputePrice(t *testing.T) {
	tests := []struct {
		name  string
		price int64
		count int
		want  model.Pricing
	}{
		{"three seats at 200", 200, 3, model.Pricing{BasePrice: 600, ConvenienceFee: 30, Tax: 108, Total: 738}},
		{"minor units", 20000, 3, model.Pricing{BasePrice: 60000, ConvenienceFee: 3000, Tax: 10800, Total: 73800}},
		{"rounds half up", 150, 1, model.Pricing{BasePrice: 150, ConvenienceFee: 8, Tax: 27, Total: 185}},
		{"free show", 0, 2, model.Pricing{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputePrice(tt.price, tt.count)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputePriceRejectsBadInput(t *testing.T) {
	_, err := ComputePrice(200, 0)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = ComputePrice(-1, 2)
	assert.Equal(t, KindValidation, KindOf(err))
}
