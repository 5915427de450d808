package booking

import "github.com/iliyamo/cinema-ticket-booking/internal/model"

const (
	// ConvenienceFeePercent is charged on the base price of every booking.
	ConvenienceFeePercent = 5
	// TaxPercent is the tax applied to the base price.
	TaxPercent = 18
)

// ComputePrice prices seatCount tickets at ticketPrice (minor units).  Fee
// and tax are rounded half-up to the minor unit.
func ComputePrice(ticketPrice int64, seatCount int) (model.Pricing, error) {
	if seatCount <= 0 {
		return model.Pricing{}, validationError("seat count must be positive")
	}
	if ticketPrice < 0 {
		return model.Pricing{}, validationError("ticket price cannot be negative")
	}
	base := ticketPrice * int64(seatCount)
	fee := percentOf(base, ConvenienceFeePercent)
	tax := percentOf(base, TaxPercent)
	return model.Pricing{
		BasePrice:      base,
		ConvenienceFee: fee,
		Tax:            tax,
		Total:          base + fee + tax,
	}, nil
}

func percentOf(amount, pct int64) int64 {
	return (amount*pct + 50) / 100
}
