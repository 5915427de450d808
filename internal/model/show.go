package model

import "time"

const (
	// DefaultTotalSeats is the capacity used when a show is scheduled without one (10 rows of 12).
	DefaultTotalSeats = 120
	// DefaultSeatsPerRow is the row width used when a show does not carry one.
	DefaultSeatsPerRow = 12
	// MaxRows bounds a layout to single-letter row labels A..Z.
	MaxRows = 26
)

// Show formats accepted by the scheduler.
const (
	Format2D   = "2D"
	Format3D   = "3D"
	FormatIMAX = "IMAX"
	Format4DX  = "4DX"
)

// Show is one scheduled screening with a fixed seat inventory.  The seat
// layout is derived from TotalSeats and SeatsPerRow: rows are lettered from
// A and every row holds SeatsPerRow seats except the last, which holds the
// remainder when TotalSeats is not an exact multiple.
//
// Fields:
//
//	ID          – primary key identifier.
//	MovieID     – catalog movie being screened.
//	MovieTitle  – denormalized title used by listings and reports.
//	Theater     – theater (screen) name; one show per theater and start time.
//	Location    – free-form theater location.
//	Format      – 2D, 3D, IMAX or 4DX.
//	PriceCents  – ticket price in minor units.
//	TotalSeats  – capacity of the show.
//	SeatsPerRow – width of a full row.
//	StartsAt    – when the show begins; holds and cancellations stop here.
//	IsActive    – false hides the show from listings without deleting it.
//	SeatVersion – bumped on every committed seat map change.
type Show struct {
	ID          uint64    `json:"id"`            // shows.id
	MovieID     uint64    `json:"movie_id"`      // shows.movie_id
	MovieTitle  string    `json:"movie_title"`   // shows.movie_title
	Theater     string    `json:"theater"`       // shows.theater
	Location    string    `json:"location"`      // shows.location
	Format      string    `json:"format"`        // shows.format
	PriceCents  int64     `json:"price_cents"`   // shows.price_cents
	TotalSeats  int       `json:"total_seats"`   // shows.total_seats
	SeatsPerRow int       `json:"seats_per_row"` // shows.seats_per_row
	StartsAt    time.Time `json:"starts_at"`     // shows.starts_at
	IsActive    bool      `json:"is_active"`     // shows.is_active
	SeatVersion uint64    `json:"seat_version"`  // shows.seat_version
	CreatedAt   time.Time `json:"created_at"`    // shows.created_at
	UpdatedAt   time.Time `json:"updated_at"`    // shows.updated_at
}

// Row describes one row of a show's layout.
type Row struct {
	Label string `json:"label"`
	Seats int    `json:"seats"`
}

func (s Show) rowWidth() int {
	if s.SeatsPerRow <= 0 {
		return DefaultSeatsPerRow
	}
	return s.SeatsPerRow
}

// RowCount returns the number of rows needed to lay out TotalSeats.
func (s Show) RowCount() int {
	if s.TotalSeats <= 0 {
		return 0
	}
	w := s.rowWidth()
	return (s.TotalSeats + w - 1) / w
}

// SeatsInRow returns how many seats the row labelled label holds, or 0 when
// the label is not part of the layout.
func (s Show) SeatsInRow(label string) int {
	if len(label) != 1 || label[0] < 'A' || label[0] > 'Z' {
		return 0
	}
	idx := int(label[0] - 'A')
	rows := s.RowCount()
	if idx >= rows {
		return 0
	}
	w := s.rowWidth()
	if idx == rows-1 {
		return s.TotalSeats - (rows-1)*w
	}
	return w
}

// ValidSeat reports whether seat exists in the show's layout.
func (s Show) ValidSeat(seat Seat) bool {
	n := s.SeatsInRow(seat.Row)
	return seat.Number >= 1 && seat.Number <= n
}

// Layout lists the rows in order.
func (s Show) Layout() []Row {
	rows := s.RowCount()
	out := make([]Row, 0, rows)
	for i := 0; i < rows; i++ {
		label := string(rune('A' + i))
		out = append(out, Row{Label: label, Seats: s.SeatsInRow(label)})
	}
	return out
}

// Started reports whether the show has begun at now.
func (s Show) Started(now time.Time) bool {
	return !now.Before(s.StartsAt)
}
