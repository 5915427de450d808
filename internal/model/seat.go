package model

import (
	"fmt"
	"sort"
	"strings"
)

// Seat is a seat coordinate within a show: a row letter and a 1-based
// number inside that row.
type Seat struct {
	Row    string `json:"row"`
	Number int    `json:"number"`
}

// String renders the seat the way it is printed on a ticket, e.g. "A5".
func (s Seat) String() string {
	return fmt.Sprintf("%s%d", s.Row, s.Number)
}

// Less orders seats by row and then by number.
func (s Seat) Less(o Seat) bool {
	if s.Row != o.Row {
		return s.Row < o.Row
	}
	return s.Number < o.Number
}

// NormalizeSeats upper-cases row labels, drops duplicates and sorts the
// result.  The input slice is not modified.
func NormalizeSeats(seats []Seat) []Seat {
	seen := make(map[Seat]struct{}, len(seats))
	out := make([]Seat, 0, len(seats))
	for _, s := range seats {
		s.Row = strings.ToUpper(strings.TrimSpace(s.Row))
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// SeatLabels returns the ticket labels of seats in order.
func SeatLabels(seats []Seat) []string {
	out := make([]string, len(seats))
	for i, s := range seats {
		out[i] = s.String()
	}
	return out
}
