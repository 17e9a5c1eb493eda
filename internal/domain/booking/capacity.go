package booking

import "sort"

// Occupancy is the slice of a reservation the admission check needs.
type Occupancy struct {
	ID     string
	Guests int
}

// OccupiedSeats sums the guests of the given reservations.
func OccupiedSeats(occ []Occupancy) int {
	total := 0
	for _, o := range occ {
		total += o.Guests
	}
	return total
}

// Remaining is the exact, possibly negative, number of free seats.
func Remaining(totalSeats, occupied int) int {
	return totalSeats - occupied
}

// Displayed clamps a remainder for presentation.
func Displayed(remaining int) int {
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Admit decides a request against the exact occupancy. Requests that land
// exactly on capacity are admitted.
func Admit(totalSeats, occupied, requested int) error {
	if requested <= 0 {
		return InvalidArgument("guests", "guests must be a positive integer")
	}
	if occupied+requested > totalSeats {
		return CapacityExceeded(Remaining(totalSeats, occupied))
	}
	return nil
}

// PeakSeats is the largest number of seats the given reservations hold at
// any single instant.
func PeakSeats(windows []Interval, guests []int) int {
	type edge struct {
		at    int64
		delta int
	}
	edges := make([]edge, 0, 2*len(windows))
	for i, w := range windows {
		edges = append(edges, edge{w.Start.UnixNano(), guests[i]}, edge{w.End.UnixNano(), -guests[i]})
	}
	// releases sort before claims at the same instant, spans are half-open
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].at != edges[j].at {
			return edges[i].at < edges[j].at
		}
		return edges[i].delta < edges[j].delta
	})

	peak, cur := 0, 0
	for _, e := range edges {
		cur += e.delta
		if cur > peak {
			peak = cur
		}
	}
	return peak
}
