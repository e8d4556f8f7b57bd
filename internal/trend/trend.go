// Package trend classifies how a listing's recorded prices move over time.
package trend

import (
	"github.com/nordvik/finndeals/internal/store"
)

// Direction labels the overall movement of a price series.
type Direction string

const (
	Increasing   Direction = "increasing"
	Decreasing   Direction = "decreasing"
	Stable       Direction = "stable"
	Insufficient Direction = "insufficient_data"
)

// changeThresholdPct separates stable prices from moving ones.
const changeThresholdPct = 5.0

// Report describes the movement of a chronological price series.
type Report struct {
	Direction     Direction `json:"direction"`
	ChangePct     float64   `json:"change_percent"`
	AvgFirstHalf  float64   `json:"avg_first_half"`
	AvgSecondHalf float64   `json:"avg_second_half"`
	Min           float64   `json:"min"`
	Max           float64   `json:"max"`
	Current       float64   `json:"current"`
}

// Analyze splits a chronological price series in half and compares the
// halves' averages. A change beyond the 5% threshold counts as movement.
// Fewer than two points yields Insufficient rather than an error.
func Analyze(prices []float64) Report {
	if len(prices) < 2 {
		return Report{Direction: Insufficient}
	}

	half := len(prices) / 2
	avgFirst := mean(prices[:half])
	avgSecond := mean(prices[half:])

	var changePct float64
	if avgFirst > 0 {
		changePct = (avgSecond - avgFirst) / avgFirst * 100
	}

	direction := Stable
	switch {
	case changePct < -changeThresholdPct:
		direction = Decreasing
	case changePct > changeThresholdPct:
		direction = Increasing
	}

	lo, hi := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}

	return Report{
		Direction:     direction,
		ChangePct:     changePct,
		AvgFirstHalf:  avgFirst,
		AvgSecondHalf: avgSecond,
		Min:           lo,
		Max:           hi,
		Current:       prices[len(prices)-1],
	}
}

// FromHistory adapts store rows, which arrive newest first, into a
// chronological series. Rows without a stated price are skipped so that
// unpriced ads do not drag the averages to zero.
func FromHistory(entries []store.HistoryEntry) Report {
	prices := make([]float64, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Price > 0 {
			prices = append(prices, float64(entries[i].Price))
		}
	}
	return Analyze(prices)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
