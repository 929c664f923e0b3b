package model

import (
	"math"
	"time"
)

// PricePoint represents a single OHLCV bar. Missing values are carried as NaN
// until the fetch layer forward-fills them.
type PricePoint struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is an ordered sequence of bars for one symbol, ascending by
// timestamp with no duplicate timestamps.
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// Len returns the number of bars in the series.
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Clone returns an independent copy of the series. The fetch cache hands out
// clones so callers can never mutate cached data through aliasing.
func (s PriceSeries) Clone() PriceSeries {
	points := make([]PricePoint, len(s.Points))
	copy(points, s.Points)
	return PriceSeries{Symbol: s.Symbol, Points: points}
}

// Closes returns the close column of the series.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// Window returns the sub-series whose timestamps fall within [start, end],
// inclusive on both ends.
func (s PriceSeries) Window(start, end time.Time) PriceSeries {
	var points []PricePoint
	for _, p := range s.Points {
		if p.Time.Before(start) || p.Time.After(end) {
			continue
		}
		points = append(points, p)
	}
	return PriceSeries{Symbol: s.Symbol, Points: points}
}

// allNaN reports whether every value of a bar is missing.
func (p PricePoint) allNaN() bool {
	return math.IsNaN(p.Open) && math.IsNaN(p.High) && math.IsNaN(p.Low) &&
		math.IsNaN(p.Close) && math.IsNaN(p.Volume)
}

// anyNaN reports whether any value of a bar is missing.
func (p PricePoint) anyNaN() bool {
	return math.IsNaN(p.Open) || math.IsNaN(p.High) || math.IsNaN(p.Low) ||
		math.IsNaN(p.Close) || math.IsNaN(p.Volume)
}

// ForwardFill drops bars where every field is missing and fills remaining
// interior gaps with the previous bar's value. Leading bars that still carry
// a missing field after filling are dropped: there is nothing to fill them
// from, and NaN cannot survive into a series handed to consumers (it is not
// representable in JSON). Every bar of the result is fully populated.
func (s PriceSeries) ForwardFill() PriceSeries {
	points := make([]PricePoint, 0, len(s.Points))
	for _, p := range s.Points {
		if p.allNaN() {
			continue
		}
		points = append(points, p)
	}

	for i := 1; i < len(points); i++ {
		prev := points[i-1]
		if math.IsNaN(points[i].Open) {
			points[i].Open = prev.Open
		}
		if math.IsNaN(points[i].High) {
			points[i].High = prev.High
		}
		if math.IsNaN(points[i].Low) {
			points[i].Low = prev.Low
		}
		if math.IsNaN(points[i].Close) {
			points[i].Close = prev.Close
		}
		if math.IsNaN(points[i].Volume) {
			points[i].Volume = prev.Volume
		}
	}

	// Once a bar is complete, every later bar is complete by construction, so
	// trimming the incomplete prefix leaves no NaN anywhere.
	start := 0
	for start < len(points) && points[start].anyNaN() {
		start++
	}
	points = points[start:]

	return PriceSeries{Symbol: s.Symbol, Points: points}
}
