package signal

import "sync"

// ChannelSeries is one renderable plot series: a channel name and its
// (relative-time, amplitude) pairs.
type ChannelSeries struct {
	Name   string       `json:"name"`
	Points [][2]float64 `json:"points"`
}

// SeriesAdapter converts sample windows into per-channel plot series.
//
// Relative times are measured against an anchor: the timestamp of the first
// sample observed since the last Reset. The anchor is deliberately NOT
// re-derived per window; while samples keep arriving the time axis keeps
// counting up even as the window scrolls. Reset only on a mode change
// (entering or leaving active monitoring).
type SeriesAdapter struct {
	mu       sync.Mutex
	anchor   float64
	anchored bool
}

func NewSeriesAdapter() *SeriesAdapter {
	return &SeriesAdapter{}
}

// Reset clears the anchor so the next window starts the time axis at zero.
func (a *SeriesAdapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.anchored = false
	a.anchor = 0
}

// Convert turns a sample window into one series per channel. An empty
// window returns ok=false ("no data") and leaves the anchor untouched.
// Amplitudes pass through unmodified.
func (a *SeriesAdapter) Convert(window []Sample) ([]ChannelSeries, bool) {
	if len(window) == 0 {
		return nil, false
	}

	a.mu.Lock()
	if !a.anchored {
		a.anchor = window[0].Timestamp
		a.anchored = true
	}
	anchor := a.anchor
	a.mu.Unlock()

	series := make([]ChannelSeries, len(ChannelNames))
	for i, name := range ChannelNames {
		points := make([][2]float64, len(window))
		for j, s := range window {
			points[j] = [2]float64{s.Timestamp - anchor, channelValue(s, i)}
		}
		series[i] = ChannelSeries{Name: name, Points: points}
	}
	return series, true
}
