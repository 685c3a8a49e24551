// Package feed drives the live visualization surface: its own pollers for
// the sample window and the connection status, independent of the wizard's
// connect-stage polling.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/ericjkge/eeg-tutor/internal/backend"
	"github.com/ericjkge/eeg-tutor/internal/poll"
	"github.com/ericjkge/eeg-tutor/internal/signal"
	"go.uber.org/zap"
)

// API is the slice of the collaborator the monitor reads.
type API interface {
	Status(ctx context.Context) (backend.StatusReport, error)
	Window(ctx context.Context, seconds float64) ([]signal.Sample, error)
}

// Options sets the monitor cadence and window length.
type Options struct {
	DataInterval   time.Duration
	StatusInterval time.Duration
	WindowSeconds  float64
}

// View is a consistent snapshot for rendering.
type View struct {
	Active  bool                   `json:"active"`
	HasData bool                   `json:"has_data"`
	Status  signal.Status          `json:"status"`
	Report  backend.StatusReport   `json:"report"`
	Series  []signal.ChannelSeries `json:"series"`
}

// Monitor owns the live-view polling loops and the series adapter. The
// adapter's anchor is reset when monitoring starts (a mode change) and
// deliberately not on each fetch, so the time axis keeps counting up
// while the window scrolls.
type Monitor struct {
	log *zap.Logger
	api API
	opt Options

	adapter      *signal.SeriesAdapter
	dataPoller   *poll.Poller
	statusPoller *poll.Poller

	mu      sync.Mutex
	active  bool
	hasData bool
	series  []signal.ChannelSeries
	status  signal.Status
	report  backend.StatusReport
}

func NewMonitor(api API, opt Options, log *zap.Logger) *Monitor {
	return &Monitor{
		log:          log,
		api:          api,
		opt:          opt,
		adapter:      signal.NewSeriesAdapter(),
		dataPoller:   poll.New("feed-data", log),
		statusPoller: poll.New("feed-status", log),
		status:       signal.Classify(""),
	}
}

// Start enters active monitoring. Restarting replaces the previous loops.
func (m *Monitor) Start() {
	m.mu.Lock()
	m.active = true
	m.hasData = false
	m.series = nil
	m.mu.Unlock()

	m.adapter.Reset()

	m.dataPoller.Start(m.opt.DataInterval,
		func(ctx context.Context) (interface{}, error) {
			return m.api.Window(ctx, m.opt.WindowSeconds)
		},
		func(v interface{}, err error) {
			if err != nil {
				// The loop keeps going so the feed can recover; the status
				// poller carries the error classification to the display.
				m.log.Debug("Window fetch failed", zap.Error(err))
				return
			}
			series, ok := m.adapter.Convert(v.([]signal.Sample))
			m.mu.Lock()
			m.hasData = ok
			if ok {
				m.series = series
			}
			m.mu.Unlock()
		},
	)

	m.statusPoller.Start(m.opt.StatusInterval,
		func(ctx context.Context) (interface{}, error) {
			return m.api.Status(ctx)
		},
		func(v interface{}, err error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			if err != nil {
				m.report = backend.StatusReport{}
				m.status = signal.Classify(signal.QualityError)
				return
			}
			report := v.(backend.StatusReport)
			m.report = report
			if !report.IsConnected {
				m.status = signal.Classify(signal.QualityDisconnected)
				return
			}
			m.status = signal.Classify(report.ConnectionQuality)
		},
	)
}

// Stop leaves active monitoring; no tick fires after it returns.
func (m *Monitor) Stop() {
	m.dataPoller.Stop()
	m.statusPoller.Stop()
	m.mu.Lock()
	m.active = false
	m.mu.Unlock()
}

// ResetAnchor re-baselines the relative time axis.
func (m *Monitor) ResetAnchor() {
	m.adapter.Reset()
}

// Snapshot returns the current view state.
func (m *Monitor) Snapshot() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	series := make([]signal.ChannelSeries, len(m.series))
	copy(series, m.series)
	return View{
		Active:  m.active,
		HasData: m.hasData,
		Status:  m.status,
		Report:  m.report,
		Series:  series,
	}
}
