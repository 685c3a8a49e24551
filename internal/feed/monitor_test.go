package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ericjkge/eeg-tutor/internal/backend"
	"github.com/ericjkge/eeg-tutor/internal/signal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAPI struct {
	mu        sync.Mutex
	report    backend.StatusReport
	statusErr error
	window    []signal.Sample
	windowErr error
}

func (f *fakeAPI) Status(ctx context.Context) (backend.StatusReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return backend.StatusReport{}, f.statusErr
	}
	return f.report, nil
}

func (f *fakeAPI) Window(ctx context.Context, seconds float64) ([]signal.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.windowErr != nil {
		return nil, f.windowErr
	}
	out := make([]signal.Sample, len(f.window))
	copy(out, f.window)
	return out, nil
}

func (f *fakeAPI) set(window []signal.Sample, report backend.StatusReport) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.window = window
	f.report = report
	f.statusErr = nil
	f.windowErr = nil
}

func fastOptions() Options {
	return Options{
		DataInterval:   10 * time.Millisecond,
		StatusInterval: 10 * time.Millisecond,
		WindowSeconds:  5,
	}
}

func samplesAt(timestamps ...float64) []signal.Sample {
	out := make([]signal.Sample, len(timestamps))
	for i, ts := range timestamps {
		out[i] = signal.Sample{Timestamp: ts, TP9: 1, AF7: 2, AF8: 3, TP10: 4}
	}
	return out
}

func TestSnapshotBeforeStart(t *testing.T) {
	m := NewMonitor(&fakeAPI{}, fastOptions(), zap.NewNop())

	view := m.Snapshot()
	assert.False(t, view.Active)
	assert.False(t, view.HasData)
	assert.Equal(t, signal.Classify(signal.QualityDisconnected), view.Status)
}

func TestMonitorPublishesSeriesAndStatus(t *testing.T) {
	api := &fakeAPI{}
	api.set(samplesAt(100.0, 100.5), backend.StatusReport{IsConnected: true, ConnectionQuality: "good"})
	m := NewMonitor(api, fastOptions(), zap.NewNop())

	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool {
		v := m.Snapshot()
		return v.HasData && v.Status == signal.Classify(signal.QualityGood)
	}, 2*time.Second, 10*time.Millisecond)

	view := m.Snapshot()
	assert.True(t, view.Active)
	require.Len(t, view.Series, 4)
	assert.Equal(t, "TP9", view.Series[0].Name)
	// Time axis is relative to the first sample seen since Start.
	assert.Equal(t, [2]float64{0, 1}, view.Series[0].Points[0])
	assert.Equal(t, [2]float64{0.5, 1}, view.Series[0].Points[1])
}

func TestEmptyWindowMeansNoData(t *testing.T) {
	api := &fakeAPI{}
	api.set(nil, backend.StatusReport{IsConnected: true, ConnectionQuality: "good"})
	m := NewMonitor(api, fastOptions(), zap.NewNop())

	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool {
		return m.Snapshot().Status == signal.Classify(signal.QualityGood)
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, m.Snapshot().HasData)
}

func TestWindowErrorKeepsPolling(t *testing.T) {
	api := &fakeAPI{windowErr: errors.New("backend down"), statusErr: errors.New("backend down")}
	m := NewMonitor(api, fastOptions(), zap.NewNop())

	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool {
		return m.Snapshot().Status == signal.Classify(signal.QualityError)
	}, 2*time.Second, 10*time.Millisecond)

	// Recovery without a restart.
	api.set(samplesAt(50.0), backend.StatusReport{IsConnected: true, ConnectionQuality: "fair"})
	require.Eventually(t, func() bool {
		v := m.Snapshot()
		return v.HasData && v.Status == signal.Classify(signal.QualityFair)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStopFreezesView(t *testing.T) {
	api := &fakeAPI{}
	api.set(samplesAt(10.0), backend.StatusReport{IsConnected: true, ConnectionQuality: "excellent"})
	m := NewMonitor(api, fastOptions(), zap.NewNop())

	m.Start()
	require.Eventually(t, func() bool {
		return m.Snapshot().HasData
	}, 2*time.Second, 10*time.Millisecond)

	m.Stop()
	assert.False(t, m.Snapshot().Active)

	// No tick runs after Stop: a changed backend never reaches the view.
	api.set(samplesAt(999.0), backend.StatusReport{IsConnected: false})
	before := m.Snapshot()
	time.Sleep(100 * time.Millisecond)
	after := m.Snapshot()
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.Series, after.Series)
}

func TestRestartRebaselinesTimeAxis(t *testing.T) {
	api := &fakeAPI{}
	api.set(samplesAt(100.0), backend.StatusReport{IsConnected: true, ConnectionQuality: "good"})
	m := NewMonitor(api, fastOptions(), zap.NewNop())

	m.Start()
	require.Eventually(t, func() bool {
		return m.Snapshot().HasData
	}, 2*time.Second, 10*time.Millisecond)
	m.Stop()

	// The device clock moved on; after a restart time starts at zero again.
	api.set(samplesAt(500.0), backend.StatusReport{IsConnected: true, ConnectionQuality: "good"})
	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool {
		v := m.Snapshot()
		return v.HasData && len(v.Series) == 4 && v.Series[0].Points[0][0] == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDisconnectedReportOverridesQuality(t *testing.T) {
	api := &fakeAPI{}
	// A stale quality string with is_connected=false classifies as disconnected.
	api.set(nil, backend.StatusReport{IsConnected: false, ConnectionQuality: "good"})
	m := NewMonitor(api, fastOptions(), zap.NewNop())

	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool {
		return m.Snapshot().Status == signal.Classify(signal.QualityDisconnected)
	}, 2*time.Second, 10*time.Millisecond)
}
