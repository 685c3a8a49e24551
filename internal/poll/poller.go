// Package poll provides the periodic fetch loop shared by the live feed
// and the wizard's connect stage. One Poller drives one logical feed.
package poll

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FetchFunc performs one fetch cycle. It must honor ctx cancellation.
type FetchFunc func(ctx context.Context) (interface{}, error)

// ApplyFunc receives a fetch result. The poller only invokes it while the
// loop that issued the fetch is still the live one, so a result that
// arrives after Stop (or after a restart) is discarded, never applied.
type ApplyFunc func(v interface{}, err error)

// Poller issues a fetch at a fixed cadence with at-most-one-in-flight:
// a tick that finds a previous fetch still outstanding is skipped, which
// preserves cadence without queueing concurrent calls for the same feed.
type Poller struct {
	name string
	log  *zap.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

func New(name string, log *zap.Logger) *Poller {
	return &Poller{name: name, log: log}
}

// Start begins the loop. Starting a running poller atomically replaces the
// previous loop; no two intervals are ever concurrently live for one feed.
func (p *Poller) Start(interval time.Duration, fetch FetchFunc, apply ApplyFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	p.gen++

	p.log.Debug("Starting poller",
		zap.String("feed", p.name),
		zap.Duration("interval", interval),
	)
	go p.loop(ctx, p.done, p.gen, interval, fetch, apply)
}

// Stop tears the loop down synchronously: when it returns, the loop has
// exited and any still-in-flight fetch result will be discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Running reports whether a loop is currently live.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil
	// Invalidate any fetch still in flight.
	p.gen++
	p.log.Debug("Stopped poller", zap.String("feed", p.name))
}

func (p *Poller) loop(ctx context.Context, done chan struct{}, gen uint64, interval time.Duration, fetch FetchFunc, apply ApplyFunc) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var inFlight sync.Mutex // held while a fetch is outstanding
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !inFlight.TryLock() {
				// Previous fetch has not resolved yet; skip this tick.
				continue
			}
			if ctx.Err() != nil {
				inFlight.Unlock()
				return
			}
			go func() {
				defer inFlight.Unlock()
				v, err := fetch(ctx)
				p.mu.Lock()
				if p.gen == gen {
					apply(v, err)
				}
				p.mu.Unlock()
			}()
		}
	}
}
