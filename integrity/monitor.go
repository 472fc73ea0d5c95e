// Package integrity watches a chain in the background and reports when its
// validity changes.
package integrity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/luca-patrignani/powchain/ledger"
)

// DefaultInterval is used when Monitor.Interval is not positive.
const DefaultInterval = 500 * time.Millisecond

// Verifier is the part of a chain the monitor needs. Check returns the length
// of the chain it verified. *ledger.SyncChain satisfies it; a bare
// *ledger.Chain only does if nobody mutates it meanwhile.
type Verifier interface {
	Check() (int, error)
}

// Report is the outcome of one check. Err is nil for a valid chain.
type Report struct {
	Time   time.Time
	Length int
	Err    error
}

// Valid reports whether the check found the chain intact.
func (r Report) Valid() bool {
	return r.Err == nil
}

// Monitor re-verifies a chain at a fixed interval. Set Chain, and optionally
// Interval and Logger, then call Start. A Report is delivered on Reports for
// the first check and then each time the chain goes from valid to invalid or
// back.
type Monitor struct {
	Chain    Verifier
	Interval time.Duration
	Logger   *slog.Logger
	Reports  chan Report

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start runs a first check right away and keeps checking on a background
// goroutine until Close.
func (m *Monitor) Start() error {
	if m.Chain == nil {
		return errors.New("integrity: no chain to monitor")
	}
	if m.done != nil {
		return errors.New("integrity: monitor already started")
	}
	if m.Interval <= 0 {
		m.Interval = DefaultInterval
	}
	if m.Logger == nil {
		m.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m.Reports = make(chan Report, 10)
	m.done = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.run(ctx)
	return nil
}

// Close stops the monitor and waits for its goroutine. Reports is closed
// afterwards.
func (m *Monitor) Close() error {
	if m.done == nil {
		return errors.New("integrity: monitor not started")
	}
	m.once.Do(m.cancel)
	<-m.done
	return nil
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)
	defer close(m.Reports)

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	var last *Report
	for {
		report := m.check()
		if last == nil || last.Valid() != report.Valid() {
			m.log(report)
			select {
			case m.Reports <- report:
			case <-ctx.Done():
				return
			}
		}
		last = &report

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) check() Report {
	length, err := m.Chain.Check()
	return Report{Time: time.Now(), Length: length, Err: err}
}

func (m *Monitor) log(r Report) {
	if r.Valid() {
		m.Logger.Info("chain is valid", "blocks", r.Length)
		return
	}
	var verr *ledger.ValidationError
	if errors.As(r.Err, &verr) {
		m.Logger.Warn("chain integrity violated",
			"blocks", r.Length,
			"block", verr.Index,
			"check", verr.Err.Error(),
		)
		return
	}
	m.Logger.Warn("chain integrity violated", "blocks", r.Length, "error", r.Err.Error())
}
