package scanning

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veriscan/veriscan/internal/errors"
	"github.com/veriscan/veriscan/internal/logging"
	"github.com/veriscan/veriscan/internal/metrics"
	"github.com/veriscan/veriscan/internal/ports"
)

// Engine runs connect scans with a fixed pool of probe workers. A single
// Engine tracks the progress of one Run at a time; create one engine per
// concurrent scan.
type Engine struct {
	config  Config
	prober  Prober
	logger  *logging.Logger
	metrics *metrics.PrometheusMetrics

	mu        sync.RWMutex
	snapshot  Snapshot
	startTime time.Time

	onProgress func(Snapshot)
}

// NewEngine validates cfg and returns an engine wired with a TCP prober,
// the default logger, and the global metrics instance.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapConfigError(errors.CodeValidation, "invalid engine configuration", err)
	}
	return &Engine{
		config:  cfg,
		prober:  NewTCPProber(cfg.Timeout),
		logger:  logging.Default().WithComponent("engine"),
		metrics: metrics.GetGlobalMetrics(),
	}, nil
}

// SetProber replaces the prober. Tests inject fakes here.
func (e *Engine) SetProber(p Prober) {
	if p != nil {
		e.prober = p
	}
}

// SetProgressFunc registers fn to be invoked after every completed probe
// and once more when the scan finishes. fn runs on the engine's collector
// goroutine and must not block.
func (e *Engine) SetProgressFunc(fn func(Snapshot)) {
	e.onProgress = fn
}

// Progress returns a point-in-time view of the current scan. Safe to call
// from any goroutine at any time, including while no scan is running.
func (e *Engine) Progress() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := e.snapshot
	if snap.Running && !e.startTime.IsZero() {
		snap.Elapsed = time.Since(e.startTime)
	}
	return snap
}

// Run probes every port in set against target and returns the completed
// result. Each port is probed exactly once; probe failures are recorded,
// never fatal. If ctx is canceled before the last probe finishes, partial
// results are discarded and Run reports the scan as aborted.
func (e *Engine) Run(ctx context.Context, target Target, set ports.Set) (*ScanResult, error) {
	scanID := uuid.New().String()
	total := set.Len()

	workers := e.config.Workers
	if total > 0 && workers > total {
		workers = total
	}

	start := time.Now()
	e.beginScan(scanID, target, total, start)

	e.logger.InfoScan("scan started", target.String(),
		"scan_id", scanID,
		"ports", total,
		"workers", workers,
		"timeout", e.config.Timeout)

	e.metrics.SetActiveScans(1)
	defer e.metrics.SetActiveScans(0)

	jobs := make(chan ports.Port)
	results := make(chan ProbeResult, total+1)

	// Feeder: every port enters the jobs channel exactly once. On
	// cancellation it stops issuing new work; closing jobs releases any
	// worker still waiting.
	go func() {
		defer close(jobs)
		for _, port := range set.Sorted() {
			select {
			case jobs <- port:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case port, ok := <-jobs:
					if !ok {
						return
					}
					e.metrics.IncrementInFlightProbes()
					result := e.prober.Probe(ctx, target, port)
					e.metrics.DecrementInFlightProbes()
					results <- result
				}
			}
		}()
	}

	// Closer: results stays open until the last worker exits, so the
	// collector below sees every probe that actually ran.
	go func() {
		wg.Wait()
		close(results)
	}()

	// Run is the sole collector; nothing else touches these.
	collected := make([]ProbeResult, 0, total)
	var stats Stats
	for result := range results {
		collected = append(collected, result)
		switch result.Status {
		case StatusOpen:
			stats.Open++
		case StatusClosed:
			stats.Closed++
		default:
			stats.Errored++
		}
		stats.Total++
		e.metrics.IncrementProbesTotal(string(result.Status))
		e.metrics.RecordProbeDuration(string(result.Status), result.Latency)
		e.recordProgress(stats, total, start)
	}

	end := time.Now()
	duration := end.Sub(start)

	if ctx.Err() != nil {
		e.finishScan(stats, total, duration)
		e.metrics.IncrementScansTotal("aborted")
		e.metrics.RecordScanDuration("aborted", duration)
		e.logger.ErrorScan("scan aborted", target.String(), ctx.Err(),
			"scan_id", scanID,
			"probed", stats.Total,
			"duration", duration)
		return nil, errors.ErrScanAborted(target.String(), ctx.Err())
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].Port < collected[j].Port
	})

	openSet := ports.NewSet()
	for _, result := range collected {
		if result.Open() {
			openSet.Add(result.Port)
		}
	}

	e.finishScan(stats, total, duration)
	e.metrics.IncrementScansTotal("completed")
	e.metrics.RecordScanDuration("completed", duration)
	e.metrics.SetOpenPorts(target.String(), openSet.Len())

	e.logger.InfoScan("scan completed", target.String(),
		"scan_id", scanID,
		"open", stats.Open,
		"closed", stats.Closed,
		"errored", stats.Errored,
		"duration", duration)

	return &ScanResult{
		ID:        scanID,
		Target:    target,
		OpenPorts: openSet.Sorted(),
		Results:   collected,
		Stats:     stats,
		StartTime: start,
		EndTime:   end,
		Duration:  duration,
	}, nil
}

func (e *Engine) beginScan(scanID string, target Target, total int, start time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.startTime = start
	e.snapshot = Snapshot{
		ScanID:  scanID,
		Target:  target.String(),
		Total:   total,
		Running: true,
	}
	e.metrics.SetPortsQueued(total)

	if e.onProgress != nil {
		e.onProgress(e.snapshot)
	}
}

func (e *Engine) recordProgress(stats Stats, total int, start time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.snapshot.Probed = stats.Total
	e.snapshot.Open = stats.Open
	e.snapshot.Closed = stats.Closed
	e.snapshot.Errored = stats.Errored
	e.snapshot.Elapsed = time.Since(start)
	e.metrics.SetPortsQueued(total - stats.Total)

	if e.onProgress != nil {
		e.onProgress(e.snapshot)
	}
}

func (e *Engine) finishScan(stats Stats, total int, duration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.snapshot.Probed = stats.Total
	e.snapshot.Open = stats.Open
	e.snapshot.Closed = stats.Closed
	e.snapshot.Errored = stats.Errored
	e.snapshot.Elapsed = duration
	e.snapshot.Running = false
	e.metrics.SetPortsQueued(0)

	if e.onProgress != nil {
		e.onProgress(e.snapshot)
	}
}
