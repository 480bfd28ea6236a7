package workdir

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// SweepRecorder receives the outcome of every sweep, e.g. for metrics
type SweepRecorder interface {
	RecordSweep(dir string, report SweepReport)
}

// Janitor periodically sweeps a set of working directories
type Janitor struct {
	stores   []*Store
	policy   SweepPolicy
	interval time.Duration
	recorder SweepRecorder
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	done     chan struct{}
}

// NewJanitor creates a janitor; recorder may be nil
func NewJanitor(policy SweepPolicy, interval time.Duration, recorder SweepRecorder, logger *zap.Logger, stores ...*Store) *Janitor {
	return &Janitor{
		stores:   stores,
		policy:   policy,
		interval: interval,
		recorder: recorder,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval
func (j *Janitor) Start() {
	if !j.started.CompareAndSwap(false, true) {
		return
	}
	go j.sweepLoop()
	j.logger.Info("Working directory janitor started",
		zap.Duration("interval", j.interval),
		zap.Int("maxFiles", j.policy.MaxFiles),
		zap.Bool("enforceMaxAge", j.policy.EnforceMaxAge))
}

// Stop halts the loop and waits for an in-progress sweep to finish
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() {
		close(j.stopChan)
		if j.started.Load() {
			<-j.done
		}
		j.logger.Info("Working directory janitor stopped")
	})
}

// SweepNow sweeps every store once, synchronously
func (j *Janitor) SweepNow() {
	for _, store := range j.stores {
		report := store.Sweep(j.policy)
		if j.recorder != nil {
			j.recorder.RecordSweep(store.Dir(), report)
		}
	}
}

func (j *Janitor) sweepLoop() {
	defer close(j.done)

	j.SweepNow()

	if j.interval <= 0 {
		<-j.stopChan
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopChan:
			return
		case <-ticker.C:
			j.SweepNow()
		}
	}
}
