package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/badge"
)

// Scheduler owns the engine's two periodic loops: hourly-ish deadline scans
// and frequent badge refreshes. One Scheduler serves one signed-in user.
type Scheduler struct {
	scanner    *Scanner
	badges     *badge.Aggregator
	reconciler *Reconciler
	logger     core.Logger

	scanInterval    time.Duration
	refreshInterval time.Duration

	trigger chan struct{}
	stopCh  chan struct{}
	wg      sync.WaitGroup

	scanning int32 // single-flight guard; 1 while a scan pass is running

	mu      sync.Mutex
	started bool
	stopped bool
	userID  string
}

func NewScheduler(scanner *Scanner, badges *badge.Aggregator, reconciler *Reconciler, logger core.Logger, conf *core.Config) *Scheduler {
	scanInterval := time.Hour
	refreshInterval := 30 * time.Second
	if conf != nil {
		if conf.Scheduler.DeadlineScanInterval > 0 {
			scanInterval = conf.Scheduler.DeadlineScanInterval
		}
		if conf.Scheduler.BadgeRefreshInterval > 0 {
			refreshInterval = conf.Scheduler.BadgeRefreshInterval
		}
	}
	return &Scheduler{
		scanner:         scanner,
		badges:          badges,
		reconciler:      reconciler,
		logger:          logger,
		scanInterval:    scanInterval,
		refreshInterval: refreshInterval,
		trigger:         make(chan struct{}, 1),
		stopCh:          make(chan struct{}),
	}
}

// Start runs the one-time legacy cache reconciliation, performs an immediate
// scan and badge refresh, then launches the periodic loop. Calling Start on a
// running or stopped Scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context, userID string) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.userID = userID
	s.mu.Unlock()

	if s.reconciler != nil {
		if err := s.reconciler.Run(ctx, userID); err != nil {
			s.logger.Error("legacy cache reconciliation failed", err)
		}
	}

	// first pass up front; the tickers only fire after one full interval
	s.scan(ctx)
	s.badges.Refresh(ctx, userID)

	s.wg.Add(1)
	go s.loop(ctx, userID)
}

func (s *Scheduler) loop(ctx context.Context, userID string) {
	defer s.wg.Done()

	scanTicker := time.NewTicker(s.scanInterval)
	defer scanTicker.Stop()
	refreshTicker := time.NewTicker(s.refreshInterval)
	defer refreshTicker.Stop()

	for {
		select {
		case <-scanTicker.C:
			s.scan(ctx)
		case <-refreshTicker.C:
			s.badges.Refresh(ctx, userID)
		case <-s.trigger:
			s.scan(ctx)
			s.badges.Refresh(ctx, userID)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunNow requests an out-of-band scan and badge refresh. It never blocks; if a
// manual run is already queued the request is coalesced into it.
func (s *Scheduler) RunNow() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Stop tears the loop down and waits for any in-flight pass to finish.
// Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
}

// scan runs one deadline pass unless one is already in flight. The tickers and
// RunNow can line up; without the guard two concurrent passes would race the
// overdue duplicate check and double-notify.
func (s *Scheduler) scan(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&s.scanning, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&s.scanning, 0)
	s.scanner.Scan(ctx)
}
