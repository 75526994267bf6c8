// Package badge computes the per-domain unread/pending counts surfaced in the
// portal navigation.
package badge

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/fitdeskhq/fitdesk/core"
)

// Domains
const (
	DomainAnnouncements = "announcements"
	DomainTasks         = "tasks"
	DomainDailyReports  = "daily_reports"
	DomainManuals       = "manuals"
	DomainNotifications = "notifications"
	DomainSuggestions   = "suggestions"
)

var AllDomains = []string{
	DomainAnnouncements,
	DomainTasks,
	DomainDailyReports,
	DomainManuals,
	DomainNotifications,
	DomainSuggestions,
}

// Snapshot maps a domain name to its pending count. Process-local read-model
// cache, replaced wholesale on every refresh; 30s staleness is acceptable.
type Snapshot map[string]int

func ZeroSnapshot() Snapshot {
	s := make(Snapshot, len(AllDomains))
	for _, d := range AllDomains {
		s[d] = 0
	}
	return s
}

func (s Snapshot) clone() Snapshot {
	c := make(Snapshot, len(s))
	for d, n := range s {
		c[d] = n
	}
	return c
}

// Per-domain count sources, implemented by the core services.
type (
	AnnouncementCounter interface {
		CountUnread(ctx context.Context, userID string) (int, error)
	}
	TaskCounter interface {
		CountPendingTasks(ctx context.Context, assigneeID string) (int, error)
	}
	ReportCounter interface {
		CountReportsOn(ctx context.Context, day time.Time) (int, error)
	}
	ManualCounter interface {
		CountFresh(ctx context.Context, now time.Time) (int, error)
	}
	NotificationCounter interface {
		CountUnread(ctx context.Context, recipientID string) (int, error)
	}
	SuggestionCounter interface {
		CountPending(ctx context.Context) (int, error)
	}

	Counters struct {
		Announcements AnnouncementCounter
		Tasks         TaskCounter
		Reports       ReportCounter
		Manuals       ManualCounter
		Notifications NotificationCounter
		Suggestions   SuggestionCounter
	}
)

// Aggregator holds the current badge Snapshot and refreshes it from the store.
type Aggregator struct {
	counters Counters
	logger   core.Logger

	NowFunc func() time.Time // mockable

	mu      sync.Mutex
	current Snapshot
}

func NewAggregator(counters Counters, logger core.Logger) *Aggregator {
	return &Aggregator{
		counters: counters,
		logger:   logger,
		NowFunc:  time.Now,
		current:  ZeroSnapshot(),
	}
}

// Refresh recomputes all six counts for a user, concurrently, and replaces the
// current snapshot wholesale. A failing count is logged and contributes 0 so a
// backend hiccup degrades to a stale badge instead of blocking the UI.
// An empty userID yields the zero snapshot without touching the store.
func (agg *Aggregator) Refresh(ctx context.Context, userID string) Snapshot {
	snap := ZeroSnapshot()
	if userID == "" {
		agg.replace(snap)
		return snap
	}

	now := agg.NowFunc()

	var mu sync.Mutex
	var wg sync.WaitGroup
	count := func(domain string, fn func() (int, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := fn()
			if err != nil {
				agg.logger.Warn("badge count failed; using 0", errors.Wrap(err, domain))
				n = 0
			}
			mu.Lock()
			snap[domain] = n
			mu.Unlock()
		}()
	}

	count(DomainAnnouncements, func() (int, error) { return agg.counters.Announcements.CountUnread(ctx, userID) })
	count(DomainTasks, func() (int, error) { return agg.counters.Tasks.CountPendingTasks(ctx, userID) })
	count(DomainDailyReports, func() (int, error) { return agg.counters.Reports.CountReportsOn(ctx, now) })
	count(DomainManuals, func() (int, error) { return agg.counters.Manuals.CountFresh(ctx, now) })
	count(DomainNotifications, func() (int, error) { return agg.counters.Notifications.CountUnread(ctx, userID) })
	count(DomainSuggestions, func() (int, error) { return agg.counters.Suggestions.CountPending(ctx) })
	wg.Wait()

	agg.replace(snap)
	return snap.clone()
}

// Current returns a copy of the latest snapshot without querying the store.
func (agg *Aggregator) Current() Snapshot {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	return agg.current.clone()
}

// Update overrides a single domain count; used by producers that already know
// the new value and want immediate UI feedback ahead of the next refresh.
func (agg *Aggregator) Update(domain string, count int) {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	if count < 0 {
		count = 0
	}
	agg.current[domain] = count
}

// MarkAsRead decrements a domain count by one, floored at zero.
func (agg *Aggregator) MarkAsRead(domain string) {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	if n := agg.current[domain]; n > 0 {
		agg.current[domain] = n - 1
	}
}

func (agg *Aggregator) replace(snap Snapshot) {
	agg.mu.Lock()
	agg.current = snap.clone()
	agg.mu.Unlock()
}
