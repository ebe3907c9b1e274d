package ratelimit

import (
	"errors"
	"sync"
	"time"
)

// ErrDailyQuotaExceeded indicates the daily request quota has been consumed.
// Callers must not retry until the next calendar day.
var ErrDailyQuotaExceeded = errors.New("daily request quota exceeded")

const windowDuration = 60 * time.Second

// Limiter tracks request timestamps and daily counts. Safe for concurrent use.
type Limiter struct {
	mu sync.Mutex

	maxPerMinute int
	dailyLimit   int

	timestamps []time.Time
	today      int
	dayAnchor  time.Time

	now func() time.Time
}

// Option customizes the limiter.
type Option func(*Limiter)

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New constructs a limiter with the given per-minute and per-day caps.
func New(maxPerMinute, dailyLimit int, opts ...Option) *Limiter {
	l := &Limiter{
		maxPerMinute: maxPerMinute,
		dailyLimit:   dailyLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.dayAnchor = dayOf(l.now())
	return l
}

// Admit records one request against the limits. The returned duration is how
// long the caller must wait before actually sending; zero means send
// immediately. ErrDailyQuotaExceeded is returned when the calendar-day quota
// is spent, in which case nothing is recorded.
func (l *Limiter) Admit() (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	var wait time.Duration
	if len(l.timestamps) >= l.maxPerMinute {
		wait = windowDuration - now.Sub(l.timestamps[0])
		if wait < 0 {
			wait = 0
		}
	}

	if day := dayOf(now); day.After(l.dayAnchor) {
		l.today = 0
		l.dayAnchor = day
	}

	if l.today >= l.dailyLimit {
		return 0, ErrDailyQuotaExceeded
	}

	l.timestamps = append(l.timestamps, now)
	l.today++
	return wait, nil
}

// Snapshot reports current usage for display and logging.
type Snapshot struct {
	LastMinute     int
	PerMinuteLimit int
	Today          int
	DailyLimit     int
}

// Usage returns a snapshot of the current counters.
func (l *Limiter) Usage() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	today := l.today
	if day := dayOf(now); day.After(l.dayAnchor) {
		today = 0
	}
	return Snapshot{
		LastMinute:     len(l.timestamps),
		PerMinuteLimit: l.maxPerMinute,
		Today:          today,
		DailyLimit:     l.dailyLimit,
	}
}

// prune drops timestamps older than the trailing window. Caller holds the lock.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-windowDuration)
	kept := l.timestamps[:0]
	for _, ts := range l.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.timestamps = kept
}

func dayOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
