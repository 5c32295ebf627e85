// Package poller runs the poll loop: fetch the homework status report,
// detect review-state transitions, push verdict messages to the chat, and
// sleep until the next activation. It owns all cross-iteration state
// (last seen status, last reported error text, the from_date cursor).
package poller

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"hwbot/internal/eventbus"
	"hwbot/internal/practicum"
	"hwbot/internal/verdict"
	"hwbot/pkg/logx"
)

// StatusSource fetches the raw status report for homeworks updated at or
// after the given unix-seconds timestamp.
type StatusSource interface {
	Fetch(ctx context.Context, since int64) (json.RawMessage, error)
}

// Sender delivers one text message to the configured chat.
type Sender interface {
	Notify(ctx context.Context, text string) error
}

// Outcome is the per-iteration record published on the event bus. The
// journal persists it verbatim.
type Outcome struct {
	Kind   string // ok | notified | empty | error | notify_failed
	Status string
	Text   string
	Err    string
	Cursor int64
	At     time.Time
}

// Outcome kinds and their event types ("poll." + kind).
const (
	OutcomeOK           = "ok"
	OutcomeNotified     = "notified"
	OutcomeEmpty        = "empty"
	OutcomeError        = "error"
	OutcomeNotifyFailed = "notify_failed"
)

// statusNotUnderReview is the internal sentinel stored as the last seen
// status when a valid report carries zero homework records. It keeps the
// empty-state message subject to the same change-detection rule as real
// statuses, so consecutive empty reports notify at most once.
const statusNotUnderReview = "\x00not_under_review"

// Snapshot is a point-in-time view of the loop, served by /status.
type Snapshot struct {
	Iterations    uint64
	Notifications uint64
	Failures      uint64
	LastStatus    string
	LastError     string
	LastAt        time.Time
	NextAt        time.Time
	Cursor        int64
	Schedule      string
}

// Service is the poll loop. Create with New, run with Run; Apply swaps the
// schedule at runtime.
type Service struct {
	src StatusSource
	snd Sender
	bus eventbus.Bus
	log logx.Logger
	now func() time.Time

	mu    sync.Mutex
	sched Schedule

	// Cross-iteration state. Guarded by mu; Run is the only writer but
	// Snapshot and Apply race with it.
	lastStatus  string
	lastErrText string
	cursor      int64

	iterations    uint64
	notifications uint64
	failures      uint64
	lastAt        time.Time
	nextAt        time.Time
}

// New builds a poll loop service. bus may be nil.
func New(sched Schedule, src StatusSource, snd Sender, bus eventbus.Bus, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		src:   src,
		snd:   snd,
		bus:   bus,
		log:   log.With(logx.String("component", "poller")),
		now:   time.Now,
		sched: sched,
	}
}

// Apply swaps the schedule. Takes effect at the next sleep.
func (s *Service) Apply(sched Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sched.String() == s.sched.String() {
		return
	}
	s.log.Info("schedule updated",
		logx.String("old", s.sched.String()),
		logx.String("new", sched.String()),
	)
	s.sched = sched
}

// Snapshot returns a copy of the loop state.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := s.lastStatus
	if last == statusNotUnderReview {
		last = "not_under_review"
	}
	return Snapshot{
		Iterations:    s.iterations,
		Notifications: s.notifications,
		Failures:      s.failures,
		LastStatus:    last,
		LastError:     s.lastErrText,
		LastAt:        s.lastAt,
		NextAt:        s.nextAt,
		Cursor:        s.cursor,
		Schedule:      s.sched.String(),
	}
}

// Run executes iterations until ctx is cancelled. It never returns on a
// recoverable iteration failure; the only exit path is cancellation.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	sched := s.sched
	s.mu.Unlock()
	s.log.Info("poll loop started", logx.String("schedule", sched.String()))

	for {
		s.iterate(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		now := s.now()
		s.mu.Lock()
		next := s.sched.Next(now)
		s.nextAt = next
		s.mu.Unlock()

		d := next.Sub(now)
		if d < 0 {
			d = 0
		}
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("poll loop stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// iterate performs one poll cycle. Recoverable failures are reported and
// absorbed; the loop state changes only on the paths the contract allows.
func (s *Service) iterate(ctx context.Context) {
	start := s.now()

	s.mu.Lock()
	s.iterations++
	s.lastAt = start
	since := s.cursor
	s.mu.Unlock()
	if since == 0 {
		since = start.Unix()
	}

	raw, err := s.src.Fetch(ctx, since)
	var report practicum.Report
	if err == nil {
		report, err = practicum.Validate(raw)
	}

	var text, status, kind string
	if err == nil {
		if len(report.Homeworks) == 0 {
			status = statusNotUnderReview
			text = verdict.EmptyState()
			kind = OutcomeEmpty
		} else {
			// Only the most recent record matters; the API returns
			// newest-first.
			hw := report.Homeworks[0]
			status = hw.Status
			kind = OutcomeOK
			text, err = verdict.Format(hw)
		}
	}

	if err != nil {
		if ctx.Err() != nil {
			// Shutdown in flight, not an iteration failure.
			return
		}
		s.failIteration(ctx, start, err)
		return
	}

	s.mu.Lock()
	// A healthy iteration makes the next failure news again.
	s.lastErrText = ""
	if report.CurrentDate != 0 {
		s.cursor = report.CurrentDate
	}
	changed := status != s.lastStatus
	if changed {
		s.lastStatus = status
	}
	cursor := s.cursor
	s.mu.Unlock()

	if !changed {
		s.log.Debug("no status change", logx.String("status", status))
		s.observe(Outcome{Kind: kind, Status: status, Cursor: cursor, At: start})
		return
	}

	s.log.Info("status transition detected",
		logx.String("status", status),
		logx.Int64("cursor", cursor),
	)
	if nerr := s.snd.Notify(ctx, text); nerr != nil {
		// Delivery failures are logged and journaled, never escalated. The
		// status is still recorded as seen: the transition happened whether
		// or not the chat heard about it.
		s.log.Error("notification delivery failed", logx.Err(nerr))
		s.observe(Outcome{
			Kind: OutcomeNotifyFailed, Status: status, Text: text,
			Err: nerr.Error(), Cursor: cursor, At: start,
		})
		return
	}

	s.mu.Lock()
	s.notifications++
	s.mu.Unlock()
	s.observe(Outcome{Kind: OutcomeNotified, Status: status, Text: text, Cursor: cursor, At: start})
}

// failIteration handles a recoverable failure: log it, notify the chat if
// the error text differs from the last one delivered, and record it. The
// last seen status is never touched here.
func (s *Service) failIteration(ctx context.Context, at time.Time, cause error) {
	msg := "Homework status poll failed: " + cause.Error()
	s.log.Error("iteration failed", logx.Err(cause))

	s.mu.Lock()
	s.failures++
	dup := msg == s.lastErrText
	cursor := s.cursor
	s.mu.Unlock()

	if dup {
		s.log.Debug("error already reported, suppressing notification")
		s.observe(Outcome{Kind: OutcomeError, Err: cause.Error(), Cursor: cursor, At: at})
		return
	}

	if nerr := s.snd.Notify(ctx, msg); nerr != nil {
		// Leave lastErrText unchanged so the next iteration with the same
		// error tries to deliver again.
		s.log.Error("error notification delivery failed", logx.Err(nerr))
		s.observe(Outcome{
			Kind: OutcomeNotifyFailed, Text: msg,
			Err: nerr.Error(), Cursor: cursor, At: at,
		})
		return
	}

	s.mu.Lock()
	s.lastErrText = msg
	s.notifications++
	s.mu.Unlock()
	s.observe(Outcome{Kind: OutcomeError, Text: msg, Err: cause.Error(), Cursor: cursor, At: at})
}

func (s *Service) observe(o Outcome) {
	if s.bus == nil {
		return
	}
	if o.Status == statusNotUnderReview {
		o.Status = "not_under_review"
	}
	s.bus.Publish(eventbus.Event{Type: "poll." + o.Kind, Time: o.At, Data: o})
}
