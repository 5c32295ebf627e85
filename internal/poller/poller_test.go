package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"hwbot/internal/practicum"
	"hwbot/internal/verdict"
	"hwbot/pkg/logx"
)

type step struct {
	raw string
	err error
}

type fakeSource struct {
	steps []step
	i     int
	since []int64
}

func (f *fakeSource) Fetch(_ context.Context, since int64) (json.RawMessage, error) {
	f.since = append(f.since, since)
	if f.i >= len(f.steps) {
		return nil, errors.New("no more steps")
	}
	s := f.steps[f.i]
	f.i++
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.raw), nil
}

type fakeSender struct {
	sent    []string
	failFor int // first N Notify calls fail
	calls   int
}

func (f *fakeSender) Notify(_ context.Context, text string) error {
	f.calls++
	if f.calls <= f.failFor {
		return errors.New("send failed")
	}
	f.sent = append(f.sent, text)
	return nil
}

func report(status string, currentDate int64) string {
	return fmt.Sprintf(
		`{"homeworks":[{"homework_name":"hw1","status":%q}],"current_date":%d}`,
		status, currentDate,
	)
}

func newTestService(src StatusSource, snd Sender) *Service {
	sched, _ := ParseSchedule("10m")
	s := New(sched, src, snd, nil, logx.Nop())
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func runIterations(s *Service, n int) {
	ctx := context.Background()
	for i := 0; i < n; i++ {
		s.iterate(ctx)
	}
}

func TestStatusTransitionNotifies(t *testing.T) {
	t.Parallel()
	src := &fakeSource{steps: []step{
		{raw: report(verdict.StatusReviewing, 100)},
		{raw: report(verdict.StatusReviewing, 200)},
		{raw: report(verdict.StatusApproved, 300)},
	}}
	snd := &fakeSender{}
	s := newTestService(src, snd)

	runIterations(s, 3)

	if len(snd.sent) != 2 {
		t.Fatalf("sent %d notifications, want 2: %v", len(snd.sent), snd.sent)
	}
	snap := s.Snapshot()
	if snap.LastStatus != verdict.StatusApproved {
		t.Fatalf("LastStatus = %q, want %q", snap.LastStatus, verdict.StatusApproved)
	}
}

func TestUnchangedStatusNotifiesOnce(t *testing.T) {
	t.Parallel()
	src := &fakeSource{}
	for i := 0; i < 5; i++ {
		src.steps = append(src.steps, step{raw: report(verdict.StatusReviewing, int64(100+i))})
	}
	snd := &fakeSender{}
	s := newTestService(src, snd)

	runIterations(s, 5)

	if len(snd.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1: %v", len(snd.sent), snd.sent)
	}
}

func TestRepeatedErrorNotifiesOnce(t *testing.T) {
	t.Parallel()
	fail := &practicum.UnexpectedStatusError{Code: 503}
	src := &fakeSource{steps: []step{
		{err: fail},
		{err: fail},
		{raw: report(verdict.StatusApproved, 100)},
	}}
	snd := &fakeSender{}
	s := newTestService(src, snd)

	runIterations(s, 3)

	// One error notification plus one verdict notification.
	if len(snd.sent) != 2 {
		t.Fatalf("sent %d notifications, want 2: %v", len(snd.sent), snd.sent)
	}
	snap := s.Snapshot()
	if snap.Failures != 2 {
		t.Fatalf("Failures = %d, want 2", snap.Failures)
	}
	if snap.LastError != "" {
		t.Fatalf("LastError = %q, want cleared after success", snap.LastError)
	}
}

func TestErrorTextChangeNotifiesAgain(t *testing.T) {
	t.Parallel()
	src := &fakeSource{steps: []step{
		{err: &practicum.UnexpectedStatusError{Code: 503}},
		{err: &practicum.UnexpectedStatusError{Code: 500}},
	}}
	snd := &fakeSender{}
	s := newTestService(src, snd)

	runIterations(s, 2)

	if len(snd.sent) != 2 {
		t.Fatalf("sent %d notifications, want 2: %v", len(snd.sent), snd.sent)
	}
}

func TestEmptyReportNotifiesOnce(t *testing.T) {
	t.Parallel()
	src := &fakeSource{steps: []step{
		{raw: `{"homeworks":[],"current_date":100}`},
		{raw: `{"homeworks":[],"current_date":200}`},
		{raw: report(verdict.StatusReviewing, 300)},
	}}
	snd := &fakeSender{}
	s := newTestService(src, snd)

	runIterations(s, 3)

	if len(snd.sent) != 2 {
		t.Fatalf("sent %d notifications, want 2: %v", len(snd.sent), snd.sent)
	}
	if snd.sent[0] != verdict.EmptyState() {
		t.Fatalf("first notification = %q, want empty-state text", snd.sent[0])
	}
}

func TestUnknownStatusIsRecoverable(t *testing.T) {
	t.Parallel()
	src := &fakeSource{steps: []step{
		{raw: report(verdict.StatusReviewing, 100)},
		{raw: report("in_progress", 200)},
		{raw: report(verdict.StatusApproved, 300)},
	}}
	snd := &fakeSender{}
	s := newTestService(src, snd)

	runIterations(s, 3)

	// reviewing verdict, unknown-status error report, approved verdict.
	if len(snd.sent) != 3 {
		t.Fatalf("sent %d notifications, want 3: %v", len(snd.sent), snd.sent)
	}
	snap := s.Snapshot()
	if snap.LastStatus != verdict.StatusApproved {
		t.Fatalf("LastStatus = %q, want %q", snap.LastStatus, verdict.StatusApproved)
	}
	if snap.Failures != 1 {
		t.Fatalf("Failures = %d, want 1", snap.Failures)
	}
}

func TestUnknownStatusKeepsLastStatus(t *testing.T) {
	t.Parallel()
	src := &fakeSource{steps: []step{
		{raw: report(verdict.StatusReviewing, 100)},
		{raw: report("weird", 200)},
		{raw: report(verdict.StatusReviewing, 300)},
	}}
	snd := &fakeSender{}
	s := newTestService(src, snd)

	runIterations(s, 3)

	// Iteration 3 must not re-notify "reviewing": the unknown status never
	// replaced the last seen status.
	want := 2 // reviewing verdict + unknown-status error
	if len(snd.sent) != want {
		t.Fatalf("sent %d notifications, want %d: %v", len(snd.sent), want, snd.sent)
	}
}

func TestCursorAdvances(t *testing.T) {
	t.Parallel()
	src := &fakeSource{steps: []step{
		{raw: report(verdict.StatusReviewing, 1000)},
		{raw: report(verdict.StatusReviewing, 2000)},
		{raw: report(verdict.StatusReviewing, 3000)},
	}}
	snd := &fakeSender{}
	s := newTestService(src, snd)

	runIterations(s, 3)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Unix()
	want := []int64{now, 1000, 2000}
	if len(src.since) != len(want) {
		t.Fatalf("since calls = %v", src.since)
	}
	for i := range want {
		if src.since[i] != want[i] {
			t.Fatalf("since[%d] = %d, want %d", i, src.since[i], want[i])
		}
	}
}

func TestDeliveryFailureDoesNotRepeatVerdict(t *testing.T) {
	t.Parallel()
	src := &fakeSource{steps: []step{
		{raw: report(verdict.StatusApproved, 100)},
		{raw: report(verdict.StatusApproved, 200)},
	}}
	snd := &fakeSender{failFor: 1}
	s := newTestService(src, snd)

	runIterations(s, 2)

	// The transition was observed even though delivery failed; the second
	// identical report must not produce a late duplicate.
	if len(snd.sent) != 0 {
		t.Fatalf("sent %v, want none", snd.sent)
	}
	snap := s.Snapshot()
	if snap.LastStatus != verdict.StatusApproved {
		t.Fatalf("LastStatus = %q, want %q", snap.LastStatus, verdict.StatusApproved)
	}
}

func TestErrorDeliveryFailureRetriesNextIteration(t *testing.T) {
	t.Parallel()
	fail := &practicum.UnexpectedStatusError{Code: 503}
	src := &fakeSource{steps: []step{{err: fail}, {err: fail}}}
	snd := &fakeSender{failFor: 1}
	s := newTestService(src, snd)

	runIterations(s, 2)

	// The first delivery attempt failed, so the error text was never marked
	// as reported and the second iteration delivers it.
	if len(snd.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1: %v", len(snd.sent), snd.sent)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	src := &fakeSource{steps: []step{{raw: report(verdict.StatusReviewing, 100)}}}
	s := New(mustSchedule(t, "1h"), src, &fakeSender{}, nil, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func mustSchedule(t *testing.T, raw string) Schedule {
	t.Helper()
	s, err := ParseSchedule(raw)
	if err != nil {
		t.Fatalf("ParseSchedule(%q): %v", raw, err)
	}
	return s
}
