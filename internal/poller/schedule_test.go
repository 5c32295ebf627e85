package poller

import (
	"testing"
	"time"
)

func TestParseScheduleVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		raw   string
		cron  bool
		every time.Duration
	}{
		{name: "cron", raw: "*/5 * * * *", cron: true},
		{name: "prefixed cron", raw: "cron:0 0 * * *", cron: true},
		{name: "descriptor", raw: "@hourly", cron: true},
		{name: "duration", raw: "10m", every: 10 * time.Minute},
		{name: "prefixed interval", raw: "interval:45s", every: 45 * time.Second},
		{name: "every prefix", raw: "every:90s", every: 90 * time.Second},
		{name: "hhmm", raw: "01:30", every: 90 * time.Minute},
		{name: "hhmm minutes only", raw: "00:50", every: 50 * time.Minute},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchedule(tt.raw)
			if err != nil {
				t.Fatalf("ParseSchedule(%q) error: %v", tt.raw, err)
			}
			if got.IsCron() != tt.cron {
				t.Fatalf("IsCron() = %v, want %v", got.IsCron(), tt.cron)
			}
			if !tt.cron && got.Every() != tt.every {
				t.Fatalf("Every() = %v, want %v", got.Every(), tt.every)
			}
		})
	}
}

func TestParseScheduleInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "not-a-schedule", "cron:", "interval:", "-5m", "00:00", "01:75"} {
		if _, err := ParseSchedule(raw); err == nil {
			t.Fatalf("ParseSchedule(%q): expected error", raw)
		}
	}
}

func TestScheduleNextInterval(t *testing.T) {
	t.Parallel()
	s, err := ParseSchedule("10m")
	if err != nil {
		t.Fatalf("ParseSchedule error: %v", err)
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := s.Next(now); !got.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("Next = %v, want %v", got, now.Add(10*time.Minute))
	}
}

func TestScheduleNextCron(t *testing.T) {
	t.Parallel()
	s, err := ParseSchedule("*/10 * * * *")
	if err != nil {
		t.Fatalf("ParseSchedule error: %v", err)
	}
	now := time.Date(2026, 3, 1, 12, 3, 0, 0, time.UTC)
	want := time.Date(2026, 3, 1, 12, 10, 0, 0, time.UTC)
	if got := s.Next(now); !got.Equal(want) {
		t.Fatalf("Next = %v, want %v", got, want)
	}
}

func TestZeroScheduleFallsBack(t *testing.T) {
	t.Parallel()
	var s Schedule
	now := time.Now()
	if got := s.Next(now); !got.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("zero schedule Next = %v, want +10m", got)
	}
	if s.String() != DefaultSchedule {
		t.Fatalf("zero schedule String = %q", s.String())
	}
}
