package poller

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule decides when the next poll iteration runs: either a fixed
// interval after the previous iteration, or a cron expression.
//
// Supported forms:
//   - Interval duration: "10m", "2h30m"
//   - Interval HH:MM: "00:50" (50 minutes), "02:30" (2 hours 30 minutes)
//   - Cron (crontab.guru-style): "*/10 * * * *", "@hourly", "@every 55m"
//
// Optional prefixes:
//   - "cron:" forces cron parsing
//   - "interval:" or "every:" forces interval parsing
type Schedule struct {
	raw   string
	every time.Duration
	cron  cron.Schedule
}

// DefaultSchedule mirrors the original ten-minute retry cadence.
const DefaultSchedule = "10m"

var reHHMM = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)

// ParseSchedule parses a schedule string.
func ParseSchedule(raw string) (Schedule, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Schedule{}, fmt.Errorf("schedule required")
	}

	low := strings.ToLower(s)
	switch {
	case strings.HasPrefix(low, "cron:"):
		expr := strings.TrimSpace(s[len("cron:"):])
		if expr == "" {
			return Schedule{}, fmt.Errorf("cron schedule required after 'cron:'")
		}
		return parseCron(raw, expr)
	case strings.HasPrefix(low, "interval:"):
		return parseIntervalSchedule(raw, strings.TrimSpace(s[len("interval:"):]))
	case strings.HasPrefix(low, "every:"):
		return parseIntervalSchedule(raw, strings.TrimSpace(s[len("every:"):]))
	}

	// Heuristics: any whitespace or leading '@' means cron.
	if strings.ContainsAny(s, " \t\n\r") || strings.HasPrefix(s, "@") {
		return parseCron(raw, s)
	}

	// HH:MM means interval.
	if reHHMM.MatchString(s) {
		d, err := parseHHMM(s)
		if err != nil {
			return Schedule{}, err
		}
		return Schedule{raw: raw, every: d}, nil
	}

	// Go duration means interval.
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return Schedule{}, fmt.Errorf("interval must be > 0")
		}
		return Schedule{raw: raw, every: d}, nil
	}

	return Schedule{}, fmt.Errorf(
		"invalid schedule %q (use a duration like '10m', HH:MM like '02:30', or cron like '*/10 * * * *')",
		raw,
	)
}

func parseCron(raw, expr string) (Schedule, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}
	return Schedule{raw: raw, cron: sched}, nil
}

func parseIntervalSchedule(raw, v string) (Schedule, error) {
	if v == "" {
		return Schedule{}, fmt.Errorf("interval required")
	}
	if reHHMM.MatchString(v) {
		d, err := parseHHMM(v)
		if err != nil {
			return Schedule{}, err
		}
		return Schedule{raw: raw, every: d}, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid interval %q (use HH:MM or a Go duration like '55m')", v)
	}
	if d <= 0 {
		return Schedule{}, fmt.Errorf("interval must be > 0")
	}
	return Schedule{raw: raw, every: d}, nil
}

func parseHHMM(v string) (time.Duration, error) {
	m := reHHMM.FindStringSubmatch(v)
	if len(m) != 3 {
		return 0, fmt.Errorf("invalid HH:MM %q", v)
	}
	var hh int
	for i := 0; i < len(m[1]); i++ {
		hh = hh*10 + int(m[1][i]-'0')
	}
	mm := int(m[2][0]-'0')*10 + int(m[2][1]-'0')
	if mm > 59 {
		return 0, fmt.Errorf("invalid minutes in %q", v)
	}
	d := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
	if d <= 0 {
		return 0, fmt.Errorf("interval must be > 0")
	}
	return d, nil
}

// IsCron reports whether the schedule is cron-based.
func (s Schedule) IsCron() bool { return s.cron != nil }

// Every returns the fixed interval (zero for cron schedules).
func (s Schedule) Every() time.Duration { return s.every }

// Next returns the next activation after now. The zero Schedule falls back
// to the default interval.
func (s Schedule) Next(now time.Time) time.Time {
	if s.cron != nil {
		return s.cron.Next(now)
	}
	every := s.every
	if every <= 0 {
		every = 10 * time.Minute
	}
	return now.Add(every)
}

func (s Schedule) String() string {
	if s.raw == "" {
		return DefaultSchedule
	}
	return s.raw
}
