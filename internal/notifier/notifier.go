// Package notifier sends verdict and failure messages to the fixed chat.
// One rate-limited, timeout-bounded send per call; a failed send becomes a
// DeliveryError and is never escalated or retried within the iteration.
package notifier

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"hwbot/internal/transport"
	"hwbot/pkg/logx"
)

// DeliveryError wraps a failed send. The poll loop logs it and moves on.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string { return "notify: delivery failed: " + e.Err.Error() }
func (e *DeliveryError) Unwrap() error { return e.Err }

type Config struct {
	RatePerSec  int
	SendTimeout time.Duration
}

type Service struct {
	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter

	adapter transport.Adapter
	target  transport.ChatTarget
	log     logx.Logger
}

func New(cfg Config, adapter transport.Adapter, target transport.ChatTarget, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{adapter: adapter, target: target, log: log}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	s.cfg = cfg
	// Token bucket: burst = rate per sec, so short spikes don't block hard.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Notify sends one text message to the configured chat.
func (s *Service) Notify(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	lim := s.limiter
	timeout := s.cfg.SendTimeout
	s.mu.Unlock()

	if err := lim.Wait(ctx); err != nil {
		return &DeliveryError{Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := s.adapter.SendText(callCtx, s.target, text, nil); err != nil {
		return &DeliveryError{Err: err}
	}

	s.log.Info("notification sent", logx.String("text", text))
	return nil
}
