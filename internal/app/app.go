// Package app wires configuration, transport, the poll loop, the notifier
// and the journal into one process.
package app

import (
	"context"
	"fmt"
	"time"

	"hwbot/internal/config"
	"hwbot/internal/eventbus"
	"hwbot/internal/journal"
	"hwbot/internal/notifier"
	"hwbot/internal/poller"
	"hwbot/internal/practicum"
	"hwbot/internal/runtime/supervisor"
	"hwbot/internal/transport"
	"hwbot/internal/transport/telegram"
	"hwbot/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store journal.Store

	creds   config.Credentials
	adapter transport.Adapter

	client *practicum.Client
	notif  *notifier.Service
	poll   *poller.Service

	cmdm *CommandManager
	sd   *sdNotifier

	startedAt time.Time
	updates   chan transport.Update
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	// Credentials come strictly from the environment and must all be present
	// before anything touches the network. telegram.New performs a getMe
	// call, so this check stays first.
	creds, err := config.LoadCredentials()
	if err != nil {
		return nil, err
	}

	schedule, err := poller.ParseSchedule(pollSchedule(cfg))
	if err != nil {
		return nil, fmt.Errorf("poll.schedule: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       creds.TelegramToken,
		PollTimeout: pollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	bus := eventbus.New()

	reqTimeout, err := config.ParseDurationOrDefault("practicum.request_timeout", cfg.Practicum.RequestTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	client := practicum.NewClient(practicum.Config{
		Endpoint: cfg.Practicum.Endpoint,
		Token:    creds.PracticumToken,
		Timeout:  reqTimeout,
	}, log.With(logx.String("comp", "practicum")))

	ncfg, err := mapNotifierConfig(cfg)
	if err != nil {
		return nil, err
	}
	notif := notifier.New(ncfg, ad, transport.ChatTarget{ChatID: creds.ChatID},
		log.With(logx.String("comp", "notifier")))

	// Journal (optional)
	var store journal.Store
	if jc, enabled, err := mapJournalConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		st, err := journal.Open(jc, log.With(logx.String("comp", "journal")))
		if err != nil {
			return nil, err
		}
		store = st
		if store != nil {
			log.Info("journal enabled", logx.String("driver", jc.Driver))
		}
	}

	poll := poller.New(schedule, client, notif, bus, log)

	a := &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		store:   store,
		creds:   creds,
		adapter: ad,
		client:  client,
		notif:   notif,
		poll:    poll,
		sd:      newSDNotifier(log.With(logx.String("comp", "systemd"))),
		updates: make(chan transport.Update, 64),
	}
	a.cmdm = NewCommandManager(log.With(logx.String("comp", "commands")), ad, creds.ChatID, a)
	return a, nil
}

// Done is closed when the app supervisor context is canceled.
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.startedAt = time.Now()
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithCancelOnError(true),
	)

	// Transactional config reload: validate before commit/publish.
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(c context.Context, cfg *config.Config) error {
		if _, err := poller.ParseSchedule(pollSchedule(cfg)); err != nil {
			return fmt.Errorf("poll.schedule: %w", err)
		}
		if _, err := mapNotifierConfig(cfg); err != nil {
			return err
		}
		if _, _, err := mapJournalConfig(cfg); err != nil {
			return err
		}
		return nil
	})

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}

	// The poll loop is the reason this process exists; keep it alive under a
	// restart policy even if an iteration path panics.
	a.sup.GoRestart("poller.run", func(c context.Context) error {
		return a.poll.Run(c)
	},
		supervisor.WithRestartBackoff(time.Second, 30*time.Second),
		supervisor.WithPublishFirstError(true),
	)

	a.sup.Go("commands.dispatch", func(c context.Context) error {
		return a.cmdm.DispatchLoop(c, a.updates)
	})

	// Feed the journal and debug logs from iteration outcome events.
	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.consume", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
				a.journalEvent(c, e)
			}
		}
	})

	// Hot-reload fan-out.
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				a.applyConfig(newCfg)
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.sd.Ready(a.sup)

	a.log.Info("app started", logx.Int64("chat_id", a.creds.ChatID))
	return nil
}

// applyConfig applies a validated hot-reloaded config to the live services.
// Credentials and the journal driver are deliberately not reloadable.
func (a *App) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	if sched, err := poller.ParseSchedule(pollSchedule(cfg)); err == nil {
		a.poll.Apply(sched)
	} else {
		a.log.Warn("invalid poll schedule; keeping previous", logx.Err(err))
	}

	if ncfg, err := mapNotifierConfig(cfg); err == nil {
		a.notif.Apply(ncfg)
	} else {
		a.log.Warn("invalid notifier config; keeping previous", logx.Err(err))
	}

	if reqTimeout, err := config.ParseDurationField("practicum.request_timeout", cfg.Practicum.RequestTimeout); err == nil {
		a.client.Apply(practicum.Config{
			Endpoint: cfg.Practicum.Endpoint,
			Timeout:  reqTimeout,
		})
	} else {
		a.log.Warn("invalid practicum config; keeping previous", logx.Err(err))
	}

	a.log.Info("config reloaded")
}

func (a *App) journalEvent(ctx context.Context, e eventbus.Event) {
	if a.store == nil {
		return
	}
	o, ok := e.Data.(poller.Outcome)
	if !ok {
		return
	}
	err := a.store.Append(ctx, journal.Entry{
		At:      o.At,
		Outcome: o.Kind,
		Status:  o.Status,
		Text:    o.Text,
		Error:   o.Err,
		Cursor:  o.Cursor,
	})
	if err != nil {
		a.log.Warn("journal append failed", logx.Err(err))
	}
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")
	a.sd.Stopping()

	// Cancel the run context first so background loops start unwinding.
	a.sup.Cancel()

	// Run each shutdown step with an upper bound so one component can't
	// stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			if dl, ok := ctx.Deadline(); ok {
				if rem := time.Until(dl); rem > 0 && rem < max {
					max = rem
				}
			}
			stepCtx, cancel = context.WithTimeout(ctx, max)
			defer cancel()
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name), logx.Err(stepCtx.Err()))
		}
	}

	step("adapter", 2*time.Second, func(c context.Context) error { return a.adapter.Stop(c) })
	step("journal", time.Second, func(c context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}

func pollSchedule(cfg *config.Config) string {
	if cfg == nil || cfg.Poll.Schedule == "" {
		return poller.DefaultSchedule
	}
	return cfg.Poll.Schedule
}

func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	if cfg == nil {
		return notifier.Config{}, nil
	}
	sendTimeout, err := config.ParseDurationField("notifier.send_timeout", cfg.Notifier.SendTimeout)
	if err != nil {
		return notifier.Config{}, err
	}
	return notifier.Config{
		RatePerSec:  cfg.Notifier.RatePerSec,
		SendTimeout: sendTimeout,
	}, nil
}

func mapJournalConfig(cfg *config.Config) (journal.Config, bool, error) {
	if cfg == nil || cfg.Journal == nil {
		return journal.Config{}, false, nil
	}
	busy, err := config.ParseDurationField("journal.busy_timeout", cfg.Journal.BusyTimeout)
	if err != nil {
		return journal.Config{}, false, err
	}
	jc := journal.Config{
		Driver:      cfg.Journal.Driver,
		Path:        cfg.Journal.Path,
		BusyTimeout: busy,
	}
	return jc, true, nil
}
