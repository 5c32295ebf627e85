package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hwbot/internal/transport"
	"hwbot/pkg/logx"
)

// CommandManager handles the small operational command surface exposed in
// the target chat. Messages from any other chat are ignored.
type CommandManager struct {
	log     logx.Logger
	adapter transport.Adapter
	chatID  int64
	app     *App
}

func NewCommandManager(log logx.Logger, adapter transport.Adapter, chatID int64, app *App) *CommandManager {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &CommandManager{log: log, adapter: adapter, chatID: chatID, app: app}
}

// DispatchLoop consumes incoming updates until ctx is canceled.
func (m *CommandManager) DispatchLoop(ctx context.Context, updates <-chan transport.Update) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			m.handle(ctx, up)
		}
	}
}

func (m *CommandManager) handle(ctx context.Context, up transport.Update) {
	if up.ChatID != m.chatID {
		m.log.Debug("ignoring message from foreign chat",
			logx.Int64("chat_id", up.ChatID))
		return
	}

	cmd := command(up.Text)
	if cmd == "" {
		return
	}

	var reply string
	switch cmd {
	case "/status":
		reply = m.statusText()
	case "/help", "/start":
		reply = helpText
	default:
		return
	}

	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := m.adapter.SendText(sctx, transport.ChatTarget{ChatID: m.chatID}, reply, nil); err != nil {
		m.log.Warn("command reply failed", logx.String("cmd", cmd), logx.Err(err))
	}
}

// command extracts the leading slash command, stripping a @botname suffix.
func command(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := strings.Fields(text)[0]
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}

const helpText = `Commands:
/status - poll loop state (last status, cursor, counters)
/help - this message

I watch your homework review status and message you when it changes.`

func (m *CommandManager) statusText() string {
	snap := m.app.poll.Snapshot()

	var b strings.Builder
	fmt.Fprintf(&b, "Uptime: %s\n", time.Since(m.app.startedAt).Round(time.Second))
	fmt.Fprintf(&b, "Schedule: %s\n", snap.Schedule)
	fmt.Fprintf(&b, "Iterations: %d (failures: %d)\n", snap.Iterations, snap.Failures)
	fmt.Fprintf(&b, "Notifications sent: %d\n", snap.Notifications)
	if snap.LastStatus != "" {
		fmt.Fprintf(&b, "Last status: %s\n", snap.LastStatus)
	} else {
		b.WriteString("Last status: (none yet)\n")
	}
	if snap.LastError != "" {
		fmt.Fprintf(&b, "Last error: %s\n", snap.LastError)
	}
	if !snap.LastAt.IsZero() {
		fmt.Fprintf(&b, "Last poll: %s\n", snap.LastAt.Format(time.RFC3339))
	}
	if !snap.NextAt.IsZero() {
		fmt.Fprintf(&b, "Next poll: %s\n", snap.NextAt.Format(time.RFC3339))
	}
	if snap.Cursor != 0 {
		fmt.Fprintf(&b, "Cursor: %d", snap.Cursor)
	}
	return strings.TrimRight(b.String(), "\n")
}
