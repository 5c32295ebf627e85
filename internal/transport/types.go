// Package transport defines the chat-platform boundary. The rest of the
// program talks to an Adapter; the Telegram implementation lives in the
// telegram subpackage.
package transport

import "context"

// Update is an incoming chat message (owner commands like /status).
type Update struct {
	MessageID    int
	ChatID       int64
	FromID       int64
	FromUsername string
	Text         string
}

type ChatTarget struct {
	ChatID int64
}

type MessageRef struct {
	ChatID    int64
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

type Adapter interface {
	// Start begins delivering incoming updates to out. Non-blocking.
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}
