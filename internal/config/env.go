package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables holding the three required credentials.
const (
	EnvPracticumToken = "PRACTICUM_TOKEN"
	EnvTelegramToken  = "TELEGRAM_TOKEN"
	EnvTelegramChatID = "TELEGRAM_CHAT_ID"
)

// MissingCredentialsError is a fatal startup precondition failure: the
// process must exit before the poll loop starts.
type MissingCredentialsError struct {
	Names []string
}

func (e *MissingCredentialsError) Error() string {
	return "missing required credentials: " + strings.Join(e.Names, ", ")
}

// Credentials are read strictly from the environment and are immutable for
// the lifetime of the process (no hot reload).
type Credentials struct {
	PracticumToken string
	TelegramToken  string
	ChatID         int64
}

// LoadCredentials reads and validates all required credentials. All missing
// variables are reported at once.
func LoadCredentials() (Credentials, error) {
	return loadCredentials(os.Getenv)
}

func loadCredentials(getenv func(string) string) (Credentials, error) {
	var missing []string

	practicum := strings.TrimSpace(getenv(EnvPracticumToken))
	if practicum == "" {
		missing = append(missing, EnvPracticumToken)
	}
	telegram := strings.TrimSpace(getenv(EnvTelegramToken))
	if telegram == "" {
		missing = append(missing, EnvTelegramToken)
	}
	rawChat := strings.TrimSpace(getenv(EnvTelegramChatID))
	if rawChat == "" {
		missing = append(missing, EnvTelegramChatID)
	}

	if len(missing) > 0 {
		return Credentials{}, &MissingCredentialsError{Names: missing}
	}

	chatID, err := strconv.ParseInt(rawChat, 10, 64)
	if err != nil {
		return Credentials{}, fmt.Errorf("%s: not a valid chat id: %w", EnvTelegramChatID, err)
	}

	return Credentials{
		PracticumToken: practicum,
		TelegramToken:  telegram,
		ChatID:         chatID,
	}, nil
}
