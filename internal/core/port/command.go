package port

import (
	"context"
	"restorebot/internal/core/domain"
	"time"
)

// Command answers one bot command word.
type Command interface {
	// Respond handles message. timeout bounds the work the command starts on behalf of the message.
	Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error
	// GetCommand is the command word, e.g. "/restore".
	GetCommand() string
}

type CommandRegistry interface {
	Register(handler Command)
	// Get returns domain.ErrUnknownCommand for words without a handler.
	Get(command string) (Command, error)
	// ListCommands returns the registered command words, sorted.
	ListCommands() []string
}
