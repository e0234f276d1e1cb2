package command

import (
	"context"
	"fmt"
	"restorebot/internal/core/domain"
	"restorebot/internal/core/port"
	"strings"
	"time"
)

// Help lists the registered commands and the operations /restore understands.
type Help struct {
	registry port.CommandRegistry
	sender   port.TextSender
	command  string
}

func NewHelp(registry port.CommandRegistry, sender port.TextSender, command string) *Help {
	return &Help{registry: registry, sender: sender, command: command}
}

func (h *Help) GetCommand() string {
	return h.command
}

const helpMessage = "Send a photo with /restore and a list of operations, e.g. /restore face upscale contrast=1.2.\n" +
	"Commands: %s\n" +
	"Operations: %s"

func (h *Help) Respond(ctx context.Context, _ time.Duration, message *domain.Message) error {
	text := fmt.Sprintf(helpMessage, strings.Join(h.registry.ListCommands(), ", "), operationList)

	if _, err := h.sender.SendMessageReply(ctx, message, text); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}
