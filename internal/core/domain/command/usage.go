package command

import (
	"context"
	"fmt"
	"restorebot/internal/core/domain"
	"restorebot/internal/core/port"
	"restorebot/internal/core/service"
	"time"
)

type Usage struct {
	tracker service.Tracker
	sender  port.TextSender
	command string
}

func NewUsage(tracker service.Tracker, ts port.TextSender, command string) *Usage {
	return &Usage{
		tracker: tracker,
		sender:  ts,
		command: command,
	}
}

func (u *Usage) GetCommand() string {
	return u.command
}

const (
	usageMessage          = "Restore runs today within ChatID %d: %d of %d."
	usageMessageUnlimited = "Restore runs today within ChatID %d: %d."
)

func (u *Usage) Respond(ctx context.Context, _ time.Duration, message *domain.Message) error {
	runs, limit := u.tracker.GetRuns(message.ChatID), u.tracker.DailyLimit()

	text := fmt.Sprintf(usageMessage, message.ChatID, runs, limit)
	if limit == 0 {
		text = fmt.Sprintf(usageMessageUnlimited, message.ChatID, runs)
	}

	_, err := u.sender.SendMessageReply(ctx, message, text)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}
