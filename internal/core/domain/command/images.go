package command

import (
	"context"
	"fmt"
	"restorebot/internal/core/domain"
	"restorebot/internal/core/port"
	"restorebot/internal/core/service"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Images struct {
	ledger     port.Ledger
	textSender port.TextSender
	auth       service.Authorizer
	command    string
}

func NewImages(ledger port.Ledger, textSender port.TextSender, auth service.Authorizer, command string) *Images {
	return &Images{ledger: ledger, textSender: textSender, auth: auth, command: command}
}

func (i *Images) GetCommand() string {
	return i.command
}

const noImages = "No images yet. Send a photo with /restore to get started."

func (i *Images) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", i.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !i.auth.IsAuthorized(ctx, message.ChatID) {
		l.Debug().Msg("not authorized")
		return nil
	}

	images, err := i.ledger.ListImages(ctx, message.ChatID)
	if err != nil {
		err = fmt.Errorf("error listing images: %w", err)
		return i.textSender.NotifyAndReturnError(ctx, err, message)
	}

	text := noImages
	if len(images) > 0 {
		var sb strings.Builder
		sb.WriteString("Your images:\n")
		for _, img := range images {
			sb.WriteString(fmt.Sprintf("#%d %s (updated %s)\n", img.ID, img.OriginalName,
				img.UpdatedAt.Format("2006-01-02 15:04")))
		}
		text = strings.TrimSuffix(sb.String(), "\n")
	}

	if _, err := i.textSender.SendMessageReply(ctx, message, text); err != nil {
		l.Error().Err(err).Msg("failed to send image list")
		return fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}
