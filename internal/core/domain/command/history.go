package command

import (
	"context"
	"fmt"
	"restorebot/internal/core/domain"
	"restorebot/internal/core/port"
	"restorebot/internal/core/service"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type History struct {
	ledger     port.Ledger
	textSender port.TextSender
	auth       service.Authorizer
	command    string
}

func NewHistory(ledger port.Ledger, textSender port.TextSender, auth service.Authorizer, command string) *History {
	return &History{ledger: ledger, textSender: textSender, auth: auth, command: command}
}

func (h *History) GetCommand() string {
	return h.command
}

func (h *History) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", h.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !h.auth.IsAuthorized(ctx, message.ChatID) {
		l.Debug().Msg("not authorized")
		return nil
	}

	args := CommandArgs(message.Text)
	if len(args) != 1 {
		return h.textSender.NotifyAndReturnError(ctx, fmt.Errorf("usage: %s <image id>", h.command), message)
	}

	imageID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return h.textSender.NotifyAndReturnError(ctx, fmt.Errorf("invalid image id %q", args[0]), message)
	}

	img, err := h.ledger.GetImage(ctx, message.ChatID, imageID)
	if err != nil {
		return h.textSender.NotifyAndReturnError(ctx, err, message)
	}

	versions, err := h.ledger.ListVersions(ctx, img.ID)
	if err != nil {
		err = fmt.Errorf("error listing versions: %w", err)
		return h.textSender.NotifyAndReturnError(ctx, err, message)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("#%d %s\n", img.ID, img.OriginalName))
	for _, v := range versions {
		sb.WriteString(fmt.Sprintf("v%d %s: %s\n", v.Version, v.CreatedAt.Format("2006-01-02 15:04"),
			domain.DescribeOperations(v.Operations)))
	}

	if _, err := h.textSender.SendMessageReply(ctx, message, strings.TrimSuffix(sb.String(), "\n")); err != nil {
		l.Error().Err(err).Msg("failed to send history")
		return fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}
