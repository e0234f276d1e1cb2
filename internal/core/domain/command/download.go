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

type Download struct {
	ledger      port.Ledger
	storage     port.Storage
	imageSender port.ImageSender
	textSender  port.TextSender
	auth        service.Authorizer
	command     string
}

func NewDownload(ledger port.Ledger,
	storage port.Storage,
	imageSender port.ImageSender,
	textSender port.TextSender,
	auth service.Authorizer,
	command string) *Download {
	return &Download{ledger: ledger,
		storage:     storage,
		imageSender: imageSender,
		textSender:  textSender,
		auth:        auth,
		command:     command}
}

func (d *Download) GetCommand() string {
	return d.command
}

func (d *Download) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", d.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !d.auth.IsAuthorized(ctx, message.ChatID) {
		l.Debug().Msg("not authorized")
		return nil
	}

	args := CommandArgs(message.Text)
	if len(args) < 1 || len(args) > 2 {
		return d.textSender.NotifyAndReturnError(ctx, fmt.Errorf("usage: %s <image id> [version]", d.command), message)
	}

	imageID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return d.textSender.NotifyAndReturnError(ctx, fmt.Errorf("invalid image id %q", args[0]), message)
	}

	img, err := d.ledger.GetImage(ctx, message.ChatID, imageID)
	if err != nil {
		return d.textSender.NotifyAndReturnError(ctx, err, message)
	}

	var record *domain.VersionRecord
	if len(args) == 2 {
		version, err := strconv.Atoi(strings.TrimPrefix(args[1], "v"))
		if err != nil {
			return d.textSender.NotifyAndReturnError(ctx, fmt.Errorf("invalid version %q", args[1]), message)
		}
		record, err = d.ledger.GetVersion(ctx, img.ID, version)
		if err != nil {
			return d.textSender.NotifyAndReturnError(ctx, err, message)
		}
	} else {
		versions, err := d.ledger.ListVersions(ctx, img.ID)
		if err != nil || len(versions) == 0 {
			return d.textSender.NotifyAndReturnError(ctx, domain.ErrVersionNotFound, message)
		}
		record = &versions[len(versions)-1]
	}

	go d.textSender.SendChatAction(ctx, message.ChatID, domain.UploadingDocument)

	caption := fmt.Sprintf("image %d, version %d: %s", img.ID, record.Version,
		domain.DescribeOperations(record.Operations))

	return sendArtifact(ctx, d.storage, d.imageSender, d.textSender, message, img.ID, record.Version, record.Path, caption)
}
