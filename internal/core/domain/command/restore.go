package command

import (
	"context"
	"fmt"
	"path/filepath"
	"restorebot/internal/core/domain"
	"restorebot/internal/core/port"
	"restorebot/internal/core/service"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Restorer interface {
	Upload(ctx context.Context, ownerID int64, name string, data []byte) (*domain.Image, error)
	Restore(ctx context.Context, ownerID, imageID int64, req domain.ProcessingRequest) (*service.RestoreResult, error)
}

type Restore struct {
	restorer    Restorer
	downloader  port.Downloader
	storage     port.Storage
	imageSender port.ImageSender
	textSender  port.TextSender
	track       service.Tracker
	auth        service.Authorizer
	command     string
}

func NewRestore(restorer Restorer,
	downloader port.Downloader,
	storage port.Storage,
	imageSender port.ImageSender,
	textSender port.TextSender,
	auth service.Authorizer,
	track service.Tracker,
	command string) *Restore {
	return &Restore{restorer: restorer,
		downloader:  downloader,
		storage:     storage,
		imageSender: imageSender,
		textSender:  textSender,
		track:       track,
		auth:        auth,
		command:     command}
}

func (r *Restore) GetCommand() string {
	return r.command
}

const (
	operationList = "upscale, face, colorize, sharpen[=amount], denoise[=strength], contrast=x, saturation=x, gamma=x"
	restoreUsage  = "send or reply to a photo with /restore [operations], or use /restore <image id> [operations]. " +
		"Operations: " + operationList
)

func (r *Restore) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("imageURL", message.ImageURL).
		Str("command", r.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !r.auth.IsAuthorized(ctx, message.ChatID) {
		l.Debug().Msg("not authorized")
		return nil
	}

	if !r.track.CheckLimit(ctx, message.ChatID) {
		l.Debug().Msg("run limit reached")
		return nil
	}

	args := CommandArgs(message.Text)

	var imageID int64
	if len(args) > 0 {
		if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
			imageID = id
			args = args[1:]
		}
	}

	if imageID == 0 && message.ImageURL == "" {
		return r.textSender.NotifyAndReturnError(ctx, fmt.Errorf("%w: %s", domain.ErrMissingImage, restoreUsage), message)
	}

	req, err := domain.ParseOperations(args)
	if err != nil {
		return r.textSender.NotifyAndReturnError(ctx, err, message)
	}
	if req.IsEmpty() {
		return r.textSender.NotifyAndReturnError(ctx, fmt.Errorf("%w: %s", domain.ErrEmptyRequest, restoreUsage), message)
	}

	go r.textSender.SendChatAction(ctx, message.ChatID, domain.UploadingDocument)

	if imageID == 0 {
		data, err := r.downloader.Download(ctx, message.ImageURL)
		if err != nil {
			err = fmt.Errorf("error downloading image: %w", err)
			return r.textSender.NotifyAndReturnError(ctx, err, message)
		}

		img, err := r.restorer.Upload(ctx, message.ChatID, message.ImageName, data)
		if err != nil {
			err = fmt.Errorf("error storing image: %w", err)
			return r.textSender.NotifyAndReturnError(ctx, err, message)
		}
		imageID = img.ID
	}

	l = l.With().Int64("imageId", imageID).Logger()

	res, err := r.restorer.Restore(ctx, message.ChatID, imageID, req)
	if err != nil {
		l.Error().Err(err).Msg("restore failed")
		err = fmt.Errorf("restore failed: %w", err)
		return r.textSender.NotifyAndReturnError(ctx, err, message)
	}

	r.track.AddRun(message.ChatID)

	caption := fmt.Sprintf("image %d, version %d", res.ImageID, res.Version)
	if res.Info.Width > 0 {
		caption += fmt.Sprintf(" (%dx%d)", res.Info.Width, res.Info.Height)
	}

	return sendArtifact(ctx, r.storage, r.imageSender, r.textSender, message, res.ImageID, res.Version, res.Path, caption)
}

// sendArtifact replies with a stored artifact as a document named <image>_v<version><ext>.
func sendArtifact(ctx context.Context, storage port.Storage, imageSender port.ImageSender,
	textSender port.TextSender, message *domain.Message, imageID int64, version int, path, caption string) error {
	data, err := storage.Read(path)
	if err != nil {
		err = fmt.Errorf("error reading artifact: %w", err)
		return textSender.NotifyAndReturnError(ctx, err, message)
	}

	filename := fmt.Sprintf("%d_v%d%s", imageID, version, filepath.Ext(path))
	if err := imageSender.SendImageFileReply(ctx, message, filename, data, caption); err != nil {
		err = fmt.Errorf("error sending image: %w", err)
		return textSender.NotifyAndReturnError(ctx, err, message)
	}

	return nil
}
