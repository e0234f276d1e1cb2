package handler

import (
	"context"
	"errors"
	"mime"
	"restorebot/internal/core/domain"
	"restorebot/internal/core/domain/command"
	"restorebot/internal/core/port"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// FileLinker resolves Telegram file IDs to download URLs.
type FileLinker interface {
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

type Command struct {
	commandRegistry port.CommandRegistry
	files           FileLinker
	timeout         time.Duration
}

func NewCommand(commandRegistry port.CommandRegistry, files FileLinker, timeout time.Duration) *Command {
	return &Command{commandRegistry: commandRegistry, files: files, timeout: timeout}
}

func (c *Command) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	message := update.Message
	text := message.Text
	if text == "" {
		text = message.Caption
	}

	log.Debug().Str("message", text).Msg("received command")

	cmd := command.ParseCommand(text)
	commandHandler, err := c.commandRegistry.Get(cmd)
	if errors.Is(err, domain.ErrUnknownCommand) {
		log.Debug().Str("command", cmd).Msg("no handler for command")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("command", cmd).Msg("failed to look up command")
		return
	}

	var replyToMessageID *int
	if message.ReplyToMessage != nil {
		id := message.ReplyToMessage.ID
		replyToMessageID = &id
	}

	var imageURL, imageName string
	if fileID, name := findImage(message); fileID != "" {
		imageName = name
		imageURL = c.downloadLink(ctx, fileID)
	}

	go func() {
		err := commandHandler.Respond(context.Background(), c.timeout, &domain.Message{
			ID:               message.ID,
			ChatID:           message.Chat.ID,
			Text:             text,
			Username:         getUserNameFromMessage(message.From),
			ReplyToMessageID: replyToMessageID,
			ImageURL:         imageURL,
			ImageName:        imageName,
		})
		if err != nil {
			log.Err(err).Str("command", cmd).Msg("failed to respond to command")
		}
	}()
}

func (c *Command) downloadLink(ctx context.Context, fileID string) string {
	if c.files == nil {
		return ""
	}

	f, err := c.files.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		log.Error().Err(err).Msg("error getting file from telegram api")
		return ""
	}

	return c.files.FileDownloadLink(f)
}

// findImage returns the file ID and a file name for the image attached to the message, falling back to
// the message it replies to.
func findImage(message *models.Message) (string, string) {
	if fileID, name := imageOf(message); fileID != "" {
		return fileID, name
	}
	if message.ReplyToMessage != nil {
		return imageOf(message.ReplyToMessage)
	}
	return "", ""
}

func imageOf(message *models.Message) (string, string) {
	if doc := message.Document; doc != nil && strings.HasPrefix(doc.MimeType, "image/") {
		name := doc.FileName
		if name == "" {
			name = "document" + extensionFor(doc.MimeType)
		}
		return doc.FileID, name
	}

	if len(message.Photo) > 0 {
		return findLargestImage(message.Photo), "photo.jpg"
	}

	return "", ""
}

func extensionFor(mimeType string) string {
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ".jpg"
	}
	return exts[0]
}

// findLargestImage picks the highest resolution variant, restoration works on the full image.
func findLargestImage(photos []models.PhotoSize) string {
	largest := photos[len(photos)-1]
	for _, photo := range photos {
		if photo.Width*photo.Height > largest.Width*largest.Height {
			largest = photo
		}
	}

	return largest.FileID
}

func getUserNameFromMessage(user *models.User) string {
	if user == nil {
		return ""
	}
	if user.Username == "" {
		return user.FirstName
	}

	return "@" + user.Username
}
