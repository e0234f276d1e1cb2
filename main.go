package main

import (
	"context"
	"os"
	"os/signal"
	"restorebot/internal/adapters/file"
	"restorebot/internal/adapters/filter"
	"restorebot/internal/adapters/handler"
	"restorebot/internal/adapters/ledger"
	"restorebot/internal/adapters/model"
	"restorebot/internal/adapters/sender"
	"restorebot/internal/adapters/stage"
	"restorebot/internal/adapters/tool"
	"restorebot/internal/config"
	"restorebot/internal/core/domain/command"
	"restorebot/internal/core/port"
	"restorebot/internal/core/service"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Info().Msg("starting restorebot...")

	log.Info().Msg("reading config file...")
	cfg, err := config.Read()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	logLevel, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || logLevel == zerolog.NoLevel {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	opts := []bot.Option{
		bot.WithDefaultHandler(noOpHandler),
	}

	b, err := bot.New(cfg.Telegram.BotToken, opts...)
	if err != nil {
		log.Panic().Err(err).Msg("failed initializing telegram bot")
	}

	s := sender.NewTelegram(b)

	store := file.NewStore(cfg.Storage.Dir)
	downloader := file.NewHTTPDownloader(cfg.Handler.Timeout)

	l, err := ledger.Open(cfg.Storage.Database)
	if err != nil {
		log.Panic().Err(err).Str("path", cfg.Storage.Database).Msg("failed opening ledger")
	}
	defer l.Close()

	invoker := tool.NewInvoker(cfg.Pipeline.ToolTimeout)
	tools := cfg.Pipeline.Tools
	weights := cfg.Pipeline.Models

	background := stage.NewBackground(invoker, tools.FaceBackground, weights.FaceBackground, model.LoadUpscaler)
	colorize := stage.NewColorize(invoker, tools.Colorize)
	faceRestore := stage.NewFaceRestore(invoker, tools.FaceRestore, weights.FaceRestore,
		model.FaceLoader(weights.FaceDetector), background)
	upscale := stage.NewUpscale(invoker, tools.Upscale, weights.Upscale, model.LoadUpscaler)

	pipeline := service.NewPipeline(colorize, faceRestore, upscale, filter.NewEngine())
	restorer := service.NewRestorer(l, store, pipeline, service.NewWorkerPool(cfg.Pipeline.Workers))

	auth := service.NewAuthorizer(cfg.Telegram.AllowedChatIDs, cfg.Telegram.AdminUsername, s)
	tracker := service.NewRunTracker(ctx, cfg.Telegram.DailyRunLimit, s)

	commandRegistry := command.NewRegistry()
	commandRegistry.Register(command.NewRestore(restorer, downloader, store, s, s, auth, tracker, "/restore"))
	commandRegistry.Register(command.NewImages(l, s, auth, "/images"))
	commandRegistry.Register(command.NewHistory(l, s, auth, "/history"))
	commandRegistry.Register(command.NewDownload(l, store, s, s, auth, "/download"))
	commandRegistry.Register(command.NewStatus([]port.CapabilityStatus{colorize, faceRestore, upscale}, s, "/status"))
	commandRegistry.Register(command.NewUsage(tracker, s, "/usage"))
	commandRegistry.Register(command.NewHelp(commandRegistry, s, "/help"))
	commandRegistry.Register(command.NewHelp(commandRegistry, s, "/start"))

	commandHandler := handler.NewCommand(commandRegistry, b, cfg.Handler.Timeout)

	b.RegisterHandler(bot.HandlerTypeMessageText, "/", bot.MatchTypePrefix, commandHandler.Handle)
	b.RegisterHandler(bot.HandlerTypePhotoCaption, "/", bot.MatchTypePrefix, commandHandler.Handle)

	log.Info().Msg("bot listening")
	b.Start(ctx)
}

func noOpHandler(_ context.Context, _ *bot.Bot, _ *models.Update) {}
