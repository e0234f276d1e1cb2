package config

import (
	"fmt"
	"path/filepath"
	"restorebot/internal/core/domain"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultStorageDir     = "./storage"
	defaultHandlerTimeout = 10 * time.Minute
	defaultWorkers        = 1
)

type Config struct {
	LogLevel string
	Telegram Telegram
	Handler  Handler
	Storage  Storage
	Pipeline Pipeline
}

type Telegram struct {
	BotToken       string
	AllowedChatIDs []int64
	AdminUsername  string
	DailyRunLimit  int
}

type Handler struct {
	Timeout time.Duration
}

type Storage struct {
	Dir      string
	Database string
}

// Pipeline settings. A nil command or model path means the setting is absent.
type Pipeline struct {
	Workers     int
	ToolTimeout time.Duration
	Tools       Tools
	Models      Models
}

type Tools struct {
	Colorize       *string
	FaceRestore    *string
	FaceBackground *string
	Upscale        *string
}

type Models struct {
	Upscale        *string
	FaceRestore    *string
	FaceBackground *string
	FaceDetector   *string
}

// Read loads config.toml from the working directory into the global viper instance.
func Read() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read config file %w", err)
	}

	return Load(viper.GetViper())
}

// Load builds a Config from an already populated viper instance.
func Load(v *viper.Viper) (*Config, error) {
	v.SetDefault("bot.log_level", "info")
	v.SetDefault("storage.dir", defaultStorageDir)
	v.SetDefault("pipeline.workers", defaultWorkers)

	cfg := &Config{
		LogLevel: v.GetString("bot.log_level"),
		Telegram: Telegram{
			BotToken:      v.GetString("telegram.bot_token"),
			AdminUsername: v.GetString("telegram.admin_username"),
			DailyRunLimit: v.GetInt("telegram.daily_run_limit"),
		},
		Storage: Storage{
			Dir:      v.GetString("storage.dir"),
			Database: v.GetString("storage.database"),
		},
		Pipeline: Pipeline{
			Workers: v.GetInt("pipeline.workers"),
		},
	}

	if err := v.UnmarshalKey("telegram.allowed_chat_ids", &cfg.Telegram.AllowedChatIDs); err != nil {
		return nil, fmt.Errorf("failed to load allowed chat IDs %w", err)
	}

	if cfg.Telegram.DailyRunLimit < 0 {
		return nil, &domain.ValidationError{Field: "telegram.daily_run_limit", Reason: "must not be negative"}
	}

	if cfg.Pipeline.Workers < 1 {
		return nil, &domain.ValidationError{Field: "pipeline.workers", Reason: "must be at least 1"}
	}

	if cfg.Storage.Database == "" {
		cfg.Storage.Database = filepath.Join(cfg.Storage.Dir, "restore.db")
	}

	var err error
	if cfg.Handler.Timeout, err = duration(v, "handler.timeout", defaultHandlerTimeout); err != nil {
		return nil, err
	}
	if cfg.Pipeline.ToolTimeout, err = duration(v, "pipeline.tool_timeout", 0); err != nil {
		return nil, err
	}

	optionals := []struct {
		key    string
		target **string
	}{
		{"pipeline.tools.colorize", &cfg.Pipeline.Tools.Colorize},
		{"pipeline.tools.face_restore", &cfg.Pipeline.Tools.FaceRestore},
		{"pipeline.tools.face_background", &cfg.Pipeline.Tools.FaceBackground},
		{"pipeline.tools.upscale", &cfg.Pipeline.Tools.Upscale},
		{"pipeline.models.upscale", &cfg.Pipeline.Models.Upscale},
		{"pipeline.models.face_restore", &cfg.Pipeline.Models.FaceRestore},
		{"pipeline.models.face_background", &cfg.Pipeline.Models.FaceBackground},
		{"pipeline.models.face_detector", &cfg.Pipeline.Models.FaceDetector},
	}
	for _, o := range optionals {
		if *o.target, err = optional(v, o.key); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// optional distinguishes an absent key (nil) from one configured as an empty string, which is rejected.
func optional(v *viper.Viper, key string) (*string, error) {
	if !v.IsSet(key) {
		return nil, nil
	}

	s := v.GetString(key)
	if s == "" {
		return nil, &domain.ValidationError{Field: key, Reason: "must not be empty when set"}
	}

	return &s, nil
}

func duration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	if !v.IsSet(key) {
		return fallback, nil
	}

	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d < 0 {
		return 0, &domain.ValidationError{Field: key, Reason: fmt.Sprintf("invalid duration %q", v.GetString(key))}
	}

	return d, nil
}
