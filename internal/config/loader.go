package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultEnvFile はローカル実行時に読み込む .env ファイルです。CI 上では通常存在しません。
const DefaultEnvFile = ".env"

// envBindings は設定キーと環境変数名の対応表です。
var envBindings = map[string]string{
	"github.repository":        "GITHUB_REPOSITORY",
	"github.token":             "GITHUB_TOKEN",
	"github.event_path":        "GITHUB_EVENT_PATH",
	"github.api_url":           "GITHUB_API_URL",
	"gemini.api_key":           "GEMINI_API_KEY",
	"gemini.model":             "GEMINI_MODEL",
	"gemini.base_url":          "GEMINI_BASE_URL",
	"gemini.discover_model":    "GEMINI_DISCOVER_MODEL",
	"gemini.max_prompt_bytes":  "GEMINI_MAX_PROMPT_BYTES",
	"review.format":            "REVIEW_FORMAT",
	"review.inline_comments":   "REVIEW_INLINE_COMMENTS",
	"review.auto_merge":        "REVIEW_AUTO_MERGE",
	"review.checklist_path":    "REVIEW_CHECKLIST_PATH",
	"notify.slack_webhook_url": "SLACK_WEBHOOK_URL",
	"notify.archive_uri":       "REVIEW_ARCHIVE_URI",
	"logging.level":            "LOG_LEVEL",
}

// flagBindings は設定キーとコマンドラインフラグ名の対応表です。
var flagBindings = map[string]string{
	"github.event_path":        "event-path",
	"gemini.model":             "gemini-model",
	"gemini.discover_model":    "discover-model",
	"gemini.max_prompt_bytes":  "max-prompt-bytes",
	"review.format":            "format",
	"review.inline_comments":   "inline-comments",
	"review.auto_merge":        "auto-merge",
	"review.checklist_path":    "checklist",
	"notify.slack_webhook_url": "slack-webhook-url",
	"notify.archive_uri":       "archive-uri",
	"logging.level":            "log-level",
}

// Load は .env・環境変数・フラグから設定を構築し、検証済みの Config を返します。
// 優先順位はフラグ (明示指定時) > 環境変数 > .env > デフォルト値です。
func Load(flags *pflag.FlagSet) (Config, error) {
	return LoadFrom(DefaultEnvFile, flags)
}

// LoadFrom は .env のパスを指定して Load を行います。
func LoadFrom(envFile string, flags *pflag.FlagSet) (Config, error) {
	cfg, err := read(envFile, flags)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadGemini は Gemini API の設定のみを読み込みます。GitHub 関連の必須項目は検証しません。
func LoadGemini(envFile string, flags *pflag.FlagSet) (GeminiConfig, error) {
	cfg, err := read(envFile, flags)
	if err != nil {
		return GeminiConfig{}, err
	}
	if strings.TrimSpace(cfg.Gemini.APIKey) == "" {
		return GeminiConfig{}, fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
	}
	return cfg.Gemini, nil
}

func read(envFile string, flags *pflag.FlagSet) (Config, error) {
	// .env は既存の環境変数を上書きしない
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf(".env ファイルの読み込みに失敗しました (%s): %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnvs(v); err != nil {
		return Config{}, err
	}
	if err := bindFlags(v, flags); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("設定のデコードに失敗しました: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("github.api_url", "https://api.github.com/")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.discover_model", false)
	v.SetDefault("gemini.max_prompt_bytes", 0)
	v.SetDefault("review.format", "rich")
	v.SetDefault("review.inline_comments", false)
	v.SetDefault("review.auto_merge", false)
	v.SetDefault("logging.level", "info")
}

func bindEnvs(v *viper.Viper) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("環境変数 %s のバインドに失敗しました: %w", env, err)
		}
	}
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for key, name := range flagBindings {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("フラグ --%s のバインドに失敗しました: %w", name, err)
		}
	}
	return nil
}
