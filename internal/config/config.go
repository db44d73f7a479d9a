// Package config は、環境変数・.env・コマンドラインフラグからレビュー実行設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-remote-io/pkg/remoteio"

	"gemini-pr-reviewer-go/internal/review"
)

// ErrMissingRequired は必須の設定値が欠けている場合に返されます。
var ErrMissingRequired = errors.New("必須の設定値が指定されていません")

// Config はAIコードレビューに必要なすべての設定を含みます。
// プロセス開始時に一度だけ構築され、各コンポーネントへ値として渡されます。
type Config struct {
	GitHub  GitHubConfig  `mapstructure:"github"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	Review  ReviewConfig  `mapstructure:"review"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// GitHubConfig は GitHub API とイベントペイロードに関する設定です。
type GitHubConfig struct {
	Repository string `mapstructure:"repository"`
	Token      string `mapstructure:"token"`
	EventPath  string `mapstructure:"event_path"`
	APIURL     string `mapstructure:"api_url"`
}

// GeminiConfig は Gemini API に関する設定です。
type GeminiConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	BaseURL        string `mapstructure:"base_url"`
	DiscoverModel  bool   `mapstructure:"discover_model"`
	MaxPromptBytes int    `mapstructure:"max_prompt_bytes"`
}

// ReviewConfig は結果の投稿方法に関する設定です。
type ReviewConfig struct {
	Format         string `mapstructure:"format"`
	InlineComments bool   `mapstructure:"inline_comments"`
	AutoMerge      bool   `mapstructure:"auto_merge"`
	ChecklistPath  string `mapstructure:"checklist_path"`
}

// NotifyConfig は任意の通知先に関する設定です。
type NotifyConfig struct {
	SlackWebhookURL string `mapstructure:"slack_webhook_url"`
	ArchiveURI      string `mapstructure:"archive_uri"`
}

// LoggingConfig はロガーの設定です。
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Validate は必須項目の欠落と値の妥当性をまとめて検証します。
func (c Config) Validate() error {
	var missing []string
	required := []struct {
		env   string
		value string
	}{
		{"GITHUB_REPOSITORY", c.GitHub.Repository},
		{"GITHUB_TOKEN", c.GitHub.Token},
		{"GITHUB_EVENT_PATH", c.GitHub.EventPath},
		{"GEMINI_API_KEY", c.Gemini.APIKey},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}

	if _, _, err := c.OwnerRepo(); err != nil {
		return err
	}
	if _, err := review.ParseStyle(c.Review.Format); err != nil {
		return err
	}
	if c.Gemini.Model == "" && !c.Gemini.DiscoverModel {
		return fmt.Errorf("%w: GEMINI_MODEL (または GEMINI_DISCOVER_MODEL=true)", ErrMissingRequired)
	}
	if c.Gemini.MaxPromptBytes < 0 {
		return fmt.Errorf("GEMINI_MAX_PROMPT_BYTES は 0 以上である必要があります: %d", c.Gemini.MaxPromptBytes)
	}
	if c.Notify.ArchiveURI != "" {
		if _, _, err := ParseGCSURI(c.Notify.ArchiveURI); err != nil {
			return err
		}
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// OwnerRepo は "owner/repo" 形式の GITHUB_REPOSITORY を分解します。
func (c Config) OwnerRepo() (owner, repo string, err error) {
	parts := strings.Split(strings.TrimSpace(c.GitHub.Repository), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("GITHUB_REPOSITORY は 'owner/repo' 形式である必要があります: '%s'", c.GitHub.Repository)
	}
	return parts[0], parts[1], nil
}

// Style は検証済みの整形スタイルを返します。
func (c Config) Style() review.Style {
	style, err := review.ParseStyle(c.Review.Format)
	if err != nil {
		return review.StyleRich
	}
	return style
}

// LogLevel は logging.level を slog.Level に変換します。
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Logging.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("無効なログレベルが指定されました: '%s'", c.Logging.Level)
	}
	return level, nil
}

// ParseGCSURI は remoteio.ParseGCSURI で URI を分解し、オブジェクトパスが空でないことを検証します。
func ParseGCSURI(gcsURI string) (bucketName, objectPath string, err error) {
	bucketName, objectPath, err = remoteio.ParseGCSURI(gcsURI)
	if err != nil {
		return "", "", fmt.Errorf("無効なGCS URIです (%s): %w", gcsURI, err)
	}
	if bucketName == "" || objectPath == "" {
		return "", "", fmt.Errorf("無効なGCS URIフォーマットです。バケット名とオブジェクトパスが不足しています: %s", gcsURI)
	}
	return bucketName, objectPath, nil
}
