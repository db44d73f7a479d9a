package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemini-pr-reviewer-go/internal/review"
)

// unsetAll は既存の環境変数を退避して未設定状態にします。終了時に元へ戻ります。
func unsetAll(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_REPOSITORY", "acme/web")
	t.Setenv("GITHUB_TOKEN", "gh-token")
	t.Setenv("GITHUB_EVENT_PATH", "/tmp/event.json")
	t.Setenv("GEMINI_API_KEY", "gm-key")
}

func TestLoad_Defaults(t *testing.T) {
	unsetAll(t)
	setRequired(t)

	cfg, err := LoadFrom("", nil)
	require.NoError(t, err)

	assert.Equal(t, "acme/web", cfg.GitHub.Repository)
	assert.Equal(t, "https://api.github.com/", cfg.GitHub.APIURL)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 0, cfg.Gemini.MaxPromptBytes)
	assert.False(t, cfg.Review.AutoMerge)
	assert.False(t, cfg.Review.InlineComments)
	assert.Equal(t, review.StyleRich, cfg.Style())

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_MissingRequired(t *testing.T) {
	unsetAll(t)
	t.Setenv("GITHUB_REPOSITORY", "acme/web")

	_, err := LoadFrom("", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingRequired))
	assert.Contains(t, err.Error(), "GITHUB_TOKEN")
	assert.Contains(t, err.Error(), "GITHUB_EVENT_PATH")
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
	assert.NotContains(t, err.Error(), "GITHUB_REPOSITORY")
}

func TestLoad_EnvOverrides(t *testing.T) {
	unsetAll(t)
	setRequired(t)
	t.Setenv("REVIEW_AUTO_MERGE", "true")
	t.Setenv("REVIEW_INLINE_COMMENTS", "1")
	t.Setenv("REVIEW_FORMAT", "raw")
	t.Setenv("GEMINI_MAX_PROMPT_BYTES", "50000")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFrom("", nil)
	require.NoError(t, err)

	assert.True(t, cfg.Review.AutoMerge)
	assert.True(t, cfg.Review.InlineComments)
	assert.Equal(t, review.StyleRaw, cfg.Style())
	assert.Equal(t, 50000, cfg.Gemini.MaxPromptBytes)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	unsetAll(t)
	setRequired(t)
	t.Setenv("GEMINI_MODEL", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("gemini-model", "", "")
	flags.Bool("auto-merge", false, "")
	require.NoError(t, flags.Parse([]string{"--gemini-model=from-flag", "--auto-merge"}))

	cfg, err := LoadFrom("", flags)
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.Gemini.Model)
	assert.True(t, cfg.Review.AutoMerge)
}

func TestLoad_UnchangedFlagDoesNotOverrideEnv(t *testing.T) {
	unsetAll(t)
	setRequired(t)
	t.Setenv("GEMINI_MODEL", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("gemini-model", "flag-default", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadFrom("", flags)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Gemini.Model)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	unsetAll(t)
	t.Setenv("GITHUB_REPOSITORY", "acme/real")

	envFile := filepath.Join(t.TempDir(), ".env")
	content := "GITHUB_REPOSITORY=acme/fromfile\nGITHUB_TOKEN=file-token\nGITHUB_EVENT_PATH=/e.json\nGEMINI_API_KEY=file-key\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := LoadFrom(envFile, nil)
	require.NoError(t, err)

	assert.Equal(t, "acme/real", cfg.GitHub.Repository)
	assert.Equal(t, "file-token", cfg.GitHub.Token)
	assert.Equal(t, "file-key", cfg.Gemini.APIKey)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	unsetAll(t)
	setRequired(t)

	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.env"), nil)
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		GitHub:  GitHubConfig{Repository: "acme/web", Token: "t", EventPath: "/e.json"},
		Gemini:  GeminiConfig{APIKey: "k", Model: "gemini-2.5-flash"},
		Review:  ReviewConfig{Format: "rich"},
		Logging: LoggingConfig{Level: "info"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad repository", func(c *Config) { c.GitHub.Repository = "acme" }},
		{"bad format", func(c *Config) { c.Review.Format = "html" }},
		{"no model", func(c *Config) { c.Gemini.Model = "" }},
		{"negative limit", func(c *Config) { c.Gemini.MaxPromptBytes = -1 }},
		{"bad archive uri", func(c *Config) { c.Notify.ArchiveURI = "s3://bucket/key" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	t.Run("discovery without model", func(t *testing.T) {
		c := valid
		c.Gemini.Model = ""
		c.Gemini.DiscoverModel = true
		assert.NoError(t, c.Validate())
	})
}

func TestOwnerRepo(t *testing.T) {
	owner, repo, err := Config{GitHub: GitHubConfig{Repository: "acme/web"}}.OwnerRepo()
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "web", repo)
}

func TestParseGCSURI(t *testing.T) {
	bucket, object, err := ParseGCSURI("gs://reviews/pr/7.html")
	require.NoError(t, err)
	assert.Equal(t, "reviews", bucket)
	assert.Equal(t, "pr/7.html", object)

	for _, uri := range []string{"reviews/pr.html", "gs://", "gs://bucket", "gs://bucket/"} {
		_, _, err := ParseGCSURI(uri)
		assert.Error(t, err, uri)
	}
}

func TestLoadGemini_SkipsGitHubRequirements(t *testing.T) {
	unsetAll(t)
	t.Setenv("GEMINI_API_KEY", "gm-key")

	gemini, err := LoadGemini("", nil)
	require.NoError(t, err)
	assert.Equal(t, "gm-key", gemini.APIKey)
	assert.Equal(t, "gemini-2.5-flash", gemini.Model)

	unsetAll(t)
	_, err = LoadGemini("", nil)
	assert.True(t, errors.Is(err, ErrMissingRequired))
}
