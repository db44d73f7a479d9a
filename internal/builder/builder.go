package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gemini-pr-reviewer-go/internal/adapters"
	"gemini-pr-reviewer-go/internal/config"
	"gemini-pr-reviewer-go/internal/runner"
	"gemini-pr-reviewer-go/prompts"
)

// BuildGitHubService は GitHub API アダプタを構築します。
func BuildGitHubService(cfg config.Config) (*adapters.GitHubAdapter, error) {
	githubService, err := adapters.NewGitHubAdapter(cfg.GitHub.Token, cfg.GitHub.APIURL, nil)
	if err != nil {
		return nil, fmt.Errorf("GitHub Service の構築に失敗しました: %w", err)
	}
	slog.Debug("GitHubService (Adapter) を構築しました。", "api_url", cfg.GitHub.APIURL)
	return githubService, nil
}

// BuildGeminiService は Gemini アダプタを構築します。
// モデル自動選択が有効な場合はモデル一覧を取得して使用モデルを決定します。
func BuildGeminiService(ctx context.Context, gemini config.GeminiConfig) (*adapters.GeminiAdapter, error) {
	geminiService, err := adapters.NewGeminiAdapter(ctx, adapters.GeminiOptions{
		APIKey:  gemini.APIKey,
		Model:   gemini.Model,
		BaseURL: gemini.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("Gemini Service の構築に失敗しました: %w", err)
	}

	if gemini.DiscoverModel {
		model, err := geminiService.ResolveModel(ctx, gemini.Model)
		if err != nil {
			return nil, fmt.Errorf("使用するGeminiモデルの決定に失敗しました: %w", err)
		}
		if model != gemini.Model {
			slog.Info("指定モデルが利用できないため、別のモデルを使用します。", "requested", gemini.Model, "model", model)
		}
		geminiService.UseModel(model)
	}

	slog.Debug("GeminiService (Adapter) を構築しました。", "model", geminiService.ModelName())
	return geminiService, nil
}

// BuildReviewPromptBuilder は埋め込みチェックリスト、または指定ファイルのチェックリストでビルダーを初期化します。
func BuildReviewPromptBuilder(cfg config.Config) (*prompts.ReviewPromptBuilder, error) {
	if cfg.Review.ChecklistPath == "" {
		return prompts.NewReviewPromptBuilder()
	}

	checklist, err := os.ReadFile(cfg.Review.ChecklistPath)
	if err != nil {
		return nil, fmt.Errorf("チェックリストファイルの読み込みに失敗しました (%s): %w", cfg.Review.ChecklistPath, err)
	}
	slog.Debug("カスタムチェックリストを使用します。", "path", cfg.Review.ChecklistPath)
	return prompts.NewReviewPromptBuilderWithChecklist(string(checklist))
}

// BuildReviewRunner は、必要な依存関係をすべて構築し、
// 実行可能な ReviewRunner のインスタンスを返します。
// 戻り値の cleanup は実行終了後に呼び出してください。
func BuildReviewRunner(ctx context.Context, cfg config.Config) (*runner.ReviewRunner, func(), error) {
	cleanup := func() {}

	// 1. GitHubService の構築
	githubService, err := BuildGitHubService(cfg)
	if err != nil {
		return nil, cleanup, err
	}

	// 2. GeminiService の構築
	geminiService, err := BuildGeminiService(ctx, cfg.Gemini)
	if err != nil {
		return nil, cleanup, err
	}

	// 3. Prompt Builder の構築
	promptBuilder, err := BuildReviewPromptBuilder(cfg)
	if err != nil {
		return nil, cleanup, fmt.Errorf("Prompt Builder の構築に失敗しました: %w", err)
	}
	slog.Debug("PromptBuilderを構築しました。")

	// 4. 任意の通知先
	var runnerOpts []runner.RunnerOption
	if cfg.Notify.SlackWebhookURL != "" {
		runnerOpts = append(runnerOpts, runner.WithNotifier(adapters.NewSlackNotifier(cfg.Notify.SlackWebhookURL)))
		slog.Debug("Slack 通知を有効にしました。")
	}
	if cfg.Notify.ArchiveURI != "" {
		gcsClient, err := adapters.NewGCSUploader(ctx)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() {
			if err := gcsClient.Close(); err != nil {
				slog.Warn("GCSクライアントのクローズに失敗しました。", "error", err)
			}
		}
		archiver := adapters.NewGCSArchiver(gcsClient, adapters.NewMarkdownRenderer())
		runnerOpts = append(runnerOpts, runner.WithArchiver(archiver))
		slog.Debug("GCS アーカイブを有効にしました。", "uri", cfg.Notify.ArchiveURI)
	}

	// 5. 依存関係を注入して Runner を組み立てる
	reviewRunner := runner.NewReviewRunner(
		githubService,
		geminiService,
		promptBuilder,
		runner.Options{
			Style:          cfg.Style(),
			InlineComments: cfg.Review.InlineComments,
			AutoMerge:      cfg.Review.AutoMerge,
			MaxPromptBytes: cfg.Gemini.MaxPromptBytes,
			ArchiveURI:     cfg.Notify.ArchiveURI,
		},
		runnerOpts...,
	)

	slog.Debug("ReviewRunner の構築が完了しました。")
	return reviewRunner, cleanup, nil
}
