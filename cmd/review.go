package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"gemini-pr-reviewer-go/internal/builder"
	"gemini-pr-reviewer-go/internal/config"
	"gemini-pr-reviewer-go/internal/event"
	"gemini-pr-reviewer-go/internal/review"
	"gemini-pr-reviewer-go/internal/runner"
)

// reviewCmd は、PRイベントの対象プルリクエストをレビューし、結果をコメントとして投稿するコマンドです。
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "プルリクエストをレビューし、その結果をPRコメントとして投稿します。",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}

		level, _ := cfg.LogLevel()
		setupLogger(level)

		_, err = runReview(cmd.Context(), cfg)
		return err
	},
}

// runReview はイベントを読み込み、依存関係を構築してレビューを実行します。
// イベントが不正な場合はクライアントを構築する前に終了します。
func runReview(ctx context.Context, cfg config.Config) (runner.Outcome, error) {
	// --- 1. イベントの読み込み ---
	payload, err := event.Load(cfg.GitHub.EventPath)
	if err != nil {
		return runner.Outcome{}, err
	}

	owner, repo, err := cfg.OwnerRepo()
	if err != nil {
		return runner.Outcome{}, err
	}
	ref := review.PullRequestRef{
		Owner:  owner,
		Repo:   repo,
		Number: payload.Number,
		Title:  payload.Title,
		Body:   payload.Body,
	}
	slog.Info("レビュー対象のプルリクエスト", "pr", ref.String(), "action", payload.Action)

	// --- 2. 依存関係の構築（Builder パッケージを使用） ---
	reviewRunner, cleanup, err := builder.BuildReviewRunner(ctx, cfg)
	if err != nil {
		return runner.Outcome{}, err
	}
	defer cleanup()

	// --- 3. レビューの実行 ---
	outcome, err := reviewRunner.Run(ctx, ref)
	if err != nil {
		return outcome, fmt.Errorf("レビュー処理に失敗しました (%s): %w", ref, err)
	}

	slog.Info("レビュー処理が完了しました。",
		"pr", ref.String(),
		"inline_suggestions", len(outcome.Suggestions),
		"merged", outcome.Merge.Merged)
	return outcome, nil
}
