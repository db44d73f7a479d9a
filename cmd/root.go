package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// RootCmd はアプリケーションのベースコマンド（"gemini-pr-reviewer-go" 本体）です。
// サブコマンドなしで実行された場合は review と同じ処理を行います。
var RootCmd = &cobra.Command{
	Use:   "gemini-pr-reviewer-go",
	Short: "Gemini AIを使ってGitHubのプルリクエストをレビューするCLIツール",
	Long: `このツールは、GitHub Actions のプルリクエストイベントから変更ファイルを取得し、
Gemini APIに渡してコードレビューを行い、結果をPRコメントとして投稿します。

設定は環境変数 (.env を含む) またはフラグで指定します。

利用可能なサブコマンド:
  review  (デフォルト) PRをレビューしてコメントを投稿
  models  generateContent に対応したGeminiモデルの一覧を表示`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewCmd.RunE(cmd, args)
	},
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.String("event-path", "", "PRイベントJSONのパス (GITHUB_EVENT_PATH)")
	flags.String("gemini-model", "gemini-2.5-flash", "使用するGeminiモデル名 (GEMINI_MODEL)")
	flags.Bool("discover-model", false, "モデル一覧から利用可能なモデルを自動選択します (GEMINI_DISCOVER_MODEL)")
	flags.Int("max-prompt-bytes", 0, "プロンプトの最大バイト数。0 は無制限 (GEMINI_MAX_PROMPT_BYTES)")
	flags.String("format", "rich", "コメントの整形スタイル: 'rich' または 'raw' (REVIEW_FORMAT)")
	flags.Bool("inline-comments", false, "INLINE SUGGESTION をインラインレビューとして投稿します (REVIEW_INLINE_COMMENTS)")
	flags.Bool("auto-merge", false, "総合判定が承認の場合に squash マージします (REVIEW_AUTO_MERGE)")
	flags.String("checklist", "", "埋め込みチェックリストの代わりに使用するファイル (REVIEW_CHECKLIST_PATH)")
	flags.String("slack-webhook-url", "", "結果の要約を送る Slack Incoming Webhook URL (SLACK_WEBHOOK_URL)")
	flags.String("archive-uri", "", "レビュー結果のHTMLを保存する GCS URI gs://bucket/object (REVIEW_ARCHIVE_URI)")
	flags.String("log-level", "info", "ログレベル: debug, info, warn, error (LOG_LEVEL)")

	RootCmd.AddCommand(reviewCmd, modelsCmd)
}

// setupLogger はデフォルトロガーを標準エラー出力向けに設定します。
func setupLogger(level slog.Level) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// Execute はルートコマンドを実行し、アプリケーションを起動します。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		// エラー発生時にエラーメッセージを出力し、終了コード1で終了
		fmt.Fprintln(os.Stderr, "エラー:", err)
		stop()
		os.Exit(1)
	}
}
