package runner

import (
	"context"
	"fmt"
	"log/slog"

	"gemini-pr-reviewer-go/internal/adapters"
	"gemini-pr-reviewer-go/internal/review"
	"gemini-pr-reviewer-go/prompts"
)

// Options は結果の投稿方法を制御します。
type Options struct {
	Style          review.Style
	InlineComments bool
	AutoMerge      bool
	MaxPromptBytes int
	ArchiveURI     string
}

// Outcome は 1 回の実行で行った副作用の記録です。
type Outcome struct {
	Ref           review.PullRequestRef
	ReviewText    string
	CommentPosted bool
	Suggestions   []review.InlineSuggestion
	Merge         review.MergeOutcome
}

// RunnerOption は ReviewRunner の任意の依存関係を設定するための関数です。
type RunnerOption func(*ReviewRunner)

// WithNotifier はコメント投稿後に要約を送る通知先を設定します。
func WithNotifier(n adapters.Notifier) RunnerOption {
	return func(r *ReviewRunner) {
		r.notifier = n
	}
}

// WithArchiver はコメント投稿後にレビュー結果を保存するアーカイバを設定します。
func WithArchiver(a adapters.ReviewArchiver) RunnerOption {
	return func(r *ReviewRunner) {
		r.archiver = a
	}
}

// ReviewRunner はコードレビューのビジネスロジックを実行します。
// 必要な依存関係（アダプタ）をフィールドとして保持します。
type ReviewRunner struct {
	github        adapters.PullRequestService
	gemini        adapters.CodeReviewAI
	promptBuilder *prompts.ReviewPromptBuilder
	notifier      adapters.Notifier
	archiver      adapters.ReviewArchiver
	opts          Options
}

// NewReviewRunner は ReviewRunner の新しいインスタンスを生成します。
// 依存関係はコンストラクタ経由で注入されます。
func NewReviewRunner(
	github adapters.PullRequestService,
	gemini adapters.CodeReviewAI,
	pb *prompts.ReviewPromptBuilder,
	opts Options,
	runnerOpts ...RunnerOption,
) *ReviewRunner {
	r := &ReviewRunner{
		github:        github,
		gemini:        gemini,
		promptBuilder: pb,
		opts:          opts,
	}
	for _, opt := range runnerOpts {
		opt(r)
	}
	return r
}

// Run は変更ファイルの取得からコメント投稿・自動マージまでを順に実行します。
// 1〜4 段階目のいずれかが失敗した場合、コメントは投稿されません。
// マージ・通知・アーカイブの失敗はログに記録するのみで、エラーとしては返しません。
func (r *ReviewRunner) Run(ctx context.Context, ref review.PullRequestRef) (Outcome, error) {
	outcome := Outcome{Ref: ref}

	// --- 1. PR 情報と変更ファイルの取得 ---
	slog.Info("プルリクエスト情報を取得します。", "pr", ref.String())
	ref, err := r.github.GetPullRequest(ctx, ref)
	if err != nil {
		return outcome, err
	}
	outcome.Ref = ref

	files, err := r.github.ListChangedFiles(ctx, ref)
	if err != nil {
		return outcome, err
	}
	slog.Info("変更ファイルの取得に成功しました。", "pr", ref.String(), "files", len(files))

	// --- 2. プロンプトの組み立て ---
	data := prompts.ReviewTemplateData{
		Title:             ref.Title,
		Description:       ref.Body,
		Files:             files,
		InlineSuggestions: r.opts.InlineComments,
	}
	finalPrompt, elided, err := r.promptBuilder.BuildWithinLimit(data, r.opts.MaxPromptBytes)
	if err != nil {
		return outcome, fmt.Errorf("プロンプトの組み立てに失敗しました: %w", err)
	}
	if elided > 0 {
		slog.Warn("プロンプトがサイズ上限を超えたため、一部ファイルの差分を省略しました。",
			"elided_files", elided, "limit_bytes", r.opts.MaxPromptBytes)
	}
	slog.Debug("プロンプトを生成しました。", "size_bytes", len(finalPrompt))

	// --- 3. AIレビューの実行 ---
	slog.Info("Gemini AIによるコードレビューを開始します。")
	reviewText, err := r.gemini.ReviewCodeDiff(ctx, finalPrompt)
	if err != nil {
		return outcome, fmt.Errorf("AIレビューの実行に失敗しました: %w", err)
	}
	outcome.ReviewText = reviewText
	slog.Info("AIレビューの取得に成功しました。", "size_bytes", len(reviewText))

	// --- 4. コメント投稿 ---
	body := review.CommentBody(reviewText, r.opts.Style)
	if err := r.github.PostComment(ctx, ref, body); err != nil {
		return outcome, err
	}
	outcome.CommentPosted = true
	slog.Info("レビュー結果をコメントとして投稿しました。", "pr", ref.String(), "style", string(r.opts.Style))

	// --- 5. インライン提案 ---
	if r.opts.InlineComments {
		outcome.Suggestions = review.ExtractInlineSuggestions(reviewText)
		if len(outcome.Suggestions) > 0 {
			if err := r.github.CreateInlineReview(ctx, ref, outcome.Suggestions); err != nil {
				return outcome, err
			}
			slog.Info("インラインレビューを投稿しました。", "pr", ref.String(), "comments", len(outcome.Suggestions))
		} else {
			slog.Info("インライン提案は見つかりませんでした。")
		}
	}

	// --- 6. 自動マージ ---
	outcome.Merge = r.maybeMerge(ctx, ref, reviewText)

	// --- 7. 通知・アーカイブ ---
	r.notify(ctx, outcome)
	r.archive(ctx, ref, body)

	return outcome, nil
}

// maybeMerge は総合判定が承認の場合に squash マージを試みます。失敗は記録のみ行います。
func (r *ReviewRunner) maybeMerge(ctx context.Context, ref review.PullRequestRef, reviewText string) review.MergeOutcome {
	if !review.ShouldMerge(reviewText) {
		slog.Info("総合判定が承認ではないため、マージは行いません。", "recommendation", review.Recommendation(reviewText))
		return review.MergeOutcome{}
	}
	if !r.opts.AutoMerge {
		slog.Info("総合判定は承認ですが、自動マージは無効です。")
		return review.MergeOutcome{}
	}

	outcome := review.MergeOutcome{Attempted: true}
	sha, err := r.github.MergePullRequest(ctx, ref, MergeCommitTitle(ref))
	if err != nil {
		outcome.Err = err
		slog.Warn("自動マージに失敗しました。コメントは投稿済みのため処理を継続します。", "pr", ref.String(), "error", err)
		return outcome
	}

	outcome.Merged = true
	outcome.SHA = sha
	slog.Info("プルリクエストを squash マージしました。", "pr", ref.String(), "sha", sha)
	return outcome
}

func (r *ReviewRunner) notify(ctx context.Context, outcome Outcome) {
	if r.notifier == nil {
		return
	}
	summary := review.Summary{
		Ref:            outcome.Ref,
		Recommendation: review.Recommendation(outcome.ReviewText),
		Suggestions:    len(outcome.Suggestions),
		Merged:         outcome.Merge.Merged,
	}
	if err := r.notifier.Notify(ctx, summary); err != nil {
		slog.Warn("レビュー結果の通知に失敗しました。", "error", err)
	}
}

func (r *ReviewRunner) archive(ctx context.Context, ref review.PullRequestRef, body string) {
	if r.archiver == nil || r.opts.ArchiveURI == "" {
		return
	}
	title := fmt.Sprintf("AIコードレビュー結果 (%s)", ref)
	if err := r.archiver.Archive(ctx, r.opts.ArchiveURI, title, body); err != nil {
		slog.Warn("レビュー結果のアーカイブに失敗しました。", "uri", r.opts.ArchiveURI, "error", err)
		return
	}
	slog.Info("レビュー結果をアーカイブしました。", "uri", r.opts.ArchiveURI)
}

// MergeCommitTitle は自動マージ時のコミットタイトルを生成します。
func MergeCommitTitle(ref review.PullRequestRef) string {
	if ref.Title == "" {
		return fmt.Sprintf("AI review auto-merge (#%d)", ref.Number)
	}
	return fmt.Sprintf("AI review auto-merge: %s (#%d)", ref.Title, ref.Number)
}
