package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v71/github"

	"gemini-pr-reviewer-go/internal/review"
)

const (
	listFilesPerPage = 100
	mergeMethod      = "squash"
	reviewEvent      = "COMMENT"
	reviewSide       = "RIGHT"
)

// PullRequestService は、GitHub のプルリクエスト操作の抽象化を提供し、DIで使用されます。
type PullRequestService interface {
	// GetPullRequest は PR のタイトル・本文・URL を埋めた ref を返します。
	GetPullRequest(ctx context.Context, ref review.PullRequestRef) (review.PullRequestRef, error)
	// ListChangedFiles は API の返却順のまま変更ファイルを返します。ページングは内部で完結します。
	ListChangedFiles(ctx context.Context, ref review.PullRequestRef) ([]review.ChangedFile, error)
	// PostComment は PR に Issue コメントを 1 件投稿します。
	PostComment(ctx context.Context, ref review.PullRequestRef, body string) error
	// CreateInlineReview はすべての提案を 1 回のレビューとしてまとめて投稿します。
	CreateInlineReview(ctx context.Context, ref review.PullRequestRef, suggestions []review.InlineSuggestion) error
	// MergePullRequest は squash 方式でマージし、マージコミットの SHA を返します。
	MergePullRequest(ctx context.Context, ref review.PullRequestRef, commitTitle string) (string, error)
}

// GitHubAdapter は go-github のクライアントをラップし、PullRequestService を実装します。
type GitHubAdapter struct {
	client *github.Client
}

// NewGitHubAdapter はトークン認証済みの GitHubAdapter を初期化します。
// apiURL が空の場合は github.com の API を使用します。httpClient が nil の場合は既定のクライアントを使用します。
func NewGitHubAdapter(token, apiURL string, httpClient *http.Client) (*GitHubAdapter, error) {
	client := github.NewClient(httpClient).WithAuthToken(token)

	if apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		base, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("GitHub API URL の解析に失敗しました (%s): %w", apiURL, err)
		}
		client.BaseURL = base
	}

	return &GitHubAdapter{client: client}, nil
}

// GetPullRequest は PullRequestService インターフェースを満たします。
func (ga *GitHubAdapter) GetPullRequest(ctx context.Context, ref review.PullRequestRef) (review.PullRequestRef, error) {
	pr, _, err := ga.client.PullRequests.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return ref, fmt.Errorf("プルリクエスト %s の取得に失敗しました: %w", ref, err)
	}

	if title := pr.GetTitle(); title != "" {
		ref.Title = title
	}
	if body := pr.GetBody(); body != "" {
		ref.Body = body
	}
	ref.HTMLURL = pr.GetHTMLURL()
	return ref, nil
}

// ListChangedFiles は PullRequestService インターフェースを満たします。
func (ga *GitHubAdapter) ListChangedFiles(ctx context.Context, ref review.PullRequestRef) ([]review.ChangedFile, error) {
	var files []review.ChangedFile
	opts := &github.ListOptions{PerPage: listFilesPerPage}

	for {
		page, resp, err := ga.client.PullRequests.ListFiles(ctx, ref.Owner, ref.Repo, ref.Number, opts)
		if err != nil {
			return nil, fmt.Errorf("変更ファイル一覧の取得に失敗しました (%s, page %d): %w", ref, opts.Page, err)
		}

		for _, f := range page {
			name := f.GetFilename()
			if name == "" {
				slog.Warn("ファイル名のない変更ファイルをスキップします。", "pr", ref.String())
				continue
			}
			files = append(files, review.ChangedFile{Filename: name, Patch: f.GetPatch()})
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return files, nil
}

// PostComment は PullRequestService インターフェースを満たします。
func (ga *GitHubAdapter) PostComment(ctx context.Context, ref review.PullRequestRef, body string) error {
	comment := &github.IssueComment{Body: github.Ptr(body)}
	if _, _, err := ga.client.Issues.CreateComment(ctx, ref.Owner, ref.Repo, ref.Number, comment); err != nil {
		return fmt.Errorf("プルリクエスト %s へのコメント投稿に失敗しました: %w", ref, err)
	}
	return nil
}

// CreateInlineReview は PullRequestService インターフェースを満たします。
func (ga *GitHubAdapter) CreateInlineReview(ctx context.Context, ref review.PullRequestRef, suggestions []review.InlineSuggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	comments := make([]*github.DraftReviewComment, 0, len(suggestions))
	for _, s := range suggestions {
		comments = append(comments, &github.DraftReviewComment{
			Path: github.Ptr(s.File),
			Line: github.Ptr(s.Line),
			Side: github.Ptr(reviewSide),
			Body: github.Ptr(s.Comment),
		})
	}

	req := &github.PullRequestReviewRequest{
		Body:     github.Ptr(fmt.Sprintf("🤖 Gemini AI inline suggestions (%d)", len(suggestions))),
		Event:    github.Ptr(reviewEvent),
		Comments: comments,
	}
	if _, _, err := ga.client.PullRequests.CreateReview(ctx, ref.Owner, ref.Repo, ref.Number, req); err != nil {
		return fmt.Errorf("インラインレビューの投稿に失敗しました (%s, %d 件): %w", ref, len(suggestions), err)
	}
	return nil
}

// MergePullRequest は PullRequestService インターフェースを満たします。
func (ga *GitHubAdapter) MergePullRequest(ctx context.Context, ref review.PullRequestRef, commitTitle string) (string, error) {
	opts := &github.PullRequestOptions{
		CommitTitle: commitTitle,
		MergeMethod: mergeMethod,
	}
	result, _, err := ga.client.PullRequests.Merge(ctx, ref.Owner, ref.Repo, ref.Number, "", opts)
	if err != nil {
		return "", fmt.Errorf("プルリクエスト %s のマージに失敗しました: %w", ref, err)
	}
	if !result.GetMerged() {
		return "", fmt.Errorf("プルリクエスト %s はマージされませんでした: %s", ref, result.GetMessage())
	}
	return result.GetSHA(), nil
}
