package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"gemini-pr-reviewer-go/internal/review"
)

// Notifier はレビュー完了を外部へ通知する機能の抽象化です。
type Notifier interface {
	Notify(ctx context.Context, summary review.Summary) error
}

// SlackNotifier は Slack Incoming Webhook へレビュー結果の要約を投稿します。
type SlackNotifier struct {
	webhookURL string
}

// NewSlackNotifier は SlackNotifier の新しいインスタンスを作成します。
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL}
}

// Notify は Notifier インターフェースを満たします。
func (n *SlackNotifier) Notify(ctx context.Context, summary review.Summary) error {
	msg := buildSlackMessage(summary)
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return fmt.Errorf("Slack への通知に失敗しました: %w", err)
	}
	return nil
}

func buildSlackMessage(summary review.Summary) *slack.WebhookMessage {
	ref := summary.Ref

	// 通知用の代替テキスト
	notificationText := fmt.Sprintf("✅ Gemini AI レビュー完了: %s", ref)

	target := ref.String()
	if ref.HTMLURL != "" {
		target = fmt.Sprintf("<%s|%s>", ref.HTMLURL, ref.String())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*PR:* %s\n", target)
	if ref.Title != "" {
		fmt.Fprintf(&sb, "*Title:* %s\n", ref.Title)
	}
	recommendation := summary.Recommendation
	if recommendation == "" {
		recommendation = "(総合判定行が見つかりませんでした)"
	}
	fmt.Fprintf(&sb, "*Result:* %s\n", recommendation)
	fmt.Fprintf(&sb, "*Inline suggestions:* %d", summary.Suggestions)
	if summary.Merged {
		sb.WriteString("\n*Auto-merge:* merged (squash)")
	}

	headerBlock := slack.NewHeaderBlock(
		slack.NewTextBlockObject(slack.PlainTextType, "🤖 Gemini AI Code Review Result:", true, false),
	)
	sectionBlock := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, sb.String(), false, false),
		nil,
		nil,
	)

	return &slack.WebhookMessage{
		Text: notificationText,
		Blocks: &slack.Blocks{
			BlockSet: []slack.Block{headerBlock, sectionBlock},
		},
	}
}
