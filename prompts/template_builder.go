package prompts

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"gemini-pr-reviewer-go/internal/review"
)

// --- テンプレートのリソース定義 (go:embed) ---

//go:embed checklist.md
var ChecklistTemplate string

//go:embed inline_suggestion.md
var InlineSuggestionTemplate string

//go:embed review_prompt.tmpl
var reviewPromptLayout string

// ErrPromptTooLarge は差分をすべて省略してもプロンプトが上限を超える場合に返されます。
var ErrPromptTooLarge = errors.New("プロンプトがサイズ上限を超えています")

// ----------------------------------------------------------------
// テンプレート構造体
// ----------------------------------------------------------------

// ReviewTemplateData はレビュープロンプトの組み立てに必要な入力です。
type ReviewTemplateData struct {
	Title             string
	Description       string
	Files             []review.ChangedFile
	InlineSuggestions bool
}

// fileSection はテンプレート内で 1 ファイル分の差分を描画するためのビューです。
type fileSection struct {
	Filename string
	Patch    string
	Elided   bool
}

type layoutData struct {
	Checklist          string
	InlineInstructions string
	Title              string
	Description        string
	Files              []fileSection
}

// ----------------------------------------------------------------
// ビルダー実装
// ----------------------------------------------------------------

// ReviewPromptBuilder はレビュープロンプトの構成を管理します。
type ReviewPromptBuilder struct {
	tmpl      *template.Template
	checklist string
}

// NewReviewPromptBuilder は埋め込みのチェックリストで ReviewPromptBuilder を初期化します。
func NewReviewPromptBuilder() (*ReviewPromptBuilder, error) {
	return NewReviewPromptBuilderWithChecklist(ChecklistTemplate)
}

// NewReviewPromptBuilderWithChecklist は任意のチェックリスト本文で ReviewPromptBuilder を初期化します。
// チェックリストはテンプレートとして解釈せず、そのままプロンプトに埋め込みます。
func NewReviewPromptBuilderWithChecklist(checklist string) (*ReviewPromptBuilder, error) {
	if strings.TrimSpace(checklist) == "" {
		return nil, fmt.Errorf("チェックリストの内容が空です")
	}

	tmpl, err := template.New("review_prompt").Parse(reviewPromptLayout)
	if err != nil {
		return nil, fmt.Errorf("プロンプトテンプレートの解析に失敗しました: %w", err)
	}
	return &ReviewPromptBuilder{tmpl: tmpl, checklist: strings.TrimRight(checklist, "\n")}, nil
}

// Build は PR 情報と全ファイルの差分を埋め込み、Gemini へ送る最終的なプロンプト文字列を完成させます。
// ファイルの順序は入力のまま維持され、切り詰めは行いません。
func (b *ReviewPromptBuilder) Build(data ReviewTemplateData) (string, error) {
	return b.render(data, len(data.Files))
}

// BuildWithinLimit は Build と同じですが、結果が maxBytes を超える場合は末尾のファイルから順に
// 差分本文を省略します (ファイル名と順序は残ります)。戻り値の 2 つ目は省略したファイル数です。
// maxBytes が 0 以下の場合は上限を適用しません。
func (b *ReviewPromptBuilder) BuildWithinLimit(data ReviewTemplateData, maxBytes int) (string, int, error) {
	prompt, err := b.Build(data)
	if err != nil || maxBytes <= 0 || len(prompt) <= maxBytes {
		return prompt, 0, err
	}

	for kept := len(data.Files) - 1; kept >= 0; kept-- {
		prompt, err = b.render(data, kept)
		if err != nil {
			return "", 0, err
		}
		if len(prompt) <= maxBytes {
			return prompt, len(data.Files) - kept, nil
		}
	}

	return "", 0, fmt.Errorf("%w (上限: %d バイト, 差分省略後: %d バイト)", ErrPromptTooLarge, maxBytes, len(prompt))
}

// render は先頭から kept 個のファイルのみ差分本文を含めて描画します。
func (b *ReviewPromptBuilder) render(data ReviewTemplateData, kept int) (string, error) {
	if b.tmpl == nil {
		return "", fmt.Errorf("レビュープロンプトテンプレートが適切に初期化されていません。NewReviewPromptBuilderが正しく呼び出されたか確認してください")
	}

	view := layoutData{
		Checklist:   b.checklist,
		Title:       data.Title,
		Description: strings.TrimSpace(data.Description),
		Files:       make([]fileSection, 0, len(data.Files)),
	}
	if data.InlineSuggestions {
		view.InlineInstructions = strings.TrimRight(InlineSuggestionTemplate, "\n")
	}
	for i, f := range data.Files {
		view.Files = append(view.Files, fileSection{
			Filename: f.Filename,
			Patch:    strings.TrimRight(f.Patch, "\n"),
			Elided:   i >= kept,
		})
	}

	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, view); err != nil {
		return "", fmt.Errorf("レビュープロンプトの実行に失敗しました: %w", err)
	}
	return sb.String(), nil
}
