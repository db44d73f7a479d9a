package review

import (
	"fmt"
	"strings"
)

// Style はコメント投稿時の整形スタイルです。
type Style string

const (
	// StyleRaw は AI の回答をそのまま投稿します。
	StyleRaw Style = "raw"
	// StyleRich は合否マーカーや FILE/LINE/ISSUE 行を Markdown の装飾ブロックに置き換えます。
	StyleRich Style = "rich"
)

// CommentHeading は投稿するコメント本文の先頭に付与する固定見出しです。
const CommentHeading = "## 🤖 Gemini AI Code Review"

const (
	passMarker   = "✅"
	failMarker   = "❌"
	filePrefix   = "FILE:"
	linePrefix   = "LINE:"
	issuePrefix  = "ISSUE:"
	valueTrimSet = " \t*`"
)

// ParseStyle は設定値の文字列を Style に変換します。
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case StyleRaw:
		return StyleRaw, nil
	case StyleRich, "":
		return StyleRich, nil
	default:
		return "", fmt.Errorf("無効な整形スタイルが指定されました: '%s'。'raw' または 'rich' を選択してください", s)
	}
}

// Format は回答テキストを行単位で変換します。
// 認識できない行はバイト単位でそのまま出力され、行の順序は変わりません。
func Format(text string, style Style) string {
	if style != StyleRich {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if replaced, ok := formatLine(line); ok {
			lines[i] = replaced
		}
	}
	return strings.Join(lines, "\n")
}

// CommentBody は固定見出しと (整形済みの) 回答を結合し、PR に投稿する本文を返します。
func CommentBody(text string, style Style) string {
	return CommentHeading + "\n\n" + Format(text, style)
}

func formatLine(line string) (string, bool) {
	content := stripBullet(strings.TrimSpace(line))

	switch {
	// HTML ブロックと引用は空行まで続くため、直後に空行を入れて後続行と切り離す
	case strings.HasPrefix(content, passMarker):
		return "<details><summary>" + content + "</summary></details>\n", true
	case strings.HasPrefix(content, failMarker):
		return "> [!CAUTION]\n> **" + content + "**\n", true
	case strings.HasPrefix(content, filePrefix):
		return "#### 📄 `" + fieldValue(content, filePrefix) + "`", true
	case strings.HasPrefix(content, linePrefix):
		return "- **Line:** " + fieldValue(content, linePrefix), true
	case strings.HasPrefix(content, issuePrefix):
		return "- **Issue:** " + fieldValue(content, issuePrefix), true
	default:
		return "", false
	}
}

// stripBullet は "- " / "* " の箇条書き記号を取り除きます。
func stripBullet(s string) string {
	for _, bullet := range []string{"- ", "* "} {
		if strings.HasPrefix(s, bullet) {
			return strings.TrimSpace(s[len(bullet):])
		}
	}
	return s
}

func fieldValue(content, prefix string) string {
	return strings.Trim(strings.TrimPrefix(content, prefix), valueTrimSet)
}
