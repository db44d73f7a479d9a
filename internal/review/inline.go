package review

import (
	"regexp"
	"strconv"
	"strings"
)

// InlineMarker は AI の回答内でインライン提案ブロックの開始を示すマーカーです。
const InlineMarker = "INLINE SUGGESTION:"

var (
	inlineMarkerPattern = regexp.MustCompile(`(?i)INLINE\s+SUGGESTION:`)

	// フィールド順は file → line → comment で固定。ラベルの Markdown 装飾 (**file:** など) と改行は許容する。
	inlineBlockPattern = regexp.MustCompile(
		`(?is)^[\s*_]*file:[*_]*\s*(.+?)\s*[*_]*line:[*_]*\s*(.+?)\s*[*_]*comment:[*_]*\s*(.*)$`,
	)

	digitsPattern = regexp.MustCompile(`^\d+$`)

	// コメント本文は空行、または総合判定行の直前で終わる。
	commentTerminator = regexp.MustCompile(`(?i)\n\s*\n|\n\s*overall recommendation:`)
)

const decorationChars = " \t\r\n*_`"

// ExtractInlineSuggestions は AI の生の回答テキストからインライン提案を抽出します。
// 書式に従わないブロックは読み飛ばし、該当がなければ空スライスを返します。
func ExtractInlineSuggestions(text string) []InlineSuggestion {
	suggestions := []InlineSuggestion{}

	blocks := inlineMarkerPattern.Split(text, -1)
	if len(blocks) < 2 {
		return suggestions
	}

	// 先頭要素は最初のマーカーより前の本文
	for _, block := range blocks[1:] {
		s, ok := parseInlineBlock(block)
		if !ok {
			continue
		}
		suggestions = append(suggestions, s)
	}
	return suggestions
}

func parseInlineBlock(block string) (InlineSuggestion, bool) {
	m := inlineBlockPattern.FindStringSubmatch(block)
	if m == nil {
		return InlineSuggestion{}, false
	}

	file := strings.Trim(m[1], decorationChars)
	if file == "" || strings.ContainsAny(file, "\n") {
		return InlineSuggestion{}, false
	}

	rawLine := strings.Trim(m[2], decorationChars)
	if !digitsPattern.MatchString(rawLine) {
		return InlineSuggestion{}, false
	}
	line, err := strconv.Atoi(rawLine)
	if err != nil || line <= 0 {
		return InlineSuggestion{}, false
	}

	comment := m[3]
	if loc := commentTerminator.FindStringIndex(comment); loc != nil {
		comment = comment[:loc[0]]
	}
	comment = strings.Trim(comment, decorationChars)
	if comment == "" {
		return InlineSuggestion{}, false
	}

	return InlineSuggestion{File: file, Line: line, Comment: comment}, true
}
