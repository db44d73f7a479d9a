package adapters

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// MarkdownRenderer はレビュー結果の Markdown を単体で閲覧可能な HTML ドキュメントに変換します。
type MarkdownRenderer struct {
	md goldmark.Markdown
}

// NewMarkdownRenderer は GFM 拡張を有効にした MarkdownRenderer を返します。
// <details> などのレビュー整形用タグを残すため、生 HTML の出力を許可します。
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
		),
	}
}

// Render は title を見出しとした HTML ドキュメントを返します。
func (r *MarkdownRenderer) Render(title string, markdown []byte) (*bytes.Buffer, error) {
	var body bytes.Buffer
	if err := r.md.Convert(markdown, &body); err != nil {
		return nil, fmt.Errorf("MarkdownからHTMLへの変換に失敗: %w", err)
	}

	escaped := html.EscapeString(title)
	var doc bytes.Buffer
	doc.WriteString("<!DOCTYPE html>\n<html lang=\"ja\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&doc, "<title>%s</title>\n</head>\n<body>\n<h1>%s</h1>\n", escaped, escaped)
	doc.Write(body.Bytes())
	doc.WriteString("</body>\n</html>\n")
	return &doc, nil
}
