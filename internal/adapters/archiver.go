package adapters

import (
	"context"
	"fmt"
	"log/slog"

	"gemini-pr-reviewer-go/internal/config"
)

const archiveContentType = "text/html; charset=utf-8"

// ReviewArchiver はレビュー結果を外部ストレージへ保存する機能の抽象化です。
type ReviewArchiver interface {
	Archive(ctx context.Context, uri, title, markdown string) error
}

// GCSArchiver はレビュー結果を HTML に変換し、GCS にアップロードします。
type GCSArchiver struct {
	uploader GCSUploader
	renderer *MarkdownRenderer
}

// NewGCSArchiver は GCSArchiver を初期化します。
func NewGCSArchiver(uploader GCSUploader, renderer *MarkdownRenderer) *GCSArchiver {
	return &GCSArchiver{uploader: uploader, renderer: renderer}
}

// Archive は ReviewArchiver インターフェースを満たします。uri は gs://bucket/object 形式です。
func (a *GCSArchiver) Archive(ctx context.Context, uri, title, markdown string) error {
	bucketName, objectPath, err := config.ParseGCSURI(uri)
	if err != nil {
		return err
	}

	doc, err := a.renderer.Render(title, []byte(markdown))
	if err != nil {
		return fmt.Errorf("レビュー結果をHTML変換に失敗しました: %w", err)
	}

	slog.Info("レビュー結果をGCSへアップロード中",
		"uri", uri,
		"bucket", bucketName,
		"object", objectPath,
		"content_type", archiveContentType)

	if err := a.uploader.WriteToGCS(ctx, bucketName, objectPath, doc, archiveContentType); err != nil {
		return fmt.Errorf("GCSへの書き込みに失敗しました (URI: %s): %w", uri, err)
	}
	return nil
}
