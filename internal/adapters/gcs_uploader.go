package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"google.golang.org/api/option"
)

// GCSUploader は、GCSへのデータアップロード操作を抽象化するインターフェースです。
// go-remote-io の remoteio.GCSOutputWriter と同じシグネチャです。
type GCSUploader interface {
	// WriteToGCS は、指定されたバケットとパスにコンテンツをアップロードします。
	WriteToGCS(ctx context.Context, bucketName, objectPath string, content io.Reader, contentType string) error
}

// GCSClient は remoteio.UniversalIOWriter をラップした GCSUploader の実装です。
// 読み込みに失敗した場合は途中までのオブジェクトを確定させずにアップロードを中止します。
type GCSClient struct {
	client *storage.Client
	writer remoteio.GCSOutputWriter
}

// NewGCSUploader は GCSClient の新しいインスタンスを作成します。
// 認証情報は Application Default Credentials から取得されます。
func NewGCSUploader(ctx context.Context) (*GCSClient, error) {
	client, err := storage.NewClient(ctx, option.WithTelemetryDisabled())
	if err != nil {
		return nil, fmt.Errorf("GCSクライアントの初期化に失敗: %w", err)
	}
	return &GCSClient{
		client: client,
		writer: remoteio.NewUniversalIOWriter(client),
	}, nil
}

// WriteToGCS は GCSUploader インターフェースを満たします。
func (c *GCSClient) WriteToGCS(ctx context.Context, bucketName, objectPath string, content io.Reader, contentType string) error {
	uploadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	reader := &abortingReader{r: content, cancel: cancel}
	if err := c.writer.WriteToGCS(uploadCtx, bucketName, objectPath, reader, contentType); err != nil {
		if reader.err != nil {
			return fmt.Errorf("アップロード内容の読み込みに失敗したため中止しました: %w", reader.err)
		}
		return err
	}
	return nil
}

// Close はクライアントを閉じ、リソースを解放します。
func (c *GCSClient) Close() error {
	return c.client.Close()
}

// abortingReader は読み込みエラー発生時に cancel を呼びます。
// storage.Writer はコンテキストがキャンセルされた状態で Close されるとオブジェクトを作成しません。
type abortingReader struct {
	r      io.Reader
	cancel context.CancelFunc
	err    error
}

func (a *abortingReader) Read(p []byte) (int, error) {
	n, err := a.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		a.err = err
		a.cancel()
	}
	return n, err
}
