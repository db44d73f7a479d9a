// Package event は CI が書き出したプルリクエストイベントのペイロードを読み込みます。
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/go-github/v71/github"
)

// ErrInvalidEvent はイベントファイルが読めない、または PR 番号を含まない場合に返されます。
var ErrInvalidEvent = errors.New("イベントペイロードが不正です")

// Payload はイベントから取り出したプルリクエストの識別情報です。
// Title / Body は API から取得できなかった場合のフォールバックとして使用します。
type Payload struct {
	Number int
	Title  string
	Body   string
	Action string
}

// Load は path のイベント JSON を読み込み、PR 番号を取り出します。
// ネットワークアクセスは行いません。
func Load(path string) (Payload, error) {
	if strings.TrimSpace(path) == "" {
		return Payload{}, fmt.Errorf("%w: イベントファイルのパスが指定されていません", ErrInvalidEvent)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: イベントファイルの読み込みに失敗しました (%s): %v", ErrInvalidEvent, path, err)
	}

	return Parse(data)
}

// Parse は pull_request / pull_request_target イベントの JSON を解析します。
func Parse(data []byte) (Payload, error) {
	var ev github.PullRequestEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return Payload{}, fmt.Errorf("%w: JSON の解析に失敗しました: %v", ErrInvalidEvent, err)
	}

	number := ev.GetNumber()
	if number == 0 {
		number = ev.GetPullRequest().GetNumber()
	}
	if number <= 0 {
		return Payload{}, fmt.Errorf("%w: PR 番号 (number) が含まれていません", ErrInvalidEvent)
	}

	pr := ev.GetPullRequest()
	return Payload{
		Number: number,
		Title:  pr.GetTitle(),
		Body:   pr.GetBody(),
		Action: ev.GetAction(),
	}, nil
}
