// Package review は、AI レビュー結果の解析・整形・マージ判定を担うドメインロジックを提供します。
// ネットワークや状態には一切アクセスしない純粋関数のみで構成されます。
package review

import "fmt"

// PullRequestRef はレビュー対象のプルリクエストを識別します。
// Title / Body / HTMLURL は API から取得した時点で埋まります。
type PullRequestRef struct {
	Owner   string
	Repo    string
	Number  int
	Title   string
	Body    string
	HTMLURL string
}

// FullName は "owner/repo" 形式のリポジトリ名を返します。
func (r PullRequestRef) FullName() string {
	return r.Owner + "/" + r.Repo
}

// String はログ出力用に "owner/repo#123" 形式の文字列を返します。
func (r PullRequestRef) String() string {
	return fmt.Sprintf("%s#%d", r.FullName(), r.Number)
}

// ChangedFile はプルリクエストで変更された 1 ファイルです。
// バイナリやリネームのみの変更では Patch は空文字列になります。
type ChangedFile struct {
	Filename string
	Patch    string
}

// InlineSuggestion は AI の回答から抽出した (ファイル, 行, コメント) の組です。
type InlineSuggestion struct {
	File    string
	Line    int
	Comment string
}

// Summary は通知先へ送るレビュー結果の要約です。
type Summary struct {
	Ref            PullRequestRef
	Recommendation string
	Suggestions    int
	Merged         bool
}

// MergeOutcome は自動マージ試行の結果です。
// Err は記録のみ行い、呼び出し元へ伝播させません。
type MergeOutcome struct {
	Attempted bool
	Merged    bool
	SHA       string
	Err       error
}
