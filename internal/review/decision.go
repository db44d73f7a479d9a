package review

import "strings"

const (
	// ApprovalLine は自動マージを許可する唯一の総合判定行です。絵文字・大文字小文字まで完全一致が必要です。
	ApprovalLine = "Overall Recommendation: Good to merge ✅"
	// RejectionLine は修正が必要な場合の総合判定行です。
	RejectionLine = "Overall Recommendation: Needs changes ❌"
)

// ShouldMerge は整形前の回答テキストに ApprovalLine がそのまま含まれる場合にのみ true を返します。
func ShouldMerge(rawText string) bool {
	return strings.Contains(rawText, ApprovalLine)
}

// Recommendation は回答に含まれる総合判定行を返します。見つからなければ空文字列です。
func Recommendation(rawText string) string {
	switch {
	case strings.Contains(rawText, ApprovalLine):
		return ApprovalLine
	case strings.Contains(rawText, RejectionLine):
		return RejectionLine
	default:
		return ""
	}
}
