package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"google.golang.org/genai"
)

const (
	// コードレビューの一貫性を優先するため、低い温度に設定
	defaultGeminiTemperature = float32(0.2)

	generateContentAction = "generateContent"
	modelNamePrefix       = "models/"
)

var (
	// ErrUpstreamAPI は Gemini API が成功以外のステータスを返した場合のエラーです。
	ErrUpstreamAPI = errors.New("Gemini API の呼び出しに失敗しました")
	// ErrNoCandidates は通信は成功したものの、利用可能な候補が返らなかった場合のエラーです。
	ErrNoCandidates = errors.New("Gemini API の応答に利用可能な候補が含まれていません")
)

// CodeReviewAI は、Gemini AIとの通信機能の抽象化を提供し、DIで使用されます。
type CodeReviewAI interface {
	// ReviewCodeDiff は完成されたプロンプトを基にGeminiにレビューを依頼します。
	ReviewCodeDiff(ctx context.Context, finalPrompt string) (string, error)
}

// GeminiOptions は GeminiAdapter の初期化パラメータです。
type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string       // 空の場合は SDK の既定エンドポイント
	HTTPClient *http.Client // nil の場合は SDK の既定クライアント
}

// GeminiAdapter は genai.Client をラップし、CodeReviewAI インターフェースを実装する具体的な構造体です。
// リトライは行いません。
type GeminiAdapter struct {
	client      *genai.Client
	modelName   string
	temperature float32
}

// NewGeminiAdapter は GeminiAdapter を初期化します。
func NewGeminiAdapter(ctx context.Context, opts GeminiOptions) (*GeminiAdapter, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("Gemini API キーが設定されていません")
	}

	cc := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize underlying gemini client: %w", err)
	}

	return &GeminiAdapter{
		client:      client,
		modelName:   opts.Model,
		temperature: defaultGeminiTemperature,
	}, nil
}

// ModelName は現在レビューに使用するモデル名を返します。
func (ga *GeminiAdapter) ModelName() string {
	return ga.modelName
}

// UseModel はレビューに使用するモデル名を差し替えます。
func (ga *GeminiAdapter) UseModel(name string) {
	ga.modelName = name
}

// ReviewCodeDiff は CodeReviewAI インターフェースを満たします。
// 最初の候補のテキストを加工せずにそのまま返します。
func (ga *GeminiAdapter) ReviewCodeDiff(ctx context.Context, finalPrompt string) (string, error) {
	config := &genai.GenerateContentConfig{Temperature: genai.Ptr(ga.temperature)}

	resp, err := ga.client.Models.GenerateContent(ctx, ga.modelName, genai.Text(finalPrompt), config)
	if err != nil {
		if apiErr, ok := asAPIError(err); ok {
			return "", fmt.Errorf("%w (Model: %s, status: %d %s): %s: %w",
				ErrUpstreamAPI, ga.modelName, apiErr.Code, apiErr.Status, apiErr.Message, err)
		}
		return "", fmt.Errorf("%w (Model: %s): %w", ErrUpstreamAPI, ga.modelName, err)
	}

	return firstCandidateText(resp)
}

// ListGenerationModels は generateContent をサポートするモデル名を API の返却順で返します。
func (ga *GeminiAdapter) ListGenerationModels(ctx context.Context) ([]string, error) {
	var names []string
	for m, err := range ga.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("%w: モデル一覧の取得に失敗しました: %w", ErrUpstreamAPI, err)
		}
		if m == nil || !slices.Contains(m.SupportedActions, generateContentAction) {
			continue
		}
		names = append(names, strings.TrimPrefix(m.Name, modelNamePrefix))
	}
	return names, nil
}

// ResolveModel はモデル一覧を取得し、preferred が generateContent をサポートしていればそれを、
// そうでなければ最初に見つかった対応モデルを返します。
func (ga *GeminiAdapter) ResolveModel(ctx context.Context, preferred string) (string, error) {
	available, err := ga.ListGenerationModels(ctx)
	if err != nil {
		return "", err
	}
	return PickModel(available, preferred)
}

// PickModel は利用可能なモデルの中から使用するモデルを選択します。
func PickModel(available []string, preferred string) (string, error) {
	preferred = strings.TrimPrefix(preferred, modelNamePrefix)
	if preferred != "" && slices.Contains(available, preferred) {
		return preferred, nil
	}
	if len(available) == 0 {
		return "", fmt.Errorf("generateContent をサポートするモデルが見つかりません")
	}
	return available[0], nil
}

func firstCandidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrNoCandidates
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return "", ErrNoCandidates
	}
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		return part.Text, nil
	}
	return "", fmt.Errorf("%w (finish reason: %s)", ErrNoCandidates, candidate.FinishReason)
}

// asAPIError は SDK が返す APIError を値・ポインタのどちらでも取り出します。
func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}
