package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newGeminiTestAdapter(t *testing.T, handler http.HandlerFunc) (*GeminiAdapter, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	adapter, err := NewGeminiAdapter(context.Background(), GeminiOptions{
		APIKey:     "test-key",
		Model:      "test-model",
		BaseURL:    srv.URL + "/",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return adapter, &calls
}

func TestGeminiAdapter_ReviewCodeDiff(t *testing.T) {
	adapter, calls := newGeminiTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/test-model:generateContent"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"✅ ok\nOverall Recommendation: Good to merge ✅"}]},"finishReason":"STOP"}]}`)
	})

	got, err := adapter.ReviewCodeDiff(context.Background(), "review this")
	require.NoError(t, err)

	assert.Equal(t, "✅ ok\nOverall Recommendation: Good to merge ✅", got)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeminiAdapter_ReviewCodeDiffNoCandidates(t *testing.T) {
	adapter, _ := newGeminiTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[]}`)
	})

	_, err := adapter.ReviewCodeDiff(context.Background(), "review this")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoCandidates))
	assert.False(t, errors.Is(err, ErrUpstreamAPI))
}

func TestGeminiAdapter_ReviewCodeDiffHTTPError(t *testing.T) {
	adapter, _ := newGeminiTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"code":500,"message":"backend exploded","status":"INTERNAL"}}`)
	})

	_, err := adapter.ReviewCodeDiff(context.Background(), "review this")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstreamAPI))
	assert.False(t, errors.Is(err, ErrNoCandidates))
	assert.Contains(t, err.Error(), "500")
}

func TestFirstCandidateText(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr bool
	}{
		{"nil response", nil, "", true},
		{"no candidates", &genai.GenerateContentResponse{}, "", true},
		{"nil content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}, "", true},
		{
			"empty parts",
			&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}},
			"", true,
		},
		{
			"skips thought part",
			&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: "answer"},
			}}}}},
			"answer", false,
		},
		{
			"first candidate only",
			&genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []*genai.Part{{Text: "first"}}}},
				{Content: &genai.Content{Parts: []*genai.Part{{Text: "second"}}}},
			}},
			"first", false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := firstCandidateText(tt.resp)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrNoCandidates))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPickModel(t *testing.T) {
	available := []string{"gemini-2.0-flash", "gemini-2.5-flash"}

	got, err := PickModel(available, "models/gemini-2.5-flash")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", got)

	got, err = PickModel(available, "gemini-unknown")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", got)

	_, err = PickModel(nil, "gemini-2.5-flash")
	require.Error(t, err)
}

func TestNewGeminiAdapter_RequiresKey(t *testing.T) {
	_, err := NewGeminiAdapter(context.Background(), GeminiOptions{Model: "m"})
	require.Error(t, err)
}

const modelsPage = `{"models":[
  {"name":"models/gemini-2.0-flash","supportedGenerationMethods":["generateContent","countTokens"]},
  {"name":"models/text-embedding-004","supportedGenerationMethods":["embedContent"]},
  {"name":"models/gemini-2.5-flash","supportedGenerationMethods":["generateContent"]}
]}`

func TestGeminiAdapter_ListGenerationModels(t *testing.T) {
	adapter, calls := newGeminiTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, modelsPage)
	})

	names, err := adapter.ListGenerationModels(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-2.5-flash"}, names)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeminiAdapter_ResolveModel(t *testing.T) {
	adapter, _ := newGeminiTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, modelsPage)
	})

	got, err := adapter.ResolveModel(context.Background(), "gemini-2.5-flash")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", got)

	got, err = adapter.ResolveModel(context.Background(), "text-embedding-004")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", got)
}

func TestGeminiAdapter_ListGenerationModelsHTTPError(t *testing.T) {
	adapter, _ := newGeminiTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`)
	})

	_, err := adapter.ListGenerationModels(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstreamAPI))

	_, err = adapter.ResolveModel(context.Background(), "gemini-2.5-flash")
	assert.True(t, errors.Is(err, ErrUpstreamAPI))
}
