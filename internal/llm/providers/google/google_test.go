// internal/llm/providers/google/google_test.go
package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Corphon/VisageForge/internal/errors"
	"github.com/Corphon/VisageForge/internal/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider := &Provider{}
	err := provider.Initialize(map[string]string{
		"api_key":  "test-key",
		"base_url": server.URL,
	})
	require.NoError(t, err)
	return provider
}

func TestInitializeRequiresAPIKey(t *testing.T) {
	provider := &Provider{}
	err := provider.Initialize(map[string]string{})
	require.Error(t, err)
	assert.True(t, apperrors.IsProviderAuthError(err))
}

func TestCompleteJSON(t *testing.T) {
	var captured map[string]any
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content":      map[string]any{"parts": []map[string]any{{"text": `{"ok":true}`}}},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{"totalTokenCount": 42},
		})
	})

	resp, err := provider.CompleteJSON(context.Background(), llm.JSONRequest{
		SystemPrompt:   "You are a test.",
		UserPrompt:     "Please proceed.",
		Model:          "gemini-2.5-flash",
		Temperature:    1.2,
		ResponseSchema: map[string]any{"type": "OBJECT"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, resp.Text)
	assert.Equal(t, "STOP", resp.FinishReason)
	assert.Equal(t, 42, resp.TokensUsed)

	// Request shape: system instruction, JSON mime type, schema, temperature.
	system := captured["systemInstruction"].(map[string]any)
	parts := system["parts"].([]any)
	assert.Equal(t, "You are a test.", parts[0].(map[string]any)["text"])

	config := captured["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", config["responseMimeType"])
	assert.NotNil(t, config["responseSchema"])
	assert.InDelta(t, 1.2, config["temperature"], 0.001)
}

func TestCompleteJSONInlineImage(t *testing.T) {
	var captured map[string]any
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]any{{"text": `{"description":"a dog"}`}}},
			}},
		})
	})

	_, err := provider.CompleteJSON(context.Background(), llm.JSONRequest{
		UserPrompt: "Interpret the sketch.",
		InputImage: "data:image/png;base64,c2tldGNo",
	})
	require.NoError(t, err)

	contents := captured["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2, "inline image part precedes the text part")
	inline := parts[0].(map[string]any)["inline_data"].(map[string]any)
	assert.Equal(t, "image/png", inline["mime_type"])
	assert.Equal(t, "c2tldGNo", inline["data"])
}

func TestCompleteJSONBlockReason(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"candidates":     []any{},
			"promptFeedback": map[string]any{"blockReason": "SAFETY"},
		})
	})

	_, err := provider.CompleteJSON(context.Background(), llm.JSONRequest{UserPrompt: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsSafetyBlockError(err))
}

func TestCompleteJSONSafetyFinish(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content":      map[string]any{"parts": []any{}},
				"finishReason": "SAFETY",
				"safetyRatings": []map[string]any{
					{"category": "HARM_CATEGORY_VIOLENCE", "blocked": true},
					{"category": "HARM_CATEGORY_HATE", "blocked": false},
				},
			}},
		})
	})

	_, err := provider.CompleteJSON(context.Background(), llm.JSONRequest{UserPrompt: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsSafetyBlockError(err))
	assert.Contains(t, err.Error(), "HARM_CATEGORY_VIOLENCE")
	assert.NotContains(t, err.Error(), "HARM_CATEGORY_HATE")
}

func TestCompleteJSONEmptyResponseIsTransient(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	})

	_, err := provider.CompleteJSON(context.Background(), llm.JSONRequest{UserPrompt: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsRetriable(err))
}

func TestHTTPErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		check   func(error) bool
	}{
		{"unauthorized", http.StatusUnauthorized, "invalid credentials", apperrors.IsProviderAuthError},
		{"forbidden", http.StatusForbidden, "access denied", apperrors.IsProviderAuthError},
		{"bad api key in message", http.StatusBadRequest, "API key not valid. Please pass a valid API key.", apperrors.IsProviderAuthError},
		{"safety in message", http.StatusBadRequest, "The prompt violates our safety policy.", apperrors.IsSafetyBlockError},
		{"server error", http.StatusInternalServerError, "internal error", apperrors.IsRetriable},
		{"rate limited", http.StatusTooManyRequests, "quota exceeded", apperrors.IsRetriable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"message": tt.message},
				})
			})

			_, err := provider.CompleteJSON(context.Background(), llm.JSONRequest{UserPrompt: "x"})
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}
}

func TestGenerateImagesImagen(t *testing.T) {
	var captured map[string]any
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/imagen-3.0-generate-002:predict", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]any{
			"predictions": []map[string]any{
				{"bytesBase64Encoded": "aW1nMQ==", "mimeType": "image/png"},
				{"bytesBase64Encoded": "aW1nMg==", "mimeType": "image/png"},
			},
		})
	})

	resp, err := provider.GenerateImages(context.Background(), llm.ImageRequest{
		Prompt:      "a fox",
		Model:       "imagen-3.0-generate-002",
		SampleCount: 2,
		AspectRatio: "16:9",
	})
	require.NoError(t, err)
	require.Len(t, resp.Images, 2)
	assert.Equal(t, "data:image/png;base64,aW1nMQ==", resp.Images[0])

	instances := captured["instances"].([]any)
	assert.Equal(t, "a fox", instances[0].(map[string]any)["prompt"])
	parameters := captured["parameters"].(map[string]any)
	assert.Equal(t, float64(2), parameters["sampleCount"])
	assert.Equal(t, "16:9", parameters["aspectRatio"])
}

func TestGenerateImagesImagenEmptyPredictions(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"predictions": []any{}})
	})

	_, err := provider.GenerateImages(context.Background(), llm.ImageRequest{Prompt: "x", Model: "imagen-3.0-generate-002"})
	require.Error(t, err)
	assert.True(t, apperrors.IsRetriable(err), "an empty 200 body is a transient failure")
}

func TestGenerateImagesImagenErrorInBody(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "blocked by the safety policy"},
		})
	})

	_, err := provider.GenerateImages(context.Background(), llm.ImageRequest{Prompt: "x", Model: "imagen-3.0-generate-002"})
	require.Error(t, err)
	assert.True(t, apperrors.IsSafetyBlockError(err))
}

func TestGenerateImagesGeminiRoute(t *testing.T) {
	var captured map[string]any
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash-preview-image-generation:generateContent", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]any{
					{"text": "Here you go."},
					{"inline_data": map[string]any{"mime_type": "image/png", "data": "Z2VuZXJhdGVk"}},
				}},
			}},
		})
	})

	resp, err := provider.GenerateImages(context.Background(), llm.ImageRequest{
		Prompt:     "redraw this",
		Model:      "gemini-2.0-flash-preview-image-generation",
		InputImage: "data:image/jpeg;base64,c291cmNl",
	})
	require.NoError(t, err)
	require.Len(t, resp.Images, 1)
	assert.Equal(t, "data:image/png;base64,Z2VuZXJhdGVk", resp.Images[0])

	config := captured["generationConfig"].(map[string]any)
	assert.ElementsMatch(t, []any{"TEXT", "IMAGE"}, config["responseModalities"].([]any))

	contents := captured["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	inline := parts[0].(map[string]any)["inline_data"].(map[string]any)
	assert.Equal(t, "image/jpeg", inline["mime_type"])
}

func TestGenerateImagesGeminiTextOnlyReply(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]any{
					{"text": "I cannot draw that."},
				}},
			}},
		})
	})

	_, err := provider.GenerateImages(context.Background(), llm.ImageRequest{
		Prompt: "x", Model: "gemini-2.0-flash-preview-image-generation",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsRetriable(err))
	assert.Contains(t, err.Error(), "I cannot draw that.")
}

func TestChatMultimodal(t *testing.T) {
	var captured map[string]any
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role": "model",
					"parts": []map[string]any{
						{"text": "Done."},
						{"inline_data": map[string]any{"mime_type": "image/png", "data": "cmVwbHk="}},
					},
				},
			}},
		})
	})

	reply, err := provider.ChatMultimodal(context.Background(), []llm.ChatMessage{
		{Role: "user", Parts: []llm.ChatPart{{Text: "draw a lighthouse"}}},
		{Role: "model", Parts: []llm.ChatPart{{Image: "data:image/png;base64,b2xk"}}},
		{Role: "user", Parts: []llm.ChatPart{{Text: "make it night"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "model", reply.Role)
	require.Len(t, reply.Parts, 2)
	assert.Equal(t, "Done.", reply.Parts[0].Text)
	assert.Equal(t, "data:image/png;base64,cmVwbHk=", reply.Parts[1].Image)

	// The full conversation travels out, roles intact.
	contents := captured["contents"].([]any)
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].(map[string]any)["role"])
	assert.Equal(t, "model", contents[1].(map[string]any)["role"])
}

func TestChatMultimodalEmptyReply(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	})

	_, err := provider.ChatMultimodal(context.Background(), []llm.ChatMessage{
		{Role: "user", Parts: []llm.ChatPart{{Text: "hello"}}},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsRetriable(err))
}
