// internal/services/studio_service_test.go
package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Corphon/VisageForge/internal/errors"
	"github.com/Corphon/VisageForge/internal/history"
	"github.com/Corphon/VisageForge/internal/llm"
	"github.com/Corphon/VisageForge/internal/models"
	"github.com/Corphon/VisageForge/internal/schema"
)

func newStudioService(t *testing.T, provider *fakeProvider, dailyLimit int) (*StudioService, *history.Store) {
	t.Helper()
	store, err := history.Open(t.TempDir() + "/studio.db")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	service := NewStudioService(provider, schema.NewValidator(), store,
		"gemini-2.5-flash", "imagen-3.0-generate-002", 3, dailyLimit, 1, testLogger())
	return service, store
}

func TestStudioGenerateImage(t *testing.T) {
	provider := &fakeProvider{imageURIs: []string{
		"data:image/png;base64,b25l", "data:image/png;base64,dHdv",
	}}
	service, _ := newStudioService(t, provider, 70)

	item, err := service.GenerateImage(context.Background(), GenerateImageInput{
		Prompt:    "a fox in a paper boat",
		NumImages: 2,
		Style:     "watercolor",
	})
	require.NoError(t, err)
	require.Len(t, item.Images, 2)
	assert.Equal(t, "data:image/png;base64,b25l", item.Images[0].URL)
	assert.Equal(t, "imagen-3.0-generate-002", item.Settings.Model, "default model filled in")
	assert.Equal(t, "1:1", item.Settings.AspectRatio, "default aspect ratio filled in")

	require.Len(t, provider.imageRequests, 1)
	assert.Equal(t, 2, provider.imageRequests[0].SampleCount)
}

func TestStudioGenerateImageValidatesInput(t *testing.T) {
	provider := &fakeProvider{}
	service, _ := newStudioService(t, provider, 70)

	tests := []struct {
		name  string
		input GenerateImageInput
	}{
		{"missing prompt", GenerateImageInput{NumImages: 1}},
		{"zero images", GenerateImageInput{Prompt: "x"}},
		{"too many images", GenerateImageInput{Prompt: "x", NumImages: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.GenerateImage(context.Background(), tt.input)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidationError(err))
		})
	}
	assert.Empty(t, provider.imageRequests)
}

func TestStudioDailyQuota(t *testing.T) {
	provider := &fakeProvider{imageURIs: []string{
		"data:image/png;base64,b25l", "data:image/png;base64,dHdv",
	}}
	service, _ := newStudioService(t, provider, 3)

	// Counted model: two images fit within the limit of three.
	_, err := service.GenerateImage(context.Background(), GenerateImageInput{
		Prompt: "x", NumImages: 2, Model: "imagen-4.0-generate-001",
	})
	require.NoError(t, err)

	remaining, err := service.RemainingImages()
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	// Two more would exceed it; the provider must not be called.
	calls := len(provider.imageRequests)
	_, err = service.GenerateImage(context.Background(), GenerateImageInput{
		Prompt: "x", NumImages: 2, Model: "imagen-4.0-generate-001",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
	assert.Contains(t, err.Error(), "daily image limit")
	assert.Len(t, provider.imageRequests, calls)
}

func TestStudioQuotaIgnoresUncountedModels(t *testing.T) {
	provider := &fakeProvider{}
	service, _ := newStudioService(t, provider, 1)

	// The default imagen-3 model is not quota-counted; repeated runs keep
	// working and the counter stays untouched.
	for i := 0; i < 3; i++ {
		_, err := service.GenerateImage(context.Background(), GenerateImageInput{Prompt: "x", NumImages: 1})
		require.NoError(t, err)
	}

	remaining, err := service.RemainingImages()
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

func TestStudioHistoryCapped(t *testing.T) {
	provider := &fakeProvider{}
	service, _ := newStudioService(t, provider, 70)

	for i := 0; i < 5; i++ {
		_, err := service.GenerateImage(context.Background(), GenerateImageInput{
			Prompt: fmt.Sprintf("prompt %d", i), NumImages: 1,
		})
		require.NoError(t, err)
	}

	items, err := service.History()
	require.NoError(t, err)
	assert.Len(t, items, 3, "studio history is capped")
	assert.Equal(t, "prompt 4", items[0].Prompt, "newest first")
}

func TestOptimizePrompt(t *testing.T) {
	provider := &fakeProvider{jsonResponses: []string{`{"optimizedPrompt": "A vivid fox."}`}}
	service, _ := newStudioService(t, provider, 70)

	out, err := service.OptimizePrompt(context.Background(), "a fox", "watercolor", "low_angle")
	require.NoError(t, err)
	assert.Equal(t, "A vivid fox.", out)

	req := provider.jsonRequests[0]
	assert.Contains(t, req.UserPrompt, "Original prompt: a fox")
	assert.Contains(t, req.UserPrompt, `artistic style: "watercolor"`)
	assert.Contains(t, req.UserPrompt, `camera angle: "low_angle"`)
}

func TestOptimizePromptRequiresPrompt(t *testing.T) {
	service, _ := newStudioService(t, &fakeProvider{}, 70)

	_, err := service.OptimizePrompt(context.Background(), "", "", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestDescribeSketch(t *testing.T) {
	provider := &fakeProvider{jsonResponses: []string{`{"description": "A cozy house under a bright sun."}`}}
	service, _ := newStudioService(t, provider, 70)

	sketch := "data:image/png;base64,c2tldGNo"
	out, err := service.DescribeSketch(context.Background(), sketch)
	require.NoError(t, err)
	assert.Equal(t, "A cozy house under a bright sun.", out)

	req := provider.jsonRequests[0]
	assert.Equal(t, sketch, req.InputImage, "the sketch travels as inline image data")
	assert.Contains(t, req.SystemPrompt, "Interpret, Don't Just Describe")
}

func TestDescribeSketchRequiresImage(t *testing.T) {
	service, _ := newStudioService(t, &fakeProvider{}, 70)

	_, err := service.DescribeSketch(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestChatImage(t *testing.T) {
	provider := &fakeProvider{chatReply: &llm.ChatMessage{
		Role: "model",
		Parts: []llm.ChatPart{
			{Text: "Here it is."},
			{Image: "data:image/png;base64,cmVwbHk="},
		},
	}}
	service, _ := newStudioService(t, provider, 70)

	reply, err := service.ChatImage(context.Background(), []models.ChatMessage{
		{Role: "user", Parts: []models.ChatPart{{Text: "draw a lighthouse"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "model", reply.Role)
	require.Len(t, reply.Parts, 2)
	assert.Equal(t, "Here it is.", reply.Parts[0].Text)
	assert.Equal(t, "data:image/png;base64,cmVwbHk=", reply.Parts[1].Image)
}

func TestChatImageRequiresHistory(t *testing.T) {
	service, _ := newStudioService(t, &fakeProvider{}, 70)

	_, err := service.ChatImage(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}
