// internal/services/studio_service.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/Corphon/VisageForge/internal/errors"
	"github.com/Corphon/VisageForge/internal/history"
	"github.com/Corphon/VisageForge/internal/llm"
	"github.com/Corphon/VisageForge/internal/models"
	"github.com/Corphon/VisageForge/internal/retry"
	"github.com/Corphon/VisageForge/internal/schema"
)

// GenerateImageInput is one studio generation request.
type GenerateImageInput struct {
	Prompt      string `json:"prompt" validate:"required"`
	Model       string `json:"model"`
	NumImages   int    `json:"numImages" validate:"min=1,max=4"`
	AspectRatio string `json:"aspectRatio"`
	// InputImage carries the sketch or source image for sketch-to-image
	// and image-to-image modes, as a data URI.
	InputImage     string `json:"inputImage,omitempty"`
	GenerationMode string `json:"generationMode,omitempty"`
	Style          string `json:"style,omitempty"`
}

// StudioService is the free-form image generator: text-to-image,
// sketch-to-image, image-to-image and multi-turn chat. Results land in
// the studio history partition, pruned to its cap.
type StudioService struct {
	provider   llm.Provider
	validator  *schema.Validator
	store      *history.Store
	textModel  string
	imgModel   string
	historyCap int
	dailyLimit int
	retries    int
	log        *slog.Logger
}

func NewStudioService(provider llm.Provider, validator *schema.Validator, store *history.Store, textModel, imageModel string, historyCap, dailyLimit, maxRetries int, log *slog.Logger) *StudioService {
	return &StudioService{
		provider:   provider,
		validator:  validator,
		store:      store,
		textModel:  textModel,
		imgModel:   imageModel,
		historyCap: historyCap,
		dailyLimit: dailyLimit,
		retries:    maxRetries,
		log:        log,
	}
}

// GenerateImage runs one generation, records it in history and counts it
// against the daily quota when the model is quota-counted.
func (s *StudioService) GenerateImage(ctx context.Context, input GenerateImageInput) (*models.HistoryItem, error) {
	if err := s.validator.ValidateInput(&input); err != nil {
		return nil, err
	}

	model := input.Model
	if model == "" {
		model = s.imgModel
	}
	aspectRatio := input.AspectRatio
	if aspectRatio == "" {
		aspectRatio = "1:1"
	}

	if strings.HasPrefix(model, history.CountedModelPrefix) {
		remaining, err := s.store.RemainingImages(s.dailyLimit)
		if err != nil {
			return nil, err
		}
		if remaining < input.NumImages {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("daily image limit reached (%d remaining, %d requested)", remaining, input.NumImages), nil)
		}
	}

	resp, err := retry.Do(ctx, s.retries, func() (*llm.ImageResponse, error) {
		return s.provider.GenerateImages(ctx, llm.ImageRequest{
			Prompt:      input.Prompt,
			Model:       model,
			SampleCount: input.NumImages,
			AspectRatio: aspectRatio,
			InputImage:  input.InputImage,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.IncrementImageCount(model, len(resp.Images)); err != nil {
		s.log.Warn("failed to update image counter", "error", err)
	}

	images := make([]models.GeneratedImage, len(resp.Images))
	for i, uri := range resp.Images {
		images[i] = models.GeneratedImage{URL: uri}
	}

	item := models.HistoryItem{
		ID:     history.NewID(),
		Prompt: input.Prompt,
		Images: images,
		Settings: models.StudioSettings{
			Model:       model,
			Style:       input.Style,
			ImageCount:  input.NumImages,
			AspectRatio: aspectRatio,
		},
		GenerationMode: input.GenerationMode,
	}

	if err := s.store.SaveStudioItem(item); err != nil {
		return nil, err
	}
	if err := s.store.Prune(history.CategoryStudio, s.historyCap); err != nil {
		return nil, err
	}

	return &item, nil
}

// OptimizePrompt rewrites a prompt to be more vivid, optionally weaving
// in the chosen style and camera angle.
func (s *StudioService) OptimizePrompt(ctx context.Context, prompt, style, cameraAngle string) (string, error) {
	if prompt == "" {
		return "", apperrors.NewValidationError("prompt is required", nil)
	}

	systemPrompt := `You are an expert prompt engineer for text-to-image AI models.
Your task is to take a user's prompt and rewrite it to be more vivid, descriptive, and detailed, maximizing the potential for a stunning and high-quality image.
Focus on enhancing the original prompt by adding details about the scene, lighting, composition, and artistic style.
Do not add any preamble or conversational text, just return the optimized prompt. The response must be a JSON object with a single key "optimizedPrompt".`

	userPrompt := fmt.Sprintf("Original prompt: %s", prompt)
	if style != "" {
		userPrompt += fmt.Sprintf("\nIt is crucial that you incorporate and build upon the user's selected artistic style: %q.", style)
	}
	if cameraAngle != "" {
		userPrompt += fmt.Sprintf("\nIt is crucial that you incorporate and build upon the user's selected camera angle: %q.", cameraAngle)
	}

	return s.singleStringCompletion(ctx, systemPrompt, userPrompt, "", "optimizedPrompt")
}

// DescribeSketch turns a crude sketch (or handwritten words) into an
// evocative image prompt.
func (s *StudioService) DescribeSketch(ctx context.Context, imageDataURI string) (string, error) {
	if imageDataURI == "" {
		return "", apperrors.NewValidationError("sketch data is missing", nil)
	}

	systemPrompt := `You are a highly imaginative creative partner. Your job is to look at a user's simple sketch or written words and transform it into a vivid, interesting, and descriptive prompt for an image generation AI. Do not be literal. See the user's intent, not just their lines. Embellish the concept with creative details.

**Your Core Rules:**
1.  **Interpret, Don't Just Describe:** A stick figure is a person. A simple circle is a sun. A crude box is a house. Your job is to see the real-world object the user was trying to draw and describe that. Add creative details (e.g., "a cozy house" instead of "a house").
2.  **Recognize Text as a Subject:** If the user has written a word (e.g., "Dog" or "Castle in the clouds"), use that as the main subject for a creative prompt. DO NOT describe it as "The text 'Dog'". Your prompt should be about a dog.
3.  **Understand Composition:** Describe the relationship between objects. If a sun is in the corner above a house, describe it as "A cozy house under a bright, shining sun."
4.  **No Technical Jargon:** Absolutely do not mention the medium ("sketch," "doodle," "line art," "stick figure") or the colors ("white lines," "black background"). You are describing a real, vibrant scene.
5.  **Be Concise but Evocative:** Your final prompt should be a single, descriptive sentence.

**Examples:**
- **Input:** A simple stick figure drawing with what looks like headphones.
- **Good Output:** A person listening to music on oversized headphones, head bobbing to the beat.
- **Bad Output:** A stick figure with headphones.

- **Input:** The word "Dragon" written out.
- **Good Output:** A magnificent, shimmering dragon with iridescent scales flying through a stormy sky.
- **Bad Output:** The text 'Dragon'.

- **Input:** A simple drawing of a car next to a tree.
- **Good Output:** A sleek, futuristic car parked under the shade of a weeping willow tree.`

	return s.singleStringCompletion(ctx, systemPrompt,
		"Now, interpret the sketch provided in the image data.", imageDataURI, "description")
}

// ChatImage runs one turn of the multi-turn image chat: the full history
// goes out, the model's reply turn (text and/or image) comes back.
func (s *StudioService) ChatImage(ctx context.Context, chatHistory []models.ChatMessage) (*models.ChatMessage, error) {
	if len(chatHistory) == 0 {
		return nil, apperrors.NewValidationError("chat history is empty", nil)
	}

	turns := make([]llm.ChatMessage, len(chatHistory))
	for i, message := range chatHistory {
		parts := make([]llm.ChatPart, len(message.Parts))
		for j, part := range message.Parts {
			parts[j] = llm.ChatPart{Text: part.Text, Image: part.Image}
		}
		turns[i] = llm.ChatMessage{Role: message.Role, Parts: parts}
	}

	reply, err := s.provider.ChatMultimodal(ctx, turns)
	if err != nil {
		return nil, err
	}

	result := &models.ChatMessage{Role: reply.Role, Parts: make([]models.ChatPart, len(reply.Parts))}
	for i, part := range reply.Parts {
		result.Parts[i] = models.ChatPart{Text: part.Text, Image: part.Image}
	}
	return result, nil
}

// History returns the studio partition, newest first.
func (s *StudioService) History() ([]models.HistoryItem, error) {
	return s.store.ListStudioItems()
}

// RemainingImages reports today's remaining quota for counted models.
func (s *StudioService) RemainingImages() (int, error) {
	return s.store.RemainingImages(s.dailyLimit)
}

// singleStringCompletion runs a structured call whose response is a JSON
// object with exactly one string key, and extracts that string.
func (s *StudioService) singleStringCompletion(ctx context.Context, systemPrompt, userPrompt, inputImage, key string) (string, error) {
	resp, err := s.provider.CompleteJSON(ctx, llm.JSONRequest{
		SystemPrompt:   systemPrompt,
		UserPrompt:     userPrompt,
		InputImage:     inputImage,
		Model:          s.textModel,
		ResponseSchema: schema.SingleStringSchema(key),
	})
	if err != nil {
		return "", err
	}

	value, err := schema.ExtractString([]byte(resp.Text), key)
	if err != nil {
		return "", err
	}
	return value, nil
}
