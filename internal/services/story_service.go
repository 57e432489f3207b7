// internal/services/story_service.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/Corphon/VisageForge/internal/errors"
	"github.com/Corphon/VisageForge/internal/history"
	"github.com/Corphon/VisageForge/internal/llm"
	"github.com/Corphon/VisageForge/internal/models"
	"github.com/Corphon/VisageForge/internal/retry"
	"github.com/Corphon/VisageForge/internal/schema"
)

// GenerateSceneInput is one panel's worth of story generation.
type GenerateSceneInput struct {
	Prompt      string `json:"prompt" validate:"required"`
	Genre       string `json:"genre" validate:"required"`
	Style       string `json:"style" validate:"required"`
	PanelNumber int    `json:"panelNumber" validate:"min=1"`
	TotalPanels int    `json:"totalPanels" validate:"min=1"`
	// PreviousNarrative conditions the panel on the one before it; empty
	// for the first panel.
	PreviousNarrative string `json:"previousSceneNarrative,omitempty"`
}

// StoryService generates multi-panel visual stories one panel at a time.
// Panels are strictly sequential: each narrative is conditioned on the
// previous one, and each panel's image follows its text.
type StoryService struct {
	provider   llm.Provider
	validator  *schema.Validator
	store      *history.Store
	textModel  string
	imgModel   string
	historyCap int
	retries    int
	log        *slog.Logger
}

func NewStoryService(provider llm.Provider, validator *schema.Validator, store *history.Store, textModel, imageModel string, historyCap, maxRetries int, log *slog.Logger) *StoryService {
	return &StoryService{
		provider:   provider,
		validator:  validator,
		store:      store,
		textModel:  textModel,
		imgModel:   imageModel,
		historyCap: historyCap,
		retries:    maxRetries,
		log:        log,
	}
}

// GenerateScene writes one panel: its narrative and a content-only image
// prompt. Style keywords are kept out of the prompt; the chosen style is
// appended at image time.
func (s *StoryService) GenerateScene(ctx context.Context, input GenerateSceneInput) (*models.SceneOutput, error) {
	if err := s.validator.ValidateInput(&input); err != nil {
		return nil, err
	}

	wordCount := PerPanelWordCount(input.TotalPanels)

	systemPrompt := fmt.Sprintf(`You are an expert storyteller and a master prompt engineer for the Imagen text-to-image AI. Your task is to continue a story, writing just ONE single scene at a time. You must maintain perfect consistency with the previous parts of the story.

**Your Job:**
1.  **Write the NEXT Scene ONLY**: Based on the user's idea and the story so far, write the narrative for the *next* single scene.
2.  **Narrative Style**: Write in a traditional, descriptive novel style. **ABSOLUTELY NO SPEAKER TAGS** or script formatting (e.g., "NARRATOR:"). Adapt your tone to the provided **Genre**.
3.  **Word Count**: The scene you write should be approximately **%d words** long.
4.  **Image Prompt**: Create a vivid image prompt that reflects this new scene. **CRITICAL: The image prompt MUST NOT contain any artistic style keywords.** It should only describe the content of the scene. The user's chosen artistic style will be added later.

Your final output MUST be a valid JSON object with 'narrative' and 'imagePrompt' keys for this single scene.`, wordCount)

	previousNarrative := input.PreviousNarrative
	if previousNarrative == "" {
		previousNarrative = "(This is the first panel. Start the story.)"
	}

	userMessage := fmt.Sprintf(`Initial Idea: %q
Genre: %s
Artistic Style to eventually be applied (do not include in your prompt): %s
Total Panels in Story: %d
Current Panel to Generate: Panel #%d

---
Previous Scene's Narrative (for context):
%s
---

Now, generate the JSON for Panel #%d.`, input.Prompt, input.Genre, input.Style, input.TotalPanels, input.PanelNumber, previousNarrative, input.PanelNumber)

	resp, err := s.provider.CompleteJSON(ctx, llm.JSONRequest{
		SystemPrompt:   systemPrompt,
		UserPrompt:     userMessage,
		Model:          s.textModel,
		ResponseSchema: schema.SceneOutputSchema,
	})
	if err != nil {
		return nil, apperrors.WrapError(err, "the AI failed to generate story content for this scene", apperrors.TypeOf(err))
	}

	var scene models.SceneOutput
	if err := s.validator.DecodeAndValidate([]byte(resp.Text), &scene); err != nil {
		return nil, err
	}
	return &scene, nil
}

// GenerateStory runs the full batch loop: for each panel, text then
// image, never in parallel. Image generation goes through the retry
// wrapper; a panel whose image fails keeps its narrative and an empty
// image rather than sinking the whole story. The finished story is saved
// to the story history partition.
func (s *StoryService) GenerateStory(ctx context.Context, prompt, genre, style string, totalPanels int) (*models.StoryHistoryItem, error) {
	if totalPanels < 1 {
		return nil, apperrors.NewValidationError("totalPanels must be at least 1", nil)
	}

	stylePrompt := FindStyle(StoryStyles, style).Prompt
	scenes := make([]models.Scene, 0, totalPanels)
	previousNarrative := ""

	for panel := 1; panel <= totalPanels; panel++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		output, err := s.GenerateScene(ctx, GenerateSceneInput{
			Prompt:            prompt,
			Genre:             genre,
			Style:             style,
			PanelNumber:       panel,
			TotalPanels:       totalPanels,
			PreviousNarrative: previousNarrative,
		})
		if err != nil {
			return nil, err
		}

		scene := models.Scene{
			Narrative:   output.Narrative,
			ImagePrompt: output.ImagePrompt,
		}

		imagePrompt := output.ImagePrompt
		if stylePrompt != "" {
			imagePrompt = fmt.Sprintf("%s, %s", output.ImagePrompt, stylePrompt)
		}

		imageResp, err := retry.Do(ctx, s.retries, func() (*llm.ImageResponse, error) {
			return s.provider.GenerateImages(ctx, llm.ImageRequest{
				Prompt:      imagePrompt,
				Model:       s.imgModel,
				SampleCount: 1,
				AspectRatio: "16:9",
			})
		})
		if err != nil {
			s.log.Warn("panel image generation failed", "panel", panel, "error", err)
		} else if len(imageResp.Images) > 0 {
			scene.ImageURL = imageResp.Images[0]
		}

		scenes = append(scenes, scene)
		previousNarrative = output.Narrative
	}

	item := models.StoryHistoryItem{
		ID:     history.NewID(),
		Prompt: prompt,
		Settings: models.StorySettings{
			Genre:      genre,
			Style:      style,
			PanelCount: fmt.Sprintf("%d", totalPanels),
		},
		Scenes: scenes,
	}
	for _, scene := range scenes {
		if scene.ImageURL != "" {
			item.Thumbnail = scene.ImageURL
			break
		}
	}

	if err := s.store.SaveStoryItem(item); err != nil {
		return nil, err
	}
	if err := s.store.Prune(history.CategoryStory, s.historyCap); err != nil {
		return nil, err
	}

	return &item, nil
}

// OptimizeStoryPrompt rewrites a story idea to be more evocative within
// its genre.
func (s *StoryService) OptimizeStoryPrompt(ctx context.Context, prompt, genre string, panelCount int) (string, error) {
	if prompt == "" {
		return "", apperrors.NewValidationError("prompt is required", nil)
	}

	systemPrompt := `You are a creative assistant. Your task is to take a user's story idea and rewrite it to be more evocative and imaginative.
Incorporate the user's chosen genre.
You MUST return ONLY a valid JSON object matching this schema: { "optimizedPrompt": "string" }.`

	userPrompt := fmt.Sprintf(`Original story idea: %q
Genre: %s
Story Length: %d panels.

Please optimize the original idea.`, prompt, genre, panelCount)

	return s.singleString(ctx, systemPrompt, userPrompt, "optimizedPrompt")
}

// SurpriseMe asks the provider for a one-sentence story concept matched
// to the chosen parameters.
func (s *StoryService) SurpriseMe(ctx context.Context, genre, style string, panelCount int) (string, error) {
	systemPrompt := `You are a creative muse. Your task is to generate a short, intriguing, and imaginative story concept.
The concept should be a single, compelling sentence.
Do not add any preamble, conversational text, or quotation marks. You are an API. You MUST return ONLY a valid JSON object matching this schema: { "surprisePrompt": "string" }. Do not include any other text, conversation, or markdown formatting.`

	userPrompt := fmt.Sprintf(`Generate a story concept based on these random parameters:
- Genre: %s
- Artistic Style: %s
- Intended Story Length: %d panels.

The concept should be a great starting point for a visual story of this length.`, genre, style, panelCount)

	return s.singleString(ctx, systemPrompt, userPrompt, "surprisePrompt")
}

// History returns the story partition, newest first.
func (s *StoryService) History() ([]models.StoryHistoryItem, error) {
	return s.store.ListStoryItems()
}

func (s *StoryService) singleString(ctx context.Context, systemPrompt, userPrompt, key string) (string, error) {
	resp, err := s.provider.CompleteJSON(ctx, llm.JSONRequest{
		SystemPrompt:   systemPrompt,
		UserPrompt:     userPrompt,
		Model:          s.textModel,
		ResponseSchema: schema.SingleStringSchema(key),
	})
	if err != nil {
		return "", err
	}
	return schema.ExtractString([]byte(resp.Text), key)
}
