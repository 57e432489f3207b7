// internal/services/kids_service.go
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

// KidsService builds child-friendly images from guided picks: a setting,
// up to three subjects, up to three props and a style. The prompt is
// assembled locally; no free text reaches the provider.
type KidsService struct {
	provider   llm.Provider
	validator  *schema.Validator
	store      *history.Store
	imgModel   string
	historyCap int
	retries    int
	log        *slog.Logger
}

func NewKidsService(provider llm.Provider, validator *schema.Validator, store *history.Store, imageModel string, historyCap, maxRetries int, log *slog.Logger) *KidsService {
	return &KidsService{
		provider:   provider,
		validator:  validator,
		store:      store,
		imgModel:   imageModel,
		historyCap: historyCap,
		retries:    maxRetries,
		log:        log,
	}
}

// GenerateImage assembles the guided prompt and renders one 4:3 image,
// recording the result in the kids history partition.
func (s *KidsService) GenerateImage(ctx context.Context, settings models.KidsSettings) (*models.KidsHistoryItem, error) {
	if settings.Setting == "" {
		return nil, apperrors.NewValidationError("a setting is required", nil)
	}
	if len(settings.Subjects) > KidsMaxSelect {
		return nil, apperrors.NewValidationError(fmt.Sprintf("at most %d subjects may be selected", KidsMaxSelect), nil)
	}
	if len(settings.Props) > KidsMaxSelect {
		return nil, apperrors.NewValidationError(fmt.Sprintf("at most %d props may be selected", KidsMaxSelect), nil)
	}

	prompt := BuildKidsPrompt(settings)

	resp, err := retry.Do(ctx, s.retries, func() (*llm.ImageResponse, error) {
		return s.provider.GenerateImages(ctx, llm.ImageRequest{
			Prompt:      prompt,
			Model:       s.imgModel,
			SampleCount: 1,
			AspectRatio: "4:3",
		})
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Images) == 0 {
		return nil, apperrors.NewTransientError("image generation failed to produce an image", nil)
	}

	item := models.KidsHistoryItem{
		ID:       history.NewID(),
		Image:    resp.Images[0],
		Settings: settings,
	}

	if err := s.store.SaveKidsItem(item); err != nil {
		return nil, err
	}
	if err := s.store.Prune(history.CategoryKids, s.historyCap); err != nil {
		return nil, err
	}

	return &item, nil
}

// History returns the kids partition, newest first.
func (s *KidsService) History() ([]models.KidsHistoryItem, error) {
	return s.store.ListKidsItems()
}

// BuildKidsPrompt joins the style instruction, setting and picks into the
// final generation prompt.
func BuildKidsPrompt(settings models.KidsSettings) string {
	parts := []string{
		KidsStyleInstruction(settings.Style),
		fmt.Sprintf("The scene is a %s.", settings.Setting),
	}

	if len(settings.Subjects) > 0 {
		parts = append(parts, "It should contain the following cute characters or items:")
		for _, subject := range settings.Subjects {
			parts = append(parts, fmt.Sprintf("- A %s", subject))
		}
	}

	if len(settings.Props) > 0 {
		parts = append(parts, "It should also include these simple props:")
		for _, prop := range settings.Props {
			parts = append(parts, fmt.Sprintf("- A %s", prop))
		}
	}

	if len(settings.Subjects) == 0 && len(settings.Props) == 0 {
		parts = append(parts, "The setting should be very cheerful and simple.")
	}

	return strings.Join(parts, "\n")
}
