// internal/llm/providers/google/google.go
package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/Corphon/VisageForge/internal/errors"
	"github.com/Corphon/VisageForge/internal/llm"
)

func init() {
	llm.Register("google", func() llm.Provider {
		return &Provider{
			baseURL: "https://generativelanguage.googleapis.com/v1beta",
		}
	})
}

// Provider talks to the Google Generative Language API: generateContent for
// text and multimodal calls, predict for Imagen. The API key travels as a
// query parameter. Every response field is treated as untrusted.
type Provider struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	defaultModel string
}

func (p *Provider) Initialize(config map[string]string) error {
	apiKey, exists := config["api_key"]
	if !exists || apiKey == "" {
		return apperrors.NewProviderAuthError("API key is missing", nil)
	}

	p.apiKey = apiKey
	p.client = &http.Client{}

	if model, exists := config["default_model"]; exists && model != "" {
		p.defaultModel = model
	} else {
		p.defaultModel = "gemini-2.5-flash"
	}

	if baseURL, exists := config["base_url"]; exists && baseURL != "" {
		p.baseURL = baseURL
	}

	return nil
}

func (p *Provider) Name() string {
	return "google gemini"
}

// generation request/response wire shapes

type apiPart struct {
	Text       string         `json:"text,omitempty"`
	InlineData *apiInlineData `json:"inline_data,omitempty"`
}

type apiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type apiContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []apiPart `json:"parts"`
}

type apiSafetyRating struct {
	Category string `json:"category"`
	Blocked  bool   `json:"blocked"`
}

type apiCandidate struct {
	Content       apiContent        `json:"content"`
	FinishReason  string            `json:"finishReason"`
	SafetyRatings []apiSafetyRating `json:"safetyRatings"`
}

type apiGenerateResponse struct {
	Candidates     []apiCandidate `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func (p *Provider) CompleteJSON(ctx context.Context, req llm.JSONRequest) (*llm.JSONResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	generationConfig := map[string]any{
		"responseMimeType": "application/json",
	}
	if req.ResponseSchema != nil {
		generationConfig["responseSchema"] = req.ResponseSchema
	}
	if req.Temperature > 0 {
		generationConfig["temperature"] = req.Temperature
	}

	userParts := make([]apiPart, 0, 2)
	if req.InputImage != "" {
		mimeType, data, err := llm.ParseDataURI(req.InputImage)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid input image", err)
		}
		userParts = append(userParts, apiPart{InlineData: &apiInlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(data),
		}})
	}
	userParts = append(userParts, apiPart{Text: req.UserPrompt})

	requestBody := map[string]any{
		"contents":         []apiContent{{Parts: userParts}},
		"generationConfig": generationConfig,
	}
	if req.SystemPrompt != "" {
		requestBody["systemInstruction"] = apiContent{
			Parts: []apiPart{{Text: req.SystemPrompt}},
		}
	}

	apiURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, model, p.apiKey)

	var response apiGenerateResponse
	if err := p.post(ctx, apiURL, requestBody, &response); err != nil {
		return nil, err
	}

	if len(response.Candidates) == 0 {
		if response.PromptFeedback.BlockReason != "" {
			return nil, apperrors.NewSafetyBlockError(
				fmt.Sprintf("the response was blocked by a safety filter (%s)", response.PromptFeedback.BlockReason), nil)
		}
		return nil, apperrors.NewTransientError("the AI returned an empty response", nil)
	}

	candidate := response.Candidates[0]
	var resultText strings.Builder
	for _, part := range candidate.Content.Parts {
		resultText.WriteString(part.Text)
	}

	if resultText.Len() == 0 {
		if candidate.FinishReason == "SAFETY" {
			return nil, apperrors.NewSafetyBlockError(
				fmt.Sprintf("the response was blocked for safety reasons: %s", blockedCategories(candidate.SafetyRatings)), nil)
		}
		return nil, apperrors.NewTransientError("the AI returned an empty response", nil)
	}

	return &llm.JSONResponse{
		Text:         resultText.String(),
		FinishReason: candidate.FinishReason,
		TokensUsed:   response.UsageMetadata.TotalTokenCount,
		ModelName:    model,
		ProviderName: p.Name(),
	}, nil
}

func (p *Provider) GenerateImages(ctx context.Context, req llm.ImageRequest) (*llm.ImageResponse, error) {
	model := req.Model
	if model == "" {
		model = "imagen-3.0-generate-002"
	}

	// The Gemini image-generation preview models run through the multimodal
	// generateContent endpoint; the Imagen family uses predict.
	if strings.Contains(model, "image-generation") {
		return p.generateWithGemini(ctx, model, req)
	}
	return p.generateWithImagen(ctx, model, req)
}

func (p *Provider) generateWithImagen(ctx context.Context, model string, req llm.ImageRequest) (*llm.ImageResponse, error) {
	sampleCount := req.SampleCount
	if sampleCount <= 0 {
		sampleCount = 1
	}
	aspectRatio := req.AspectRatio
	if aspectRatio == "" {
		aspectRatio = "1:1"
	}

	requestBody := map[string]any{
		"instances": []map[string]any{{"prompt": req.Prompt}},
		"parameters": map[string]any{
			"sampleCount": sampleCount,
			"aspectRatio": aspectRatio,
		},
	}

	apiURL := fmt.Sprintf("%s/models/%s:predict?key=%s", p.baseURL, model, p.apiKey)

	var response struct {
		Predictions []struct {
			BytesBase64Encoded string `json:"bytesBase64Encoded"`
			MimeType           string `json:"mimeType"`
		} `json:"predictions"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := p.post(ctx, apiURL, requestBody, &response); err != nil {
		return nil, err
	}

	// An HTTP-200 body with no predictions is a failure, not "no content".
	if len(response.Predictions) == 0 {
		if response.Error != nil && response.Error.Message != "" {
			return nil, classifyMessage(response.Error.Message, nil)
		}
		return nil, apperrors.NewTransientError("image generation failed: the API returned no predictions", nil)
	}

	images := make([]string, 0, len(response.Predictions))
	for _, prediction := range response.Predictions {
		if prediction.BytesBase64Encoded == "" {
			continue
		}
		images = append(images, fmt.Sprintf("data:image/png;base64,%s", prediction.BytesBase64Encoded))
	}
	if len(images) == 0 {
		return nil, apperrors.NewTransientError("image generation failed: predictions carried no image data", nil)
	}

	return &llm.ImageResponse{Images: images}, nil
}

func (p *Provider) generateWithGemini(ctx context.Context, model string, req llm.ImageRequest) (*llm.ImageResponse, error) {
	var parts []apiPart
	if req.InputImage != "" {
		mimeType, data, err := llm.ParseDataURI(req.InputImage)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid input image", err)
		}
		parts = append(parts, apiPart{InlineData: &apiInlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(data),
		}})
	}
	if req.Prompt != "" {
		parts = append(parts, apiPart{Text: req.Prompt})
	}
	if len(parts) == 0 {
		return nil, apperrors.NewValidationError("prompt or image is required for generation", nil)
	}

	requestBody := map[string]any{
		"contents": []apiContent{{Parts: parts}},
		"generationConfig": map[string]any{
			"responseModalities": []string{"TEXT", "IMAGE"},
		},
	}

	apiURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, model, p.apiKey)

	var response apiGenerateResponse
	if err := p.post(ctx, apiURL, requestBody, &response); err != nil {
		return nil, err
	}

	if len(response.Candidates) == 0 {
		return nil, apperrors.NewTransientError("the AI returned an empty response", nil)
	}

	candidate := response.Candidates[0]
	var images []string
	var textReply strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			mimeType := part.InlineData.MimeType
			if mimeType == "" {
				mimeType = "image/png"
			}
			images = append(images, fmt.Sprintf("data:%s;base64,%s", mimeType, part.InlineData.Data))
			continue
		}
		textReply.WriteString(part.Text)
	}

	if len(images) == 0 {
		if candidate.FinishReason == "SAFETY" {
			return nil, apperrors.NewSafetyBlockError(
				fmt.Sprintf("image generation was blocked for safety reasons: %s", blockedCategories(candidate.SafetyRatings)), nil)
		}
		if reply := strings.TrimSpace(textReply.String()); reply != "" {
			return nil, apperrors.NewTransientError(
				fmt.Sprintf("the AI did not return an image. It responded with: %q", reply), nil)
		}
		return nil, apperrors.NewTransientError(
			"the AI responded with empty text instead of an image; try rephrasing the prompt", nil)
	}

	return &llm.ImageResponse{Images: images}, nil
}

func (p *Provider) ChatMultimodal(ctx context.Context, history []llm.ChatMessage) (*llm.ChatMessage, error) {
	contents := make([]apiContent, 0, len(history))
	for _, message := range history {
		parts := make([]apiPart, 0, len(message.Parts))
		for _, part := range message.Parts {
			if part.Image != "" {
				mimeType, data, err := llm.ParseDataURI(part.Image)
				if err != nil {
					return nil, apperrors.NewValidationError("invalid chat image", err)
				}
				parts = append(parts, apiPart{InlineData: &apiInlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(data),
				}})
				continue
			}
			parts = append(parts, apiPart{Text: part.Text})
		}
		contents = append(contents, apiContent{Role: message.Role, Parts: parts})
	}

	requestBody := map[string]any{
		"contents": contents,
		"generationConfig": map[string]any{
			"responseModalities": []string{"TEXT", "IMAGE"},
		},
	}

	model := "gemini-2.0-flash-preview-image-generation"
	apiURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, model, p.apiKey)

	var response apiGenerateResponse
	if err := p.post(ctx, apiURL, requestBody, &response); err != nil {
		return nil, err
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		if len(response.Candidates) > 0 && response.Candidates[0].FinishReason == "SAFETY" {
			return nil, apperrors.NewSafetyBlockError(
				fmt.Sprintf("the chat response was blocked for safety reasons: %s", blockedCategories(response.Candidates[0].SafetyRatings)), nil)
		}
		return nil, apperrors.NewTransientError("the AI returned an empty or unexpected response", nil)
	}

	reply := &llm.ChatMessage{Role: "model"}
	for _, part := range response.Candidates[0].Content.Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			mimeType := part.InlineData.MimeType
			if mimeType == "" {
				mimeType = "image/png"
			}
			reply.Parts = append(reply.Parts, llm.ChatPart{
				Image: fmt.Sprintf("data:%s;base64,%s", mimeType, part.InlineData.Data),
			})
			continue
		}
		reply.Parts = append(reply.Parts, llm.ChatPart{Text: part.Text})
	}
	if len(reply.Parts) == 0 {
		return nil, apperrors.NewTransientError("the AI's reply was empty", nil)
	}

	return reply, nil
}

// post sends one JSON request and decodes the body into out, classifying
// transport and HTTP failures into the error taxonomy.
func (p *Provider) post(ctx context.Context, apiURL string, body any, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return apperrors.NewValidationError("failed to encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return apperrors.NewTransientError("failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return apperrors.NewTransientError("request to the AI provider failed", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return apperrors.NewTransientError("failed to read provider response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return classifyHTTPError(httpResp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return apperrors.NewTransientError("the provider returned a malformed response body", err)
	}
	return nil
}

// classifyHTTPError maps a non-200 response to the error taxonomy using the
// status code and the provider's error message.
func classifyHTTPError(status int, body []byte) error {
	var errorResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	message := ""
	if err := json.Unmarshal(body, &errorResp); err == nil {
		message = errorResp.Error.Message
	}
	if message == "" {
		message = fmt.Sprintf("HTTP error, status: %d", status)
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return apperrors.NewProviderAuthError("authentication failed, check your API key", fmt.Errorf("%s", message))
	}
	return classifyMessage(message, fmt.Errorf("status %d", status))
}

// classifyMessage inspects a provider error message for the two
// non-retriable classes; everything else is transient.
func classifyMessage(message string, cause error) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "api key not valid"), strings.Contains(lower, "api key"), strings.Contains(lower, "authentication"):
		return apperrors.NewProviderAuthError("authentication failed, check your API key", cause)
	case strings.Contains(lower, "safety policy"), strings.Contains(lower, "safety"):
		return apperrors.NewSafetyBlockError("your prompt was blocked for safety reasons, try a different prompt", cause)
	default:
		return apperrors.NewTransientError(message, cause)
	}
}

func blockedCategories(ratings []apiSafetyRating) string {
	var blocked []string
	for _, r := range ratings {
		if r.Blocked {
			blocked = append(blocked, r.Category)
		}
	}
	if len(blocked) == 0 {
		return "unspecified reasons"
	}
	return strings.Join(blocked, ", ")
}
