// internal/models/history.go
package models

// GeneratedImage references one generated image. At the module's public
// boundary the URL is a data URI; the history store keeps raw bytes
// internally and re-encodes on the way out.
type GeneratedImage struct {
	URL string `json:"url"`
}

// StudioSettings captures the generation parameters of a studio history
// entry.
type StudioSettings struct {
	Model       string `json:"model"`
	Style       string `json:"style"`
	ImageCount  int    `json:"imageCount"`
	AspectRatio string `json:"aspectRatio"`
}

// HistoryItem is one persisted studio generation. ID is the RFC3339 creation
// timestamp and doubles as the sort key.
type HistoryItem struct {
	ID             string           `json:"id"`
	Prompt         string           `json:"prompt"`
	Images         []GeneratedImage `json:"images"`
	Settings       StudioSettings   `json:"settings"`
	GenerationMode string           `json:"generationMode,omitempty"` // text, sketch, img2img, chat
}

// KidsSettings captures the guided choices behind a kids-mode image.
type KidsSettings struct {
	Setting  string   `json:"setting"`
	Subjects []string `json:"subjects"`
	Props    []string `json:"props"`
	Style    string   `json:"style"`
}

// KidsHistoryItem is one persisted kids-mode generation.
type KidsHistoryItem struct {
	ID       string       `json:"id"`
	Image    string       `json:"image"`
	Settings KidsSettings `json:"settings"`
}

// StorySettings captures the parameters of a story-mode run.
type StorySettings struct {
	Genre      string `json:"genre"`
	Style      string `json:"style"`
	PanelCount string `json:"panelCount"`
}

// StoryHistoryItem is one persisted multi-panel story.
type StoryHistoryItem struct {
	ID        string        `json:"id"`
	Prompt    string        `json:"prompt"`
	Settings  StorySettings `json:"settings"`
	Scenes    []Scene       `json:"scenes"`
	Thumbnail string        `json:"thumbnail"`
}

// ChatPart is one fragment of a chat turn: text or an inline image data URI.
type ChatPart struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

// ChatMessage is one turn of a multi-turn image chat.
type ChatMessage struct {
	Role  string     `json:"role"` // user or model
	Parts []ChatPart `json:"parts"`
}
