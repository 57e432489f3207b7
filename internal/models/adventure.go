// internal/models/adventure.go
package models

// CharacterSkills holds the five skill scores, each in 0-10. A freshly
// generated distribution sums to the 15-point budget.
type CharacterSkills struct {
	Strength     int `json:"strength" validate:"min=0,max=10"`
	Agility      int `json:"agility" validate:"min=0,max=10"`
	Intelligence int `json:"intelligence" validate:"min=0,max=10"`
	Charisma     int `json:"charisma" validate:"min=0,max=10"`
	Luck         int `json:"luck" validate:"min=0,max=10"`
}

// DefaultSkillValue is the neutral per-skill allocation a caller submits when
// they want the provider to invent the distribution.
const DefaultSkillValue = 3

// SkillBudget is the total points available to a generated distribution.
const SkillBudget = 15

// IsDefault reports whether every skill sits at the neutral baseline.
func (s CharacterSkills) IsDefault() bool {
	return s.Strength == DefaultSkillValue &&
		s.Agility == DefaultSkillValue &&
		s.Intelligence == DefaultSkillValue &&
		s.Charisma == DefaultSkillValue &&
		s.Luck == DefaultSkillValue
}

// Score returns the value of the named skill, or 0 for an unknown name.
func (s CharacterSkills) Score(skill string) int {
	switch skill {
	case "strength":
		return s.Strength
	case "agility":
		return s.Agility
	case "intelligence":
		return s.Intelligence
	case "charisma":
		return s.Charisma
	case "luck":
		return s.Luck
	}
	return 0
}

// Character is the player character for one adventure. Stats are
// provider-authoritative after each turn; CharacterImageURL and
// VisualDescription are owned by local state and never provider-written.
// Health can go negative when a lethal blow overshoots zero; any value at
// or below zero is a defeat.
type Character struct {
	Name              string          `json:"name" validate:"required"`
	Description       string          `json:"description" validate:"required"`
	VisualDescription string          `json:"characterVisualDescription"`
	Skills            CharacterSkills `json:"skills"`
	Health            int             `json:"health"`
	MaxHealth         int             `json:"maxHealth" validate:"min=1"`
	CharacterImageURL string          `json:"characterImageUrl,omitempty"`
}

// InventoryItem is one carried item. The collection is replaced wholesale by
// provider output on every turn.
type InventoryItem struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity" validate:"min=0"`
}

// SkillCheck names the skill being tested and the difficulty class the
// 2d6+skill total must meet or beat. Sensible DCs run 8-18.
type SkillCheck struct {
	Skill string `json:"skill" validate:"required,oneof=strength agility intelligence charisma luck"`
	DC    int    `json:"dc" validate:"required"`
}

// Choice is one option presented to the player within a scene.
type Choice struct {
	Text       string      `json:"text" validate:"required"`
	SkillCheck *SkillCheck `json:"skillCheck,omitempty" validate:"omitempty"`
}

// Scene is one step of the adventure. ImagePrompt describes content only;
// the visual style is composed downstream. Choices is empty exactly when the
// scene is terminal.
type Scene struct {
	Narrative   string   `json:"narrative" validate:"required"`
	ImagePrompt string   `json:"imagePrompt" validate:"required"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Choices     []Choice `json:"choices" validate:"dive"`
	IsTerminal  bool     `json:"isTerminal,omitempty"`
	// IsGeneratingImage is a client-only in-flight flag, never persisted.
	IsGeneratingImage bool `json:"isGeneratingImage,omitempty"`
}

// AdventureState is the full turn-by-turn state of one adventure.
// SceneHistory never includes CurrentScene; on each turn the old current
// scene is appended to history before the new scene replaces it.
type AdventureState struct {
	Character    Character       `json:"character"`
	Inventory    []InventoryItem `json:"inventory" validate:"dive"`
	CurrentScene Scene           `json:"currentScene"`
	SceneHistory []Scene         `json:"sceneHistory" validate:"dive"`
}

// AdventureOpening is the provider's answer to the opening-scene call:
// a starting inventory and the first scene.
type AdventureOpening struct {
	Inventory    []InventoryItem `json:"inventory" validate:"dive"`
	CurrentScene Scene           `json:"currentScene"`
}

// GeneratedCharacter is a provider-invented character concept used by the
// random adventure builder, before health and visuals are filled in.
type GeneratedCharacter struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Skills      CharacterSkills `json:"skills"`
}

// AdventureSetup bundles everything needed to start a randomized adventure.
type AdventureSetup struct {
	Character       GeneratedCharacter `json:"character"`
	Setting         string             `json:"setting"`
	AdventureLength string             `json:"adventureLength"`
	VisualStyle     string             `json:"visualStyle"`
}

// SceneOutput is one story-mode panel: prose plus a content-only image
// prompt.
type SceneOutput struct {
	Narrative   string `json:"narrative" validate:"required"`
	ImagePrompt string `json:"imagePrompt" validate:"required"`
}

// DeriveHealth maps strength to starting health through the fixed step
// function the game rules use. Health and max health are equal for a fresh
// character.
func DeriveHealth(strength int) int {
	switch {
	case strength <= 2:
		return 5
	case strength <= 4:
		return 10
	case strength <= 6:
		return 15
	default:
		return 20
	}
}
