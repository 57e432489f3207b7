// internal/schema/response_schemas.go
package schema

import (
	"encoding/json"

	apperrors "github.com/Corphon/VisageForge/internal/errors"
)

// The maps below are the output-shape declarations sent to the provider in
// generationConfig.responseSchema. They constrain what the model emits; the
// Validator still re-checks everything on the way back in, because the
// provider's compliance cannot be trusted.

// Map is a provider-side schema node.
type Map = map[string]any

// CharacterSkillsSchema declares the five-skill block.
var CharacterSkillsSchema = Map{
	"type": "OBJECT",
	"properties": Map{
		"strength":     Map{"type": "NUMBER", "description": "A measure of physical power. Affects melee combat and physical feats. Range 0-10."},
		"agility":      Map{"type": "NUMBER", "description": "A measure of nimbleness, reflexes, and stealth. Affects ranged combat and acrobatic feats. Range 0-10."},
		"intelligence": Map{"type": "NUMBER", "description": "A measure of problem-solving, knowledge, and magic. Affects puzzles and spellcasting. Range 0-10."},
		"charisma":     Map{"type": "NUMBER", "description": "A measure of social skill and influence. Affects dialogue and persuasion. Range 0-10."},
		"luck":         Map{"type": "NUMBER", "description": "A measure of pure fortune and chance. Affects critical hits and random events. Range 0-10."},
	},
	"required": []string{"strength", "agility", "intelligence", "charisma", "luck"},
}

// CharacterSchema declares a full character. The portrait URL is not part of
// the schema: it is populated by a separate image-generation side effect,
// never by the narrative call.
var CharacterSchema = Map{
	"type": "OBJECT",
	"properties": Map{
		"name":                       Map{"type": "STRING", "description": "The character's name."},
		"description":                Map{"type": "STRING", "description": "A brief, evocative description of the character."},
		"characterVisualDescription": Map{"type": "STRING", "description": "A detailed, reusable description of the character's physical appearance, clothing, and gear for visual consistency in generated images."},
		"skills":                     CharacterSkillsSchema,
		"health":                     Map{"type": "NUMBER", "description": "The character's current health points."},
		"maxHealth":                  Map{"type": "NUMBER", "description": "The character's maximum health points."},
	},
	"required": []string{"name", "description", "characterVisualDescription", "skills", "health", "maxHealth"},
}

// InventoryItemSchema declares one carried item.
var InventoryItemSchema = Map{
	"type": "OBJECT",
	"properties": Map{
		"name":        Map{"type": "STRING", "description": "The name of the item."},
		"description": Map{"type": "STRING", "description": "A description of the item and its effects."},
		"quantity":    Map{"type": "NUMBER", "description": "How many of this item the character has."},
	},
	"required": []string{"name", "description", "quantity"},
}

// SkillCheckSchema declares an optional skill check on a choice.
var SkillCheckSchema = Map{
	"type": "OBJECT",
	"properties": Map{
		"skill": Map{"type": "STRING", "enum": []string{"strength", "agility", "intelligence", "charisma", "luck"}, "description": "The skill being tested."},
		"dc":    Map{"type": "NUMBER", "description": "The Difficulty Class of the check. A higher number is harder. Sensible range for a 2d6+skill system is 8-18."},
	},
	"required": []string{"skill", "dc"},
}

// ChoiceSchema declares one player choice.
var ChoiceSchema = Map{
	"type": "OBJECT",
	"properties": Map{
		"text":       Map{"type": "STRING", "description": "The text describing the user's choice."},
		"skillCheck": withDescription(SkillCheckSchema, "An optional skill check associated with this choice."),
	},
	"required": []string{"text"},
}

// AdventureSceneSchema declares one scene of the adventure.
var AdventureSceneSchema = Map{
	"type": "OBJECT",
	"properties": Map{
		"narrative":   Map{"type": "STRING", "description": "The prose narrative for the current scene."},
		"imagePrompt": Map{"type": "STRING", "description": "A detailed image prompt for this scene, EXCLUDING the character description."},
		"choices": Map{
			"type":        "ARRAY",
			"description": "An array of 2-3 choices for the user. Should be empty for a terminal scene.",
			"items":       ChoiceSchema,
		},
		"isTerminal": Map{"type": "BOOLEAN", "description": "Signifies this is a terminal scene (victory or game over). No more choices will be presented."},
	},
	"required": []string{"narrative", "imagePrompt", "choices"},
}

// AdventureOpeningSchema declares the opening call's answer: starting
// inventory plus first scene.
var AdventureOpeningSchema = Map{
	"type": "OBJECT",
	"properties": Map{
		"inventory":    Map{"type": "ARRAY", "items": InventoryItemSchema},
		"currentScene": AdventureSceneSchema,
	},
	"required": []string{"inventory", "currentScene"},
}

// AdventureProgressSchema declares the per-turn answer. The character block
// deliberately omits characterVisualDescription and the portrait URL: both
// are locally-owned fields merged back by the engine.
var AdventureProgressSchema = Map{
	"type": "OBJECT",
	"properties": Map{
		"character": Map{
			"type": "OBJECT",
			"properties": Map{
				"name":        Map{"type": "STRING"},
				"description": Map{"type": "STRING"},
				"skills":      CharacterSkillsSchema,
				"health":      Map{"type": "NUMBER"},
				"maxHealth":   Map{"type": "NUMBER"},
			},
			"required": []string{"name", "description", "skills", "health", "maxHealth"},
		},
		"inventory":    Map{"type": "ARRAY", "items": InventoryItemSchema},
		"currentScene": AdventureSceneSchema,
	},
	"required": []string{"character", "inventory", "currentScene"},
}

// GeneratedCharacterSchema declares the lightweight character concept used
// by the random adventure builder.
var GeneratedCharacterSchema = Map{
	"type": "OBJECT",
	"properties": Map{
		"name":        Map{"type": "STRING"},
		"description": Map{"type": "STRING"},
		"skills":      CharacterSkillsSchema,
	},
	"required": []string{"name", "description", "skills"},
}

// SceneOutputSchema declares one story-mode panel.
var SceneOutputSchema = Map{
	"type": "OBJECT",
	"properties": Map{
		"narrative":   Map{"type": "STRING", "description": "The narrative text for this single scene, written as pure, descriptive prose like in a novel. It must not contain any speaker tags or script formatting."},
		"imagePrompt": Map{"type": "STRING", "description": "A highly detailed and vivid image prompt for an AI image generator that visually represents this scene. Ensure consistent character and environment descriptions across scenes."},
	},
	"required": []string{"narrative", "imagePrompt"},
}

// SingleStringSchema declares a one-key object holding a single string,
// used by the prompt-optimizer style calls.
func SingleStringSchema(key string) Map {
	return Map{
		"type": "OBJECT",
		"properties": Map{
			key: Map{"type": "STRING"},
		},
		"required": []string{key},
	}
}

// ExtractString pulls the named string out of a one-key JSON object
// response. A missing or empty value is a schema violation.
func ExtractString(data []byte, key string) (string, error) {
	// Only the requested key is decoded strictly; models often volunteer
	// extra keys of arbitrary types, and those must not fail the extraction.
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", apperrors.NewSchemaViolationError(
			"the AI returned malformed JSON, which could not be read",
			[]string{key + ": malformed JSON"}, err)
	}
	raw, ok := decoded[key]
	if !ok {
		return "", apperrors.NewSchemaViolationError(
			"the AI returned an unexpected response format",
			[]string{key + ": required value is missing"}, nil)
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", apperrors.NewSchemaViolationError(
			"the AI returned an unexpected response format",
			[]string{key + ": value is not a string"}, err)
	}
	if value == "" {
		return "", apperrors.NewSchemaViolationError(
			"the AI returned an unexpected response format",
			[]string{key + ": required value is missing"}, nil)
	}
	return value, nil
}

func withDescription(schema Map, description string) Map {
	out := make(Map, len(schema)+1)
	for k, v := range schema {
		out[k] = v
	}
	out["description"] = description
	return out
}
