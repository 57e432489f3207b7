// internal/services/adventure_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Corphon/VisageForge/internal/dice"
	apperrors "github.com/Corphon/VisageForge/internal/errors"
	"github.com/Corphon/VisageForge/internal/llm"
	"github.com/Corphon/VisageForge/internal/models"
	"github.com/Corphon/VisageForge/internal/retry"
	"github.com/Corphon/VisageForge/internal/schema"
)

// Phase tracks where an adventure session is in its lifecycle.
type Phase string

const (
	PhaseUninitialized    Phase = "uninitialized"
	PhaseCharacterCreated Phase = "character_created"
	PhaseOpeningGenerated Phase = "opening_generated"
	PhasePlaying          Phase = "playing"
	PhaseTerminal         Phase = "terminal"
)

// Session is one adventure in progress. All narrative state lives here;
// the service itself is stateless across sessions. The busy flags stop a
// second portrait or scene-image request from racing an in-flight one.
type Session struct {
	ID              string
	Setting         string
	AdventureLength string
	VisualStyle     string

	Phase Phase
	State models.AdventureState

	mu           sync.Mutex
	portraitBusy bool
	sceneBusy    bool
}

// AdventureService drives character creation and the turn loop. Skill
// checks are rolled locally; the provider narrates the resolved outcome.
type AdventureService struct {
	provider  llm.Provider
	validator *schema.Validator
	roller    *dice.Roller
	textModel string
	imgModel  string
	retries   int
	log       *slog.Logger
}

func NewAdventureService(provider llm.Provider, validator *schema.Validator, roller *dice.Roller, textModel, imageModel string, maxRetries int, log *slog.Logger) *AdventureService {
	return &AdventureService{
		provider:  provider,
		validator: validator,
		roller:    roller,
		textModel: textModel,
		imgModel:  imageModel,
		retries:   maxRetries,
		log:       log,
	}
}

// NewSession starts a blank adventure in the given setting, length and
// visual style.
func (s *AdventureService) NewSession(setting, adventureLength, visualStyle string) *Session {
	return &Session{
		ID:              uuid.NewString(),
		Setting:         setting,
		AdventureLength: adventureLength,
		VisualStyle:     visualStyle,
		Phase:           PhaseUninitialized,
	}
}

// CreateCharacter asks the provider to forge the session's character.
// Default skills (all threes) hand the 15-point distribution to the
// provider; anything else must be echoed back exactly, and is enforced
// locally regardless of what the provider returns. Health is always
// re-derived from strength.
func (s *AdventureService) CreateCharacter(ctx context.Context, session *Session, prompt string, skills models.CharacterSkills) (*models.Character, error) {
	if err := s.validator.ValidateInput(&skills); err != nil {
		return nil, err
	}

	useDefaultSkills := skills.IsDefault()

	var skillInstruction string
	if useDefaultSkills {
		skillInstruction = fmt.Sprintf("You MUST generate the character's skills. You have exactly %d points to distribute among Strength, Agility, Intelligence, Charisma, and Luck. No single skill can be higher than 10 or lower than 0. The distribution must be thematically appropriate for the character you create.", models.SkillBudget)
	} else {
		skillsJSON, _ := json.Marshal(skills)
		skillInstruction = fmt.Sprintf("CRITICAL: The user has pre-defined the character's skills. The 'skills' object in your JSON response MUST BE an EXACT copy of the following, do NOT change any values: %s", skillsJSON)
	}

	healthInstruction := "Calculate starting health based on Strength. A Strength of 1-2 gives 5 HP. A Strength of 3-4 gives 10 HP. A Strength of 5-6 gives 15 HP. A Strength of 7-10 gives the maximum of 20 HP. Set both 'health' and 'maxHealth' to this calculated value."

	conceptPrompt := prompt
	if conceptPrompt == "" {
		conceptPrompt = "Generate a random character concept from scratch."
	}

	systemPrompt := fmt.Sprintf(`You are an expert AI Character Smith for a 'choose your own adventure' game. Your task is to generate the character based on the user's input.

**Your Core Rules:**
1.  **Create a Character:** Based on the user's prompt and the setting, create a compelling character.
    *   **CRITICAL: You MUST generate a unique and creative name.** Be inventive. Do NOT use common fantasy names like "Elara", "Kael", "Lyra", "Ronan", "Seraphina", "Draven", or "Alistair". Do not use names you have generated recently.
    *   Assign a name and write a brief, evocative description.
    *   %s
    *   %s
    *   You MUST also create a detailed, reusable visual description of the character's physical appearance, clothing, and gear in a new field called 'characterVisualDescription'. This will be used to keep the character looking the same in all images.
2.  **Adhere to the Schema:** Your final output MUST be a single, valid JSON object that strictly follows the Character schema provided. Do not add any text before or after the JSON object.

**User's Request:**
*   **Initial Idea:** %s
*   **Setting:** %s

Generate the complete JSON for the character.`, skillInstruction, healthInstruction, conceptPrompt, session.Setting)

	resp, err := s.provider.CompleteJSON(ctx, llm.JSONRequest{
		SystemPrompt:   systemPrompt,
		UserPrompt:     "Please proceed.",
		Model:          s.textModel,
		Temperature:    1.2,
		ResponseSchema: schema.CharacterSchema,
	})
	if err != nil {
		return nil, apperrors.WrapError(err, "the AI failed to generate the character", apperrors.TypeOf(err))
	}

	var character models.Character
	if err := s.validator.DecodeAndValidate([]byte(resp.Text), &character); err != nil {
		return nil, err
	}

	if !useDefaultSkills {
		character.Skills = skills
	}
	health := models.DeriveHealth(character.Skills.Strength)
	character.Health = health
	character.MaxHealth = health

	session.State = models.AdventureState{Character: character}
	session.Phase = PhaseCharacterCreated

	s.log.Info("character created", "session", session.ID, "name", character.Name)
	return &session.State.Character, nil
}

// GenerateCharacterIdea invents a name, description and skill spread
// without committing it to any session.
func (s *AdventureService) GenerateCharacterIdea(ctx context.Context, prompt string) (*models.GeneratedCharacter, error) {
	systemPrompt := fmt.Sprintf(`You are an AI Character Smith for a 'choose your own adventure' game. Your task is to generate a character concept including a name, a short, evocative description, and their starting skills.

**Your Core Rules:**
1.  **Character Concept**: If the user provides an idea, use it as the foundation. If not, invent a compelling character from scratch. **CRITICAL: You must generate a unique and creative name and concept.** Do NOT use common fantasy names like "Elara", "Kael", "Lyra", "Ronan", "Seraphina", "Draven", or "Alistair". Do not use names you have generated recently.
2.  **Assign Skills**: You have exactly %d points to distribute among Strength, Agility, Intelligence, Charisma, and Luck. No single skill can be higher than 10 or lower than 0. The distribution must be thematically appropriate for the character.
3.  **JSON Output**: Your response MUST be a single, valid JSON object that strictly follows this schema: { "name": "string", "description": "string", "skills": { "strength": number, "agility": number, "intelligence": number, "charisma": number, "luck": number } }.`, models.SkillBudget)

	userMessage := "Generate a random character concept."
	if prompt != "" {
		userMessage = fmt.Sprintf("Use this idea as inspiration: %q", prompt)
	}

	resp, err := s.provider.CompleteJSON(ctx, llm.JSONRequest{
		SystemPrompt:   systemPrompt,
		UserPrompt:     userMessage,
		Model:          s.textModel,
		Temperature:    1.2,
		ResponseSchema: schema.GeneratedCharacterSchema,
	})
	if err != nil {
		return nil, err
	}

	var character models.GeneratedCharacter
	if err := s.validator.DecodeAndValidate([]byte(resp.Text), &character); err != nil {
		return nil, err
	}
	return &character, nil
}

// BuildRandomAdventure rolls a full setup: a seeded character concept plus
// a random length and visual style for the chosen setting.
func (s *AdventureService) BuildRandomAdventure(ctx context.Context, setting string) (*models.AdventureSetup, error) {
	seeds := StorySeeds(setting)
	length := AdventureLengths[rand.Intn(len(AdventureLengths))].Key
	style := AdventurerStyles[rand.Intn(len(AdventurerStyles))].Key
	seed := seeds[rand.Intn(len(seeds))]

	characterPrompt := fmt.Sprintf("A compelling and unique character concept for a %s adventure %s.", setting, seed)

	character, err := s.GenerateCharacterIdea(ctx, characterPrompt)
	if err != nil {
		return nil, apperrors.WrapError(err, "failed to generate character for the adventure", apperrors.TypeOf(err))
	}

	return &models.AdventureSetup{
		Character:       *character,
		Setting:         setting,
		AdventureLength: length,
		VisualStyle:     style,
	}, nil
}

// GenerateOpening produces the starting inventory and first scene. A
// failure here collapses the session back to uninitialized; the caller
// must recreate the character before trying again.
func (s *AdventureService) GenerateOpening(ctx context.Context, session *Session) (*models.AdventureOpening, error) {
	if session.Phase != PhaseCharacterCreated {
		return nil, apperrors.NewValidationError(fmt.Sprintf("cannot generate an opening in phase %s", session.Phase), nil)
	}

	opening, err := s.generateOpening(ctx, session)
	if err != nil {
		session.Phase = PhaseUninitialized
		session.State = models.AdventureState{}
		return nil, err
	}

	session.State.Inventory = opening.Inventory
	session.State.CurrentScene = opening.CurrentScene
	session.State.SceneHistory = nil
	session.Phase = PhaseOpeningGenerated

	return opening, nil
}

func (s *AdventureService) generateOpening(ctx context.Context, session *Session) (*models.AdventureOpening, error) {
	// The portrait URL is local state and would blow the token budget.
	characterForPrompt := session.State.Character
	characterForPrompt.CharacterImageURL = ""
	characterJSON, _ := json.Marshal(characterForPrompt)

	systemPrompt := fmt.Sprintf(`You are an expert AI Dungeon Master for a 'choose your own adventure' game. A character has been created. Your task is to generate their starting inventory and the opening scene.

**Your Core Rules:**
1.  **Create Starting Inventory:** Give the character 1-2 thematically appropriate starting items for the setting. The inventory can also be empty if it makes sense.
2.  **Write the First Scene:**
    *   Write a compelling opening narrative that introduces the character and their situation.
    *   **CRITICAL RULE FOR `+"`imagePrompt`"+`**: The `+"`imagePrompt`"+` field MUST be a pure, factual description of the scene's content (character's actions, environment, objects). It MUST NOT contain any artistic style keywords (e.g., "illustration", "painting", "photograph", "cinematic"). The visual style is handled separately and MUST NOT be included in your generated `+"`imagePrompt`"+`.
3.  **Provide Choices:**
    *   Offer 2-3 distinct choices for the user to make.
    *   At least one choice should involve a skill check. Define the skill to be tested (e.g., 'agility') and a Difficulty Class (DC) between 8 and 18.
4.  **Adhere to the Schema:** Your final output MUST be a single, valid JSON object that strictly follows the provided schema.

**Character to use:** %s
**Setting:** %s
**Adventure Length:** %s

Generate the JSON for the inventory and the first scene.`, characterJSON, session.Setting, session.AdventureLength)

	resp, err := s.provider.CompleteJSON(ctx, llm.JSONRequest{
		SystemPrompt:   systemPrompt,
		UserPrompt:     "Please proceed.",
		Model:          s.textModel,
		Temperature:    1.0,
		ResponseSchema: schema.AdventureOpeningSchema,
	})
	if err != nil {
		return nil, apperrors.WrapError(err, "the AI failed to generate the opening scene", apperrors.TypeOf(err))
	}

	var opening models.AdventureOpening
	if err := s.validator.DecodeAndValidate([]byte(resp.Text), &opening); err != nil {
		return nil, err
	}
	return &opening, nil
}

// ProgressAdventure applies the player's choice and advances the session
// one turn. Skill checks are rolled locally before the provider is asked
// to narrate; the provider owns stats, inventory and the next scene, while
// the visual description and portrait URL are merged back from the
// previous character. The outgoing scene is appended to history.
func (s *AdventureService) ProgressAdventure(ctx context.Context, session *Session, choice models.Choice) (*models.AdventureState, error) {
	if err := s.validator.ValidateInput(&choice); err != nil {
		return nil, err
	}
	switch session.Phase {
	case PhaseOpeningGenerated, PhasePlaying:
	case PhaseTerminal:
		return nil, apperrors.NewValidationError("the adventure has ended; start a new one", nil)
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("cannot progress an adventure in phase %s", session.Phase), nil)
	}

	previous := session.State

	checkInstruction := ""
	if choice.SkillCheck != nil {
		result, err := s.roller.ResolveCheck(previous.Character.Skills, *choice.SkillCheck)
		if err != nil {
			return nil, err
		}
		s.log.Info("skill check resolved", "session", session.ID, "skill", result.Skill, "total", result.Total, "dc", result.DC, "success", result.Success)
		checkInstruction = fmt.Sprintf(`
    *   **Skill Check Already Resolved (MANDATORY)**: The dice have already been rolled for this choice. The result is: %s. You MUST narrate exactly this outcome, including the dice roll, in the 'narrative' field. Do NOT invent a different roll or outcome. If the check failed, the narrative MUST describe the negative consequences.`, result.Summary())
	}

	characterForPrompt := previous.Character
	characterForPrompt.CharacterImageURL = ""
	contextJSON, _ := json.Marshal(map[string]any{
		"character": characterForPrompt,
		"inventory": previous.Inventory,
	})

	systemPrompt := fmt.Sprintf(`You are an expert AI Dungeon Master continuing a 'choose your own adventure' game. Your task is to process the player's last choice and generate the next complete scene state.

**Your Core Rules:**
1.  **Process the Choice**:
    *   The player has made the following choice: %q.
    *   If this is a custom action written by the player, interpret it creatively and determine the outcome.%s

2.  **Handle End States (CRITICAL)**:
    *   **Game Over**: If the character's health is at or below 0, you MUST generate a final "game over" scene. The narrative must describe their defeat. You MUST set `+"`isTerminal: true`"+` and provide an empty `+"`choices`"+` array.
    *   **Victory/Conclusion**: If the story reaches a natural conclusion, you MUST generate a final, satisfying scene. You MUST set `+"`isTerminal: true`"+` and provide an empty `+"`choices`"+` array.
    *   **Image Prompt for End State**: If the scene is terminal (victory or defeat), the `+"`imagePrompt`"+` you generate MUST be a powerful, thematic image summarizing the outcome. For example, for a defeat: 'A lone sword lies abandoned on a desolate battlefield at sunset'. For a victory: 'The hero stands triumphant on a mountaintop, overlooking the kingdom they saved'.

3.  **Combat and Inventory**:
    *   **Combat & Damage Logic**: When combat occurs, you are the arbiter of damage.
        -   First, narrate the attack against the player.
        -   Then, determine the damage based on the narrative severity. Use the following tiers as a strict guideline: Minor (1-2 HP), Moderate (3-5 HP), Serious (6-8 HP), Lethal (9+ HP).
        -   You MUST update the character's 'health' value in the JSON response to reflect the damage taken.
        -   Immediately after dealing damage, you MUST check if the character's health is 0 or less and trigger the "Game Over" end state if it is.
    *   **Inventory**: If the player finds an item, you MUST add it to the `+"`inventory`"+` array. If they use an item, you MUST remove it or decrease its quantity. Sometimes, you should present a new choice that involves using an item from the inventory.

4.  **Update State & Consistency**: Based on the outcome, you MUST update the character's state (health, inventory). Character consistency (personality) is paramount. The `+"`characterVisualDescription`"+` will be handled by the application, so you do not need to include it in your response.

5.  **Write the Next Scene**: If the scene is not terminal, write a new narrative and provide 2-3 new choices. At least one choice should involve a skill check with a Difficulty Class (DC) between 8 and 18. The new `+"`imagePrompt`"+` for the scene must follow the critical rule below.

6.  **Adhere to the Schema (MANDATORY)**: Your final output MUST be a single, valid JSON object that strictly follows the provided schema. Do not add any text or markdown formatting before or after the JSON. Pay close attention to data types: numbers must be numbers, strings must be strings, and arrays of objects must follow their structure.

7.  **CRITICAL RULE FOR `+"`imagePrompt`"+`**: The `+"`imagePrompt`"+` field MUST be a pure, factual description of the scene's content (characters' actions, environment, objects). It MUST NOT contain any artistic style keywords (e.g., "illustration", "painting", "photograph", "cinematic", "unreal engine").

**Game Context:**
*   **Current Character State**: %s
*   **Story So Far**:
%s

Generate the complete JSON for the next scene.`, choice.Text, checkInstruction, contextJSON, storySoFar(previous))

	resp, err := s.provider.CompleteJSON(ctx, llm.JSONRequest{
		SystemPrompt:   systemPrompt,
		UserPrompt:     "Please proceed.",
		Model:          s.textModel,
		Temperature:    1.0,
		ResponseSchema: schema.AdventureProgressSchema,
	})
	if err != nil {
		return nil, apperrors.WrapError(err, "the AI failed to progress the adventure", apperrors.TypeOf(err))
	}

	var turn struct {
		Character    models.Character       `json:"character"`
		Inventory    []models.InventoryItem `json:"inventory" validate:"dive"`
		CurrentScene models.Scene           `json:"currentScene"`
	}
	if err := s.validator.DecodeAndValidate([]byte(resp.Text), &turn); err != nil {
		return nil, err
	}

	// The visual description and portrait belong to local state.
	nextCharacter := turn.Character
	nextCharacter.VisualDescription = previous.Character.VisualDescription
	nextCharacter.CharacterImageURL = previous.Character.CharacterImageURL
	// Overhealing is corrected rather than rejected; negative health is a
	// legitimate lethal outcome.
	if nextCharacter.Health > nextCharacter.MaxHealth {
		nextCharacter.Health = nextCharacter.MaxHealth
	}

	nextState := models.AdventureState{
		Character:    nextCharacter,
		Inventory:    turn.Inventory,
		CurrentScene: turn.CurrentScene,
		SceneHistory: append(append([]models.Scene{}, previous.SceneHistory...), previous.CurrentScene),
	}

	if err := validateTurn(nextState); err != nil {
		return nil, err
	}

	session.State = nextState
	if nextState.CurrentScene.IsTerminal {
		session.Phase = PhaseTerminal
	} else {
		session.Phase = PhasePlaying
	}

	return &session.State, nil
}

// validateTurn enforces the invariants the provider cannot be trusted
// with: terminal scenes carry no choices, dead characters end the game.
func validateTurn(state models.AdventureState) error {
	scene := state.CurrentScene
	if scene.IsTerminal && len(scene.Choices) > 0 {
		return apperrors.NewSchemaViolationError(
			"the AI's response had structural errors and could not be used",
			[]string{"currentScene.choices: a terminal scene must offer no choices"}, nil)
	}
	if !scene.IsTerminal && len(scene.Choices) == 0 {
		return apperrors.NewSchemaViolationError(
			"the AI's response had structural errors and could not be used",
			[]string{"currentScene.choices: a non-terminal scene must offer choices"}, nil)
	}
	if state.Character.Health <= 0 && !scene.IsTerminal {
		return apperrors.NewSchemaViolationError(
			"the AI's response had structural errors and could not be used",
			[]string{"currentScene.isTerminal: the character is defeated but the scene did not end the game"}, nil)
	}
	return nil
}

// storySoFar renders the last three narratives, oldest first, labelled by
// how far back they are.
func storySoFar(state models.AdventureState) string {
	narratives := make([]string, 0, len(state.SceneHistory)+1)
	for _, scene := range state.SceneHistory {
		narratives = append(narratives, scene.Narrative)
	}
	narratives = append(narratives, state.CurrentScene.Narrative)

	if len(narratives) > 3 {
		narratives = narratives[len(narratives)-3:]
	}

	entries := make([]string, len(narratives))
	for i, narrative := range narratives {
		entries[i] = fmt.Sprintf("PREVIOUS SCENE %d:\n%s", len(narratives)-i, narrative)
	}
	return strings.Join(entries, "\n\n")
}

// GeneratePortrait renders the character portrait from the locally-owned
// visual description and stores the result on the session's character.
// Concurrent calls for the same session are rejected while one is in
// flight.
func (s *AdventureService) GeneratePortrait(ctx context.Context, session *Session) (string, error) {
	session.mu.Lock()
	if session.portraitBusy {
		session.mu.Unlock()
		return "", apperrors.NewValidationError("a portrait is already being generated", nil)
	}
	session.portraitBusy = true
	session.mu.Unlock()
	defer func() {
		session.mu.Lock()
		session.portraitBusy = false
		session.mu.Unlock()
	}()

	if session.State.Character.VisualDescription == "" {
		return "", apperrors.NewValidationError("the character has no visual description yet", nil)
	}

	stylePrompt := FindStyle(AdventurerStyles, session.VisualStyle).Prompt
	fullPrompt := fmt.Sprintf("character portrait, %s, %s", session.State.Character.VisualDescription, stylePrompt)

	url, err := s.generateOneImage(ctx, fullPrompt, "1:1")
	if err != nil {
		return "", err
	}

	session.State.Character.CharacterImageURL = url
	return url, nil
}

// GenerateSceneImage renders the current scene: the character's visual
// description, the scene's content-only prompt, and the session's style
// prompt joined into one 16:9 request.
func (s *AdventureService) GenerateSceneImage(ctx context.Context, session *Session) (string, error) {
	session.mu.Lock()
	if session.sceneBusy {
		session.mu.Unlock()
		return "", apperrors.NewValidationError("a scene image is already being generated", nil)
	}
	session.sceneBusy = true
	session.State.CurrentScene.IsGeneratingImage = true
	scene := session.State.CurrentScene
	session.mu.Unlock()
	defer func() {
		session.mu.Lock()
		session.sceneBusy = false
		session.State.CurrentScene.IsGeneratingImage = false
		session.mu.Unlock()
	}()

	if scene.ImagePrompt == "" {
		return "", apperrors.NewValidationError("the current scene has no image prompt", nil)
	}

	stylePrompt := FindStyle(AdventurerStyles, session.VisualStyle).Prompt
	fullPrompt := fmt.Sprintf("%s, %s, %s", session.State.Character.VisualDescription, scene.ImagePrompt, stylePrompt)

	url, err := s.generateOneImage(ctx, fullPrompt, "16:9")
	if err != nil {
		return "", err
	}

	// The adventure may have progressed while the image was in flight; a
	// superseded scene's image is discarded, never applied.
	session.mu.Lock()
	current := session.State.CurrentScene
	if current.Narrative != scene.Narrative || current.ImagePrompt != scene.ImagePrompt {
		session.mu.Unlock()
		s.log.Info("discarding image for a superseded scene", "session", session.ID)
		return "", apperrors.NewValidationError("the scene changed while its image was being generated", nil)
	}
	session.State.CurrentScene.ImageURL = url
	session.mu.Unlock()
	return url, nil
}

func (s *AdventureService) generateOneImage(ctx context.Context, prompt, aspectRatio string) (string, error) {
	resp, err := retry.Do(ctx, s.retries, func() (*llm.ImageResponse, error) {
		return s.provider.GenerateImages(ctx, llm.ImageRequest{
			Prompt:      prompt,
			Model:       s.imgModel,
			SampleCount: 1,
			AspectRatio: aspectRatio,
		})
	})
	if err != nil {
		return "", err
	}
	if len(resp.Images) == 0 {
		return "", apperrors.NewTransientError("image generation returned no image", nil)
	}
	return resp.Images[0], nil
}
