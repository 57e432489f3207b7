// cmd/demo/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Corphon/VisageForge/internal/app"
	"github.com/Corphon/VisageForge/internal/config"
	"github.com/Corphon/VisageForge/internal/llm"
	"github.com/Corphon/VisageForge/internal/models"
	"github.com/Corphon/VisageForge/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	reader := bufio.NewReader(os.Stdin)
	ctx := context.Background()

	fmt.Println("VisageForge — AI creative studio")
	for {
		fmt.Println()
		fmt.Println("1) Generate an image")
		fmt.Println("2) Optimize a prompt")
		fmt.Println("3) Kids mode")
		fmt.Println("4) Story mode")
		fmt.Println("5) Adventurer mode")
		fmt.Println("6) Show studio history")
		fmt.Println("0) Quit")
		fmt.Print("> ")

		choice := readLine(reader)
		switch choice {
		case "1":
			runStudio(ctx, application, reader)
		case "2":
			runOptimize(ctx, application, reader)
		case "3":
			runKids(ctx, application, reader)
		case "4":
			runStory(ctx, application, reader)
		case "5":
			runAdventure(ctx, application, reader)
		case "6":
			showHistory(application)
		case "0", "q", "quit":
			return
		}
	}
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func runStudio(ctx context.Context, application *app.App, reader *bufio.Reader) {
	fmt.Print("Prompt: ")
	prompt := readLine(reader)
	if prompt == "" {
		return
	}

	item, err := application.Studio.GenerateImage(ctx, services.GenerateImageInput{
		Prompt:         prompt,
		NumImages:      1,
		AspectRatio:    "1:1",
		GenerationMode: "text",
	})
	if err != nil {
		fmt.Printf("generation failed: %v\n", err)
		return
	}

	for i, image := range item.Images {
		path := saveImage(application, fmt.Sprintf("studio_%s_%d.png", item.ID, i), image.URL)
		fmt.Printf("saved %s\n", path)
	}
}

func runOptimize(ctx context.Context, application *app.App, reader *bufio.Reader) {
	fmt.Print("Prompt: ")
	prompt := readLine(reader)
	if prompt == "" {
		return
	}

	optimized, err := application.Studio.OptimizePrompt(ctx, prompt, "", "")
	if err != nil {
		fmt.Printf("optimization failed: %v\n", err)
		return
	}
	fmt.Println(optimized)
}

func runKids(ctx context.Context, application *app.App, reader *bufio.Reader) {
	fmt.Printf("Setting %v: ", services.KidsSettings)
	setting := readLine(reader)
	fmt.Printf("Subjects (comma separated, up to %d): ", services.KidsMaxSelect)
	subjects := splitPicks(readLine(reader))
	fmt.Printf("Style (coloring, cartoon, claymation, watercolor, pixel_art, crayon, sticker, felt): ")
	style := readLine(reader)

	item, err := application.Kids.GenerateImage(ctx, models.KidsSettings{
		Setting:  setting,
		Subjects: subjects,
		Style:    style,
	})
	if err != nil {
		fmt.Printf("generation failed: %v\n", err)
		return
	}

	path := saveImage(application, fmt.Sprintf("kids_%s.png", item.ID), item.Image)
	fmt.Printf("saved %s\n", path)
}

func runStory(ctx context.Context, application *app.App, reader *bufio.Reader) {
	fmt.Print("Story idea (empty for a surprise): ")
	prompt := readLine(reader)
	fmt.Printf("Genre %v: ", services.StoryGenres)
	genre := readLine(reader)
	fmt.Print("Panels (6/12/18/24/30/36): ")
	panels, _ := strconv.Atoi(readLine(reader))
	if panels == 0 {
		panels = 6
	}

	if prompt == "" {
		surprise, err := application.Story.SurpriseMe(ctx, genre, "photographic", panels)
		if err != nil {
			fmt.Printf("surprise failed: %v\n", err)
			return
		}
		prompt = surprise
		fmt.Printf("Idea: %s\n", prompt)
	}

	item, err := application.Story.GenerateStory(ctx, prompt, genre, "photographic", panels)
	if err != nil {
		fmt.Printf("story generation failed: %v\n", err)
		return
	}

	zipData, err := application.Export.PackageStory(prompt, item.Scenes)
	if err != nil {
		fmt.Printf("packaging failed: %v\n", err)
		return
	}
	path := filepath.Join(application.Config.DataDir, fmt.Sprintf("story_%s.zip", item.ID))
	if err := os.WriteFile(path, zipData, 0644); err != nil {
		fmt.Printf("failed to save archive: %v\n", err)
		return
	}
	fmt.Printf("story packaged at %s\n", path)
}

func runAdventure(ctx context.Context, application *app.App, reader *bufio.Reader) {
	fmt.Printf("Setting %v: ", services.AdventurerSettings)
	setting := readLine(reader)
	if setting == "" {
		setting = "Fantasy"
	}

	session := application.Adventure.NewSession(setting, "adventure", "illustrated")

	fmt.Print("Character idea (empty for random): ")
	prompt := readLine(reader)

	character, err := application.Adventure.CreateCharacter(ctx, session, prompt, models.CharacterSkills{
		Strength: 3, Agility: 3, Intelligence: 3, Charisma: 3, Luck: 3,
	})
	if err != nil {
		fmt.Printf("character creation failed: %v\n", err)
		return
	}
	fmt.Printf("\n%s — %s\nHP %d/%d  STR %d AGI %d INT %d CHA %d LCK %d\n",
		character.Name, character.Description,
		character.Health, character.MaxHealth,
		character.Skills.Strength, character.Skills.Agility,
		character.Skills.Intelligence, character.Skills.Charisma, character.Skills.Luck)

	if _, err := application.Adventure.GenerateOpening(ctx, session); err != nil {
		fmt.Printf("opening failed: %v\n", err)
		return
	}

	for {
		scene := session.State.CurrentScene
		fmt.Printf("\n%s\n", scene.Narrative)

		if scene.IsTerminal {
			fmt.Println("\nThe adventure has ended.")
			return
		}

		for i, choice := range scene.Choices {
			label := choice.Text
			if choice.SkillCheck != nil {
				label = fmt.Sprintf("%s [%s DC %d]", label, choice.SkillCheck.Skill, choice.SkillCheck.DC)
			}
			fmt.Printf("%d) %s\n", i+1, label)
		}
		fmt.Print("Choice (number, free text for a custom action, or q): ")
		input := readLine(reader)
		if input == "q" {
			return
		}

		var choice models.Choice
		if index, err := strconv.Atoi(input); err == nil && index >= 1 && index <= len(scene.Choices) {
			choice = scene.Choices[index-1]
		} else {
			choice = models.Choice{Text: input}
		}

		if _, err := application.Adventure.ProgressAdventure(ctx, session, choice); err != nil {
			fmt.Printf("turn failed: %v\n", err)
		}
	}
}

func showHistory(application *app.App) {
	items, err := application.Studio.History()
	if err != nil {
		fmt.Printf("failed to load history: %v\n", err)
		return
	}
	for _, item := range items {
		fmt.Printf("%s  [%s]  %s (%d images)\n", item.ID, item.Settings.Model, item.Prompt, len(item.Images))
	}
	if len(items) == 0 {
		fmt.Println("no history yet")
	}
}

func splitPicks(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	picks := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			picks = append(picks, trimmed)
		}
	}
	return picks
}

func saveImage(application *app.App, name, dataURI string) string {
	path := filepath.Join(application.Config.DataDir, name)
	_, data, err := llm.ParseDataURI(dataURI)
	if err != nil {
		fmt.Printf("failed to decode image: %v\n", err)
		return path
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		fmt.Printf("failed to save image: %v\n", err)
	}
	return path
}
