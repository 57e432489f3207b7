// internal/history/store_test.go
package history

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/VisageForge/internal/llm"
	"github.com/Corphon/VisageForge/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testImageURI(seed byte) string {
	data := []byte{0x89, 0x50, 0x4E, 0x47, seed, seed + 1, seed + 2}
	return llm.EncodeDataURI("image/png", data)
}

func TestStudioRoundTrip(t *testing.T) {
	store := openTestStore(t)

	uri := testImageURI(1)
	item := models.HistoryItem{
		ID:     "2026-08-01T10:00:00Z",
		Prompt: "a lighthouse in a storm",
		Images: []models.GeneratedImage{{URL: uri}},
		Settings: models.StudioSettings{
			Model:       "imagen-3.0-generate-002",
			Style:       "oil_painting",
			ImageCount:  1,
			AspectRatio: "1:1",
		},
		GenerationMode: "text",
	}
	require.NoError(t, store.SaveStudioItem(item))

	items, err := store.ListStudioItems()
	require.NoError(t, err)
	require.Len(t, items, 1)

	got := items[0]
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, item.Prompt, got.Prompt)
	assert.Equal(t, item.Settings, got.Settings)
	assert.Equal(t, item.GenerationMode, got.GenerationMode)
	// Byte-for-byte image fidelity through the blob table.
	require.Len(t, got.Images, 1)
	assert.Equal(t, uri, got.Images[0].URL)
}

func TestListNewestFirst(t *testing.T) {
	store := openTestStore(t)

	for hour := 8; hour <= 12; hour++ {
		item := models.HistoryItem{
			ID:     fmt.Sprintf("2026-08-01T%02d:00:00Z", hour),
			Prompt: fmt.Sprintf("prompt %d", hour),
			Images: []models.GeneratedImage{{URL: testImageURI(byte(hour))}},
		}
		require.NoError(t, store.SaveStudioItem(item))
	}

	items, err := store.ListStudioItems()
	require.NoError(t, err)
	require.Len(t, items, 5)
	for i := 1; i < len(items); i++ {
		assert.Greater(t, items[i-1].ID, items[i].ID, "list must be newest first")
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	store := openTestStore(t)

	for day := 1; day <= 5; day++ {
		item := models.HistoryItem{
			ID:     fmt.Sprintf("2026-08-%02dT10:00:00Z", day),
			Prompt: "p",
			Images: []models.GeneratedImage{{URL: testImageURI(byte(day))}},
		}
		require.NoError(t, store.SaveStudioItem(item))
	}

	require.NoError(t, store.Prune(CategoryStudio, 3))

	items, err := store.ListStudioItems()
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "2026-08-05T10:00:00Z", items[0].ID)
	assert.Equal(t, "2026-08-03T10:00:00Z", items[2].ID)

	// Idempotent: pruning again changes nothing.
	require.NoError(t, store.Prune(CategoryStudio, 3))
	again, err := store.ListStudioItems()
	require.NoError(t, err)
	assert.Equal(t, items, again)
}

func TestPruneIsCategoryScoped(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.SaveStudioItem(models.HistoryItem{
		ID: "2026-08-01T10:00:00Z", Prompt: "studio",
	}))
	require.NoError(t, store.SaveKidsItem(models.KidsHistoryItem{
		ID: "2026-08-01T11:00:00Z", Image: testImageURI(9),
	}))

	require.NoError(t, store.Prune(CategoryStudio, 0))

	studio, err := store.ListStudioItems()
	require.NoError(t, err)
	assert.Empty(t, studio)

	kids, err := store.ListKidsItems()
	require.NoError(t, err)
	assert.Len(t, kids, 1)
}

func TestKidsRoundTrip(t *testing.T) {
	store := openTestStore(t)

	uri := testImageURI(42)
	item := models.KidsHistoryItem{
		ID:    "2026-08-01T10:00:00Z",
		Image: uri,
		Settings: models.KidsSettings{
			Setting:  "forest",
			Subjects: []string{"dog", "robot"},
			Props:    []string{"rocket"},
			Style:    "crayon",
		},
	}
	require.NoError(t, store.SaveKidsItem(item))

	items, err := store.ListKidsItems()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, uri, items[0].Image)
	assert.Equal(t, item.Settings, items[0].Settings)
}

func TestStoryRoundTrip(t *testing.T) {
	store := openTestStore(t)

	panel1 := testImageURI(10)
	panel3 := testImageURI(30)
	item := models.StoryHistoryItem{
		ID:     "2026-08-01T10:00:00Z",
		Prompt: "a clockmaker finds a door in time",
		Settings: models.StorySettings{
			Genre: "Fantasy", Style: "storybook", PanelCount: "6",
		},
		Scenes: []models.Scene{
			{Narrative: "one", ImagePrompt: "p1", ImageURL: panel1},
			{Narrative: "two", ImagePrompt: "p2"}, // image failed for this panel
			{Narrative: "three", ImagePrompt: "p3", ImageURL: panel3},
		},
		Thumbnail: panel1,
	}
	require.NoError(t, store.SaveStoryItem(item))

	items, err := store.ListStoryItems()
	require.NoError(t, err)
	require.Len(t, items, 1)

	got := items[0]
	assert.Equal(t, item.Settings, got.Settings)
	require.Len(t, got.Scenes, 3)
	assert.Equal(t, panel1, got.Scenes[0].ImageURL)
	assert.Empty(t, got.Scenes[1].ImageURL)
	assert.Equal(t, panel3, got.Scenes[2].ImageURL)
	assert.Equal(t, panel1, got.Thumbnail)
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.SaveStudioItem(models.HistoryItem{
		ID: "2026-08-01T10:00:00Z", Prompt: "p",
		Images: []models.GeneratedImage{{URL: testImageURI(1)}},
	}))
	require.NoError(t, store.Delete(CategoryStudio, "2026-08-01T10:00:00Z"))

	items, err := store.ListStudioItems()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestImageCounter(t *testing.T) {
	store := openTestStore(t)

	count, err := store.ImageCountToday()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Only imagen-4 models consume quota.
	require.NoError(t, store.IncrementImageCount("imagen-4.0-generate-001", 3))
	require.NoError(t, store.IncrementImageCount("imagen-3.0-generate-002", 5))
	require.NoError(t, store.IncrementImageCount("gemini-2.0-flash-preview-image-generation", 1))

	count, err = store.ImageCountToday()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, store.IncrementImageCount("imagen-4.0-generate-001", 2))
	count, err = store.ImageCountToday()
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	remaining, err := store.RemainingImages(70)
	require.NoError(t, err)
	assert.Equal(t, 65, remaining)

	remaining, err = store.RemainingImages(3)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining, "remaining never goes negative")
}

func TestSaveOverwritesSameID(t *testing.T) {
	store := openTestStore(t)

	id := "2026-08-01T10:00:00Z"
	require.NoError(t, store.SaveStudioItem(models.HistoryItem{ID: id, Prompt: "first"}))
	require.NoError(t, store.SaveStudioItem(models.HistoryItem{ID: id, Prompt: "second"}))

	items, err := store.ListStudioItems()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "second", items[0].Prompt)
}
