// internal/services/export_service_test.go
package services

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Corphon/VisageForge/internal/errors"
	"github.com/Corphon/VisageForge/internal/models"
)

func pngDataURI(payload []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)
}

func TestPackageStory(t *testing.T) {
	service := NewExportService()
	imageBytes := []byte{0x89, 0x50, 0x4e, 0x47, 1, 2, 3}
	scenes := []models.Scene{
		{Narrative: "The hatch opened.", ImagePrompt: "p1", ImageURL: pngDataURI(imageBytes)},
		{Narrative: "Nothing but stars.", ImagePrompt: "p2"},
	}

	data, err := service.PackageStory("Drift", scenes)
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := map[string][]byte{}
	for _, f := range reader.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = content
	}

	// Only the panel with an image gets an entry, plus the narrative file.
	require.Len(t, files, 2)
	assert.Equal(t, imageBytes, files["panel_01_image.png"], "image bytes survive the round trip")

	md := string(files["story.md"])
	assert.Contains(t, md, "Drift\n\n")
	assert.Contains(t, md, "## Panel 1\n\nThe hatch opened.")
	assert.Contains(t, md, "## Panel 2\n\nNothing but stars.")
}

func TestPackageStoryRejectsEmpty(t *testing.T) {
	service := NewExportService()

	_, err := service.PackageStory("Empty", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestPackageStoryRejectsBadImage(t *testing.T) {
	service := NewExportService()
	scenes := []models.Scene{{Narrative: "n", ImagePrompt: "p", ImageURL: "https://example.com/not-a-data-uri.png"}}

	_, err := service.PackageStory("Bad", scenes)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestExportPDF(t *testing.T) {
	service := NewExportService()
	scenes := []models.Scene{
		{Narrative: "The hatch opened.", ImagePrompt: "p1"},
		{Narrative: "Nothing but stars.", ImagePrompt: "p2"},
	}

	data, err := service.ExportPDF("Drift", scenes)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "output must be a PDF document")
}

func TestExportPDFRejectsEmpty(t *testing.T) {
	service := NewExportService()

	_, err := service.ExportPDF("Empty", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}
