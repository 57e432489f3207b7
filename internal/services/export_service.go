// internal/services/export_service.go
package services

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"

	apperrors "github.com/Corphon/VisageForge/internal/errors"
	"github.com/Corphon/VisageForge/internal/llm"
	"github.com/Corphon/VisageForge/internal/models"
)

// ExportService packages a finished story for download: a ZIP of panel
// images plus a markdown narrative, or a single PDF with one page per
// panel.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// PackageStory builds a ZIP archive holding panel_NN_image.png for every
// scene that has an image, and story.md with the title and numbered panel
// sections.
func (s *ExportService) PackageStory(title string, scenes []models.Scene) ([]byte, error) {
	if len(scenes) == 0 {
		return nil, apperrors.NewValidationError("there are no scenes to package", nil)
	}

	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)

	var narrative strings.Builder
	narrative.WriteString(title + "\n\n")

	for i, scene := range scenes {
		if scene.ImageURL != "" {
			_, data, err := llm.ParseDataURI(scene.ImageURL)
			if err != nil {
				return nil, apperrors.NewValidationError(fmt.Sprintf("panel %d image is not a valid data URI", i+1), err)
			}
			entry, err := archive.Create(fmt.Sprintf("panel_%02d_image.png", i+1))
			if err != nil {
				return nil, fmt.Errorf("failed to add panel %d to archive: %w", i+1, err)
			}
			if _, err := entry.Write(data); err != nil {
				return nil, fmt.Errorf("failed to write panel %d image: %w", i+1, err)
			}
		}

		narrative.WriteString(fmt.Sprintf("## Panel %d\n\n%s\n\n", i+1, scene.Narrative))
	}

	entry, err := archive.Create("story.md")
	if err != nil {
		return nil, fmt.Errorf("failed to add story.md to archive: %w", err)
	}
	if _, err := entry.Write([]byte(narrative.String())); err != nil {
		return nil, fmt.Errorf("failed to write story.md: %w", err)
	}

	if err := archive.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportPDF renders the story as a PDF: a title page, then one page per
// panel carrying its image (when present) and narrative.
func (s *ExportService) ExportPDF(title string, scenes []models.Scene) ([]byte, error) {
	if len(scenes) == 0 {
		return nil, apperrors.NewValidationError("there are no scenes to export", nil)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(0, 80, "", "", 1, "C", false, 0, "")
	pdf.MultiCell(0, 14, title, "", "C", false)

	for i, scene := range scenes {
		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 10, fmt.Sprintf("Panel %d", i+1), "", 1, "L", false, 0, "")
		pdf.Ln(2)

		if scene.ImageURL != "" {
			mimeType, data, err := llm.ParseDataURI(scene.ImageURL)
			if err != nil {
				return nil, apperrors.NewValidationError(fmt.Sprintf("panel %d image is not a valid data URI", i+1), err)
			}
			imageType := "PNG"
			if strings.Contains(mimeType, "jpeg") || strings.Contains(mimeType, "jpg") {
				imageType = "JPG"
			}
			name := fmt.Sprintf("panel_%d", i+1)
			pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
			// Full content width; 16:9 panels come out ~106mm tall.
			pdf.ImageOptions(name, 10, pdf.GetY(), 190, 0, true, gofpdf.ImageOptions{ImageType: imageType}, 0, "")
			pdf.Ln(4)
		}

		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, scene.Narrative, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}
