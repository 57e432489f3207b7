// internal/history/store.go
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Corphon/VisageForge/internal/llm"
	"github.com/Corphon/VisageForge/internal/models"
)

// Categories partition the store. Each has its own retention cap.
const (
	CategoryStudio = "studio"
	CategoryKids   = "kids"
	CategoryStory  = "story"
)

// thumbnailSlot holds a story's cover image; panel images use slots 0..n-1.
const thumbnailSlot = -1

// Store persists generation history in a local SQLite database. Image
// bytes live in a blob table keyed by (category, item id, slot); the JSON
// payloads carry everything else. Data URIs exist only at the boundary.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// Single writer; the driver serializes access.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS history_items (
		category TEXT NOT NULL,
		id       TEXT NOT NULL,
		payload  TEXT NOT NULL,
		PRIMARY KEY (category, id)
	);
	CREATE TABLE IF NOT EXISTS history_blobs (
		category  TEXT NOT NULL,
		item_id   TEXT NOT NULL,
		slot      INTEGER NOT NULL,
		mime_type TEXT NOT NULL,
		data      BLOB NOT NULL,
		PRIMARY KEY (category, item_id, slot)
	);
	CREATE TABLE IF NOT EXISTS daily_counter (
		day   TEXT PRIMARY KEY,
		count INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply history schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// NewID returns a history ID: the RFC3339 creation timestamp, which also
// serves as the sort key. The fractional part is fixed-width so IDs sort
// lexicographically, and nanosecond precision keeps rapid saves from
// colliding.
func NewID() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z")
}

// --- studio ---

// SaveStudioItem stores one studio generation. Image data URIs are split
// into blobs; the payload keeps the rest.
func (s *Store) SaveStudioItem(item models.HistoryItem) error {
	stripped := item
	stripped.Images = make([]models.GeneratedImage, len(item.Images))

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, img := range item.Images {
		if err := insertBlob(tx, CategoryStudio, item.ID, i, img.URL); err != nil {
			return err
		}
	}
	if err := insertPayload(tx, CategoryStudio, item.ID, stripped); err != nil {
		return err
	}
	return tx.Commit()
}

// ListStudioItems returns all studio history, newest first, with images
// re-encoded as data URIs.
func (s *Store) ListStudioItems() ([]models.HistoryItem, error) {
	rows, err := s.listPayloads(CategoryStudio)
	if err != nil {
		return nil, err
	}

	items := make([]models.HistoryItem, 0, len(rows))
	for _, row := range rows {
		var item models.HistoryItem
		if err := json.Unmarshal([]byte(row.payload), &item); err != nil {
			return nil, fmt.Errorf("corrupt studio history entry %s: %w", row.id, err)
		}
		uris, err := s.loadBlobs(CategoryStudio, row.id)
		if err != nil {
			return nil, err
		}
		for i := range item.Images {
			if uri, ok := uris[i]; ok {
				item.Images[i].URL = uri
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// --- kids ---

func (s *Store) SaveKidsItem(item models.KidsHistoryItem) error {
	stripped := item
	stripped.Image = ""

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertBlob(tx, CategoryKids, item.ID, 0, item.Image); err != nil {
		return err
	}
	if err := insertPayload(tx, CategoryKids, item.ID, stripped); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ListKidsItems() ([]models.KidsHistoryItem, error) {
	rows, err := s.listPayloads(CategoryKids)
	if err != nil {
		return nil, err
	}

	items := make([]models.KidsHistoryItem, 0, len(rows))
	for _, row := range rows {
		var item models.KidsHistoryItem
		if err := json.Unmarshal([]byte(row.payload), &item); err != nil {
			return nil, fmt.Errorf("corrupt kids history entry %s: %w", row.id, err)
		}
		uris, err := s.loadBlobs(CategoryKids, row.id)
		if err != nil {
			return nil, err
		}
		if uri, ok := uris[0]; ok {
			item.Image = uri
		}
		items = append(items, item)
	}
	return items, nil
}

// --- story ---

func (s *Store) SaveStoryItem(item models.StoryHistoryItem) error {
	stripped := item
	stripped.Thumbnail = ""
	stripped.Scenes = make([]models.Scene, len(item.Scenes))
	for i, scene := range item.Scenes {
		scene.ImageURL = ""
		stripped.Scenes[i] = scene
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, scene := range item.Scenes {
		if scene.ImageURL == "" {
			continue
		}
		if err := insertBlob(tx, CategoryStory, item.ID, i, scene.ImageURL); err != nil {
			return err
		}
	}
	if item.Thumbnail != "" {
		if err := insertBlob(tx, CategoryStory, item.ID, thumbnailSlot, item.Thumbnail); err != nil {
			return err
		}
	}
	if err := insertPayload(tx, CategoryStory, item.ID, stripped); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ListStoryItems() ([]models.StoryHistoryItem, error) {
	rows, err := s.listPayloads(CategoryStory)
	if err != nil {
		return nil, err
	}

	items := make([]models.StoryHistoryItem, 0, len(rows))
	for _, row := range rows {
		var item models.StoryHistoryItem
		if err := json.Unmarshal([]byte(row.payload), &item); err != nil {
			return nil, fmt.Errorf("corrupt story history entry %s: %w", row.id, err)
		}
		uris, err := s.loadBlobs(CategoryStory, row.id)
		if err != nil {
			return nil, err
		}
		for i := range item.Scenes {
			if uri, ok := uris[i]; ok {
				item.Scenes[i].ImageURL = uri
			}
		}
		if uri, ok := uris[thumbnailSlot]; ok {
			item.Thumbnail = uri
		}
		items = append(items, item)
	}
	return items, nil
}

// --- retention ---

// Prune keeps the newest keep items in a category and deletes the rest,
// blobs included. Running it twice is a no-op.
func (s *Store) Prune(category string, keep int) error {
	if keep < 0 {
		keep = 0
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		DELETE FROM history_blobs WHERE category = ? AND item_id NOT IN (
			SELECT id FROM history_items WHERE category = ? ORDER BY id DESC LIMIT ?
		)`, category, category, keep)
	if err != nil {
		return fmt.Errorf("failed to prune blobs: %w", err)
	}

	_, err = tx.Exec(`
		DELETE FROM history_items WHERE category = ? AND id NOT IN (
			SELECT id FROM history_items WHERE category = ? ORDER BY id DESC LIMIT ?
		)`, category, category, keep)
	if err != nil {
		return fmt.Errorf("failed to prune items: %w", err)
	}

	return tx.Commit()
}

// Delete removes one item and its blobs.
func (s *Store) Delete(category, id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM history_blobs WHERE category = ? AND item_id = ?`, category, id); err != nil {
		return fmt.Errorf("failed to delete blobs: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM history_items WHERE category = ? AND id = ?`, category, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return tx.Commit()
}

// --- daily image counter ---

// CountedModelPrefix selects which models consume the daily image quota.
const CountedModelPrefix = "imagen-4"

// IncrementImageCount records n generated images for today when the model
// is quota-counted. Other models pass through for free.
func (s *Store) IncrementImageCount(model string, n int) error {
	if !strings.HasPrefix(model, CountedModelPrefix) {
		return nil
	}
	return s.AddImageCount(n)
}

// RemainingImages reports how much of the daily quota is left.
func (s *Store) RemainingImages(limit int) (int, error) {
	count, err := s.ImageCountToday()
	if err != nil {
		return 0, err
	}
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// AddImageCount records n generated images for today. Past days are left
// in place; the current day's row is created on first use.
func (s *Store) AddImageCount(n int) error {
	day := time.Now().UTC().Format("2006-01-02")
	_, err := s.db.Exec(`
		INSERT INTO daily_counter (day, count) VALUES (?, ?)
		ON CONFLICT(day) DO UPDATE SET count = count + excluded.count`, day, n)
	if err != nil {
		return fmt.Errorf("failed to update image counter: %w", err)
	}
	return nil
}

// ImageCountToday returns how many counted images were generated today.
// A new day starts the count at zero.
func (s *Store) ImageCountToday() (int, error) {
	day := time.Now().UTC().Format("2006-01-02")
	var count int
	err := s.db.QueryRow(`SELECT count FROM daily_counter WHERE day = ?`, day).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read image counter: %w", err)
	}
	return count, nil
}

// --- helpers ---

type payloadRow struct {
	id      string
	payload string
}

func (s *Store) listPayloads(category string) ([]payloadRow, error) {
	rows, err := s.db.Query(`SELECT id, payload FROM history_items WHERE category = ? ORDER BY id DESC`, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s history: %w", category, err)
	}
	defer rows.Close()

	var result []payloadRow
	for rows.Next() {
		var row payloadRow
		if err := rows.Scan(&row.id, &row.payload); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (s *Store) loadBlobs(category, itemID string) (map[int]string, error) {
	rows, err := s.db.Query(`SELECT slot, mime_type, data FROM history_blobs WHERE category = ? AND item_id = ?`, category, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load images for %s: %w", itemID, err)
	}
	defer rows.Close()

	uris := make(map[int]string)
	for rows.Next() {
		var slot int
		var mimeType string
		var data []byte
		if err := rows.Scan(&slot, &mimeType, &data); err != nil {
			return nil, fmt.Errorf("failed to scan image row: %w", err)
		}
		uris[slot] = llm.EncodeDataURI(mimeType, data)
	}
	return uris, rows.Err()
}

func insertPayload(tx *sql.Tx, category, id string, item any) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode history payload: %w", err)
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO history_items (category, id, payload) VALUES (?, ?, ?)`,
		category, id, string(payload))
	if err != nil {
		return fmt.Errorf("failed to store history item: %w", err)
	}
	return nil
}

func insertBlob(tx *sql.Tx, category, itemID string, slot int, dataURI string) error {
	if dataURI == "" {
		return nil
	}
	mimeType, data, err := llm.ParseDataURI(dataURI)
	if err != nil {
		return fmt.Errorf("image %d of %s is not a valid data URI: %w", slot, itemID, err)
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO history_blobs (category, item_id, slot, mime_type, data) VALUES (?, ?, ?, ?, ?)`,
		category, itemID, slot, mimeType, data)
	if err != nil {
		return fmt.Errorf("failed to store image blob: %w", err)
	}
	return nil
}
