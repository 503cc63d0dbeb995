package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"homestash/internal/models"
	"homestash/internal/observability"
	"homestash/internal/repository"
)

// ExportService renders the full inventory as CSV or JSON. Exports are
// system-wide: any authenticated user gets every item, matching the shared
// household model.
type ExportService struct {
	items repository.ItemRepository
}

// NewExportService creates a new export service.
func NewExportService(items repository.ItemRepository) *ExportService {
	return &ExportService{items: items}
}

var csvHeader = []string{"ID", "Name", "Description", "Location", "Categories", "Created By", "Created At"}

// CSV renders all items as CSV. Every field is quoted and embedded quotes
// are doubled, so names like `6" clamp` survive a round-trip through any
// spreadsheet import.
func (s *ExportService) CSV(ctx context.Context) ([]byte, error) {
	items, err := s.items.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	writeCSVRow(&b, csvHeader)
	for _, item := range items {
		writeCSVRow(&b, []string{
			fmt.Sprintf("%d", item.ID),
			item.Name,
			item.Description,
			item.Location,
			joinedCategoryNames(item),
			item.Creator.Name,
			item.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	observability.ExportsTotal.WithLabelValues("csv").Inc()
	return []byte(b.String()), nil
}

type jsonExport struct {
	ExportedAt time.Time      `json:"exported_at"`
	Count      int            `json:"count"`
	Items      []*models.Item `json:"items"`
}

// JSON renders all items, with nested creator, categories, and photos, in
// an envelope carrying the export timestamp and count.
func (s *ExportService) JSON(ctx context.Context) ([]byte, error) {
	items, err := s.items.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*models.Item{}
	}

	payload, err := json.MarshalIndent(jsonExport{
		ExportedAt: time.Now().UTC(),
		Count:      len(items),
		Items:      items,
	}, "", "  ")
	if err != nil {
		return nil, err
	}

	observability.ExportsTotal.WithLabelValues("json").Inc()
	return payload, nil
}

// writeCSVRow emits one always-quoted CSV row with CRLF termination.
func writeCSVRow(b *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(field, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
}

// joinedCategoryNames renders an item's category names sorted and
// semicolon-joined, so exports are deterministic.
func joinedCategoryNames(item *models.Item) string {
	names := make([]string, 0, len(item.Categories))
	for _, c := range item.Categories {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return strings.Join(names, ";")
}
