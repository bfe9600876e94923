package tagger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Catalog is the ordered tag list matching the model's output vector position
// for position. It is loaded once at startup and never mutated afterwards, so
// concurrent reads need no locking.
type Catalog struct {
	tags []Tag
}

// LoadCatalog reads a selected_tags.csv style file:
// tag_id,name,category,count with an optional header row.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCatalog(f)
}

func ReadCatalog(r io.Reader) (*Catalog, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse tag catalog: %w", err)
	}
	if len(records) > 0 && records[0][0] == "tag_id" {
		records = records[1:]
	}

	tags := make([]Tag, 0, len(records))
	for i, rec := range records {
		if len(rec) < 4 {
			return nil, fmt.Errorf("%w: catalog row %d has %d fields, want 4", ErrInvalidInput, i, len(rec))
		}
		id, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%w: catalog row %d: bad tag id %q", ErrInvalidInput, i, rec[0])
		}
		category, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("%w: catalog row %d: bad category %q", ErrInvalidInput, i, rec[2])
		}
		count, err := strconv.Atoi(rec[3])
		if err != nil {
			return nil, fmt.Errorf("%w: catalog row %d: bad count %q", ErrInvalidInput, i, rec[3])
		}
		tags = append(tags, Tag{
			ID:       id,
			Name:     displayName(rec[1]),
			Category: Category(category),
			Count:    count,
		})
	}
	return &Catalog{tags: tags}, nil
}

func (c *Catalog) Len() int { return len(c.tags) }

// Tags returns the catalog entries in output-vector order. Callers must not
// modify the returned slice.
func (c *Catalog) Tags() []Tag { return c.tags }
