package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arnyigor/aiprompts-sub001/internal/domain"
)

// promptVariant is one content variant inside an interchange file.
type promptVariant struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// promptFile is the on-disk interchange form of a prompt: one JSON file
// per prompt, named {id}.json, grouped under a category subdirectory.
// Timestamps are epoch millis on the wire.
type promptFile struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Variants    []promptVariant     `json:"variants"`
	Author      domain.PromptAuthor `json:"author"`
	CreatedAt   int64               `json:"createdAt"`
	UpdatedAt   int64               `json:"updatedAt"`
	Tags        []string            `json:"tags"`
	Category    string              `json:"category"`
	Source      string              `json:"source"`
}

// Catalog owns the directory of persisted prompt files.
type Catalog struct {
	root string
	log  logrus.FieldLogger
}

// New creates a catalog rooted at the given directory. The directory is
// created lazily on first write.
func New(root string, logger logrus.FieldLogger) *Catalog {
	return &Catalog{
		root: root,
		log:  logger.WithField("component", "catalog"),
	}
}

// Root returns the catalog's root directory.
func (c *Catalog) Root() string { return c.root }

// PathFor returns where a prompt's interchange file lives.
func (c *Catalog) PathFor(p domain.Prompt) string {
	return filepath.Join(c.root, categoryDir(p.Category), p.ID+".json")
}

// Write persists a prompt as its interchange file, replacing any
// previous version. The write goes through a temp file and rename so a
// concurrent index scan never sees a torn file.
func (c *Catalog) Write(p domain.Prompt) (string, error) {
	path := c.PathFor(p)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create category dir: %w", err)
	}

	data, err := json.MarshalIndent(toFile(p), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal prompt %s: %w", p.ID, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write prompt file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize prompt file: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"id":   p.ID,
		"path": path,
	}).Debug("Prompt file written")
	return path, nil
}

// Read loads one interchange file back into a prompt.
func (c *Catalog) Read(path string) (domain.Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Prompt{}, fmt.Errorf("failed to read prompt file %s: %w", path, err)
	}
	var pf promptFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return domain.Prompt{}, fmt.Errorf("failed to decode prompt file %s: %w", path, err)
	}
	if pf.ID == "" {
		// The layout names files {id}.json, so the stem is a usable
		// fallback identifier.
		pf.ID = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	return fromFile(pf), nil
}

// Export writes a prompt's interchange form to w.
func (c *Catalog) Export(p domain.Prompt, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toFile(p)); err != nil {
		return fmt.Errorf("failed to export prompt %s: %w", p.ID, err)
	}
	return nil
}

// Import reads one interchange document from r and validates it.
func (c *Catalog) Import(r io.Reader) (domain.Prompt, error) {
	var pf promptFile
	if err := json.NewDecoder(r).Decode(&pf); err != nil {
		return domain.Prompt{}, fmt.Errorf("failed to decode prompt document: %w", err)
	}
	if pf.ID == "" {
		return domain.Prompt{}, fmt.Errorf("prompt document has no id")
	}
	if pf.Title == "" {
		return domain.Prompt{}, fmt.Errorf("prompt document %s has no title", pf.ID)
	}
	return fromFile(pf), nil
}

func toFile(p domain.Prompt) promptFile {
	pf := promptFile{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Author:      p.Metadata.Author,
		Tags:        p.Tags,
		Category:    p.Category,
		Source:      p.Metadata.Source,
	}
	if p.Content != "" {
		pf.Variants = []promptVariant{{Type: "text", Content: p.Content}}
	}
	if p.CreatedAt != nil {
		pf.CreatedAt = p.CreatedAt.UnixMilli()
	}
	if p.ModifiedAt != nil {
		pf.UpdatedAt = p.ModifiedAt.UnixMilli()
	}
	return pf
}

func fromFile(pf promptFile) domain.Prompt {
	p := domain.Prompt{
		ID:          pf.ID,
		Title:       pf.Title,
		Description: pf.Description,
		Category:    pf.Category,
		Tags:        pf.Tags,
		Status:      domain.StatusActive,
		Metadata: domain.PromptMetadata{
			Author: pf.Author,
			Source: pf.Source,
		},
		Version: 1,
	}
	if p.Category == "" {
		p.Category = "general"
	}
	for _, v := range pf.Variants {
		if v.Content != "" {
			p.Content = v.Content
			break
		}
	}
	if pf.CreatedAt > 0 {
		t := time.UnixMilli(pf.CreatedAt)
		p.CreatedAt = &t
	}
	if pf.UpdatedAt > 0 {
		t := time.UnixMilli(pf.UpdatedAt)
		p.ModifiedAt = &t
	}
	return p
}

// categoryDir maps a category name onto a filesystem-safe directory.
func categoryDir(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return "general"
	}
	category = strings.ReplaceAll(category, " ", "-")
	category = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, category)
	return category
}
