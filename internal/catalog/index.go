package catalog

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// BuildIndex scans the catalog and maps each persisted prompt's source
// id to its file location. The scan streams one file at a time; it is
// rebuilt per sync pass, never maintained incrementally.
//
// A file that cannot be read or decoded is skipped with a warning. A
// missing root directory yields an empty index, since a first pass has
// nothing to dedup against.
func (c *Catalog) BuildIndex() (map[string]string, error) {
	index := make(map[string]string)

	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == c.root && os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		id, readErr := sourceIDOf(path)
		if readErr != nil {
			c.log.WithError(readErr).WithField("path", path).Warn("Skipping unreadable prompt file")
			return nil
		}
		index[id] = path
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan catalog at %s: %w", c.root, err)
	}

	c.log.WithField("entries", len(index)).Debug("Source index built")
	return index, nil
}

// sourceIDOf extracts the id field from a prompt file without decoding
// the whole document. An empty or missing id falls back to the file
// name stem, which the layout guarantees to be the id.
func sourceIDOf(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", err
	}
	if head.ID != "" {
		return head.ID, nil
	}
	return strings.TrimSuffix(filepath.Base(path), ".json"), nil
}
