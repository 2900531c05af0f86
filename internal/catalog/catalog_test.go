package catalog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnyigor/aiprompts-sub001/internal/domain"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func samplePrompt() domain.Prompt {
	created := time.UnixMilli(1700000000000)
	modified := time.UnixMilli(1700000100000)
	return domain.Prompt{
		ID:          "forum-101",
		Title:       "Poem generator",
		Description: "Quick poems",
		Content:     "Write a {{style}} poem about {{topic}}",
		Category:    "General",
		Tags:        []string{"writing", "fun"},
		Status:      domain.StatusActive,
		Metadata: domain.PromptMetadata{
			Author: domain.PromptAuthor{ID: "42", Name: "alice"},
			Source: "forum",
		},
		Version:    1,
		CreatedAt:  &created,
		ModifiedAt: &modified,
	}
}

func TestCatalog_WriteReadRoundtrip(t *testing.T) {
	cat := New(t.TempDir(), testLogger())

	path, err := cat.Write(samplePrompt())
	require.NoError(t, err)

	// Category directory is lowercased and filesystem-safe; file is {id}.json.
	assert.Equal(t, filepath.Join(cat.Root(), "general", "forum-101.json"), path)

	got, err := cat.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "forum-101", got.ID)
	assert.Equal(t, "Poem generator", got.Title)
	assert.Equal(t, "Write a {{style}} poem about {{topic}}", got.Content)
	assert.Equal(t, []string{"writing", "fun"}, got.Tags)
	assert.Equal(t, "alice", got.Metadata.Author.Name)
	require.NotNil(t, got.CreatedAt)
	assert.Equal(t, int64(1700000000000), got.CreatedAt.UnixMilli())
	require.NotNil(t, got.ModifiedAt)
	assert.Equal(t, int64(1700000100000), got.ModifiedAt.UnixMilli())
}

func TestCatalog_ExportImport(t *testing.T) {
	cat := New(t.TempDir(), testLogger())

	var buf bytes.Buffer
	require.NoError(t, cat.Export(samplePrompt(), &buf))
	assert.Contains(t, buf.String(), `"variants"`)
	assert.Contains(t, buf.String(), `"createdAt": 1700000000000`)

	got, err := cat.Import(&buf)
	require.NoError(t, err)
	assert.Equal(t, "forum-101", got.ID)
	assert.Equal(t, "Write a {{style}} poem about {{topic}}", got.Content)
}

func TestCatalog_ImportValidation(t *testing.T) {
	cat := New(t.TempDir(), testLogger())

	_, err := cat.Import(strings.NewReader(`{"title":"no id"}`))
	assert.Error(t, err)

	_, err = cat.Import(strings.NewReader(`{"id":"x"}`))
	assert.Error(t, err, "missing title must be rejected")

	_, err = cat.Import(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestBuildIndex(t *testing.T) {
	dir := t.TempDir()
	cat := New(dir, testLogger())

	p1 := samplePrompt()
	_, err := cat.Write(p1)
	require.NoError(t, err)

	p2 := samplePrompt()
	p2.ID = "forum-102"
	p2.Category = "coding"
	_, err = cat.Write(p2)
	require.NoError(t, err)

	// A corrupt file is skipped with a warning, not fatal.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "general", "broken.json"), []byte("{nope"), 0o644))
	// A non-json file is ignored outright.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "general", "README.md"), []byte("hi"), 0o644))

	index, err := cat.BuildIndex()
	require.NoError(t, err)
	require.Len(t, index, 2)
	assert.Equal(t, filepath.Join(dir, "general", "forum-101.json"), index["forum-101"])
	assert.Equal(t, filepath.Join(dir, "coding", "forum-102.json"), index["forum-102"])
}

// A record whose id field is missing stays usable for dedup through the
// file-name fallback, since the layout names files {id}.json.
func TestBuildIndex_FilenameFallback(t *testing.T) {
	dir := t.TempDir()
	cat := New(dir, testLogger())

	sub := filepath.Join(dir, "general")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "forum-777.json"), []byte(`{"title":"untitled"}`), 0o644))

	index, err := cat.BuildIndex()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(sub, "forum-777.json"), index["forum-777"])
}

func TestBuildIndex_MissingRoot(t *testing.T) {
	cat := New(filepath.Join(t.TempDir(), "does-not-exist"), testLogger())

	index, err := cat.BuildIndex()
	require.NoError(t, err)
	assert.Empty(t, index)
}
