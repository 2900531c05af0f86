package domain

import (
	"fmt"
	"time"
)

// PromptStatus tracks the lifecycle of a persisted prompt.
type PromptStatus string

const (
	StatusActive   PromptStatus = "active"
	StatusArchived PromptStatus = "archived"
	StatusDraft    PromptStatus = "draft"
)

// PromptAuthor identifies the forum user a prompt originated from.
type PromptAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PromptMetadata carries provenance fields that are not part of the
// prompt content itself.
type PromptMetadata struct {
	Author PromptAuthor `json:"author"`
	Source string       `json:"source"`
	Notes  string       `json:"notes,omitempty"`
}

// Prompt is the persisted entity produced by a sync pass or manual entry.
type Prompt struct {
	// ID is derived from the source post id and never changes after
	// creation; it is the dedup key across sync passes.
	ID string `json:"id"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`

	// Variables maps placeholder names found in the content (e.g. {{topic}})
	// to default or example values. Keys are unique.
	Variables map[string]string `json:"variables,omitempty"`

	CompatibleModels []string `json:"compatible_models,omitempty"`

	Category string `json:"category"`

	// Tags may contain duplicates accumulated over multiple sync passes;
	// the repository dedups them when deriving the unique tag list.
	Tags []string `json:"tags,omitempty"`

	IsLocal    bool `json:"is_local"`
	IsFavorite bool `json:"is_favorite"`

	Rating      float64 `json:"rating"`
	RatingVotes int     `json:"rating_votes"`

	Status PromptStatus `json:"status"`

	Metadata PromptMetadata `json:"metadata"`

	Version int `json:"version"`

	CreatedAt  *time.Time `json:"created_at,omitempty"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
}

// DerivePromptID builds the stable prompt id from a source name and the
// originating post id. The result is the dedup key for all later passes.
func DerivePromptID(source, postID string) string {
	return fmt.Sprintf("%s-%s", source, postID)
}
