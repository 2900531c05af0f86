package storage

import (
	"context"
	"time"

	"github.com/arnyigor/aiprompts-sub001/internal/domain"
)

// PromptQuery describes one filtered, paginated listing request.
type PromptQuery struct {
	// Search matches case-insensitively against title and description.
	Search string

	// Category filters by exact category when non-empty.
	Category string

	// Status filters by lifecycle status when non-empty.
	Status domain.PromptStatus

	// Tags filters with ANY-of semantics: a prompt matches when it
	// carries at least one of the requested tags.
	Tags []string

	Offset int
	Limit  int
}

// Repository defines the interface for prompt persistence and querying.
// This allows us to swap storage implementations without changing the
// pipeline logic that uses it.
type Repository interface {
	GetPromptsCount(ctx context.Context) (int, error)
	GetPromptByID(ctx context.Context, id string) (domain.Prompt, error)

	// InsertPrompt stores a new prompt; it fails if the id exists.
	InsertPrompt(ctx context.Context, p domain.Prompt) error

	// UpdatePrompt replaces an existing prompt; it fails with
	// domain.ErrNotFound if the id is unknown.
	UpdatePrompt(ctx context.Context, p domain.Prompt) error

	DeletePrompt(ctx context.Context, id string) error

	// SavePrompts bulk-upserts a batch atomically: either every prompt
	// in the batch is persisted or none is.
	SavePrompts(ctx context.Context, prompts []domain.Prompt) error

	// GetAllPrompts returns the full listing in stable order
	// (modifiedAt descending, then id).
	GetAllPrompts(ctx context.Context) ([]domain.Prompt, error)

	// ToggleFavoriteStatus flips a prompt's favorite flag and returns
	// the new state.
	ToggleFavoriteStatus(ctx context.Context, id string) (bool, error)

	GetPrompts(ctx context.Context, q PromptQuery) ([]domain.Prompt, error)

	DeletePromptsByIDs(ctx context.Context, ids []string) error
	DeleteAllPrompts(ctx context.Context) error

	// GetAllUniqueTags returns the deduplicated, sorted tag list. The
	// result is cached and every write invalidates the cache before it
	// returns.
	GetAllUniqueTags(ctx context.Context) ([]string, error)

	// InvalidateSortDataCache drops the cached derived views. Writes
	// call it implicitly; it is exposed for callers that mutate the
	// underlying store out of band.
	InvalidateSortDataCache()

	// LastSyncTime reports when the last successful sync pass finished;
	// the zero time means no pass has committed yet.
	LastSyncTime(ctx context.Context) (time.Time, error)
	SetLastSyncTime(ctx context.Context, t time.Time) error

	// Close gracefully shuts down the repository.
	Close() error
}
