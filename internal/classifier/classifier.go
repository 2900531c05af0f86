package classifier

import (
	"context"

	"github.com/arnyigor/aiprompts-sub001/internal/domain"
)

// Classifier assigns a semantic post type and suggests tags for free
// text. Both calls are network-bound and fallible; callers degrade to
// safe defaults (DISCUSSION, no tags) instead of aborting a pass.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.PostType, error)
	SuggestTags(ctx context.Context, text string) ([]string, error)
}

// Noop is the default classifier used when no backend is configured.
// It keeps the pipeline fully functional by returning fixed safe values.
type Noop struct{}

// NewNoop creates a no-op classifier.
func NewNoop() Noop { return Noop{} }

// Classify always returns DISCUSSION.
func (Noop) Classify(ctx context.Context, text string) (domain.PostType, error) {
	return domain.PostTypeDiscussion, nil
}

// SuggestTags always returns no tags.
func (Noop) SuggestTags(ctx context.Context, text string) ([]string, error) {
	return nil, nil
}
