package domain

import "time"

// PostType is the semantic label a classifier assigns to a forum post.
type PostType string

const (
	PostTypeStandardPrompt   PostType = "STANDARD_PROMPT"
	PostTypeMetaPrompt       PostType = "META_PROMPT"
	PostTypeJailbreak        PostType = "JAILBREAK"
	PostTypeTemplatePrompt   PostType = "TEMPLATE_PROMPT"
	PostTypeFileAttachment   PostType = "FILE_ATTACHMENT"
	PostTypeExternalResource PostType = "EXTERNAL_RESOURCE"
	PostTypeDiscussion       PostType = "DISCUSSION"
	PostTypeUnknown          PostType = "UNKNOWN"
)

// IsPromptBearing reports whether posts of this type are persisted as prompts.
func (t PostType) IsPromptBearing() bool {
	switch t {
	case PostTypeStandardPrompt, PostTypeMetaPrompt, PostTypeJailbreak, PostTypeTemplatePrompt:
		return true
	}
	return false
}

// PostAuthor identifies the user who wrote a forum post.
type PostAuthor struct {
	ID   string
	Name string
}

// RawPostData is one forum post split out of a listing page. It is
// transient pipeline state: created by the post extractor, consumed
// downstream, never persisted.
type RawPostData struct {
	// PostID is unique within a scrape session.
	PostID string

	Author PostAuthor
	Date   time.Time

	// FullHTMLContent is the post body as an opaque HTML fragment.
	FullHTMLContent string

	// IsLikelyPrompt is a cheap structural pre-filter, not a
	// classification; false positives and negatives are expected.
	IsLikelyPrompt bool

	FileAttachmentURL string
}

// ExtractedPromptData is the candidate structured payload the content
// analyzer pulls out of a post's HTML. A post with no prompt-shaped
// structure yields no ExtractedPromptData at all, which is an expected
// outcome rather than an error.
type ExtractedPromptData struct {
	Title       string
	Description string
	Content     string

	// Variables lists placeholder names in the order they first appear.
	Variables []string

	Category string
}
