package extractor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/arnyigor/aiprompts-sub001/internal/domain"
)

// postSelector matches the post containers of the supported listing layouts.
const postSelector = "article.post, div.post, [data-post-id]"

// dateLayouts are attempted in order when a post carries a textual date
// instead of an epoch attribute.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02.01.2006 15:04",
	"2006-01-02",
}

// PostExtractor splits a listing page's HTML into individual raw posts.
type PostExtractor struct {
	log logrus.FieldLogger
}

// NewPostExtractor creates a post extractor.
func NewPostExtractor(logger logrus.FieldLogger) *PostExtractor {
	return &PostExtractor{
		log: logger.WithField("component", "extractor"),
	}
}

// ExtractPosts returns the posts found on a page in document order.
// A single unparsable post element is skipped and does not abort
// extraction of the remaining posts; a page with no recognizable post
// containers yields an empty slice.
func (e *PostExtractor) ExtractPosts(pageHTML string) ([]domain.RawPostData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, &domain.ParseError{Cause: fmt.Errorf("failed to parse page html: %w", err)}
	}

	var posts []domain.RawPostData
	seen := make(map[string]struct{})

	doc.Find(postSelector).Each(func(i int, sel *goquery.Selection) {
		post, err := e.extractPost(sel)
		if err != nil {
			e.log.WithError(err).WithField("index", i).Debug("Skipping unparsable post element")
			return
		}
		if _, dup := seen[post.PostID]; dup {
			// Nested containers can match the selector twice for the
			// same post; keep the outermost occurrence only.
			return
		}
		seen[post.PostID] = struct{}{}
		posts = append(posts, post)
	})

	e.log.WithField("post_count", len(posts)).Debug("Page extracted")
	return posts, nil
}

func (e *PostExtractor) extractPost(sel *goquery.Selection) (domain.RawPostData, error) {
	postID := postIDOf(sel)
	if postID == "" {
		return domain.RawPostData{}, &domain.ParseError{Cause: fmt.Errorf("post element has no id")}
	}

	html, err := sel.Html()
	if err != nil {
		return domain.RawPostData{}, &domain.ParseError{PostID: postID, Cause: err}
	}

	text := strings.TrimSpace(sel.Text())

	post := domain.RawPostData{
		PostID:            postID,
		Author:            authorOf(sel),
		Date:              dateOf(sel),
		FullHTMLContent:   html,
		IsLikelyPrompt:    likelyPrompt(sel, text),
		FileAttachmentURL: attachmentOf(sel),
	}
	return post, nil
}

func postIDOf(sel *goquery.Selection) string {
	if id, ok := sel.Attr("data-post-id"); ok && id != "" {
		return id
	}
	if id, ok := sel.Attr("id"); ok && id != "" {
		return strings.TrimPrefix(id, "post-")
	}
	return ""
}

func authorOf(sel *goquery.Selection) domain.PostAuthor {
	var author domain.PostAuthor
	a := sel.Find(".author, .post-author, a[rel=author]").First()
	author.Name = strings.TrimSpace(a.Text())
	if id, ok := a.Attr("data-user-id"); ok {
		author.ID = id
	} else if href, ok := a.Attr("href"); ok {
		// Profile links look like /user/{id} on the supported layouts.
		if idx := strings.LastIndex(href, "/"); idx >= 0 && idx < len(href)-1 {
			author.ID = href[idx+1:]
		}
	}
	if author.ID == "" {
		author.ID = author.Name
	}
	return author
}

func dateOf(sel *goquery.Selection) time.Time {
	if ts, ok := sel.Attr("data-timestamp"); ok && ts != "" {
		if n, err := strconv.ParseInt(ts, 10, 64); err == nil {
			// Epoch millis when the value is implausibly large for seconds.
			if n > 1e12 {
				return time.UnixMilli(n)
			}
			return time.Unix(n, 0)
		}
	}
	if dt := sel.Find("time").First(); dt.Length() > 0 {
		raw, ok := dt.Attr("datetime")
		if !ok {
			raw = strings.TrimSpace(dt.Text())
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	return time.Now()
}

func attachmentOf(sel *goquery.Selection) string {
	link := sel.Find("a.attachment, a[href$='.txt'], a[href$='.json'], a[href$='.md']").First()
	href, _ := link.Attr("href")
	return href
}

// promptKeywords are cheap textual cues that a post shares a prompt
// rather than discussing one.
var promptKeywords = []string{
	"prompt", "act as", "you are", "system:", "instruction", "persona",
}

// likelyPrompt is a structural pre-filter, not a classification. It
// errs toward true: false positives are corrected by the analyzer and
// classifier downstream.
func likelyPrompt(sel *goquery.Selection, text string) bool {
	if sel.Find("pre, code, blockquote, .codeblock").Length() > 0 {
		return true
	}
	if strings.Contains(text, "{{") && strings.Contains(text, "}}") {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range promptKeywords {
		if strings.Contains(lower, kw) {
			return len(text) >= 80
		}
	}
	return false
}
