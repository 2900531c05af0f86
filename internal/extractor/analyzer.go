package extractor

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/arnyigor/aiprompts-sub001/internal/domain"
)

// placeholderRe matches templating placeholders like {{topic}}.
var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// imperativeOpeners are verbs that open prompt-shaped text. A post whose
// body starts with one of these reads like an instruction to a model.
var imperativeOpeners = map[string]struct{}{
	"write": {}, "act": {}, "you": {}, "generate": {}, "create": {},
	"imagine": {}, "pretend": {}, "compose": {}, "translate": {},
	"summarize": {}, "explain": {}, "rewrite": {}, "list": {},
}

// minPromptLength is the shortest body accepted without placeholder
// evidence; anything shorter is treated as conversation.
const minPromptLength = 40

const maxTitleLength = 120

// ContentAnalyzer attempts a deeper structural extraction of a prompt
// payload from one post's HTML fragment.
type ContentAnalyzer struct {
	log logrus.FieldLogger
}

// NewContentAnalyzer creates a content analyzer.
func NewContentAnalyzer(logger logrus.FieldLogger) *ContentAnalyzer {
	return &ContentAnalyzer{
		log: logger.WithField("component", "analyzer"),
	}
}

// Analyze extracts a candidate prompt payload from an HTML fragment.
// A nil result with a nil error means no prompt-shaped structure was
// found, which is an expected outcome for conversational posts.
func (a *ContentAnalyzer) Analyze(htmlFragment string) (*domain.ExtractedPromptData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlFragment))
	if err != nil {
		return nil, &domain.ParseError{Cause: fmt.Errorf("failed to parse post html: %w", err)}
	}

	body := promptBody(doc)
	if body == "" {
		return nil, nil
	}

	variables := extractVariables(body)
	if len(body) < minPromptLength && len(variables) == 0 {
		return nil, nil
	}

	title := titleOf(doc, body)

	data := &domain.ExtractedPromptData{
		Title:       title,
		Description: descriptionOf(doc, title, body),
		Content:     body,
		Variables:   variables,
		Category:    "general",
	}

	a.log.WithFields(logrus.Fields{
		"title":     data.Title,
		"variables": len(data.Variables),
	}).Debug("Prompt structure extracted")
	return data, nil
}

// promptBody picks the prompt text out of a post. Fenced or quoted
// blocks win; the largest one is taken as the shared prompt. Plain
// posts qualify only when their full text is imperative-shaped.
func promptBody(doc *goquery.Document) string {
	var best string
	doc.Find("pre, code, blockquote, .codeblock").Each(func(_ int, sel *goquery.Selection) {
		// Skip code elements nested inside a pre already considered.
		if sel.Is("code") && sel.ParentsFiltered("pre").Length() > 0 {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if len(text) > len(best) {
			best = text
		}
	})
	if best != "" {
		return best
	}

	full := strings.TrimSpace(doc.Text())
	if imperativeShaped(full) {
		return full
	}
	return ""
}

func imperativeShaped(text string) bool {
	if placeholderRe.MatchString(text) {
		return true
	}
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return false
	}
	first := strings.Trim(fields[0], ".,:;\"'")
	_, ok := imperativeOpeners[first]
	return ok && len(text) >= minPromptLength
}

// titleOf derives a title from the first heading or bold line, falling
// back to the opening sentence of the body.
func titleOf(doc *goquery.Document, body string) string {
	heading := strings.TrimSpace(doc.Find("h1, h2, h3, h4, b, strong").First().Text())
	if heading != "" {
		return clip(heading, maxTitleLength)
	}
	return clip(firstSentence(body), maxTitleLength)
}

// descriptionOf takes the first paragraph that is neither the title nor
// part of the prompt body.
func descriptionOf(doc *goquery.Document, title, body string) string {
	var desc string
	doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if text == "" || text == title || strings.Contains(body, text) {
			return true
		}
		desc = clip(text, 300)
		return false
	})
	return desc
}

// extractVariables returns placeholder names in order of first
// appearance, deduplicated.
func extractVariables(body string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, m := range placeholderRe.FindAllStringSubmatch(body, -1) {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// PlainText strips an HTML fragment down to its visible text. Used to
// hand free text to the classifier regardless of whether structural
// extraction succeeded.
func PlainText(htmlFragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlFragment))
	if err != nil {
		return strings.TrimSpace(htmlFragment)
	}
	return strings.TrimSpace(doc.Text())
}

func firstSentence(text string) string {
	for _, stop := range []string{". ", "!\n", "?\n", "\n"} {
		if idx := strings.Index(text, stop); idx > 0 {
			return strings.TrimSpace(text[:idx+1])
		}
	}
	return strings.TrimSpace(text)
}

func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	// Back off to a rune boundary so a multi-byte character is never
	// split in half.
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	clipped := s[:cut]
	if idx := strings.LastIndex(clipped, " "); idx > max/2 {
		clipped = clipped[:idx]
	}
	return clipped + "…"
}
