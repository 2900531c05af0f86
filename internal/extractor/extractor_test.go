package extractor

import (
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)
	return log
}

const listingPage = `<html><body>
<article class="post" data-post-id="101" data-timestamp="1700000000">
  <a class="author" href="/user/42">alice</a>
  <b>Poem generator</b>
  <pre>Write a {{style}} poem about {{topic}}</pre>
</article>
<div class="post" data-post-id="102">
  <span class="author">bob</span>
  <p>I tried this yesterday and it worked for me, thanks for sharing.</p>
  <a class="attachment" href="/files/notes.txt">notes.txt</a>
</div>
</body></html>`

func TestExtractPosts(t *testing.T) {
	e := NewPostExtractor(testLogger())

	posts, err := e.ExtractPosts(listingPage)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	a := posts[0]
	assert.Equal(t, "101", a.PostID)
	assert.Equal(t, "alice", a.Author.Name)
	assert.Equal(t, "42", a.Author.ID)
	assert.Equal(t, time.Unix(1700000000, 0), a.Date)
	assert.True(t, a.IsLikelyPrompt, "code-fenced post with placeholders is likely a prompt")
	assert.Contains(t, a.FullHTMLContent, "{{style}}")

	b := posts[1]
	assert.Equal(t, "102", b.PostID)
	assert.Equal(t, "bob", b.Author.Name)
	assert.False(t, b.IsLikelyPrompt, "plain conversation is not likely a prompt")
	assert.Equal(t, "/files/notes.txt", b.FileAttachmentURL)
}

// One malformed post element is skipped without aborting extraction of
// the well-formed ones on the same page.
func TestExtractPosts_MalformedFragmentInterleaved(t *testing.T) {
	page := `<html><body>
<div class="post"><p>no id at all, cannot be attributed</p></div>
<article class="post" data-post-id="7">
  <span class="author">carol</span>
  <pre>Act as a helpful librarian and recommend {{count}} books.</pre>
</article>
<div class="post"><b>also broken</div>
</body></html>`

	e := NewPostExtractor(testLogger())
	posts, err := e.ExtractPosts(page)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "7", posts[0].PostID)
}

func TestExtractPosts_EmptyPage(t *testing.T) {
	e := NewPostExtractor(testLogger())

	posts, err := e.ExtractPosts("<html><body><p>nothing here</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestExtractPosts_IDFromElementID(t *testing.T) {
	e := NewPostExtractor(testLogger())

	posts, err := e.ExtractPosts(`<div class="post" id="post-55"><pre>You are a chef. Suggest a menu.</pre></div>`)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "55", posts[0].PostID)
}

func TestLikelyPromptHeuristic(t *testing.T) {
	e := NewPostExtractor(testLogger())

	cases := []struct {
		name   string
		html   string
		likely bool
	}{
		{
			name:   "code block",
			html:   `<div class="post" data-post-id="1"><code>anything fenced</code></div>`,
			likely: true,
		},
		{
			name:   "placeholders without fencing",
			html:   `<div class="post" data-post-id="2"><p>Summarize {{text}} briefly</p></div>`,
			likely: true,
		},
		{
			name:   "keyword with enough length",
			html:   `<div class="post" data-post-id="3"><p>Here is my favorite prompt for brainstorming, it asks the model to act as a patient interviewer and keep digging for details.</p></div>`,
			likely: true,
		},
		{
			name:   "keyword but too short",
			html:   `<div class="post" data-post-id="4"><p>nice prompt!</p></div>`,
			likely: false,
		},
		{
			name:   "plain chatter",
			html:   `<div class="post" data-post-id="5"><p>thanks, this helped a lot yesterday</p></div>`,
			likely: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			posts, err := e.ExtractPosts(tc.html)
			require.NoError(t, err)
			require.Len(t, posts, 1)
			assert.Equal(t, tc.likely, posts[0].IsLikelyPrompt)
		})
	}
}
