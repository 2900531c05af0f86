package extractor

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_CodeFencedPrompt(t *testing.T) {
	a := NewContentAnalyzer(testLogger())

	html := `<b>Poem generator</b>
<p>Sharing my go-to template for quick poems.</p>
<pre>Write a {{style}} poem about {{topic}}</pre>`

	data, err := a.Analyze(html)
	require.NoError(t, err)
	require.NotNil(t, data)

	assert.Equal(t, "Poem generator", data.Title)
	assert.Equal(t, "Write a {{style}} poem about {{topic}}", data.Content)
	assert.Equal(t, []string{"style", "topic"}, data.Variables)
	assert.Equal(t, "general", data.Category)
	assert.Equal(t, "Sharing my go-to template for quick poems.", data.Description)
}

// A conversational post yields no payload and no error.
func TestAnalyze_ConversationalPost(t *testing.T) {
	a := NewContentAnalyzer(testLogger())

	data, err := a.Analyze(`<p>I tried this yesterday and it worked for me, thanks for sharing.</p>`)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestAnalyze_ImperativePlainText(t *testing.T) {
	a := NewContentAnalyzer(testLogger())

	data, err := a.Analyze(`<p>Act as a senior code reviewer and point out unclear naming, missing error handling and risky assumptions in the code I paste.</p>`)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.NotEmpty(t, data.Title)
	assert.Contains(t, data.Content, "Act as a senior code reviewer")
	assert.Empty(t, data.Variables)
}

// A long spaceless heading clips on a rune boundary, never mid-rune.
func TestAnalyze_MultiByteTitleClip(t *testing.T) {
	a := NewContentAnalyzer(testLogger())

	heading := "a" + strings.Repeat("日", 50)
	data, err := a.Analyze(`<b>` + heading + `</b>
<pre>Write a {{style}} poem about {{topic}}</pre>`)
	require.NoError(t, err)
	require.NotNil(t, data)

	assert.True(t, utf8.ValidString(data.Title), "clipped title must stay valid UTF-8")
	assert.True(t, strings.HasSuffix(data.Title, "…"))
	assert.Less(t, len(data.Title), len(heading))
}

func TestAnalyze_ShortFragmentWithoutPlaceholders(t *testing.T) {
	a := NewContentAnalyzer(testLogger())

	// Fenced but tiny and placeholder-free: treated as conversation.
	data, err := a.Analyze(`<pre>lol nice one</pre>`)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestAnalyze_PlaceholderDedup(t *testing.T) {
	a := NewContentAnalyzer(testLogger())

	data, err := a.Analyze(`<pre>Translate {{text}} into {{lang}}. Keep {{text}} formatting intact.</pre>`)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, []string{"text", "lang"}, data.Variables, "order of first appearance, deduplicated")
}

func TestAnalyze_LargestBlockWins(t *testing.T) {
	a := NewContentAnalyzer(testLogger())

	data, err := a.Analyze(`<code>short {{x}}</code>
<pre>You are an experienced travel planner. Build a {{days}}-day itinerary for {{city}} with a daily budget of {{budget}}.</pre>`)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Contains(t, data.Content, "travel planner")
	assert.Equal(t, []string{"days", "city", "budget"}, data.Variables)
}

func TestPlainText(t *testing.T) {
	text := PlainText(`<div><b>Hello</b> <i>world</i></div>`)
	assert.Equal(t, "Hello world", text)
}
