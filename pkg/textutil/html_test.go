package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text untouched",
			input:    "  The council approved the budget 3 < 5 votes.  ",
			expected: "The council approved the budget 3 < 5 votes.",
		},
		{
			name:     "paragraphs become lines",
			input:    "<p>First   paragraph.</p><p>Second\nparagraph.</p>",
			expected: "First paragraph.\nSecond paragraph.",
		},
		{
			name:     "wrapped prose joins into one line",
			input:    "<div>\n  <p>The minister said on Tuesday\n  that the plan\r\n\twould proceed.</p>\n  <p>Critics disagreed.</p>\n</div>",
			expected: "The minister said on Tuesday that the plan would proceed.\nCritics disagreed.",
		},
		{
			name: "scripts and styles dropped",
			input: `<html><head><title>x</title><style>p{color:red}</style></head>
<body><h1>Headline</h1><script>track()</script><p>Body <b>text</b>.</p></body></html>`,
			expected: "Headline\nBody text.",
		},
		{
			name:     "list items",
			input:    "<ul><li>one</li><li>two</li></ul>",
			expected: "one\ntwo",
		},
		{
			name:     "entities decoded",
			input:    "<p>Fish &amp; chips</p>",
			expected: "Fish & chips",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractText(tt.input))
		})
	}
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, LooksLikeHTML("<div>x</div>"))
	assert.True(t, LooksLikeHTML("text <br/> more"))
	assert.False(t, LooksLikeHTML("a < b and c > d"))
	assert.False(t, LooksLikeHTML("plain"))
}
