package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tracFilter = Filter{
	Pattern:   `#(?P<id>[0-9]+)`,
	URLFormat: "https://trac.example.com/ticket/%(id)s",
}

func TestRender(t *testing.T) {
	r := NewRenderer(0)

	tests := []struct {
		name     string
		content  string
		filters  []Filter
		expected string
	}{
		{
			name:     "emphasis",
			content:  "**hello** world",
			expected: "<p><strong>hello</strong> world</p>",
		},
		{
			name:     "raw html is not passed through",
			content:  "<script>alert(1)</script>",
			expected: "<!-- raw HTML omitted -->",
		},
		{
			name:     "realm filter inside a paragraph",
			content:  "see #123 for details",
			filters:  []Filter{tracFilter},
			expected: `<p>see <a href="https://trac.example.com/ticket/123">#123</a> for details</p>`,
		},
		{
			name:     "realm filter ignores code spans",
			content:  "`#123`",
			filters:  []Filter{tracFilter},
			expected: "<p><code>#123</code></p>",
		},
		{
			name:     "realm filter requires a word boundary",
			content:  "abc#123",
			filters:  []Filter{tracFilter},
			expected: "<p>abc#123</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(tt.content, tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestRenderTooLong(t *testing.T) {
	r := NewRenderer(16)

	_, err := r.Render(strings.Repeat("a", 17), nil)
	assert.ErrorIs(t, err, ErrUnparseable)

	out, err := r.Render(strings.Repeat("a", 16), nil)
	require.NoError(t, err)
	assert.Equal(t, "<p>"+strings.Repeat("a", 16)+"</p>", out)
}

func TestRenderSkipsInvalidFilter(t *testing.T) {
	out, err := NewRenderer(0).Render("see #7", []Filter{{Pattern: "(", URLFormat: "x"}, tracFilter})
	require.NoError(t, err)
	assert.Equal(t, `<p>see <a href="https://trac.example.com/ticket/7">#7</a></p>`, out)
}

func TestSubjectLinks(t *testing.T) {
	jira := Filter{
		Pattern:   `(?P<project>[A-Z]+)-(?P<id>[0-9]+)`,
		URLFormat: "https://jira.example.com/browse/%(project)s-%(id)s",
	}

	tests := []struct {
		name     string
		subject  string
		filters  []Filter
		expected []string
	}{
		{
			name:     "no filters",
			subject:  "release #1",
			expected: []string{},
		},
		{
			name:     "filter order then match order",
			subject:  "OPS-2 blocks #12 and #34",
			filters:  []Filter{tracFilter, jira},
			expected: []string{
				"https://trac.example.com/ticket/12",
				"https://trac.example.com/ticket/34",
				"https://jira.example.com/browse/OPS-2",
			},
		},
		{
			name:     "embedded matches are ignored",
			subject:  "abc#12 #13x",
			filters:  []Filter{tracFilter},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SubjectLinks(tt.subject, tt.filters))
		})
	}
}
