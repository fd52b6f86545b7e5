package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestService() Service {
	return NewService(WithWikiLinkExtension(), WithTagExtension())
}

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "plain link",
			content:  "see [[Beta]]",
			expected: []string{"Beta"},
		},
		{
			name:     "alias is stripped",
			content:  "see [[Beta|the second note]]",
			expected: []string{"Beta"},
		},
		{
			name:     "section is stripped",
			content:  "see [[Beta#Details]]",
			expected: []string{"Beta"},
		},
		{
			name:     "whitespace is trimmed",
			content:  "see [[  Beta  ]]",
			expected: []string{"Beta"},
		},
		{
			name:     "several links keep body order",
			content:  "[[Gamma]] then [[Alpha]]\n\nand [[Gamma]] again",
			expected: []string{"Gamma", "Alpha", "Gamma"},
		},
		{
			name:     "unterminated marker",
			content:  "see [[Beta and more",
			expected: nil,
		},
		{
			name:     "empty marker",
			content:  "see [[ ]] and [[|alias]]",
			expected: nil,
		},
		{
			name:     "inside code span",
			content:  "see `[[Beta]]`",
			expected: []string{"Beta"},
		},
		{
			name:     "inside fenced code",
			content:  "```\n[[Beta]]\n```",
			expected: []string{"Beta"},
		},
		{
			name:     "indented line",
			content:  "    see [[Beta]]",
			expected: []string{"Beta"},
		},
		{
			name:     "inside html block",
			content:  "<div>see [[Beta]]</div>",
			expected: []string{"Beta"},
		},
		{
			name:     "markers do not span lines",
			content:  "see [[Be\nta]]",
			expected: nil,
		},
		{
			name:     "nested opener resolves the inner marker",
			content:  "[[a [[Beta]]",
			expected: []string{"Beta"},
		},
	}

	s := newTestService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.Extract(tt.content).Links)
		})
	}
}

func TestExtractTags(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "single tag",
			content:  "about #Go",
			expected: []string{"go"},
		},
		{
			name:     "tag at line start",
			content:  "#work notes",
			expected: []string{"work"},
		},
		{
			name:     "heading is not a tag",
			content:  "# Heading\n\nbody",
			expected: nil,
		},
		{
			name:     "deduplicated case-insensitively",
			content:  "#idea and #IDEA and #project/alpha",
			expected: []string{"idea", "project/alpha"},
		},
		{
			name:     "anchor in a word is not a tag",
			content:  "see page#section",
			expected: nil,
		},
		{
			name:     "section of a wiki link is not a tag",
			content:  "see [[Beta#Details]]",
			expected: nil,
		},
		{
			name:     "tag inside code span is ignored",
			content:  "run `#notatag` then #real",
			expected: []string{"real"},
		},
		{
			name:     "lone hash",
			content:  "a # b",
			expected: nil,
		},
	}

	s := newTestService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.Extract(tt.content).Tags)
		})
	}
}

func TestExtractEmpty(t *testing.T) {
	s := newTestService()
	markers := s.Extract("   \n")
	assert.Empty(t, markers.Links)
	assert.Empty(t, markers.Tags)
}

func TestWithoutExtensions(t *testing.T) {
	s := NewService()
	markers := s.Extract("see [[Beta]] #tag")
	assert.Empty(t, markers.Links)
	assert.Empty(t, markers.Tags)
}
