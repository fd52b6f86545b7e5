// Package markdown parses note bodies with goldmark and collects the
// wiki-link and tag markers the knowledge graph is derived from.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Markers are the graph-relevant markers found in one note body.
type Markers struct {
	// Links holds wiki-link targets with alias and section stripped, in body order.
	Links []string
	// Tags holds lower-cased tag names without the leading '#', deduplicated.
	Tags []string
}

// Service extracts markers from markdown content.
type Service interface {
	Extract(content string) Markers
}

type service struct {
	md        goldmark.Markdown
	wikiLinks bool
}

// Option configures the markdown service.
type Option func(*config)

type config struct {
	extensions []goldmark.Extender
	wikiLinks  bool
}

// WithTagExtension enables `#tag` parsing.
func WithTagExtension() Option {
	return func(c *config) {
		c.extensions = append(c.extensions, &tagExtension{})
	}
}

// WithWikiLinkExtension enables `[[Title]]` parsing.
func WithWikiLinkExtension() Option {
	return func(c *config) {
		c.extensions = append(c.extensions, &wikiLinkExtension{})
		c.wikiLinks = true
	}
}

// NewService creates a markdown service with the given extensions.
func NewService(opts ...Option) Service {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	return &service{
		md:        goldmark.New(goldmark.WithExtensions(c.extensions...)),
		wikiLinks: c.wikiLinks,
	}
}

// Extract returns the markers of content. Wiki links are scanned over the raw
// body, so markers inside code, indented lines and HTML count too. Tags come
// from the parsed document and are never read from code. Malformed markers are
// left as text.
func (s *service) Extract(content string) Markers {
	var markers Markers
	if strings.TrimSpace(content) == "" {
		return markers
	}

	source := []byte(content)
	if s.wikiLinks {
		markers.Links = scanWikiLinks(source)
	}
	doc := s.md.Parser().Parse(text.NewReader(source))

	seenTags := make(map[string]struct{})
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node, ok := n.(*Tag); ok {
			name := string(node.Name)
			if _, ok := seenTags[name]; !ok {
				seenTags[name] = struct{}{}
				markers.Tags = append(markers.Tags, name)
			}
		}
		return ast.WalkContinue, nil
	})
	return markers
}
