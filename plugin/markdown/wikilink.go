package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindWikiLink is the ast.NodeKind of WikiLink.
var KindWikiLink = ast.NewNodeKind("WikiLink")

// WikiLink is an inline `[[Title]]`, `[[Title|alias]]` or `[[Title#section]]` marker.
type WikiLink struct {
	ast.BaseInline

	// Target is the trimmed title the marker points at.
	Target []byte
}

// Kind implements ast.Node.
func (n *WikiLink) Kind() ast.NodeKind {
	return KindWikiLink
}

// Dump implements ast.Node.
func (n *WikiLink) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Target": string(n.Target)}, nil)
}

var (
	wikiOpen  = []byte("[[")
	wikiClose = []byte("]]")
)

type wikiLinkParser struct{}

func (p *wikiLinkParser) Trigger() []byte {
	return []byte{'['}
}

func (p *wikiLinkParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if !bytes.HasPrefix(line, wikiOpen) {
		return nil
	}
	end := bytes.Index(line[len(wikiOpen):], wikiClose)
	if end < 0 {
		return nil
	}
	inner := line[len(wikiOpen) : len(wikiOpen)+end]
	// Nested openers belong to a later marker on the same line.
	if bytes.IndexByte(inner, '[') >= 0 {
		return nil
	}
	target := linkTarget(inner)
	if len(target) == 0 {
		return nil
	}
	block.Advance(len(wikiOpen) + end + len(wikiClose))
	return &WikiLink{Target: target}
}

// scanWikiLinks returns the targets of every well-formed marker in source, in
// body order. Markers never span lines; an opener nested inside a marker
// starts the marker that is resolved.
func scanWikiLinks(source []byte) []string {
	var links []string
	for _, line := range bytes.Split(source, []byte{'\n'}) {
		i := 0
		for {
			j := bytes.Index(line[i:], wikiOpen)
			if j < 0 {
				break
			}
			start := i + j
			body := line[start+len(wikiOpen):]
			end := bytes.Index(body, wikiClose)
			if end < 0 {
				break
			}
			inner := body[:end]
			if bytes.IndexByte(inner, '[') >= 0 {
				i = start + 1
				continue
			}
			if target := linkTarget(inner); len(target) > 0 {
				links = append(links, string(target))
			}
			i = start + len(wikiOpen) + end + len(wikiClose)
		}
	}
	return links
}

// linkTarget strips the display alias and section suffix of a marker body.
func linkTarget(inner []byte) []byte {
	if i := bytes.IndexByte(inner, '|'); i >= 0 {
		inner = inner[:i]
	}
	if i := bytes.IndexByte(inner, '#'); i >= 0 {
		inner = inner[:i]
	}
	return bytes.TrimSpace(inner)
}

type wikiLinkExtension struct{}

// Extend registers the parser ahead of goldmark's link parser (priority 200),
// so `[[` is claimed before it can open a regular link label and a `#section`
// suffix is never read as a tag.
func (e *wikiLinkExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&wikiLinkParser{}, 199),
	))
}
