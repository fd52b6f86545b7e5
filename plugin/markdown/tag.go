package markdown

import (
	"bytes"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindTag is the ast.NodeKind of Tag.
var KindTag = ast.NewNodeKind("Tag")

// Tag is an inline `#tag` marker.
type Tag struct {
	ast.BaseInline

	// Name is the lower-cased tag without '#'.
	Name []byte
}

// Kind implements ast.Node.
func (n *Tag) Kind() ast.NodeKind {
	return KindTag
}

// Dump implements ast.Node.
func (n *Tag) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": string(n.Name)}, nil)
}

type tagParser struct{}

func (p *tagParser) Trigger() []byte {
	return []byte{'#'}
}

func (p *tagParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	// A tag starts a word: "a#b" and "url/#anchor" are not tags.
	if prev := block.PrecendingCharacter(); !unicode.IsSpace(prev) && prev != '(' {
		return nil
	}
	line, _ := block.PeekLine()
	if len(line) < 2 || line[0] != '#' {
		return nil
	}

	n := 1
	for n < len(line) {
		r, size := utf8.DecodeRune(line[n:])
		if !isTagRune(r) {
			break
		}
		n += size
	}
	if n == 1 {
		return nil
	}

	name := bytes.ToLower(line[1:n])
	block.Advance(n)
	return &Tag{Name: name}
}

func isTagRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '/'
}

type tagExtension struct{}

func (e *tagExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&tagParser{}, 200),
	))
}
