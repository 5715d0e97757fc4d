package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Version identifies the output of the renderer.
// Stored renders with an older version are rendered again on access.
const Version = 1

var ErrUnparseable = errors.New("message content could not be rendered")

type Renderer struct {
	MaxContentBytes int
}

func NewRenderer(maxContentBytes int) *Renderer {
	return &Renderer{MaxContentBytes: maxContentBytes}
}

func (v *Renderer) Version() int {
	return Version
}

// Render converts content into HTML, linking every match of filters.
// Content that cannot be converted yields ErrUnparseable.
func (v *Renderer) Render(content string, filters []Filter) (out string, err error) {
	if v.MaxContentBytes > 0 && len(content) > v.MaxContentBytes {
		return "", fmt.Errorf("%w: content exceeds %d bytes", ErrUnparseable, v.MaxContentBytes)
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("%w: %v", ErrUnparseable, r)
		}
	}()

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(
				util.Prioritized(&filterTransformer{filters: compileFilters(filters)}, 999),
			),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	return strings.TrimSpace(buf.String()), nil
}

type filterTransformer struct {
	filters []compiledFilter
}

func (v *filterTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	if len(v.filters) == 0 {
		return
	}

	var texts []*ast.Text
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindLink, ast.KindAutoLink, ast.KindImage, ast.KindCodeSpan, ast.KindRawHTML:
			return ast.WalkSkipChildren, nil
		}
		if node, ok := n.(*ast.Text); ok {
			texts = append(texts, node)
		}
		return ast.WalkContinue, nil
	})

	source := reader.Source()
	for _, node := range texts {
		v.link(node, source)
	}
}

func (v *filterTransformer) link(node *ast.Text, source []byte) {
	parent := node.Parent()
	if parent == nil {
		return
	}

	seg := node.Segment
	value := string(source[seg.Start:seg.Stop])
	matches := findAll(v.filters, value)
	if len(matches) == 0 {
		return
	}

	cursor := 0
	for _, match := range matches {
		if match.start > cursor {
			parent.InsertBefore(parent, node, ast.NewTextSegment(text.NewSegment(seg.Start+cursor, seg.Start+match.start)))
		}
		link := ast.NewLink()
		link.Destination = []byte(match.url)
		link.AppendChild(link, ast.NewTextSegment(text.NewSegment(seg.Start+match.start, seg.Start+match.end)))
		parent.InsertBefore(parent, node, link)
		cursor = match.end
	}

	tail := ast.NewTextSegment(text.NewSegment(seg.Start+cursor, seg.Stop))
	tail.SetSoftLineBreak(node.SoftLineBreak())
	tail.SetHardLineBreak(node.HardLineBreak())
	parent.InsertBefore(parent, node, tail)

	parent.RemoveChild(parent, node)
}
