package markdown

import (
	"regexp"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// PersonaTag is an inline @[name](id) mention.
type PersonaTag struct {
	ast.BaseInline
	Name string
	Id   int64
}

func (n *PersonaTag) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Name": n.Name,
		"Id":   strconv.FormatInt(n.Id, 10),
	}, nil)
}

var KindPersonaTag = ast.NewNodeKind("PersonaTag")

func (n *PersonaTag) Kind() ast.NodeKind {
	return KindPersonaTag
}

var mentionSourceRegex = regexp.MustCompile(`^@\[([^\]\n]+)\]\((\d+)\)`)

// mentionParser turns @[name](id) into a PersonaTag before the link parser sees the brackets.
type mentionParser struct{}

func NewMentionParser() parser.InlineParser {
	return &mentionParser{}
}

func (p *mentionParser) Trigger() []byte {
	return []byte{'@'}
}

func (p *mentionParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	m := mentionSourceRegex.FindSubmatch(line)
	if m == nil {
		return nil
	}
	id, err := strconv.ParseInt(string(m[2]), 10, 64)
	if err != nil {
		return nil
	}
	block.Advance(len(m[0]))
	return &PersonaTag{Name: string(m[1]), Id: id}
}

// MentionHTMLRenderer renders PersonaTag nodes as persona-tag spans.
type MentionHTMLRenderer struct {
	html.Config
}

func NewMentionHTMLRenderer(opts ...html.Option) renderer.NodeRenderer {
	r := &MentionHTMLRenderer{
		Config: html.NewConfig(),
	}
	for _, opt := range opts {
		opt.SetHTMLOption(&r.Config)
	}
	return r
}

func (r *MentionHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindPersonaTag, r.renderPersonaTag)
}

func (r *MentionHTMLRenderer) renderPersonaTag(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		n := node.(*PersonaTag)
		_, _ = w.WriteString(personaTagHTML(string(util.EscapeHTML([]byte(n.Name))), strconv.FormatInt(n.Id, 10)))
	}
	return ast.WalkSkipChildren, nil
}

type mentionExtension struct{}

// Mentions adds persona-tag parsing and rendering to a goldmark instance.
var Mentions goldmark.Extender = &mentionExtension{}

func (e *mentionExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(NewMentionParser(), 150),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(NewMentionHTMLRenderer(), 500),
	))
}

func personaTagHTML(escapedName, id string) string {
	return `<span class="persona-tag" data-persona-id="` + id + `" title="Persona ID: ` + id + `">@` + escapedName + `</span>`
}
