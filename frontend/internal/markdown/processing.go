package markdown

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Matches the mention tag inside already rendered HTML.
var mentionTagRegex = regexp.MustCompile(`@\[([^\]<>]+)\]\((\d+)\)`)

type TextProcessor struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

func New() *TextProcessor {
	md := goldmark.New(
		goldmark.WithRendererOptions(html.WithUnsafe(), html.WithHardWraps()),
		goldmark.WithExtensions(extension.Strikethrough, extension.Table, Mentions),
	)
	return &TextProcessor{
		md:     md,
		policy: newPolicy(),
		strict: bluemonday.StrictPolicy(),
	}
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowAttrs("class").Matching(regexp.MustCompile("^persona-tag$")).OnElements("span")
	p.AllowAttrs("data-persona-id").Matching(regexp.MustCompile(`^\d+$`)).OnElements("span")
	p.AllowAttrs("title").OnElements("span")
	p.RequireNoFollowOnLinks(false)
	p.AllowRelativeURLs(true)
	return p
}

// RenderMentions replaces every @[name](id) in html with a persona-tag span.
// The name is expected to be HTML text already.
func RenderMentions(html string) string {
	return mentionTagRegex.ReplaceAllString(html, personaTagHTML("$1", "$2"))
}

// RenderPost prepares server-rendered post content for display.
func (tp *TextProcessor) RenderPost(contentHTML string) template.HTML {
	return template.HTML(RenderMentions(tp.policy.Sanitize(contentHTML)))
}

// Preview renders a draft the way it will look once posted.
func (tp *TextProcessor) Preview(draft string) (template.HTML, error) {
	rendered, err := tp.renderText(draft)
	if err != nil {
		return "", err
	}
	return template.HTML(tp.policy.Sanitize(rendered)), nil
}

// HasPayload reports whether the draft renders to any visible text.
func (tp *TextProcessor) HasPayload(draft string) bool {
	rendered, err := tp.renderText(draft)
	if err != nil {
		return strings.TrimSpace(draft) != ""
	}
	return strings.TrimSpace(tp.strict.Sanitize(rendered)) != ""
}

func (tp *TextProcessor) renderText(text string) (string, error) {
	var buf bytes.Buffer
	if err := tp.md.Convert([]byte(text), &buf); err != nil {
		return text, err
	}
	return strings.TrimSpace(buf.String()), nil
}
