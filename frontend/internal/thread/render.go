package thread

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/itchan-dev/forllm/shared/domain"
)

// ContentRenderer turns stored post HTML into safe display HTML.
// markdown.TextProcessor implements it.
type ContentRenderer interface {
	RenderPost(contentHTML string) template.HTML
}

const threadTemplate = `<div class="post-list">
{{- range .}}
<div class="post{{if .Indented}} post-reply{{end}}{{if .Node.Post.IsLLMResponse}} llm-response{{end}}" id="post-{{.Node.Post.Id}}" data-post-id="{{.Node.Post.Id}}" data-depth="{{.Depth}}">
<div class="post-meta">Posted by {{.Node.Post.AuthorDisplayName}} on <time datetime="{{isoTime .Node.Post.CreatedAt}}">{{displayTime .Node.Post.CreatedAt}}</time>
{{- if .Node.Post.IsLLMResponse}}<span class="llm-meta"> (LLM: {{deref .Node.Post.LLMModelId}} / Persona: {{personaId .Node.Post.LLMPersonaId}})</span>{{end}}</div>
<div class="post-content">{{content .Node.Post.ContentHTML}}</div>
{{- with .Node.Post.Attachments}}
<ul class="post-attachments">
{{- range .}}
<li data-attachment-id="{{.Id}}">{{.Filename}}{{with .UserPrompt}} <span class="attachment-prompt">{{.}}</span>{{end}}</li>
{{- end}}
</ul>
{{- end}}
<div class="post-actions">
<button class="reply-btn" data-post-id="{{.Node.Post.Id}}">Reply</button>
{{- if not .Node.Post.IsLLMResponse}}
<button class="request-llm-btn" data-post-id="{{.Node.Post.Id}}">Request LLM Response</button>
{{- end}}
<button class="tag-persona-btn" data-post-id="{{.Node.Post.Id}}">Tag Persona</button>
</div>
</div>
{{- end}}
</div>`

// Renderer renders a post forest as the thread's HTML fragment.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer(content ContentRenderer) *Renderer {
	funcs := template.FuncMap{
		"content":     content.RenderPost,
		"isoTime":     func(t time.Time) string { return t.Format(time.RFC3339) },
		"displayTime": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
		"deref": func(s *string) string {
			if s == nil {
				return "unknown"
			}
			return *s
		},
		"personaId": func(id *domain.PersonaId) string {
			if id == nil {
				return "none"
			}
			return fmt.Sprint(*id)
		},
	}
	return &Renderer{
		tmpl: template.Must(template.New("thread").Funcs(funcs).Parse(threadTemplate)),
	}
}

// Render walks roots and renders every post once, in pre-order.
func (r *Renderer) Render(roots []*Node) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, Walk(roots)); err != nil {
		return "", fmt.Errorf("failed to render thread: %w", err)
	}
	return template.HTML(buf.String()), nil
}
