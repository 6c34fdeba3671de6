package handler

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"github.com/itchan-dev/forllm/shared/domain"
	"github.com/itchan-dev/forllm/shared/logger"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{- if .Error}}
<div class="error">{{.Error}}</div>
{{- end}}
<main id="topic-{{.TopicId}}">
{{- if .Posts}}
{{.Posts}}
{{- else}}
<p class="empty">No posts in this topic yet.</p>
{{- end}}
</main>
</body>
</html>`

var page = template.Must(template.New("page").Parse(pageTemplate))

type pageData struct {
	Title   string
	TopicId domain.TopicId
	Posts   template.HTML
	Error   string
}

// checkNotModified handles HTTP conditional GET requests using Last-Modified/If-Modified-Since.
// Returns true if a 304 Not Modified response was sent (caller should return early).
func checkNotModified(w http.ResponseWriter, r *http.Request, lastModified time.Time) bool {
	lastModified = lastModified.UTC().Truncate(time.Second)

	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Last-Modified", lastModified.Format(http.TimeFormat))

	if ifModifiedSince := r.Header.Get("If-Modified-Since"); ifModifiedSince != "" {
		if t, err := http.ParseTime(ifModifiedSince); err == nil {
			if !lastModified.After(t.UTC().Truncate(time.Second)) {
				w.WriteHeader(http.StatusNotModified)
				return true
			}
		}
	}
	return false
}

// lastModified is the creation time of the newest post.
func lastModified(posts []domain.Post) time.Time {
	var latest time.Time
	for _, p := range posts {
		if p.CreatedAt.After(latest) {
			latest = p.CreatedAt
		}
	}
	return latest
}

func renderPage(w http.ResponseWriter, status int, data pageData) {
	buf := new(bytes.Buffer)
	if err := page.Execute(buf, data); err != nil {
		logger.Log.Error("error executing template", "template", "page", "error", err)
		http.Error(w, "Internal Server Error rendering template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
