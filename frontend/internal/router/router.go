package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/itchan-dev/forllm/frontend/internal/handler"
	"github.com/itchan-dev/forllm/shared/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New creates the chi router with every frontend route.
func New(h *handler.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	if origins := h.Public.CorsAllowedOrigins; len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		}))
	}

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/subforums", h.GetSubforums)
	r.Post("/subforums", h.CreateSubforum)
	r.Get("/subforums/{subforum}/topics", h.GetTopics)
	r.Get("/topics/{topic}", h.ThreadGetHandler)
	r.Post("/posts/{post}/request_llm", h.RequestLLMHandler)
	r.Get("/personas/suggest", h.SuggestPersonas)
	r.Post("/preview", h.Preview)

	r.Route("/compose", func(r chi.Router) {
		r.Post("/", h.OpenWorkspace)
		r.Route("/{workspace}", func(r chi.Router) {
			r.Get("/", h.GetWorkspace)
			r.Delete("/", h.CloseWorkspace)
			r.Post("/keys", h.Keys)
			r.Post("/blur", h.Blur)
			r.Post("/pick", h.PickSuggestion)
			r.Put("/persona", h.SelectPersona)
			r.Post("/attachments", h.StageAttachment)
			r.Post("/attachments/{local}/move", h.MoveAttachment)
			r.Put("/attachments/{local}/prompt", h.SetAttachmentPrompt)
			r.Delete("/attachments/{local}", h.RemoveAttachment)
			r.Post("/submit", h.Submit)
			r.Post("/tag_persona", h.TagPersona)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})

	return r
}
