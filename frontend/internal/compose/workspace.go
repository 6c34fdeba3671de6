package compose

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/itchan-dev/forllm/frontend/internal/attachments"
	"github.com/itchan-dev/forllm/frontend/internal/editor"
	"github.com/itchan-dev/forllm/frontend/internal/markdown"
	"github.com/itchan-dev/forllm/frontend/internal/mention"
	"github.com/itchan-dev/forllm/frontend/internal/tokens"
	"github.com/itchan-dev/forllm/shared/api"
	"github.com/itchan-dev/forllm/shared/domain"
	internal_errors "github.com/itchan-dev/forllm/shared/errors"
	"github.com/itchan-dev/forllm/shared/logger"
	"github.com/itchan-dev/forllm/shared/validation"
)

type Kind string

const (
	NewTopic Kind = "new-topic"
	Reply    Kind = "reply"
)

// Gateway is every forum API call a compose workspace makes.
type Gateway interface {
	attachments.Uploader
	tokens.Gateway
	CreateReply(ctx context.Context, topicId domain.TopicId, data api.CreatePostRequest) (domain.Post, error)
	CreateTopic(ctx context.Context, subforumId domain.SubforumId, data api.CreateTopicRequest) (domain.CreatedTopic, error)
	TagPersona(ctx context.Context, postId domain.PostId, personaId domain.PersonaId) (string, error)
}

type Deps struct {
	Gateway    Gateway
	Personas   mention.Source
	Registry   *mention.Registry
	TextPolicy *validation.TextPolicy
	Text       *markdown.TextProcessor
	Mention    mention.Options
	Estimate   tokens.Options
}

// Workspace is one editing context: its draft, mention session, token
// estimate and staged attachments.
type Workspace struct {
	ID   string
	Kind Kind

	Buffer    *editor.TextBuffer
	Mention   *mention.Controller
	Estimator *tokens.Estimator
	Budget    *tokens.MemoryDisplay
	Stager    *attachments.Stager

	gateway Gateway
	text    *markdown.TextProcessor

	mu        sync.Mutex
	selection tokens.Selection
}

func New(kind Kind, deps Deps) *Workspace {
	buf := editor.NewTextBuffer("")
	budget := &tokens.MemoryDisplay{}
	w := &Workspace{
		ID:        uuid.NewString(),
		Kind:      kind,
		Buffer:    buf,
		Mention:   mention.NewController(buf, deps.Personas, deps.Registry, deps.Mention),
		Estimator: tokens.NewEstimator(deps.Gateway, budget, tokens.NewExtractor(deps.TextPolicy), deps.Estimate),
		Budget:    budget,
		Stager:    attachments.NewStager(),
		gateway:   deps.Gateway,
		text:      deps.Text,
	}
	w.Stager.OnChange(w.Estimator.AttachmentsChanged)
	return w
}

// HandleKeyDown reports whether the editor must skip its default handling of key.
func (w *Workspace) HandleKeyDown(ctx context.Context, key string) bool {
	return w.Mention.Handle(ctx, mention.KeyDown{Key: key})
}

func (w *Workspace) HandleKeyUp(ctx context.Context, key string) {
	w.Mention.Handle(ctx, mention.KeyUp{Key: key})
	w.Estimator.DraftChanged(w.Buffer.Value())
}

func (w *Workspace) HandleBlur(ctx context.Context, intoOverlay bool) {
	w.Mention.Handle(ctx, mention.Blur{IntoOverlay: intoOverlay})
}

// PickSuggestion commits the index-th suggestion, as a click on the overlay does.
func (w *Workspace) PickSuggestion(ctx context.Context, index int) {
	w.Mention.Handle(ctx, mention.Click{Index: index})
	w.Estimator.DraftChanged(w.Buffer.Value())
}

// Key plays one key press: keydown, the editor's default action unless
// suppressed, then keyup. It reports whether the default action was suppressed.
func (w *Workspace) Key(ctx context.Context, key string) bool {
	prevented := w.HandleKeyDown(ctx, key)
	if !prevented {
		w.defaultAction(key)
	}
	w.HandleKeyUp(ctx, key)
	return prevented
}

// Type plays every rune of text as a key press.
func (w *Workspace) Type(ctx context.Context, text string) {
	for _, r := range text {
		w.Key(ctx, string(r))
	}
}

func (w *Workspace) defaultAction(key string) {
	switch key {
	case "Backspace":
		w.Buffer.Backspace()
	case "Enter":
		w.Buffer.Insert("\n")
	case "Tab":
		w.Buffer.Insert("\t")
	case "ArrowLeft", "ArrowRight":
		c := w.Buffer.Cursor()
		if key == "ArrowLeft" {
			c.Column--
		} else {
			c.Column++
		}
		w.Buffer.SetCursor(c)
	default:
		if utf8.RuneCountInString(key) == 1 {
			w.Buffer.Insert(key)
		}
	}
}

func (w *Workspace) SelectPersona(sel tokens.Selection) {
	w.mu.Lock()
	w.selection = sel
	w.mu.Unlock()
	w.Estimator.PersonaChanged(sel)
}

func (w *Workspace) Selection() tokens.Selection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selection
}

// Submitted is the outcome of a successful submit.
type Submitted struct {
	PostId      domain.PostId        `json:"post_id"`
	TopicId     domain.TopicId       `json:"topic_id"`
	Attachments []attachments.Result `json:"attachments"`
}

func (w *Workspace) content() (string, error) {
	content := strings.TrimSpace(w.Buffer.Value())
	if content == "" || (w.text != nil && !w.text.HasPayload(content)) {
		return "", &internal_errors.ValidationError{Field: "content", Message: validation.ErrEmptyContent.Error()}
	}
	return content, nil
}

// SubmitReply posts the draft as a reply. On failure the draft and staged
// files are left untouched.
func (w *Workspace) SubmitReply(ctx context.Context, topicId domain.TopicId, parentId *domain.PostId) (Submitted, error) {
	content, err := w.content()
	if err != nil {
		return Submitted{}, err
	}
	post, err := w.gateway.CreateReply(ctx, topicId, api.CreatePostRequest{Content: content, ParentPostId: parentId})
	if err != nil {
		logger.Log.Error("failed to create reply", "topic_id", topicId, "error", err)
		return Submitted{}, err
	}
	return w.finish(ctx, topicId, post.Id), nil
}

func (w *Workspace) SubmitTopic(ctx context.Context, subforumId domain.SubforumId, title string) (Submitted, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Submitted{}, &internal_errors.ValidationError{Field: "title", Message: "title is empty"}
	}
	content, err := w.content()
	if err != nil {
		return Submitted{}, err
	}
	created, err := w.gateway.CreateTopic(ctx, subforumId, api.CreateTopicRequest{Title: title, Content: content})
	if err != nil {
		logger.Log.Error("failed to create topic", "subforum_id", subforumId, "error", err)
		return Submitted{}, err
	}
	return w.finish(ctx, created.Id, created.InitialPostId), nil
}

func (w *Workspace) finish(ctx context.Context, topicId domain.TopicId, postId domain.PostId) Submitted {
	results := w.Stager.Flush(ctx, postId, w.gateway, nil)
	w.Mention.Handle(ctx, mention.Cancel{})
	w.Buffer.SetValue("")
	w.Estimator.DraftChanged("")
	return Submitted{PostId: postId, TopicId: topicId, Attachments: results}
}

// TagPersona asks personaId to answer postId.
func (w *Workspace) TagPersona(ctx context.Context, postId domain.PostId, personaId domain.PersonaId) (string, error) {
	if personaId == 0 {
		return "", &internal_errors.ValidationError{Field: "persona_id", Message: "no persona selected"}
	}
	msg, err := w.gateway.TagPersona(ctx, postId, personaId)
	if err != nil {
		logger.Log.Error("failed to tag persona", "post_id", postId, "persona_id", personaId, "error", err)
		return "", err
	}
	return msg, nil
}

// Close abandons the workspace: pending lookups and estimates are dropped.
func (w *Workspace) Close() {
	w.Mention.Close()
	w.Estimator.Close()
}
