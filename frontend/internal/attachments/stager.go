package attachments

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/itchan-dev/forllm/shared/domain"
	internal_errors "github.com/itchan-dev/forllm/shared/errors"
	"github.com/itchan-dev/forllm/shared/logger"
	"github.com/itchan-dev/forllm/shared/metrics"
	"github.com/itchan-dev/forllm/shared/validation"
)

// Local ids are unique for the lifetime of the process, across all stagers.
var lastLocalId atomic.Int64

func nextLocalId() domain.LocalId {
	return lastLocalId.Add(1)
}

type Direction int

const (
	Up Direction = iota
	Down
)

// Uploader is the part of the API client used to commit staged files.
type Uploader interface {
	UploadAttachment(ctx context.Context, postId domain.PostId, file domain.Blob, orderInPost int) (domain.Attachment, error)
	UpdateAttachmentPrompt(ctx context.Context, attachmentId domain.AttachmentId, prompt string) (domain.Attachment, error)
}

// Row is one staged file as the attachment list shows it.
type Row struct {
	LocalId     domain.LocalId `json:"local_id"`
	Filename    string         `json:"filename"`
	SizeBytes   int64          `json:"size_bytes"`
	UserPrompt  string         `json:"user_prompt"`
	CanMoveUp   bool           `json:"can_move_up"`
	CanMoveDown bool           `json:"can_move_down"`
}

// Stager holds the files picked in one editing context until the post exists.
type Stager struct {
	mu       sync.Mutex
	items    []domain.StagedAttachment
	onChange func([]domain.StagedAttachment)
}

func NewStager() *Stager {
	return &Stager{}
}

// OnChange registers fn to be called with the new list after every change
// to the staged set or its order.
func (s *Stager) OnChange(fn func([]domain.StagedAttachment)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Stager) Stage(file domain.Blob) (domain.LocalId, error) {
	if file == nil {
		return 0, &internal_errors.ValidationError{Field: "file", Message: "no file selected"}
	}
	id := nextLocalId()

	s.mu.Lock()
	s.items = append(s.items, domain.StagedAttachment{LocalId: id, File: file})
	s.mu.Unlock()

	s.changed()
	return id, nil
}

// Reorder swaps the file with its neighbour. Moving past either end does nothing.
func (s *Stager) Reorder(id domain.LocalId, dir Direction) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("reorder %d: %w", id, validation.ErrUnknownAttachment)
	}
	j := i - 1
	if dir == Down {
		j = i + 1
	}
	if j < 0 || j >= len(s.items) {
		s.mu.Unlock()
		return nil
	}
	s.items[i], s.items[j] = s.items[j], s.items[i]
	s.mu.Unlock()

	s.changed()
	return nil
}

func (s *Stager) Remove(id domain.LocalId) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("remove %d: %w", id, validation.ErrUnknownAttachment)
	}
	s.items = slices.Delete(s.items, i, i+1)
	s.mu.Unlock()

	s.changed()
	return nil
}

func (s *Stager) SetPrompt(id domain.LocalId, prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("set prompt %d: %w", id, validation.ErrUnknownAttachment)
	}
	s.items[i].UserPrompt = prompt
	return nil
}

func (s *Stager) Items() []domain.StagedAttachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *Stager) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Stager) Clear() {
	s.mu.Lock()
	empty := len(s.items) == 0
	s.items = nil
	s.mu.Unlock()

	if !empty {
		s.changed()
	}
}

func (s *Stager) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]Row, len(s.items))
	for i, item := range s.items {
		rows[i] = Row{
			LocalId:     item.LocalId,
			Filename:    item.File.Name(),
			SizeBytes:   item.File.Size(),
			UserPrompt:  item.UserPrompt,
			CanMoveUp:   i > 0,
			CanMoveDown: i < len(s.items)-1,
		}
	}
	return rows
}

func (s *Stager) indexOf(id domain.LocalId) int {
	return slices.IndexFunc(s.items, func(a domain.StagedAttachment) bool { return a.LocalId == id })
}

func (s *Stager) changed() {
	s.mu.Lock()
	fn := s.onChange
	items := slices.Clone(s.items)
	s.mu.Unlock()
	if fn != nil {
		fn(items)
	}
}

// Result is the outcome of one file in a flush.
type Result struct {
	LocalId     domain.LocalId     `json:"local_id"`
	Filename    string             `json:"filename"`
	OrderInPost int                `json:"order_in_post"`
	Attachment  *domain.Attachment `json:"attachment,omitempty"`
	Status      string             `json:"status"`
	Err         error              `json:"-"`
}

func (r Result) OK() bool { return r.Err == nil }

// Flush uploads every staged file to postId one at a time, in list order,
// and then empties the stager. A failed file is reported and skipped.
// Files that failed are not kept for a retry.
func (s *Stager) Flush(ctx context.Context, postId domain.PostId, uploader Uploader, report func(Result)) []Result {
	items := s.Items()
	results := make([]Result, 0, len(items))
	log := logger.Log.With("component", "attachments", "post_id", postId)

	for order, item := range items {
		res := Result{LocalId: item.LocalId, Filename: item.File.Name(), OrderInPost: order}

		att, err := uploader.UploadAttachment(ctx, postId, item.File, order)
		metrics.AttachmentUploaded(err == nil)
		switch {
		case err != nil:
			res.Err = err
			res.Status = fmt.Sprintf("Upload failed: %v", err)
			log.Error("attachment upload failed", "filename", res.Filename, "order", order, "error", err)
		case item.UserPrompt != "":
			res.Attachment = &att
			updated, err := uploader.UpdateAttachmentPrompt(ctx, att.Id, item.UserPrompt)
			if err != nil {
				res.Err = err
				res.Status = fmt.Sprintf("Uploaded, prompt not saved: %v", err)
				log.Error("attachment prompt update failed", "attachment_id", att.Id, "error", err)
				break
			}
			res.Attachment = &updated
			res.Status = "Uploaded"
		default:
			res.Attachment = &att
			res.Status = "Uploaded"
		}

		if report != nil {
			report(res)
		}
		results = append(results, res)
	}

	s.Clear()
	return results
}
