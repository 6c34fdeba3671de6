package tokens

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/itchan-dev/forllm/shared/domain"
	"github.com/itchan-dev/forllm/shared/logger"
	"github.com/itchan-dev/forllm/shared/validation"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Each extracted file is preceded by this header.
const attachmentSeparator = "\n\n--- Attachment: %s ---\n\n"

// Extractor collects the text of staged attachments. The combined text is
// cached until the set of (filename, size) pairs changes.
type Extractor struct {
	policy *validation.TextPolicy

	mu          sync.Mutex
	fingerprint string
	text        string
	cached      bool
}

func NewExtractor(policy *validation.TextPolicy) *Extractor {
	return &Extractor{policy: policy}
}

func Fingerprint(files []domain.StagedAttachment) string {
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "%s:%d|", f.File.Name(), f.File.Size())
	}
	return b.String()
}

// Text returns the joined text of every plain-text file. Files that cannot
// be read are skipped.
func (e *Extractor) Text(files []domain.StagedAttachment) string {
	fp := Fingerprint(files)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cached && e.fingerprint == fp {
		return e.text
	}

	var b strings.Builder
	for _, f := range files {
		if !e.policy.IsText(f.File.Name(), f.File.Type()) {
			continue
		}
		content, err := readText(f.File)
		if err != nil {
			logger.Log.Warn("cannot read attachment text",
				"component", "token_estimator",
				"filename", f.File.Name(),
				"error", err)
			continue
		}
		fmt.Fprintf(&b, attachmentSeparator, f.File.Name())
		b.WriteString(content)
	}

	e.fingerprint = fp
	e.text = b.String()
	e.cached = true
	return e.text
}

// Invalidate drops the cached text.
func (e *Extractor) Invalidate() {
	e.mu.Lock()
	e.cached = false
	e.text = ""
	e.fingerprint = ""
	e.mu.Unlock()
}

// readText decodes a file as UTF-8, honouring a UTF-8 or UTF-16 byte order mark.
func readText(blob domain.Blob) (string, error) {
	rc, err := blob.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(rc, decoder))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
