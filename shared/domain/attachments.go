package domain

import (
	"bytes"
	"io"
)

// Attachment is a file already associated with a post on the server.
type Attachment struct {
	Id          AttachmentId
	PostId      PostId
	Filename    string
	MimeType    string
	SizeBytes   int64
	UserPrompt  string
	OrderInPost int
}

// Blob is a handle to a file picked by the user but not uploaded yet.
type Blob interface {
	Name() string
	Size() int64
	// Type is the declared MIME type, may be empty.
	Type() string
	Open() (io.ReadCloser, error)
}

// StagedAttachment is a client-held file selection waiting for a post id.
type StagedAttachment struct {
	LocalId    LocalId
	File       Blob
	UserPrompt string
}

// BytesBlob keeps the whole file in memory.
type BytesBlob struct {
	Filename string
	MimeType string
	Data     []byte
}

func (b *BytesBlob) Name() string { return b.Filename }
func (b *BytesBlob) Size() int64  { return int64(len(b.Data)) }
func (b *BytesBlob) Type() string { return b.MimeType }

func (b *BytesBlob) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}
