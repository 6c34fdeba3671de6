package domain

type (
	SubforumId   = int64
	TopicId      = int64
	PostId       = int64
	PersonaId    = int64
	AttachmentId = int64

	// LocalId identifies a staged attachment inside this process only.
	LocalId = int64
)
