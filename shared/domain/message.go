package domain

import "time"

// Post is one message of a topic as returned by the API.
// ContentHTML is already rendered by the server.
type Post struct {
	Id                PostId
	TopicId           TopicId
	ParentId          *PostId // nil for top-level posts
	AuthorDisplayName string
	CreatedAt         time.Time
	ContentHTML       string
	IsLLMResponse     bool
	LLMModelId        *string
	LLMPersonaId      *PersonaId
	Attachments       []Attachment
}

func (p *Post) IsRoot() bool {
	return p.ParentId == nil
}
