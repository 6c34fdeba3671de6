package domain

import (
	"fmt"
	"time"
)

// for debug
func (p *Post) String() string {
	parent := "none"
	if p.ParentId != nil {
		parent = fmt.Sprintf("%d", *p.ParentId)
	}
	s := fmt.Sprintf("[id:%d, parent:%s, author:%s, created:%s, llm:%t, attachments:[", p.Id, parent, p.AuthorDisplayName, p.CreatedAt.Format(time.StampMilli), p.IsLLMResponse)
	for i, a := range p.Attachments {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%+v", a)
	}
	return s + "]]"
}

func (s StagedAttachment) String() string {
	return fmt.Sprintf("[local:%d, file:%s, size:%d, prompt:%q]", s.LocalId, s.File.Name(), s.File.Size(), s.UserPrompt)
}
