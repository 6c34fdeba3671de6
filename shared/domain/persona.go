package domain

import (
	"fmt"
	"strings"
)

type Persona struct {
	Id                   PersonaId
	Name                 string
	IsDefaultForSubforum bool
}

// brackets and parens would break the @[name](id) encoding
var mentionNameReplacer = strings.NewReplacer("[", "", "]", "", "(", "", ")", "")

// MentionTag is the canonical inline form stored in post text.
func (p Persona) MentionTag() string {
	return fmt.Sprintf("@[%s](%d)", mentionNameReplacer.Replace(p.Name), p.Id)
}
