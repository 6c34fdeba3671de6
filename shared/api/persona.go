package api

import (
	"github.com/itchan-dev/forllm/shared/domain"
)

type PersonaResponse struct {
	PersonaId            int64  `json:"persona_id" validate:"required"`
	Name                 string `json:"name" validate:"required"`
	IsDefaultForSubforum Flag   `json:"is_default_for_subforum"`
}

func (p PersonaResponse) ToDomain() domain.Persona {
	return domain.Persona{Id: p.PersonaId, Name: p.Name, IsDefaultForSubforum: bool(p.IsDefaultForSubforum)}
}

type TagPersonaRequest struct {
	PersonaId int64 `json:"persona_id" validate:"required"`
}

type TagPersonaResponse struct {
	Message string `json:"message"`
}
