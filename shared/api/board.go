package api

import (
	"github.com/itchan-dev/forllm/shared/domain"
)

type SubforumResponse struct {
	SubforumId int64  `json:"subforum_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
}

type CreateSubforumRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s SubforumResponse) ToDomain() domain.Subforum {
	return domain.Subforum{Id: s.SubforumId, Name: s.Name}
}
