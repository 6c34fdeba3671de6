package domain

type Subforum struct {
	Id   SubforumId
	Name string
}
