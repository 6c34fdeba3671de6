package domain

import "time"

type Topic struct {
	Id         TopicId
	SubforumId SubforumId
	Title      string
	Username   string
	PostCount  int
	CreatedAt  time.Time
	LastPostAt time.Time
}

// CreatedTopic is what the API hands back after a topic is opened.
type CreatedTopic struct {
	Id            TopicId
	Title         string
	InitialPostId PostId
}
