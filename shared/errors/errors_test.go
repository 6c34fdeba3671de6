package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs(t *testing.T) {
	wrapped := fmt.Errorf("loading posts: %w", &InvalidInputError{Message: "not an array"})

	assert.True(t, Is[*InvalidInputError](wrapped))
	assert.False(t, Is[*APIError](wrapped))
	assert.False(t, Is[*ValidationError](nil))
}

func TestStatusCode(t *testing.T) {
	err := fmt.Errorf("tagging: %w", &APIError{Message: "gone", StatusCode: 404})
	assert.Equal(t, 404, StatusCode(err))
	assert.Equal(t, 0, StatusCode(assert.AnError))
}

func TestValidationError_Message(t *testing.T) {
	assert.Equal(t, "Validation error: content: must not be empty", (&ValidationError{Field: "content", Message: "must not be empty"}).Error())
	assert.Equal(t, "Validation error: bad", (&ValidationError{Message: "bad"}).Error())
}
