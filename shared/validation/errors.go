package validation

import "errors"

// ErrEmptyContent is returned when a draft has nothing but whitespace
var ErrEmptyContent = errors.New("content is empty")

// ErrUnknownAttachment is returned when a local id does not match any staged file
var ErrUnknownAttachment = errors.New("unknown staged attachment")
