package llm

import "errors"

// ErrEmptyOutput is returned when a model answers without any text.
var ErrEmptyOutput = errors.New("model returned no text")
