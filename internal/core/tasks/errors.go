package tasks

import "errors"

var (
	ErrTaskNotFound     = errors.New("task: not found")
	ErrFileNotFound     = errors.New("file: not found. Please upload the file again.")
	ErrDispatcherClosed = errors.New("dispatcher: shutting down")
)
