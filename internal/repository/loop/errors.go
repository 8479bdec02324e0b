package loop

import "errors"

var (
	ErrLoopNotFound = errors.New("loop not found")
	ErrLoopExists   = errors.New("loop already exists")
)
