package store

import "errors"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrProjectExists   = errors.New("project already exists")
	// ErrRecordTooLarge is returned before attempting a write whose JSON
	// payload exceeds the configured cap. Embedded evidence can grow a
	// record past what the store should accept.
	ErrRecordTooLarge = errors.New("project record exceeds size limit")
)
