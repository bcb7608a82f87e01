package queue

import "errors"

var (
	ErrNotFound      = errors.New("queue: request not found in session")
	ErrAlreadyQueued = errors.New("queue: request already queued")
	ErrInvalidStatus = errors.New("queue: invalid status")
)
