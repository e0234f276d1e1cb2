package domain

import "errors"

var (
	ErrSendingReplyFailed = errors.New("failed to send reply")
	ErrImageNotFound      = errors.New("image not found")
	ErrVersionNotFound    = errors.New("version not found")
	ErrUnsupportedFormat  = errors.New("unsupported file type")
	ErrEmptyRequest       = errors.New("no operations requested")
	ErrMissingImage       = errors.New("missing image")
	ErrUnknownCommand     = errors.New("unknown command")
)
