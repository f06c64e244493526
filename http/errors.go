package http

import "errors"

// ErrInvalidBody is returned when a request body cannot be decoded or fails validation.
var ErrInvalidBody = errors.New("invalid request body")
