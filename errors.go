package libemit

import (
	"github.com/pkg/errors"
)

var (
	ErrNotEmitting      = errors.New("not in an emitting cycle; there is no current subscription")
	ErrConnectionClosed = errors.New("connection has been closed")
	ErrCannotConnect    = errors.New("connection cannot be established")
	ErrTerminated       = errors.New("program exit")
	ErrRateLimit        = errors.New("rate limit exceeded")
	ErrMalformedFrame   = errors.New("malformed event frame")
)
