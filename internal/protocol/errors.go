package protocol

import (
	"errors"

	"github.com/danmuck/hashdragon/internal/protocol/field"
)

var (
	ErrMalformedHeader  = errors.New("protocol: malformed header")
	ErrUnknownCommand   = errors.New("protocol: unknown command")
	ErrLengthMismatch   = field.ErrLengthMismatch
	ErrUnsupportedEvent = errors.New("protocol: unsupported event")
	ErrUnknownEvent     = errors.New("protocol: unknown event")
	ErrInvalidHex       = errors.New("protocol: invalid hex")
	ErrUnknownMode      = errors.New("protocol: unknown render mode")
)
