package game

import "errors"

var (
	ErrUnknownVariant  = errors.New("unknown game variant")
	ErrUnsupportedRule = errors.New("rule not supported by variant")
	ErrInvalidParams   = errors.New("invalid game parameters")
	ErrSessionEnded    = errors.New("session ended")
	ErrLayoutTooSmall  = errors.New("room layout too small for rule")
)
