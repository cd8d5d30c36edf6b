package light

import "errors"

var (
	ErrInvalidColor   = errors.New("invalid color")
	ErrFixtureUnknown = errors.New("unknown fixture")
	ErrGroupUnknown   = errors.New("unknown light group")
)
