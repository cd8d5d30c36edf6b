package shape

import "errors"

var ErrIntersectionNotComputable = errors.New("intersection not computable")
