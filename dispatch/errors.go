package dispatch

import "errors"

// ErrHardwareWrite wraps failed hardware writes.
var ErrHardwareWrite = errors.New("hardware write failed")
