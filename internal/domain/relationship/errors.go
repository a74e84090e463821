package relationship

import "errors"

var (
	// ErrSelfInteraction is returned when a profile targets itself.
	// A programming error on the client side; never retried.
	ErrSelfInteraction = errors.New("cannot like, pass or block yourself")
)
