package interaction

import "errors"

var (
	ErrSelfInteraction = errors.New("cannot interact with yourself")
)
