package pasur

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateCard   = errors.New("card already held")
	ErrNotOwned        = errors.New("card not owned by holder")
	ErrEmptyDeck       = errors.New("deck is empty")
	ErrIllegalAction   = errors.New("illegal action")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// IllegalActionError is a rule violation. It matches ErrIllegalAction with
// errors.Is and carries a reason suitable for showing to players.
type IllegalActionError struct {
	Reason string
}

func (e *IllegalActionError) Error() string {
	return "illegal action: " + e.Reason
}

func (e *IllegalActionError) Is(target error) bool {
	return target == ErrIllegalAction
}

func illegal(format string, args ...any) error {
	return &IllegalActionError{Reason: fmt.Sprintf(format, args...)}
}
