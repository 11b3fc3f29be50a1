package messaging

import (
	"errors"
	"fmt"
)

// ErrPermanent marks handler failures that redelivery cannot fix.
var ErrPermanent = errors.New("permanent failure")

// Permanent wraps err so the consumer acks and drops the message instead of
// requesting redelivery.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}
