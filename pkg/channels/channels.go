// Package channels holds send helpers for producers that must never block
// indefinitely, such as audio device callbacks.
package channels

import (
	"errors"
)

var (
	ErrChannelClosed  = errors.New("channel closed")
	ErrChannelTimeout = errors.New("send timeout")
)
