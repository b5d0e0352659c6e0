package session

import "errors"

var (
	ErrInvalidToken    = errors.New("invalid or expired device token")
	ErrEmptyDeviceName = errors.New("device name is empty")
)
