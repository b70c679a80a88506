package hub

import "errors"

var (
	ErrHubAlreadyRunning   = errors.New("hub is already running")
	ErrHubNotRunning       = errors.New("hub is not running")
	ErrCommandQueueFull    = errors.New("command queue is full")
	ErrDisconnectQueueFull = errors.New("disconnect queue is full")
)
