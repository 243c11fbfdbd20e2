package service

import "errors"

var (
	// ErrEmptyCatalog means there is nothing of the requested kind to select from
	ErrEmptyCatalog = errors.New("no items in catalog")
	// ErrSessionState means an operation was invoked in the wrong drill or test state
	ErrSessionState = errors.New("operation not valid in current session state")
	// ErrTestComplete means every question of a test has been answered
	ErrTestComplete = errors.New("test is complete")
	// ErrTestNotFound means the test handle is unknown or belongs to someone else
	ErrTestNotFound = errors.New("test not found")
	// ErrInvalidDirection means a direction or mode is not allowed for the request
	ErrInvalidDirection = errors.New("invalid test direction or mode")

	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)
