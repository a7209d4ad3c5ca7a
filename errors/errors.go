package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrInvalidIdentity    = fmt.Errorf("invalid identity")
	ErrRoomNotJoined      = fmt.Errorf("room has not been joined")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrRecipientOffline   = fmt.Errorf("recipient is not connected")
	ErrBackpressure       = fmt.Errorf("send buffer full")
	ErrConnClosed         = fmt.Errorf("connection closed")
	ErrEmptyWords         = fmt.Errorf("no words have been found")
)
