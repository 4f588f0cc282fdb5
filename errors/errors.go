package errors

import "fmt"

var (
	ErrWorkerPanic    = fmt.Errorf("worker panic")
	ErrEmptyWords     = fmt.Errorf("no words have been found")
	ErrInvalidPayload = fmt.Errorf("invalid event payload")
)

var (
	ErrInvalidCode         = fmt.Errorf("code must be exactly 4 digits")
	ErrInvalidConversation = fmt.Errorf("invalid conversation key")
	ErrCodeTaken           = fmt.Errorf("this code is already taken")
	ErrInvalidCredentials  = fmt.Errorf("invalid code")
	ErrTokenGeneration     = fmt.Errorf("token generation failed")
	ErrInvalidToken        = fmt.Errorf("invalid or expired token")
	ErrUserNotFound        = fmt.Errorf("user not found")
)

var (
	ErrRelayStopped      = fmt.Errorf("relay is not running")
	ErrUnknownEndpoint   = fmt.Errorf("endpoint is not connected")
	ErrDuplicateEndpoint = fmt.Errorf("endpoint already connected")
	ErrNotInRoom         = fmt.Errorf("sender has not joined this room")
	ErrMalformedFrame    = fmt.Errorf("malformed frame")
	ErrUnknownFrameType  = fmt.Errorf("unknown frame type")
	ErrSubscriptionEnded = fmt.Errorf("subscription ended before it was registered")
)

var (
	ErrContentRejected = fmt.Errorf("content rejected")
	ErrPostNotFound    = fmt.Errorf("post not found")
	ErrReplyNotFound   = fmt.Errorf("reply not found")
	ErrAlreadyReported = fmt.Errorf("you have already reported this post")
	ErrCorruptedRecord = fmt.Errorf("corrupted record")
)
