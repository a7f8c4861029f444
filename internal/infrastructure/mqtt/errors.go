package mqtt

import "errors"

var (
	// ErrConnectionFailed is returned when the broker connection cannot
	// be established.
	ErrConnectionFailed = errors.New("mqtt connection failed")

	// ErrSubscribeFailed is returned when a subscription is rejected.
	ErrSubscribeFailed = errors.New("mqtt subscribe failed")
)
