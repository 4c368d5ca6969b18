// Package permissions checks operating system consent for microphone capture.
package permissions

import "errors"

// Status mirrors AVAuthorizationStatus.
type Status int

const (
	NotDetermined Status = 0
	Restricted    Status = 1
	Denied        Status = 2
	Authorized    Status = 3
)

func (s Status) String() string {
	switch s {
	case NotDetermined:
		return "not determined"
	case Restricted:
		return "restricted"
	case Denied:
		return "denied"
	case Authorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// ErrMicrophoneDenied is returned when capture is not permitted.
var ErrMicrophoneDenied = errors.New("microphone permission not granted")

// EnsureMicrophone checks microphone access and asks for it when the user
// has not decided yet.
func EnsureMicrophone() error {
	return ensure(CheckMicrophone, RequestMicrophone)
}

func ensure(check func() Status, request func()) error {
	switch check() {
	case Authorized:
		return nil
	case NotDetermined:
		request()
	}
	return ErrMicrophoneDenied
}
