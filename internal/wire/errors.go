package wire

import "fmt"

// MalformedError reports a datagram that could not be decoded into a
// Message: missing message_type, missing a key a known kind requires, or
// a field that failed to parse as its expected type.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed message: %s", e.Reason)
}

func malformed(format string, args ...interface{}) error {
	return &MalformedError{Reason: fmt.Sprintf(format, args...)}
}
