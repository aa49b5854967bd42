package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// RemoteError is a non-2xx response from the ledger API. The request reached
// the server and was rejected, so it must not be retried.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("ledger api error %d: %s", e.Status, e.Message)
}

// ConnectivityError is a transport-level failure (connection refused, timeout,
// unreachable host). No response was received, so the call is safe to retry.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connection failed during %s: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

type DateParseError struct {
	Input string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("unable to parse date: %q", e.Input)
}

func IsConnectivityError(err error) bool {
	var connErr *ConnectivityError
	return errors.As(err, &connErr)
}

// ErrorText returns the message a user should see for err. For rejected
// ledger requests that is the server-provided message alone, without the
// status wrapping.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Message
	}
	return err.Error()
}
