package api

import "fmt"

// FetchError reports a non-2xx HTTP status. Message carries the error field
// of the response body when the server sent one.
type FetchError struct {
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// PayloadError reports a successful status whose body carries an error
// field or cannot be decoded.
type PayloadError struct {
	Message string
}

func (e *PayloadError) Error() string {
	return e.Message
}

// NetworkError reports a request that never completed.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
