package backend

import "errors"

var (
	// ErrTransport covers unreachable backends and non-2xx answers.
	ErrTransport = errors.New("backend transport error")
	// ErrParse is returned when a response body is not valid JSON.
	ErrParse = errors.New("backend parse error")
	// ErrRejected is returned when the backend answers a write with ok=false.
	ErrRejected = errors.New("backend rejected request")
)
