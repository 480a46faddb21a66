package client

import (
	"errors"
	"fmt"
)

// ErrorClass classifies dispatch failures. Callers inspect the class (or
// use errors.As on the concrete types) to decide on retry, abort or
// user-facing reporting; the library never swallows a class.
type ErrorClass string

const (
	// ErrorClassTransport covers network and timeout failures; the request
	// may never have reached the server.
	ErrorClassTransport ErrorClass = "transport"

	// ErrorClassDecode covers response bodies that did not match the
	// expected typed shape.
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassClient covers 4xx API error responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer covers 5xx API error responses.
	ErrorClassServer ErrorClass = "server"
)

// TransportError wraps a failure below the HTTP layer.
type TransportError struct {
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError wraps a response body that could not be decoded into the
// expected type. Body holds a snippet of the offending payload.
type DecodeError struct {
	Err  error
	Body []byte
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	const maxSnippet = 256
	snippet := e.Body
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}
	return fmt.Sprintf("decode error: %v (body: %s)", e.Err, snippet)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// APIError is a well-formed response reporting an application-level
// failure, carrying the status code and raw body.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("API %s error (status %d): %s", e.Class(), e.StatusCode, e.Body)
}

// Class returns client for 4xx statuses and server otherwise.
func (e *APIError) Class() ErrorClass {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return ErrorClassClient
	}
	return ErrorClassServer
}

// Classify maps any dispatch error onto its ErrorClass. Unknown errors
// (context cancellation, rate limiter shutdown) classify as transport.
func Classify(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class()
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return ErrorClassDecode
	}
	return ErrorClassTransport
}
