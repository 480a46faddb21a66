// Package request defines typed descriptors for REST operations.
//
// A Request describes one logical API call: its relative endpoint, and
// optionally its HTTP method, query parameters, body payload and extra
// headers. The client package turns a descriptor into an *http.Request
// and decodes the JSON response into a caller-supplied value.
package request

import (
	"net/http"
	"net/url"
)

// Request is the base descriptor for a single API operation. The only
// required piece is the relative endpoint path; everything else is opted
// into through the capability interfaces below. Descriptors must be
// treated as immutable once constructed.
type Request interface {
	// Endpoint returns the resource path relative to the client's base URL,
	// e.g. "/v1/users". Leading and trailing slashes are normalized away.
	Endpoint() string
}

// MethodProvider overrides the HTTP method for a request.
// Requests that do not implement it are sent as GET.
type MethodProvider interface {
	HTTPMethod() string
}

// QueryProvider supplies query parameters for a request.
type QueryProvider interface {
	Query() url.Values
}

// BodyProvider supplies a body payload for a request.
type BodyProvider interface {
	Body() Payload
}

// HeaderProvider supplies extra headers for a request. Credentials belong
// on the client's Authenticator, not here.
type HeaderProvider interface {
	Headers() http.Header
}

// Method resolves the HTTP method for a request descriptor.
func Method(r Request) string {
	if m, ok := r.(MethodProvider); ok && m.HTTPMethod() != "" {
		return m.HTTPMethod()
	}
	return http.MethodGet
}

type payloadKind int

const (
	payloadNone payloadKind = iota
	payloadJSON
	payloadForm
)

// Payload is the body of an outgoing request. The zero value means no body.
type Payload struct {
	kind  payloadKind
	value any
	form  url.Values
}

// JSON returns a payload that will be JSON-encoded with a
// "application/json" content type.
func JSON(v any) Payload {
	return Payload{kind: payloadJSON, value: v}
}

// Form returns a payload that will be URL-encoded with a
// "application/x-www-form-urlencoded" content type.
func Form(v url.Values) Payload {
	return Payload{kind: payloadForm, form: v}
}

// IsZero reports whether the payload carries no body.
func (p Payload) IsZero() bool { return p.kind == payloadNone }

// JSONValue returns the value to encode and whether the payload is JSON.
func (p Payload) JSONValue() (any, bool) { return p.value, p.kind == payloadJSON }

// FormValues returns the form values and whether the payload is a form.
func (p Payload) FormValues() (url.Values, bool) { return p.form, p.kind == payloadForm }
