// Package auth provides authentication strategies applied to outgoing
// requests before dispatch.
//
// All implementations hold only read-only state after construction and are
// safe to invoke from multiple in-flight requests. User-defined schemes
// implement Authenticator directly.
package auth

import (
	"fmt"
	"net/http"
	"net/url"
)

// Authenticator augments a built HTTP request with credentials.
// Apply must not mutate shared state; it is called concurrently.
type Authenticator interface {
	Apply(req *http.Request) error
}

// None performs no authentication. It is the default for clients
// constructed without credentials.
type None struct{}

// Apply implements Authenticator.
func (None) Apply(*http.Request) error { return nil }

// Basic implements HTTP basic authentication. A username without a
// password is a valid credential: the encoded form is then "user:" rather
// than omitting the colon, matching RFC 7617 servers that expect an empty
// password field.
type Basic struct {
	username    string
	password    string
	hasPassword bool
}

// NewBasic returns basic authentication with a username and password.
func NewBasic(username, password string) Basic {
	return Basic{username: username, password: password, hasPassword: true}
}

// NewBasicNoPassword returns basic authentication carrying only a username.
func NewBasicNoPassword(username string) Basic {
	return Basic{username: username}
}

// Apply implements Authenticator.
func (b Basic) Apply(req *http.Request) error {
	// SetBasicAuth encodes "user:" when the password is empty, which is
	// exactly the no-password wire form.
	req.SetBasicAuth(b.username, b.password)
	return nil
}

// Bearer implements bearer-token authentication via the Authorization header.
type Bearer struct {
	token string
}

// NewBearer returns bearer authentication with the given token.
func NewBearer(token string) Bearer {
	return Bearer{token: token}
}

// Apply implements Authenticator.
func (b Bearer) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+b.token)
	return nil
}

// Query authenticates by appending credential query parameters to every
// outgoing request URL.
type Query struct {
	pairs url.Values
}

// NewQuery returns query-parameter authentication from key/value pairs.
func NewQuery(pairs map[string]string) Query {
	vals := url.Values{}
	for k, v := range pairs {
		vals.Set(k, v)
	}
	return Query{pairs: vals}
}

// Apply implements Authenticator.
func (q Query) Apply(req *http.Request) error {
	query := req.URL.Query()
	for k, vs := range q.pairs {
		for _, v := range vs {
			query.Set(k, v)
		}
	}
	req.URL.RawQuery = query.Encode()
	return nil
}

// Header authenticates by setting credential headers on every outgoing
// request.
type Header struct {
	headers http.Header
}

// NewHeader returns header authentication from key/value pairs.
// Keys must be valid header names.
func NewHeader(pairs map[string]string) (Header, error) {
	h := http.Header{}
	for k, v := range pairs {
		if k == "" {
			return Header{}, fmt.Errorf("empty header name")
		}
		h.Set(k, v)
	}
	return Header{headers: h}, nil
}

// Apply implements Authenticator.
func (h Header) Apply(req *http.Request) error {
	for k, vs := range h.headers {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	return nil
}
