package request

import (
	"net/http"
	"net/url"
	"testing"
)

type plainGet struct{}

func (plainGet) Endpoint() string { return "/hello" }

type postUser struct {
	Name string `json:"name"`
}

func (postUser) Endpoint() string   { return "/user" }
func (postUser) HTTPMethod() string { return http.MethodPost }
func (p postUser) Body() Payload    { return JSON(p) }

func TestMethod(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "default is GET",
			req:  plainGet{},
			want: http.MethodGet,
		},
		{
			name: "method provider wins",
			req:  postUser{Name: "x"},
			want: http.MethodPost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Method(tt.req); got != tt.want {
				t.Errorf("Method() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPayload(t *testing.T) {
	var zero Payload
	if !zero.IsZero() {
		t.Error("zero Payload should report IsZero")
	}

	j := JSON(map[string]string{"a": "b"})
	if j.IsZero() {
		t.Error("JSON payload should not be zero")
	}
	if _, ok := j.JSONValue(); !ok {
		t.Error("JSON payload should expose a JSON value")
	}
	if _, ok := j.FormValues(); ok {
		t.Error("JSON payload should not expose form values")
	}

	f := Form(url.Values{"name": []string{"world"}})
	vals, ok := f.FormValues()
	if !ok {
		t.Fatal("Form payload should expose form values")
	}
	if vals.Get("name") != "world" {
		t.Errorf("form value = %q, want %q", vals.Get("name"), "world")
	}
}
