package pagination

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/veloapi/velo/pkg/request"
)

// ErrPayloadMismatch reports that a decoded payload did not match the
// type a paginator was constructed for, e.g. Fetch[T] driving a
// NewQueryPaginator[U] sequence. The drivers surface it instead of
// treating the page as the end of the sequence.
var ErrPayloadMismatch = errors.New("payload type does not match paginator")

// pageError carries a paginator failure through the PageData return
// value; the sequence drivers unwrap it before fetching another page.
type pageError struct {
	err error
}

func (p pageError) ApplyPage(*http.Request) error { return p.err }

// Paginator decides, after each page, whether the sequence continues.
// prev is the PageData that produced the current page (nil for the first
// page of a sequence started without an initial cursor) and payload is the
// decoded response. Returning nil terminates the sequence.
//
// Implementations must be safe to invoke from concurrent sequences: all
// sequence-local state lives in the PageData values, never in the
// Paginator itself.
type Paginator interface {
	NextPage(prev PageData, payload any) PageData
}

// PagedRequest is a request descriptor for a paginated endpoint.
type PagedRequest interface {
	request.Request

	// Paginator returns the strategy driving this request's sequence.
	Paginator() Paginator
}

// InitialPager lets a PagedRequest start the sequence from a specific
// page instead of whatever the API defines as the first page.
type InitialPager interface {
	InitialPage() PageData
}

// QueryPaginator pages through query parameters. The transition closure
// receives the previous page's query data (nil on the first page) and the
// decoded payload, and returns the next page's data or nil to stop.
type QueryPaginator[T any] struct {
	next func(prev QueryPage, payload *T) QueryPage
}

// NewQueryPaginator wraps a transition closure into a Paginator. The
// closure must not capture mutable unsynchronized state; it is invoked
// from whichever goroutine drives the sequence.
func NewQueryPaginator[T any](next func(prev QueryPage, payload *T) QueryPage) *QueryPaginator[T] {
	return &QueryPaginator[T]{next: next}
}

// NextPage implements Paginator.
func (p *QueryPaginator[T]) NextPage(prev PageData, payload any) PageData {
	typed, ok := payload.(*T)
	if !ok {
		return pageError{fmt.Errorf("%w: got %T, want %T", ErrPayloadMismatch, payload, new(T))}
	}
	var prevPage QueryPage
	if q, ok := prev.(QueryPage); ok {
		prevPage = q
	}
	if next := p.next(prevPage, typed); next != nil {
		return next
	}
	return nil
}

// PathPaginator pages through path segments, with the same transition
// contract as QueryPaginator.
type PathPaginator[T any] struct {
	next func(prev PathPage, payload *T) PathPage
}

// NewPathPaginator wraps a transition closure into a Paginator.
func NewPathPaginator[T any](next func(prev PathPage, payload *T) PathPage) *PathPaginator[T] {
	return &PathPaginator[T]{next: next}
}

// NextPage implements Paginator.
func (p *PathPaginator[T]) NextPage(prev PageData, payload any) PageData {
	typed, ok := payload.(*T)
	if !ok {
		return pageError{fmt.Errorf("%w: got %T, want %T", ErrPayloadMismatch, payload, new(T))}
	}
	var prevPage PathPage
	if pp, ok := prev.(PathPage); ok {
		prevPage = pp
	}
	if next := p.next(prevPage, typed); next != nil {
		return next
	}
	return nil
}
