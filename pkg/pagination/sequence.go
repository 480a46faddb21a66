package pagination

import (
	"context"

	"github.com/veloapi/velo/pkg/progress"
	"github.com/veloapi/velo/pkg/request"
)

// Dispatcher executes one page of a paginated request. *client.Client
// implements it; tests substitute their own.
type Dispatcher interface {
	// DoPage builds and sends req, applies page (when non-nil) to the built
	// request, and decodes the response into out.
	DoPage(ctx context.Context, req request.Request, page PageData, out any) error
}

// Option configures a pagination sequence.
type Option func(*options)

type options struct {
	reporter progress.Reporter
	totalFn  func(payload any) int
}

func newOptions(opts []Option) options {
	o := options{reporter: progress.Nop{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithProgress attaches a progress reporter to the sequence. Reporting is
// observational only and never changes results.
func WithProgress(r progress.Reporter) Option {
	return func(o *options) {
		if r != nil {
			o.reporter = r
		}
	}
}

// WithTotal supplies a closure that extracts the total page count from a
// decoded payload. It runs once, on the first page, and only feeds the
// progress reporter.
func WithTotal(fn func(payload any) int) Option {
	return func(o *options) {
		o.totalFn = fn
	}
}

// Fetch runs a paginated sequence to completion and returns every decoded
// page in order. On a failed page the already-fetched pages are returned
// alongside the error, so callers can keep partial results.
//
// Pages are fetched strictly sequentially: page N+1 is requested only
// after page N's response resolved and the paginator decided to continue.
func Fetch[T any](ctx context.Context, d Dispatcher, req PagedRequest, opts ...Option) ([]T, error) {
	o := newOptions(opts)
	pag := req.Paginator()

	var page PageData
	if ip, ok := req.(InitialPager); ok {
		page = ip.InitialPage()
	}

	var results []T
	total := -1
	for {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		out := new(T)
		if err := d.DoPage(ctx, req, page, out); err != nil {
			return results, err
		}
		results = append(results, *out)

		if o.totalFn != nil && total < 0 {
			total = o.totalFn(out)
		}
		o.reporter.Update(len(results), total)

		next := pag.NextPage(page, out)
		if next == nil {
			break
		}
		if pe, ok := next.(pageError); ok {
			return results, pe.err
		}
		page = next
	}

	o.reporter.Finish(len(results))
	return results, nil
}

// Result is one element of a streamed paginated sequence: either a decoded
// page or the error that ended the sequence.
type Result[T any] struct {
	Page *T
	Err  error
}

// Stream runs a paginated sequence in a goroutine and delivers each page
// as it resolves. The channel is closed when the paginator terminates, an
// error occurs (delivered as the final Result), or ctx is cancelled. The
// goroutine holds no resources after the channel closes.
//
// Multiple Streams may run concurrently against the same Dispatcher; each
// owns its page state.
func Stream[T any](ctx context.Context, d Dispatcher, req PagedRequest, opts ...Option) <-chan Result[T] {
	ch := make(chan Result[T])

	go func() {
		defer close(ch)

		o := newOptions(opts)
		pag := req.Paginator()

		var page PageData
		if ip, ok := req.(InitialPager); ok {
			page = ip.InitialPage()
		}

		fetched := 0
		total := -1
		for {
			out := new(T)
			if err := d.DoPage(ctx, req, page, out); err != nil {
				select {
				case ch <- Result[T]{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			select {
			case ch <- Result[T]{Page: out}:
			case <-ctx.Done():
				return
			}

			fetched++
			if o.totalFn != nil && total < 0 {
				total = o.totalFn(out)
			}
			o.reporter.Update(fetched, total)

			next := pag.NextPage(page, out)
			if next == nil {
				o.reporter.Finish(fetched)
				return
			}
			if pe, ok := next.(pageError); ok {
				select {
				case ch <- Result[T]{Err: pe.err}:
				case <-ctx.Done():
				}
				return
			}
			page = next
		}
	}()

	return ch
}
