package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/veloapi/velo/pkg/request"
)

// listPage is the payload shape used throughout these tests.
type listPage struct {
	NextPage *int   `json:"next_page"`
	Data     string `json:"data"`
}

// fakeDispatcher builds a real *http.Request from the descriptor, applies
// the page data the way the client does, and serves scripted payloads
// keyed off the final URL.
type fakeDispatcher struct {
	mu      sync.Mutex
	calls   []string
	handler func(u *url.URL) (any, error)
}

func (f *fakeDispatcher) DoPage(ctx context.Context, req request.Request, page PageData, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, request.Method(req),
		"http://api.test/"+strings.Trim(req.Endpoint(), "/"), nil)
	if err != nil {
		return err
	}
	if qp, ok := req.(request.QueryProvider); ok {
		httpReq.URL.RawQuery = qp.Query().Encode()
	}
	if page != nil {
		if err := page.ApplyPage(httpReq); err != nil {
			return err
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, httpReq.URL.String())
	f.mu.Unlock()

	payload, err := f.handler(httpReq.URL)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeDispatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// pagedByQuery pages through a "page" query parameter.
type pagedByQuery struct {
	initial *int
}

func (pagedByQuery) Endpoint() string { return "/page" }

func (pagedByQuery) Paginator() Paginator {
	return NewQueryPaginator(func(_ QueryPage, r *listPage) QueryPage {
		if r.NextPage == nil {
			return nil
		}
		return QueryPage{"page": strconv.Itoa(*r.NextPage)}
	})
}

func (p pagedByQuery) InitialPage() PageData {
	if p.initial == nil {
		return nil
	}
	return QueryPage{"page": strconv.Itoa(*p.initial)}
}

// threePageHandler serves pages 1..3 keyed off the "page" query parameter,
// with no parameter meaning the first page.
func threePageHandler(u *url.URL) (any, error) {
	next := func(n int) *int { return &n }
	switch u.Query().Get("page") {
	case "", "1":
		return listPage{NextPage: next(2), Data: "first"}, nil
	case "2":
		return listPage{NextPage: next(3), Data: "second"}, nil
	case "3":
		return listPage{Data: "last"}, nil
	default:
		return nil, fmt.Errorf("unexpected page %q", u.Query().Get("page"))
	}
}

func TestFetchQueryPagination(t *testing.T) {
	d := &fakeDispatcher{handler: threePageHandler}

	pages, err := Fetch[listPage](context.Background(), d, pagedByQuery{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	want := []string{"first", "second", "last"}
	if len(pages) != len(want) {
		t.Fatalf("got %d pages, want %d", len(pages), len(want))
	}
	for i, w := range want {
		if pages[i].Data != w {
			t.Errorf("page %d = %q, want %q", i, pages[i].Data, w)
		}
	}
	if d.callCount() != 3 {
		t.Errorf("fetches = %d, want exactly 3", d.callCount())
	}
}

func TestFetchInitialPageOverwritesBaseQuery(t *testing.T) {
	d := &fakeDispatcher{handler: threePageHandler}

	one := 1
	req := pagedWithBaseQuery{pagedByQuery{initial: &one}}

	if _, err := Fetch[listPage](context.Background(), d, req); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	// Base query says page=0; the initial cursor must win.
	first, err := url.Parse(d.calls[0])
	if err != nil {
		t.Fatalf("parse first call: %v", err)
	}
	if got := first.Query()["page"]; len(got) != 1 || got[0] != "1" {
		t.Errorf("first request page param = %v, want [1]", got)
	}
}

// pagedWithBaseQuery adds a conflicting base query parameter.
type pagedWithBaseQuery struct {
	pagedByQuery
}

func (pagedWithBaseQuery) Query() url.Values {
	return url.Values{"page": []string{"0"}}
}

// pagedByPath pages through the third path segment.
type pagedByPath struct{}

func (pagedByPath) Endpoint() string { return "/nested/page" }

func (pagedByPath) Paginator() Paginator {
	return NewPathPaginator(func(_ PathPage, r *listPage) PathPage {
		if r.NextPage == nil {
			return nil
		}
		return PathPage{2: strconv.Itoa(*r.NextPage)}
	})
}

func TestFetchPathPagination(t *testing.T) {
	next := func(n int) *int { return &n }
	d := &fakeDispatcher{handler: func(u *url.URL) (any, error) {
		switch u.Path {
		case "/nested/page":
			return listPage{NextPage: next(1), Data: "first"}, nil
		case "/nested/page/1":
			return listPage{NextPage: next(2), Data: "second"}, nil
		case "/nested/page/2":
			return listPage{Data: "last"}, nil
		default:
			return nil, fmt.Errorf("unexpected path %q", u.Path)
		}
	}}

	pages, err := Fetch[listPage](context.Background(), d, pagedByPath{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	if pages[2].Data != "last" {
		t.Errorf("final page = %q, want %q", pages[2].Data, "last")
	}
}

func TestFetchKeepsPartialResultsOnFailure(t *testing.T) {
	transportErr := errors.New("connection reset")
	next := func(n int) *int { return &n }
	d := &fakeDispatcher{handler: func(u *url.URL) (any, error) {
		switch u.Query().Get("page") {
		case "":
			return listPage{NextPage: next(2), Data: "first"}, nil
		case "2":
			return nil, transportErr
		default:
			return nil, fmt.Errorf("unexpected page")
		}
	}}

	pages, err := Fetch[listPage](context.Background(), d, pagedByQuery{})
	if !errors.Is(err, transportErr) {
		t.Fatalf("Fetch() error = %v, want %v", err, transportErr)
	}
	if len(pages) != 1 || pages[0].Data != "first" {
		t.Errorf("partial results = %+v, want the first page preserved", pages)
	}
}

func TestStreamMatchesFetch(t *testing.T) {
	d := &fakeDispatcher{handler: threePageHandler}

	var streamed []listPage
	for result := range Stream[listPage](context.Background(), d, pagedByQuery{}) {
		if result.Err != nil {
			t.Fatalf("stream error = %v", result.Err)
		}
		streamed = append(streamed, *result.Page)
	}

	fetched, err := Fetch[listPage](context.Background(), &fakeDispatcher{handler: threePageHandler}, pagedByQuery{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(streamed) != len(fetched) {
		t.Fatalf("stream returned %d pages, fetch returned %d", len(streamed), len(fetched))
	}
	for i := range streamed {
		if !reflect.DeepEqual(streamed[i], fetched[i]) {
			t.Errorf("page %d: stream %+v != fetch %+v", i, streamed[i], fetched[i])
		}
	}
}

func TestStreamSurfacesErrorAfterPartialResults(t *testing.T) {
	transportErr := errors.New("connection reset")
	next := func(n int) *int { return &n }
	d := &fakeDispatcher{handler: func(u *url.URL) (any, error) {
		switch u.Query().Get("page") {
		case "":
			return listPage{NextPage: next(2), Data: "first"}, nil
		default:
			return nil, transportErr
		}
	}}

	var pages []listPage
	var streamErr error
	for result := range Stream[listPage](context.Background(), d, pagedByQuery{}) {
		if result.Err != nil {
			streamErr = result.Err
			continue
		}
		pages = append(pages, *result.Page)
	}

	if !errors.Is(streamErr, transportErr) {
		t.Fatalf("stream error = %v, want %v", streamErr, transportErr)
	}
	if len(pages) != 1 || pages[0].Data != "first" {
		t.Errorf("pages before failure = %+v, want the first page preserved", pages)
	}
}

// otherPage has a different shape from listPage, so a paginator built for
// it never matches a listPage sequence.
type otherPage struct {
	Total int `json:"total"`
}

// pagedWrongType declares a paginator typed for otherPage.
type pagedWrongType struct{}

func (pagedWrongType) Endpoint() string { return "/page" }

func (pagedWrongType) Paginator() Paginator {
	return NewQueryPaginator(func(_ QueryPage, r *otherPage) QueryPage {
		return nil
	})
}

func TestFetchSurfacesPayloadTypeMismatch(t *testing.T) {
	d := &fakeDispatcher{handler: threePageHandler}

	pages, err := Fetch[listPage](context.Background(), d, pagedWrongType{})
	if !errors.Is(err, ErrPayloadMismatch) {
		t.Fatalf("Fetch() error = %v, want ErrPayloadMismatch", err)
	}
	if len(pages) != 1 || pages[0].Data != "first" {
		t.Errorf("partial results = %+v, want the first page preserved", pages)
	}
	if d.callCount() != 1 {
		t.Errorf("fetches = %d, want 1 (no pages after the mismatch)", d.callCount())
	}
}

func TestStreamSurfacesPayloadTypeMismatch(t *testing.T) {
	d := &fakeDispatcher{handler: threePageHandler}

	var pages []listPage
	var streamErr error
	for result := range Stream[listPage](context.Background(), d, pagedWrongType{}) {
		if result.Err != nil {
			streamErr = result.Err
			continue
		}
		pages = append(pages, *result.Page)
	}

	if !errors.Is(streamErr, ErrPayloadMismatch) {
		t.Fatalf("stream error = %v, want ErrPayloadMismatch", streamErr)
	}
	if len(pages) != 1 || pages[0].Data != "first" {
		t.Errorf("pages before the mismatch = %+v, want the first page", pages)
	}
}

func TestConcurrentSequencesDoNotInterfere(t *testing.T) {
	d := &fakeDispatcher{handler: threePageHandler}

	sequential, err := Fetch[listPage](context.Background(), d, pagedByQuery{})
	if err != nil {
		t.Fatalf("sequential Fetch() error = %v", err)
	}

	const sequences = 8
	var wg sync.WaitGroup
	results := make([][]listPage, sequences)
	errs := make([]error, sequences)

	for i := 0; i < sequences; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = Fetch[listPage](context.Background(), d, pagedByQuery{})
		}(i)
	}
	wg.Wait()

	for i := 0; i < sequences; i++ {
		if errs[i] != nil {
			t.Fatalf("sequence %d error = %v", i, errs[i])
		}
		if len(results[i]) != len(sequential) {
			t.Fatalf("sequence %d returned %d pages, want %d", i, len(results[i]), len(sequential))
		}
		for j := range sequential {
			if !reflect.DeepEqual(results[i][j], sequential[j]) {
				t.Errorf("sequence %d page %d = %+v, want %+v", i, j, results[i][j], sequential[j])
			}
		}
	}
}

type countingReporter struct {
	mu       sync.Mutex
	updates  int
	finishes int
	totals   []int
}

func (c *countingReporter) Update(fetched, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates++
	c.totals = append(c.totals, total)
}

func (c *countingReporter) Finish(int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finishes++
}

func TestProgressReporting(t *testing.T) {
	reporter := &countingReporter{}
	d := &fakeDispatcher{handler: threePageHandler}

	withProgress, err := Fetch[listPage](context.Background(), d, pagedByQuery{},
		WithProgress(reporter),
		WithTotal(func(any) int { return 3 }))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if reporter.updates != 3 {
		t.Errorf("updates = %d, want one per page (3)", reporter.updates)
	}
	if reporter.finishes != 1 {
		t.Errorf("finishes = %d, want exactly 1", reporter.finishes)
	}
	for i, total := range reporter.totals {
		if total != 3 {
			t.Errorf("update %d total = %d, want 3", i, total)
		}
	}

	// Same sequence without a reporter must yield identical results.
	plain, err := Fetch[listPage](context.Background(), &fakeDispatcher{handler: threePageHandler}, pagedByQuery{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(plain) != len(withProgress) {
		t.Fatalf("result length differs with progress enabled")
	}
	for i := range plain {
		if !reflect.DeepEqual(plain[i], withProgress[i]) {
			t.Errorf("page %d differs with progress enabled: %+v vs %+v", i, withProgress[i], plain[i])
		}
	}
}

func TestFetchContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &fakeDispatcher{handler: threePageHandler}
	_, err := Fetch[listPage](ctx, d, pagedByQuery{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch() error = %v, want context.Canceled", err)
	}
	if d.callCount() != 0 {
		t.Errorf("fetches after cancellation = %d, want 0", d.callCount())
	}
}
