package pagination

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/veloapi/velo/pkg/request"
)

// BatchConfig holds worker-pool configuration for parallel page fetching.
type BatchConfig struct {
	// MaxConcurrency is the maximum number of parallel page requests.
	MaxConcurrency int

	// Timeout per page fetch.
	Timeout time.Duration

	// PageParam is the query parameter carrying the page number.
	PageParam string

	// Logger for fetch progress. Nil uses the global zerolog logger;
	// tests inject their own sink here.
	Logger *zerolog.Logger
}

// DefaultBatchConfig returns a safe default configuration.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 10,
		Timeout:        15 * time.Second,
		PageParam:      "page",
	}
}

type batchResult[T any] struct {
	pageNumber int
	page       *T
	err        error
}

// FetchAllPages fetches every page of a page-numbered endpoint through a
// worker pool. It fetches page 1 sequentially, extracts the total page
// count from it via totalPages, then distributes pages 2..N across
// workers. The result maps page number to decoded payload.
//
// Unlike Fetch, ordering across pages is not guaranteed; use it only for
// endpoints whose pages are independent. On a worker error the pages
// fetched so far are returned alongside the error.
func FetchAllPages[T any](ctx context.Context, d Dispatcher, req request.Request, cfg BatchConfig, totalPages func(first *T) int) (map[int]*T, error) {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.PageParam == "" {
		cfg.PageParam = "page"
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	start := time.Now()
	endpoint := req.Endpoint()

	first := new(T)
	if err := d.DoPage(ctx, req, QueryPage{cfg.PageParam: "1"}, first); err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	total := totalPages(first)
	logger.Info().
		Str("endpoint", endpoint).
		Int("total_pages", total).
		Msg("Starting parallel page fetch")

	results := map[int]*T{1: first}
	if total <= 1 {
		logger.Info().
			Str("endpoint", endpoint).
			Int("pages", 1).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return results, nil
	}

	pageQueue := make(chan int, total)
	pageResults := make(chan batchResult[T], total)

	go func() {
		defer close(pageQueue)
		for page := 2; page <= total; page++ {
			select {
			case pageQueue <- page:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < cfg.MaxConcurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			batchWorker(ctx, d, req, cfg, logger, workerID, pageQueue, pageResults)
		}(i)
	}

	go func() {
		wg.Wait()
		close(pageResults)
	}()

	var firstErr error
	fetched := 1
	for result := range pageResults {
		if result.err != nil {
			logger.Warn().
				Err(result.err).
				Int("page", result.pageNumber).
				Msg("Page fetch failed")
			if firstErr == nil {
				firstErr = result.err
			}
			continue
		}

		results[result.pageNumber] = result.page
		fetched++

		if fetched%50 == 0 {
			logger.Info().
				Int("fetched", fetched).
				Int("total", total).
				Float64("progress_pct", float64(fetched)/float64(total)*100).
				Msg("Fetch progress")
		}
	}

	if firstErr != nil {
		return results, fmt.Errorf("worker error (partial data: %d/%d pages): %w", fetched, total, firstErr)
	}

	logger.Info().
		Str("endpoint", endpoint).
		Int("pages", fetched).
		Int("total", total).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return results, nil
}

func batchWorker[T any](ctx context.Context, d Dispatcher, req request.Request, cfg BatchConfig, logger zerolog.Logger, workerID int, pageQueue <-chan int, results chan<- batchResult[T]) {
	pagesProcessed := 0

	for pageNum := range pageQueue {
		select {
		case <-ctx.Done():
			logger.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		pageCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		out := new(T)
		err := d.DoPage(pageCtx, req, QueryPage{cfg.PageParam: strconv.Itoa(pageNum)}, out)
		cancel()

		if err != nil {
			select {
			case results <- batchResult[T]{pageNumber: pageNum, err: err}:
			case <-ctx.Done():
			}
			return
		}

		select {
		case results <- batchResult[T]{pageNumber: pageNum, page: out}:
		case <-ctx.Done():
			return
		}

		pagesProcessed++
	}

	if pagesProcessed > 0 {
		logger.Debug().
			Int("worker_id", workerID).
			Int("pages_processed", pagesProcessed).
			Msg("Worker completed")
	}
}
