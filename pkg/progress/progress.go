// Package progress defines the progress-reporting collaborator used during
// pagination. Reporting is purely observational: enabling or disabling it
// never changes pagination results.
package progress

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Reporter receives position updates while a paginated sequence runs.
// Update is called exactly once per completed page; Finish exactly once
// when the sequence terminates without error. Implementations must be safe
// for concurrent use when shared across sequences.
type Reporter interface {
	// Update reports the number of pages fetched so far. total is the total
	// page count when known, or <= 0 when the API does not reveal it.
	Update(fetched, total int)

	// Finish marks the sequence as complete.
	Finish(fetched int)
}

// Nop is a Reporter that discards all updates. It is the default.
type Nop struct{}

// Update implements Reporter.
func (Nop) Update(int, int) {}

// Finish implements Reporter.
func (Nop) Finish(int) {}

// Log reports progress through a zerolog logger at debug level, with a
// final info record on completion.
type Log struct {
	Logger zerolog.Logger
}

// Update implements Reporter.
func (l Log) Update(fetched, total int) {
	evt := l.Logger.Debug().Int("fetched", fetched)
	if total > 0 {
		evt = evt.Int("total", total).
			Float64("progress_pct", float64(fetched)/float64(total)*100)
	}
	evt.Msg("Page fetched")
}

// Finish implements Reporter.
func (l Log) Finish(fetched int) {
	l.Logger.Info().Int("pages", fetched).Msg("Pagination complete")
}

// Prometheus metrics for pagination progress.
var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rest_client_pages_fetched_total",
		Help: "Total pages fetched across all paginated sequences",
	})

	sequencesCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rest_client_sequences_completed_total",
		Help: "Total paginated sequences that ran to completion",
	})
)

// Metrics reports progress through Prometheus counters shared by all
// sequences.
type Metrics struct{}

// Update implements Reporter.
func (Metrics) Update(int, int) {
	pagesFetchedTotal.Inc()
}

// Finish implements Reporter.
func (Metrics) Finish(int) {
	sequencesCompletedTotal.Inc()
}

// Multi fans updates out to several reporters.
type Multi []Reporter

// Update implements Reporter.
func (m Multi) Update(fetched, total int) {
	for _, r := range m {
		r.Update(fetched, total)
	}
}

// Finish implements Reporter.
func (m Multi) Finish(fetched int) {
	for _, r := range m {
		r.Finish(fetched)
	}
}
