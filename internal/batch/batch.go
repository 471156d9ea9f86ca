// Package batch runs one job per client with a fixed worker limit and
// reports every client's outcome.
package batch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/csg33k/jpk-vat/internal/domain"
)

type Outcome string

const (
	OutcomeOK      Outcome = "OK"
	OutcomeFailed  Outcome = "FAILED"
	OutcomeSkipped Outcome = "SKIPPED"
)

// DefaultWorkers is the concurrency used when Options.Workers is not set.
const DefaultWorkers = 5

type Options struct {
	Workers int
	// StopOnFirstError skips clients that have not started once any job
	// fails. Jobs already running are cancelled through their context.
	StopOnFirstError bool
}

// Job processes one client.
type Job func(ctx context.Context, client domain.ClientProfile) error

type Result struct {
	ClientID string
	NIP      string
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

type Summary struct {
	Results  []Result
	OK       int
	Failed   int
	Skipped  int
	Duration time.Duration
}

// Err joins the errors of the failed clients.
func (s Summary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Outcome == OutcomeFailed {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

// Run calls job for every client and returns the summary in input order.
// A failing client does not stop the others unless StopOnFirstError is set.
func Run(ctx context.Context, clients []domain.ClientProfile, job Job, opts Options, log zerolog.Logger) Summary {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	started := time.Now()
	results := make([]Result, len(clients))
	for i, c := range clients {
		results[i] = Result{ClientID: c.ID, NIP: c.NIP, Outcome: OutcomeSkipped}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	sem := semaphore.NewWeighted(int64(workers))
	var g errgroup.Group

	for i, c := range clients {
		if err := sem.Acquire(runCtx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if runCtx.Err() != nil {
				return nil
			}
			t0 := time.Now()
			err := job(runCtx, c)
			r := &results[i]
			r.Duration = time.Since(t0)
			ev := log.Info()
			if err != nil {
				r.Outcome, r.Err = OutcomeFailed, err
				ev = log.Warn().Err(err)
				if opts.StopOnFirstError {
					cancel()
				}
			} else {
				r.Outcome = OutcomeOK
			}
			ev.Str("client_id", c.ID).Str("outcome", string(r.Outcome)).Dur("duration", r.Duration).Msg("batch item done")
			return nil
		})
	}
	_ = g.Wait()

	sum := Summary{Results: results, Duration: time.Since(started)}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeOK:
			sum.OK++
		case OutcomeFailed:
			sum.Failed++
		default:
			sum.Skipped++
		}
	}
	log.Info().Int("ok", sum.OK).Int("failed", sum.Failed).Int("skipped", sum.Skipped).
		Dur("duration", sum.Duration).Msg("batch finished")
	return sum
}

// PeriodFor returns the period a client files for when the batch closes
// month. Quarterly filers only have a period in the last month of a quarter.
func PeriodFor(c domain.ClientProfile, month domain.PeriodKey) (domain.PeriodKey, bool) {
	if c.Filing != domain.FilingQuarterly {
		return month, true
	}
	if month.IsQuarterly() {
		return month, true
	}
	if month.Month%3 != 0 {
		return domain.PeriodKey{}, false
	}
	return domain.Quarterly(month.Year, month.Month/3), true
}
