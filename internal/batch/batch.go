// Package batch draws one random integer per input item, concurrently,
// keeping input order and isolating failures per item.
package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/randomizedcoder/trng/internal/randomorg"
	"github.com/randomizedcoder/trng/internal/validate"
)

// IntegerFetcher is satisfied by *randomorg.Client.
type IntegerFetcher interface {
	FetchInteger(ctx context.Context, min, max int64, timeout time.Duration) (int64, error)
}

// Item is one unit of work. Min and Max are validated by the runner, so
// they may hold any value the host extracted.
type Item struct {
	Min any `json:"min"`
	Max any `json:"max"`
}

// Result is a successful draw.
type Result struct {
	Value  int64  `json:"value"`
	Min    int64  `json:"min"`
	Max    int64  `json:"max"`
	Source string `json:"source"`
}

// Outcome is the result of the item at Index. Exactly one of Result and
// Err is set.
type Outcome struct {
	Index  int
	Result *Result
	Err    *ItemError
}

// Outcomes is a batch result in input order.
type Outcomes []Outcome

// FirstError returns the error of the lowest-indexed failed item, or nil.
func (o Outcomes) FirstError() error {
	for _, out := range o {
		if out.Err != nil {
			return out.Err
		}
	}
	return nil
}

// Runner validates items and fetches their integers.
type Runner struct {
	fetcher IntegerFetcher
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout sets the per-item fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// NewRunner creates a Runner.
func NewRunner(fetcher IntegerFetcher, logger *zap.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		fetcher: fetcher,
		timeout: randomorg.DefaultTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Draw validates item and fetches one integer for it. Errors are the
// unwrapped validation, transport or response format errors.
func (r *Runner) Draw(ctx context.Context, item Item) (*Result, error) {
	rng, err := validate.NewRange(item.Min, item.Max)
	if err != nil {
		return nil, err
	}

	value, err := r.fetcher.FetchInteger(ctx, rng.Min, rng.Max, r.timeout)
	if err != nil {
		return nil, err
	}

	return &Result{
		Value:  value,
		Min:    rng.Min,
		Max:    rng.Max,
		Source: randomorg.Source,
	}, nil
}

// Run draws every item concurrently. Outcomes are in input order and a
// failed item never affects its siblings. Cancelling ctx does not abort
// in-flight fetches; each ends on its own timeout.
func (r *Runner) Run(ctx context.Context, items []Item) Outcomes {
	outcomes := make(Outcomes, len(items))
	if len(items) == 0 {
		return outcomes
	}

	ctx = context.WithoutCancel(ctx)
	logger := r.logger.With(
		zap.String("batch_id", uuid.NewString()),
		zap.Int("items", len(items)),
	)

	var g errgroup.Group
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			outcomes[i] = r.runOne(ctx, logger, i, item)
			return nil
		})
	}
	_ = g.Wait()

	logger.Debug("batch finished")
	return outcomes
}

func (r *Runner) runOne(ctx context.Context, logger *zap.Logger, index int, item Item) Outcome {
	res, err := r.Draw(ctx, item)
	if err != nil {
		ierr := Wrap(index, err)
		logger.Warn("item failed",
			zap.Int("index", index),
			zap.String("category", string(ierr.Category)),
			zap.Error(err),
		)
		return Outcome{Index: index, Err: ierr}
	}
	return Outcome{Index: index, Result: res}
}
