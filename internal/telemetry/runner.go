package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/pable/go-data-pipelines/internal/metrics"
	"github.com/pable/go-data-pipelines/internal/model"
	"github.com/pable/go-data-pipelines/internal/pubg"
)

// Source fetches match resources and their telemetry. *pubg.Client satisfies it.
type Source interface {
	Match(ctx context.Context, matchID string) (*model.MatchInfo, error)
	Telemetry(ctx context.Context, url string) ([]model.TelemetryEvent, error)
}

// Ledger remembers which matches already had their extracts written.
type Ledger interface {
	MatchScraped(matchID string) (bool, error)
	RecordScrapedMatch(x model.Extract) error
}

// ErrWrite wraps failures persisting a match's extracts.
var ErrWrite = errors.New("telemetry: write extracts")

// FailureReason classifies why a match produced no extracts.
type FailureReason string

const (
	ReasonTelemetryUnavailable FailureReason = "telemetry-unavailable"
	ReasonParse                FailureReason = "parse-error"
	ReasonNetwork              FailureReason = "network-error"
	ReasonWrite                FailureReason = "write-error"
	ReasonUnknown              FailureReason = "error"
)

// Classify maps an error from Process to its FailureReason.
func Classify(err error) FailureReason {
	switch {
	case errors.Is(err, pubg.ErrNotFound), errors.Is(err, pubg.ErrTelemetryUnavailable):
		return ReasonTelemetryUnavailable
	case errors.Is(err, pubg.ErrDecode):
		return ReasonParse
	case errors.Is(err, pubg.ErrNetwork),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return ReasonNetwork
	case errors.Is(err, ErrWrite):
		return ReasonWrite
	default:
		return ReasonUnknown
	}
}

// Result is the outcome of processing one match.
type Result struct {
	MatchID string
	// Extract is set on success, unless the match was skipped via the ledger.
	Extract *model.Extract
	Skipped bool
	Reason  FailureReason
	Err     error
}

// OK reports whether the match counts as done.
func (r Result) OK() bool { return r.Err == nil }

// Summary tallies a batch run.
type Summary struct {
	// Total starts at the batch size and drops by one per failed match.
	Total   int
	Done    int
	Skipped int
	Failed  []Result
}

// Runner scrapes a batch of matches one at a time.
type Runner struct {
	Source Source
	Sink   Writer
	// Ledger is optional; when set, recorded matches are skipped unless Rescrape.
	Ledger   Ledger
	Rescrape bool
	Logger   *zap.Logger
	// Out receives the human-readable progress lines.
	Out io.Writer
}

// Run processes every match in ids. A failed match is reported, removed from
// the expected total and never stops the batch.
func (r *Runner) Run(ctx context.Context, ids []string) Summary {
	logger := r.logger()
	sum := Summary{Total: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			logger.Warn("scrape interrupted", zap.Int("remaining", sum.Total-sum.Done))
			break
		}
		res := r.Process(ctx, id)
		switch {
		case !res.OK():
			sum.Total--
			sum.Failed = append(sum.Failed, res)
			fmt.Fprintf(r.out(), "Error with match %s\n", id)
			logger.Warn("match failed",
				zap.String("match_id", id),
				zap.String("reason", string(res.Reason)),
				zap.Error(res.Err))
			metrics.ObserveScrapedMatch(string(res.Reason))
		case res.Skipped:
			sum.Done++
			sum.Skipped++
			metrics.ObserveScrapedMatch("skipped")
		default:
			sum.Done++
			metrics.ObserveScrapedMatch("ok")
		}
		fmt.Fprintf(r.out(), "%d/%d matches done\n", sum.Done, sum.Total)
	}
	return sum
}

// Process fetches, flattens and writes one match.
func (r *Runner) Process(ctx context.Context, matchID string) Result {
	res := Result{MatchID: matchID}
	fail := func(err error) Result {
		res.Err = err
		res.Reason = Classify(err)
		return res
	}

	if r.Ledger != nil && !r.Rescrape {
		seen, err := r.Ledger.MatchScraped(matchID)
		if err != nil {
			return fail(fmt.Errorf("%w: check ledger: %w", ErrWrite, err))
		}
		if seen {
			res.Skipped = true
			return res
		}
	}

	info, err := r.Source.Match(ctx, matchID)
	if err != nil {
		return fail(fmt.Errorf("match %s: %w", matchID, err))
	}
	events, err := r.Source.Telemetry(ctx, info.TelemetryURL)
	if err != nil {
		return fail(fmt.Errorf("telemetry %s: %w", matchID, err))
	}

	x := Flatten(*info, events)
	if err := r.Sink.Write(x); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrWrite, err))
	}
	if r.Ledger != nil {
		if err := r.Ledger.RecordScrapedMatch(x); err != nil {
			return fail(fmt.Errorf("%w: record ledger: %w", ErrWrite, err))
		}
	}
	res.Extract = &x
	return res
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return io.Discard
	}
	return r.Out
}
