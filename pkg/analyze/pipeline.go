package analyze

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/poulsbopete/o11ybot/pkg/elastic"
)

// DefaultRunTimeout bounds a whole analysis run when Analyzer.RunTimeout
// is zero. A run that hits the timeout returns whatever completed, with
// the report marked partial.
const DefaultRunTimeout = 2 * time.Minute

// txTypeField and txTypeTop control the transaction-type breakdown shown
// next to each index's query examples.
const (
	txTypeField = "transaction.type"
	txTypeTop   = 10
)

// DefaultPatterns are the index patterns probed when the caller does not
// name any explicitly.
var DefaultPatterns = []string{"apm-*", "traces-*", "logs-*", "metrics-*"}

// DocCounter counts documents matching a pattern. *elastic.Client
// satisfies it.
type DocCounter interface {
	Count(ctx context.Context, pattern string) (int64, error)
}

// TermsAggregator runs a terms aggregation on one field of a pattern.
// *elastic.Client satisfies it.
type TermsAggregator interface {
	Terms(ctx context.Context, pattern, field string, size int) ([]elastic.TermsBucket, error)
}

// DiscoverIndices probes the given patterns and returns those with at
// least one document, preserving input order. Unreachable patterns are
// skipped, mirroring a best-effort discovery pass.
func DiscoverIndices(ctx context.Context, counter DocCounter, patterns []string, logger *zap.Logger) []string {
	if logger == nil {
		logger = zap.NewNop()
	}
	var found []string
	for _, pattern := range patterns {
		n, err := counter.Count(ctx, pattern)
		if err != nil {
			logger.Debug("pattern probe failed", zap.String("index_pattern", pattern), zap.Error(err))
			continue
		}
		if n > 0 {
			found = append(found, pattern)
		}
	}
	return found
}

// Analyzer runs the full pipeline over one or more index patterns.
type Analyzer struct {
	Sampler    Sampler
	Classifier *Classifier
	// Breakdown is optional; when set, each index report carries a
	// transaction-type breakdown.
	Breakdown TermsAggregator
	Logger    *zap.Logger
	// RunTimeout bounds the whole run. Zero means DefaultRunTimeout.
	RunTimeout time.Duration
}

// AnalyzeIndex runs sampling, classification, selection, and synthesis
// for one pattern. Synthesis failures are logged and drop the single
// candidate rather than failing the index.
func (a *Analyzer) AnalyzeIndex(ctx context.Context, pattern string) (IndexReport, error) {
	logger := a.logger()

	fields, err := a.Sampler.SampleSchema(ctx, pattern)
	if err != nil {
		return IndexReport{}, err
	}

	report := IndexReport{Index: pattern, FieldCount: len(fields)}
	if len(fields) == 0 {
		logger.Info("no fields sampled", zap.String("index_pattern", pattern))
		return report, nil
	}

	classified := a.Classifier.ClassifyAll(fields)
	report.Candidates = SelectMetrics(classified)

	synth := NewSynthesizer(pattern, fields)
	for _, cand := range report.Candidates {
		example, synthErr := synth.Synthesize(cand)
		if synthErr != nil {
			logger.Error("dropping candidate",
				zap.String("index_pattern", pattern),
				zap.String("field", cand.Field.Descriptor.Path),
				zap.Error(synthErr),
			)
			continue
		}
		report.Examples = append(report.Examples, example)
	}

	if a.Breakdown != nil {
		buckets, aggErr := a.Breakdown.Terms(ctx, pattern, txTypeField, txTypeTop)
		if aggErr != nil {
			// The breakdown is decorative; its failure never fails the index.
			logger.Warn("transaction type breakdown failed",
				zap.String("index_pattern", pattern), zap.Error(aggErr))
		} else {
			report.TransactionTypes = buckets
		}
	}

	return report, nil
}

// Run analyzes all patterns and assembles the report. Per-index
// pipelines share no state and run concurrently; the assembler re-sorts
// by index name so output is deterministic regardless of completion
// order. A run-level timeout marks the report partial instead of
// silently truncating it.
func (a *Analyzer) Run(ctx context.Context, patterns []string) Report {
	timeout := a.RunTimeout
	if timeout == 0 {
		timeout = DefaultRunTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		indices []IndexReport
		errs    []IndexError
		wg      sync.WaitGroup
	)
	for _, pattern := range patterns {
		wg.Go(func() {
			report, err := a.AnalyzeIndex(ctx, pattern)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, IndexError{Index: pattern, Err: err})
				return
			}
			indices = append(indices, report)
		})
	}
	wg.Wait()

	partial := false
	if ctx.Err() != nil {
		partial = true
	}
	for _, ie := range errs {
		if errors.Is(ie.Err, context.DeadlineExceeded) {
			partial = true
		}
	}

	return AssembleReport(indices, errs, partial)
}

func (a *Analyzer) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}
