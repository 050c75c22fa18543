// Unit tests for the analysis pipeline using fake samplers, and for
// index discovery.
package analyze

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poulsbopete/o11ybot/pkg/elastic"
	"github.com/poulsbopete/o11ybot/pkg/heuristics"
)

// fakeSampler returns canned inventories per pattern.
type fakeSampler struct {
	fields map[string][]FieldDescriptor
	errs   map[string]error
}

func (f *fakeSampler) SampleSchema(ctx context.Context, pattern string) ([]FieldDescriptor, error) {
	if err := f.errs[pattern]; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Pattern: pattern, Err: err}
	}
	return f.fields[pattern], nil
}

// fakeCounter returns canned document counts per pattern.
type fakeCounter struct {
	counts map[string]int64
	errs   map[string]error
}

func (f *fakeCounter) Count(ctx context.Context, pattern string) (int64, error) {
	if err := f.errs[pattern]; err != nil {
		return 0, err
	}
	return f.counts[pattern], nil
}

// fakeTerms returns canned buckets for every pattern.
type fakeTerms struct {
	buckets []elastic.TermsBucket
	err     error
}

func (f *fakeTerms) Terms(ctx context.Context, pattern, field string, size int) ([]elastic.TermsBucket, error) {
	return f.buckets, f.err
}

func newTestAnalyzer(t *testing.T, sampler Sampler) *Analyzer {
	t.Helper()
	reg, err := heuristics.LoadEmbedded()
	require.NoError(t, err)
	return &Analyzer{
		Sampler:    sampler,
		Classifier: NewClassifier(reg),
	}
}

func apmInventory() []FieldDescriptor {
	return []FieldDescriptor{
		{Path: "@timestamp", Type: "date", NullRatio: 0},
		{Path: "client.geo.location", Type: "geo_point", NullRatio: 0.3},
		{Path: "service.name", Type: "keyword", NullRatio: 0},
		{Path: "transaction.amount.value", Type: "double", NullRatio: 0.1},
		{Path: "transaction.duration.us", Type: "long", NullRatio: 0},
	}
}

func TestAnalyzeIndex_FullRun(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t, &fakeSampler{fields: map[string][]FieldDescriptor{
		"traces-*": apmInventory(),
	}})

	report, err := a.AnalyzeIndex(context.Background(), "traces-*")
	require.NoError(t, err)

	assert.Equal(t, "traces-*", report.Index)
	assert.Equal(t, 5, report.FieldCount)
	require.Len(t, report.Candidates, 3)
	require.Len(t, report.Examples, 3)

	// The monetary example references the discovered field literally.
	var monetary *QueryExample
	for i := range report.Examples {
		if report.Examples[i].Category == CategoryMonetary {
			monetary = &report.Examples[i]
		}
	}
	require.NotNil(t, monetary)
	assert.Contains(t, monetary.ESQL, "transaction.amount.value")
}

func TestAnalyzeIndex_EmptyInventory(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t, &fakeSampler{})

	report, err := a.AnalyzeIndex(context.Background(), "traces-*")
	require.NoError(t, err)
	assert.Zero(t, report.FieldCount)
	assert.Empty(t, report.Candidates)
	assert.Empty(t, report.Examples)
}

func TestAnalyzeIndex_ReferencedFieldsSubsetOfInventory(t *testing.T) {
	t.Parallel()
	inventory := apmInventory()
	a := newTestAnalyzer(t, &fakeSampler{fields: map[string][]FieldDescriptor{
		"traces-*": inventory,
	}})

	report, err := a.AnalyzeIndex(context.Background(), "traces-*")
	require.NoError(t, err)

	known := make(map[string]bool)
	for _, fd := range inventory {
		known[fd.Path] = true
	}
	for _, example := range report.Examples {
		for _, path := range example.ReferencedFields {
			assert.True(t, known[path], "example %q references unknown field %q", example.Title, path)
		}
	}
}

func TestAnalyzeIndex_BreakdownFailureIsNonFatal(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t, &fakeSampler{fields: map[string][]FieldDescriptor{
		"traces-*": apmInventory(),
	}})
	a.Breakdown = &fakeTerms{err: errors.New("agg unsupported")}

	report, err := a.AnalyzeIndex(context.Background(), "traces-*")
	require.NoError(t, err)
	assert.Empty(t, report.TransactionTypes)
	assert.NotEmpty(t, report.Examples)
}

func TestAnalyzeIndex_BreakdownAttached(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t, &fakeSampler{fields: map[string][]FieldDescriptor{
		"traces-*": apmInventory(),
	}})
	a.Breakdown = &fakeTerms{buckets: []elastic.TermsBucket{{Key: "request", DocCount: 9}}}

	report, err := a.AnalyzeIndex(context.Background(), "traces-*")
	require.NoError(t, err)
	require.Len(t, report.TransactionTypes, 1)
	assert.Equal(t, "request", report.TransactionTypes[0].Key)
}

func TestRun_IsolatesFailingIndex(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t, &fakeSampler{
		fields: map[string][]FieldDescriptor{"traces-*": apmInventory()},
		errs:   map[string]error{"logs-*": &TransportError{Pattern: "logs-*", Err: errors.New("boom")}},
	})

	report := a.Run(context.Background(), []string{"traces-*", "logs-*"})

	require.Len(t, report.Indices, 1)
	assert.Equal(t, "traces-*", report.Indices[0].Index)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "logs-*", report.Errors[0].Index)
	assert.False(t, report.Partial)
}

func TestRun_DeterministicOrdering(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t, &fakeSampler{fields: map[string][]FieldDescriptor{
		"traces-*":  apmInventory(),
		"apm-*":     apmInventory(),
		"metrics-*": apmInventory(),
	}})

	report := a.Run(context.Background(), []string{"traces-*", "metrics-*", "apm-*"})
	require.Len(t, report.Indices, 3)
	assert.Equal(t, "apm-*", report.Indices[0].Index)
	assert.Equal(t, "metrics-*", report.Indices[1].Index)
	assert.Equal(t, "traces-*", report.Indices[2].Index)
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()
	sampler := &fakeSampler{fields: map[string][]FieldDescriptor{
		"traces-*": apmInventory(),
		"apm-*":    apmInventory(),
	}}
	a := newTestAnalyzer(t, sampler)

	first := a.Run(context.Background(), []string{"traces-*", "apm-*"})
	second := a.Run(context.Background(), []string{"traces-*", "apm-*"})
	assert.Equal(t, first, second, "identical snapshots yield identical reports")
}

func TestRun_TimeoutMarksPartial(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t, &fakeSampler{fields: map[string][]FieldDescriptor{
		"traces-*": apmInventory(),
	}})
	a.RunTimeout = time.Nanosecond

	report := a.Run(context.Background(), []string{"traces-*"})
	assert.True(t, report.Partial)
}

func TestDiscoverIndices(t *testing.T) {
	t.Parallel()
	counter := &fakeCounter{
		counts: map[string]int64{"traces-*": 10, "logs-*": 0, "metrics-*": 3},
		errs:   map[string]error{"apm-*": errors.New("unreachable")},
	}

	found := DiscoverIndices(context.Background(), counter, []string{"apm-*", "traces-*", "logs-*", "metrics-*"}, nil)
	assert.Equal(t, []string{"traces-*", "metrics-*"}, found,
		"empty and unreachable patterns are skipped, input order kept")
}
