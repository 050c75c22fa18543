// Tests for report rendering
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poulsbopete/o11ybot/pkg/analyze"
	"github.com/poulsbopete/o11ybot/pkg/elastic"
)

func sampleReport() analyze.Report {
	return analyze.AssembleReport([]analyze.IndexReport{
		{
			Index:      "traces-*",
			FieldCount: 40,
			TransactionTypes: []elastic.TermsBucket{
				{Key: "request", DocCount: 12345},
				{Key: "page-load", DocCount: 678},
			},
			Candidates: []analyze.MetricCandidate{
				{
					Field: analyze.ClassifiedField{
						Descriptor: analyze.FieldDescriptor{Path: "transaction.amount.value", Type: "double", NullRatio: 0.1},
						Category:   analyze.CategoryMonetary,
						Confidence: 1.0,
					},
					RankScore: 1.0,
				},
			},
			Examples: []analyze.QueryExample{
				{
					Title:            "Monetary amount over time (transaction.amount.value)",
					Category:         analyze.CategoryMonetary,
					ESQL:             "FROM traces-*\n| WHERE transaction.amount.value IS NOT NULL",
					ReferencedFields: []string{"transaction.amount.value"},
				},
			},
		},
		{Index: "logs-*", FieldCount: 0},
	}, []analyze.IndexError{
		{Index: "metrics-*", Err: errors.New("mapping request failed")},
	}, false)
}

func TestRenderReport(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	require.NoError(t, renderReport(&out, sampleReport()))
	text := out.String()

	assert.Contains(t, text, "Index: logs-*")
	assert.Contains(t, text, "Index: traces-*")
	assert.Contains(t, text, "Transaction types")
	assert.Contains(t, text, "12,345", "doc counts use thousands separators")
	assert.Contains(t, text, "Signal candidates")
	assert.Contains(t, text, "transaction.amount.value")
	assert.Contains(t, text, "Monetary amount over time")
	assert.Contains(t, text, "FROM traces-*")
	assert.Contains(t, text, "No signal candidates found")
	assert.Contains(t, text, "metrics-*: mapping request failed")
	assert.NotContains(t, text, "results are partial")
}

func TestRenderReport_PartialWarning(t *testing.T) {
	t.Parallel()
	report := sampleReport()
	report.Partial = true

	var out bytes.Buffer
	require.NoError(t, renderReport(&out, report))
	assert.Contains(t, out.String(), "results are partial")
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	require.NoError(t, renderJSON(&out, sampleReport()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	indices, ok := decoded["indices"].([]any)
	require.True(t, ok)
	assert.Len(t, indices, 2)
	assert.Contains(t, out.String(), `"error": "mapping request failed"`)
}
