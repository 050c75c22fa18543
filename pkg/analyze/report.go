package analyze

import (
	"encoding/json"
	"sort"

	"github.com/poulsbopete/o11ybot/pkg/elastic"
)

// IndexError pairs an index pattern with the failure that stopped its
// analysis. Per-index failures never abort the rest of the run.
type IndexError struct {
	Index string
	Err   error
}

func (e IndexError) Error() string { return e.Index + ": " + e.Err.Error() }

// MarshalJSON renders the wrapped error as its message.
func (e IndexError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index string `json:"index"`
		Error string `json:"error"`
	}{Index: e.Index, Error: e.Err.Error()})
}

// IndexReport holds everything discovered for one index pattern.
type IndexReport struct {
	Index            string                `json:"index"`
	FieldCount       int                   `json:"field_count"`
	TransactionTypes []elastic.TermsBucket `json:"transaction_types,omitempty"`
	Candidates       []MetricCandidate     `json:"candidates,omitempty"`
	Examples         []QueryExample        `json:"examples,omitempty"`
}

// Report is the assembled output of one analysis run.
type Report struct {
	Indices []IndexReport `json:"indices"`
	Errors  []IndexError  `json:"errors,omitempty"`
	// Partial is set when a run-level timeout cut the analysis short.
	Partial bool `json:"partial,omitempty"`
}

// AssembleReport orders per-index results into the final report: indices
// sorted by name, examples within an index grouped by category in fixed
// category order while preserving each group's rank order. Ordering is
// stable regardless of the completion order of per-index pipelines.
func AssembleReport(indices []IndexReport, errs []IndexError, partial bool) Report {
	sorted := append([]IndexReport(nil), indices...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	for i := range sorted {
		groupExamples(sorted[i].Examples)
	}

	sortedErrs := append([]IndexError(nil), errs...)
	sort.Slice(sortedErrs, func(i, j int) bool { return sortedErrs[i].Index < sortedErrs[j].Index })

	return Report{Indices: sorted, Errors: sortedErrs, Partial: partial}
}

// groupExamples stable-sorts examples into category order, keeping the
// selector's rank order inside each category.
func groupExamples(examples []QueryExample) {
	sort.SliceStable(examples, func(i, j int) bool {
		return categoryOrder[examples[i].Category] < categoryOrder[examples[j].Category]
	})
}
