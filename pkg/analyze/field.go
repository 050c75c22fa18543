// Package analyze implements the field-discovery and query-synthesis
// pipeline: sample an index schema, classify fields into signal
// categories, select the strongest candidates, and emit example ESQL.
package analyze

// FieldDescriptor describes one field observed in an index: its mapping
// path, declared type, a bounded set of example values, and how often it
// was absent from sampled documents. Immutable once sampled.
type FieldDescriptor struct {
	Path         string  `json:"path"`
	Type         string  `json:"type"`
	SampleValues []any   `json:"sample_values,omitempty"`
	NullRatio    float64 `json:"null_ratio"`
}

// Category is the semantic signal category assigned to a field.
type Category string

const (
	CategoryMonetary     Category = "monetary_amount"
	CategoryTiming       Category = "performance_timing"
	CategoryGeo          Category = "geo_location"
	CategoryUnclassified Category = "unclassified"
)

// categoryOrder fixes the presentation order of categories in a report.
var categoryOrder = map[Category]int{
	CategoryMonetary:     0,
	CategoryTiming:       1,
	CategoryGeo:          2,
	CategoryUnclassified: 3,
}

// Title returns a human-readable category name.
func (c Category) Title() string {
	switch c {
	case CategoryMonetary:
		return "Monetary amount"
	case CategoryTiming:
		return "Performance timing"
	case CategoryGeo:
		return "Geo location"
	default:
		return "Unclassified"
	}
}

// ClassifiedField pairs a descriptor with its category and the confidence
// of that assignment.
type ClassifiedField struct {
	Descriptor FieldDescriptor `json:"descriptor"`
	Category   Category        `json:"category"`
	Confidence float64         `json:"confidence"`
}

// MetricCandidate is a classified field the selector considers worth
// surfacing, with the score that determines report order.
type MetricCandidate struct {
	Field     ClassifiedField `json:"field"`
	RankScore float64         `json:"rank_score"`
}

// QueryExample is one synthesized ESQL snippet. ReferencedFields is kept
// sorted and only ever contains paths present in the sampled inventory.
type QueryExample struct {
	Title            string   `json:"title"`
	Category         Category `json:"category"`
	ESQL             string   `json:"esql"`
	ReferencedFields []string `json:"referenced_fields"`
}
