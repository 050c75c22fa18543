package analyze

import (
	"fmt"
	"sort"
	"strings"
)

// timestampField is the standard event time field in APM indices. Time
// bucketing is only emitted when the sampled inventory actually carries
// it, so generated queries never reference fields the index lacks.
const timestampField = "@timestamp"

// geohashPrecision controls the grid size of spatial bucketing.
const geohashPrecision = 4

// Synthesizer renders ESQL examples for one index, bound to the field
// inventory of that index's sampling pass.
type Synthesizer struct {
	index  string
	known  map[string]bool
	byTime bool
}

// NewSynthesizer creates a synthesizer for an index whose inventory is
// the given descriptors.
func NewSynthesizer(index string, inventory []FieldDescriptor) *Synthesizer {
	known := make(map[string]bool, len(inventory))
	for _, fd := range inventory {
		known[fd.Path] = true
	}
	return &Synthesizer{
		index:  index,
		known:  known,
		byTime: known[timestampField],
	}
}

// Synthesize produces one query example for a candidate. The only error
// is a SynthesisError for an unclassified candidate, which the selector
// should have filtered out.
func (s *Synthesizer) Synthesize(cand MetricCandidate) (QueryExample, error) {
	fd := cand.Field.Descriptor
	field := quoteField(fd.Path)
	alias := aliasFor(fd.Path)

	var title, stats, order string
	switch cand.Field.Category {
	case CategoryMonetary:
		title = fmt.Sprintf("Monetary amount over time (%s)", fd.Path)
		stats = fmt.Sprintf("total_%s = SUM(%s), avg_%s = AVG(%s), count = COUNT()", alias, field, alias, field)
		order = "bucket"
	case CategoryTiming:
		title = fmt.Sprintf("95th percentile of %s over time", fd.Path)
		stats = fmt.Sprintf("p95_%s = PERCENTILE(%s, 95), avg_%s = AVG(%s), count = COUNT()", alias, field, alias, field)
		order = "bucket"
	case CategoryGeo:
		title = fmt.Sprintf("Geographic distribution of %s", fd.Path)
		stats = "count = COUNT()"
		order = "count DESC"
	default:
		return QueryExample{}, &SynthesisError{Path: fd.Path, Category: cand.Field.Category}
	}

	referenced := []string{fd.Path}
	var by string
	switch cand.Field.Category {
	case CategoryGeo:
		if strings.EqualFold(fd.Type, "geo_point") {
			by = fmt.Sprintf("grid = ST_GEOHASH(%s, %d)", field, geohashPrecision)
		} else {
			by = fmt.Sprintf("bucket = ROUND(%s, 1)", field)
		}
	default:
		if s.byTime {
			by = fmt.Sprintf("bucket = BUCKET(%s, 1 hour)", timestampField)
			referenced = append(referenced, timestampField)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "FROM %s\n", s.index)
	fmt.Fprintf(&b, "| WHERE %s IS NOT NULL\n", field)
	if by != "" {
		fmt.Fprintf(&b, "| STATS %s BY %s\n", stats, by)
		fmt.Fprintf(&b, "| SORT %s", order)
	} else {
		fmt.Fprintf(&b, "| STATS %s", stats)
	}

	sort.Strings(referenced)
	return QueryExample{
		Title:            title,
		Category:         cand.Field.Category,
		ESQL:             b.String(),
		ReferencedFields: referenced,
	}, nil
}

// quoteField backtick-quotes a field path when it contains characters
// outside the safe identifier set. Embedded backticks are doubled.
func quoteField(path string) string {
	if safeIdentifier(path) {
		return path
	}
	return "`" + strings.ReplaceAll(path, "`", "``") + "`"
}

// safeIdentifier reports whether a dotted path can appear unquoted in
// ESQL: letters, digits, underscores, dots, and a leading @.
func safeIdentifier(path string) bool {
	if path == "" {
		return false
	}
	for i, r := range path {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9', r == '.':
			if i == 0 {
				return false
			}
		case r == '@':
			if i != 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// aliasFor derives a result-column suffix from the last path segment,
// keeping only identifier-safe characters.
func aliasFor(path string) string {
	segments := strings.Split(path, ".")
	last := strings.ToLower(segments[len(segments)-1])
	var b strings.Builder
	for _, r := range last {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "value"
	}
	return b.String()
}
