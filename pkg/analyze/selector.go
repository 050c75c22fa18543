package analyze

import "sort"

// MaxPerCategory caps the candidates surfaced per category so a report is
// not flooded with near-duplicate subfields of the same signal.
const MaxPerCategory = 3

// SelectMetrics filters and ranks classified fields into metric
// candidates. Unclassified and below-threshold fields are dropped, the
// rest are ordered by descending confidence with ties broken by ascending
// field path, and each category keeps at most MaxPerCategory entries.
// Never errors; empty input yields empty output.
func SelectMetrics(fields []ClassifiedField) []MetricCandidate {
	candidates := make([]MetricCandidate, 0, len(fields))
	for _, cf := range fields {
		if cf.Category == CategoryUnclassified || cf.Confidence < ConfidenceThreshold {
			continue
		}
		candidates = append(candidates, MetricCandidate{Field: cf, RankScore: cf.Confidence})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].RankScore != candidates[j].RankScore {
			return candidates[i].RankScore > candidates[j].RankScore
		}
		return candidates[i].Field.Descriptor.Path < candidates[j].Field.Descriptor.Path
	})

	perCategory := make(map[Category]int)
	out := candidates[:0]
	for _, cand := range candidates {
		cat := cand.Field.Category
		if perCategory[cat] >= MaxPerCategory {
			continue
		}
		perCategory[cat]++
		out = append(out, cand)
	}
	return out
}
