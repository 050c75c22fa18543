package elastic

// SearchRequest is the request payload for _search calls.
type SearchRequest struct {
	Query map[string]any `json:"query,omitempty"`
	Size  int            `json:"size"`
	Aggs  map[string]any `json:"aggs,omitempty"`
}

// SearchResponse is the subset of the _search response the analyzer reads.
type SearchResponse struct {
	Took         int            `json:"took"`
	TimedOut     bool           `json:"timed_out"`
	Hits         Hits           `json:"hits"`
	Aggregations map[string]Agg `json:"aggregations,omitempty"`
}

// Hits contains the matched documents.
type Hits struct {
	Total HitsTotal `json:"total"`
	Hits  []Hit     `json:"hits"`
}

// HitsTotal contains the total number of matched documents.
type HitsTotal struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation"`
}

// Hit is a single matched document.
type Hit struct {
	Index  string         `json:"_index"`
	ID     string         `json:"_id"`
	Source map[string]any `json:"_source"`
}

// Agg holds the buckets of a single named aggregation.
type Agg struct {
	Buckets []TermsBucket `json:"buckets"`
}

// TermsBucket is one bucket of a terms aggregation.
type TermsBucket struct {
	Key      any   `json:"key"`
	DocCount int64 `json:"doc_count"`
}
