package analyze

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/poulsbopete/o11ybot/pkg/elastic"
)

// Sampling bounds. High-cardinality fields keep at most MaxSampleValues
// example values regardless of how many documents are sampled.
const (
	SampleSize      = 100
	MaxSampleValues = 5
)

// Sampler produces the field inventory for an index pattern. The cluster
// implementation talks to the search service; tests inject fakes.
type Sampler interface {
	SampleSchema(ctx context.Context, pattern string) ([]FieldDescriptor, error)
}

// ClusterSampler samples mappings and documents from a live deployment.
type ClusterSampler struct {
	client *elastic.Client
	logger *zap.Logger
}

// NewClusterSampler creates a sampler backed by the given client.
func NewClusterSampler(client *elastic.Client, logger *zap.Logger) *ClusterSampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClusterSampler{client: client, logger: logger}
}

// SampleSchema returns one descriptor per field declared in the pattern's
// mappings, enriched with sample values and null ratios from a bounded
// document sample. A pattern matching zero documents yields an empty
// inventory and no error.
func (s *ClusterSampler) SampleSchema(ctx context.Context, pattern string) ([]FieldDescriptor, error) {
	mapping, err := s.client.Mapping(ctx, pattern)
	if err != nil {
		return nil, &TransportError{Pattern: pattern, Err: err}
	}

	types, err := flattenMapping(pattern, mapping)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Sample(ctx, pattern, SampleSize)
	if err != nil {
		return nil, &TransportError{Pattern: pattern, Err: err}
	}
	if resp.Hits.Total.Value == 0 || len(resp.Hits.Hits) == 0 {
		s.logger.Debug("no documents in pattern", zap.String("index_pattern", pattern))
		return nil, nil
	}

	seen := make(map[string]int, len(types))
	samples := make(map[string][]any, len(types))
	for _, hit := range resp.Hits.Hits {
		flat := make(map[string]any)
		flattenDoc("", hit.Source, types, flat)
		for path, value := range flat {
			seen[path]++
			if len(samples[path]) < MaxSampleValues {
				samples[path] = append(samples[path], value)
			}
		}
	}

	docCount := float64(len(resp.Hits.Hits))
	fields := make([]FieldDescriptor, 0, len(types))
	for path, fieldType := range types {
		fields = append(fields, FieldDescriptor{
			Path:         path,
			Type:         fieldType,
			SampleValues: samples[path],
			NullRatio:    1 - float64(seen[path])/docCount,
		})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Path < fields[j].Path })

	s.logger.Debug("schema sampled",
		zap.String("index_pattern", pattern),
		zap.Int("fields", len(fields)),
		zap.Int("documents", len(resp.Hits.Hits)),
	)
	return fields, nil
}

// flattenMapping extracts path -> declared type from a decoded _mapping
// response. The response is keyed by concrete index name; a pattern can
// cover several indices, so paths are merged with the lexically first
// index's declaration winning on conflict.
func flattenMapping(pattern string, mapping map[string]any) (map[string]string, error) {
	indices := make([]string, 0, len(mapping))
	for name := range mapping {
		indices = append(indices, name)
	}
	sort.Strings(indices)

	types := make(map[string]string)
	for _, name := range indices {
		idx, ok := mapping[name].(map[string]any)
		if !ok {
			return nil, &SchemaError{Pattern: pattern, Reason: "index entry " + name + " is not an object"}
		}
		m, ok := idx["mappings"]
		if !ok {
			return nil, &SchemaError{Pattern: pattern, Reason: "index " + name + " has no mappings key"}
		}
		mObj, ok := m.(map[string]any)
		if !ok {
			return nil, &SchemaError{Pattern: pattern, Reason: "mappings for " + name + " is not an object"}
		}

		// An index with no documents may have an empty mappings object.
		props, ok := mObj["properties"].(map[string]any)
		if !ok {
			continue
		}
		flattenProperties("", props, types)
	}
	return types, nil
}

// flattenProperties walks a mapping properties tree, recording leaf types
// under dot-separated paths. Object fields without an explicit type are
// recorded as "object" only when they declare no children.
func flattenProperties(prefix string, props map[string]any, out map[string]string) {
	for name, raw := range props {
		field, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		if children, ok := field["properties"].(map[string]any); ok {
			flattenProperties(path, children, out)
			continue
		}

		fieldType, _ := field["type"].(string)
		if fieldType == "" {
			fieldType = "object"
		}
		if _, exists := out[path]; !exists {
			out[path] = fieldType
		}
	}
}

// flattenDoc walks a document source, recording leaf values under
// dot-separated paths. A path declared as a leaf in the mapping is kept
// whole even when its value is an object (geo_point documents carry
// {lat, lon} maps). Arrays are kept whole as a single sample value.
func flattenDoc(prefix string, source map[string]any, leaves map[string]string, out map[string]any) {
	for name, value := range source {
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		if value == nil {
			continue
		}
		if _, isLeaf := leaves[path]; isLeaf {
			out[path] = value
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			flattenDoc(path, nested, leaves, out)
			continue
		}
		out[path] = value
	}
}
