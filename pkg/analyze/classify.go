package analyze

import (
	"strings"

	"github.com/poulsbopete/o11ybot/pkg/heuristics"
)

// Classification thresholds. A field is only assigned a category when its
// confidence reaches ConfidenceThreshold; fields absent from almost every
// sampled document are unreliable dashboard signals and stay unclassified.
const (
	ConfidenceThreshold = 0.5
	NullRatioCutoff     = 0.95

	exactMatchWeight = 1.0
	substringWeight  = 0.6
)

// latLonSegments are the path segments accepted as one half of a numeric
// coordinate pair when a field is not a geo_point.
var latLonSegments = map[string]bool{
	"lat":       true,
	"latitude":  true,
	"lon":       true,
	"longitude": true,
}

// Classifier assigns semantic categories to field descriptors using the
// keyword and type tables of a heuristics registry.
type Classifier struct {
	reg *heuristics.Registry
}

// NewClassifier creates a classifier over the given rule registry.
func NewClassifier(reg *heuristics.Registry) *Classifier {
	return &Classifier{reg: reg}
}

// Classify maps one descriptor to a classified field. Pure: the result
// depends only on the descriptor and the registry contents.
//
// Confidence is the name-match strength (exact path segment beats
// substring), gated to zero when the declared type is incompatible with
// the category. Sparse fields (null ratio at or above NullRatioCutoff)
// are unclassified regardless of name and type.
func (c *Classifier) Classify(fd FieldDescriptor) ClassifiedField {
	unclassified := ClassifiedField{Descriptor: fd, Category: CategoryUnclassified, Confidence: 0}

	if fd.NullRatio >= NullRatioCutoff {
		return unclassified
	}

	path := strings.ToLower(fd.Path)
	segments := strings.Split(path, ".")

	best := unclassified
	for _, rule := range c.reg.Categories() {
		strength := nameStrength(path, segments, c.reg.KeywordsFor(rule.ID))
		if strength == 0 {
			continue
		}
		if !c.reg.TypeAllowed(rule.ID, fd.Type) {
			continue
		}
		category := Category(rule.ID)
		if category == CategoryGeo && !geoCompatible(fd.Type, segments) {
			continue
		}
		if strength > best.Confidence {
			best = ClassifiedField{Descriptor: fd, Category: category, Confidence: strength}
		}
	}

	if best.Confidence < ConfidenceThreshold {
		return unclassified
	}
	return best
}

// ClassifyAll classifies every descriptor in the inventory.
func (c *Classifier) ClassifyAll(fields []FieldDescriptor) []ClassifiedField {
	out := make([]ClassifiedField, 0, len(fields))
	for _, fd := range fields {
		out = append(out, c.Classify(fd))
	}
	return out
}

// nameStrength scores how strongly a field path matches a keyword set.
// A keyword equal to a whole path segment is an exact match; a keyword
// appearing anywhere else in the path is a substring match.
func nameStrength(path string, segments []string, keywords []string) float64 {
	strength := 0.0
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		for _, seg := range segments {
			if seg == kw {
				return exactMatchWeight
			}
		}
		if strings.Contains(path, kw) {
			strength = substringWeight
		}
	}
	return strength
}

// geoCompatible reports whether a geo-matched field can actually be
// bucketed spatially: either a geo_point, or a numeric field whose path
// names one half of a lat/lon pair.
func geoCompatible(fieldType string, segments []string) bool {
	if strings.EqualFold(fieldType, "geo_point") {
		return true
	}
	for _, seg := range segments {
		if latLonSegments[seg] {
			return true
		}
	}
	return false
}
