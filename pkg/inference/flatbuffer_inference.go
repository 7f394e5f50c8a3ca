/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: flatbuffer_inference.go
Description: Cross-sample FlatBuffer structure inference. Every sample's root table is
observed field by field and the observations are merged per vtable index into a
grammar listing the shapes seen, how often each field is present, and whether it is
required.
*/

package inference

import (
	"fmt"
	"sort"

	"github.com/kleascm/flatcrawler/pkg/flatbuffer"
)

// FieldStats holds information about one vtable index across samples
type FieldStats struct {
	Index   int            `json:"index"`
	Present int            `json:"present"`
	Shapes  map[string]int `json:"shapes"`
}

// Required reports whether the field was present in every decoded sample.
func (s *FieldStats) Required(total int) bool { return total > 0 && s.Present == total }

// Dominant returns the most frequently observed shape, ties broken by name.
func (s *FieldStats) Dominant() string {
	best, bestCount := "", -1
	for shape, n := range s.Shapes {
		if n > bestCount || (n == bestCount && shape < best) {
			best, bestCount = shape, n
		}
	}
	return best
}

// FlatBufferInferenceEngine infers a root table layout from FlatBuffer samples
type FlatBufferInferenceEngine struct{}

// NewFlatBufferInferenceEngine creates a new FlatBuffer inference engine
func NewFlatBufferInferenceEngine() *FlatBufferInferenceEngine {
	return &FlatBufferInferenceEngine{}
}

// InferStructure decodes each sample's root and merges the per-field observations.
// Samples that fail to decode are counted and skipped.
func (e *FlatBufferInferenceEngine) InferStructure(samples [][]byte) (*Grammar, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}
	c := e.NewCollector()
	for _, sample := range samples {
		c.Add(sample)
	}
	return c.Grammar()
}

// Collector merges samples one at a time. Nothing of a sample is kept after Add
// returns, so callers may reuse one buffer for every sample.
type Collector struct {
	engine       *FlatBufferInferenceEngine
	stats        map[int]*FieldStats
	fingerprints map[uint64]int
	samples      int
	decoded      int
	failed       int
	maxFields    int
}

// NewCollector starts an empty merge
func (e *FlatBufferInferenceEngine) NewCollector() *Collector {
	return &Collector{
		engine:       e,
		stats:        make(map[int]*FieldStats),
		fingerprints: make(map[uint64]int),
	}
}

// Add observes one sample and reports whether it decoded
func (c *Collector) Add(sample []byte) bool {
	c.samples++
	if !flatbuffer.IsSizeValid(sample) {
		c.failed++
		return false
	}
	root, err := flatbuffer.ReadRoot(sample)
	if err != nil {
		c.failed++
		return false
	}
	c.decoded++
	if root.FieldCount() > c.maxFields {
		c.maxFields = root.FieldCount()
	}

	fields := AnalyzeFields(root)
	c.fingerprints[Fingerprint(fields)]++
	for _, f := range fields {
		s, ok := c.stats[f.Index]
		if !ok {
			s = &FieldStats{Index: f.Index, Shapes: make(map[string]int)}
			c.stats[f.Index] = s
		}
		s.Present++
		s.Shapes[f.Label()]++
	}
	return true
}

// Grammar builds the grammar from everything added so far
func (c *Collector) Grammar() (*Grammar, error) {
	if c.samples == 0 {
		return nil, fmt.Errorf("no samples provided")
	}
	if c.decoded == 0 {
		return nil, fmt.Errorf("none of %d samples decoded as a FlatBuffer", c.samples)
	}

	grammar := &Grammar{
		Format:   c.engine.Format(),
		RootRule: "root",
		Rules:    make(map[string]interface{}),
		Metadata: map[string]interface{}{
			"samples":      c.samples,
			"decoded":      c.decoded,
			"failed":       c.failed,
			"field_count":  c.maxFields,
			"fingerprints": len(c.fingerprints),
		},
	}
	grammar.Rules["root"] = synthesizeRule(c.stats, c.decoded)
	return grammar, nil
}

// Format returns the format handled by this engine
func (e *FlatBufferInferenceEngine) Format() string {
	return "flatbuffer"
}

// synthesizeRule lists the observed fields in index order
func synthesizeRule(stats map[int]*FieldStats, total int) map[string]interface{} {
	indices := make([]int, 0, len(stats))
	for i := range stats {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	fields := make([]map[string]interface{}, 0, len(indices))
	for _, i := range indices {
		s := stats[i]
		fields = append(fields, map[string]interface{}{
			"index":    s.Index,
			"type":     s.Dominant(),
			"shapes":   s.Shapes,
			"present":  s.Present,
			"required": s.Required(total),
		})
	}
	return map[string]interface{}{
		"type":   "table",
		"fields": fields,
	}
}
