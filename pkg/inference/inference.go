/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: inference.go
Description: Entry point for structure inference. Provides the InferenceEngine interface
and the Grammar produced when a corpus of samples is mined for a shared layout.
*/

package inference

// InferenceEngine defines the interface for structure inference engines
type InferenceEngine interface {
	InferStructure(samples [][]byte) (*Grammar, error)
	Format() string
}

// Grammar represents an inferred grammar
type Grammar struct {
	Format   string                 `json:"format"`    // e.g., "flatbuffer"
	RootRule string                 `json:"root_rule"` // Name of the root rule
	Rules    map[string]interface{} `json:"rules"`     // Rule definitions
	Metadata map[string]interface{} `json:"metadata"`  // Extra info
}

// NewEngine returns an appropriate inference engine for the given format
func NewEngine(format string) InferenceEngine {
	switch format {
	case "flatbuffer", "fb":
		return NewFlatBufferInferenceEngine()
	default:
		return nil
	}
}
