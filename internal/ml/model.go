// Package ml loads a persisted linear scoring model. The model is loaded
// and validated at startup when MODEL_PATH is set; the rule-based scorer
// remains the serving contract, so model output is exposed separately and
// never substituted for rule scores without a contract version bump.
package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrNoModelPath is returned when loading is requested without a path.
var ErrNoModelPath = errors.New("model path is not configured")

// Model is a linear scorer over named wallet features.
type Model struct {
	Version string             `json:"version"`
	Bias    float64            `json:"bias"`
	Weights map[string]float64 `json:"weights"`
}

// Load reads and validates a model file. A missing or malformed model is a
// hard configuration error, never a silent fallback to placeholder scores.
func Load(path string) (*Model, error) {
	if path == "" {
		return nil, ErrNoModelPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model file %s: %w", path, err)
	}
	if m.Version == "" {
		return nil, fmt.Errorf("model file %s has no version", path)
	}
	if len(m.Weights) == 0 {
		return nil, fmt.Errorf("model file %s has no weights", path)
	}
	return &m, nil
}

// Score applies the model to a feature vector, clamped to [0,100].
// Features absent from the model's weights are ignored.
func (m *Model) Score(features map[string]float64) float64 {
	score := m.Bias
	for name, weight := range m.Weights {
		score += weight * features[name]
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
