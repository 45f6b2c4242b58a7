package riskmodel

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
	sharedErrors "github.com/ARYAN-095/GuardianWeb/internal/shared/errors"
)

//go:embed default_model.json
var defaultModel []byte

// Orientation tells whether a model predicts health (higher is better) or
// risk (higher is worse). Risk models are flipped to health on output.
type Orientation string

const (
	OrientationHealth Orientation = "health"
	OrientationRisk   Orientation = "risk"
)

// Model predicts a raw score from a feature vector
type Model interface {
	Predict(v scan.FeatureVector) (float64, error)
	Version() string
}

// modelFile is the on-disk format written by the offline training job
type modelFile struct {
	Kind         string      `json:"kind"`
	Version      string      `json:"version"`
	Orientation  Orientation `json:"orientation"`
	Features     []string    `json:"features"`
	Intercept    float64     `json:"intercept"`
	Coefficients []float64   `json:"coefficients"`
	Trees        []tree      `json:"trees"`
}

// Load reads a model file. An empty path loads the embedded default model.
func Load(path string) (Model, error) {
	data := defaultModel
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sharedErrors.ErrModelUnavailable, err)
		}
	}
	return Parse(data)
}

// Parse decodes and validates a model definition
func Parse(data []byte) (Model, error) {
	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrInvalidModel, err)
	}
	if err := checkFeatures(mf.Features); err != nil {
		return nil, err
	}
	if mf.Orientation == "" {
		mf.Orientation = OrientationHealth
	}
	if mf.Orientation != OrientationHealth && mf.Orientation != OrientationRisk {
		return nil, fmt.Errorf("%w: unknown orientation %q", sharedErrors.ErrInvalidModel, mf.Orientation)
	}

	var m Model
	switch mf.Kind {
	case "linear":
		if len(mf.Coefficients) != len(scan.FeatureNames) {
			return nil, fmt.Errorf("%w: expected %d coefficients, got %d",
				sharedErrors.ErrInvalidModel, len(scan.FeatureNames), len(mf.Coefficients))
		}
		m = &linearModel{version: mf.Version, intercept: mf.Intercept, coefficients: mf.Coefficients}
	case "forest":
		if len(mf.Trees) == 0 {
			return nil, fmt.Errorf("%w: forest has no trees", sharedErrors.ErrInvalidModel)
		}
		for i, t := range mf.Trees {
			if err := t.validate(len(scan.FeatureNames)); err != nil {
				return nil, fmt.Errorf("%w: tree %d: %v", sharedErrors.ErrInvalidModel, i, err)
			}
		}
		m = &forestModel{version: mf.Version, trees: mf.Trees}
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", sharedErrors.ErrInvalidModel, mf.Kind)
	}

	if mf.Orientation == OrientationRisk {
		m = invertedModel{m}
	}
	return m, nil
}

// checkFeatures requires the model to use the exact feature schema and order
func checkFeatures(features []string) error {
	if len(features) != len(scan.FeatureNames) {
		return fmt.Errorf("%w: expected features %v, got %v", sharedErrors.ErrInvalidModel, scan.FeatureNames, features)
	}
	for i, name := range scan.FeatureNames {
		if features[i] != name {
			return fmt.Errorf("%w: feature %d is %q, expected %q", sharedErrors.ErrInvalidModel, i, features[i], name)
		}
	}
	return nil
}

type linearModel struct {
	version      string
	intercept    float64
	coefficients []float64
}

func (m *linearModel) Predict(v scan.FeatureVector) (float64, error) {
	out := m.intercept
	for i, x := range v.Values() {
		out += m.coefficients[i] * x
	}
	return out, nil
}

func (m *linearModel) Version() string {
	return m.version
}

// node is one split or leaf of a regression tree. Leaves have Feature -1.
type node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

func (t tree) validate(features int) error {
	if len(t.Nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Feature < 0 {
			continue
		}
		if n.Feature >= features {
			return fmt.Errorf("node %d uses unknown feature %d", i, n.Feature)
		}
		// children must point forward, which also rules out cycles
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

func (t tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type forestModel struct {
	version string
	trees   []tree
}

func (m *forestModel) Predict(v scan.FeatureVector) (float64, error) {
	x := v.Values()
	var sum float64
	for _, t := range m.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(m.trees)), nil
}

func (m *forestModel) Version() string {
	return m.version
}

type invertedModel struct {
	Model
}

func (m invertedModel) Predict(v scan.FeatureVector) (float64, error) {
	raw, err := m.Model.Predict(v)
	if err != nil {
		return 0, err
	}
	return 100 - raw, nil
}

// Scorer maps feature vectors to integer health scores in [0,100]
type Scorer struct {
	model Model
}

// NewScorer wraps a loaded model
func NewScorer(model Model) (*Scorer, error) {
	if model == nil {
		return nil, sharedErrors.ErrModelUnavailable
	}
	return &Scorer{model: model}, nil
}

// Score runs the model and clamps its output. Any model error is wrapped in
// ErrModelUnavailable and must abort the scan.
func (s *Scorer) Score(v scan.FeatureVector) (int, error) {
	raw, err := s.model.Predict(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", sharedErrors.ErrModelUnavailable, err)
	}
	if math.IsNaN(raw) {
		return 0, fmt.Errorf("%w: model returned NaN", sharedErrors.ErrModelUnavailable)
	}
	return scan.ClampScore(raw), nil
}

// ModelVersion reports the loaded model version
func (s *Scorer) ModelVersion() string {
	return s.model.Version()
}
