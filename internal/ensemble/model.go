package ensemble

import (
	"errors"
	"fmt"
)

// Model is a loaded regressor. Each model selects only the feature
// columns it was trained on; a missing column is an inference fault.
type Model interface {
	Predict(features map[string]float64) (float64, error)
}

// treeNode is one node of a flat-array decision tree. Feature == -1
// marks a leaf holding Value; interior nodes route x[Feature] <= Threshold
// to Left, otherwise Right.
type treeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

type tree []treeNode

func (t tree) eval(x []float64) (float64, error) {
	i := 0
	for steps := 0; steps <= len(t); steps++ {
		if i < 0 || i >= len(t) {
			return 0, fmt.Errorf("tree node index %d out of range", i)
		}
		n := t[i]
		if n.Feature < 0 {
			return n.Value, nil
		}
		if n.Feature >= len(x) {
			return 0, fmt.Errorf("tree splits on feature %d but row has %d", n.Feature, len(x))
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return 0, errors.New("tree walk did not terminate")
}

// modelSpec is the on-disk shape shared by all regressor artifacts.
type modelSpec struct {
	Kind      string    `json:"kind"`
	Features  []string  `json:"features"`
	Trees     []tree    `json:"trees,omitempty"`
	BaseScore float64   `json:"base_score,omitempty"`
	Coef      []float64 `json:"coef,omitempty"`
	Intercept float64   `json:"intercept,omitempty"`
}

// vector selects the model's feature columns, in training order.
func vector(features map[string]float64, cols []string) ([]float64, error) {
	x := make([]float64, len(cols))
	for i, name := range cols {
		v, ok := features[name]
		if !ok {
			return nil, fmt.Errorf("missing feature %q", name)
		}
		x[i] = v
	}
	return x, nil
}

// forestModel averages the outputs of its trees.
type forestModel struct {
	features []string
	trees    []tree
}

func (m *forestModel) Predict(features map[string]float64) (float64, error) {
	x, err := vector(features, m.features)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, t := range m.trees {
		v, err := t.eval(x)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum / float64(len(m.trees)), nil
}

// boostedModel sums tree outputs on top of a base score.
type boostedModel struct {
	features  []string
	trees     []tree
	baseScore float64
}

func (m *boostedModel) Predict(features map[string]float64) (float64, error) {
	x, err := vector(features, m.features)
	if err != nil {
		return 0, err
	}
	out := m.baseScore
	for _, t := range m.trees {
		v, err := t.eval(x)
		if err != nil {
			return 0, err
		}
		out += v
	}
	return out, nil
}

// linearModel is an intercept plus a dot product. It also serves as the
// meta-regressor, whose features are the base model names.
type linearModel struct {
	features  []string
	coef      []float64
	intercept float64
}

func (m *linearModel) Predict(features map[string]float64) (float64, error) {
	x, err := vector(features, m.features)
	if err != nil {
		return 0, err
	}
	out := m.intercept
	for i, v := range x {
		out += m.coef[i] * v
	}
	return out, nil
}

// loadModel decodes one regressor artifact and validates its shape.
func loadModel(dir, file string) (Model, error) {
	var spec modelSpec
	if err := loadJSON(dir, file, &spec); err != nil {
		return nil, err
	}

	bad := func(err error) (Model, error) {
		return nil, &ArtifactError{File: file, Err: err}
	}

	if len(spec.Features) == 0 {
		return bad(errors.New("no feature names"))
	}

	switch spec.Kind {
	case "forest":
		if len(spec.Trees) == 0 {
			return bad(errors.New("forest has no trees"))
		}
		return &forestModel{features: spec.Features, trees: spec.Trees}, nil
	case "boosted":
		if len(spec.Trees) == 0 {
			return bad(errors.New("boosted model has no trees"))
		}
		return &boostedModel{features: spec.Features, trees: spec.Trees, baseScore: spec.BaseScore}, nil
	case "linear":
		if len(spec.Coef) != len(spec.Features) {
			return bad(fmt.Errorf("%d coefficients for %d features", len(spec.Coef), len(spec.Features)))
		}
		return &linearModel{features: spec.Features, coef: spec.Coef, intercept: spec.Intercept}, nil
	default:
		return bad(fmt.Errorf("unknown model kind %q", spec.Kind))
	}
}
