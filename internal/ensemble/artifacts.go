package ensemble

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Fixed artifact filenames, matching what the training pipeline exports.
const (
	ScalerFile         = "scaler.json"
	ScaledFeaturesFile = "scaled_features.json"
	MetaModelFile      = "meta_model.json"
)

// baseModels maps base regressor names to their artifact files. The meta
// model refers to base outputs by these names.
var baseModels = map[string]string{
	"random_forest": "random_forest.json",
	"xgboost":       "xgboost.json",
	"linear_reg":    "linear_reg.json",
}

// ArtifactError reports a model artifact that is missing or could not be
// decoded. File is the artifact filename, for operator diagnosis.
type ArtifactError struct {
	File string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("load model artifact %s: %v", e.File, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// Scaler is a pre-fit standardization transform over named columns.
type Scaler struct {
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`

	params map[string]scalerParam
}

type scalerParam struct {
	mean, scale float64
}

func (s *Scaler) init() error {
	if len(s.Mean) != len(s.Features) || len(s.Scale) != len(s.Features) {
		return fmt.Errorf("scaler has %d features but %d means and %d scales",
			len(s.Features), len(s.Mean), len(s.Scale))
	}
	s.params = make(map[string]scalerParam, len(s.Features))
	for i, name := range s.Features {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		s.params[name] = scalerParam{mean: s.Mean[i], scale: scale}
	}
	return nil
}

// Apply standardizes the named columns in place. Columns the scaler
// expects but the row lacks are filled with zero before scaling.
func (s *Scaler) Apply(features map[string]float64, cols []string) error {
	for _, name := range cols {
		p, ok := s.params[name]
		if !ok {
			return fmt.Errorf("scaler has no parameters for column %q", name)
		}
		v, ok := features[name]
		if !ok {
			v = 0
		}
		features[name] = (v - p.mean) / p.scale
	}
	return nil
}

// loadJSON decodes one artifact file, wrapping any failure so the
// offending filename is reported.
func loadJSON(dir, file string, v any) error {
	data, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		return &ArtifactError{File: file, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &ArtifactError{File: file, Err: err}
	}
	return nil
}
