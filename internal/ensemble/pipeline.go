package ensemble

import (
	"fmt"
	"sync"

	"github.com/dxblabs/metroprice/internal/models"
)

// Pipeline is the stacked ensemble: a standardization stage, three base
// regressors invoked on the scaled row, and a linear meta-regressor over
// their named outputs.
//
// Artifacts load once per process on first use and are read-only for the
// process lifetime, so the pipeline is safe for concurrent requests.
// There is no reload path; a failed load is returned on every call.
type Pipeline struct {
	dir string

	once    sync.Once
	loadErr error

	scaler     *Scaler
	scaledCols []string
	base       map[string]Model
	meta       Model
}

// Open prepares a pipeline over the artifact directory. Nothing is read
// until the first Predict or Ready call.
func Open(dir string) *Pipeline {
	return &Pipeline{dir: dir}
}

// Ready forces the artifact load and reports its result.
func (p *Pipeline) Ready() error {
	p.once.Do(p.load)
	return p.loadErr
}

func (p *Pipeline) load() {
	p.loadErr = func() error {
		var scaler Scaler
		if err := loadJSON(p.dir, ScalerFile, &scaler); err != nil {
			return err
		}
		if err := scaler.init(); err != nil {
			return &ArtifactError{File: ScalerFile, Err: err}
		}

		var scaledCols []string
		if err := loadJSON(p.dir, ScaledFeaturesFile, &scaledCols); err != nil {
			return err
		}

		base := make(map[string]Model, len(baseModels))
		for name, file := range baseModels {
			m, err := loadModel(p.dir, file)
			if err != nil {
				return err
			}
			base[name] = m
		}

		meta, err := loadModel(p.dir, MetaModelFile)
		if err != nil {
			return err
		}
		// The meta model consumes base outputs by name, in whatever
		// column order it declares. Unknown names can never resolve.
		if lm, ok := meta.(*linearModel); ok {
			for _, name := range lm.features {
				if _, ok := base[name]; !ok {
					return &ArtifactError{
						File: MetaModelFile,
						Err:  fmt.Errorf("meta feature %q is not a base model", name),
					}
				}
			}
		}

		p.scaler = &scaler
		p.scaledCols = scaledCols
		p.base = base
		p.meta = meta
		return nil
	}()
}

// Predict runs the full stacked inference for one feature row and
// returns the projected price as a raw float.
func (p *Pipeline) Predict(row models.FeatureRow) (float64, error) {
	p.once.Do(p.load)
	if p.loadErr != nil {
		return 0, p.loadErr
	}

	features := row.Features()
	if len(p.scaledCols) > 0 {
		if err := p.scaler.Apply(features, p.scaledCols); err != nil {
			return 0, fmt.Errorf("scale features: %w", err)
		}
	}

	basePreds := make(map[string]float64, len(p.base))
	for name, m := range p.base {
		pred, err := m.Predict(features)
		if err != nil {
			return 0, fmt.Errorf("base model %s: %w", name, err)
		}
		basePreds[name] = pred
	}

	price, err := p.meta.Predict(basePreds)
	if err != nil {
		return 0, fmt.Errorf("meta model: %w", err)
	}
	return price, nil
}

// PredictFormatted runs Predict and renders the result as a currency
// string.
func (p *Pipeline) PredictFormatted(row models.FeatureRow) (string, error) {
	v, err := p.Predict(row)
	if err != nil {
		return "", err
	}
	return FormatAED(v), nil
}
