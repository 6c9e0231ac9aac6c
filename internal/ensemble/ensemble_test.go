package ensemble

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/dxblabs/metroprice/internal/models"
)

// testArtifacts writes a deterministic artifact set:
//
//	scaler:     rooms_en (mean 0, scale 1), year (mean 2020, scale 10)
//	forest:     two leaf-only trees (100, 200) -> 150
//	boosted:    base 50, one split on scaled year at 0.5 (+10 / +20)
//	linear_reg: 1 + 2*latitude + 3*longitude
//	meta:       sum of the three base outputs plus 5
func testArtifacts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		ScalerFile: `{
			"features": ["rooms_en", "year"],
			"mean": [0, 2020],
			"scale": [1, 10]
		}`,
		ScaledFeaturesFile: `["rooms_en", "year"]`,
		"random_forest.json": `{
			"kind": "forest",
			"features": ["rooms_en"],
			"trees": [
				[{"feature": -1, "value": 100}],
				[{"feature": -1, "value": 200}]
			]
		}`,
		"xgboost.json": `{
			"kind": "boosted",
			"features": ["year"],
			"base_score": 50,
			"trees": [
				[
					{"feature": 0, "threshold": 0.5, "left": 1, "right": 2},
					{"feature": -1, "value": 10},
					{"feature": -1, "value": 20}
				]
			]
		}`,
		"linear_reg.json": `{
			"kind": "linear",
			"features": ["latitude", "longitude"],
			"coef": [2, 3],
			"intercept": 1
		}`,
		MetaModelFile: `{
			"kind": "linear",
			"features": ["random_forest", "xgboost", "linear_reg"],
			"coef": [1, 1, 1],
			"intercept": 5
		}`,
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func testRow() models.FeatureRow {
	return models.FeatureRow{
		AreaName:       "Union",
		Rooms:          1,
		Latitude:       25.2,
		Longitude:      55.3,
		MetroLatitude:  25.3,
		MetroLongitude: 55.4,
		Year:           2025,
	}
}

func TestPipeline_Predict(t *testing.T) {
	p := Open(testArtifacts(t))

	got, err := p.Predict(testRow())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	// forest 150; boosted: year scaled to 0.5 -> left leaf -> 60;
	// linear: 1 + 2*25.2 + 3*55.3 = 217.3; meta: sum + 5 = 432.3
	want := 432.3
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Predict = %v, want %v", got, want)
	}
}

func TestPipeline_PredictFormatted(t *testing.T) {
	p := Open(testArtifacts(t))

	got, err := p.PredictFormatted(testRow())
	if err != nil {
		t.Fatalf("PredictFormatted: %v", err)
	}
	if got != "432.30 AED" {
		t.Errorf("PredictFormatted = %q", got)
	}
}

func TestPipeline_MissingArtifact(t *testing.T) {
	for _, file := range []string{
		ScalerFile, ScaledFeaturesFile, "random_forest.json",
		"xgboost.json", "linear_reg.json", MetaModelFile,
	} {
		t.Run(file, func(t *testing.T) {
			dir := testArtifacts(t)
			if err := os.Remove(filepath.Join(dir, file)); err != nil {
				t.Fatal(err)
			}

			_, err := Open(dir).Predict(testRow())
			var artErr *ArtifactError
			if !errors.As(err, &artErr) {
				t.Fatalf("expected ArtifactError, got %v", err)
			}
			if artErr.File != file {
				t.Errorf("error names %q, want %q", artErr.File, file)
			}
		})
	}
}

func TestPipeline_CorruptArtifact(t *testing.T) {
	dir := testArtifacts(t)
	if err := os.WriteFile(filepath.Join(dir, "xgboost.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(dir).Predict(testRow())
	var artErr *ArtifactError
	if !errors.As(err, &artErr) {
		t.Fatalf("expected ArtifactError, got %v", err)
	}
	if artErr.File != "xgboost.json" {
		t.Errorf("error names %q, want xgboost.json", artErr.File)
	}
}

func TestPipeline_LoadErrorIsSticky(t *testing.T) {
	dir := t.TempDir() // no artifacts at all
	p := Open(dir)

	first := p.Ready()
	if first == nil {
		t.Fatal("expected load error")
	}

	// Writing artifacts afterwards must not help: there is no reload path.
	if err := os.WriteFile(filepath.Join(dir, ScalerFile), []byte(`{"features":[],"mean":[],"scale":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if again := p.Ready(); again != first {
		t.Errorf("expected the cached load error, got %v", again)
	}
}

func TestLoadModel_UnknownKind(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "weird.json"), []byte(`{"kind": "svm", "features": ["x"]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := loadModel(dir, "weird.json")
	var artErr *ArtifactError
	if !errors.As(err, &artErr) {
		t.Fatalf("expected ArtifactError, got %v", err)
	}
}

func TestScaler_ZeroFillsMissingColumns(t *testing.T) {
	s := Scaler{
		Features: []string{"a", "b"},
		Mean:     []float64{10, 4},
		Scale:    []float64{2, 2},
	}
	if err := s.init(); err != nil {
		t.Fatal(err)
	}

	features := map[string]float64{"a": 14}
	if err := s.Apply(features, []string{"a", "b"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if features["a"] != 2 {
		t.Errorf("a = %v, want 2", features["a"])
	}
	// b was absent: filled with 0, then standardized
	if features["b"] != -2 {
		t.Errorf("b = %v, want -2", features["b"])
	}
}

func TestScaler_UnknownColumn(t *testing.T) {
	s := Scaler{Features: []string{"a"}, Mean: []float64{0}, Scale: []float64{1}}
	if err := s.init(); err != nil {
		t.Fatal(err)
	}
	if err := s.Apply(map[string]float64{}, []string{"zzz"}); err == nil {
		t.Error("expected error for column the scaler was not fit on")
	}
}

func TestTreeEval(t *testing.T) {
	tr := tree{
		{Feature: 0, Threshold: 0.5, Left: 1, Right: 2},
		{Feature: -1, Value: 100},
		{Feature: -1, Value: 200},
	}

	tests := []struct {
		x    float64
		want float64
	}{
		{0.4, 100},
		{0.5, 100}, // boundary routes left
		{0.6, 200},
	}
	for _, tt := range tests {
		got, err := tr.eval([]float64{tt.x})
		if err != nil {
			t.Fatalf("eval(%v): %v", tt.x, err)
		}
		if got != tt.want {
			t.Errorf("eval(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestTreeEval_Malformed(t *testing.T) {
	// Cycle: node routes to itself
	tr := tree{{Feature: 0, Threshold: 0.5, Left: 0, Right: 0}}
	if _, err := tr.eval([]float64{0}); err == nil {
		t.Error("expected error for non-terminating tree")
	}

	// Out-of-range child
	tr = tree{{Feature: 0, Threshold: 0.5, Left: 5, Right: 5}}
	if _, err := tr.eval([]float64{0}); err == nil {
		t.Error("expected error for out-of-range node index")
	}
}

func TestFormatAED(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1234567.891, "1,234,567.89 AED"},
		{0, "0.00 AED"},
		{999.5, "999.50 AED"},
		{1000, "1,000.00 AED"},
	}

	for _, tt := range tests {
		if got := FormatAED(tt.in); got != tt.want {
			t.Errorf("FormatAED(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
