package inference

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFitDimensions(t *testing.T) {
	p := &Predictor{featureOrder: []string{"a", "b", "c"}}

	tests := []struct {
		input []float32
		want  []float32
		desc  string
	}{
		{[]float32{1, 2, 3}, []float32{1, 2, 3}, "Exact fit untouched"},
		{[]float32{1, 2, 3, 4, 5}, []float32{1, 2, 3}, "Extras truncated"},
		{[]float32{1}, []float32{1, 0, 0}, "Short vector zero-padded"},
		{nil, []float32{0, 0, 0}, "Nil vector padded to full zeros"},
	}

	for _, tc := range tests {
		got := p.fitDimensions(tc.input)
		if len(got) != len(tc.want) {
			t.Errorf("%s: length %d, want %d", tc.desc, len(got), len(tc.want))
			continue
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Errorf("%s: [%d] = %v, want %v", tc.desc, i, got[i], tc.want[i])
			}
		}
	}
}

func TestPredict_UnavailablePredictor(t *testing.T) {
	var p *Predictor
	if _, err := p.Predict([]float32{1}); !errors.Is(err, ErrClassifierUnavailable) {
		t.Errorf("nil predictor: err = %v, want ErrClassifierUnavailable", err)
	}

	empty := &Predictor{}
	if _, err := empty.Predict([]float32{1}); !errors.Is(err, ErrClassifierUnavailable) {
		t.Errorf("sessionless predictor: err = %v, want ErrClassifierUnavailable", err)
	}
}

func TestNewPredictor_MissingArtifacts(t *testing.T) {
	// 1. Missing directory entirely
	if _, err := NewPredictor("/nonexistent/models"); !errors.Is(err, ErrClassifierUnavailable) {
		t.Errorf("missing dir: err = %v, want ErrClassifierUnavailable", err)
	}

	// 2. Empty feature list is as fatal as a missing one
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "feature_names.txt"), []byte(""), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewPredictor(dir); !errors.Is(err, ErrClassifierUnavailable) {
		t.Errorf("empty feature list: err = %v, want ErrClassifierUnavailable", err)
	}
}
