package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, "x1,x2,label\n1.5,2,1\n,bad,0\n3,4,1\n")

	ds, err := LoadCSV(path, "label")
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}
	if ds.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ds.Len())
	}

	if got := ds.Features[0]["x1"]; got != 1.5 {
		t.Errorf("x1[0] = %v, want 1.5", got)
	}
	// empty and non-numeric cells become NaN for the imputer
	if !math.IsNaN(ds.Features[1]["x1"]) {
		t.Errorf("empty cell = %v, want NaN", ds.Features[1]["x1"])
	}
	if !math.IsNaN(ds.Features[1]["x2"]) {
		t.Errorf("non-numeric cell = %v, want NaN", ds.Features[1]["x2"])
	}

	wantTarget := []float64{1, 0, 1}
	for i, want := range wantTarget {
		if ds.Target[i] != want {
			t.Errorf("target[%d] = %v, want %v", i, ds.Target[i], want)
		}
	}
	// target column must not leak into features
	if _, ok := ds.Features[0]["label"]; ok {
		t.Error("target column present in features")
	}
}

func TestLoadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  string
	}{
		{"missing target column", "x1,x2\n1,2\n", "label"},
		{"non-numeric target", "x1,label\n1,yes\n", "label"},
		{"header only", "x1,label\n", "label"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, tt.content)
			if _, err := LoadCSV(path, tt.target); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	if _, err := LoadCSV("/nonexistent/data.csv", "label"); err == nil {
		t.Error("missing file should fail")
	}
}
