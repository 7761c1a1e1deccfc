package split

import (
	"reflect"
	"testing"

	"github.com/rushteam/tunekit/core"
)

func checkFolds(t *testing.T, folds []core.Fold, n int) {
	t.Helper()
	seen := make(map[int]int)
	for f, fold := range folds {
		inTest := make(map[int]bool)
		for _, i := range fold.Test {
			seen[i]++
			inTest[i] = true
		}
		if len(fold.Train)+len(fold.Test) != n {
			t.Errorf("fold %d: train(%d)+test(%d) != %d", f, len(fold.Train), len(fold.Test), n)
		}
		for _, i := range fold.Train {
			if inTest[i] {
				t.Errorf("fold %d: index %d in both train and test", f, i)
			}
		}
	}
	for i := 0; i < n; i++ {
		if seen[i] != 1 {
			t.Errorf("index %d appears in %d test folds, want 1", i, seen[i])
		}
	}
}

func TestKFold_Split(t *testing.T) {
	y := make([]float64, 10)
	folds, err := NewKFold(3, false, 0).Split(y)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(folds) != 3 {
		t.Fatalf("got %d folds, want 3", len(folds))
	}

	// first n%k folds get one extra sample
	wantSizes := []int{4, 3, 3}
	for f, fold := range folds {
		if len(fold.Test) != wantSizes[f] {
			t.Errorf("fold %d test size = %d, want %d", f, len(fold.Test), wantSizes[f])
		}
	}
	checkFolds(t, folds, 10)
}

func TestKFold_Deterministic(t *testing.T) {
	y := make([]float64, 20)
	a, err := NewKFold(4, true, 42).Split(y)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	b, err := NewKFold(4, true, 42).Split(y)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different folds")
	}
}

func TestStratifiedKFold_Split(t *testing.T) {
	// 12 samples, 2 classes, 8:4
	y := []float64{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1}
	folds, err := NewStratifiedKFold(4, true, 1).Split(y)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	checkFolds(t, folds, len(y))

	// each fold keeps the class ratio: 2 of class 0, 1 of class 1
	for f, fold := range folds {
		var zeros, ones int
		for _, i := range fold.Test {
			if y[i] == 0 {
				zeros++
			} else {
				ones++
			}
		}
		if zeros != 2 || ones != 1 {
			t.Errorf("fold %d: class counts %d/%d, want 2/1", f, zeros, ones)
		}
	}
}

func TestSplit_Errors(t *testing.T) {
	tests := []struct {
		name     string
		splitter core.Splitter
		y        []float64
	}{
		{"too few folds", NewKFold(1, false, 0), make([]float64, 10)},
		{"more folds than samples", NewKFold(5, false, 0), make([]float64, 3)},
		{"class smaller than folds", NewStratifiedKFold(3, false, 0), []float64{0, 0, 0, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.splitter.Split(tt.y); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
