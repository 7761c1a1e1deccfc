package conv

import (
	"reflect"
	"testing"
)

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{"float64", 1.5, 1.5, true},
		{"float32", float32(2), 2, true},
		{"int", 3, 3, true},
		{"int64", int64(4), 4, true},
		{"bool true", true, 1, true},
		{"bool false", false, 0, true},
		{"string", "1.5", 0, false},
		{"nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat64(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ToFloat64(%v) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMapToFloat64(t *testing.T) {
	got := MapToFloat64(map[string]any{"a": 1, "b": 2.5, "skip": "x"})
	want := map[string]float64{"a": 1, "b": 2.5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MapToFloat64() = %v, want %v", got, want)
	}
	if MapToFloat64(nil) != nil {
		t.Error("MapToFloat64(nil) should be nil")
	}
}

func TestConfigGetters(t *testing.T) {
	// YAML/JSON parsing yields a mix of int and float64
	cfg := map[string]any{"epochs": float64(30), "k": 2, "name": "demo"}

	if got := ConfigGetInt(cfg, "epochs", 0); got != 30 {
		t.Errorf("ConfigGetInt(epochs) = %v, want 30", got)
	}
	if got := ConfigGetInt(cfg, "missing", 7); got != 7 {
		t.Errorf("ConfigGetInt(missing) = %v, want default 7", got)
	}
	if got := ConfigGetFloat64(cfg, "k", 0); got != 2 {
		t.Errorf("ConfigGetFloat64(k) = %v, want 2", got)
	}
	if got := ConfigGet(cfg, "name", "fallback"); got != "demo" {
		t.Errorf("ConfigGet(name) = %v, want demo", got)
	}
	if got := ConfigGet[string](nil, "name", "fallback"); got != "fallback" {
		t.Errorf("ConfigGet on nil map = %v, want fallback", got)
	}
}

func TestSliceAnyToString(t *testing.T) {
	got := SliceAnyToString([]any{"a", 2, 3.0, []int{1}})
	want := []string{"a", "2", "3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SliceAnyToString() = %v, want %v", got, want)
	}
	if SliceAnyToString("not a slice") != nil {
		t.Error("non-slice input should be nil")
	}
}
