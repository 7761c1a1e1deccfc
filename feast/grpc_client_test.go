package feast

import (
	"testing"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"
)

func TestToSDKValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"string", "beijing"},
		{"int", 42},
		{"int64", int64(42)},
		{"float64", 0.5},
		{"float32", float32(0.5)},
		{"bool", true},
		{"bytes", []byte("raw")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if toSDKValue(tt.in) == nil {
				t.Errorf("toSDKValue(%v) = nil", tt.in)
			}
		})
	}
}

func TestFromSDKValue(t *testing.T) {
	tests := []struct {
		name string
		in   *feasttypes.Value
		want any
	}{
		{"string", feastsdk.StrVal("beijing"), "beijing"},
		{"int64 to float64", feastsdk.Int64Val(42), float64(42)},
		{"float to float64", feastsdk.FloatVal(0.5), float64(float32(0.5))},
		{"double", feastsdk.DoubleVal(0.25), 0.25},
		{"bool true to 1", feastsdk.BoolVal(true), float64(1)},
		{"bool false to 0", feastsdk.BoolVal(false), float64(0)},
		{"bytes to string", feastsdk.BytesVal([]byte("raw")), "raw"},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fromSDKValue(tt.in); got != tt.want {
				t.Errorf("fromSDKValue() = %v (%T), want %v", got, got, tt.want)
			}
		})
	}
}

func TestRoundtripNumeric(t *testing.T) {
	// entity values written as int come back as float64 features
	v := toSDKValue(7)
	if got := fromSDKValue(v); got != float64(7) {
		t.Errorf("roundtrip int = %v, want 7.0", got)
	}
}
