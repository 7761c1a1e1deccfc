package dataset

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rushteam/tunekit/feast"
)

// fakeClient serves canned feature vectors and records request sizes.
type fakeClient struct {
	fail       bool
	batchSizes []int
}

func (c *fakeClient) GetOnlineFeatures(_ context.Context, req *feast.GetOnlineFeaturesRequest) (*feast.GetOnlineFeaturesResponse, error) {
	if c.fail {
		return nil, errors.New("unavailable")
	}
	c.batchSizes = append(c.batchSizes, len(req.EntityRows))

	vectors := make([]feast.FeatureVector, len(req.EntityRows))
	for i, row := range req.EntityRows {
		id := row["driver_id"].(int64)
		values := map[string]any{
			"stats:city": "beijing", // non-numeric, skipped
		}
		if id%5 != 0 {
			values["stats:conv_rate"] = float64(id) / 100
		}
		vectors[i] = feast.FeatureVector{Values: values, EntityRow: row}
	}
	return &feast.GetOnlineFeaturesResponse{FeatureVectors: vectors}, nil
}

func (c *fakeClient) Close() error { return nil }

func entityRows(n int) ([]map[string]any, []float64) {
	rows := make([]map[string]any, n)
	target := make([]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = map[string]any{"driver_id": int64(i + 1)}
		target[i] = float64(i % 2)
	}
	return rows, target
}

func TestFeastLoader_Load(t *testing.T) {
	client := &fakeClient{}
	loader := &FeastLoader{
		Client:    client,
		Features:  []string{"stats:conv_rate", "stats:missing"},
		BatchSize: 4,
	}

	rows, target := entityRows(10)
	ds, err := loader.Load(context.Background(), rows, target)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ds.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", ds.Len())
	}

	// batching: 4 + 4 + 2
	wantBatches := []int{4, 4, 2}
	if len(client.batchSizes) != len(wantBatches) {
		t.Fatalf("batches = %v, want %v", client.batchSizes, wantBatches)
	}
	for i, want := range wantBatches {
		if client.batchSizes[i] != want {
			t.Errorf("batch %d size = %d, want %d", i, client.batchSizes[i], want)
		}
	}

	if got := ds.Features[0]["stats:conv_rate"]; got != 0.01 {
		t.Errorf("conv_rate[0] = %v, want 0.01", got)
	}
	// features the store did not return come back as NaN
	if !math.IsNaN(ds.Features[4]["stats:conv_rate"]) {
		t.Errorf("absent feature = %v, want NaN", ds.Features[4]["stats:conv_rate"])
	}
	if !math.IsNaN(ds.Features[0]["stats:missing"]) {
		t.Errorf("unknown ref = %v, want NaN", ds.Features[0]["stats:missing"])
	}
	// non-numeric features are not part of the matrix
	if _, ok := ds.Features[0]["stats:city"]; ok {
		t.Error("non-numeric feature leaked into the matrix")
	}

	if ds.Target[3] != 1 {
		t.Errorf("target[3] = %v, want 1", ds.Target[3])
	}
}

func TestFeastLoader_Errors(t *testing.T) {
	rows, target := entityRows(4)

	nilClient := &FeastLoader{Features: []string{"f"}}
	if _, err := nilClient.Load(context.Background(), rows, target); err == nil {
		t.Error("nil client should fail")
	}

	misaligned := &FeastLoader{Client: &fakeClient{}, Features: []string{"f"}}
	if _, err := misaligned.Load(context.Background(), rows, target[:2]); err == nil {
		t.Error("misaligned target should fail")
	}

	failing := &FeastLoader{Client: &fakeClient{fail: true}, Features: []string{"f"}}
	if _, err := failing.Load(context.Background(), rows, target); err == nil {
		t.Error("client failure should propagate")
	}
}
