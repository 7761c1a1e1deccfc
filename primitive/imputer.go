package primitive

import (
	"context"
	"encoding/json"
	"math"

	"github.com/rushteam/tunekit/core"
)

// Imputer 用训练集均值填充缺失值（NaN）。
// 无可调超参，属于静态步骤：交叉验证调参时其输出会被缓存复用。
type Imputer struct {
	// FillValue 缺失列在训练集中也全为 NaN 时使用的兜底值。
	FillValue float64

	means map[string]float64
}

func NewImputer(fillValue float64) *Imputer {
	return &Imputer{FillValue: fillValue}
}

func (b *Imputer) Name() string { return "imputer" }

func (b *Imputer) Fit(_ context.Context, ds *core.Dataset) error {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, row := range ds.Features {
		for k, v := range row {
			if math.IsNaN(v) {
				continue
			}
			sums[k] += v
			counts[k]++
		}
	}
	b.means = make(map[string]float64, len(sums))
	for k, sum := range sums {
		if counts[k] > 0 {
			b.means[k] = sum / float64(counts[k])
		}
	}
	return nil
}

func (b *Imputer) Produce(_ context.Context, ds *core.Dataset) (*core.Dataset, error) {
	if b.means == nil {
		return nil, core.ErrNotFitted
	}
	out := ds.Clone()
	for _, row := range out.Features {
		for k, v := range row {
			if !math.IsNaN(v) {
				continue
			}
			if mean, ok := b.means[k]; ok {
				row[k] = mean
			} else {
				row[k] = b.FillValue
			}
		}
	}
	return out, nil
}

type imputerState struct {
	FillValue float64            `json:"fill_value"`
	Means     map[string]float64 `json:"means"`
}

func (b *Imputer) State() ([]byte, error) {
	return json.Marshal(imputerState{FillValue: b.FillValue, Means: b.means})
}

func (b *Imputer) Restore(state []byte) error {
	var s imputerState
	if err := json.Unmarshal(state, &s); err != nil {
		return err
	}
	b.FillValue = s.FillValue
	b.means = s.Means
	return nil
}
