package primitive

import (
	"context"
	"encoding/json"
	"math"

	"github.com/rushteam/tunekit/core"
)

// Scaler 把每个特征标准化为零均值、单位方差。
// 方差为 0 的特征只做去均值。无可调超参，属于静态步骤。
type Scaler struct {
	means map[string]float64
	stds  map[string]float64
}

func NewScaler() *Scaler { return &Scaler{} }

func (b *Scaler) Name() string { return "scaler" }

func (b *Scaler) Fit(_ context.Context, ds *core.Dataset) error {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, row := range ds.Features {
		for k, v := range row {
			sums[k] += v
			counts[k]++
		}
	}
	b.means = make(map[string]float64, len(sums))
	for k, sum := range sums {
		b.means[k] = sum / float64(counts[k])
	}

	sq := make(map[string]float64)
	for _, row := range ds.Features {
		for k, v := range row {
			d := v - b.means[k]
			sq[k] += d * d
		}
	}
	b.stds = make(map[string]float64, len(sq))
	for k, s := range sq {
		b.stds[k] = math.Sqrt(s / float64(counts[k]))
	}
	return nil
}

func (b *Scaler) Produce(_ context.Context, ds *core.Dataset) (*core.Dataset, error) {
	if b.means == nil {
		return nil, core.ErrNotFitted
	}
	out := ds.Clone()
	for _, row := range out.Features {
		for k, v := range row {
			mean, ok := b.means[k]
			if !ok {
				continue // Fit 时未见过的特征原样保留
			}
			if std := b.stds[k]; std > 0 {
				row[k] = (v - mean) / std
			} else {
				row[k] = v - mean
			}
		}
	}
	return out, nil
}

type scalerState struct {
	Means map[string]float64 `json:"means"`
	Stds  map[string]float64 `json:"stds"`
}

func (b *Scaler) State() ([]byte, error) {
	return json.Marshal(scalerState{Means: b.means, Stds: b.stds})
}

func (b *Scaler) Restore(state []byte) error {
	var s scalerState
	if err := json.Unmarshal(state, &s); err != nil {
		return err
	}
	b.means = s.Means
	b.stds = s.Stds
	return nil
}
