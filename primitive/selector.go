package primitive

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rushteam/tunekit/core"
	"github.com/rushteam/tunekit/pkg/conv"
)

// Selector 按训练集方差保留前 K 个特征。
// K 是可调超参：K <= 0 表示不筛选，保留全部特征。
type Selector struct {
	K int

	selected map[string]bool
}

func NewSelector(k int) *Selector { return &Selector{K: k} }

func (b *Selector) Name() string { return "selector" }

func (b *Selector) Fit(_ context.Context, ds *core.Dataset) error {
	if b.K <= 0 {
		b.selected = nil
		return nil
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, row := range ds.Features {
		for k, v := range row {
			sums[k] += v
			counts[k]++
		}
	}
	variances := make(map[string]float64, len(sums))
	for k := range sums {
		mean := sums[k] / float64(counts[k])
		var sq float64
		for _, row := range ds.Features {
			if v, ok := row[k]; ok {
				d := v - mean
				sq += d * d
			}
		}
		variances[k] = sq / float64(counts[k])
	}

	names := make([]string, 0, len(variances))
	for k := range variances {
		names = append(names, k)
	}
	// 方差降序，方差相同按名字排序保证确定性
	sort.Slice(names, func(i, j int) bool {
		if variances[names[i]] != variances[names[j]] {
			return variances[names[i]] > variances[names[j]]
		}
		return names[i] < names[j]
	})

	keep := b.K
	if keep > len(names) {
		keep = len(names)
	}
	b.selected = make(map[string]bool, keep)
	for _, k := range names[:keep] {
		b.selected[k] = true
	}
	return nil
}

func (b *Selector) Produce(_ context.Context, ds *core.Dataset) (*core.Dataset, error) {
	if b.K <= 0 || b.selected == nil {
		return ds, nil
	}
	out := &core.Dataset{Target: ds.Target, Predictions: ds.Predictions, Extra: ds.Extra}
	out.Features = make([]map[string]float64, len(ds.Features))
	for i, row := range ds.Features {
		kept := make(map[string]float64, len(b.selected))
		for k, v := range row {
			if b.selected[k] {
				kept[k] = v
			}
		}
		out.Features[i] = kept
	}
	return out, nil
}

func (b *Selector) Tunable() map[string]core.Hyperparam {
	return map[string]core.Hyperparam{
		"k": {Type: core.HyperparamInt, Range: []any{1, 32}, Default: b.K},
	}
}

func (b *Selector) Hyperparams() map[string]any {
	return map[string]any{"k": b.K}
}

func (b *Selector) SetHyperparams(params map[string]any) error {
	for name, value := range params {
		switch name {
		case "k":
			k, ok := conv.ToInt(value)
			if !ok {
				return fmt.Errorf("selector: invalid k: %v", value)
			}
			b.K = k
		default:
			return fmt.Errorf("selector: unknown hyperparameter %q", name)
		}
	}
	// 超参变化后需要重新 Fit
	b.selected = nil
	return nil
}

type selectorState struct {
	K        int             `json:"k"`
	Selected map[string]bool `json:"selected"`
}

func (b *Selector) State() ([]byte, error) {
	return json.Marshal(selectorState{K: b.K, Selected: b.selected})
}

func (b *Selector) Restore(state []byte) error {
	var s selectorState
	if err := json.Unmarshal(state, &s); err != nil {
		return err
	}
	b.K = s.K
	b.selected = s.Selected
	return nil
}
