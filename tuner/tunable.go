// Package tuner 提供调参会话与采样算法（core.Tuner 的参考实现）。
package tuner

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/rushteam/tunekit/core"
	"github.com/rushteam/tunekit/pkg/conv"
)

// Tunable 是一条 Pipeline 的 flat 超参空间（参数名 -> 规范化后的声明）。
type Tunable struct {
	params map[string]core.Hyperparam
	names  []string // 排序后的参数名，保证采样顺序确定
}

// NewTunable 规范化超参声明并构建 Tunable：
//   - "string" 统一为 "str"
//   - bool 的 Range 固定为 [true, false]
//   - Range 为空时退化为 Values
//   - Default 未设置时取 Range/Values 的第一个值
func NewTunable(params map[string]core.Hyperparam) (*Tunable, error) {
	normalized := make(map[string]core.Hyperparam, len(params))
	names := make([]string, 0, len(params))
	for name, hp := range params {
		n, err := normalize(hp)
		if err != nil {
			return nil, fmt.Errorf("tunable %s: %w", name, err)
		}
		normalized[name] = n
		names = append(names, name)
	}
	sort.Strings(names)
	return &Tunable{params: normalized, names: names}, nil
}

func normalize(hp core.Hyperparam) (core.Hyperparam, error) {
	if hp.Type == "string" {
		hp.Type = core.HyperparamStr
	}

	if hp.Type == core.HyperparamBool {
		hp.Range = []any{true, false}
	} else if len(hp.Range) == 0 {
		hp.Range = hp.Values
	}
	if len(hp.Range) == 0 {
		return hp, fmt.Errorf("no range or values")
	}

	if hp.Default == nil {
		hp.Default = hp.Range[0]
	}
	return hp, nil
}

// Len 返回参数个数。
func (t *Tunable) Len() int { return len(t.params) }

// Params 返回规范化后的超参声明。
func (t *Tunable) Params() map[string]core.Hyperparam { return t.params }

// Defaults 返回各参数的默认值组合。
func (t *Tunable) Defaults() map[string]any {
	out := make(map[string]any, len(t.params))
	for name, hp := range t.params {
		out[name] = hp.Default
	}
	return out
}

// Sample 对每个参数均匀采样一组取值。
func (t *Tunable) Sample(rng *rand.Rand) map[string]any {
	out := make(map[string]any, len(t.params))
	for _, name := range t.names {
		out[name] = sampleOne(t.params[name], rng)
	}
	return out
}

func sampleOne(hp core.Hyperparam, rng *rand.Rand) any {
	switch hp.Type {
	case core.HyperparamInt:
		lo, _ := conv.ToInt(hp.Range[0])
		hi, _ := conv.ToInt(hp.Range[len(hp.Range)-1])
		if hi <= lo {
			return lo
		}
		return lo + rng.Intn(hi-lo+1)
	case core.HyperparamFloat:
		lo, _ := conv.ToFloat64(hp.Range[0])
		hi, _ := conv.ToFloat64(hp.Range[len(hp.Range)-1])
		if hi <= lo {
			return lo
		}
		return lo + rng.Float64()*(hi-lo)
	case core.HyperparamBool:
		return rng.Intn(2) == 0
	default: // str 及其他类别型：从候选值中等概率取一个
		return hp.Range[rng.Intn(len(hp.Range))]
	}
}
