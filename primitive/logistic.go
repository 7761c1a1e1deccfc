package primitive

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/rushteam/tunekit/core"
	"github.com/rushteam/tunekit/pkg/conv"
)

// Logistic 实现了逻辑回归 (Logistic Regression) 二分类器。
//
// 训练：按固定顺序做全量梯度下降（带 L2 正则），保证同参同数据结果确定。
// 预测：P = 1 / (1 + exp(-(Bias + sum(W_i * x_i))))，按 0.5 阈值输出 0/1，
// 写入 Dataset.Predictions。
//
// 可调超参：learning_rate / epochs / l2。
type Logistic struct {
	LearningRate float64
	Epochs       int
	L2           float64

	bias    float64
	weights map[string]float64
}

func NewLogistic(learningRate float64, epochs int, l2 float64) *Logistic {
	return &Logistic{LearningRate: learningRate, Epochs: epochs, L2: l2}
}

func (b *Logistic) Name() string { return "logistic" }

func (b *Logistic) Fit(_ context.Context, ds *core.Dataset) error {
	if len(ds.Features) == 0 || len(ds.Target) != len(ds.Features) {
		return core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
			"logistic: features and target must be non-empty and aligned")
	}

	// 固定特征遍历顺序，保证确定性
	seen := make(map[string]bool)
	var names []string
	for _, row := range ds.Features {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)

	b.bias = 0
	b.weights = make(map[string]float64, len(names))
	for _, k := range names {
		b.weights[k] = 0
	}

	n := float64(len(ds.Features))
	for epoch := 0; epoch < b.Epochs; epoch++ {
		gradBias := 0.0
		grads := make(map[string]float64, len(names))
		for i, row := range ds.Features {
			p := b.prob(row)
			g := p - ds.Target[i]
			gradBias += g
			for k, v := range row {
				grads[k] += g * v
			}
		}
		b.bias -= b.LearningRate * gradBias / n
		for _, k := range names {
			b.weights[k] -= b.LearningRate * (grads[k]/n + b.L2*b.weights[k])
		}
	}
	return nil
}

func (b *Logistic) prob(row map[string]float64) float64 {
	z := b.bias
	for k, v := range row {
		if w, ok := b.weights[k]; ok {
			z += w * v
		}
	}
	return 1 / (1 + math.Exp(-z))
}

func (b *Logistic) Produce(_ context.Context, ds *core.Dataset) (*core.Dataset, error) {
	if b.weights == nil {
		return nil, core.ErrNotFitted
	}
	out := &core.Dataset{Features: ds.Features, Target: ds.Target, Extra: ds.Extra}
	out.Predictions = make([]float64, len(ds.Features))
	for i, row := range ds.Features {
		if b.prob(row) >= 0.5 {
			out.Predictions[i] = 1
		}
	}
	return out, nil
}

func (b *Logistic) Tunable() map[string]core.Hyperparam {
	return map[string]core.Hyperparam{
		"learning_rate": {Type: core.HyperparamFloat, Range: []any{0.001, 1.0}, Default: b.LearningRate},
		"epochs":        {Type: core.HyperparamInt, Range: []any{10, 200}, Default: b.Epochs},
		"l2":            {Type: core.HyperparamFloat, Range: []any{0.0, 0.1}, Default: b.L2},
	}
}

func (b *Logistic) Hyperparams() map[string]any {
	return map[string]any{
		"learning_rate": b.LearningRate,
		"epochs":        b.Epochs,
		"l2":            b.L2,
	}
}

func (b *Logistic) SetHyperparams(params map[string]any) error {
	for name, value := range params {
		switch name {
		case "learning_rate":
			f, ok := conv.ToFloat64(value)
			if !ok {
				return fmt.Errorf("logistic: invalid learning_rate: %v", value)
			}
			b.LearningRate = f
		case "epochs":
			i, ok := conv.ToInt(value)
			if !ok {
				return fmt.Errorf("logistic: invalid epochs: %v", value)
			}
			b.Epochs = i
		case "l2":
			f, ok := conv.ToFloat64(value)
			if !ok {
				return fmt.Errorf("logistic: invalid l2: %v", value)
			}
			b.L2 = f
		default:
			return fmt.Errorf("logistic: unknown hyperparameter %q", name)
		}
	}
	b.weights = nil
	return nil
}

type logisticState struct {
	LearningRate float64            `json:"learning_rate"`
	Epochs       int                `json:"epochs"`
	L2           float64            `json:"l2"`
	Bias         float64            `json:"bias"`
	Weights      map[string]float64 `json:"weights"`
}

func (b *Logistic) State() ([]byte, error) {
	return json.Marshal(logisticState{
		LearningRate: b.LearningRate,
		Epochs:       b.Epochs,
		L2:           b.L2,
		Bias:         b.bias,
		Weights:      b.weights,
	})
}

func (b *Logistic) Restore(state []byte) error {
	var s logisticState
	if err := json.Unmarshal(state, &s); err != nil {
		return err
	}
	b.LearningRate = s.LearningRate
	b.Epochs = s.Epochs
	b.L2 = s.L2
	b.bias = s.Bias
	b.weights = s.Weights
	return nil
}
