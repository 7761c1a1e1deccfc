package core

import "context"

// 超参类型常量。
const (
	HyperparamInt   = "int"
	HyperparamFloat = "float"
	HyperparamBool  = "bool"
	HyperparamStr   = "str"
)

// Hyperparam 是单个可调超参的声明：类型、取值范围/候选值、默认值。
// 数值类型使用 Range（[low, high] 闭区间）；类别类型使用 Values；
// bool 的 Range 固定为 [true, false]。
type Hyperparam struct {
	Type    string `json:"type" yaml:"type"`
	Range   []any  `json:"range,omitempty" yaml:"range,omitempty"`
	Values  []any  `json:"values,omitempty" yaml:"values,omitempty"`
	Default any    `json:"default,omitempty" yaml:"default,omitempty"`
}

// Tuner 是采样/调参算法的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由具体算法实现（tuner.RandomTuner 等）
//   - Propose 给出一组候选超参，Record 回填其得分，算法据此更新内部状态
//
// 实现：
//   - tuner.RandomTuner（均匀随机搜索，默认实现）
//   - 也可以接入外部贝叶斯优化等实现
type Tuner interface {
	// Propose 提议下一组候选超参（flat 命名：block#N.param）。
	Propose(ctx context.Context) (map[string]any, error)

	// Record 回填一次试验的得分；score 的方向由上层按 Metric.Cost 统一。
	Record(params map[string]any, score float64) error
}
