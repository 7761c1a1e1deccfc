package core

// MetricFunc 接收真值与预测值，返回一个标量分数。
type MetricFunc func(truth, pred []float64) float64

// Metric 是评分函数的领域描述。
// Cost 为 true 时分数越小越好（如 MSE），否则越大越好（如 accuracy）。
type Metric struct {
	Name string
	Fn   MetricFunc
	Cost bool
}

// Better 按 Cost 方向比较两个分数：candidate 是否严格优于 current。
func (m Metric) Better(candidate, current float64) bool {
	if m.Cost {
		return candidate < current
	}
	return candidate > current
}
