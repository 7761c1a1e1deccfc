package pipeline

import (
	"context"

	"github.com/rushteam/tunekit/core"
)

// Block 是 Pipeline 的最小可扩展单元：一个命名的计算原语。
// 统一采用“Fit 学习状态、Produce 变换数据”的形态；
// 无学习阶段的 Block（如截断、重命名）的 Fit 可以直接返回 nil。
type Block interface {
	// Name 返回原语名（如 "imputer"、"logistic"），同一原语可在
	// Pipeline 中出现多次，由 Pipeline 赋予 name#N 实例名。
	Name() string

	// Fit 用数据学习内部状态（均值、权重等）。
	Fit(ctx context.Context, ds *core.Dataset) error

	// Produce 对数据做变换并返回新的 Dataset；估计器 Block
	// 在这里写入 ds.Predictions。
	Produce(ctx context.Context, ds *core.Dataset) (*core.Dataset, error)
}

// TunableBlock 是带可调超参的 Block。
// Tunable 声明超参空间；SetHyperparams 接收调参器提议的值。
// 不实现此接口（或 Tunable 返回空）的 Block 视为静态步骤，
// 其计算结果可以在调参循环中被缓存复用。
type TunableBlock interface {
	Block

	// Tunable 返回超参声明（参数名 -> 空间）。
	Tunable() map[string]core.Hyperparam

	// Hyperparams 返回当前生效的超参值。
	Hyperparams() map[string]any

	// SetHyperparams 设置超参；未出现的参数保持当前值。
	SetHyperparams(params map[string]any) error
}

// Stateful 是可持久化状态的 Block。
// Save/Load 用它把拟合后的内部状态（权重、均值等）编码为字节串；
// 不实现此接口的 Block 只能持久化配置，加载后需要重新 Fit。
type Stateful interface {
	// State 编码当前内部状态（约定为 JSON）。
	State() ([]byte, error)

	// Restore 从 State 的输出恢复内部状态。
	Restore(state []byte) error
}
