// Package primitive 提供内置的参考原语（Block 实现）。
// 生产场景可以自行实现 pipeline.Block 并通过 config.Register 接入。
package primitive

import "github.com/rushteam/tunekit/pipeline"

// 接口实现检查
var (
	_ pipeline.Block    = (*Imputer)(nil)
	_ pipeline.Stateful = (*Imputer)(nil)

	_ pipeline.Block    = (*Scaler)(nil)
	_ pipeline.Stateful = (*Scaler)(nil)

	_ pipeline.TunableBlock = (*Selector)(nil)
	_ pipeline.Stateful     = (*Selector)(nil)

	_ pipeline.TunableBlock = (*Logistic)(nil)
	_ pipeline.Stateful     = (*Logistic)(nil)
)
