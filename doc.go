// Package tunekit 是一个超参调优工具包（Tuning Kit）。
//
// 设计要点：
// - Pipeline-first: 建模逻辑通过命名 Block 顺序串联（preprocessing → static → tunable）
// - 缓存优先: 交叉验证时 preprocessing 全量只跑一次、static 阶段每折只跑一次，
//   每轮候选超参只重算 tunable 阶段
// - 可扩展: 自定义 Block / Splitter / Metric / Tuner 即可插拔扩展
package tunekit

import (
	"github.com/rushteam/tunekit/pipeline"
	"github.com/rushteam/tunekit/tune"
)

// 轻量 facade：便于用户直接 import "tunekit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Block = pipeline.Block
type Template = pipeline.Template
type PipelineTuner = tune.PipelineTuner
