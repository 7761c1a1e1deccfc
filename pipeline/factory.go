package pipeline

import "fmt"

// BlockBuilder 根据配置构建一个 Block 实例。
type BlockBuilder func(config map[string]any) (Block, error)

// BlockFactory 用于根据原语名构建 Block 实例。
// 注意：全局注册表在独立的 config 包中，避免循环依赖。
type BlockFactory struct {
	builders map[string]BlockBuilder
}

func NewBlockFactory() *BlockFactory {
	return &BlockFactory{
		builders: make(map[string]BlockBuilder),
	}
}

// Register 注册原语构建器。
func (f *BlockFactory) Register(primitive string, builder BlockBuilder) {
	f.builders[primitive] = builder
}

// Build 根据原语名和配置构建 Block。
func (f *BlockFactory) Build(primitive string, config map[string]any) (Block, error) {
	builder, ok := f.builders[primitive]
	if !ok {
		return nil, fmt.Errorf("unknown primitive: %s", primitive)
	}
	return builder(config)
}
