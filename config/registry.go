package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/tunekit/pipeline"
)

// 使用配置驱动时，需在 main 或入口处 import _ "github.com/rushteam/tunekit/config/builders"
// 以触发内置原语（imputer、scaler、selector、logistic）的 init 注册。

// BlockBuilder 与 pipeline.BlockBuilder 一致：根据 config 构建 Block。
// 各原语在 init 中调用 Register(primitive, builder) 即可被模板驱动。
type BlockBuilder = pipeline.BlockBuilder

var (
	defaultBuilders   = make(map[string]BlockBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种原语的构建逻辑，供 DefaultFactory 与模板驱动使用。
// 建议在各原语包的 init 中调用，例如：func init() { config.Register("logistic", BuildLogistic) }
func Register(primitive string, builder BlockBuilder) {
	if primitive == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[primitive] = builder
}

// SupportedPrimitives 返回当前已注册的原语列表（排序），用于错误提示与校验。
func SupportedPrimitives() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	primitives := make([]string, 0, len(defaultBuilders))
	for p := range defaultBuilders {
		primitives = append(primitives, p)
	}
	sort.Strings(primitives)
	return primitives
}

// DefaultFactory 返回基于当前注册表构建的 BlockFactory，包含所有通过 Register 注册的原语。
func DefaultFactory() *pipeline.BlockFactory {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewBlockFactory()
	for primitive, builder := range defaultBuilders {
		f.Register(primitive, builder)
	}
	return f
}

// ValidateTemplate 校验模板中所有原语均已注册；若有未支持原语则返回包含已支持列表的错误。
func ValidateTemplate(tpl *pipeline.Template) error {
	if tpl == nil {
		return nil
	}
	supported := SupportedPrimitives()
	for _, bc := range tpl.Blocks {
		if bc.Primitive == "" {
			continue
		}
		defaultBuildersMu.RLock()
		_, ok := defaultBuilders[bc.Primitive]
		defaultBuildersMu.RUnlock()
		if !ok {
			return fmt.Errorf("unsupported primitive %q (supported: %v)", bc.Primitive, supported)
		}
	}
	return nil
}
