package pipeline

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template 是 Pipeline 的配置结构（支持 YAML/JSON）。
// Blocks 声明原语序列；InitParams 按步骤实例名（primitive#N，裸名视为 #1）
// 覆盖各步骤的构建参数，调参前的基线 Pipeline 由它们共同决定。
type Template struct {
	Name   string        `yaml:"name" json:"name"`
	Blocks []BlockConfig `yaml:"blocks" json:"blocks"`

	// InitParams 步骤级参数覆盖，key 为实例名。
	InitParams map[string]map[string]any `yaml:"init_params,omitempty" json:"init_params,omitempty"`
}

// BlockConfig 是单个步骤的配置。
type BlockConfig struct {
	Primitive string         `yaml:"primitive" json:"primitive"` // 原语名，需已在 BlockFactory 注册
	Config    map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
}

// LoadFromYAML 从 YAML 文件加载 Template。
func LoadFromYAML(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var tpl Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	return &tpl, nil
}

// LoadFromJSON 从 JSON 文件加载 Template。
func LoadFromJSON(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	return &tpl, nil
}

// ID 返回模板标识：有 Name 用 Name，匿名模板用其 JSON 编码的 md5。
func (t *Template) ID() string {
	if t.Name != "" {
		return t.Name
	}
	data, _ := json.Marshal(t)
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Clone 深拷贝 Template，避免 ApplyInitParams 污染共享实例。
func (t *Template) Clone() *Template {
	out := &Template{Name: t.Name}
	out.Blocks = make([]BlockConfig, len(t.Blocks))
	for i, bc := range t.Blocks {
		out.Blocks[i] = BlockConfig{Primitive: bc.Primitive, Config: cloneConfig(bc.Config)}
	}
	if t.InitParams != nil {
		out.InitParams = make(map[string]map[string]any, len(t.InitParams))
		for name, params := range t.InitParams {
			out.InitParams[name] = cloneConfig(params)
		}
	}
	return out
}

func cloneConfig(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ApplyInitParams 把外部初始参数合并进模板。
// 裸原语名统一规范化为 "#1" 实例名；同名参数以传入值覆盖。
func (t *Template) ApplyInitParams(params map[string]map[string]any) {
	if len(params) == 0 {
		return
	}
	if t.InitParams == nil {
		t.InitParams = make(map[string]map[string]any)
	}
	// 先规范化已有 key
	for name, blockParams := range t.InitParams {
		if !strings.Contains(name, "#") {
			delete(t.InitParams, name)
			t.InitParams[name+"#1"] = blockParams
		}
	}
	for name, blockParams := range params {
		if !strings.Contains(name, "#") {
			name = name + "#1"
		}
		merged := t.InitParams[name]
		if merged == nil {
			merged = make(map[string]any)
			t.InitParams[name] = merged
		}
		for param, value := range blockParams {
			merged[param] = value
		}
	}
}

// Build 根据模板构建 Pipeline（需要 BlockFactory 注册原语构建器）。
// 每个步骤的最终配置 = BlockConfig.Config 叠加 InitParams[实例名]。
func (t *Template) Build(factory *BlockFactory) (*Pipeline, error) {
	if len(t.Blocks) == 0 {
		return nil, fmt.Errorf("template %s: no blocks", t.ID())
	}

	blocks := make([]Block, 0, len(t.Blocks))
	counts := make(map[string]int)
	for _, bc := range t.Blocks {
		counts[bc.Primitive]++
		instance := fmt.Sprintf("%s#%d", bc.Primitive, counts[bc.Primitive])

		cfg := cloneConfig(bc.Config)
		if cfg == nil {
			cfg = make(map[string]any)
		}
		// 裸原语名只命中 #1 实例；实例名的覆盖优先于裸名
		var keys []string
		if counts[bc.Primitive] == 1 {
			keys = append(keys, bc.Primitive)
		}
		keys = append(keys, instance)
		for _, key := range keys {
			if overrides, ok := t.InitParams[key]; ok {
				for param, value := range overrides {
					cfg[param] = value
				}
			}
		}

		block, err := factory.Build(bc.Primitive, cfg)
		if err != nil {
			return nil, fmt.Errorf("build block %s: %w", bc.Primitive, err)
		}
		blocks = append(blocks, block)
	}

	return New(t.ID(), blocks...), nil
}
