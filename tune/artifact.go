package tune

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rushteam/tunekit/core"
	"github.com/rushteam/tunekit/metric"
	"github.com/rushteam/tunekit/pipeline"
)

// artifact 是 PipelineTuner 的持久化形态：最优模板、超参、交叉验证分数，
// 以及各 Stateful 步骤拟合后的内部状态。
type artifact struct {
	TemplateName string                     `json:"template_name"`
	Template     *pipeline.Template         `json:"template"`
	MetricName   string                     `json:"metric"`
	MetricCost   bool                       `json:"metric_cost"`
	Hyperparams  map[string]any             `json:"hyperparams,omitempty"`
	CVScore      float64                    `json:"cv_score"`
	Fitted       bool                       `json:"fitted"`
	BlockStates  map[string]json.RawMessage `json:"block_states,omitempty"`
}

func (t *PipelineTuner) toArtifact() (*artifact, error) {
	tpl, ok := t.templates[t.templateName]
	if !ok {
		return nil, core.NewDomainError(core.ModuleTemplate, core.ErrorCodeNotFound,
			fmt.Sprintf("tune: template %q not found", t.templateName))
	}

	a := &artifact{
		TemplateName: t.templateName,
		Template:     tpl.Clone(),
		MetricName:   t.metric.Name,
		MetricCost:   t.metric.Cost,
		Hyperparams:  t.Hyperparameters(),
		CVScore:      t.cvScore,
		Fitted:       t.fitted,
	}
	a.Template.ApplyInitParams(t.initParamsFor(t.templateName))

	if t.fitted {
		a.BlockStates = make(map[string]json.RawMessage)
		for _, step := range t.working.Steps {
			sb, ok := step.Block.(pipeline.Stateful)
			if !ok {
				continue
			}
			state, err := sb.State()
			if err != nil {
				return nil, fmt.Errorf("state %s: %w", step.Name, err)
			}
			a.BlockStates[step.Name] = state
		}
	}
	return a, nil
}

func fromArtifact(a *artifact, opts []Option) (*PipelineTuner, error) {
	if a.Template == nil {
		return nil, core.NewDomainError(core.ModuleTemplate, core.ErrorCodeInvalidInput,
			"tune: artifact has no template")
	}

	// 指标名仍在注册表里就直接恢复；自定义指标留给调用方的 opts 覆盖
	if m, err := metric.Get(a.MetricName); err == nil {
		opts = append([]Option{WithMetricFunc(m)}, opts...)
	}
	t, err := New([]*pipeline.Template{a.Template}, opts...)
	if err != nil {
		return nil, err
	}

	if len(a.Hyperparams) > 0 {
		working, err := t.buildPipeline(t.templateName, a.Hyperparams)
		if err != nil {
			return nil, err
		}
		t.working = working
		t.hyperparams = a.Hyperparams
	}
	t.cvScore = a.CVScore

	if a.Fitted {
		for _, step := range t.working.Steps {
			state, ok := a.BlockStates[step.Name]
			if !ok {
				continue
			}
			sb, ok := step.Block.(pipeline.Stateful)
			if !ok {
				continue
			}
			if err := sb.Restore(state); err != nil {
				return nil, fmt.Errorf("restore %s: %w", step.Name, err)
			}
		}
		t.fitted = true
	}
	return t, nil
}

// Save 把当前最优配置（以及已拟合的模型状态）序列化到文件。
func (t *PipelineTuner) Save(path string) error {
	a, err := t.toArtifact()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load 从 Save 写出的文件恢复 PipelineTuner。
// 指标函数无法序列化：加载方需用 WithMetric/WithMetricFunc 重新指定，
// 否则只保留指标名和方向（继续调参前必须指定）。
func Load(path string, opts ...Option) (*PipelineTuner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}
	return fromArtifact(&a, opts)
}

// SaveToStore 把工件写入 core.Store（如 Redis），供多任务共享。
func (t *PipelineTuner) SaveToStore(ctx context.Context, s core.Store, key string) error {
	a, err := t.toArtifact()
	if err != nil {
		return err
	}
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, data)
}

// LoadFromStore 从 core.Store 恢复 PipelineTuner。
func LoadFromStore(ctx context.Context, s core.Store, key string, opts ...Option) (*PipelineTuner, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load artifact: %w", err)
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}
	return fromArtifact(&a, opts)
}
