// Package tune 把模板选择、超参调优和交叉验证评分组合成一个调参任务。
//
// 核心是交叉验证缓存：把 Pipeline 切成 preprocessing / static / tunable
// 三段，昂贵的非可调计算只执行一次（preprocessing 在分折前对全量数据执行
// 一次，static 在每折上执行一次并缓存输出），每次调参试验只重复 tunable 段。
package tune

import (
	"context"
	"fmt"
	"math"

	"github.com/rushteam/tunekit/config"
	"github.com/rushteam/tunekit/core"
	"github.com/rushteam/tunekit/metric"
	"github.com/rushteam/tunekit/pipeline"
	"github.com/rushteam/tunekit/split"
	"github.com/rushteam/tunekit/tuner"
)

// PipelineTuner 在若干候选模板上做交叉验证调参，并维护全局最优配置。
//
// 最优跟踪：每当某次试验的平均交叉验证分数优于历史最优（方向由指标的
// Cost 决定），就更新最优模板/超参，并按其重建工作 Pipeline。
type PipelineTuner struct {
	templates map[string]*pipeline.Template
	order     []string
	factory   *pipeline.BlockFactory

	metric   core.Metric
	splitter core.Splitter

	initParams    map[string]map[string]map[string]any // 模板 -> 实例名 -> 参数
	globalParams  map[string]map[string]any
	preprocessing map[string]int
	globalPrep    int

	sessionOpts []tuner.SessionOption

	// 最优跟踪状态
	templateName string
	hyperparams  map[string]any
	cvScore      float64
	working      *pipeline.Pipeline
	fitted       bool
}

// Option 配置 PipelineTuner。
type Option func(*PipelineTuner) error

// WithMetric 按名称使用注册表中的指标（方向由注册时的 Cost 决定）。
func WithMetric(name string) Option {
	return func(t *PipelineTuner) error {
		m, err := metric.Get(name)
		if err != nil {
			return err
		}
		t.metric = m
		return nil
	}
}

// WithMetricFunc 使用自定义指标。
func WithMetricFunc(m core.Metric) Option {
	return func(t *PipelineTuner) error {
		if m.Fn == nil {
			return core.NewDomainError(core.ModuleMetric, core.ErrorCodeInvalidInput,
				"tune: metric fn is nil")
		}
		t.metric = m
		return nil
	}
}

// WithSplitter 直接指定交叉验证划分器。
func WithSplitter(s core.Splitter) Option {
	return func(t *PipelineTuner) error {
		t.splitter = s
		return nil
	}
}

// WithCV 配置内置划分器：stratify 为 true 时按类别分层。
func WithCV(stratify bool, splits int, shuffle bool, seed int64) Option {
	return func(t *PipelineTuner) error {
		if stratify {
			t.splitter = split.NewStratifiedKFold(splits, shuffle, seed)
		} else {
			t.splitter = split.NewKFold(splits, shuffle, seed)
		}
		return nil
	}
}

// WithFactory 替换原语工厂，默认使用 config.DefaultFactory()。
func WithFactory(f *pipeline.BlockFactory) Option {
	return func(t *PipelineTuner) error {
		t.factory = f
		return nil
	}
}

// WithInitParams 给所有模板叠加初始参数（实例名 -> 参数）。
func WithInitParams(params map[string]map[string]any) Option {
	return func(t *PipelineTuner) error {
		t.globalParams = params
		return nil
	}
}

// WithTemplateInitParams 给单个模板叠加初始参数，优先于 WithInitParams。
func WithTemplateInitParams(template string, params map[string]map[string]any) Option {
	return func(t *PipelineTuner) error {
		if t.initParams == nil {
			t.initParams = make(map[string]map[string]map[string]any)
		}
		t.initParams[template] = params
		return nil
	}
}

// WithPreprocessing 设置所有模板的 preprocessing 步骤数。
func WithPreprocessing(n int) Option {
	return func(t *PipelineTuner) error {
		t.globalPrep = n
		return nil
	}
}

// WithTemplatePreprocessing 设置单个模板的 preprocessing 步骤数。
func WithTemplatePreprocessing(template string, n int) Option {
	return func(t *PipelineTuner) error {
		if t.preprocessing == nil {
			t.preprocessing = make(map[string]int)
		}
		t.preprocessing[template] = n
		return nil
	}
}

// WithSessionOptions 透传调参会话选项（排行榜、约束、种子等）。
func WithSessionOptions(opts ...tuner.SessionOption) Option {
	return func(t *PipelineTuner) error {
		t.sessionOpts = append(t.sessionOpts, opts...)
		return nil
	}
}

// New 创建 PipelineTuner。templates 至少一个；第一个模板作为初始工作配置。
//
// 校验：每个模板的 preprocessing 步骤数不能超过其 static 边界
// （第一个可调步骤的下标）。
func New(templates []*pipeline.Template, opts ...Option) (*PipelineTuner, error) {
	if len(templates) == 0 {
		return nil, core.NewDomainError(core.ModuleTemplate, core.ErrorCodeInvalidInput,
			"tune: no templates")
	}

	t := &PipelineTuner{
		templates: make(map[string]*pipeline.Template, len(templates)),
		metric:    core.Metric{Name: "accuracy", Fn: metric.Accuracy},
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	if t.factory == nil {
		t.factory = config.DefaultFactory()
	}
	if t.splitter == nil {
		t.splitter = split.NewStratifiedKFold(5, true, 0)
	}

	for _, tpl := range templates {
		id := tpl.ID()
		if _, dup := t.templates[id]; dup {
			return nil, core.NewDomainError(core.ModuleTemplate, core.ErrorCodeInvalidInput,
				fmt.Sprintf("tune: duplicate template %q", id))
		}
		t.templates[id] = tpl
		t.order = append(t.order, id)
	}

	t.cvScore = math.Inf(-1)
	if t.metric.Cost {
		t.cvScore = math.Inf(1)
	}

	// 校验各模板的 preprocessing/static 关系，顺带确保模板可构建
	for _, id := range t.order {
		p, err := t.buildPipeline(id, nil)
		if err != nil {
			return nil, err
		}
		static := p.FirstTunableIndex()
		if prep := t.preprocessingFor(id); prep > static {
			return nil, core.NewDomainError(core.ModuleTemplate, core.ErrorCodeInvalidInput,
				fmt.Sprintf("tune: template %s: preprocessing (%d) cannot exceed static boundary (%d)", id, prep, static))
		}
	}

	t.templateName = t.order[0]
	working, err := t.buildPipeline(t.templateName, nil)
	if err != nil {
		return nil, err
	}
	t.working = working
	return t, nil
}

// initParamsFor 返回模板的初始参数：模板专属优先，否则用全局。
func (t *PipelineTuner) initParamsFor(template string) map[string]map[string]any {
	if params, ok := t.initParams[template]; ok {
		return params
	}
	return t.globalParams
}

// preprocessingFor 返回模板的 preprocessing 步骤数：模板专属优先。
func (t *PipelineTuner) preprocessingFor(template string) int {
	if n, ok := t.preprocessing[template]; ok {
		return n
	}
	return t.globalPrep
}

// buildPipeline 按模板（叠加初始参数）构建新 Pipeline，可选设置超参。
func (t *PipelineTuner) buildPipeline(template string, hyperparams map[string]any) (*pipeline.Pipeline, error) {
	tpl, ok := t.templates[template]
	if !ok {
		return nil, core.NewDomainError(core.ModuleTemplate, core.ErrorCodeNotFound,
			fmt.Sprintf("tune: template %q not found", template))
	}

	tpl = tpl.Clone()
	tpl.ApplyInitParams(t.initParamsFor(template))

	p, err := tpl.Build(t.factory)
	if err != nil {
		return nil, fmt.Errorf("build template %s: %w", template, err)
	}
	if len(hyperparams) > 0 {
		if err := p.SetHyperparams(hyperparams); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Templates 返回候选模板 ID（构造顺序）。
func (t *PipelineTuner) Templates() []string {
	return append([]string(nil), t.order...)
}

// TemplateName 返回当前最优（初始为第一个）模板 ID。
func (t *PipelineTuner) TemplateName() string { return t.templateName }

// CVScore 返回历史最优交叉验证分数。
func (t *PipelineTuner) CVScore() float64 { return t.cvScore }

// Fitted 报告工作 Pipeline 是否已拟合。
func (t *PipelineTuner) Fitted() bool { return t.fitted }

// Hyperparameters 返回当前最优超参的拷贝。
func (t *PipelineTuner) Hyperparameters() map[string]any {
	out := make(map[string]any, len(t.hyperparams))
	for k, v := range t.hyperparams {
		out[k] = v
	}
	return out
}

// recordBest 在分数更优时更新最优配置并重建工作 Pipeline。
func (t *PipelineTuner) recordBest(template string, params map[string]any, score float64) error {
	if !t.metric.Better(score, t.cvScore) {
		return nil
	}
	working, err := t.buildPipeline(template, params)
	if err != nil {
		return err
	}
	t.cvScore = score
	t.templateName = template
	t.hyperparams = make(map[string]any, len(params))
	for k, v := range params {
		t.hyperparams[k] = v
	}
	t.working = working
	t.fitted = false
	return nil
}

// Fit 用全量数据拟合当前工作 Pipeline。
func (t *PipelineTuner) Fit(ctx context.Context, ds *core.Dataset) error {
	if _, err := t.working.Fit(ctx, ds); err != nil {
		return err
	}
	t.fitted = true
	return nil
}

// Predict 用已拟合的工作 Pipeline 做预测；未拟合时返回 NOT_FITTED。
func (t *PipelineTuner) Predict(ctx context.Context, ds *core.Dataset) ([]float64, error) {
	if !t.fitted {
		return nil, core.ErrNotFitted
	}
	return t.working.Predict(ctx, ds)
}
