package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rushteam/tunekit/core"
)

// Step 是 Pipeline 中的一个已命名步骤。
// Name 是实例名（primitive#N），同一原语出现多次时 N 递增。
type Step struct {
	Name  string
	Block Block
}

// Pipeline 把若干 Block 按顺序串成一条数据处理链。
// Fit/Produce 支持 WithStart/WithStopAfter 做区间执行，
// 这是交叉验证缓存（preprocessing/static 结果复用）的执行钩子。
type Pipeline struct {
	Name  string
	Steps []Step
}

// New 创建 Pipeline 并为每个 Block 赋实例名。
func New(name string, blocks ...Block) *Pipeline {
	steps := make([]Step, 0, len(blocks))
	counts := make(map[string]int)
	for _, b := range blocks {
		counts[b.Name()]++
		steps = append(steps, Step{
			Name:  fmt.Sprintf("%s#%d", b.Name(), counts[b.Name()]),
			Block: b,
		})
	}
	return &Pipeline{Name: name, Steps: steps}
}

// Len 返回步骤数。
func (p *Pipeline) Len() int { return len(p.Steps) }

// runRange 是一次执行的区间参数：[Start, StopAfter] 闭区间。
type runRange struct {
	start     int
	stopAfter int
	partial   bool // 是否显式指定了 StopAfter
}

// Option 控制 Fit/Produce 的执行区间。
type Option func(*runRange)

// WithStart 从第 i 个步骤开始执行（传入的 Dataset 应为第 i-1 步的输出）。
func WithStart(i int) Option {
	return func(r *runRange) { r.start = i }
}

// WithStopAfter 执行到第 i 个步骤（含）为止，返回其输出作为可缓存的中间结果。
func WithStopAfter(i int) Option {
	return func(r *runRange) {
		r.stopAfter = i
		r.partial = true
	}
}

func (p *Pipeline) resolveRange(opts []Option) (runRange, error) {
	r := runRange{start: 0, stopAfter: len(p.Steps) - 1}
	for _, opt := range opts {
		opt(&r)
	}
	if r.start < 0 || r.stopAfter >= len(p.Steps) || r.start > r.stopAfter {
		return r, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput,
			fmt.Sprintf("pipeline %s: invalid step range [%d, %d]", p.Name, r.start, r.stopAfter))
	}
	return r, nil
}

// Fit 在区间内依次执行每个步骤的 Fit + Produce，返回区间末尾的输出。
// 执行到整条链末尾时，最后一个步骤只 Fit 不 Produce（估计器无需在
// 训练数据上产出预测）；显式 WithStopAfter 的部分执行则始终 Produce，
// 因为返回值要作为后续区间的输入被缓存。
func (p *Pipeline) Fit(ctx context.Context, ds *core.Dataset, opts ...Option) (*core.Dataset, error) {
	r, err := p.resolveRange(opts)
	if err != nil {
		return nil, err
	}
	cur := ds
	for i := r.start; i <= r.stopAfter; i++ {
		step := p.Steps[i]
		if err := step.Block.Fit(ctx, cur); err != nil {
			return nil, fmt.Errorf("fit %s: %w", step.Name, err)
		}
		if i == len(p.Steps)-1 && !r.partial {
			break
		}
		next, err := step.Block.Produce(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("produce %s: %w", step.Name, err)
		}
		cur = next
	}
	return cur, nil
}

// Produce 在区间内依次执行每个步骤的 Produce，返回区间末尾的输出。
func (p *Pipeline) Produce(ctx context.Context, ds *core.Dataset, opts ...Option) (*core.Dataset, error) {
	r, err := p.resolveRange(opts)
	if err != nil {
		return nil, err
	}
	cur := ds
	for i := r.start; i <= r.stopAfter; i++ {
		step := p.Steps[i]
		next, err := step.Block.Produce(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("produce %s: %w", step.Name, err)
		}
		cur = next
	}
	return cur, nil
}

// Predict 执行 Produce 区间并返回末端估计器写入的预测向量。
func (p *Pipeline) Predict(ctx context.Context, ds *core.Dataset, opts ...Option) ([]float64, error) {
	out, err := p.Produce(ctx, ds, opts...)
	if err != nil {
		return nil, err
	}
	if out.Predictions == nil {
		return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInternalError,
			fmt.Sprintf("pipeline %s: final block produced no predictions", p.Name))
	}
	return out.Predictions, nil
}

// FirstTunableIndex 返回第一个带可调超参步骤的下标；全部为静态时返回 Len()。
// 该下标即 preprocessing/static 与 tunable 阶段的分界。
func (p *Pipeline) FirstTunableIndex() int {
	for i, step := range p.Steps {
		if tb, ok := step.Block.(TunableBlock); ok && len(tb.Tunable()) > 0 {
			return i
		}
	}
	return len(p.Steps)
}

// Tunables 返回整条链的 flat 超参空间，key 为 "primitive#N.param"。
func (p *Pipeline) Tunables() map[string]core.Hyperparam {
	out := make(map[string]core.Hyperparam)
	for _, step := range p.Steps {
		tb, ok := step.Block.(TunableBlock)
		if !ok {
			continue
		}
		for param, hp := range tb.Tunable() {
			out[step.Name+"."+param] = hp
		}
	}
	return out
}

// Hyperparams 返回当前生效的 flat 超参值。
func (p *Pipeline) Hyperparams() map[string]any {
	out := make(map[string]any)
	for _, step := range p.Steps {
		tb, ok := step.Block.(TunableBlock)
		if !ok {
			continue
		}
		for param, v := range tb.Hyperparams() {
			out[step.Name+"."+param] = v
		}
	}
	return out
}

// SetHyperparams 把 flat 超参值分发回各步骤。
// key 形如 "primitive#N.param"；省略 "#N" 时默认指向第 1 个实例。
func (p *Pipeline) SetHyperparams(params map[string]any) error {
	grouped := make(map[int]map[string]any)
	for key, value := range params {
		idx, param, err := p.resolveParam(key)
		if err != nil {
			return err
		}
		if grouped[idx] == nil {
			grouped[idx] = make(map[string]any)
		}
		grouped[idx][param] = value
	}
	for idx, blockParams := range grouped {
		step := p.Steps[idx]
		tb, ok := step.Block.(TunableBlock)
		if !ok {
			return core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput,
				fmt.Sprintf("pipeline %s: step %s is not tunable", p.Name, step.Name))
		}
		if err := tb.SetHyperparams(blockParams); err != nil {
			return fmt.Errorf("set hyperparams %s: %w", step.Name, err)
		}
	}
	return nil
}

// resolveParam 把 flat key 解析为（步骤下标, 参数名）。
// 原语名自身可能含 "."（如带命名空间的原语），所以按步骤名前缀匹配
// 而不是简单地以第一个 "." 切分。
func (p *Pipeline) resolveParam(key string) (int, string, error) {
	for i, step := range p.Steps {
		if strings.HasPrefix(key, step.Name+".") {
			return i, key[len(step.Name)+1:], nil
		}
		// 裸原语名默认指向 #1 实例
		bare := step.Block.Name() + "."
		if strings.HasSuffix(step.Name, "#1") && strings.HasPrefix(key, bare) {
			return i, key[len(bare):], nil
		}
	}
	return 0, "", core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput,
		fmt.Sprintf("pipeline %s: unknown hyperparameter %q", p.Name, key))
}

// StepNames 返回全部实例名，顺序与执行顺序一致。
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		names[i] = s.Name
	}
	return names
}
