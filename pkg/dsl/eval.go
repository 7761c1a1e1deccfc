// Package dsl 提供基于 CEL (Common Expression Language) 的试验约束表达式。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("params", cel.DynType),
		cel.Variable("template", cel.StringType),
		cel.Variable("score", cel.DoubleType),
	)
}

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Eval 是试验级布尔表达式的解释器，表达式在构造时编译一次，可多次执行。
//
// 可用变量：
//   - params: 提议/记录的超参（flat 命名），如 params["logistic#1.epochs"]
//   - template: 模板名
//   - score: 试验得分（约束检查阶段恒为 0，仅过滤已记录试验时有意义）
//
// 示例：
//   - `params["logistic#1.epochs"] <= 100`
//   - `params["selector#1.k"] * params["logistic#1.epochs"] <= 1600`
//   - `template != "slow_template" || params["logistic#1.epochs"] < 50`
type Eval struct {
	expr string
	prg  cel.Program
}

// NewEval 编译表达式并返回解释器。
func NewEval(expr string) (*Eval, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}

	return &Eval{expr: expr, prg: prg}, nil
}

// Evaluate 执行表达式，返回布尔结果。
func (e *Eval) Evaluate(template string, params map[string]any, score float64) (bool, error) {
	out, _, err := e.prg.Eval(map[string]any{
		"params":   params,
		"template": template,
		"score":    score,
	})
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// NewConstraint 把表达式包装成提议约束函数（可直接作为 tuner.Constraint 使用）。
// 约束阶段 score 尚不存在，固定传 0。
func NewConstraint(expr string) (func(template string, params map[string]any) (bool, error), error) {
	if expr == "" {
		return func(string, map[string]any) (bool, error) { return true, nil }, nil
	}
	eval, err := NewEval(expr)
	if err != nil {
		return nil, err
	}
	return func(template string, params map[string]any) (bool, error) {
		return eval.Evaluate(template, params, 0)
	}, nil
}
