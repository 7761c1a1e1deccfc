package tune

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/tunekit/core"
	"github.com/rushteam/tunekit/pipeline"
	"github.com/rushteam/tunekit/tuner"
)

// foldSplit 是一折的缓存：static 段在 train/test 上的输出，
// 每次调参试验直接从这里续跑 tunable 段。
type foldSplit struct {
	fold       int
	pipeline   *pipeline.Pipeline
	fitCtx     *core.Dataset // train 分区经 static 段后的输出
	produceCtx *core.Dataset // test 分区经 static 段后的输出
	yTest      []float64
	static     int // tunable 段起点（第一个可调步骤的下标）
}

// templateSplits 是单个模板的全部折缓存。
type templateSplits struct {
	template string
	folds    []*foldSplit
}

// materializeSplits 为一个模板物化交叉验证缓存：
//
//  1. preprocessing 段在全量数据上执行一次（要求各步骤保持行数不变，
//     折内下标才能对齐）；
//  2. 按划分器分折，每折构建独立的 Pipeline，在 train/test 分区上
//     执行一次 static 段的 Fit/Produce 并缓存输出。
//
// 各折的 static 计算相互独立，并发物化。
func (t *PipelineTuner) materializeSplits(ctx context.Context, template string, ds *core.Dataset) (*templateSplits, error) {
	probe, err := t.buildPipeline(template, nil)
	if err != nil {
		return nil, err
	}
	static := probe.FirstTunableIndex()
	prep := t.preprocessingFor(template)

	pre := ds
	if prep > 0 {
		prePipeline, err := t.buildPipeline(template, nil)
		if err != nil {
			return nil, err
		}
		pre, err = prePipeline.Fit(ctx, ds, pipeline.WithStopAfter(prep-1))
		if err != nil {
			return nil, fmt.Errorf("preprocessing %s: %w", template, err)
		}
		if pre.Len() != ds.Len() {
			return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput,
				fmt.Sprintf("tune: template %s: preprocessing changed row count %d -> %d", template, ds.Len(), pre.Len()))
		}
	}

	cvFolds, err := t.splitter.Split(pre.Target)
	if err != nil {
		return nil, err
	}

	splits := make([]*foldSplit, len(cvFolds))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, fold := range cvFolds {
		eg.Go(func() error {
			trainDS := pre.Subset(fold.Train)
			testDS := pre.Subset(fold.Test)

			p, err := t.buildPipeline(template, nil)
			if err != nil {
				return err
			}

			fitCtx, produceCtx := trainDS, testDS
			if static > prep {
				fitCtx, err = p.Fit(egCtx, trainDS,
					pipeline.WithStart(prep), pipeline.WithStopAfter(static-1))
				if err != nil {
					return fmt.Errorf("static fit fold %d: %w", i, err)
				}
				produceCtx, err = p.Produce(egCtx, testDS,
					pipeline.WithStart(prep), pipeline.WithStopAfter(static-1))
				if err != nil {
					return fmt.Errorf("static produce fold %d: %w", i, err)
				}
			}

			splits[i] = &foldSplit{
				fold:       i,
				pipeline:   p,
				fitCtx:     fitCtx,
				produceCtx: produceCtx,
				yTest:      testDS.Target,
				static:     static,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &templateSplits{template: template, folds: splits}, nil
}

// CrossValidate 在缓存的折上计算一组超参的交叉验证分数（各折平均），
// 并在更优时更新全局最优配置。
//
// 每折只执行 tunable 段：设置超参、从 static 边界续跑 Fit、预测、打分。
func (t *PipelineTuner) CrossValidate(ctx context.Context, splits *templateSplits, params map[string]any) (float64, error) {
	if splits == nil || len(splits.folds) == 0 {
		return 0, core.NewDomainError(core.ModuleTuner, core.ErrorCodeInvalidInput,
			"tune: no splits to cross-validate")
	}

	var sum float64
	for _, fs := range splits.folds {
		p := fs.pipeline
		if len(params) > 0 {
			if err := p.SetHyperparams(params); err != nil {
				return 0, err
			}
		}

		var preds []float64
		if fs.static < p.Len() {
			if _, err := p.Fit(ctx, fs.fitCtx, pipeline.WithStart(fs.static)); err != nil {
				return 0, fmt.Errorf("tunable fit fold %d: %w", fs.fold, err)
			}
			var err error
			preds, err = p.Predict(ctx, fs.produceCtx, pipeline.WithStart(fs.static))
			if err != nil {
				return 0, fmt.Errorf("tunable predict fold %d: %w", fs.fold, err)
			}
		} else {
			// 整条链全是静态步骤：预测在物化时已经算好
			if fs.produceCtx.Predictions == nil {
				return 0, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInternalError,
					"tune: static pipeline produced no predictions")
			}
			preds = fs.produceCtx.Predictions
		}

		sum += t.metric.Fn(fs.yTest, preds)
	}

	cvScore := sum / float64(len(splits.folds))
	if err := t.recordBest(splits.template, params, cvScore); err != nil {
		return 0, err
	}
	return cvScore, nil
}

// Tune 物化所有模板的折缓存，在其上运行一个调参会话。
//
// 某个模板物化失败不致命：会话只在成功的模板间调参；全部失败才返回错误。
// 返回会话本身，调用方可继续 Run 更多迭代或读取试验记录。
func (t *PipelineTuner) Tune(ctx context.Context, ds *core.Dataset, iterations int) (*tuner.Session, error) {
	allSplits := make(map[string]*templateSplits, len(t.order))
	tunables := make(map[string]*tuner.Tunable, len(t.order))
	var lastErr error

	for _, template := range t.order {
		splits, err := t.materializeSplits(ctx, template, ds)
		if err != nil {
			lastErr = fmt.Errorf("materialize %s: %w", template, err)
			continue
		}

		p, err := t.buildPipeline(template, nil)
		if err != nil {
			return nil, err
		}
		tunable, err := tuner.NewTunable(p.Tunables())
		if err != nil {
			return nil, fmt.Errorf("tunables %s: %w", template, err)
		}

		allSplits[template] = splits
		tunables[template] = tunable
	}
	if len(allSplits) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, core.NewDomainError(core.ModuleTuner, core.ErrorCodeInvalidInput,
			"tune: no templates to tune")
	}

	scorer := func(ctx context.Context, template string, params map[string]any) (float64, error) {
		return t.CrossValidate(ctx, allSplits[template], params)
	}

	session, err := tuner.NewSession(tunables, scorer, !t.metric.Cost, t.sessionOpts...)
	if err != nil {
		return nil, err
	}
	if iterations > 0 {
		if _, err := session.Run(ctx, iterations); err != nil {
			return session, err
		}
	}
	return session, nil
}
