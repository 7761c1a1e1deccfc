// Package metric 提供命名的评分函数注册表（core.Metric 的参考集合）。
package metric

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/tunekit/core"
)

var (
	registry   = make(map[string]core.Metric)
	registryMu sync.RWMutex
)

func init() {
	Register(core.Metric{Name: "accuracy", Fn: Accuracy})
	Register(core.Metric{Name: "precision", Fn: Precision})
	Register(core.Metric{Name: "recall", Fn: Recall})
	Register(core.Metric{Name: "f1", Fn: F1})
	Register(core.Metric{Name: "r2", Fn: R2})
	Register(core.Metric{Name: "mse", Fn: MSE, Cost: true})
	Register(core.Metric{Name: "mae", Fn: MAE, Cost: true})
}

// Register 注册（或覆盖）一个命名指标。
func Register(m core.Metric) {
	if m.Name == "" || m.Fn == nil {
		return
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[m.Name] = m
}

// Get 按名称查找指标；未注册时返回 NOT_FOUND。
func Get(name string) (core.Metric, error) {
	registryMu.RLock()
	m, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return core.Metric{}, core.NewDomainError(core.ModuleMetric, core.ErrorCodeNotFound,
			fmt.Sprintf("metric: %q not registered (supported: %v)", name, Names()))
	}
	return m, nil
}

// Names 返回已注册的指标名称（排序）。
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Accuracy 分类准确率。
func Accuracy(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	correct := 0
	for i := range truth {
		if truth[i] == pred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(truth))
}

// 二分类混淆计数，正类为 1。
func confusion(truth, pred []float64) (tp, fp, fn float64) {
	for i := range truth {
		switch {
		case pred[i] == 1 && truth[i] == 1:
			tp++
		case pred[i] == 1 && truth[i] != 1:
			fp++
		case pred[i] != 1 && truth[i] == 1:
			fn++
		}
	}
	return tp, fp, fn
}

// Precision 二分类查准率（正类为 1）。
func Precision(truth, pred []float64) float64 {
	tp, fp, _ := confusion(truth, pred)
	if tp+fp == 0 {
		return 0
	}
	return tp / (tp + fp)
}

// Recall 二分类查全率（正类为 1）。
func Recall(truth, pred []float64) float64 {
	tp, _, fn := confusion(truth, pred)
	if tp+fn == 0 {
		return 0
	}
	return tp / (tp + fn)
}

// F1 二分类 F1 分数（正类为 1）。
func F1(truth, pred []float64) float64 {
	p := Precision(truth, pred)
	r := Recall(truth, pred)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// MSE 均方误差（cost 指标，越小越好）。
func MSE(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	var sum float64
	for i := range truth {
		d := truth[i] - pred[i]
		sum += d * d
	}
	return sum / float64(len(truth))
}

// MAE 平均绝对误差（cost 指标，越小越好）。
func MAE(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	var sum float64
	for i := range truth {
		d := truth[i] - pred[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum / float64(len(truth))
}

// R2 决定系数。
func R2(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	var mean float64
	for _, v := range truth {
		mean += v
	}
	mean /= float64(len(truth))

	var ssRes, ssTot float64
	for i := range truth {
		d := truth[i] - pred[i]
		ssRes += d * d
		t := truth[i] - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
