// Package split 提供交叉验证划分器（core.Splitter 的参考实现）。
package split

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/rushteam/tunekit/core"
)

// KFold 把样本按行下标切成 K 折。
// 固定 Seed 时结果确定；Shuffle 为 false 时按原始顺序切分。
type KFold struct {
	Splits  int
	Shuffle bool
	Seed    int64
}

func NewKFold(splits int, shuffle bool, seed int64) *KFold {
	return &KFold{Splits: splits, Shuffle: shuffle, Seed: seed}
}

func (s *KFold) Split(y []float64) ([]core.Fold, error) {
	n := len(y)
	if err := validate(s.Splits, n); err != nil {
		return nil, err
	}

	indexes := make([]int, n)
	for i := range indexes {
		indexes[i] = i
	}
	if s.Shuffle {
		rng := rand.New(rand.NewSource(s.Seed))
		rng.Shuffle(n, func(i, j int) {
			indexes[i], indexes[j] = indexes[j], indexes[i]
		})
	}

	// 前 n%k 折各多分一个样本，保证并集覆盖全部行
	folds := make([][]int, s.Splits)
	base := n / s.Splits
	extra := n % s.Splits
	cursor := 0
	for f := 0; f < s.Splits; f++ {
		size := base
		if f < extra {
			size++
		}
		folds[f] = indexes[cursor : cursor+size]
		cursor += size
	}

	return assemble(folds, n), nil
}

// StratifiedKFold 按 y 的取值分层切折，各折内类别比例与整体接近。
// 层内顺序可选打乱；层按类别值排序后轮转分配，保证确定性。
type StratifiedKFold struct {
	Splits  int
	Shuffle bool
	Seed    int64
}

func NewStratifiedKFold(splits int, shuffle bool, seed int64) *StratifiedKFold {
	return &StratifiedKFold{Splits: splits, Shuffle: shuffle, Seed: seed}
}

func (s *StratifiedKFold) Split(y []float64) ([]core.Fold, error) {
	n := len(y)
	if err := validate(s.Splits, n); err != nil {
		return nil, err
	}

	byClass := make(map[float64][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]float64, 0, len(byClass))
	for label := range byClass {
		classes = append(classes, label)
	}
	sort.Float64s(classes)

	rng := rand.New(rand.NewSource(s.Seed))
	folds := make([][]int, s.Splits)
	for _, label := range classes {
		members := byClass[label]
		if len(members) < s.Splits {
			return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
				fmt.Sprintf("split: class %v has %d samples, need at least %d", label, len(members), s.Splits))
		}
		if s.Shuffle {
			rng.Shuffle(len(members), func(i, j int) {
				members[i], members[j] = members[j], members[i]
			})
		}
		for i, idx := range members {
			f := i % s.Splits
			folds[f] = append(folds[f], idx)
		}
	}

	return assemble(folds, n), nil
}

func validate(splits, n int) error {
	if splits < 2 {
		return core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
			fmt.Sprintf("split: need at least 2 folds, got %d", splits))
	}
	if n < splits {
		return core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput,
			fmt.Sprintf("split: %d samples cannot be split into %d folds", n, splits))
	}
	return nil
}

// assemble 把每折的测试下标补上互补的训练下标。
func assemble(testFolds [][]int, n int) []core.Fold {
	out := make([]core.Fold, len(testFolds))
	for f, test := range testFolds {
		inTest := make(map[int]bool, len(test))
		for _, i := range test {
			inTest[i] = true
		}
		train := make([]int, 0, n-len(test))
		for i := 0; i < n; i++ {
			if !inTest[i] {
				train = append(train, i)
			}
		}
		sortedTest := append([]int(nil), test...)
		sort.Ints(sortedTest)
		out[f] = core.Fold{Train: train, Test: sortedTest}
	}
	return out
}

var (
	_ core.Splitter = (*KFold)(nil)
	_ core.Splitter = (*StratifiedKFold)(nil)
)
