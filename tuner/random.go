package tuner

import (
	"context"
	"math/rand"
	"sync"

	"github.com/rushteam/tunekit/core"
)

// RandomTuner 是均匀随机搜索（默认的 core.Tuner 实现）。
// 第一次 Propose 返回默认超参作为基线，之后每次独立均匀采样；
// Record 不更新任何状态（随机搜索不从历史中学习）。
type RandomTuner struct {
	mu       sync.Mutex
	tunable  *Tunable
	rng      *rand.Rand
	proposed int
}

func NewRandomTuner(tunable *Tunable, seed int64) *RandomTuner {
	return &RandomTuner{
		tunable: tunable,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (t *RandomTuner) Propose(_ context.Context) (map[string]any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.proposed++
	if t.proposed == 1 {
		return t.tunable.Defaults(), nil
	}
	return t.tunable.Sample(t.rng), nil
}

func (t *RandomTuner) Record(_ map[string]any, _ float64) error {
	return nil
}

var _ core.Tuner = (*RandomTuner)(nil)
