package tuner

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/rushteam/tunekit/core"
)

// Scorer 对（模板, 超参）组合打分。返回 error 记一次失败，
// 连续失败达到错误预算的模板会被淘汰。
type Scorer func(ctx context.Context, template string, params map[string]any) (float64, error)

// Trial 是一次完整的试验记录。
type Trial struct {
	ID       string         `json:"id"`
	Template string         `json:"template"`
	Params   map[string]any `json:"params"`
	Score    float64        `json:"score"`
	At       time.Time      `json:"at"`
}

// Constraint 对提议的超参做约束检查；返回 false 表示拒绝该组合。
type Constraint func(template string, params map[string]any) (bool, error)

// TunerFactory 为每个模板创建一个 core.Tuner。
type TunerFactory func(tunable *Tunable, seed int64) core.Tuner

// Session 是跨模板的调参会话：轮番在候选模板间提议超参、打分、
// 记录，并维护全局最优。模板选择在“最优模板”与随机探索间平衡；
// 连续失败超过错误预算的模板会被淘汰，不再提议。
type Session struct {
	templates []string
	tuners    map[string]core.Tuner
	scorer    Scorer
	maximize  bool

	rng         *rand.Rand
	explore     float64 // 随机探索概率
	errorBudget int
	rejectLimit int // 约束连续拒绝的放弃阈值

	constraint   Constraint
	leaderboard  core.KeyValueStore
	lbKey        string
	tunerFactory TunerFactory

	errors  map[string]int
	retired map[string]bool
	bestOf  map[string]float64 // 模板 -> 该模板的历史最优（按 maximize 方向）
	tried   map[string]int

	trials []Trial
	best   *Trial
}

// SessionOption 配置 Session 的可选行为。
type SessionOption func(*Session)

// WithSeed 固定会话内模板选择与默认调参器的随机种子。
func WithSeed(seed int64) SessionOption {
	return func(s *Session) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithErrorBudget 设置单模板连续失败的淘汰阈值，默认 3。
func WithErrorBudget(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.errorBudget = n
		}
	}
}

// WithExplore 设置随机探索概率（0~1），默认 0.1。
func WithExplore(p float64) SessionOption {
	return func(s *Session) {
		if p >= 0 && p <= 1 {
			s.explore = p
		}
	}
}

// WithConstraint 设置超参约束；被拒绝的提议不计入迭代次数。
func WithConstraint(c Constraint) SessionOption {
	return func(s *Session) { s.constraint = c }
}

// WithLeaderboard 把每次试验写入排行榜：
// zset（member=试验 ID，score=分数）+ hash（field=试验 ID，value=Trial JSON）。
func WithLeaderboard(store core.KeyValueStore, key string) SessionOption {
	return func(s *Session) {
		s.leaderboard = store
		s.lbKey = key
	}
}

// WithTunerFactory 替换默认的随机搜索调参器（接入外部优化算法的入口）。
func WithTunerFactory(f TunerFactory) SessionOption {
	return func(s *Session) { s.tunerFactory = f }
}

func (s *Session) setDefaults() {
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.errorBudget == 0 {
		s.errorBudget = 3
	}
	if s.rejectLimit == 0 {
		s.rejectLimit = 100
	}
	if s.tunerFactory == nil {
		s.tunerFactory = func(t *Tunable, seed int64) core.Tuner {
			return NewRandomTuner(t, seed)
		}
	}
}

// NewSession 创建调参会话。
// tunables 按模板名给出各自的超参空间；maximize 为 false 时按 cost
// 方向（分数越小越好）维护最优。
func NewSession(tunables map[string]*Tunable, scorer Scorer, maximize bool, opts ...SessionOption) (*Session, error) {
	if len(tunables) == 0 {
		return nil, core.NewDomainError(core.ModuleTuner, core.ErrorCodeInvalidInput,
			"session: no tunables")
	}
	if scorer == nil {
		return nil, core.NewDomainError(core.ModuleTuner, core.ErrorCodeInvalidInput,
			"session: nil scorer")
	}

	s := &Session{
		scorer:   scorer,
		maximize: maximize,
		explore:  0.1,
		errors:   make(map[string]int),
		retired:  make(map[string]bool),
		bestOf:   make(map[string]float64),
		tried:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setDefaults()

	for name, tunable := range tunables {
		s.templates = append(s.templates, name)
		if s.tuners == nil {
			s.tuners = make(map[string]core.Tuner, len(tunables))
		}
		s.tuners[name] = s.tunerFactory(tunable, s.rng.Int63())
	}
	return s, nil
}

// Run 执行 iterations 次试验，返回全局最优。
func (s *Session) Run(ctx context.Context, iterations int) (*Trial, error) {
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return s.best, err
		}
		if err := s.step(ctx); err != nil {
			if core.IsExhausted(err) && s.best != nil {
				return s.best, nil
			}
			return s.best, err
		}
	}
	return s.best, nil
}

// step 执行一次 提议 -> 约束检查 -> 打分 -> 记录。
func (s *Session) step(ctx context.Context) error {
	template, err := s.pickTemplate()
	if err != nil {
		return err
	}
	tuner := s.tuners[template]

	var params map[string]any
	for attempt := 0; ; attempt++ {
		if attempt >= s.rejectLimit {
			return core.NewDomainError(core.ModuleTuner, core.ErrorCodeExhausted,
				fmt.Sprintf("session: constraint rejected %d proposals for %s", attempt, template))
		}
		params, err = tuner.Propose(ctx)
		if err != nil {
			return fmt.Errorf("propose %s: %w", template, err)
		}
		if s.constraint == nil {
			break
		}
		ok, cerr := s.constraint(template, params)
		if cerr != nil {
			return fmt.Errorf("constraint %s: %w", template, cerr)
		}
		if ok {
			break
		}
	}

	s.tried[template]++
	score, err := s.scorer(ctx, template, params)
	if err != nil {
		s.errors[template]++
		if s.errors[template] >= s.errorBudget {
			s.retired[template] = true
		}
		return nil // 打分失败不终止会话，换模板继续
	}
	s.errors[template] = 0

	// 调参器内部统一按“越大越好”；cost 方向取负
	recorded := score
	if !s.maximize {
		recorded = -score
	}
	if err := tuner.Record(params, recorded); err != nil {
		return fmt.Errorf("record %s: %w", template, err)
	}

	trial := Trial{
		ID:       trialID(template, params),
		Template: template,
		Params:   params,
		Score:    score,
		At:       time.Now(),
	}
	s.trials = append(s.trials, trial)

	if prev, ok := s.bestOf[template]; !ok || s.better(score, prev) {
		s.bestOf[template] = score
	}
	if s.best == nil || s.better(score, s.best.Score) {
		copied := trial
		s.best = &copied
	}

	if s.leaderboard != nil {
		s.publish(ctx, trial)
	}
	return nil
}

func (s *Session) better(candidate, current float64) bool {
	if s.maximize {
		return candidate > current
	}
	return candidate < current
}

// pickTemplate 选择下一个模板：未试过的优先，之后以 explore 概率
// 随机探索，否则选历史最优的模板。
func (s *Session) pickTemplate() (string, error) {
	var active []string
	for _, t := range s.templates {
		if !s.retired[t] {
			active = append(active, t)
		}
	}
	if len(active) == 0 {
		return "", core.NewDomainError(core.ModuleTuner, core.ErrorCodeExhausted,
			"session: all templates retired")
	}

	for _, t := range active {
		if s.tried[t] == 0 {
			return t, nil
		}
	}

	if s.rng.Float64() < s.explore {
		return active[s.rng.Intn(len(active))], nil
	}

	best := active[0]
	for _, t := range active[1:] {
		if score, ok := s.bestOf[t]; ok {
			if bestScore, bok := s.bestOf[best]; !bok || s.better(score, bestScore) {
				best = t
			}
		}
	}
	return best, nil
}

// publish 写排行榜；存储故障只记录在试验之外，不影响调参循环。
func (s *Session) publish(ctx context.Context, trial Trial) {
	if err := s.leaderboard.ZAdd(ctx, s.lbKey, trial.Score, trial.ID); err != nil {
		return
	}
	detail, err := json.Marshal(trial)
	if err != nil {
		return
	}
	_ = s.leaderboard.HSet(ctx, s.lbKey+":detail", trial.ID, detail)
}

// Best 返回全局最优试验；尚无成功试验时返回 nil。
func (s *Session) Best() *Trial { return s.best }

// Trials 返回全部成功试验（按发生顺序）。
func (s *Session) Trials() []Trial { return s.trials }

// Errors 返回各模板当前的连续失败计数。
func (s *Session) Errors() map[string]int {
	out := make(map[string]int, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// Retired 报告模板是否已被淘汰。
func (s *Session) Retired(template string) bool { return s.retired[template] }

// trialID 由模板名和超参内容生成稳定的试验 ID。
func trialID(template string, params map[string]any) string {
	data, _ := json.Marshal(params)
	sum := md5.Sum(data)
	return template + ":" + hex.EncodeToString(sum[:])[:12]
}
