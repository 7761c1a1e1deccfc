package tuner

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rushteam/tunekit/core"
	"github.com/rushteam/tunekit/store"
)

func sessionTunables(t *testing.T, names ...string) map[string]*Tunable {
	t.Helper()
	out := make(map[string]*Tunable, len(names))
	for _, name := range names {
		tunable, err := NewTunable(map[string]core.Hyperparam{
			"p": {Type: core.HyperparamInt, Range: []any{0, 10}},
		})
		if err != nil {
			t.Fatal(err)
		}
		out[name] = tunable
	}
	return out
}

func TestSession_FindsBest(t *testing.T) {
	// score is the proposed value itself, so the best trial has the highest p
	scorer := func(_ context.Context, _ string, params map[string]any) (float64, error) {
		return float64(params["p"].(int)), nil
	}

	s, err := NewSession(sessionTunables(t, "a"), scorer, true, WithSeed(5))
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	best, err := s.Run(context.Background(), 30)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if best == nil {
		t.Fatal("Run() returned nil best")
	}
	if len(s.Trials()) != 30 {
		t.Errorf("got %d trials, want 30", len(s.Trials()))
	}

	for _, trial := range s.Trials() {
		if trial.Score > best.Score {
			t.Errorf("trial %v beats reported best %v", trial, best)
		}
	}
	if best != s.Best() && best.ID != s.Best().ID {
		t.Error("Run result and Best() disagree")
	}
}

func TestSession_MinimizeDirection(t *testing.T) {
	scorer := func(_ context.Context, _ string, params map[string]any) (float64, error) {
		return float64(params["p"].(int)), nil
	}

	s, err := NewSession(sessionTunables(t, "a"), scorer, false, WithSeed(5))
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	best, err := s.Run(context.Background(), 30)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, trial := range s.Trials() {
		if trial.Score < best.Score {
			t.Errorf("trial %v beats reported best %v", trial, best)
		}
	}
}

func TestSession_ErrorBudgetRetiresTemplate(t *testing.T) {
	scorer := func(_ context.Context, template string, params map[string]any) (float64, error) {
		if template == "bad" {
			return 0, errors.New("boom")
		}
		return float64(params["p"].(int)), nil
	}

	s, err := NewSession(sessionTunables(t, "good", "bad"), scorer, true,
		WithSeed(2), WithErrorBudget(2))
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	best, err := s.Run(context.Background(), 40)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !s.Retired("bad") {
		t.Error("failing template was not retired")
	}
	if s.Retired("good") {
		t.Error("healthy template was retired")
	}
	if best == nil || best.Template != "good" {
		t.Errorf("best = %+v, want a trial from the good template", best)
	}
}

func TestSession_AllTemplatesFail(t *testing.T) {
	scorer := func(_ context.Context, _ string, _ map[string]any) (float64, error) {
		return 0, errors.New("boom")
	}

	s, err := NewSession(sessionTunables(t, "a"), scorer, true,
		WithSeed(2), WithErrorBudget(2))
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	best, err := s.Run(context.Background(), 10)
	if best != nil {
		t.Errorf("best = %+v, want nil", best)
	}
	if !core.IsExhausted(err) {
		t.Errorf("error = %v, want EXHAUSTED", err)
	}
}

func TestSession_ConstraintFiltersProposals(t *testing.T) {
	scorer := func(_ context.Context, _ string, params map[string]any) (float64, error) {
		return float64(params["p"].(int)), nil
	}
	constraint := func(_ string, params map[string]any) (bool, error) {
		return params["p"].(int) <= 5, nil
	}

	s, err := NewSession(sessionTunables(t, "a"), scorer, true,
		WithSeed(3), WithConstraint(constraint))
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if _, err := s.Run(context.Background(), 20); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, trial := range s.Trials() {
		if trial.Params["p"].(int) > 5 {
			t.Errorf("constraint violated: %v", trial.Params)
		}
	}
}

func TestSession_PublishesLeaderboard(t *testing.T) {
	kv := store.NewMemoryStore()
	defer kv.Close()

	scorer := func(_ context.Context, _ string, params map[string]any) (float64, error) {
		return float64(params["p"].(int)), nil
	}

	s, err := NewSession(sessionTunables(t, "a"), scorer, true,
		WithSeed(8), WithLeaderboard(kv, "lb"))
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	best, err := s.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	top, err := kv.ZRange(context.Background(), "lb", 0, 0)
	if err != nil {
		t.Fatalf("ZRange() error = %v", err)
	}
	if len(top) != 1 || top[0] != best.ID {
		t.Errorf("leaderboard top = %v, want [%s]", top, best.ID)
	}

	detail, err := kv.HGet(context.Background(), "lb:detail", best.ID)
	if err != nil {
		t.Fatalf("HGet() error = %v", err)
	}
	var trial Trial
	if err := json.Unmarshal(detail, &trial); err != nil {
		t.Fatalf("detail is not valid trial JSON: %v", err)
	}
	if trial.Score != best.Score {
		t.Errorf("detail score = %v, want %v", trial.Score, best.Score)
	}
}
