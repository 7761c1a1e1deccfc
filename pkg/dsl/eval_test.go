package dsl

import "testing"

func TestEval_Evaluate(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		template string
		params   map[string]any
		score    float64
		want     bool
	}{
		{
			name:   "param comparison true",
			expr:   `params["logistic#1.epochs"] <= 100`,
			params: map[string]any{"logistic#1.epochs": 50},
			want:   true,
		},
		{
			name:   "param comparison false",
			expr:   `params["logistic#1.epochs"] <= 100`,
			params: map[string]any{"logistic#1.epochs": 150},
			want:   false,
		},
		{
			name:     "template guard",
			expr:     `template != "slow" || params["k"] < 4`,
			template: "slow",
			params:   map[string]any{"k": 2},
			want:     true,
		},
		{
			name:  "score filter",
			expr:  `score >= 0.8`,
			score: 0.9,
			want:  true,
		},
		{
			name:   "combined budget",
			expr:   `params["k"] * params["epochs"] <= 100`,
			params: map[string]any{"k": 5, "epochs": 30},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEval(tt.expr)
			if err != nil {
				t.Fatalf("NewEval() error = %v", err)
			}
			got, err := e.Evaluate(tt.template, tt.params, tt.score)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEval_CompileError(t *testing.T) {
	if _, err := NewEval(`params[`); err == nil {
		t.Error("invalid expression should fail to compile")
	}
	if _, err := NewEval(`unknown_var > 1`); err == nil {
		t.Error("undeclared variable should fail to compile")
	}
}

func TestEval_NonBooleanResult(t *testing.T) {
	e, err := NewEval(`score + 1.0`)
	if err != nil {
		t.Fatalf("NewEval() error = %v", err)
	}
	if _, err := e.Evaluate("", nil, 0); err == nil {
		t.Error("non-boolean expression should fail at Evaluate")
	}
}

func TestNewConstraint(t *testing.T) {
	// empty expression accepts everything
	always, err := NewConstraint("")
	if err != nil {
		t.Fatalf("NewConstraint(\"\") error = %v", err)
	}
	if ok, err := always("any", nil); err != nil || !ok {
		t.Errorf("empty constraint = %v, %v", ok, err)
	}

	c, err := NewConstraint(`params["k"] <= 5`)
	if err != nil {
		t.Fatalf("NewConstraint() error = %v", err)
	}
	if ok, err := c("t", map[string]any{"k": 3}); err != nil || !ok {
		t.Errorf("constraint(3) = %v, %v, want accept", ok, err)
	}
	if ok, err := c("t", map[string]any{"k": 8}); err != nil || ok {
		t.Errorf("constraint(8) = %v, %v, want reject", ok, err)
	}
}
