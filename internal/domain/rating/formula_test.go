package rating

import (
	"errors"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func ratioFormula() *Formula {
	return &Formula{
		Expr: &Expr{
			Op:    OpDiv,
			Left:  &Expr{Op: OpVar, Name: "actual"},
			Right: &Expr{Op: OpVar, Name: "target"},
		},
		Scale: []ScaleRule{
			{Score: 5, Condition: Condition{GTE: fptr(1.30)}},
			{Score: 4, Condition: Condition{GTE: fptr(1.01), LTE: fptr(1.2999)}},
			{Score: 3, Condition: Condition{GTE: fptr(0.90), LTE: fptr(1.0099)}},
			{Score: 2, Condition: Condition{GTE: fptr(0.70), LTE: fptr(0.8999)}},
			{Score: 1, Condition: Condition{LT: fptr(0.70)}},
		},
	}
}

func TestFormulaEvalFirstMatchWins(t *testing.T) {
	f := ratioFormula()
	cases := []struct {
		actual float64
		want   int
	}{
		{130, 5},
		{110, 4},
		{95, 3},
		{75, 2},
		{20, 1},
	}
	for _, tc := range cases {
		score, err := f.Eval(100, tc.actual)
		if err != nil {
			t.Fatalf("actual=%v: unexpected error: %v", tc.actual, err)
		}
		if score != tc.want {
			t.Fatalf("actual=%v: expected %d, got %d", tc.actual, tc.want, score)
		}
	}
}

func TestFormulaEvalZeroTarget(t *testing.T) {
	score, err := ratioFormula().Eval(0, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0 {
		t.Fatalf("expected 0 for zero target, got %d", score)
	}
}

func TestFormulaEvalDefaultsToOne(t *testing.T) {
	f := &Formula{
		Expr: &Expr{Op: OpVar, Name: "actual"},
		Scale: []ScaleRule{
			{Score: 5, Condition: Condition{GTE: fptr(1000)}},
		},
	}
	score, err := f.Eval(10, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 1 {
		t.Fatalf("expected default 1, got %d", score)
	}
}

func TestFormulaValidateRejectsUnknownOperation(t *testing.T) {
	f := &Formula{
		Expr:  &Expr{Op: "pow", Left: &Expr{Op: OpConst, Value: 2}, Right: &Expr{Op: OpConst, Value: 3}},
		Scale: []ScaleRule{{Score: 5, Condition: Condition{GTE: fptr(1)}}},
	}
	if err := f.Validate(); !errors.Is(err, ErrInvalidFormula) {
		t.Fatalf("expected ErrInvalidFormula, got %v", err)
	}
}

func TestFormulaValidateRejectsUnknownVariable(t *testing.T) {
	f := &Formula{
		Expr:  &Expr{Op: OpVar, Name: "weight"},
		Scale: []ScaleRule{{Score: 5, Condition: Condition{GTE: fptr(1)}}},
	}
	if err := f.Validate(); !errors.Is(err, ErrInvalidFormula) {
		t.Fatalf("expected ErrInvalidFormula, got %v", err)
	}
}

func TestConfigScoreFallsBackOnMalformedFormula(t *testing.T) {
	cfg := Config{
		EnableFormula: true,
		Quantity: &Formula{
			Expr:  &Expr{Op: "noop"},
			Scale: []ScaleRule{{Score: 5, Condition: Condition{GTE: fptr(1)}}},
		},
	}
	score, err := cfg.Score(MetricQuantity, 100, 130)
	if !errors.Is(err, ErrInvalidFormula) {
		t.Fatalf("expected surfaced ErrInvalidFormula, got %v", err)
	}
	if score != 5 {
		t.Fatalf("expected fixed-rule fallback 5, got %d", score)
	}
}

func TestFormulaDivisionByZeroYieldsZero(t *testing.T) {
	f := &Formula{
		Expr: &Expr{
			Op:    OpDiv,
			Left:  &Expr{Op: OpVar, Name: "target"},
			Right: &Expr{Op: OpSub, Left: &Expr{Op: OpVar, Name: "actual"}, Right: &Expr{Op: OpVar, Name: "actual"}},
		},
		Scale: []ScaleRule{
			{Score: 5, Condition: Condition{GT: fptr(0)}},
			{Score: 2, Condition: Condition{EQ: fptr(0)}},
		},
	}
	score, err := f.Eval(100, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 2 {
		t.Fatalf("expected divide-by-zero expression to yield 0 and score 2, got %d", score)
	}
}

func TestParseFormula(t *testing.T) {
	raw := []byte(`{
    "expr": {"op": "div", "left": {"op": "var", "name": "actual"}, "right": {"op": "var", "name": "target"}},
    "scale": [
      {"score": 5, "when": {"gte": 1.3}},
      {"score": 1, "when": {"lt": 1.3}}
    ]
  }`)
	f, err := ParseFormula(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	score, err := f.Eval(100, 140)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 5 {
		t.Fatalf("expected 5, got %d", score)
	}

	if _, err := ParseFormula([]byte(`{"expr": {"op": "shell"}, "scale": []}`)); !errors.Is(err, ErrInvalidFormula) {
		t.Fatalf("expected ErrInvalidFormula, got %v", err)
	}

	f, err = ParseFormula(nil)
	if err != nil || f != nil {
		t.Fatalf("expected nil formula for empty input, got %v %v", f, err)
	}
}
