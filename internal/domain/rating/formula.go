package rating

import (
	"encoding/json"
	"fmt"
)

// Formula is a configurable scoring rule set: an expression evaluated
// over the target/actual pair plus an ordered scale mapping score to a
// numeric condition. The expression language is a closed set of
// operations; anything else is rejected at validation time rather than
// interpreted.
type Formula struct {
	Expr  *Expr       `json:"expr"`
	Scale []ScaleRule `json:"scale"`
}

type Expr struct {
	Op    string  `json:"op"`
	Value float64 `json:"value,omitempty"`
	Name  string  `json:"name,omitempty"`
	Left  *Expr   `json:"left,omitempty"`
	Right *Expr   `json:"right,omitempty"`
}

const (
	OpConst = "const"
	OpVar   = "var"
	OpAdd   = "add"
	OpSub   = "sub"
	OpMul   = "mul"
	OpDiv   = "div"
)

// ScaleRule binds one score to its matching condition. Rules are tested
// in slice order; the first match wins.
type ScaleRule struct {
	Score     int       `json:"score"`
	Condition Condition `json:"when"`
}

// Condition is a numeric test. Boundaries are inclusive exactly as the
// operator names say. When both GTE and LTE are set the condition is the
// closed range [gte, lte].
type Condition struct {
	LT  *float64 `json:"lt,omitempty"`
	LTE *float64 `json:"lte,omitempty"`
	GTE *float64 `json:"gte,omitempty"`
	GT  *float64 `json:"gt,omitempty"`
	EQ  *float64 `json:"eq,omitempty"`
}

func (c Condition) matches(value float64) bool {
	if c.GTE != nil && c.LTE != nil {
		return value >= *c.GTE && value <= *c.LTE
	}
	switch {
	case c.LT != nil:
		return value < *c.LT
	case c.LTE != nil:
		return value <= *c.LTE
	case c.GTE != nil:
		return value >= *c.GTE
	case c.GT != nil:
		return value > *c.GT
	case c.EQ != nil:
		return value == *c.EQ
	}
	return false
}

func (c Condition) empty() bool {
	return c.LT == nil && c.LTE == nil && c.GTE == nil && c.GT == nil && c.EQ == nil
}

// Validate rejects formulas referencing undefined operations, variables
// or scores before any evaluation takes place.
func (f *Formula) Validate() error {
	if f == nil {
		return ErrMissingFormula
	}
	if f.Expr == nil {
		return fmt.Errorf("%w: expression is required", ErrInvalidFormula)
	}
	if err := f.Expr.validate(); err != nil {
		return err
	}
	if len(f.Scale) == 0 {
		return fmt.Errorf("%w: scale has no rules", ErrInvalidFormula)
	}
	for _, rule := range f.Scale {
		if rule.Score < 1 || rule.Score > 5 {
			return fmt.Errorf("%w: scale score %d out of range", ErrInvalidFormula, rule.Score)
		}
		if rule.Condition.empty() {
			return fmt.Errorf("%w: scale score %d has no condition", ErrInvalidFormula, rule.Score)
		}
	}
	return nil
}

func (e *Expr) validate() error {
	switch e.Op {
	case OpConst:
		return nil
	case OpVar:
		if e.Name != "target" && e.Name != "actual" {
			return fmt.Errorf("%w: unknown variable %q", ErrInvalidFormula, e.Name)
		}
		return nil
	case OpAdd, OpSub, OpMul, OpDiv:
		if e.Left == nil || e.Right == nil {
			return fmt.Errorf("%w: %s needs two operands", ErrInvalidFormula, e.Op)
		}
		if err := e.Left.validate(); err != nil {
			return err
		}
		return e.Right.validate()
	}
	return fmt.Errorf("%w: unknown operation %q", ErrInvalidFormula, e.Op)
}

// Eval evaluates the formula for one observation. A zero target yields
// score 0 without touching the scale; division by zero inside the
// expression yields 0 for that sub-expression by the same convention.
func (f *Formula) Eval(target, actual float64) (int, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	if target == 0 {
		return 0, nil
	}
	value := f.Expr.eval(target, actual)
	for _, rule := range f.Scale {
		if rule.Condition.matches(value) {
			return rule.Score, nil
		}
	}
	return 1, nil
}

func (e *Expr) eval(target, actual float64) float64 {
	switch e.Op {
	case OpConst:
		return e.Value
	case OpVar:
		if e.Name == "target" {
			return target
		}
		return actual
	case OpAdd:
		return e.Left.eval(target, actual) + e.Right.eval(target, actual)
	case OpSub:
		return e.Left.eval(target, actual) - e.Right.eval(target, actual)
	case OpMul:
		return e.Left.eval(target, actual) * e.Right.eval(target, actual)
	case OpDiv:
		divisor := e.Right.eval(target, actual)
		if divisor == 0 {
			return 0
		}
		return e.Left.eval(target, actual) / divisor
	}
	return 0
}

// ParseFormula decodes a stored formula document. Unknown JSON fields
// are ignored; structural problems surface through Validate.
func ParseFormula(raw []byte) (*Formula, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var formula Formula
	if err := json.Unmarshal(raw, &formula); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormula, err)
	}
	if err := formula.Validate(); err != nil {
		return nil, err
	}
	return &formula, nil
}
