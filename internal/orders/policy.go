package orders

import (
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// DefaultRefundRule is the eligibility rule applied when the config does not
// override it.
const DefaultRefundRule = `status in ["delivered", "in_transit"] && days_since <= 60`

// RefundPolicy decides whether an order is eligible for a refund. The rule
// is an expr program evaluated against the order's attributes.
type RefundPolicy struct {
	rule    string
	program *vm.Program
}

// CompileRefundPolicy compiles a rule expression. An empty rule compiles to
// the default rule.
func CompileRefundPolicy(rule string) (*RefundPolicy, error) {
	if rule == "" {
		rule = DefaultRefundRule
	}
	program, err := expr.Compile(rule, expr.Env(policyEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("orders: compile refund rule: %w", err)
	}
	return &RefundPolicy{rule: rule, program: program}, nil
}

// Rule returns the rule expression in force.
func (p *RefundPolicy) Rule() string { return p.rule }

type policyEnv struct {
	Status    string  `expr:"status"`
	Total     float64 `expr:"total"`
	DaysSince int     `expr:"days_since"`
}

// Eligible evaluates the rule against an order.
func (p *RefundPolicy) Eligible(o *Order) (bool, error) {
	env := policyEnv{
		Status:    o.Status,
		Total:     o.Total,
		DaysSince: int(time.Since(o.OrderedAt).Hours() / 24),
	}
	out, err := expr.Run(p.program, env)
	if err != nil {
		return false, fmt.Errorf("orders: evaluate refund rule: %w", err)
	}
	ok, _ := out.(bool)
	return ok, nil
}
