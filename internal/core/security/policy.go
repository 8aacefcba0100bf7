package security

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/shopspring/decimal"

	"trendzportal/internal/core/apperror"
)

// Action is what the posting engine is about to do with derived rows.
type Action string

const (
	ActionPost   Action = "post"
	ActionUnpost Action = "unpost"
)

// Subject describes a posting about to happen.
type Subject struct {
	Action Action
	Kind   string // finance transaction kind
	Amount decimal.Decimal
	Date   time.Time
}

// PostingPolicy decides whether derived rows may be created or removed.
type PostingPolicy interface {
	Check(ctx context.Context, s Subject) error
}

// OpenPolicy allows everything.
type OpenPolicy struct{}

func (OpenPolicy) Check(context.Context, Subject) error { return nil }

// ClosedPeriodPolicy rejects postings dated before ClosedUntil.
type ClosedPeriodPolicy struct {
	ClosedUntil time.Time
}

func (p ClosedPeriodPolicy) Check(_ context.Context, s Subject) error {
	if !p.ClosedUntil.IsZero() && s.Date.Before(p.ClosedUntil) {
		return apperror.NewPeriodClosed(p.ClosedUntil.Format("2006-01-02")).
			WithDetail("action", string(s.Action)).
			WithDetail("date", s.Date.Format("2006-01-02"))
	}
	return nil
}

// Chain runs policies in order and stops at the first rejection.
type Chain []PostingPolicy

func (c Chain) Check(ctx context.Context, s Subject) error {
	for _, p := range c {
		if p == nil {
			continue
		}
		if err := p.Check(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

type compiledRule struct {
	source string
	prg    cel.Program
}

// RulePolicy evaluates boolean CEL expressions over the subject.
// Available variables: action (string), kind (string), amount (double), date (timestamp).
// Every rule must evaluate to true for the posting to proceed.
type RulePolicy struct {
	rules []compiledRule
}

// NewRulePolicy compiles expressions once.
func NewRulePolicy(exprs ...string) (*RulePolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("action", cel.StringType),
		cel.Variable("kind", cel.StringType),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("date", cel.TimestampType),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	p := &RulePolicy{}
	for _, expr := range exprs {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}
		ast, iss := env.Compile(expr)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("compile rule %q: %w", expr, iss.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule %q must evaluate to bool, got %s", expr, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program rule %q: %w", expr, err)
		}
		p.rules = append(p.rules, compiledRule{source: expr, prg: prg})
	}
	return p, nil
}

// ParseRules splits a ';'-separated list of expressions.
func ParseRules(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ";") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (p *RulePolicy) Check(ctx context.Context, s Subject) error {
	if p == nil {
		return nil
	}
	amount, _ := s.Amount.Float64()
	vars := map[string]any{
		"action": string(s.Action),
		"kind":   s.Kind,
		"amount": amount,
		"date":   s.Date,
	}
	for _, r := range p.rules {
		out, _, err := r.prg.ContextEval(ctx, vars)
		if err != nil {
			return apperror.NewInternal(fmt.Errorf("evaluate rule %q: %w", r.source, err))
		}
		if ok, _ := out.Value().(bool); !ok {
			return apperror.NewBusinessRule(apperror.CodePostingRule, "posting rejected by site rule").
				WithDetail("rule", r.source).
				WithDetail("kind", s.Kind)
		}
	}
	return nil
}

// Len returns the number of compiled rules.
func (p *RulePolicy) Len() int {
	if p == nil {
		return 0
	}
	return len(p.rules)
}
