package eval

import (
	"fmt"

	"github.com/prismlang/prism/internal/prism/adaptive"
	"github.com/prismlang/prism/internal/prism/grammarval"
	"github.com/prismlang/prism/internal/prism/input"
	"github.com/prismlang/prism/internal/prism/pcache"
	"github.com/prismlang/prism/internal/prism/perr"
	"github.com/prismlang/prism/internal/prism/pvalue"
)

// evalAction parses ex.Expr, then builds a Parsed value by evaluating
// ex.Action against the span consumed and the variable map ex.Expr left in
// scope.
func (e *Evaluator) evalAction(ex grammarval.Action, pos input.Pos, g *adaptive.State, flags pcache.ContextFlags, vars pvalue.VarMap, fr *frame) PResult {
	r := e.parseExpr(ex.Expr, pos, g, flags, vars, fr)
	if !r.OK {
		return r
	}
	span := input.Span{Start: pos, Length: r.End.Offset - pos.Offset}
	val, err := e.evalRuleAction(ex.Action, r.Vars, span)
	if err != nil {
		return Fail(pos, perr.NewExplicit(pos, err.Error()))
	}
	r.Value = val
	return r
}

// evalRuleAction recursively evaluates the small RuleAction term language,
// against the variable map left by a successful parse and the span that
// parse covered.
func (e *Evaluator) evalRuleAction(ra grammarval.RuleAction, vars pvalue.VarMap, span input.Span) (pvalue.Parsed, error) {
	switch a := ra.(type) {
	case grammarval.Name:
		v, ok := vars.Get(a.Name)
		if !ok {
			return pvalue.Parsed{}, fmt.Errorf("undefined variable %q in action", a.Name)
		}
		p, ok := v.(pvalue.Parsed)
		if !ok {
			return pvalue.Parsed{}, fmt.Errorf("variable %q is not a parsed value", a.Name)
		}
		return p, nil

	case grammarval.InputLiteral:
		return pvalue.Parsed{Span: span, Value: a.Value}, nil

	case grammarval.Construct:
		args := make([]pvalue.Parsed, len(a.Args))
		for i, argAction := range a.Args {
			v, err := e.evalRuleAction(argAction, vars, span)
			if err != nil {
				return pvalue.Parsed{}, err
			}
			args[i] = v
		}
		handler, ok := e.Registry.Lookup(a.Namespace)
		if !ok {
			return pvalue.Parsed{}, fmt.Errorf("unknown namespace %q", a.Namespace)
		}
		v, err := handler.FromConstruct(span, a.Ctor, args)
		if err != nil {
			return pvalue.Parsed{}, fmt.Errorf("constructing %s.%s: %w", a.Namespace, a.Ctor, err)
		}
		v.Namespace = a.Namespace
		v.Tag = a.Ctor
		v.Span = span
		return v, nil

	case grammarval.Value:
		v, ok := vars.Get(a.Ref)
		if !ok {
			return pvalue.Parsed{}, fmt.Errorf("undefined variable %q in action", a.Ref)
		}
		p, ok := v.(pvalue.Parsed)
		if !ok {
			return pvalue.Parsed{}, fmt.Errorf("variable %q is not a parsed value", a.Ref)
		}
		return pvalue.Parsed{Namespace: a.Namespace, Span: span, Value: &pvalue.EnvCapture{Inner: p, Vars: vars}}, nil
	}
	panic(fmt.Sprintf("eval: unhandled RuleAction %T", ra))
}
