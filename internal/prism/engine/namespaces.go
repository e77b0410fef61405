package engine

import (
	"fmt"

	"github.com/prismlang/prism/internal/prism/grammarval"
	"github.com/prismlang/prism/internal/prism/input"
	"github.com/prismlang/prism/internal/prism/pvalue"
)

// NewRegistry returns a pvalue.Registry with the two built-in namespaces
// every grammar can rely on without registering its own handlers:
// "grammar-meta" (so grammars can be parsed and @adapt deltas built by the
// same engine that runs them) and "json" (a generic value namespace
// example/test grammars and the server's POST /parses endpoint use to avoid
// requiring every caller to register its own namespace).
func NewRegistry() *pvalue.Registry {
	r := pvalue.NewRegistry()
	r.Register("grammar-meta", grammarMetaNamespace{})
	r.Register("json", jsonNamespace{})
	return r
}

// grammarMetaNamespace constructs grammarval nodes from Construct actions,
// used both by internal/prism/metasyntax's own grammar (parsing grammar
// source is itself a Prism parse whose actions build grammarval values) and
// directly by @adapt bodies that assemble a grammarval.File to install.
type grammarMetaNamespace struct{}

func (grammarMetaNamespace) FromConstruct(span input.Span, ctor string, args []pvalue.Parsed) (pvalue.Parsed, error) {
	switch ctor {
	case "GrammarFile":
		rules := make([]grammarval.Rule, len(args))
		for i, a := range args {
			rules[i] = pvalue.As[grammarval.Rule](a)
		}
		return pvalue.Parsed{Span: span, Value: grammarval.File{Rules: rules}}, nil

	case "Rule":
		if len(args) != 4 {
			return pvalue.Parsed{}, fmt.Errorf("grammar-meta.Rule expects 4 args, got %d", len(args))
		}
		return pvalue.Parsed{Span: span, Value: grammarval.Rule{
			Name:       pvalue.As[string](args[0]),
			Params:     pvalue.As[[]grammarval.Param](args[1]),
			Blocks:     pvalue.As[[]grammarval.Block](args[2]),
			ReturnType: pvalue.As[string](args[3]),
		}}, nil

	case "Block":
		if len(args) != 2 {
			return pvalue.Parsed{}, fmt.Errorf("grammar-meta.Block expects 2 args, got %d", len(args))
		}
		return pvalue.Parsed{Span: span, Value: grammarval.Block{
			Name:    pvalue.As[string](args[0]),
			Choices: pvalue.As[[]grammarval.AnnotatedRuleExpr](args[1]),
		}}, nil

	case "Literal":
		return pvalue.Parsed{Span: span, Value: grammarval.Literal{Value: pvalue.As[string](args[0])}}, nil

	case "Sequence":
		return pvalue.Parsed{Span: span, Value: grammarval.Sequence{Exprs: pvalue.As[[]grammarval.RuleExpr](args[0])}}, nil

	case "Choice":
		return pvalue.Parsed{Span: span, Value: grammarval.Choice{Exprs: pvalue.As[[]grammarval.RuleExpr](args[0])}}, nil

	case "RunVar":
		return pvalue.Parsed{Span: span, Value: grammarval.RunVar{Name: pvalue.As[string](args[0])}}, nil

	default:
		return pvalue.Parsed{}, fmt.Errorf("grammar-meta: unknown constructor %q", ctor)
	}
}

// jsonNamespace constructs a small set of generic, JSON-marshalable nodes
// (map, list, string, number, bool, null), letting any grammar produce a
// result the server's POST /parses endpoint can marshal with encoding/json
// without requiring a bespoke namespace for every example grammar.
type jsonNamespace struct{}

func (jsonNamespace) FromConstruct(span input.Span, ctor string, args []pvalue.Parsed) (pvalue.Parsed, error) {
	switch ctor {
	case "null":
		return pvalue.Parsed{Span: span, Value: nil}, nil
	case "bool":
		return pvalue.Parsed{Span: span, Value: pvalue.As[string](args[0]) == "true"}, nil
	case "string":
		return pvalue.Parsed{Span: span, Value: pvalue.As[string](args[0])}, nil
	case "number":
		return pvalue.Parsed{Span: span, Value: pvalue.As[string](args[0])}, nil
	case "list":
		items := make([]any, len(args))
		for i, a := range args {
			items[i] = a.Value
		}
		return pvalue.Parsed{Span: span, Value: items}, nil
	case "map":
		if len(args)%2 != 0 {
			return pvalue.Parsed{}, fmt.Errorf("json.map expects an even number of key/value args")
		}
		obj := make(map[string]any, len(args)/2)
		for i := 0; i < len(args); i += 2 {
			obj[pvalue.As[string](args[i])] = args[i+1].Value
		}
		return pvalue.Parsed{Span: span, Value: obj}, nil
	default:
		return pvalue.Parsed{}, fmt.Errorf("json: unknown constructor %q", ctor)
	}
}
