package metasyntax

import (
	"fmt"
	"strings"

	"github.com/prismlang/prism/internal/prism/grammarval"
	"github.com/prismlang/prism/internal/prism/input"
)

// Parse reads the grammar source loaded as id and returns the
// grammarval.File it describes.
func Parse(files *input.Table, id input.FileID) (grammarval.File, error) {
	p := &parser{lex: newLexer(files, id)}
	if err := p.advance(); err != nil {
		return grammarval.File{}, err
	}
	var rules []grammarval.Rule
	for p.cur.kind != tEOF {
		r, err := p.parseRule()
		if err != nil {
			return grammarval.File{}, err
		}
		rules = append(rules, r)
	}
	return grammarval.File{Rules: rules}, nil
}

type parser struct {
	lex *lexer
	cur token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) expectPunct(text string) error {
	if p.cur.kind != tPunct || p.cur.text != text {
		return fmt.Errorf("metasyntax: at %s: expected %q, got %q", p.cur.pos, text, p.cur.text)
	}
	return p.advance()
}

func (p *parser) expectIdent(text string) error {
	if p.cur.kind != tIdent || p.cur.text != text {
		return fmt.Errorf("metasyntax: at %s: expected %q, got %q", p.cur.pos, text, p.cur.text)
	}
	return p.advance()
}

func (p *parser) isPunct(text string) bool { return p.cur.kind == tPunct && p.cur.text == text }
func (p *parser) isIdent(text string) bool { return p.cur.kind == tIdent && p.cur.text == text }

// parseRule parses `rule name(params) = expr;` or `rule name { block: expr; ... }`.
func (p *parser) parseRule() (grammarval.Rule, error) {
	if err := p.expectIdent("rule"); err != nil {
		return grammarval.Rule{}, err
	}
	if p.cur.kind != tIdent {
		return grammarval.Rule{}, fmt.Errorf("metasyntax: at %s: expected rule name", p.cur.pos)
	}
	name := p.cur.text
	if err := p.advance(); err != nil {
		return grammarval.Rule{}, err
	}

	var params []grammarval.Param
	if p.isPunct("(") {
		if err := p.advance(); err != nil {
			return grammarval.Rule{}, err
		}
		for !p.isPunct(")") {
			if len(params) > 0 {
				if err := p.expectPunct(","); err != nil {
					return grammarval.Rule{}, err
				}
			}
			if p.cur.kind != tIdent {
				return grammarval.Rule{}, fmt.Errorf("metasyntax: at %s: expected parameter type", p.cur.pos)
			}
			ptype := p.cur.text
			if err := p.advance(); err != nil {
				return grammarval.Rule{}, err
			}
			if p.cur.kind != tIdent {
				return grammarval.Rule{}, fmt.Errorf("metasyntax: at %s: expected parameter name", p.cur.pos)
			}
			pname := p.cur.text
			if err := p.advance(); err != nil {
				return grammarval.Rule{}, err
			}
			params = append(params, grammarval.Param{Type: ptype, Name: pname})
		}
		if err := p.advance(); err != nil { // consume ")"
			return grammarval.Rule{}, err
		}
	}

	returnType := ""
	if p.isPunct(":") {
		if err := p.advance(); err != nil {
			return grammarval.Rule{}, err
		}
		if p.cur.kind != tIdent {
			return grammarval.Rule{}, fmt.Errorf("metasyntax: at %s: expected return type", p.cur.pos)
		}
		returnType = p.cur.text
		if err := p.advance(); err != nil {
			return grammarval.Rule{}, err
		}
	}

	if p.isPunct("=") {
		if err := p.advance(); err != nil {
			return grammarval.Rule{}, err
		}
		choices, err := p.parseTopChoice()
		if err != nil {
			return grammarval.Rule{}, err
		}
		if err := p.expectPunct(";"); err != nil {
			return grammarval.Rule{}, err
		}
		block := grammarval.Block{Name: "main", Choices: choices}
		return grammarval.Rule{Name: name, Params: params, ReturnType: returnType, Blocks: []grammarval.Block{block}}, nil
	}

	if err := p.expectPunct("{"); err != nil {
		return grammarval.Rule{}, err
	}
	var blocks []grammarval.Block
	for !p.isPunct("}") {
		if p.cur.kind != tIdent {
			return grammarval.Rule{}, fmt.Errorf("metasyntax: at %s: expected block name", p.cur.pos)
		}
		bname := p.cur.text
		if err := p.advance(); err != nil {
			return grammarval.Rule{}, err
		}
		if err := p.expectPunct(":"); err != nil {
			return grammarval.Rule{}, err
		}
		choices, err := p.parseTopChoice()
		if err != nil {
			return grammarval.Rule{}, err
		}
		if err := p.expectPunct(";"); err != nil {
			return grammarval.Rule{}, err
		}
		blocks = append(blocks, grammarval.Block{Name: bname, Choices: choices})
	}
	if err := p.advance(); err != nil { // consume "}"
		return grammarval.Rule{}, err
	}
	return grammarval.Rule{Name: name, Params: params, ReturnType: returnType, Blocks: blocks}, nil
}

// parseTopChoice parses the top-level alternatives of a rule or block body,
// where per-alternative annotations (#[token(...)], @error(...)) attach.
// Nested choices (inside parens, or rule/closure arguments) go through
// parseChoice instead and carry no annotations, since grammarval's sum type
// only has room for annotations at Block.Choices -- a rule/block alternative
// is the only place the surface syntax's #[...]/@error(...) prefixes mean
// anything.
func (p *parser) parseTopChoice() ([]grammarval.AnnotatedRuleExpr, error) {
	first, err := p.parseAnnotatedSequence()
	if err != nil {
		return nil, err
	}
	out := []grammarval.AnnotatedRuleExpr{first}
	for p.isPunct("|") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseAnnotatedSequence()
		if err != nil {
			return nil, err
		}
		out = append(out, next)
	}
	return out, nil
}

// parseChoice := sequence ("|" sequence)*
func (p *parser) parseChoice() (grammarval.RuleExpr, error) {
	first, err := p.parseAnnotatedSequence()
	if err != nil {
		return nil, err
	}
	if !p.isPunct("|") {
		return first.Expr, nil
	}
	exprs := []grammarval.RuleExpr{first.Expr}
	for p.isPunct("|") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseAnnotatedSequence()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, next.Expr)
	}
	return grammarval.Choice{Exprs: exprs}, nil
}

// parseAnnotatedSequence := annotation* annotated-postfix+ actionSuffix?
func (p *parser) parseAnnotatedSequence() (grammarval.AnnotatedRuleExpr, error) {
	var anns []grammarval.Annotation
	for p.isPunct("#[") || p.isIdent("@error") {
		a, err := p.parseAnnotation()
		if err != nil {
			return grammarval.AnnotatedRuleExpr{}, err
		}
		anns = append(anns, a)
	}

	var items []grammarval.RuleExpr
	for p.startsExpr() {
		item, err := p.parseBind()
		if err != nil {
			return grammarval.AnnotatedRuleExpr{}, err
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return grammarval.AnnotatedRuleExpr{}, fmt.Errorf("metasyntax: at %s: expected an expression", p.cur.pos)
	}

	var seq grammarval.RuleExpr
	if len(items) == 1 {
		seq = items[0]
	} else {
		seq = grammarval.Sequence{Exprs: items}
	}

	if p.isPunct("<-") {
		if err := p.advance(); err != nil {
			return grammarval.AnnotatedRuleExpr{}, err
		}
		act, err := p.parseActionTerm()
		if err != nil {
			return grammarval.AnnotatedRuleExpr{}, err
		}
		seq = grammarval.Action{Expr: seq, Action: act}
	}

	return grammarval.AnnotatedRuleExpr{Annotations: anns, Expr: seq}, nil
}

func (p *parser) parseAnnotation() (grammarval.Annotation, error) {
	if p.isIdent("@error") {
		if err := p.advance(); err != nil {
			return grammarval.Annotation{}, err
		}
		if err := p.expectPunct("("); err != nil {
			return grammarval.Annotation{}, err
		}
		if p.cur.kind != tString {
			return grammarval.Annotation{}, fmt.Errorf("metasyntax: at %s: expected string", p.cur.pos)
		}
		msg, err := unquote(p.cur.text)
		if err != nil {
			return grammarval.Annotation{}, err
		}
		if err := p.advance(); err != nil {
			return grammarval.Annotation{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return grammarval.Annotation{}, err
		}
		return grammarval.Annotation{Kind: grammarval.AnnotationError, Payload: msg}, nil
	}

	if err := p.advance(); err != nil { // consume "#["
		return grammarval.Annotation{}, err
	}
	if p.cur.kind != tIdent {
		return grammarval.Annotation{}, fmt.Errorf("metasyntax: at %s: expected annotation name", p.cur.pos)
	}
	name := p.cur.text
	if err := p.advance(); err != nil {
		return grammarval.Annotation{}, err
	}
	var payload string
	if p.isPunct("(") {
		if err := p.advance(); err != nil {
			return grammarval.Annotation{}, err
		}
		if p.cur.kind != tString {
			return grammarval.Annotation{}, fmt.Errorf("metasyntax: at %s: expected string", p.cur.pos)
		}
		var err error
		payload, err = unquote(p.cur.text)
		if err != nil {
			return grammarval.Annotation{}, err
		}
		if err := p.advance(); err != nil {
			return grammarval.Annotation{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return grammarval.Annotation{}, err
		}
	}
	if err := p.expectPunct("]"); err != nil {
		return grammarval.Annotation{}, err
	}
	kind, ok := map[string]grammarval.AnnotationKind{
		"token":            grammarval.AnnotationToken,
		"disable_layout":   grammarval.AnnotationDisableLayout,
		"enable_layout":    grammarval.AnnotationEnableLayout,
		"disable_recovery": grammarval.AnnotationDisableRecovery,
		"enable_recovery":  grammarval.AnnotationEnableRecovery,
	}[name]
	if !ok {
		return grammarval.Annotation{}, fmt.Errorf("metasyntax: unknown annotation #[%s]", name)
	}
	return grammarval.Annotation{Kind: kind, Payload: payload}, nil
}

// parseBind := (IDENT ":")? parsePostfix, the IDENT:-form only consumed when
// it is unambiguously a binding (followed by ":" and not "::").
func (p *parser) parseBind() (grammarval.RuleExpr, error) {
	if p.cur.kind == tIdent && !isKeyword(p.cur.text) {
		name := p.cur.text
		save := *p.lex
		saveCur := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isPunct(":") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			expr, err := p.parsePostfix()
			if err != nil {
				return nil, err
			}
			return grammarval.NameBind{Name: name, Expr: expr}, nil
		}
		*p.lex = save
		p.cur = saveCur
	}
	return p.parsePostfix()
}

func isKeyword(s string) bool { return s == "rule" }

// parsePostfix := primary ("*" | "+" | "?")?
func (p *parser) parsePostfix() (grammarval.RuleExpr, error) {
	prim, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	switch {
	case p.isPunct("*"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return grammarval.Repeat{Expr: prim, Min: 0, Max: -1}, nil
	case p.isPunct("+"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return grammarval.Repeat{Expr: prim, Min: 1, Max: -1}, nil
	case p.isPunct("?"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return grammarval.Repeat{Expr: prim, Min: 0, Max: 1}, nil
	}
	return prim, nil
}

func (p *parser) startsExpr() bool {
	switch p.cur.kind {
	case tString, tCharClass, tIdent:
		return !isKeyword(p.cur.text) && p.cur.text != "rule"
	case tPunct:
		return p.cur.text == "("
	}
	return false
}

func (p *parser) parsePrimary() (grammarval.RuleExpr, error) {
	switch {
	case p.cur.kind == tString:
		val, err := unquote(p.cur.text)
		if err != nil {
			return nil, err
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return grammarval.Literal{Value: val}, nil

	case p.cur.kind == tCharClass:
		cc, err := parseCharClass(p.cur.text)
		if err != nil {
			return nil, err
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return cc, nil

	case p.isPunct("("):
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseChoice()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return expr, nil

	case p.isIdent("#next"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return grammarval.Next{}, nil

	case p.isIdent("#this"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return grammarval.This{}, nil

	case p.isIdent("#guid"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return grammarval.Guid{}, nil

	case p.isIdent("#str"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		expr, err := p.parseChoice()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return grammarval.SliceInput{Expr: expr}, nil

	case p.isIdent("#repeat"):
		return p.parseRepeatSugar()

	case p.isIdent("#adapt"):
		return p.parseAdapt()

	case p.cur.kind == tIdent && strings.HasPrefix(p.cur.text, "$"):
		name := strings.TrimPrefix(p.cur.text, "$")
		if err := p.advance(); err != nil {
			return nil, err
		}
		return grammarval.RunVar{Name: name}, nil

	case p.cur.kind == tIdent:
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		var args []grammarval.RuleExpr
		if p.isPunct("(") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			for !p.isPunct(")") {
				if len(args) > 0 {
					if err := p.expectPunct(","); err != nil {
						return nil, err
					}
				}
				a, err := p.parseChoice()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		return grammarval.RunVar{Name: name, Args: args}, nil
	}
	return nil, fmt.Errorf("metasyntax: at %s: unexpected token %q", p.cur.pos, p.cur.text)
}

// parseRepeatSugar desugars #repeat(e, d, n, m) into Repeat{Expr, Min, Max, Delim}.
func (p *parser) parseRepeatSugar() (grammarval.RuleExpr, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	expr, err := p.parseChoice()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(","); err != nil {
		return nil, err
	}
	var delim grammarval.RuleExpr
	if !p.isIdent("inf") && p.cur.kind != tNumber {
		delim, err = p.parseChoice()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct(","); err != nil {
		return nil, err
	}
	minTok := p.cur.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	min, err := unquoteNumber(minTok)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(","); err != nil {
		return nil, err
	}
	maxTok := p.cur.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	max, err := unquoteNumber(maxTok)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return grammarval.Repeat{Expr: expr, Min: min, Max: max, Delim: delim}, nil
}

// parseAdapt parses `#adapt(grammarAction, bodyRule)`.
func (p *parser) parseAdapt() (grammarval.RuleExpr, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	action, err := p.parseActionTerm()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(","); err != nil {
		return nil, err
	}
	if p.cur.kind != tIdent {
		return nil, fmt.Errorf("metasyntax: at %s: expected body rule name", p.cur.pos)
	}
	body := p.cur.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return grammarval.AtAdapt{GrammarAction: action, BodyRule: body}, nil
}

// parseActionTerm parses the small RuleAction term language: IDENT,
// IDENT(args...), NS::Ctor(args...), "literal", or $v.
func (p *parser) parseActionTerm() (grammarval.RuleAction, error) {
	switch {
	case p.cur.kind == tString:
		val, err := unquote(p.cur.text)
		if err != nil {
			return nil, err
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return grammarval.InputLiteral{Value: val}, nil

	case p.cur.kind == tIdent && strings.HasPrefix(p.cur.text, "$"):
		name := strings.TrimPrefix(p.cur.text, "$")
		if err := p.advance(); err != nil {
			return nil, err
		}
		return grammarval.Value{Namespace: "grammar-meta", Ref: name}, nil

	case p.cur.kind == tIdent:
		namespace := "grammar-meta"
		ctor := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isPunct("::") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.kind != tIdent {
				return nil, fmt.Errorf("metasyntax: at %s: expected constructor name", p.cur.pos)
			}
			namespace = ctor
			ctor = p.cur.text
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if !p.isPunct("(") {
			return grammarval.Name{Name: ctor}, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		var args []grammarval.RuleAction
		for !p.isPunct(")") {
			if len(args) > 0 {
				if err := p.expectPunct(","); err != nil {
					return nil, err
				}
			}
			a, err := p.parseActionTerm()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return grammarval.Construct{Namespace: namespace, Ctor: ctor, Args: args}, nil
	}
	return nil, fmt.Errorf("metasyntax: at %s: expected an action term", p.cur.pos)
}

// parseCharClass decodes a lexed "[...]" token into a grammarval.CharClass.
func parseCharClass(lit string) (grammarval.CharClass, error) {
	body := lit[1 : len(lit)-1]
	negate := false
	if strings.HasPrefix(body, "^") {
		negate = true
		body = body[1:]
	}
	var ranges []grammarval.RuneRange
	runes := []rune(decodeClassEscapes(body))
	for i := 0; i < len(runes); i++ {
		lo := runes[i]
		if i+2 < len(runes) && runes[i+1] == '-' {
			hi := runes[i+2]
			ranges = append(ranges, grammarval.RuneRange{Lo: lo, Hi: hi})
			i += 2
			continue
		}
		ranges = append(ranges, grammarval.RuneRange{Lo: lo, Hi: lo})
	}
	return grammarval.CharClass{Negate: negate, Ranges: ranges, Description: lit}, nil
}

func decodeClassEscapes(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(s[i])
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
