// Package expr evaluates bounded arithmetic expressions over named numeric
// variables. Expressions are authored by end users and persisted, so the
// evaluator is a hand-written recursive-descent parser restricted to
// arithmetic and a closed function set: it performs no I/O, holds no state
// between calls, and cannot execute injected code regardless of input.
// Formula length and nesting depth are capped so a stored formula cannot
// exhaust the parser either.
//
// Grammar (lowest to highest precedence):
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = "-" unary | power
//	power   = primary [ "^" unary ]          (right associative)
//	primary = number | ident | ident "(" expr { "," expr } ")" | "(" expr ")"
//
// Known functions: max, min (two or more arguments), abs, round (one
// argument; round is to the nearest integer, half away from zero).
package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode"
)

// ErrInvalidExpression is matched by errors.Is for every evaluation failure.
var ErrInvalidExpression = errors.New("invalid expression")

// InvalidExpressionError reports a malformed formula, unknown identifier or
// function, or a non-finite result, with the byte offset of the offending
// token.
type InvalidExpressionError struct {
	Pos int
	Msg string
}

func (e *InvalidExpressionError) Error() string {
	return fmt.Sprintf("invalid expression at position %d: %s", e.Pos, e.Msg)
}

// Is reports membership in the ErrInvalidExpression class.
func (e *InvalidExpressionError) Is(target error) bool {
	return target == ErrInvalidExpression
}

func errAt(pos int, format string, args ...any) error {
	return &InvalidExpressionError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Formulas come from untrusted storage, so parsing is bounded: the parser
// recurses per nesting level and an unbounded formula would exhaust the
// goroutine stack, which is fatal to the process rather than recoverable.
const (
	maxExpressionLen = 4096
	maxNestingDepth  = 64
)

// Evaluate parses and evaluates expression against the given variables.
// Every variable the expression references must be present and finite;
// a missing or non-finite variable fails before any arithmetic runs.
// Division by zero and any non-finite intermediate result also fail.
// The function is pure and safe for concurrent use.
func Evaluate(expression string, variables map[string]float64) (float64, error) {
	return run(expression, variables, true)
}

// Check parses expression without evaluating it. It validates syntax, the
// nesting and length bounds, function names and arity, and that every
// identifier is one of the given variable names. Value-dependent failures
// (division by zero, non-finite results) are not detected.
func Check(expression string, variables []string) error {
	vars := make(map[string]float64, len(variables))
	for _, name := range variables {
		vars[name] = 0
	}
	_, err := run(expression, vars, false)
	return err
}

func run(expression string, variables map[string]float64, eval bool) (float64, error) {
	if len(expression) > maxExpressionLen {
		return 0, errAt(maxExpressionLen, "expression exceeds %d bytes", maxExpressionLen)
	}

	toks, err := lex(expression)
	if err != nil {
		return 0, err
	}

	p := &parser{toks: toks, vars: variables, eval: eval}

	// Fail fast on variable problems before evaluating anything.
	if err := p.checkVariables(); err != nil {
		return 0, err
	}

	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if !p.atEOF() {
		return 0, errAt(p.peek().pos, "unexpected %q", p.peek().text)
	}
	if p.eval && !isFinite(v) {
		return 0, errAt(0, "result is not finite")
	}
	return v, nil
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp // + - * / ^
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func lex(src string) ([]token, error) {
	var toks []token
	runes := []rune(src)

	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++
		case r == '+' || r == '-' || r == '*' || r == '/' || r == '^':
			toks = append(toks, token{kind: tokOp, text: string(r), pos: i})
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			text := string(runes[start:i])
			n, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, errAt(start, "malformed number %q", text)
			}
			toks = append(toks, token{kind: tokNumber, text: text, num: n, pos: start})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[start:i]), pos: start})
		default:
			return nil, errAt(i, "unexpected character %q", string(r))
		}
	}

	toks = append(toks, token{kind: tokEOF, pos: len(runes)})
	return toks, nil
}

type parser struct {
	toks  []token
	idx   int
	vars  map[string]float64
	eval  bool
	depth int
}

// enter guards every recursive production so hostile nesting fails with an
// error instead of overflowing the stack.
func (p *parser) enter(pos int) error {
	p.depth++
	if p.depth > maxNestingDepth {
		return errAt(pos, "expression nests deeper than %d levels", maxNestingDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) peek() token { return p.toks[p.idx] }

func (p *parser) next() token {
	t := p.toks[p.idx]
	if t.kind != tokEOF {
		p.idx++
	}
	return t
}

func (p *parser) atEOF() bool { return p.peek().kind == tokEOF }

var functions = map[string]struct{ minArgs, maxArgs int }{
	"max":   {2, 8},
	"min":   {2, 8},
	"abs":   {1, 1},
	"round": {1, 1},
}

// checkVariables validates every referenced identifier up front: unknown
// identifiers, unknown functions, and non-finite variable values all fail
// before evaluation starts.
func (p *parser) checkVariables() error {
	for i, t := range p.toks {
		if t.kind != tokIdent {
			continue
		}
		if p.toks[i+1].kind == tokLParen {
			if _, ok := functions[t.text]; !ok {
				return errAt(t.pos, "unknown function %q", t.text)
			}
			continue
		}
		v, ok := p.vars[t.text]
		if !ok {
			return errAt(t.pos, "unknown variable %q", t.text)
		}
		if p.eval && !isFinite(v) {
			return errAt(t.pos, "variable %q is not a finite number", t.text)
		}
	}
	return nil
}

func (p *parser) parseExpr() (float64, error) {
	if err := p.enter(p.peek().pos); err != nil {
		return 0, err
	}
	defer p.leave()

	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for p.peek().kind == tokOp && (p.peek().text == "+" || p.peek().text == "-") {
		op := p.next()
		rhs, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op.text == "+" {
			v += rhs
		} else {
			v -= rhs
		}
		if p.eval && !isFinite(v) {
			return 0, errAt(op.pos, "result is not finite")
		}
	}
	return v, nil
}

func (p *parser) parseTerm() (float64, error) {
	v, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for p.peek().kind == tokOp && (p.peek().text == "*" || p.peek().text == "/") {
		op := p.next()
		rhs, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if op.text == "*" {
			v *= rhs
		} else {
			if p.eval && rhs == 0 {
				return 0, errAt(op.pos, "division by zero")
			}
			if rhs != 0 {
				v /= rhs
			}
		}
		if p.eval && !isFinite(v) {
			return 0, errAt(op.pos, "result is not finite")
		}
	}
	return v, nil
}

func (p *parser) parseUnary() (float64, error) {
	if p.peek().kind == tokOp && p.peek().text == "-" {
		if err := p.enter(p.peek().pos); err != nil {
			return 0, err
		}
		defer p.leave()

		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -v, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	if p.peek().kind == tokOp && p.peek().text == "^" {
		if err := p.enter(p.peek().pos); err != nil {
			return 0, err
		}
		defer p.leave()

		op := p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		v := math.Pow(base, exp)
		if p.eval && !isFinite(v) {
			return 0, errAt(op.pos, "result is not finite")
		}
		return v, nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (float64, error) {
	t := p.next()

	switch t.kind {
	case tokNumber:
		return t.num, nil

	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.parseCall(t)
		}
		// checkVariables already proved presence and finiteness.
		return p.vars[t.text], nil

	case tokLParen:
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek().kind != tokRParen {
			return 0, errAt(p.peek().pos, "expected ')'")
		}
		p.next()
		return v, nil

	case tokEOF:
		return 0, errAt(t.pos, "unexpected end of expression")

	default:
		return 0, errAt(t.pos, "unexpected %q", t.text)
	}
}

func (p *parser) parseCall(name token) (float64, error) {
	sig := functions[name.text]

	p.next() // consume '('

	var args []float64
	if p.peek().kind != tokRParen {
		for {
			v, err := p.parseExpr()
			if err != nil {
				return 0, err
			}
			args = append(args, v)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if p.peek().kind != tokRParen {
		return 0, errAt(p.peek().pos, "expected ')' closing %s()", name.text)
	}
	p.next()

	if len(args) < sig.minArgs || len(args) > sig.maxArgs {
		return 0, errAt(name.pos, "%s() takes %d to %d arguments, got %d",
			name.text, sig.minArgs, sig.maxArgs, len(args))
	}

	switch name.text {
	case "max":
		v := args[0]
		for _, a := range args[1:] {
			v = math.Max(v, a)
		}
		return v, nil
	case "min":
		v := args[0]
		for _, a := range args[1:] {
			v = math.Min(v, a)
		}
		return v, nil
	case "abs":
		return math.Abs(args[0]), nil
	default: // round
		return math.Round(args[0]), nil
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
