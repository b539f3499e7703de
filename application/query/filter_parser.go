package query

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"forecast-backend/domain/forecast"
	pkgerrors "forecast-backend/pkg/errors"
)

const filterParam = "$filter"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokDate
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func lexFilter(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++
		case c == '\'':
			start := i
			var sb strings.Builder
			i++
			closed := false
			for i < len(src) {
				if src[i] == '\'' {
					if i+1 < len(src) && src[i+1] == '\'' {
						sb.WriteByte('\'')
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				sb.WriteByte(src[i])
				i++
			}
			if !closed {
				return nil, pkgerrors.NewMalformedQueryError(filterParam, "unterminated string literal at position %d", start)
			}
			toks = append(toks, token{kind: tokString, text: sb.String(), pos: start})
		case isDigit(c) || (c == '-' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			i++
			for i < len(src) && isLiteralChar(src[i]) {
				i++
			}
			text := src[start:i]
			kind := tokNumber
			if strings.ContainsAny(text[1:], "-:Tt") {
				kind = tokDate
			}
			toks = append(toks, token{kind: kind, text: text, pos: start})
		default:
			r, _ := utf8.DecodeRuneInString(src[i:])
			if !isIdentRune(r) || unicode.IsDigit(r) {
				return nil, pkgerrors.NewMalformedQueryError(filterParam, "unexpected character %q at position %d", r, i)
			}
			start := i
			for i < len(src) {
				r, width := utf8.DecodeRuneInString(src[i:])
				if !isIdentRune(r) {
					break
				}
				i += width
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isLiteralChar(c byte) bool {
	return isDigit(c) || strings.IndexByte(".-:+TtZz", c) >= 0
}

// ParseFilter parses and type checks a $filter expression against the forecast schema.
func ParseFilter(raw string) (*Filter, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, pkgerrors.NewMalformedQueryError(filterParam, "filter expression is empty")
	}
	toks, err := lexFilter(raw)
	if err != nil {
		return nil, err
	}

	p := &filterParser{toks: toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, pkgerrors.NewMalformedQueryError(filterParam, "unexpected '%s' at position %d", t.text, t.pos)
	}
	return &Filter{Raw: raw, Expr: expr}, nil
}

type filterParser struct {
	toks []token
	pos  int
}

func (p *filterParser) peek() token {
	return p.toks[p.pos]
}

func (p *filterParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *filterParser) peekKeyword(word string) bool {
	t := p.peek()
	return t.kind == tokIdent && strings.EqualFold(t.text, word)
}

func (p *filterParser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peekKeyword(string(OpOr)) {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = LogicalExpr{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *filterParser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peekKeyword(string(OpAnd)) {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = LogicalExpr{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *filterParser) parseUnary() (Expr, error) {
	if p.peekKeyword("not") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NotExpr{Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *filterParser) parsePrimary() (Expr, error) {
	t := p.peek()
	if t.kind == tokLParen {
		p.next()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, pkgerrors.NewMalformedQueryError(filterParam, "expected ')' at position %d", closing.pos)
		}
		return expr, nil
	}
	if t.kind == tokIdent && p.toks[p.pos+1].kind == tokLParen {
		return p.parseCall()
	}
	return p.parseComparison()
}

// operand is either a field reference or a literal.
type operand struct {
	field   string
	literal *Literal
	pos     int
}

func (p *filterParser) parseOperand() (operand, error) {
	t := p.next()
	switch t.kind {
	case tokIdent:
		switch strings.ToLower(t.text) {
		case "null":
			return operand{literal: &Literal{Kind: LiteralNull}, pos: t.pos}, nil
		case "true", "false":
			return operand{literal: &Literal{Kind: LiteralBool, Bool: strings.EqualFold(t.text, "true")}, pos: t.pos}, nil
		}
		return operand{field: t.text, pos: t.pos}, nil
	case tokString:
		return operand{literal: &Literal{Kind: LiteralString, Str: t.text}, pos: t.pos}, nil
	case tokNumber:
		lit, err := parseNumber(t)
		if err != nil {
			return operand{}, err
		}
		return operand{literal: lit, pos: t.pos}, nil
	case tokDate:
		lit, err := parseDate(t)
		if err != nil {
			return operand{}, err
		}
		return operand{literal: lit, pos: t.pos}, nil
	case tokEOF:
		return operand{}, pkgerrors.NewMalformedQueryError(filterParam, "unexpected end of filter expression")
	}
	return operand{}, pkgerrors.NewMalformedQueryError(filterParam, "unexpected '%s' at position %d", t.text, t.pos)
}

func parseNumber(t token) (*Literal, error) {
	if strings.Contains(t.text, ".") {
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, pkgerrors.NewMalformedQueryError(filterParam, "invalid number '%s' at position %d", t.text, t.pos)
		}
		return &Literal{Kind: LiteralFloat, Float: f}, nil
	}
	n, err := strconv.ParseInt(t.text, 10, 32)
	if err != nil {
		return nil, pkgerrors.NewMalformedQueryError(filterParam, "invalid number '%s' at position %d", t.text, t.pos)
	}
	return &Literal{Kind: LiteralInt, Int: n}, nil
}

func parseDate(t token) (*Literal, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339Nano} {
		if ts, err := time.Parse(layout, t.text); err == nil {
			return &Literal{Kind: LiteralDate, Time: ts.UTC()}, nil
		}
	}
	return nil, pkgerrors.NewMalformedQueryError(filterParam, "invalid date '%s' at position %d", t.text, t.pos)
}

func (p *filterParser) parseComparison() (Expr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	opTok := p.next()
	if opTok.kind != tokIdent {
		if opTok.kind == tokEOF {
			return nil, pkgerrors.NewMalformedQueryError(filterParam, "expected a comparison operator at end of filter expression")
		}
		return nil, pkgerrors.NewMalformedQueryError(filterParam, "expected a comparison operator at position %d", opTok.pos)
	}
	op, ok := compareOp(opTok.text)
	if !ok {
		return nil, pkgerrors.NewInvalidFilterError(left.field, "unsupported operator '%s' at position %d", opTok.text, opTok.pos)
	}

	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	switch {
	case left.literal == nil && right.literal != nil:
		return typeCheck(left.field, op, *right.literal)
	case left.literal != nil && right.literal == nil:
		return typeCheck(right.field, mirror(op), *left.literal)
	case left.literal == nil:
		return nil, pkgerrors.NewInvalidFilterError(left.field, "comparing field '%s' with field '%s' is not supported", left.field, right.field)
	}
	return nil, pkgerrors.NewInvalidFilterError("", "comparison at position %d does not reference a field", left.pos)
}

func compareOp(word string) (CompareOp, bool) {
	switch op := CompareOp(strings.ToLower(word)); op {
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
		return op, true
	}
	return "", false
}

// mirror turns "literal op field" into the equivalent "field op' literal".
func mirror(op CompareOp) CompareOp {
	switch op {
	case OpGt:
		return OpLt
	case OpGe:
		return OpLe
	case OpLt:
		return OpGt
	case OpLe:
		return OpGe
	}
	return op
}

func typeCheck(name string, op CompareOp, lit Literal) (Expr, error) {
	field, ok := forecast.LookupField(name)
	if !ok {
		return nil, pkgerrors.NewUnknownFieldError(name)
	}

	compatible := lit.Kind == LiteralNull
	switch field.Kind {
	case forecast.KindInt:
		compatible = compatible || lit.Kind == LiteralInt || lit.Kind == LiteralFloat
	case forecast.KindString:
		compatible = compatible || lit.Kind == LiteralString
	case forecast.KindDate:
		compatible = compatible || lit.Kind == LiteralDate
	}
	if !compatible {
		return nil, pkgerrors.NewInvalidFilterError(field.Name,
			"cannot compare %s field '%s' with a %s literal", field.Kind, field.Name, lit.Kind)
	}
	return Comparison{Field: field.Name, Op: op, Value: lit}, nil
}

func (p *filterParser) parseCall() (Expr, error) {
	nameTok := p.next()
	p.next() // (

	fn := StringFunc(strings.ToLower(nameTok.text))
	switch fn {
	case FuncContains, FuncStartsWith, FuncEndsWith:
	default:
		return nil, pkgerrors.NewInvalidFilterError(nameTok.text, "unsupported function '%s' at position %d", nameTok.text, nameTok.pos)
	}

	target, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if sep := p.next(); sep.kind != tokComma {
		return nil, pkgerrors.NewMalformedQueryError(filterParam, "%s expects two arguments", fn)
	}
	arg, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if closing := p.next(); closing.kind != tokRParen {
		return nil, pkgerrors.NewMalformedQueryError(filterParam, "expected ')' at position %d", closing.pos)
	}

	if target.literal != nil {
		return nil, pkgerrors.NewInvalidFilterError("", "%s expects a field as its first argument", fn)
	}
	field, ok := forecast.LookupField(target.field)
	if !ok {
		return nil, pkgerrors.NewUnknownFieldError(target.field)
	}
	if field.Kind != forecast.KindString {
		return nil, pkgerrors.NewInvalidFilterError(field.Name, "%s requires a string field, '%s' is %s", fn, field.Name, field.Kind)
	}
	if arg.literal == nil || arg.literal.Kind != LiteralString {
		return nil, pkgerrors.NewInvalidFilterError(field.Name, "%s requires a string literal as its second argument", fn)
	}
	return FuncCall{Func: fn, Field: field.Name, Arg: arg.literal.Str}, nil
}
