package query

import (
	"strings"
	"time"

	"forecast-backend/domain/forecast"
)

// Expr is a node of a parsed $filter predicate. Nodes are plain data so two
// parses of the same text compare equal with reflect.DeepEqual.
type Expr interface {
	isExpr()
}

// LogicalOp joins two predicates.
type LogicalOp string

const (
	OpAnd LogicalOp = "and"
	OpOr  LogicalOp = "or"
)

// CompareOp compares a field with a literal.
type CompareOp string

const (
	OpEq CompareOp = "eq"
	OpNe CompareOp = "ne"
	OpGt CompareOp = "gt"
	OpGe CompareOp = "ge"
	OpLt CompareOp = "lt"
	OpLe CompareOp = "le"
)

// StringFunc is a string predicate function.
type StringFunc string

const (
	FuncContains   StringFunc = "contains"
	FuncStartsWith StringFunc = "startswith"
	FuncEndsWith   StringFunc = "endswith"
)

// LiteralKind is the type of a literal in a filter.
type LiteralKind int

const (
	LiteralNull LiteralKind = iota
	LiteralInt
	LiteralFloat
	LiteralString
	LiteralBool
	LiteralDate
)

func (k LiteralKind) String() string {
	switch k {
	case LiteralNull:
		return "null"
	case LiteralInt:
		return "integer"
	case LiteralFloat:
		return "decimal"
	case LiteralString:
		return "string"
	case LiteralBool:
		return "boolean"
	case LiteralDate:
		return "date"
	}
	return "unknown"
}

// Literal is a constant value in a filter. Only the member matching Kind is set.
type Literal struct {
	Kind  LiteralKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
	Time  time.Time
}

// LogicalExpr is "left and right" or "left or right".
type LogicalExpr struct {
	Op    LogicalOp
	Left  Expr
	Right Expr
}

// NotExpr negates its operand.
type NotExpr struct {
	Operand Expr
}

// Comparison is "field op literal" with Field in canonical form.
type Comparison struct {
	Field string
	Op    CompareOp
	Value Literal
}

// FuncCall is "func(field, 'arg')" over a string field.
type FuncCall struct {
	Func  StringFunc
	Field string
	Arg   string
}

func (LogicalExpr) isExpr() {}
func (NotExpr) isExpr()     {}
func (Comparison) isExpr()  {}
func (FuncCall) isExpr()    {}

// truth is three-valued so a null operand never turns into a match through negation.
type truth int8

const (
	truthFalse truth = iota
	truthTrue
	truthUnknown
)

// Matches reports whether the record satisfies the predicate. Predicates that
// cannot be evaluated against the record do not match.
func (f *Filter) Matches(r forecast.Record) bool {
	if f == nil || f.Expr == nil {
		return true
	}
	return evaluate(f.Expr, r) == truthTrue
}

func evaluate(e Expr, r forecast.Record) truth {
	switch n := e.(type) {
	case LogicalExpr:
		left, right := evaluate(n.Left, r), evaluate(n.Right, r)
		if n.Op == OpAnd {
			switch {
			case left == truthFalse || right == truthFalse:
				return truthFalse
			case left == truthTrue && right == truthTrue:
				return truthTrue
			}
			return truthUnknown
		}
		switch {
		case left == truthTrue || right == truthTrue:
			return truthTrue
		case left == truthFalse && right == truthFalse:
			return truthFalse
		}
		return truthUnknown
	case NotExpr:
		switch evaluate(n.Operand, r) {
		case truthTrue:
			return truthFalse
		case truthFalse:
			return truthTrue
		}
		return truthUnknown
	case Comparison:
		return evaluateComparison(n, r)
	case FuncCall:
		field, ok := forecast.LookupField(n.Field)
		if !ok {
			return truthUnknown
		}
		s, ok := field.Value(r).(string)
		if !ok {
			return truthUnknown
		}
		var matched bool
		switch n.Func {
		case FuncContains:
			matched = strings.Contains(s, n.Arg)
		case FuncStartsWith:
			matched = strings.HasPrefix(s, n.Arg)
		case FuncEndsWith:
			matched = strings.HasSuffix(s, n.Arg)
		}
		return truthOf(matched)
	}
	return truthUnknown
}

func evaluateComparison(c Comparison, r forecast.Record) truth {
	field, ok := forecast.LookupField(c.Field)
	if !ok {
		return truthUnknown
	}
	v := field.Value(r)

	if c.Value.Kind == LiteralNull {
		switch c.Op {
		case OpEq:
			return truthOf(v == nil)
		case OpNe:
			return truthOf(v != nil)
		}
		return truthUnknown
	}
	if v == nil {
		return truthUnknown
	}

	var cmp int
	switch field.Kind {
	case forecast.KindInt:
		n := v.(int)
		if c.Value.Kind == LiteralFloat {
			cmp = compareFloat(float64(n), c.Value.Float)
		} else {
			cmp = forecast.CompareValues(forecast.KindInt, n, int(c.Value.Int))
		}
	case forecast.KindString:
		cmp = strings.Compare(v.(string), c.Value.Str)
	case forecast.KindDate:
		cmp = v.(time.Time).Compare(c.Value.Time)
	default:
		return truthUnknown
	}

	switch c.Op {
	case OpEq:
		return truthOf(cmp == 0)
	case OpNe:
		return truthOf(cmp != 0)
	case OpGt:
		return truthOf(cmp > 0)
	case OpGe:
		return truthOf(cmp >= 0)
	case OpLt:
		return truthOf(cmp < 0)
	case OpLe:
		return truthOf(cmp <= 0)
	}
	return truthUnknown
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func truthOf(b bool) truth {
	if b {
		return truthTrue
	}
	return truthFalse
}
