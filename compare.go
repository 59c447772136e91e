// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlexpr

import (
	"github.com/canonical/sqlexpr/internal/typeinfo"
)

// CompareOp is the operator of a Comparison.
type CompareOp uint8

const (
	OpEq CompareOp = iota
	OpNotEq
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
	OpIsNull
	OpIsNotNull
	OpLike
	OpNotLike
	OpBetween
	OpNotBetween
	OpIn
	OpNotIn
)

var compareOpText = [...]string{
	OpEq:         "=",
	OpNotEq:      "<>",
	OpLess:       "<",
	OpLessEq:     "<=",
	OpGreater:    ">",
	OpGreaterEq:  ">=",
	OpIsNull:     "is null",
	OpIsNotNull:  "is not null",
	OpLike:       "like",
	OpNotLike:    "not like",
	OpBetween:    "between",
	OpNotBetween: "not between",
	OpIn:         "in",
	OpNotIn:      "not in",
}

func (op CompareOp) String() string {
	if int(op) < len(compareOpText) {
		return compareOpText[op]
	}
	return "invalid"
}

// PatternKind says how the value of a like comparison becomes a pattern.
type PatternKind uint8

const (
	// PatternRaw uses the value unchanged; it may contain wildcards.
	PatternRaw PatternKind = iota
	// PatternPrefix matches values starting with the value.
	PatternPrefix
	// PatternSuffix matches values ending with the value.
	PatternSuffix
	// PatternContains matches values containing the value.
	PatternContains
)

// Comparison compares its left operands with its right operands, an inline
// list of rows or a subquery.
type Comparison struct {
	Op CompareOp

	// Left holds one operand, or several for a tuple comparison.
	Left []Expression

	// Right holds the right operand of a binary operator, or the two bounds
	// of a between.
	Right []Expression

	// List holds the rows of an in list. Each row has len(Left) operands.
	List [][]Expression

	// Query is the subquery of an in comparison that has no List.
	Query *Subquery

	// Pattern applies to like comparisons.
	Pattern PatternKind
}

func (*Comparison) Type() Type  { return boolType }
func (*Comparison) expression() {}

func compare(op CompareOp, left, right Expression) Cond {
	if err := firstErr(left, right); err != nil {
		return condErr(err)
	}
	if isAbsent(left) || isAbsent(right) {
		return Cond{}
	}
	if !typeinfo.Compatible(left.Type(), right.Type()) {
		return condErr(typeMismatchError(op.String(), left.Type(), right.Type()))
	}
	return condOf(&Comparison{Op: op, Left: []Expression{left}, Right: []Expression{right}})
}

// Eq returns left = v. It is dropped when v is absent.
func Eq[T any](left Operand[T], v T) Cond { return compare(OpEq, left, Arg(v)) }

// NotEq returns left <> v. It is dropped when v is absent.
func NotEq[T any](left Operand[T], v T) Cond { return compare(OpNotEq, left, Arg(v)) }

// Less returns left < v. It is dropped when v is absent.
func Less[T any](left Operand[T], v T) Cond { return compare(OpLess, left, Arg(v)) }

// LessEq returns left <= v. It is dropped when v is absent.
func LessEq[T any](left Operand[T], v T) Cond { return compare(OpLessEq, left, Arg(v)) }

// Greater returns left > v. It is dropped when v is absent.
func Greater[T any](left Operand[T], v T) Cond { return compare(OpGreater, left, Arg(v)) }

// GreaterEq returns left >= v. It is dropped when v is absent.
func GreaterEq[T any](left Operand[T], v T) Cond { return compare(OpGreaterEq, left, Arg(v)) }

// EqExpr returns left = right.
func EqExpr[T any](left, right Operand[T]) Cond { return compare(OpEq, left, right) }

// NotEqExpr returns left <> right.
func NotEqExpr[T any](left, right Operand[T]) Cond { return compare(OpNotEq, left, right) }

// LessExpr returns left < right.
func LessExpr[T any](left, right Operand[T]) Cond { return compare(OpLess, left, right) }

// LessEqExpr returns left <= right.
func LessEqExpr[T any](left, right Operand[T]) Cond { return compare(OpLessEq, left, right) }

// GreaterExpr returns left > right.
func GreaterExpr[T any](left, right Operand[T]) Cond { return compare(OpGreater, left, right) }

// GreaterEqExpr returns left >= right.
func GreaterEqExpr[T any](left, right Operand[T]) Cond { return compare(OpGreaterEq, left, right) }

// IsNull returns e is null.
func IsNull(e Expression) Cond {
	if err := exprErr(e); err != nil {
		return condErr(err)
	}
	return condOf(&Comparison{Op: OpIsNull, Left: []Expression{e}})
}

// IsNotNull returns e is not null.
func IsNotNull(e Expression) Cond {
	if err := exprErr(e); err != nil {
		return condErr(err)
	}
	return condOf(&Comparison{Op: OpIsNotNull, Left: []Expression{e}})
}

func between(op CompareOp, left, lo, hi Expression) Cond {
	if err := firstErr(left, lo, hi); err != nil {
		return condErr(err)
	}
	if isAbsent(left) || isAbsent(lo) || isAbsent(hi) {
		return Cond{}
	}
	for _, bound := range []Expression{lo, hi} {
		if !typeinfo.Compatible(left.Type(), bound.Type()) {
			return condErr(typeMismatchError(op.String(), left.Type(), bound.Type()))
		}
	}
	return condOf(&Comparison{Op: op, Left: []Expression{left}, Right: []Expression{lo, hi}})
}

// Between returns left between lo and hi. It is dropped when either bound is
// absent.
func Between[T any](left Operand[T], lo, hi T) Cond {
	return between(OpBetween, left, Arg(lo), Arg(hi))
}

// NotBetween returns left not between lo and hi.
func NotBetween[T any](left Operand[T], lo, hi T) Cond {
	return between(OpNotBetween, left, Arg(lo), Arg(hi))
}

// BetweenExpr returns left between lo and hi.
func BetweenExpr[T any](left, lo, hi Operand[T]) Cond {
	return between(OpBetween, left, lo, hi)
}

// NotBetweenExpr returns left not between lo and hi.
func NotBetweenExpr[T any](left, lo, hi Operand[T]) Cond {
	return between(OpNotBetween, left, lo, hi)
}

func like(op CompareOp, left, value Expression, kind PatternKind) Cond {
	if err := firstErr(left, value); err != nil {
		return condErr(err)
	}
	if isAbsent(value) {
		return Cond{}
	}
	if k := left.Type().Kind; k != KindString && k != KindUnknown {
		return condErr(constructionError("%s: operand of type %s is not a string", op, left.Type()))
	}
	pattern, ok := typeinfo.StringValue(base(value).(argument).argValue())
	if !ok {
		return condErr(constructionError("%s: pattern of type %s is not a string", op, value.Type()))
	}
	return condOf(&Comparison{
		Op:      op,
		Left:    []Expression{left},
		Right:   []Expression{Arg(pattern)},
		Pattern: kind,
	})
}

// Like returns left like pattern. The pattern may contain the wildcards %
// and _, escaped with the escape character of the dialect. It is dropped
// when pattern is absent.
func Like[T any](left Operand[T], pattern T) Cond {
	return like(OpLike, left, Arg(pattern), PatternRaw)
}

// NotLike returns left not like pattern.
func NotLike[T any](left Operand[T], pattern T) Cond {
	return like(OpNotLike, left, Arg(pattern), PatternRaw)
}

// StartsWith matches the string values of left that start with v. Wildcards
// in v are escaped. It is dropped when v is absent.
func StartsWith[T any](left Operand[T], v T) Cond {
	return like(OpLike, left, Arg(v), PatternPrefix)
}

// NotStartsWith matches the values of left that do not start with v.
func NotStartsWith[T any](left Operand[T], v T) Cond {
	return like(OpNotLike, left, Arg(v), PatternPrefix)
}

// EndsWith matches the string values of left that end with v.
func EndsWith[T any](left Operand[T], v T) Cond {
	return like(OpLike, left, Arg(v), PatternSuffix)
}

// NotEndsWith matches the values of left that do not end with v.
func NotEndsWith[T any](left Operand[T], v T) Cond {
	return like(OpNotLike, left, Arg(v), PatternSuffix)
}

// Contains matches the string values of left that contain v.
func Contains[T any](left Operand[T], v T) Cond {
	return like(OpLike, left, Arg(v), PatternContains)
}

// NotContains matches the values of left that do not contain v.
func NotContains[T any](left Operand[T], v T) Cond {
	return like(OpNotLike, left, Arg(v), PatternContains)
}

func inList(op CompareOp, left []Expression, rows [][]Expression) Cond {
	for _, l := range left {
		if err := exprErr(l); err != nil {
			return condErr(err)
		}
	}
	for _, row := range rows {
		if len(row) != len(left) {
			return condErr(constructionError("%s: row has %d values, want %d", op, len(row), len(left)))
		}
		for i, v := range row {
			if err := exprErr(v); err != nil {
				return condErr(err)
			}
			if !typeinfo.Compatible(left[i].Type(), v.Type()) {
				return condErr(typeMismatchError(op.String(), left[i].Type(), v.Type()))
			}
		}
	}
	return condOf(&Comparison{Op: op, Left: left, List: rows})
}

func scalarRows[T any](values []T) [][]Expression {
	rows := make([][]Expression, len(values))
	for i, v := range values {
		rows[i] = []Expression{Arg(v)}
	}
	return rows
}

// InList returns left in (values...). An empty list renders in (null) which
// matches nothing.
func InList[T any](left Operand[T], values ...T) Cond {
	return inList(OpIn, []Expression{left}, scalarRows(values))
}

// NotInList returns left not in (values...).
func NotInList[T any](left Operand[T], values ...T) Cond {
	return inList(OpNotIn, []Expression{left}, scalarRows(values))
}

// InListExpr returns left in (values...) over arbitrary operands.
func InListExpr[T any](left Operand[T], values ...Operand[T]) Cond {
	rows := make([][]Expression, len(values))
	for i, v := range values {
		rows[i] = []Expression{v}
	}
	return inList(OpIn, []Expression{left}, rows)
}

// Pair is one row of a two column in list.
type Pair[A, B any] struct {
	First  A
	Second B
}

// P returns the pair (a, b).
func P[A, B any](a A, b B) Pair[A, B] {
	return Pair[A, B]{First: a, Second: b}
}

func pairRows[A, B any](pairs []Pair[A, B]) [][]Expression {
	rows := make([][]Expression, len(pairs))
	for i, p := range pairs {
		rows[i] = []Expression{Arg(p.First), Arg(p.Second)}
	}
	return rows
}

// InList2 returns (a, b) in ((p1.First, p1.Second), ...).
func InList2[A, B any](a Operand[A], b Operand[B], pairs ...Pair[A, B]) Cond {
	return inList(OpIn, []Expression{a, b}, pairRows(pairs))
}

// NotInList2 returns (a, b) not in ((p1.First, p1.Second), ...).
func NotInList2[A, B any](a Operand[A], b Operand[B], pairs ...Pair[A, B]) Cond {
	return inList(OpNotIn, []Expression{a, b}, pairRows(pairs))
}

func tupleRows(rows [][]any) [][]Expression {
	exprs := make([][]Expression, len(rows))
	for i, row := range rows {
		exprs[i] = make([]Expression, len(row))
		for j, v := range row {
			exprs[i][j] = AnyArg(v)
		}
	}
	return exprs
}

// InTuples returns (left...) in ((row1...), ...) for any number of columns.
// Every row must have one value per left operand.
func InTuples(left []Expression, rows ...[]any) Cond {
	if len(left) == 0 {
		return condErr(constructionError("in: no operands"))
	}
	return inList(OpIn, append([]Expression(nil), left...), tupleRows(rows))
}

// NotInTuples returns (left...) not in ((row1...), ...).
func NotInTuples(left []Expression, rows ...[]any) Cond {
	if len(left) == 0 {
		return condErr(constructionError("not in: no operands"))
	}
	return inList(OpNotIn, append([]Expression(nil), left...), tupleRows(rows))
}

func inQuery(op CompareOp, left Expression, q *SelectQuery) Cond {
	if err := exprErr(left); err != nil {
		return condErr(err)
	}
	sub, err := newSubquery(SubqueryIn, q)
	if err != nil {
		return condErr(err)
	}
	if typ, ok := q.scalarType(); ok && !typeinfo.Compatible(left.Type(), typ) {
		return condErr(typeMismatchError(op.String(), left.Type(), typ))
	}
	return condOf(&Comparison{Op: op, Left: []Expression{left}, Query: sub})
}

// InQuery returns left in (select ...). The query must select one column.
func InQuery[T any](left Operand[T], q *SelectQuery) Cond {
	return inQuery(OpIn, left, q)
}

// NotInQuery returns left not in (select ...).
func NotInQuery[T any](left Operand[T], q *SelectQuery) Cond {
	return inQuery(OpNotIn, left, q)
}

// Opt applies the comparison cmp to left and *v. The condition is dropped
// when v is nil.
func Opt[T any](left Operand[T], v *T, cmp func(Operand[T], T) Cond) Cond {
	if v == nil {
		return Cond{}
	}
	return cmp(left, *v)
}
