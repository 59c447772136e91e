// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlexpr

import (
	"github.com/canonical/sqlexpr/internal/typeinfo"
)

// Type is the semantic type of an expression. It is fixed when the
// expression is constructed.
type Type = typeinfo.Type

// Kind is the semantic category of a Type.
type Kind = typeinfo.Kind

const (
	KindUnknown = typeinfo.Unknown
	KindBool    = typeinfo.Bool
	KindInt     = typeinfo.Int
	KindUint    = typeinfo.Uint
	KindFloat   = typeinfo.Float
	KindDecimal = typeinfo.Decimal
	KindString  = typeinfo.String
	KindBytes   = typeinfo.Bytes
	KindTime    = typeinfo.Time
	KindUUID    = typeinfo.UUID
	KindOther   = typeinfo.Other
)

// TypeFor returns the semantic type of the Go type T.
func TypeFor[T any]() Type {
	return typeinfo.For[T]()
}

var boolType = typeinfo.For[bool]()

// Expression is a node of an expression tree. Nodes are immutable values:
// building them performs no I/O and touches no shared state.
type Expression interface {
	// Type returns the semantic type of the value the expression produces.
	Type() Type

	// expression is a marker method.
	expression()
}

// Operand is an expression producing a value of the Go type T.
type Operand[T any] interface {
	Expression

	// operand is a marker method binding the operand to T.
	operand(T)
}

// typed gives an untyped node the Go type T. It also carries the error, if
// any, that occurred while the node was built.
type typed[T any] struct {
	node Expression
	err  error
}

func (t typed[T]) Type() Type {
	if t.node == nil {
		return TypeFor[T]()
	}
	return t.node.Type()
}

// Err returns the error that occurred while building the expression.
func (t typed[T]) Err() error {
	return t.err
}

func (t typed[T]) unwrap() Expression { return t.node }

func (typed[T]) expression() {}
func (typed[T]) operand(T)   {}

// Cast gives the expression e the Go type T. It is used to plug the result of
// extension functions into typed constructors. A construction error is
// recorded if the semantic type of e cannot hold a T.
func Cast[T any](e Expression) Operand[T] {
	if err := exprErr(e); err != nil {
		return typed[T]{err: err}
	}
	if !typeinfo.Compatible(e.Type(), TypeFor[T]()) {
		return typed[T]{err: typeMismatchError("cast", e.Type(), TypeFor[T]())}
	}
	return typed[T]{node: base(e)}
}

// wrapper is implemented by nodes that decorate another node.
type wrapper interface {
	unwrap() Expression
}

// base strips typed wrappers from e.
func base(e Expression) Expression {
	for {
		w, ok := e.(wrapper)
		if !ok {
			return e
		}
		e = w.unwrap()
	}
}

// exprErr returns the construction error carried by e, if any.
func exprErr(e Expression) error {
	if e == nil {
		return nil
	}
	if ee, ok := e.(interface{ Err() error }); ok {
		return ee.Err()
	}
	return nil
}

// firstErr returns the first construction error carried by the expressions.
func firstErr(es ...Expression) error {
	for _, e := range es {
		if err := exprErr(e); err != nil {
			return err
		}
	}
	return nil
}

// Cond is a boolean expression under construction. A Cond holds exactly one
// of: an expression node, nothing (the condition was dropped because one of
// its arguments was absent), or the error that prevented it from being
// built. The zero Cond is dropped.
type Cond struct {
	node Expression
	err  error
}

// Expr returns the node of the condition, or nil if the condition was dropped
// or could not be built.
func (c Cond) Expr() Expression {
	return c.node
}

// Dropped reports whether the condition was dropped by the absent value
// policy.
func (c Cond) Dropped() bool {
	return c.node == nil && c.err == nil
}

// Err returns the construction error of the condition.
func (c Cond) Err() error {
	return c.err
}

func condOf(e Expression) Cond {
	return Cond{node: e}
}

func condErr(err error) Cond {
	return Cond{err: err}
}

// AllOf joins the conditions with and. Dropped conditions are skipped.
func AllOf(conds ...Cond) Cond {
	return combineConds(LogicalAnd, conds)
}

// AnyOf joins the conditions with or. Dropped conditions are skipped.
func AnyOf(conds ...Cond) Cond {
	return combineConds(LogicalOr, conds)
}

// Negate wraps the condition in not. A dropped condition stays dropped.
func Negate(c Cond) Cond {
	return combineConds(LogicalNot, []Cond{c})
}

func combineConds(kind LogicalKind, conds []Cond) Cond {
	children := make([]Expression, 0, len(conds))
	for _, c := range conds {
		if c.err != nil {
			return c
		}
		children = append(children, c.node)
	}
	return condOf(reduce(kind, children))
}
