// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlexpr

import (
	"github.com/canonical/sqlexpr/internal/typeinfo"
)

// SubqueryKind is the role of a subquery in its enclosing expression.
type SubqueryKind uint8

const (
	SubqueryScalar SubqueryKind = iota
	SubqueryExists
	SubqueryNotExists
	SubqueryIn
)

// Subquery embeds a select statement in an expression.
type Subquery struct {
	Kind  SubqueryKind
	Query *SelectQuery
}

func (s *Subquery) Type() Type {
	if s.Kind == SubqueryScalar || s.Kind == SubqueryIn {
		typ, _ := s.Query.scalarType()
		return typ
	}
	return boolType
}

func (*Subquery) expression() {}

func newSubquery(kind SubqueryKind, q *SelectQuery) (*Subquery, error) {
	if q == nil {
		return nil, constructionError("subquery: nil query")
	}
	if q.err != nil {
		return nil, q.err
	}
	if (kind == SubqueryScalar || kind == SubqueryIn) && len(q.columns) != 1 {
		return nil, constructionError("subquery: selects %d columns, want 1", len(q.columns))
	}
	return &Subquery{Kind: kind, Query: q}, nil
}

// Scalar uses the single column selected by q as a value.
func Scalar[T any](q *SelectQuery) Operand[T] {
	sub, err := newSubquery(SubqueryScalar, q)
	if err != nil {
		return typed[T]{err: err}
	}
	if typ, _ := q.scalarType(); !typeinfo.Compatible(typ, TypeFor[T]()) {
		return typed[T]{err: typeMismatchError("subquery", TypeFor[T](), typ)}
	}
	return typed[T]{node: sub}
}

// Exists holds when q returns at least one row.
func Exists(q *SelectQuery) Cond {
	sub, err := newSubquery(SubqueryExists, q)
	if err != nil {
		return condErr(err)
	}
	return condOf(sub)
}

// NotExists holds when q returns no rows.
func NotExists(q *SelectQuery) Cond {
	sub, err := newSubquery(SubqueryNotExists, q)
	if err != nil {
		return condErr(err)
	}
	return condOf(sub)
}
