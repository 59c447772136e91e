// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlexpr

import (
	"github.com/canonical/sqlexpr/internal/typeinfo"
)

// ConditionalKind is the kind of a Conditional node.
type ConditionalKind uint8

const (
	ConditionalCoalesce ConditionalKind = iota
	ConditionalCase
)

// Branch is one when ... then ... arm of a case.
type Branch struct {
	When Expression
	Then Expression
}

// Conditional is a coalesce(...) or a case expression.
type Conditional struct {
	Kind ConditionalKind

	// Args holds the operands of a coalesce.
	Args []Expression

	// Branches and Else make up a case.
	Branches []Branch
	Else     Expression
}

func (c *Conditional) Type() Type {
	if c.Kind == ConditionalCoalesce {
		return c.Args[0].Type()
	}
	return c.Else.Type()
}

func (*Conditional) expression() {}

// Coalesce returns the first of its operands that is not null.
func Coalesce[T any](first, second Operand[T], rest ...Operand[T]) Operand[T] {
	args := make([]Expression, 0, 2+len(rest))
	args = append(args, first, second)
	for _, r := range rest {
		args = append(args, r)
	}
	if err := firstErr(args...); err != nil {
		return typed[T]{err: err}
	}
	for _, a := range args[1:] {
		if !typeinfo.Compatible(first.Type(), a.Type()) {
			return typed[T]{err: typeMismatchError("coalesce", first.Type(), a.Type())}
		}
	}
	return typed[T]{node: &Conditional{Kind: ConditionalCoalesce, Args: args}}
}

// CaseBuilder assembles a case expression. Its methods return new builders,
// so a partially built case can be reused.
type CaseBuilder[T any] struct {
	otherwise Operand[T]
	branches  []Branch
	whens     int
	err       error
}

// Case starts a case expression that evaluates to otherwise when no branch
// matches.
func Case[T any](otherwise Operand[T]) CaseBuilder[T] {
	return CaseBuilder[T]{otherwise: otherwise, err: exprErr(otherwise)}
}

// When adds the branch when w then result. A branch whose condition is
// dropped entirely is left out.
func (b CaseBuilder[T]) When(w When, result Operand[T]) CaseBuilder[T] {
	b.whens++
	if b.err != nil {
		return b
	}
	cond, err := w.Build()
	if err != nil {
		b.err = err
		return b
	}
	return b.add(cond, result)
}

// WhenCond adds the branch when c then result. A dropped condition is left
// out.
func (b CaseBuilder[T]) WhenCond(c Cond, result Operand[T]) CaseBuilder[T] {
	b.whens++
	if b.err != nil {
		return b
	}
	if c.err != nil {
		b.err = c.err
		return b
	}
	return b.add(c.node, result)
}

func (b CaseBuilder[T]) add(cond Expression, result Operand[T]) CaseBuilder[T] {
	if err := exprErr(result); err != nil {
		b.err = err
		return b
	}
	if cond == nil {
		return b
	}
	if b.otherwise != nil && !typeinfo.Compatible(b.otherwise.Type(), result.Type()) {
		b.err = typeMismatchError("case", b.otherwise.Type(), result.Type())
		return b
	}
	b.branches = append(b.branches[:len(b.branches):len(b.branches)], Branch{When: cond, Then: result})
	return b
}

// End finishes the case. A case without any branch is a construction error.
// A case whose branches were all dropped evaluates to its default.
func (b CaseBuilder[T]) End() Operand[T] {
	if b.err != nil {
		return typed[T]{err: b.err}
	}
	if b.otherwise == nil {
		return typed[T]{err: constructionError("case: no default result")}
	}
	if b.whens == 0 {
		return typed[T]{err: constructionError("case: no branches")}
	}
	if len(b.branches) == 0 {
		return b.otherwise
	}
	return typed[T]{node: &Conditional{
		Kind:     ConditionalCase,
		Branches: append([]Branch(nil), b.branches...),
		Else:     b.otherwise,
	}}
}
