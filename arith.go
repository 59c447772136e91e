// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlexpr

import (
	"github.com/canonical/sqlexpr/internal/typeinfo"
)

// ArithOp is the operator of an Arithmetic node.
type ArithOp uint8

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

func (op ArithOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	}
	return "invalid"
}

// Arithmetic applies a binary numeric operator. It renders parenthesized.
type Arithmetic struct {
	Op    ArithOp
	Left  Expression
	Right Expression
}

func (a *Arithmetic) Type() Type { return a.Left.Type() }
func (*Arithmetic) expression()  {}

func arith[T any](op ArithOp, left, right Expression) Operand[T] {
	if err := firstErr(left, right); err != nil {
		return typed[T]{err: err}
	}
	for _, e := range []Expression{left, right} {
		if k := e.Type().Kind; !k.Numeric() && k != KindUnknown {
			return typed[T]{err: constructionError("%s: operand of type %s is not numeric", op, e.Type())}
		}
	}
	if !typeinfo.Compatible(left.Type(), right.Type()) {
		return typed[T]{err: typeMismatchError(op.String(), left.Type(), right.Type())}
	}
	return typed[T]{node: &Arithmetic{Op: op, Left: left, Right: right}}
}

// Add returns (left + v).
func Add[T any](left Operand[T], v T) Operand[T] { return arith[T](OpAdd, left, Arg(v)) }

// Sub returns (left - v).
func Sub[T any](left Operand[T], v T) Operand[T] { return arith[T](OpSub, left, Arg(v)) }

// Mul returns (left * v).
func Mul[T any](left Operand[T], v T) Operand[T] { return arith[T](OpMul, left, Arg(v)) }

// Div returns (left / v).
func Div[T any](left Operand[T], v T) Operand[T] { return arith[T](OpDiv, left, Arg(v)) }

// Mod returns (left % v).
func Mod[T any](left Operand[T], v T) Operand[T] { return arith[T](OpMod, left, Arg(v)) }

// AddExpr returns (left + right).
func AddExpr[T any](left, right Operand[T]) Operand[T] { return arith[T](OpAdd, left, right) }

// SubExpr returns (left - right).
func SubExpr[T any](left, right Operand[T]) Operand[T] { return arith[T](OpSub, left, right) }

// MulExpr returns (left * right).
func MulExpr[T any](left, right Operand[T]) Operand[T] { return arith[T](OpMul, left, right) }

// DivExpr returns (left / right).
func DivExpr[T any](left, right Operand[T]) Operand[T] { return arith[T](OpDiv, left, right) }

// ModExpr returns (left % right).
func ModExpr[T any](left, right Operand[T]) Operand[T] { return arith[T](OpMod, left, right) }
