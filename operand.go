// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlexpr

import (
	"fmt"

	"github.com/canonical/sqlexpr/internal/typeinfo"
)

// Table identifies a table or view that columns belong to. The alias, when
// set, qualifies column references.
type Table struct {
	name  string
	alias string
	info  *typeinfo.Info
}

// NewTable returns a table reference. The alias may be empty.
func NewTable(name, alias string) *Table {
	return &Table{name: name, alias: alias}
}

// TableOf returns a table reference whose columns are described by the "db"
// tags of the struct sample. Columns of the table can then be created with
// ColumnOf.
func TableOf(name, alias string, sample any) (*Table, error) {
	info, err := typeinfo.GetTypeInfo(sample)
	if err != nil {
		return nil, fmt.Errorf("cannot use %T as table %s: %s", sample, name, err)
	}
	return &Table{name: name, alias: alias, info: info}, nil
}

// Name returns the name of the table.
func (t *Table) Name() string {
	return t.name
}

// Alias returns the alias of the table.
func (t *Table) Alias() string {
	return t.alias
}

// Columns returns the column names described by the struct the table was
// created from, in field order.
func (t *Table) Columns() []string {
	if t.info == nil {
		return nil
	}
	return t.info.Tags()
}

// Column is a reference to a table column holding values of type T. It never
// carries a value.
type Column[T any] struct {
	table *Table
	name  string
	typ   Type
}

var _ Operand[int] = Column[int]{}

// NewColumn returns a reference to the column name of table t.
func NewColumn[T any](t *Table, name string) Column[T] {
	return Column[T]{table: t, name: name, typ: TypeFor[T]()}
}

// AnyColumn returns a reference to a column whose semantic type is only known
// at run time. Comparisons against it check their arguments when they are
// built.
func AnyColumn(t *Table, name string, typ Type) Column[any] {
	return Column[any]{table: t, name: name, typ: typ}
}

// ColumnOf returns the column of t tagged tag in the struct t was created
// from. The Go type of the struct field must be compatible with T.
func ColumnOf[T any](t *Table, tag string) (Column[T], error) {
	if t.info == nil {
		return Column[T]{}, constructionError("table %s has no struct description", t.name)
	}
	field, ok := t.info.TagToField[tag]
	if !ok {
		return Column[T]{}, constructionError("type %q has no %q db tag", t.info.Type.Name(), tag)
	}
	ft := field.SemanticType()
	want := TypeFor[T]()
	if !typeinfo.Compatible(ft, want) || (want.Kind != KindUnknown && ft.Kind != want.Kind) {
		return Column[T]{}, typeMismatchError("column "+tag, ft, want)
	}
	return Column[T]{table: t, name: tag, typ: ft}, nil
}

// Name returns the unqualified column name.
func (c Column[T]) Name() string {
	return c.name
}

// Table returns the table the column belongs to.
func (c Column[T]) Table() *Table {
	return c.table
}

func (c Column[T]) Type() Type {
	return c.typ
}

func (c Column[T]) columnRef() (*Table, string) {
	return c.table, c.name
}

func (Column[T]) expression() {}
func (Column[T]) operand(T)   {}

// Argument is a value bound to a placeholder.
type Argument[T any] struct {
	value T
	typ   Type
}

var _ Operand[int] = Argument[int]{}

// Arg returns an argument holding v.
func Arg[T any](v T) Argument[T] {
	return Argument[T]{value: v, typ: valueType[T](v)}
}

// AnyArg returns an argument holding v whose semantic type is taken from the
// dynamic type of v.
func AnyArg(v any) Argument[any] {
	return Argument[any]{value: v, typ: typeinfo.ValueType(v)}
}

// Value returns the value of the argument.
func (a Argument[T]) Value() T {
	return a.value
}

func (a Argument[T]) Type() Type {
	return a.typ
}

func (a Argument[T]) argValue() any {
	return a.value
}

func (Argument[T]) expression() {}
func (Argument[T]) operand(T)   {}

// Literal is a value rendered inline as an SQL constant instead of being
// bound to a placeholder.
type Literal[T any] struct {
	value T
	typ   Type
}

var _ Operand[int] = Literal[int]{}

// Lit returns a literal holding v.
func Lit[T any](v T) Literal[T] {
	return Literal[T]{value: v, typ: valueType[T](v)}
}

// Value returns the value of the literal.
func (l Literal[T]) Value() T {
	return l.value
}

func (l Literal[T]) Type() Type {
	return l.typ
}

func (l Literal[T]) literalValue() any {
	return l.value
}

func (Literal[T]) expression() {}
func (Literal[T]) operand(T)   {}

type columnRef interface {
	columnRef() (*Table, string)
}

type argument interface {
	argValue() any
}

type literal interface {
	literalValue() any
}

// valueType returns the semantic type of T, falling back to the dynamic
// type of v when T is an interface.
func valueType[T any](v T) Type {
	typ := TypeFor[T]()
	if typ.Kind == KindUnknown {
		return typeinfo.ValueType(v)
	}
	return typ
}

// isAbsent reports whether e is an argument holding the null sentinel.
func isAbsent(e Expression) bool {
	switch e := base(e).(type) {
	case argument:
		return typeinfo.IsAbsent(e.argValue())
	}
	return false
}
