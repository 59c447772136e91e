// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlexpr

import (
	"github.com/canonical/sqlexpr/internal/typeinfo"
)

// DeclarationKind says what a declaration builds and which nodes are legal
// inside it.
type DeclarationKind uint8

const (
	DeclWhere DeclarationKind = iota
	DeclHaving
	DeclOn
	DeclWhen
	DeclSet
	DeclValues
)

func (k DeclarationKind) String() string {
	switch k {
	case DeclWhere:
		return "where"
	case DeclHaving:
		return "having"
	case DeclOn:
		return "on"
	case DeclWhen:
		return "when"
	case DeclSet:
		return "set"
	case DeclValues:
		return "values"
	}
	return "invalid"
}

// Where declares the filter of a statement.
type Where func(*Predicate)

// Having declares the filter applied to groups.
type Having func(*Predicate)

// On declares the condition of a join.
type On func(*Predicate)

// When declares the condition of a case branch.
type When func(*Predicate)

// Set declares the assignments of an update.
type Set func(*Assigner)

// Values declares the column values of an insert.
type Values func(*Assigner)

// Build runs the declaration against a fresh context and returns the
// resulting tree. The tree is nil when nothing survived null propagation.
func (w Where) Build() (Expression, error) { return buildPredicate(DeclWhere, w) }

// Build runs the declaration against a fresh context and returns the
// resulting tree.
func (h Having) Build() (Expression, error) { return buildPredicate(DeclHaving, h) }

// Build runs the declaration against a fresh context and returns the
// resulting tree.
func (o On) Build() (Expression, error) { return buildPredicate(DeclOn, o) }

// Build runs the declaration against a fresh context and returns the
// resulting tree.
func (w When) Build() (Expression, error) { return buildPredicate(DeclWhen, w) }

// Build runs the declaration against a fresh context and returns the
// assignments in declaration order.
func (s Set) Build() ([]Assignment, error) { return buildAssignments(DeclSet, s) }

// Build runs the declaration against a fresh context and returns the
// assignments in declaration order.
func (v Values) Build() ([]Assignment, error) { return buildAssignments(DeclValues, v) }

func buildPredicate(kind DeclarationKind, d func(*Predicate)) (Expression, error) {
	p := &Predicate{kind: kind}
	if d != nil {
		d(p)
	}
	if p.err != nil {
		return nil, p.err
	}
	return reduce(LogicalAnd, p.nodes), nil
}

func buildAssignments(kind DeclarationKind, d func(*Assigner)) ([]Assignment, error) {
	a := &Assigner{kind: kind}
	if d != nil {
		d(a)
	}
	if a.err != nil {
		return nil, a.err
	}
	return a.assignments, nil
}

// Predicate is the context a predicate declaration runs against. The
// conditions added to it are joined with and, in the order they are added.
// A Predicate must not be used outside the declaration it was handed to.
type Predicate struct {
	kind  DeclarationKind
	nodes []Expression
	err   error
}

// Kind returns the kind of the declaration being run.
func (p *Predicate) Kind() DeclarationKind {
	return p.kind
}

// Err returns the first construction error met by the context.
func (p *Predicate) Err() error {
	return p.err
}

// Add appends conditions to the predicate. Dropped conditions are skipped.
func (p *Predicate) Add(conds ...Cond) {
	for _, c := range conds {
		if p.err != nil {
			return
		}
		if c.err != nil {
			p.err = c.err
			return
		}
		p.append(c.node)
	}
}

// And runs fn in a scope whose conditions are joined with and into a single
// condition of p.
func (p *Predicate) And(fn func(*Predicate)) {
	p.scope(LogicalAnd, fn)
}

// Or runs fn in a scope whose conditions are joined with or into a single
// condition of p.
func (p *Predicate) Or(fn func(*Predicate)) {
	p.scope(LogicalOr, fn)
}

// Not runs fn in a scope whose conditions are joined with and and negated as
// a single condition of p.
func (p *Predicate) Not(fn func(*Predicate)) {
	p.scope(LogicalNot, fn)
}

func (p *Predicate) scope(kind LogicalKind, fn func(*Predicate)) {
	if p.err != nil {
		return
	}
	p.append(p.group(kind, fn))
}

// group runs fn against a child context and reduces its conditions with the
// given connective.
func (p *Predicate) group(kind LogicalKind, fn func(*Predicate)) Expression {
	child := &Predicate{kind: p.kind}
	if fn != nil {
		fn(child)
	}
	if child.err != nil {
		p.err = child.err
		return nil
	}
	return reduce(kind, child.nodes)
}

func (p *Predicate) append(e Expression) {
	if e == nil || p.err != nil {
		return
	}
	if err := checkLegal(p.kind, e); err != nil {
		p.err = err
		return
	}
	p.nodes = append(p.nodes, e)
}

// Plus returns the declaration running d1 and then d2 against the same
// context. No grouping is introduced.
func Plus[D ~func(C), C any](d1, d2 D) D {
	f1, f2 := (func(C))(d1), (func(C))(d2)
	return func(c C) {
		if f1 != nil {
			f1(c)
		}
		if f2 != nil {
			f2(c)
		}
	}
}

// And returns the declaration joining d1 and d2 with and. Each side is first
// reduced to a single condition.
func And[D ~func(*Predicate)](d1, d2 D) D {
	return combine(LogicalAnd, d1, d2)
}

// Or returns the declaration joining d1 and d2 with or. Each side is first
// reduced to a single condition.
func Or[D ~func(*Predicate)](d1, d2 D) D {
	return combine(LogicalOr, d1, d2)
}

// Not returns the declaration negating d.
func Not[D ~func(*Predicate)](d D) D {
	f := (func(*Predicate))(d)
	return func(p *Predicate) {
		p.Not(f)
	}
}

func combine[D ~func(*Predicate)](kind LogicalKind, d1, d2 D) D {
	f1, f2 := (func(*Predicate))(d1), (func(*Predicate))(d2)
	return func(p *Predicate) {
		if p.err != nil {
			return
		}
		left := p.group(LogicalAnd, f1)
		right := p.group(LogicalAnd, f2)
		if p.err != nil {
			return
		}
		p.append(reduce(kind, []Expression{left, right}))
	}
}

// Assignment sets a column to a value.
type Assignment struct {
	Column Expression
	Value  Expression
	err    error
}

// Err returns the construction error of the assignment.
func (a Assignment) Err() error {
	return a.err
}

// Assign sets col to v. An absent v binds a nil parameter of the column's
// type.
func Assign[T any](col Column[T], v T) Assignment {
	if typeinfo.IsAbsent(v) {
		return Assignment{Column: col, Value: Argument[any]{typ: col.Type()}}
	}
	return assign(col, Arg(v))
}

// AssignExpr sets col to the value of e.
func AssignExpr[T any](col Column[T], e Operand[T]) Assignment {
	return assign(col, e)
}

func assign(col columnExpr, e Expression) Assignment {
	if err := exprErr(e); err != nil {
		return Assignment{err: err}
	}
	if !typeinfo.Compatible(col.Type(), e.Type()) {
		return Assignment{err: typeMismatchError("assign "+col.Name(), col.Type(), e.Type())}
	}
	return Assignment{Column: col, Value: e}
}

type columnExpr interface {
	Expression
	columnRef
	Name() string
}

// Assigner is the context set and values declarations run against.
type Assigner struct {
	kind        DeclarationKind
	assignments []Assignment
	err         error
}

// Kind returns the kind of the declaration being run.
func (a *Assigner) Kind() DeclarationKind {
	return a.kind
}

// Err returns the first construction error met by the context.
func (a *Assigner) Err() error {
	return a.err
}

// Add appends assignments in order.
func (a *Assigner) Add(assignments ...Assignment) {
	for _, as := range assignments {
		if a.err != nil {
			return
		}
		if as.err != nil {
			a.err = as.err
			return
		}
		if err := checkLegal(a.kind, as.Value); err != nil {
			a.err = err
			return
		}
		a.assignments = append(a.assignments, as)
	}
}

// checkLegal rejects the nodes a declaration kind does not allow. Aggregate
// and window functions are not allowed in where and on declarations, nor
// anywhere in set or values. Subqueries are checked when they are rendered.
func checkLegal(kind DeclarationKind, e Expression) error {
	if kind != DeclWhere && kind != DeclOn && kind != DeclSet && kind != DeclValues {
		return nil
	}
	var err error
	walk(e, func(e Expression) bool {
		switch e := e.(type) {
		case *Window:
			err = constructionError("window function %s not allowed in %s", e.Func.Name, kind)
		case *Call:
			if e.Class == ClassAggregate || e.Class == ClassWindow {
				err = constructionError("function %s not allowed in %s", e.Name, kind)
			}
		case *Subquery:
			return false
		}
		return err == nil
	})
	return err
}

// walk calls fn for e and its descendants, depth first, until fn returns
// false. The children of a node for which fn returns false are skipped.
func walk(e Expression, fn func(Expression) bool) bool {
	e = base(e)
	if e == nil {
		return true
	}
	if !fn(e) {
		return false
	}
	for _, c := range children(e) {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func children(e Expression) []Expression {
	switch e := e.(type) {
	case *Comparison:
		cs := append(append([]Expression(nil), e.Left...), e.Right...)
		for _, row := range e.List {
			cs = append(cs, row...)
		}
		return cs
	case *Logical:
		return e.Children
	case *Arithmetic:
		return []Expression{e.Left, e.Right}
	case *Call:
		return e.Args
	case *Window:
		cs := append([]Expression{e.Func}, e.PartitionBy...)
		for _, o := range e.OrderBy {
			cs = append(cs, o.Expr)
		}
		return cs
	case *Conditional:
		cs := append([]Expression(nil), e.Args...)
		for _, b := range e.Branches {
			cs = append(cs, b.When, b.Then)
		}
		if e.Else != nil {
			cs = append(cs, e.Else)
		}
		return cs
	case *Aliased:
		return []Expression{e.Expr}
	}
	return nil
}
