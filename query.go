// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlexpr

import (
	"strconv"
)

// Query is a statement that can be rendered: a select, update, delete or
// insert.
type Query interface {
	render(w *sqlWriter) error
}

// Aliased names an expression of a select list.
type Aliased struct {
	Expr  Expression
	Alias string
}

func (a *Aliased) Type() Type { return a.Expr.Type() }
func (a *Aliased) Err() error  { return exprErr(a.Expr) }
func (*Aliased) expression()   {}

// As names the expression e in a select list.
func As(e Expression, alias string) *Aliased {
	return &Aliased{Expr: e, Alias: alias}
}

type joinKind uint8

const (
	innerJoin joinKind = iota
	leftJoin
)

type join struct {
	kind  joinKind
	table *Table
	on    On
}

// SelectQuery is a select statement. Its methods return modified copies, the
// receiver is never changed.
type SelectQuery struct {
	columns  []Expression
	distinct bool
	from     *Table
	joins    []join
	where    Where
	groupBy  []Expression
	having   Having
	orderBy  []Order
	limit    int64
	offset   int64
	err      error
}

// Select starts a select statement for the given columns. Without columns it
// selects *.
func Select(columns ...Expression) *SelectQuery {
	q := &SelectQuery{columns: append([]Expression(nil), columns...), limit: -1}
	q.err = firstErr(columns...)
	return q
}

func (q *SelectQuery) clone() *SelectQuery {
	c := *q
	c.columns = c.columns[:len(c.columns):len(c.columns)]
	c.joins = c.joins[:len(c.joins):len(c.joins)]
	c.groupBy = c.groupBy[:len(c.groupBy):len(c.groupBy)]
	c.orderBy = c.orderBy[:len(c.orderBy):len(c.orderBy)]
	return &c
}

// Err returns the construction error of the query.
func (q *SelectQuery) Err() error {
	return q.err
}

// Distinct makes the statement select distinct rows.
func (q *SelectQuery) Distinct() *SelectQuery {
	c := q.clone()
	c.distinct = true
	return c
}

// From sets the table the statement reads.
func (q *SelectQuery) From(t *Table) *SelectQuery {
	c := q.clone()
	c.from = t
	return c
}

// InnerJoin joins t on the condition declared by on.
func (q *SelectQuery) InnerJoin(t *Table, on On) *SelectQuery {
	c := q.clone()
	c.joins = append(c.joins, join{kind: innerJoin, table: t, on: on})
	return c
}

// LeftJoin left joins t on the condition declared by on.
func (q *SelectQuery) LeftJoin(t *Table, on On) *SelectQuery {
	c := q.clone()
	c.joins = append(c.joins, join{kind: leftJoin, table: t, on: on})
	return c
}

// Where sets the filter of the statement. Calling it again adds to the
// filter as if both declarations were joined with Plus.
func (q *SelectQuery) Where(w Where) *SelectQuery {
	c := q.clone()
	c.where = Plus(c.where, w)
	return c
}

// GroupBy sets the grouping of the statement.
func (q *SelectQuery) GroupBy(es ...Expression) *SelectQuery {
	c := q.clone()
	c.groupBy = append(c.groupBy, es...)
	if c.err == nil {
		c.err = firstErr(es...)
	}
	return c
}

// Having sets the group filter of the statement.
func (q *SelectQuery) Having(h Having) *SelectQuery {
	c := q.clone()
	c.having = Plus(c.having, h)
	return c
}

// OrderBy sets the ordering of the statement.
func (q *SelectQuery) OrderBy(orders ...Order) *SelectQuery {
	c := q.clone()
	c.orderBy = append(c.orderBy, orders...)
	if c.err == nil {
		for _, o := range orders {
			if err := exprErr(o.Expr); err != nil {
				c.err = err
				break
			}
		}
	}
	return c
}

// Limit limits the number of rows returned.
func (q *SelectQuery) Limit(n int64) *SelectQuery {
	c := q.clone()
	c.limit = n
	return c
}

// Offset skips the first n rows.
func (q *SelectQuery) Offset(n int64) *SelectQuery {
	c := q.clone()
	c.offset = n
	return c
}

// reads reports whether q reads the table t itself, in which case t inside
// q refers to the rows of q.
func (q *SelectQuery) reads(t *Table) bool {
	if t == nil {
		return false
	}
	if q.from == t {
		return true
	}
	for _, j := range q.joins {
		if j.table == t {
			return true
		}
	}
	return false
}

// scalarType returns the type of the single column selected by q.
func (q *SelectQuery) scalarType() (Type, bool) {
	if len(q.columns) != 1 {
		return Type{}, false
	}
	return q.columns[0].Type(), true
}

func (q *SelectQuery) render(w *sqlWriter) error {
	if q.err != nil {
		return q.err
	}
	w.buf.WriteString("select ")
	if q.distinct {
		w.buf.WriteString("distinct ")
	}
	if len(q.columns) == 0 {
		w.buf.WriteString("*")
	}
	for i, col := range q.columns {
		if i > 0 {
			w.buf.WriteString(", ")
		}
		if err := w.Visit(col); err != nil {
			return err
		}
		if a, ok := base(col).(*Aliased); ok {
			w.buf.WriteString(" as ")
			w.writeIdent(a.Alias)
		}
	}
	if q.from != nil {
		w.buf.WriteString(" from ")
		w.writeTable(q.from)
	}
	for _, j := range q.joins {
		if j.kind == leftJoin {
			w.buf.WriteString(" left join ")
		} else {
			w.buf.WriteString(" inner join ")
		}
		w.writeTable(j.table)
		tree, err := j.on.Build()
		if err != nil {
			return err
		}
		if tree != nil {
			w.buf.WriteString(" on ")
			if err := w.Visit(tree); err != nil {
				return err
			}
		}
	}
	if err := w.writeClause(" where ", DeclWhere, q.where); err != nil {
		return err
	}
	if len(q.groupBy) > 0 {
		w.buf.WriteString(" group by ")
		if err := w.writeList(q.groupBy); err != nil {
			return err
		}
	}
	if err := w.writeClause(" having ", DeclHaving, q.having); err != nil {
		return err
	}
	if len(q.orderBy) > 0 {
		w.buf.WriteString(" order by ")
		if err := w.writeOrder(q.orderBy); err != nil {
			return err
		}
	}
	if q.limit >= 0 {
		w.buf.WriteString(" limit " + strconv.FormatInt(q.limit, 10))
	}
	if q.offset > 0 {
		w.buf.WriteString(" offset " + strconv.FormatInt(q.offset, 10))
	}
	return nil
}

// writeClause renders the predicate declared by d after keyword. Nothing is
// written when the predicate was dropped entirely.
func (w *sqlWriter) writeClause(keyword string, kind DeclarationKind, d func(*Predicate)) error {
	tree, err := buildPredicate(kind, d)
	if err != nil {
		return err
	}
	if tree == nil {
		return nil
	}
	w.buf.WriteString(keyword)
	return w.Visit(tree)
}

// UpdateQuery is an update statement.
type UpdateQuery struct {
	table *Table
	set   Set
	where Where
}

// Update starts an update of t.
func Update(t *Table) *UpdateQuery {
	return &UpdateQuery{table: t}
}

// Set adds the assignments declared by s.
func (q *UpdateQuery) Set(s Set) *UpdateQuery {
	c := *q
	c.set = Plus(c.set, s)
	return &c
}

// Where sets the filter of the statement. Calling it again adds to the
// filter as if both declarations were joined with Plus.
func (q *UpdateQuery) Where(w Where) *UpdateQuery {
	c := *q
	c.where = Plus(c.where, w)
	return &c
}

func (q *UpdateQuery) render(w *sqlWriter) error {
	assignments, err := q.set.Build()
	if err != nil {
		return err
	}
	if len(assignments) == 0 {
		return constructionError("update %s: no assignments", q.table.name)
	}
	w.qualify = false
	w.outer = q.table
	w.buf.WriteString("update ")
	w.writeTable(q.table)
	w.buf.WriteString(" set ")
	if err := w.writeAssignments(assignments); err != nil {
		return err
	}
	return w.writeClause(" where ", DeclWhere, q.where)
}

// DeleteQuery is a delete statement.
type DeleteQuery struct {
	table *Table
	where Where
}

// DeleteFrom starts a delete from t.
func DeleteFrom(t *Table) *DeleteQuery {
	return &DeleteQuery{table: t}
}

// Where sets the filter of the statement. A delete whose filter is dropped
// entirely deletes every row.
func (q *DeleteQuery) Where(w Where) *DeleteQuery {
	c := *q
	c.where = Plus(c.where, w)
	return &c
}

func (q *DeleteQuery) render(w *sqlWriter) error {
	w.qualify = false
	w.outer = q.table
	w.buf.WriteString("delete from ")
	w.writeTable(q.table)
	return w.writeClause(" where ", DeclWhere, q.where)
}

// InsertQuery is an insert statement of a single row.
type InsertQuery struct {
	table  *Table
	values Values
}

// InsertInto starts an insert into t.
func InsertInto(t *Table) *InsertQuery {
	return &InsertQuery{table: t}
}

// Values adds the column values declared by v.
func (q *InsertQuery) Values(v Values) *InsertQuery {
	c := *q
	c.values = Plus(c.values, v)
	return &c
}

func (q *InsertQuery) render(w *sqlWriter) error {
	assignments, err := q.values.Build()
	if err != nil {
		return err
	}
	w.qualify = false
	w.buf.WriteString("insert into ")
	w.writeTable(q.table)
	if len(assignments) == 0 {
		w.buf.WriteString(" default values")
		return nil
	}
	w.buf.WriteString(" (")
	for i, a := range assignments {
		if i > 0 {
			w.buf.WriteString(", ")
		}
		if err := w.Visit(a.Column); err != nil {
			return err
		}
	}
	w.buf.WriteString(") values (")
	for i, a := range assignments {
		if i > 0 {
			w.buf.WriteString(", ")
		}
		if err := w.Visit(a.Value); err != nil {
			return err
		}
	}
	w.buf.WriteString(")")
	return nil
}
