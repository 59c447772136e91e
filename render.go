// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlexpr

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/canonical/sqlexpr/internal/typeinfo"
)

// Param is a value bound to a placeholder.
type Param struct {
	Type  Type
	Value any
}

// Statement is rendered SQL. Params holds one entry per placeholder, in the
// order the placeholders appear in SQL.
type Statement struct {
	SQL    string
	Params []Param
}

// Args returns the parameter values, ready to be passed to database/sql.
func (s Statement) Args() []any {
	args := make([]any, len(s.Params))
	for i, p := range s.Params {
		args[i] = p.Value
	}
	return args
}

// Empty reports whether nothing was rendered.
func (s Statement) Empty() bool {
	return s.SQL == ""
}

// Where renders the tree built by w without the where keyword. The result is
// empty when every condition of w was dropped.
func (r *Renderer) Where(w Where) (Statement, error) {
	tree, err := w.Build()
	return r.predicate(DeclWhere, tree, err)
}

// Having renders the tree built by h without the having keyword.
func (r *Renderer) Having(h Having) (Statement, error) {
	tree, err := h.Build()
	return r.predicate(DeclHaving, tree, err)
}

// On renders the tree built by o without the on keyword.
func (r *Renderer) On(o On) (Statement, error) {
	tree, err := o.Build()
	return r.predicate(DeclOn, tree, err)
}

func (r *Renderer) predicate(kind DeclarationKind, tree Expression, err error) (Statement, error) {
	if err != nil {
		return Statement{}, err
	}
	if tree == nil {
		r.log().Debug("predicate dropped", "kind", kind.String())
		return Statement{}, nil
	}
	return r.Expression(tree)
}

// Cond renders a single condition. A dropped condition renders empty.
func (r *Renderer) Cond(c Cond) (Statement, error) {
	if c.err != nil {
		return Statement{}, c.err
	}
	if c.node == nil {
		return Statement{}, nil
	}
	return r.Expression(c.node)
}

// Assignments renders the assignments built by s as a comma separated list
// of column = value pairs.
func (r *Renderer) Assignments(s Set) (Statement, error) {
	assignments, err := s.Build()
	if err != nil {
		return Statement{}, err
	}
	w := r.newWriter(false)
	if err := w.writeAssignments(assignments); err != nil {
		return Statement{}, err
	}
	return r.finish(w)
}

// Expression renders e.
func (r *Renderer) Expression(e Expression) (Statement, error) {
	if err := exprErr(e); err != nil {
		return Statement{}, err
	}
	w := r.newWriter(true)
	if err := w.Visit(e); err != nil {
		return Statement{}, err
	}
	return r.finish(w)
}

// Render renders a complete statement.
func (r *Renderer) Render(q Query) (Statement, error) {
	w := r.newWriter(true)
	if err := q.render(w); err != nil {
		return Statement{}, err
	}
	return r.finish(w)
}

// Render renders q with the Generic dialect and the built-in catalog.
func Render(q Query) (Statement, error) {
	return defaultRenderer.Render(q)
}

// RenderWhere renders the tree built by w with the Generic dialect and the
// built-in catalog.
func RenderWhere(w Where) (Statement, error) {
	return defaultRenderer.Where(w)
}

func (r *Renderer) newWriter(qualify bool) *sqlWriter {
	return &sqlWriter{r: r, qualify: qualify}
}

func (r *Renderer) finish(w *sqlWriter) (Statement, error) {
	sql, err := r.format.ReplacePlaceholders(w.buf.String())
	if err != nil {
		return Statement{}, renderError(err)
	}
	r.log().Debug("rendered statement", "dialect", r.dialect.Name, "sql", sql, "params", len(w.params))
	return Statement{SQL: sql, Params: w.params}, nil
}

// sqlWriter accumulates the text and the parameters of a statement in step.
// Placeholders are written as ? and converted to the dialect style once the
// statement is complete.
type sqlWriter struct {
	r       *Renderer
	buf     bytes.Buffer
	params  []Param
	qualify bool
	// outer is the target of the enclosing update or delete. It is written
	// without its alias, so references to it are qualified by table name.
	outer *Table
}

var _ Writer = (*sqlWriter)(nil)

func (w *sqlWriter) Dialect() *Dialect {
	return w.r.dialect
}

// WriteString writes s, escaping question marks when the dialect does not
// use them as placeholders.
func (w *sqlWriter) WriteString(s string) {
	if w.r.dialect.Placeholder != PlaceholderQuestion && w.r.dialect.Placeholder != "" {
		s = strings.ReplaceAll(s, "?", "??")
	}
	w.buf.WriteString(s)
}

func (w *sqlWriter) bind(typ Type, v any) {
	w.buf.WriteString("?")
	w.params = append(w.params, Param{Type: typ, Value: v})
}

func (w *sqlWriter) writeIdent(name string) {
	w.WriteString(w.r.dialect.quote(name))
}

func (w *sqlWriter) writeTable(t *Table) {
	w.writeIdent(t.name)
	if t.alias != "" && w.qualify {
		w.buf.WriteString(" ")
		w.writeIdent(t.alias)
	}
}

func (w *sqlWriter) writeColumn(t *Table, name string) {
	switch {
	case !w.qualify || t == nil:
	case t == w.outer:
		w.writeIdent(t.name)
		w.buf.WriteString(".")
	case t.alias != "":
		w.writeIdent(t.alias)
		w.buf.WriteString(".")
	}
	w.writeIdent(name)
}

// writeList renders the expressions separated by commas.
func (w *sqlWriter) writeList(es []Expression) error {
	for i, e := range es {
		if i > 0 {
			w.buf.WriteString(", ")
		}
		if err := w.Visit(e); err != nil {
			return err
		}
	}
	return nil
}

// writeTuple renders a single expression bare and several in parentheses.
func (w *sqlWriter) writeTuple(es []Expression) error {
	if len(es) == 1 {
		return w.Visit(es[0])
	}
	w.buf.WriteString("(")
	if err := w.writeList(es); err != nil {
		return err
	}
	w.buf.WriteString(")")
	return nil
}

func (w *sqlWriter) writeOrder(orders []Order) error {
	for i, o := range orders {
		if i > 0 {
			w.buf.WriteString(", ")
		}
		if err := w.Visit(o.Expr); err != nil {
			return err
		}
		if o.Desc {
			w.buf.WriteString(" desc")
		}
	}
	return nil
}

func (w *sqlWriter) writeAssignments(assignments []Assignment) error {
	for i, a := range assignments {
		if i > 0 {
			w.buf.WriteString(", ")
		}
		if err := w.Visit(a.Column); err != nil {
			return err
		}
		w.buf.WriteString(" = ")
		if err := w.Visit(a.Value); err != nil {
			return err
		}
	}
	return nil
}

// Visit renders e depth first.
func (w *sqlWriter) Visit(e Expression) error {
	if err := exprErr(e); err != nil {
		return err
	}
	switch e := base(e).(type) {
	case nil:
		return renderError(fmt.Errorf("empty expression"))
	case columnRef:
		t, name := e.columnRef()
		w.writeColumn(t, name)
	case argument:
		w.bind(e.(Expression).Type(), e.argValue())
	case literal:
		text, err := typeinfo.FormatLiteral(e.literalValue(), w.r.dialect.timeFormat())
		if err != nil {
			return renderError(err)
		}
		w.WriteString(text)
	case *Comparison:
		return w.visitComparison(e)
	case *Logical:
		return w.visitLogical(e)
	case *Arithmetic:
		w.buf.WriteString("(")
		if err := w.Visit(e.Left); err != nil {
			return err
		}
		w.buf.WriteString(" " + e.Op.String() + " ")
		if err := w.Visit(e.Right); err != nil {
			return err
		}
		w.buf.WriteString(")")
	case *Call:
		return w.visitCall(e)
	case *Window:
		return w.visitWindow(e)
	case *Conditional:
		return w.visitConditional(e)
	case *Subquery:
		return w.visitSubquery(e)
	case *Aliased:
		return w.Visit(e.Expr)
	default:
		return renderError(fmt.Errorf("unsupported expression %T", e))
	}
	return nil
}

func (w *sqlWriter) visitComparison(c *Comparison) error {
	if err := w.writeTuple(c.Left); err != nil {
		return err
	}
	w.buf.WriteString(" " + c.Op.String())
	switch c.Op {
	case OpIsNull, OpIsNotNull:
		return nil
	case OpBetween, OpNotBetween:
		w.buf.WriteString(" ")
		if err := w.Visit(c.Right[0]); err != nil {
			return err
		}
		w.buf.WriteString(" and ")
		return w.Visit(c.Right[1])
	case OpLike, OpNotLike:
		pattern, ok := base(c.Right[0]).(Argument[string])
		if !ok {
			return renderError(fmt.Errorf("like pattern is %T, not a string argument", base(c.Right[0])))
		}
		stringType := pattern.Type()
		w.buf.WriteString(" ")
		w.bind(stringType, w.r.dialect.escapePattern(pattern.Value(), c.Pattern))
		w.buf.WriteString(" escape ")
		w.bind(stringType, w.r.dialect.escapeChar())
		return nil
	case OpIn, OpNotIn:
		w.buf.WriteString(" (")
		switch {
		case c.Query != nil:
			if err := w.writeSubquery(c.Query.Query); err != nil {
				return err
			}
		case len(c.List) == 0:
			w.buf.WriteString("null")
		default:
			for i, row := range c.List {
				if i > 0 {
					w.buf.WriteString(", ")
				}
				if err := w.writeTuple(row); err != nil {
					return err
				}
			}
		}
		w.buf.WriteString(")")
		return nil
	}
	w.buf.WriteString(" ")
	return w.Visit(c.Right[0])
}

func (w *sqlWriter) visitLogical(l *Logical) error {
	if l.Kind == LogicalNot {
		if len(l.Children) != 1 {
			return renderError(fmt.Errorf("not: expected 1 operand, got %d", len(l.Children)))
		}
		w.buf.WriteString("not (")
		if err := w.Visit(l.Children[0]); err != nil {
			return err
		}
		w.buf.WriteString(")")
		return nil
	}
	if len(l.Children) == 0 {
		return renderError(fmt.Errorf("%s: no operands", l.Kind))
	}
	sep := " " + l.Kind.String() + " "
	for i, c := range l.Children {
		if i > 0 {
			w.buf.WriteString(sep)
		}
		child, ok := base(c).(*Logical)
		paren := ok && child.Kind != l.Kind && child.Kind != LogicalNot
		if paren {
			w.buf.WriteString("(")
		}
		if err := w.Visit(c); err != nil {
			return err
		}
		if paren {
			w.buf.WriteString(")")
		}
	}
	return nil
}

func (w *sqlWriter) visitCall(c *Call) error {
	ext, ok := w.r.registry.lookup(c.Name)
	if !ok {
		return fmt.Errorf("%w: %w: %q", ErrRender, ErrUnknownExtension, c.Name)
	}
	if ext.render != nil {
		if err := ext.render(w, c); err != nil {
			return renderError(fmt.Errorf("%s: %w", c.Name, err))
		}
		return nil
	}
	if ext.class == ClassOperator {
		if len(c.Args) == 1 {
			w.WriteString(c.Name + " ")
			return w.Visit(c.Args[0])
		}
		w.buf.WriteString("(")
		if err := w.Visit(c.Args[0]); err != nil {
			return err
		}
		w.WriteString(" " + c.Name + " ")
		if err := w.Visit(c.Args[1]); err != nil {
			return err
		}
		w.buf.WriteString(")")
		return nil
	}
	w.WriteString(w.r.dialect.functionName(c.Name))
	w.buf.WriteString("(")
	if c.Distinct {
		w.buf.WriteString("distinct ")
	}
	if c.Star {
		w.buf.WriteString("*")
	} else if err := w.writeList(c.Args); err != nil {
		return err
	}
	w.buf.WriteString(")")
	return nil
}

func (w *sqlWriter) visitWindow(win *Window) error {
	if err := w.visitCall(win.Func); err != nil {
		return err
	}
	w.buf.WriteString(" over (")
	space := ""
	if len(win.PartitionBy) > 0 {
		w.buf.WriteString("partition by ")
		if err := w.writeList(win.PartitionBy); err != nil {
			return err
		}
		space = " "
	}
	if len(win.OrderBy) > 0 {
		w.buf.WriteString(space + "order by ")
		if err := w.writeOrder(win.OrderBy); err != nil {
			return err
		}
		space = " "
	}
	if f := win.Frame; f != nil {
		w.buf.WriteString(space + f.Unit.String() + " ")
		if f.End == nil {
			w.writeBound(f.Start)
		} else {
			w.buf.WriteString("between ")
			w.writeBound(f.Start)
			w.buf.WriteString(" and ")
			w.writeBound(*f.End)
		}
	}
	w.buf.WriteString(")")
	return nil
}

func (w *sqlWriter) writeBound(b Bound) {
	switch b.Kind {
	case BoundUnboundedPreceding:
		w.buf.WriteString("unbounded preceding")
	case BoundPreceding:
		w.buf.WriteString(strconv.FormatInt(b.Offset, 10) + " preceding")
	case BoundCurrentRow:
		w.buf.WriteString("current row")
	case BoundFollowing:
		w.buf.WriteString(strconv.FormatInt(b.Offset, 10) + " following")
	case BoundUnboundedFollowing:
		w.buf.WriteString("unbounded following")
	}
}

func (w *sqlWriter) visitConditional(c *Conditional) error {
	if c.Kind == ConditionalCoalesce {
		w.buf.WriteString("coalesce(")
		if err := w.writeList(c.Args); err != nil {
			return err
		}
		w.buf.WriteString(")")
		return nil
	}
	w.buf.WriteString("case")
	for _, b := range c.Branches {
		w.buf.WriteString(" when ")
		if err := w.Visit(b.When); err != nil {
			return err
		}
		w.buf.WriteString(" then ")
		if err := w.Visit(b.Then); err != nil {
			return err
		}
	}
	w.buf.WriteString(" else ")
	if err := w.Visit(c.Else); err != nil {
		return err
	}
	w.buf.WriteString(" end")
	return nil
}

func (w *sqlWriter) visitSubquery(s *Subquery) error {
	switch s.Kind {
	case SubqueryExists:
		w.buf.WriteString("exists ")
	case SubqueryNotExists:
		w.buf.WriteString("not exists ")
	}
	w.buf.WriteString("(")
	if err := w.writeSubquery(s.Query); err != nil {
		return err
	}
	w.buf.WriteString(")")
	return nil
}

// writeSubquery renders q into its own text and parameters and splices both
// into w.
func (w *sqlWriter) writeSubquery(q *SelectQuery) error {
	sub := w.r.newWriter(true)
	if !q.reads(w.outer) {
		sub.outer = w.outer
	}
	if err := q.render(sub); err != nil {
		return renderError(fmt.Errorf("cannot render subquery: %w", err))
	}
	w.buf.Write(sub.buf.Bytes())
	w.params = append(w.params, sub.params...)
	return nil
}
