package sqlexpr_test

import (
	"database/sql"

	. "gopkg.in/check.v1"

	"github.com/canonical/sqlexpr"
)

type DeclarationSuite struct{}

var _ = Suite(&DeclarationSuite{})

func renderWhere(c *C, w sqlexpr.Where) sqlexpr.Statement {
	stmt, err := sqlexpr.RenderWhere(w)
	c.Assert(err, IsNil)
	return stmt
}

func (s *DeclarationSuite) TestPlus(c *C) {
	a := sqlexpr.Eq(addressID, 1)
	b := sqlexpr.StartsWith(street, "S")
	d := sqlexpr.Less(version, 3)

	joined := renderWhere(c, sqlexpr.Plus(sqlexpr.Plus(where(a), where(b)), where(d)))
	flat := renderWhere(c, where(a, b, d))
	c.Assert(joined, DeepEquals, flat)
	c.Assert(joined.SQL, Equals, "ADDRESS_ID = ? and STREET like ? escape ? and VERSION < ?")

	// Plus is associative.
	other := renderWhere(c, sqlexpr.Plus(where(a), sqlexpr.Plus(where(b), where(d))))
	c.Assert(other, DeepEquals, flat)

	// A nil side adds nothing.
	c.Assert(renderWhere(c, sqlexpr.Plus(nil, where(a))).SQL, Equals, "ADDRESS_ID = ?")
	c.Assert(renderWhere(c, sqlexpr.Plus(where(a), nil)).SQL, Equals, "ADDRESS_ID = ?")
}

func (s *DeclarationSuite) TestCombinators(c *C) {
	a := where(sqlexpr.Eq(addressID, 1))
	b := where(sqlexpr.Eq(version, 2))
	ab := where(sqlexpr.Eq(addressID, 1), sqlexpr.Eq(version, 2))
	none := where(sqlexpr.Eq(city, sql.NullString{}))

	tests := []struct {
		summary string
		where   sqlexpr.Where
		sql     string
	}{{
		summary: "and",
		where:   sqlexpr.And(a, b),
		sql:     "ADDRESS_ID = ? and VERSION = ?",
	}, {
		summary: "or",
		where:   sqlexpr.Or(a, b),
		sql:     "ADDRESS_ID = ? or VERSION = ?",
	}, {
		summary: "or groups each side",
		where:   sqlexpr.Or(ab, b),
		sql:     "(ADDRESS_ID = ? and VERSION = ?) or VERSION = ?",
	}, {
		summary: "and of or",
		where:   sqlexpr.And(sqlexpr.Or(a, b), sqlexpr.Or(b, a)),
		sql:     "(ADDRESS_ID = ? or VERSION = ?) and (VERSION = ? or ADDRESS_ID = ?)",
	}, {
		summary: "and of and stays flat",
		where:   sqlexpr.And(ab, ab),
		sql:     "ADDRESS_ID = ? and VERSION = ? and ADDRESS_ID = ? and VERSION = ?",
	}, {
		summary: "not of one",
		where:   sqlexpr.Not(a),
		sql:     "not (ADDRESS_ID = ?)",
	}, {
		summary: "not of several",
		where:   sqlexpr.Not(ab),
		sql:     "not (ADDRESS_ID = ? and VERSION = ?)",
	}, {
		summary: "not inside or",
		where:   sqlexpr.Or(sqlexpr.Not(a), b),
		sql:     "not (ADDRESS_ID = ?) or VERSION = ?",
	}, {
		summary: "or with a dropped side",
		where:   sqlexpr.Or(none, b),
		sql:     "VERSION = ?",
	}, {
		summary: "and with a dropped side",
		where:   sqlexpr.And(a, none),
		sql:     "ADDRESS_ID = ?",
	}, {
		summary: "not of dropped",
		where:   sqlexpr.Not(none),
		sql:     "",
	}, {
		summary: "or of dropped",
		where:   sqlexpr.Or(none, none),
		sql:     "",
	}, {
		summary: "plus of combinators",
		where:   sqlexpr.Plus(sqlexpr.Or(a, b), sqlexpr.Not(b)),
		sql:     "(ADDRESS_ID = ? or VERSION = ?) and not (VERSION = ?)",
	}}
	for _, t := range tests {
		stmt, err := sqlexpr.RenderWhere(t.where)
		c.Assert(err, IsNil, Commentf("test %q", t.summary))
		c.Check(stmt.SQL, Equals, t.sql, Commentf("test %q", t.summary))
	}
}

func (s *DeclarationSuite) TestScopes(c *C) {
	var noName *string
	w := sqlexpr.Where(func(p *sqlexpr.Predicate) {
		c.Check(p.Kind(), Equals, sqlexpr.DeclWhere)
		p.Add(sqlexpr.Greater(addressID, 1))
		p.Or(func(p *sqlexpr.Predicate) {
			p.Add(sqlexpr.StartsWith(street, "S"))
			p.And(func(p *sqlexpr.Predicate) {
				p.Add(sqlexpr.IsNull(city))
				p.Add(sqlexpr.Less(version, 3))
			})
			p.Not(func(p *sqlexpr.Predicate) {
				p.Add(sqlexpr.Eq(version, 2))
			})
		})
		p.Or(func(p *sqlexpr.Predicate) {
			p.Add(sqlexpr.Opt(street, noName, sqlexpr.Eq[string]))
			p.Add(sqlexpr.Eq(version, 1))
		})
		p.And(func(p *sqlexpr.Predicate) {
			p.Add(sqlexpr.Opt(street, noName, sqlexpr.Eq[string]))
		})
	})
	stmt := renderWhere(c, w)
	c.Assert(stmt.SQL, Equals, "ADDRESS_ID > ? and (STREET like ? escape ? or (CITY is null and VERSION < ?) or not (VERSION = ?)) and VERSION = ?")
	c.Assert(stmt.Args(), DeepEquals, []any{int64(1), "S%", `\`, 3, 2, 1})
}

func (s *DeclarationSuite) TestFirstErrorWins(c *C) {
	var calls int
	w := sqlexpr.Where(func(p *sqlexpr.Predicate) {
		p.Add(sqlexpr.Eq(version, 1))
		p.Add(sqlexpr.StartsWith(version, 1))
		c.Check(p.Err(), ErrorMatches, `sqlexpr: invalid expression: like: .*`)
		p.Add(sqlexpr.InTuples(nil))
		p.Or(func(p *sqlexpr.Predicate) {
			calls++
		})
	})
	_, err := w.Build()
	c.Assert(err, ErrorMatches, `sqlexpr: invalid expression: like: operand of type int is not a string`)
	c.Assert(calls, Equals, 0)

	nested := sqlexpr.Or(where(sqlexpr.Eq(version, 1)), where(sqlexpr.StartsWith(version, 1)))
	_, err = nested.Build()
	c.Assert(err, ErrorMatches, `sqlexpr: invalid expression: like: operand of type int is not a string`)
}

func (s *DeclarationSuite) TestLegality(c *C) {
	count := sqlexpr.Greater(sqlexpr.CountAll(), 1)
	rowNumber := sqlexpr.Eq(sqlexpr.Over(sqlexpr.RowNumber(), sqlexpr.WindowSpec{}), 1)

	_, err := sqlexpr.RenderWhere(where(count))
	c.Assert(err, ErrorMatches, "sqlexpr: invalid expression: function count not allowed in where")
	c.Assert(sqlexpr.IsConstructionErr(err), Equals, true)

	_, err = sqlexpr.RenderWhere(where(rowNumber))
	c.Assert(err, ErrorMatches, "sqlexpr: invalid expression: window function row_number not allowed in where")

	// Nested inside a scope.
	_, err = sqlexpr.RenderWhere(func(p *sqlexpr.Predicate) {
		p.Or(func(p *sqlexpr.Predicate) {
			p.Add(sqlexpr.Eq(version, 1), sqlexpr.Greater(sqlexpr.Sum(version), 2))
		})
	})
	c.Assert(err, ErrorMatches, "sqlexpr: invalid expression: function sum not allowed in where")

	r, err := sqlexpr.NewRenderer(sqlexpr.Config{})
	c.Assert(err, IsNil)
	_, err = r.On(func(p *sqlexpr.Predicate) { p.Add(count) })
	c.Assert(err, ErrorMatches, "sqlexpr: invalid expression: function count not allowed in on")

	stmt, err := r.Having(func(p *sqlexpr.Predicate) { p.Add(count) })
	c.Assert(err, IsNil)
	c.Assert(stmt.SQL, Equals, "count(*) > ?")

	// Aggregates inside a subquery belong to the subquery.
	sub := sqlexpr.Exists(sqlexpr.Select(sqlexpr.Max(personAddr)).From(person).Having(func(p *sqlexpr.Predicate) {
		p.Add(sqlexpr.Greater(sqlexpr.CountAll(), 1))
	}))
	stmt, err = sqlexpr.RenderWhere(where(sub))
	c.Assert(err, IsNil)
	c.Assert(stmt.SQL, Equals, "exists (select max(p.ADDRESS_ID) from PERSON p having count(*) > ?)")

	tests := []struct {
		kind sqlexpr.DeclarationKind
		expr sqlexpr.Expression
		err  string
	}{{
		kind: sqlexpr.DeclWhere,
		expr: sqlexpr.Lower(street),
	}, {
		kind: sqlexpr.DeclHaving,
		expr: sqlexpr.Max(version),
	}, {
		kind: sqlexpr.DeclWhen,
		expr: sqlexpr.Over(sqlexpr.Rank(), sqlexpr.WindowSpec{}),
	}, {
		kind: sqlexpr.DeclSet,
		expr: sqlexpr.Add(sqlexpr.Min(version), 1),
		err:  "sqlexpr: invalid expression: function min not allowed in set",
	}, {
		kind: sqlexpr.DeclValues,
		expr: sqlexpr.Coalesce(street, sqlexpr.Over(sqlexpr.Lag(street, 1), sqlexpr.WindowSpec{})),
		err:  "sqlexpr: invalid expression: window function lag not allowed in values",
	}, {
		kind: sqlexpr.DeclOn,
		expr: sqlexpr.As(sqlexpr.Avg(version), "A"),
		err:  "sqlexpr: invalid expression: function avg not allowed in on",
	}}
	for _, t := range tests {
		err := sqlexpr.Legal(t.kind, t.expr)
		if t.err == "" {
			c.Check(err, IsNil, Commentf("kind %s", t.kind))
		} else {
			c.Check(err, ErrorMatches, t.err, Commentf("kind %s", t.kind))
		}
	}
}

func (s *DeclarationSuite) TestReduce(c *C) {
	a := sqlexpr.Eq(addressID, 1).Expr()
	b := sqlexpr.Eq(version, 2).Expr()

	c.Assert(sqlexpr.Reduce(sqlexpr.LogicalAnd, nil), IsNil)
	c.Assert(sqlexpr.Reduce(sqlexpr.LogicalOr, []sqlexpr.Expression{nil, nil}), IsNil)
	c.Assert(sqlexpr.Reduce(sqlexpr.LogicalNot, []sqlexpr.Expression{nil}), IsNil)
	c.Assert(sqlexpr.Reduce(sqlexpr.LogicalOr, []sqlexpr.Expression{nil, a}), Equals, a)
	c.Assert(sqlexpr.Reduce(sqlexpr.LogicalAnd, []sqlexpr.Expression{a, b}), DeepEquals, &sqlexpr.Logical{
		Kind:     sqlexpr.LogicalAnd,
		Children: []sqlexpr.Expression{a, b},
	})
	c.Assert(sqlexpr.Reduce(sqlexpr.LogicalNot, []sqlexpr.Expression{a}), DeepEquals, &sqlexpr.Logical{
		Kind:     sqlexpr.LogicalNot,
		Children: []sqlexpr.Expression{a},
	})
	c.Assert(sqlexpr.Reduce(sqlexpr.LogicalNot, []sqlexpr.Expression{a, nil, b}), DeepEquals, &sqlexpr.Logical{
		Kind: sqlexpr.LogicalNot,
		Children: []sqlexpr.Expression{&sqlexpr.Logical{
			Kind:     sqlexpr.LogicalAnd,
			Children: []sqlexpr.Expression{a, b},
		}},
	})
}

func (s *DeclarationSuite) TestAssignments(c *C) {
	r, err := sqlexpr.NewRenderer(sqlexpr.Config{})
	c.Assert(err, IsNil)

	set := sqlexpr.Set(func(a *sqlexpr.Assigner) {
		c.Check(a.Kind(), Equals, sqlexpr.DeclSet)
		a.Add(sqlexpr.Assign(version, 4))
		a.Add(sqlexpr.Assign(city, sql.NullString{}), sqlexpr.AssignExpr(street, sqlexpr.Upper(street)))
		a.Add(sqlexpr.Assign(personName, "Jim"))
	})
	stmt, err := r.Assignments(set)
	c.Assert(err, IsNil)
	c.Assert(stmt.SQL, Equals, "VERSION = ?, CITY = ?, STREET = upper(STREET), NAME = ?")
	c.Assert(stmt.Args(), DeepEquals, []any{4, nil, "Jim"})
	c.Assert(stmt.Params[1].Type, Equals, sqlexpr.TypeFor[sql.NullString]())

	// Plus keeps declaration order.
	stmt, err = r.Assignments(sqlexpr.Plus(set, func(a *sqlexpr.Assigner) {
		a.Add(sqlexpr.Assign(addressID, 9))
	}))
	c.Assert(err, IsNil)
	c.Assert(stmt.SQL, Equals, "VERSION = ?, CITY = ?, STREET = upper(STREET), NAME = ?, ADDRESS_ID = ?")

	dynamic := sqlexpr.AnyColumn(address, "VERSION", sqlexpr.TypeFor[int]())
	_, err = r.Assignments(func(a *sqlexpr.Assigner) {
		a.Add(sqlexpr.Assign[any](dynamic, "four"))
		c.Check(a.Err(), NotNil)
		a.Add(sqlexpr.Assign(version, 5))
	})
	c.Assert(err, ErrorMatches, "sqlexpr: invalid expression: assign VERSION: cannot use string with int")

	_, err = r.Assignments(func(a *sqlexpr.Assigner) {
		a.Add(sqlexpr.AssignExpr(version, sqlexpr.Max(version)))
	})
	c.Assert(err, ErrorMatches, "sqlexpr: invalid expression: function max not allowed in set")
}

func (s *DeclarationSuite) TestCaseBranches(c *C) {
	label := sqlexpr.Case(sqlexpr.Lit("old")).
		When(func(p *sqlexpr.Predicate) {
			p.Add(sqlexpr.Greater(version, 1))
		}, sqlexpr.Lit("new"))

	// Branches are added to copies.
	withMain := label.When(func(p *sqlexpr.Predicate) {
		p.Add(sqlexpr.Eq(street, "Main"))
	}, sqlexpr.Lit("main"))

	r, err := sqlexpr.NewRenderer(sqlexpr.Config{})
	c.Assert(err, IsNil)

	stmt, err := r.Expression(label.End())
	c.Assert(err, IsNil)
	c.Assert(stmt.SQL, Equals, "case when VERSION > ? then 'new' else 'old' end")

	stmt, err = r.Expression(withMain.End())
	c.Assert(err, IsNil)
	c.Assert(stmt.SQL, Equals, "case when VERSION > ? then 'new' when STREET = ? then 'main' else 'old' end")

	// Aggregates are fine in a when, they are checked by the enclosing
	// declaration.
	_, err = sqlexpr.RenderWhere(where(sqlexpr.Eq(
		sqlexpr.Case(sqlexpr.Lit[int64](0)).WhenCond(sqlexpr.Greater(sqlexpr.CountAll(), 1), sqlexpr.Lit[int64](1)).End(),
		1,
	)))
	c.Assert(err, ErrorMatches, "sqlexpr: invalid expression: function count not allowed in where")

	_, err = r.Expression(sqlexpr.Case(sqlexpr.Lit[any]("x")).When(func(p *sqlexpr.Predicate) {
		p.Add(sqlexpr.Eq(version, 1))
	}, sqlexpr.Upper(sqlexpr.Lit[any](1))).End())
	c.Assert(err, ErrorMatches, "sqlexpr: invalid expression: upper: operand of type int is not string")
}
