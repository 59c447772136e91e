package sqlexpr_test

import (
	"errors"
	"fmt"
	"sync"

	. "gopkg.in/check.v1"

	"github.com/canonical/sqlexpr"
)

type RegistrySuite struct{}

var _ = Suite(&RegistrySuite{})

func renderRegexp(w sqlexpr.Writer, call *sqlexpr.Call) error {
	if err := w.Visit(call.Args[0]); err != nil {
		return err
	}
	w.WriteString(" regexp ")
	return w.Visit(call.Args[1])
}

func regexpRegistry(c *C) *sqlexpr.Registry {
	r := sqlexpr.NewRegistry()
	c.Assert(r.RegisterOperator("regexp", 2, nil, renderRegexp), IsNil)
	return r
}

func (s *RegistrySuite) TestCustomOperator(c *C) {
	reg := regexpRegistry(c)
	r, err := sqlexpr.NewRenderer(sqlexpr.Config{Registry: reg})
	c.Assert(err, IsNil)

	cond := reg.Cond("regexp", street, sqlexpr.Arg("^S"))
	c.Assert(cond.Err(), IsNil)
	stmt, err := r.Where(where(cond, sqlexpr.Eq(version, 1)))
	c.Assert(err, IsNil)
	c.Assert(stmt.SQL, Equals, "STREET regexp ? and VERSION = ?")
	c.Assert(stmt.Args(), DeepEquals, []any{"^S", 1})

	// Absent operands drop the condition.
	c.Assert(reg.Cond("regexp", street, sqlexpr.AnyArg(nil)).Dropped(), Equals, true)

	_, err = reg.Call("regexp", street)
	c.Assert(err, ErrorMatches, "sqlexpr: invalid expression: regexp: got 1 operands, want 2")
}

func (s *RegistrySuite) TestDefaultOperatorRendering(c *C) {
	reg := sqlexpr.NewRegistry()
	c.Assert(reg.RegisterOperator("~", 2, nil, nil), IsNil)
	c.Assert(reg.RegisterOperator("not", 1, nil, nil), IsNil)

	r, err := sqlexpr.NewRenderer(sqlexpr.Config{Registry: reg, Dialect: sqlexpr.Postgres})
	c.Assert(err, IsNil)

	stmt, err := r.Where(where(
		reg.Cond("~", street, sqlexpr.Arg("a?")),
		reg.Cond("not", sqlexpr.Lit(false)),
	))
	c.Assert(err, IsNil)
	c.Assert(stmt.SQL, Equals, `("STREET" ~ $1) and not false`)
	c.Assert(stmt.Args(), DeepEquals, []any{"a?"})
}

func (s *RegistrySuite) TestUnknownExtension(c *C) {
	reg := regexpRegistry(c)

	_, err := reg.Call("similar", street, sqlexpr.Arg("x"))
	c.Assert(err, ErrorMatches, `sqlexpr: invalid expression: sqlexpr: unknown extension: "similar"`)
	c.Assert(errors.Is(err, sqlexpr.ErrConstruction), Equals, true)
	c.Assert(errors.Is(err, sqlexpr.ErrUnknownExtension), Equals, true)

	cond := reg.Cond("similar", street)
	c.Assert(errors.Is(cond.Err(), sqlexpr.ErrUnknownExtension), Equals, true)

	// A renderer without the registry cannot render the node.
	_, err = sqlexpr.RenderWhere(where(reg.Cond("regexp", street, sqlexpr.Arg("x"))))
	c.Assert(err, ErrorMatches, `sqlexpr: cannot render: sqlexpr: unknown extension: "regexp"`)
	c.Assert(sqlexpr.IsRenderErr(err), Equals, true)
	c.Assert(errors.Is(err, sqlexpr.ErrUnknownExtension), Equals, true)

	// A nil registry holds the built-in catalog.
	var none *sqlexpr.Registry
	e, err := none.Call("lower", street)
	c.Assert(err, IsNil)
	c.Assert(e.Type().Kind, Equals, sqlexpr.KindString)
}

func (s *RegistrySuite) TestRegistrationErrors(c *C) {
	reg := regexpRegistry(c)

	tests := []struct {
		summary string
		err     error
		msg     string
	}{{
		summary: "duplicate",
		err:     reg.RegisterOperator("regexp", 2, nil, renderRegexp),
		msg:     `cannot register "regexp": already registered`,
	}, {
		summary: "duplicate function",
		err:     reg.RegisterFunction("regexp", nil, nil),
		msg:     `cannot register "regexp": already registered`,
	}, {
		summary: "built in",
		err:     reg.RegisterFunction("lower", nil, nil),
		msg:     `cannot register "lower": name is built in`,
	}, {
		summary: "empty name",
		err:     reg.RegisterFunction("", nil, nil),
		msg:     `cannot register extension: empty name`,
	}, {
		summary: "no operands",
		err:     reg.RegisterOperator("!", 0, nil, nil),
		msg:     `cannot register operator "!": arity must be positive`,
	}, {
		summary: "ternary without render",
		err:     reg.RegisterOperator("between_sym", 3, nil, nil),
		msg:     `cannot register operator "between_sym": operators taking 3 operands need a render function`,
	}}
	for _, t := range tests {
		c.Check(t.err, ErrorMatches, t.msg, Commentf("test %q", t.summary))
	}
	c.Assert(sqlexpr.IsBuiltin("lower"), Equals, true)
	c.Assert(sqlexpr.IsBuiltin("regexp"), Equals, false)
}

func (s *RegistrySuite) TestCustomFunction(c *C) {
	data := sqlexpr.AnyColumn(address, "DATA", sqlexpr.TypeFor[string]())

	reg := sqlexpr.NewRegistry()
	err := reg.RegisterFunction("json_extract", func(name string, args []sqlexpr.Expression) (*sqlexpr.Call, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("got %d operands, want 2", len(args))
		}
		return sqlexpr.NewCall(name, sqlexpr.ClassScalar, sqlexpr.TypeFor[string](), args...), nil
	}, nil)
	c.Assert(err, IsNil)
	c.Assert(reg.RegisterFunction("soundex", nil, nil), IsNil)

	r, err := sqlexpr.NewRenderer(sqlexpr.Config{Registry: reg})
	c.Assert(err, IsNil)

	extract := sqlexpr.CallAs[string](reg, "json_extract", data, sqlexpr.Lit("$.name"))
	stmt, err := r.Where(where(
		sqlexpr.Eq(extract, "x"),
		sqlexpr.EqExpr(sqlexpr.CallAs[string](reg, "soundex", street), sqlexpr.CallAs[string](reg, "soundex", personName)),
	))
	c.Assert(err, IsNil)
	c.Assert(stmt.SQL, Equals, "json_extract(DATA, '$.name') = ? and soundex(STREET) = soundex(p.NAME)")

	_, err = reg.Call("json_extract", data)
	c.Assert(err, ErrorMatches, "sqlexpr: invalid expression: json_extract: got 1 operands, want 2")

	cond := reg.Cond("json_extract", data, sqlexpr.Lit("$.a"))
	c.Assert(cond.Err(), ErrorMatches, "sqlexpr: invalid expression: json_extract: result of type string is not a condition")

	wrong := sqlexpr.CallAs[int64](reg, "json_extract", data, sqlexpr.Lit("$.a"))
	c.Assert(sqlexpr.Eq(wrong, 1).Err(), ErrorMatches, "sqlexpr: invalid expression: cast: cannot use int with string")
}

func (s *RegistrySuite) TestCustomAggregate(c *C) {
	reg := sqlexpr.NewRegistry()
	err := reg.RegisterFunction("group_concat", func(name string, args []sqlexpr.Expression) (*sqlexpr.Call, error) {
		return sqlexpr.NewCall(name, sqlexpr.ClassAggregate, sqlexpr.TypeFor[string](), args...), nil
	}, nil)
	c.Assert(err, IsNil)

	r, err := sqlexpr.NewRenderer(sqlexpr.Config{Registry: reg, Dialect: sqlexpr.SQLite})
	c.Assert(err, IsNil)

	streets := sqlexpr.CallAs[string](reg, "group_concat", street)
	stmt, err := r.Render(sqlexpr.Select(version, streets).From(address).GroupBy(version))
	c.Assert(err, IsNil)
	c.Assert(stmt.SQL, Equals, "select VERSION, group_concat(STREET) from ADDRESS group by VERSION")

	over := sqlexpr.Over(streets, sqlexpr.WindowSpec{PartitionBy: []sqlexpr.Expression{version}})
	stmt, err = r.Expression(over)
	c.Assert(err, IsNil)
	c.Assert(stmt.SQL, Equals, "group_concat(STREET) over (partition by VERSION)")

	_, err = r.Where(where(sqlexpr.Eq(streets, "x")))
	c.Assert(err, ErrorMatches, "sqlexpr: invalid expression: function group_concat not allowed in where")
}

func (s *RegistrySuite) TestConstructedCallUsesRenderFunc(c *C) {
	reg := sqlexpr.NewRegistry()
	rendered := 0
	// The constructor swaps the two periods.
	err := reg.RegisterOperator("overlaps", 4, func(name string, args []sqlexpr.Expression) (*sqlexpr.Call, error) {
		return sqlexpr.NewCall(name, sqlexpr.ClassOperator, sqlexpr.TypeFor[bool](), args[2], args[3], args[0], args[1]), nil
	}, func(w sqlexpr.Writer, call *sqlexpr.Call) error {
		rendered++
		w.WriteString("(")
		for i, arg := range call.Args {
			if i == 2 {
				w.WriteString(") OVERLAPS (")
			} else if i > 0 {
				w.WriteString(", ")
			}
			if err := w.Visit(arg); err != nil {
				return err
			}
		}
		w.WriteString(")")
		return nil
	})
	c.Assert(err, IsNil)
	c.Assert(reg.RegisterFunction("misnamed", func(name string, args []sqlexpr.Expression) (*sqlexpr.Call, error) {
		return sqlexpr.NewCall("lower", sqlexpr.ClassScalar, sqlexpr.TypeFor[string](), args...), nil
	}, nil), IsNil)
	c.Assert(reg.RegisterFunction("empty", func(name string, args []sqlexpr.Expression) (*sqlexpr.Call, error) {
		return nil, nil
	}, nil), IsNil)

	r, err := sqlexpr.NewRenderer(sqlexpr.Config{Registry: reg})
	c.Assert(err, IsNil)
	stmt, err := r.Cond(reg.Cond("overlaps", version, sqlexpr.Arg(1), version, sqlexpr.Arg(2)))
	c.Assert(err, IsNil)
	c.Assert(stmt.SQL, Equals, "(VERSION, ?) OVERLAPS (VERSION, ?)")
	c.Assert(stmt.Args(), DeepEquals, []any{2, 1})
	c.Assert(rendered, Equals, 1)

	_, err = reg.Call("misnamed", street)
	c.Assert(err, ErrorMatches, "sqlexpr: invalid expression: misnamed: constructor built a call to lower")
	_, err = reg.Call("empty", street)
	c.Assert(err, ErrorMatches, "sqlexpr: invalid expression: empty: constructor built no call")
}

func (s *RegistrySuite) TestRenderFuncError(c *C) {
	reg := sqlexpr.NewRegistry()
	err := reg.RegisterOperator("overlaps", 4, nil, func(w sqlexpr.Writer, call *sqlexpr.Call) error {
		return errors.New("not supported by " + w.Dialect().Name)
	})
	c.Assert(err, IsNil)

	r, err := sqlexpr.NewRenderer(sqlexpr.Config{Registry: reg})
	c.Assert(err, IsNil)
	cond := reg.Cond("overlaps", version, version, version, version)
	_, err = r.Cond(cond)
	c.Assert(err, ErrorMatches, "sqlexpr: cannot render: overlaps: not supported by generic")
}

func (s *RegistrySuite) TestConcurrentUse(c *C) {
	reg := sqlexpr.NewRegistry()
	r, err := sqlexpr.NewRenderer(sqlexpr.Config{Registry: reg})
	c.Assert(err, IsNil)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("fn%d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs <- reg.RegisterFunction(name, nil, nil)
		}()
		go func() {
			defer wg.Done()
			_, err := r.Expression(sqlexpr.Lower(street))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		c.Assert(err, IsNil)
	}
	for i := 0; i < 10; i++ {
		_, err := reg.Call(fmt.Sprintf("fn%d", i), street)
		c.Assert(err, IsNil)
	}
}
