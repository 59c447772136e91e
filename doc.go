/*
Package sqlexpr builds SQL predicates, projections and assignments from typed
Go values and renders them as parameterized SQL.

Expressions are trees of immutable nodes. The leaves are operands: columns,
which refer to a table column holding values of some Go type, arguments, which
carry a value bound to a placeholder, and literals, which are written inline.
The Go type of an operand is part of its static type, so comparing a string
column with an integer does not compile:

	type Address struct {
		ID      int64  `db:"ADDRESS_ID"`
		Street  string `db:"STREET"`
		Version int    `db:"VERSION"`
	}

	address := sqlexpr.NewTable("ADDRESS", "")
	id := sqlexpr.NewColumn[int64](address, "ADDRESS_ID")
	street := sqlexpr.NewColumn[string](address, "STREET")

	sqlexpr.Eq(id, 1)        // ADDRESS_ID = ?
	sqlexpr.Eq(street, 1)    // does not compile

# Declarations

Predicates are written as declarations: functions that add conditions to a
context. Conditions added one after the other are joined with and. The And,
Or and Not methods of the context open a scope whose conditions are grouped
into a single condition:

	where := sqlexpr.Where(func(p *sqlexpr.Predicate) {
		p.Add(sqlexpr.Greater(id, 1))
		p.Or(func(p *sqlexpr.Predicate) {
			p.Add(sqlexpr.StartsWith(street, "S"))
			p.Add(sqlexpr.IsNull(street))
		})
	})
	// ADDRESS_ID > ? and (STREET like ? escape ? or STREET is null)

Declarations are values. Plus runs two declarations against the same context,
And and Or join them and Not negates one.

# Absent values

A comparison whose argument is absent (nil, a nil pointer, an invalid
sql.NullString and so on) is dropped rather than rendered as x = null. A group
left without conditions is dropped too, and a group left with one condition is
replaced by it. A where declaration whose conditions were all dropped renders
no where clause at all, which makes optional filters easy to write:

	func byStreet(name *string) sqlexpr.Where {
		return func(p *sqlexpr.Predicate) {
			p.Add(sqlexpr.Opt(street, name, sqlexpr.Eq[string]))
		}
	}

# Extensions

Functions and operators beyond the built-in catalog are added to a Registry,
together with a function building their node and, optionally, one rendering
it. A renderer configured with the registry renders them like built-ins.

# Rendering

A Renderer writes expressions and statements for a Dialect. The parameters of
a Statement are in the order of their placeholders, including those of nested
subqueries.
*/
package sqlexpr
