// Package example shows optional search filters built with sqlexpr and run
// against SQLite.
package example

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/canonical/sqlexpr"
)

type Location struct {
	ID   int64  `db:"room_id"`
	Name string `db:"name"`
	Team string `db:"team"`
}

type Person struct {
	Name string `db:"name"`
	ID   int64  `db:"id"`
	Team string `db:"team"`
}

var (
	personTable   = mustTable("person", "p", Person{})
	locationTable = mustTable("location", "l", Location{})

	personName = mustColumn[string](personTable, "name")
	personID   = mustColumn[int64](personTable, "id")
	personTeam = mustColumn[string](personTable, "team")

	locationID   = mustColumn[int64](locationTable, "room_id")
	locationName = mustColumn[string](locationTable, "name")
	locationTeam = mustColumn[string](locationTable, "team")
)

func mustTable(name, alias string, sample any) *sqlexpr.Table {
	t, err := sqlexpr.TableOf(name, alias, sample)
	if err != nil {
		panic(err)
	}
	return t
}

func mustColumn[T any](t *sqlexpr.Table, tag string) sqlexpr.Column[T] {
	c, err := sqlexpr.ColumnOf[T](t, tag)
	if err != nil {
		panic(err)
	}
	return c
}

// Filter selects people. Nil fields do not filter.
type Filter struct {
	// NamePrefix matches names starting with the value.
	NamePrefix *string
	// Teams matches any of the teams, when not empty.
	Teams []string
	// MinID and MaxID bound the id.
	MinID *int64
	MaxID *int64
	// Room matches the people whose team works in the room.
	Room *string
}

// Where returns the declaration of the filter.
func (f Filter) Where() sqlexpr.Where {
	return func(p *sqlexpr.Predicate) {
		p.Add(sqlexpr.Opt(personName, f.NamePrefix, sqlexpr.StartsWith[string]))
		if len(f.Teams) > 0 {
			p.Add(sqlexpr.InList(personTeam, f.Teams...))
		}
		p.Add(sqlexpr.Opt(personID, f.MinID, sqlexpr.GreaterEq[int64]))
		p.Add(sqlexpr.Opt(personID, f.MaxID, sqlexpr.LessEq[int64]))
		if f.Room != nil {
			rooms := sqlexpr.Select(locationTeam).From(locationTable).Where(func(p *sqlexpr.Predicate) {
				p.Add(sqlexpr.Eq(locationName, *f.Room))
			})
			p.Add(sqlexpr.InQuery(personTeam, rooms))
		}
	}
}

// Directory runs searches over the person and location tables.
type Directory struct {
	db       *sql.DB
	renderer *sqlexpr.Renderer
}

// NewDirectory returns a directory reading db. The statements are rendered
// for SQLite.
func NewDirectory(db *sql.DB) (*Directory, error) {
	r, err := sqlexpr.NewRenderer(sqlexpr.Config{Dialect: sqlexpr.SQLite})
	if err != nil {
		return nil, err
	}
	return &Directory{db: db, renderer: r}, nil
}

// Create creates the tables of the directory.
func (d *Directory) Create(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `
	CREATE TABLE person (
		name text,
		id integer,
		team text
	);
	CREATE TABLE location (
		room_id integer,
		name text,
		team text
	)`)
	return err
}

// AddPerson inserts p.
func (d *Directory) AddPerson(ctx context.Context, p Person) error {
	return d.exec(ctx, sqlexpr.InsertInto(personTable).Values(func(a *sqlexpr.Assigner) {
		a.Add(
			sqlexpr.Assign(personName, p.Name),
			sqlexpr.Assign(personID, p.ID),
			sqlexpr.Assign(personTeam, p.Team),
		)
	}))
}

// AddLocation inserts l.
func (d *Directory) AddLocation(ctx context.Context, l Location) error {
	return d.exec(ctx, sqlexpr.InsertInto(locationTable).Values(func(a *sqlexpr.Assigner) {
		a.Add(
			sqlexpr.Assign(locationName, l.Name),
			sqlexpr.Assign(locationID, l.ID),
			sqlexpr.Assign(locationTeam, l.Team),
		)
	}))
}

// Move moves every person of the team from to the team to, and returns the
// number of people moved.
func (d *Directory) Move(ctx context.Context, from, to string) (int64, error) {
	q := sqlexpr.Update(personTable).
		Set(func(a *sqlexpr.Assigner) {
			a.Add(sqlexpr.Assign(personTeam, to))
		}).
		Where(func(p *sqlexpr.Predicate) {
			p.Add(sqlexpr.Eq(personTeam, from))
		})
	stmt, err := d.renderer.Render(q)
	if err != nil {
		return 0, err
	}
	res, err := d.db.ExecContext(ctx, stmt.SQL, stmt.Args()...)
	if err != nil {
		return 0, fmt.Errorf("cannot move team %s: %w", from, err)
	}
	return res.RowsAffected()
}

// Search returns the people matching f, ordered by id.
func (d *Directory) Search(ctx context.Context, f Filter) ([]Person, error) {
	q := sqlexpr.Select(personName, personID, personTeam).
		From(personTable).
		Where(f.Where()).
		OrderBy(sqlexpr.Asc(personID))
	stmt, err := d.renderer.Render(q)
	if err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, stmt.SQL, stmt.Args()...)
	if err != nil {
		return nil, fmt.Errorf("cannot search people: %w", err)
	}
	defer rows.Close()

	people := []Person{}
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.Name, &p.ID, &p.Team); err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

// Rooms returns the number of people working in each room, by room name.
func (d *Directory) Rooms(ctx context.Context) (map[string]int64, error) {
	q := sqlexpr.Select(locationName, sqlexpr.Count(personName)).
		From(locationTable).
		LeftJoin(personTable, func(p *sqlexpr.Predicate) {
			p.Add(sqlexpr.EqExpr(personTeam, locationTeam))
		}).
		GroupBy(locationID, locationName)
	stmt, err := d.renderer.Render(q)
	if err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, stmt.SQL, stmt.Args()...)
	if err != nil {
		return nil, fmt.Errorf("cannot count people per room: %w", err)
	}
	defer rows.Close()

	rooms := map[string]int64{}
	for rows.Next() {
		var name string
		var n int64
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		rooms[name] = n
	}
	return rooms, rows.Err()
}

func (d *Directory) exec(ctx context.Context, q sqlexpr.Query) error {
	stmt, err := d.renderer.Render(q)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx, stmt.SQL, stmt.Args()...)
	return err
}
