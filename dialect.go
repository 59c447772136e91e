// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlexpr

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	sq "github.com/Masterminds/squirrel"
	"gopkg.in/yaml.v3"
)

// PlaceholderStyle is the way a dialect spells positional placeholders.
type PlaceholderStyle string

const (
	// PlaceholderQuestion writes every placeholder as ?.
	PlaceholderQuestion PlaceholderStyle = "question"
	// PlaceholderDollar writes $1, $2, ...
	PlaceholderDollar PlaceholderStyle = "dollar"
	// PlaceholderColon writes :1, :2, ...
	PlaceholderColon PlaceholderStyle = "colon"
	// PlaceholderAtP writes @p1, @p2, ...
	PlaceholderAtP PlaceholderStyle = "atp"
)

func (s PlaceholderStyle) format() (sq.PlaceholderFormat, error) {
	switch s {
	case PlaceholderQuestion, "":
		return sq.Question, nil
	case PlaceholderDollar:
		return sq.Dollar, nil
	case PlaceholderColon:
		return sq.Colon, nil
	case PlaceholderAtP:
		return sq.AtP, nil
	}
	return nil, fmt.Errorf("unknown placeholder style %q", string(s))
}

// Dialect holds the parts of SQL that differ between databases.
type Dialect struct {
	Name string `yaml:"name"`

	// Placeholder is the placeholder style. It defaults to question.
	Placeholder PlaceholderStyle `yaml:"placeholder"`

	// EscapeChar escapes the wildcards of like patterns. It must be a single
	// character and defaults to a backslash.
	EscapeChar string `yaml:"escape_char"`

	// IdentQuote, when set, quotes table and column names.
	IdentQuote string `yaml:"ident_quote"`

	// TimeFormat is the layout of inlined time literals.
	TimeFormat string `yaml:"time_format"`

	// Functions renames functions of the built-in catalog.
	Functions map[string]string `yaml:"functions"`
}

const (
	defaultEscapeChar = `\`
	defaultTimeFormat = "2006-01-02 15:04:05"
)

var (
	// Generic renders question mark placeholders and unquoted names.
	Generic = &Dialect{
		Name:        "generic",
		Placeholder: PlaceholderQuestion,
	}

	// SQLite is the dialect of SQLite.
	SQLite = &Dialect{
		Name:        "sqlite",
		Placeholder: PlaceholderQuestion,
		Functions: map[string]string{
			"substring": "substr",
		},
	}

	// Postgres is the dialect of PostgreSQL.
	Postgres = &Dialect{
		Name:        "postgres",
		Placeholder: PlaceholderDollar,
		IdentQuote:  `"`,
	}

	// MySQL is the dialect of MySQL and MariaDB.
	MySQL = &Dialect{
		Name:        "mysql",
		Placeholder: PlaceholderQuestion,
		IdentQuote:  "`",
	}

	// MSSQL is the dialect of Microsoft SQL Server.
	MSSQL = &Dialect{
		Name:        "mssql",
		Placeholder: PlaceholderAtP,
		IdentQuote:  `"`,
		Functions: map[string]string{
			"length": "len",
			"ceil":   "ceiling",
		},
	}
)

var dialects = map[string]*Dialect{
	"generic":    Generic,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"mysql":      MySQL,
	"mariadb":    MySQL,
	"mssql":      MSSQL,
	"sqlserver":  MSSQL,
}

// DialectByName returns the built-in dialect called name.
func DialectByName(name string) (*Dialect, bool) {
	d, ok := dialects[strings.ToLower(name)]
	return d, ok
}

// Validate checks that the dialect can be used for rendering.
func (d *Dialect) Validate() error {
	if _, err := d.Placeholder.format(); err != nil {
		return err
	}
	if d.EscapeChar != "" && utf8.RuneCountInString(d.EscapeChar) != 1 {
		return fmt.Errorf("escape character %q is not a single character", d.EscapeChar)
	}
	if d.IdentQuote != "" && utf8.RuneCountInString(d.IdentQuote) != 1 {
		return fmt.Errorf("identifier quote %q is not a single character", d.IdentQuote)
	}
	for from, to := range d.Functions {
		if to == "" {
			return fmt.Errorf("function %q renamed to empty name", from)
		}
	}
	return nil
}

func (d *Dialect) escapeChar() string {
	if d.EscapeChar == "" {
		return defaultEscapeChar
	}
	return d.EscapeChar
}

func (d *Dialect) timeFormat() string {
	if d.TimeFormat == "" {
		return defaultTimeFormat
	}
	return d.TimeFormat
}

func (d *Dialect) functionName(name string) string {
	if to, ok := d.Functions[name]; ok {
		return to
	}
	return name
}

// quote quotes the identifier name if the dialect quotes identifiers.
func (d *Dialect) quote(name string) string {
	q := d.IdentQuote
	if q == "" {
		return name
	}
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// escapePattern escapes the like wildcards in s and adds the wildcards for
// the pattern kind.
func (d *Dialect) escapePattern(s string, kind PatternKind) string {
	if kind == PatternRaw {
		return s
	}
	esc := d.escapeChar()
	s = strings.NewReplacer(esc, esc+esc, "%", esc+"%", "_", esc+"_").Replace(s)
	switch kind {
	case PatternPrefix:
		return s + "%"
	case PatternSuffix:
		return "%" + s
	}
	return "%" + s + "%"
}

// LoadDialect reads a dialect definition in YAML, such as
//
//	name: cockroach
//	placeholder: dollar
//	ident_quote: '"'
//	functions:
//	  substring: substr
func LoadDialect(r io.Reader) (*Dialect, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var d Dialect
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("cannot decode dialect: %w", err)
	}
	if d.Name == "" {
		return nil, fmt.Errorf("cannot load dialect: no name")
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("cannot load dialect %s: %w", d.Name, err)
	}
	return &d, nil
}

// LoadDialectFile reads a YAML dialect definition from the file at path.
func LoadDialectFile(path string) (*Dialect, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load dialect: %w", err)
	}
	defer f.Close()
	return LoadDialect(f)
}
