// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"database/sql/driver"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the semantic category of a value in SQL.
type Kind uint8

const (
	// Unknown is the kind of values whose type cannot be determined, such as
	// an untyped nil. Unknown is compatible with every kind.
	Unknown Kind = iota
	Bool
	Int
	Uint
	Float
	Decimal
	String
	Bytes
	Time
	UUID
	// Other is the kind of every type not listed above. Values of kind Other
	// are only compatible with values of the identical Go type.
	Other
)

var kindNames = [...]string{
	Unknown: "unknown",
	Bool:    "bool",
	Int:     "int",
	Uint:    "uint",
	Float:   "float",
	Decimal: "decimal",
	String:  "string",
	Bytes:   "bytes",
	Time:    "time",
	UUID:    "uuid",
	Other:   "other",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Numeric reports whether values of the kind take part in arithmetic.
func (k Kind) Numeric() bool {
	switch k {
	case Int, Uint, Float, Decimal:
		return true
	}
	return false
}

// Type is the semantic type of an expression.
type Type struct {
	Kind Kind
	// GoType is the Go type the semantic type was derived from, after
	// pointers and nullable wrappers have been removed. It is nil for Unknown.
	GoType reflect.Type
	// Nullable is set when the Go type can hold an absent value.
	Nullable bool
}

func (t Type) String() string {
	if t.Kind == Other && t.GoType != nil {
		return t.GoType.String()
	}
	if t.Nullable {
		return "nullable " + t.Kind.String()
	}
	return t.Kind.String()
}

var (
	timeType        = reflect.TypeOf(time.Time{})
	decimalType     = reflect.TypeOf(decimal.Decimal{})
	uuidType        = reflect.TypeOf(uuid.UUID{})
	valuerInterface = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// TypeOf classifies the Go type t.
func TypeOf(t reflect.Type) Type {
	if t == nil {
		return Type{}
	}
	nullable := false
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
		nullable = true
	}
	if elem, ok := nullableElem(t); ok {
		t = elem
		nullable = true
	}

	switch t {
	case timeType:
		return Type{Kind: Time, GoType: t, Nullable: nullable}
	case decimalType:
		return Type{Kind: Decimal, GoType: t, Nullable: nullable}
	case uuidType:
		return Type{Kind: UUID, GoType: t, Nullable: nullable}
	}

	var k Kind
	switch t.Kind() {
	case reflect.Bool:
		k = Bool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		k = Int
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		k = Uint
	case reflect.Float32, reflect.Float64:
		k = Float
	case reflect.String:
		k = String
	case reflect.Slice:
		if t.Elem().Kind() != reflect.Uint8 {
			return Type{Kind: Other, GoType: t, Nullable: true}
		}
		k = Bytes
		nullable = true
	case reflect.Interface:
		return Type{}
	default:
		return Type{Kind: Other, GoType: t, Nullable: nullable}
	}
	return Type{Kind: k, GoType: t, Nullable: nullable}
}

// For returns the semantic type of the Go type T.
func For[T any]() Type {
	return TypeOf(reflect.TypeOf((*T)(nil)).Elem())
}

// ValueType returns the semantic type of the dynamic type of v.
func ValueType(v any) Type {
	if v == nil {
		return Type{}
	}
	return TypeOf(reflect.TypeOf(v))
}

// Compatible reports whether values of the two types can meet in one
// comparison or arithmetic expression.
func Compatible(a, b Type) bool {
	switch {
	case a.Kind == Unknown || b.Kind == Unknown:
		return true
	case a.Kind.Numeric() && b.Kind.Numeric():
		return true
	case a.Kind != b.Kind:
		return false
	case a.Kind == Other:
		return a.GoType == b.GoType
	}
	return true
}

// nullableElem recognises the nullable wrapper structs of database/sql and
// its companions (sql.NullString, sql.Null[T], decimal.NullDecimal,
// uuid.NullUUID, ...). They are structs of exactly two fields, the value
// followed by a Valid bool, that implement driver.Valuer.
func nullableElem(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Struct || t.NumField() != 2 {
		return nil, false
	}
	if !t.Implements(valuerInterface) {
		return nil, false
	}
	valid := t.Field(1)
	if valid.Name != "Valid" || valid.Type.Kind() != reflect.Bool {
		return nil, false
	}
	return t.Field(0).Type, true
}
