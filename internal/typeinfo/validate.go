// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"database/sql/driver"
	"reflect"
)

// IsAbsent reports whether v is the null sentinel. Untyped nil, nil
// pointers, maps, slices and interfaces are absent, as is any driver.Valuer
// whose Value is nil (an invalid sql.NullString, sql.Null[T], ...).
func IsAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	if isInvalidNil(rv) {
		return true
	}
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		return err == nil && dv == nil
	}
	return false
}

func isInvalidNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// StringValue returns the string held by v. Strings, types with a string
// underlying type, pointers to them and driver.Valuers producing a string
// are accepted.
func StringValue(v any) (string, bool) {
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		if err != nil {
			return "", false
		}
		s, ok := dv.(string)
		return s, ok
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.String {
		return "", false
	}
	return rv.String(), true
}
