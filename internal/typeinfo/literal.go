// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FormatLiteral renders v as an inline SQL constant. Strings, UUIDs and
// times are single-quoted, numbers and booleans are unquoted. Times use the
// given layout.
func FormatLiteral(v any, timeLayout string) (string, error) {
	if IsAbsent(v) {
		return "null", nil
	}
	switch v := v.(type) {
	case decimal.Decimal:
		return v.String(), nil
	case uuid.UUID:
		return QuoteString(v.String()), nil
	case time.Time:
		return QuoteString(v.Format(timeLayout)), nil
	case []byte:
		return "X'" + strings.ToUpper(hex.EncodeToString(v)) + "'", nil
	}

	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return "true", nil
		}
		return "false", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", fmt.Errorf("cannot inline non-finite float %v", f)
		}
		return strconv.FormatFloat(f, 'g', -1, rv.Type().Bits()), nil
	case reflect.String:
		return QuoteString(rv.String()), nil
	}

	// Nullable wrappers and other driver values are inlined as the value
	// they hand to the driver.
	if valuer, ok := rv.Interface().(driver.Valuer); ok {
		dv, err := valuer.Value()
		if err != nil {
			return "", err
		}
		if _, ok := dv.(driver.Valuer); ok {
			return "", fmt.Errorf("cannot inline value of type %T", v)
		}
		return FormatLiteral(dv, timeLayout)
	}
	return "", fmt.Errorf("cannot inline value of type %T", v)
}

// QuoteString returns s as a single-quoted SQL string with embedded quotes
// doubled.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
