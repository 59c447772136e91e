// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlexpr

// builtins is the catalog of functions every registry holds. It is never
// modified after initialisation.
var builtins = map[string]*extension{}

func init() {
	for _, name := range []string{"lower", "upper", "trim", "ltrim", "rtrim"} {
		addBuiltin(name, ClassScalar, 1, sameAs(KindString))
	}
	addBuiltin("substring", ClassScalar, 3, sameAs(KindString))
	addBuiltin("length", ClassScalar, 1, returns[int64](KindString))
	addBuiltin("concat", ClassScalar, -1, returns[string](KindUnknown))

	for _, name := range []string{"abs", "ceil", "floor"} {
		addBuiltin(name, ClassScalar, 1, sameAs(numeric))
	}
	addBuiltin("round", ClassScalar, 2, sameAs(numeric))
	addBuiltin("sqrt", ClassScalar, 1, returns[float64](numeric))

	addBuiltin("count", ClassAggregate, -1, returns[int64](KindUnknown))
	addBuiltin("sum", ClassAggregate, 1, sameAs(numeric))
	addBuiltin("avg", ClassAggregate, 1, returns[float64](numeric))
	addBuiltin("min", ClassAggregate, 1, sameAs(KindUnknown))
	addBuiltin("max", ClassAggregate, 1, sameAs(KindUnknown))

	for _, name := range []string{"row_number", "rank", "dense_rank"} {
		addBuiltin(name, ClassWindow, 0, returns[int64](KindUnknown))
	}
	for _, name := range []string{"percent_rank", "cume_dist"} {
		addBuiltin(name, ClassWindow, 0, returns[float64](KindUnknown))
	}
	addBuiltin("ntile", ClassWindow, 1, returns[int64](numeric))
	addBuiltin("lag", ClassWindow, 2, sameAs(KindUnknown))
	addBuiltin("lead", ClassWindow, 2, sameAs(KindUnknown))
	addBuiltin("first_value", ClassWindow, 1, sameAs(KindUnknown))
	addBuiltin("last_value", ClassWindow, 1, sameAs(KindUnknown))
	addBuiltin("nth_value", ClassWindow, 2, sameAs(KindUnknown))
}

func addBuiltin(name string, class FuncClass, arity int, construct func(name string, class FuncClass, args []Expression) (*Call, error)) {
	builtins[name] = &extension{
		name:  name,
		class: class,
		arity: arity,
		construct: func(name string, args []Expression) (*Call, error) {
			return construct(name, class, args)
		},
	}
}

// numeric stands for any numeric kind in argument checks.
const numeric = KindOther + 1

func checkArg(name string, arg Expression, want Kind) error {
	k := arg.Type().Kind
	switch {
	case want == KindUnknown || k == KindUnknown:
		return nil
	case want == numeric && k.Numeric():
		return nil
	case k == want:
		return nil
	}
	wantName := want.String()
	if want == numeric {
		wantName = "numeric"
	}
	return constructionError("%s: operand of type %s is not %s", name, arg.Type(), wantName)
}

// sameAs builds calls typed after their first argument, which must be of the
// given kind.
func sameAs(want Kind) func(string, FuncClass, []Expression) (*Call, error) {
	return func(name string, class FuncClass, args []Expression) (*Call, error) {
		if err := checkArg(name, args[0], want); err != nil {
			return nil, err
		}
		return NewCall(name, class, args[0].Type(), args...), nil
	}
}

// returns builds calls of type T whose first argument, if any, must be of the
// given kind.
func returns[T any](want Kind) func(string, FuncClass, []Expression) (*Call, error) {
	return func(name string, class FuncClass, args []Expression) (*Call, error) {
		if len(args) > 0 {
			if err := checkArg(name, args[0], want); err != nil {
				return nil, err
			}
		}
		return NewCall(name, class, TypeFor[T](), args...), nil
	}
}

func builtin[T any](name string, args ...Expression) Operand[T] {
	e, err := builtins[name].build(args)
	if err != nil {
		return typed[T]{err: err}
	}
	return typed[T]{node: e}
}

// Lower returns lower(e).
func Lower[T any](e Operand[T]) Operand[T] { return builtin[T]("lower", e) }

// Upper returns upper(e).
func Upper[T any](e Operand[T]) Operand[T] { return builtin[T]("upper", e) }

// Trim returns trim(e).
func Trim[T any](e Operand[T]) Operand[T] { return builtin[T]("trim", e) }

// LTrim returns ltrim(e).
func LTrim[T any](e Operand[T]) Operand[T] { return builtin[T]("ltrim", e) }

// RTrim returns rtrim(e).
func RTrim[T any](e Operand[T]) Operand[T] { return builtin[T]("rtrim", e) }

// Substring returns the length characters of e starting at the 1-based
// position start.
func Substring[T any](e Operand[T], start, length int64) Operand[T] {
	return builtin[T]("substring", e, Lit(start), Lit(length))
}

// Length returns length(e).
func Length(e Expression) Operand[int64] { return builtin[int64]("length", e) }

// Concat returns concat(args...).
func Concat(args ...Expression) Operand[string] { return builtin[string]("concat", args...) }

// Abs returns abs(e).
func Abs[T any](e Operand[T]) Operand[T] { return builtin[T]("abs", e) }

// Ceil returns ceil(e).
func Ceil[T any](e Operand[T]) Operand[T] { return builtin[T]("ceil", e) }

// Floor returns floor(e).
func Floor[T any](e Operand[T]) Operand[T] { return builtin[T]("floor", e) }

// Round returns e rounded to digits decimal places.
func Round[T any](e Operand[T], digits int64) Operand[T] {
	return builtin[T]("round", e, Lit(digits))
}

// Sqrt returns sqrt(e).
func Sqrt(e Expression) Operand[float64] { return builtin[float64]("sqrt", e) }

// Count returns count(e).
func Count(e Expression) Operand[int64] { return builtin[int64]("count", e) }

// CountAll returns count(*).
func CountAll() Operand[int64] {
	op := builtin[int64]("count")
	if c, ok := base(op).(*Call); ok {
		c.Star = true
	}
	return op
}

// CountDistinct returns count(distinct e).
func CountDistinct(e Expression) Operand[int64] {
	op := builtin[int64]("count", e)
	if c, ok := base(op).(*Call); ok {
		c.Distinct = true
	}
	return op
}

// Sum returns sum(e).
func Sum[T any](e Operand[T]) Operand[T] { return builtin[T]("sum", e) }

// Avg returns avg(e).
func Avg(e Expression) Operand[float64] { return builtin[float64]("avg", e) }

// Min returns min(e).
func Min[T any](e Operand[T]) Operand[T] { return builtin[T]("min", e) }

// Max returns max(e).
func Max[T any](e Operand[T]) Operand[T] { return builtin[T]("max", e) }

// RowNumber returns row_number(). It must be used with Over.
func RowNumber() Operand[int64] { return builtin[int64]("row_number") }

// Rank returns rank(). It must be used with Over.
func Rank() Operand[int64] { return builtin[int64]("rank") }

// DenseRank returns dense_rank(). It must be used with Over.
func DenseRank() Operand[int64] { return builtin[int64]("dense_rank") }

// PercentRank returns percent_rank(). It must be used with Over.
func PercentRank() Operand[float64] { return builtin[float64]("percent_rank") }

// CumeDist returns cume_dist(). It must be used with Over.
func CumeDist() Operand[float64] { return builtin[float64]("cume_dist") }

// Ntile returns ntile(n). It must be used with Over.
func Ntile(n int64) Operand[int64] { return builtin[int64]("ntile", Lit(n)) }

// Lag returns lag(e, offset). It must be used with Over.
func Lag[T any](e Operand[T], offset int64) Operand[T] {
	return builtin[T]("lag", e, Lit(offset))
}

// Lead returns lead(e, offset). It must be used with Over.
func Lead[T any](e Operand[T], offset int64) Operand[T] {
	return builtin[T]("lead", e, Lit(offset))
}

// FirstValue returns first_value(e). It must be used with Over.
func FirstValue[T any](e Operand[T]) Operand[T] { return builtin[T]("first_value", e) }

// LastValue returns last_value(e). It must be used with Over.
func LastValue[T any](e Operand[T]) Operand[T] { return builtin[T]("last_value", e) }

// NthValue returns nth_value(e, n). It must be used with Over.
func NthValue[T any](e Operand[T], n int64) Operand[T] {
	return builtin[T]("nth_value", e, Lit(n))
}
