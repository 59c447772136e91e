// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlexpr

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
var (
	// ErrConstruction is returned when an expression cannot be built: the
	// semantic types of its operands are incompatible, a tuple has the wrong
	// arity, a case has no branches or a node is illegal in a declaration.
	ErrConstruction = errors.New("sqlexpr: invalid expression")

	// ErrRender is returned when a finished expression tree cannot be turned
	// into SQL.
	ErrRender = errors.New("sqlexpr: cannot render")

	// ErrUnknownExtension is returned alongside ErrConstruction or ErrRender
	// when a node names an operator or function that is not registered.
	ErrUnknownExtension = errors.New("sqlexpr: unknown extension")

	// ErrInvalidConfig is returned by NewRenderer for bad configuration.
	ErrInvalidConfig = errors.New("sqlexpr: invalid configuration")
)

// IsConstructionErr reports whether err is a construction error.
func IsConstructionErr(err error) bool {
	return errors.Is(err, ErrConstruction)
}

// IsRenderErr reports whether err is a render error.
func IsRenderErr(err error) bool {
	return errors.Is(err, ErrRender)
}

func constructionError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConstruction}, args...)...)
}

func typeMismatchError(op string, left, right Type) error {
	return constructionError("%s: cannot use %s with %s", op, right, left)
}

func renderError(err error) error {
	if errors.Is(err, ErrRender) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRender, err)
}
