// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlexpr

import (
	"fmt"
	"sync"
)

// FuncClass classifies function calls. It decides where a call may appear.
type FuncClass uint8

const (
	// ClassScalar functions compute one value per row.
	ClassScalar FuncClass = iota
	// ClassAggregate functions compute one value per group. They are not
	// allowed in where and on declarations.
	ClassAggregate
	// ClassWindow functions are only valid inside a window.
	ClassWindow
	// ClassOperator calls are infix or prefix operators.
	ClassOperator
)

// Call is the invocation of a built-in or registered function or operator.
type Call struct {
	Name     string
	Args     []Expression
	Distinct bool
	// Star is set for count(*).
	Star  bool
	Class FuncClass
	typ   Type
}

// NewCall returns a call node. It is meant for constructors of registered
// extensions.
func NewCall(name string, class FuncClass, typ Type, args ...Expression) *Call {
	return &Call{Name: name, Class: class, Args: append([]Expression(nil), args...), typ: typ}
}

func (c *Call) Type() Type  { return c.typ }
func (*Call) expression()   {}

// Constructor validates the operands of an extension and builds its call
// node. The call must carry the name of the extension: it is rendered by the
// render function registered under that name. Extension data that the render
// function needs travels in the arguments of the call.
type Constructor func(name string, args []Expression) (*Call, error)

// RenderFunc writes the SQL of a call to an extension.
type RenderFunc func(w Writer, call *Call) error

// Writer is the interface through which extensions render their nodes.
type Writer interface {
	// WriteString appends text to the statement. Question marks in s are
	// written literally, they never become placeholders.
	WriteString(s string)

	// Visit renders a sub-expression, binding its arguments in place.
	Visit(e Expression) error

	// Dialect returns the dialect of the statement.
	Dialect() *Dialect
}

type extension struct {
	name  string
	class FuncClass
	// arity is the number of operands, or -1 for any.
	arity     int
	construct Constructor
	render    RenderFunc
}

func (ext *extension) build(args []Expression) (*Call, error) {
	if ext.arity >= 0 && len(args) != ext.arity {
		return nil, constructionError("%s: got %d operands, want %d", ext.name, len(args), ext.arity)
	}
	if err := firstErr(args...); err != nil {
		return nil, err
	}
	if ext.construct == nil {
		typ := Type{}
		if len(args) > 0 {
			typ = args[0].Type()
		}
		if ext.class == ClassOperator {
			typ = boolType
		}
		return NewCall(ext.name, ext.class, typ, args...), nil
	}
	call, err := ext.construct(ext.name, append([]Expression(nil), args...))
	if err != nil {
		if IsConstructionErr(err) {
			return nil, err
		}
		return nil, constructionError("%s: %w", ext.name, err)
	}
	if call == nil {
		return nil, constructionError("%s: constructor built no call", ext.name)
	}
	if call.Name != ext.name {
		return nil, constructionError("%s: constructor built a call to %s", ext.name, call.Name)
	}
	return call, nil
}

// Registry holds the operators and functions that can appear in expression
// trees. Every registry includes the built-in catalog. A registry is meant to
// be filled in before use and then shared read-only.
type Registry struct {
	mu         sync.RWMutex
	extensions map[string]*extension
}

// NewRegistry returns a registry holding only the built-in catalog.
func NewRegistry() *Registry {
	return &Registry{extensions: make(map[string]*extension)}
}

// RegisterOperator registers an operator taking arity operands. The
// constructor may be nil, in which case a boolean *Call is built. The render
// function may be nil for binary operators, which then render as
// (a name b), and for unary operators, rendered as name a.
func (r *Registry) RegisterOperator(name string, arity int, construct Constructor, render RenderFunc) error {
	if arity < 1 {
		return fmt.Errorf("cannot register operator %q: arity must be positive", name)
	}
	if arity > 2 && render == nil {
		return fmt.Errorf("cannot register operator %q: operators taking %d operands need a render function", name, arity)
	}
	return r.register(&extension{
		name:      name,
		class:     ClassOperator,
		arity:     arity,
		construct: construct,
		render:    render,
	})
}

// RegisterFunction registers a function. A nil constructor builds a scalar
// *Call typed after its first argument. A nil render function renders
// name(args...).
func (r *Registry) RegisterFunction(name string, construct Constructor, render RenderFunc) error {
	return r.register(&extension{
		name:      name,
		class:     ClassScalar,
		arity:     -1,
		construct: construct,
		render:    render,
	})
}

func (r *Registry) register(ext *extension) error {
	if ext.name == "" {
		return fmt.Errorf("cannot register extension: empty name")
	}
	if _, ok := builtins[ext.name]; ok {
		return fmt.Errorf("cannot register %q: name is built in", ext.name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.extensions[ext.name]; ok {
		return fmt.Errorf("cannot register %q: already registered", ext.name)
	}
	r.extensions[ext.name] = ext
	return nil
}

// lookup resolves name in the built-in catalog and then in r. A nil registry
// only holds the built-in catalog.
func (r *Registry) lookup(name string) (*extension, bool) {
	if ext, ok := builtins[name]; ok {
		return ext, true
	}
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.extensions[name]
	return ext, ok
}

// Call builds the node of the function or operator name over args.
func (r *Registry) Call(name string, args ...Expression) (Expression, error) {
	ext, ok := r.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", ErrConstruction, ErrUnknownExtension, name)
	}
	call, err := ext.build(args)
	if err != nil {
		return nil, err
	}
	return call, nil
}

// Cond builds a condition from the operator or boolean function name. The
// condition is dropped when any argument is absent.
func (r *Registry) Cond(name string, args ...Expression) Cond {
	for _, a := range args {
		if isAbsent(a) {
			return Cond{}
		}
	}
	e, err := r.Call(name, args...)
	if err != nil {
		return condErr(err)
	}
	if k := e.Type().Kind; k != KindBool && k != KindUnknown {
		return condErr(constructionError("%s: result of type %s is not a condition", name, e.Type()))
	}
	return condOf(e)
}

// CallAs builds the node of the function name over args and gives it the Go
// type T.
func CallAs[T any](r *Registry, name string, args ...Expression) Operand[T] {
	e, err := r.Call(name, args...)
	if err != nil {
		return typed[T]{err: err}
	}
	return Cast[T](e)
}
