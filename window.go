// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlexpr

// Order is one term of an order by clause.
type Order struct {
	Expr Expression
	Desc bool
}

// Asc orders by e in ascending order.
func Asc(e Expression) Order {
	return Order{Expr: e}
}

// Desc orders by e in descending order.
func Desc(e Expression) Order {
	return Order{Expr: e, Desc: true}
}

// FrameUnit is the unit of a window frame.
type FrameUnit uint8

const (
	FrameRows FrameUnit = iota
	FrameRange
)

func (u FrameUnit) String() string {
	if u == FrameRange {
		return "range"
	}
	return "rows"
}

// BoundKind is the kind of a window frame bound.
type BoundKind uint8

const (
	BoundUnboundedPreceding BoundKind = iota
	BoundPreceding
	BoundCurrentRow
	BoundFollowing
	BoundUnboundedFollowing
)

// Bound is the start or the end of a window frame.
type Bound struct {
	Kind BoundKind
	// Offset is the number of rows or the range of a Preceding or Following
	// bound.
	Offset int64
}

var (
	UnboundedPreceding = Bound{Kind: BoundUnboundedPreceding}
	CurrentRow         = Bound{Kind: BoundCurrentRow}
	UnboundedFollowing = Bound{Kind: BoundUnboundedFollowing}
)

// Preceding returns the bound n rows, or n units of range, before the current
// row.
func Preceding(n int64) Bound {
	return Bound{Kind: BoundPreceding, Offset: n}
}

// Following returns the bound n rows, or n units of range, after the current
// row.
func Following(n int64) Bound {
	return Bound{Kind: BoundFollowing, Offset: n}
}

// Frame restricts the rows of a window partition a function sees.
type Frame struct {
	Unit  FrameUnit
	Start Bound
	// End is nil when the frame only names its start.
	End *Bound
}

// Rows returns the frame rows start.
func Rows(start Bound) *Frame {
	return &Frame{Unit: FrameRows, Start: start}
}

// RowsBetween returns the frame rows between start and end.
func RowsBetween(start, end Bound) *Frame {
	return &Frame{Unit: FrameRows, Start: start, End: &end}
}

// Range returns the frame range start.
func Range(start Bound) *Frame {
	return &Frame{Unit: FrameRange, Start: start}
}

// RangeBetween returns the frame range between start and end.
func RangeBetween(start, end Bound) *Frame {
	return &Frame{Unit: FrameRange, Start: start, End: &end}
}

func (f *Frame) check() error {
	if f.Start.Offset < 0 {
		return constructionError("over: negative frame offset %d", f.Start.Offset)
	}
	if f.Start.Kind == BoundUnboundedFollowing {
		return constructionError("over: frame cannot start at unbounded following")
	}
	if f.End == nil {
		// A lone start bound ends at the current row.
		if f.Start.Kind == BoundFollowing {
			return constructionError("over: frame ends before it starts")
		}
		return nil
	}
	end := *f.End
	if end.Offset < 0 {
		return constructionError("over: negative frame offset %d", end.Offset)
	}
	if end.Kind == BoundUnboundedPreceding {
		return constructionError("over: frame cannot end at unbounded preceding")
	}
	backwards := end.Kind < f.Start.Kind
	if end.Kind == f.Start.Kind {
		switch end.Kind {
		case BoundPreceding:
			backwards = end.Offset > f.Start.Offset
		case BoundFollowing:
			backwards = end.Offset < f.Start.Offset
		}
	}
	if backwards {
		return constructionError("over: frame ends before it starts")
	}
	return nil
}

// WindowSpec describes the window of a window function. Every part is
// optional.
type WindowSpec struct {
	PartitionBy []Expression
	OrderBy     []Order
	Frame       *Frame
}

// Window is a function call evaluated over a window.
type Window struct {
	Func        *Call
	PartitionBy []Expression
	OrderBy     []Order
	Frame       *Frame
}

func (w *Window) Type() Type  { return w.Func.Type() }
func (*Window) expression()   {}

// Over evaluates the aggregate or window function fn over the window spec.
func Over[T any](fn Operand[T], spec WindowSpec) Operand[T] {
	if err := exprErr(fn); err != nil {
		return typed[T]{err: err}
	}
	call, ok := base(fn).(*Call)
	if !ok || (call.Class != ClassAggregate && call.Class != ClassWindow) {
		return typed[T]{err: constructionError("over: %T is not an aggregate or window function", base(fn))}
	}
	for _, e := range spec.PartitionBy {
		if err := exprErr(e); err != nil {
			return typed[T]{err: err}
		}
	}
	for _, o := range spec.OrderBy {
		if err := exprErr(o.Expr); err != nil {
			return typed[T]{err: err}
		}
	}
	if spec.Frame != nil {
		if err := spec.Frame.check(); err != nil {
			return typed[T]{err: err}
		}
	}
	w := &Window{
		Func:        call,
		PartitionBy: append([]Expression(nil), spec.PartitionBy...),
		OrderBy:     append([]Order(nil), spec.OrderBy...),
	}
	if spec.Frame != nil {
		frame := *spec.Frame
		w.Frame = &frame
	}
	return typed[T]{node: w}
}
