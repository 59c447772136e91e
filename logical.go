// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlexpr

// LogicalKind is the connective of a Logical node.
type LogicalKind uint8

const (
	LogicalAnd LogicalKind = iota
	LogicalOr
	LogicalNot
)

func (k LogicalKind) String() string {
	switch k {
	case LogicalAnd:
		return "and"
	case LogicalOr:
		return "or"
	case LogicalNot:
		return "not"
	}
	return "invalid"
}

// Logical joins its children with and or or, or negates its single child.
type Logical struct {
	Kind     LogicalKind
	Children []Expression
}

func (*Logical) Type() Type  { return boolType }
func (*Logical) expression() {}

// reduce builds the logical node of the given kind over children, applying
// null propagation: nil children have been dropped and are skipped, a node
// left without children is dropped (nil is returned) and an and/or node with
// a single child is replaced by it. A not node over several children negates
// their conjunction.
func reduce(kind LogicalKind, children []Expression) Expression {
	kept := make([]Expression, 0, len(children))
	for _, c := range children {
		if c != nil {
			kept = append(kept, c)
		}
	}
	switch {
	case len(kept) == 0:
		return nil
	case kind == LogicalNot:
		child := kept[0]
		if len(kept) > 1 {
			child = &Logical{Kind: LogicalAnd, Children: kept}
		}
		return &Logical{Kind: LogicalNot, Children: []Expression{child}}
	case len(kept) == 1:
		return kept[0]
	}
	return &Logical{Kind: kind, Children: kept}
}
