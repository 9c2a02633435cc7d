package syntax

// Kind tags a node in the structural tree.
type Kind int

const (
	KindOther Kind = iota
	KindModule
	KindClass
	KindFunction
	KindIf
	KindWhile
	KindFor
	KindBoolOp
	KindExpr
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	case KindIf:
		return "if"
	case KindWhile:
		return "while"
	case KindFor:
		return "for"
	case KindBoolOp:
		return "boolop"
	case KindExpr:
		return "expr"
	case KindString:
		return "string"
	default:
		return "other"
	}
}

// BoolOperator is the operator of a KindBoolOp node.
type BoolOperator int

const (
	OpNone BoolOperator = iota
	OpAnd
	OpOr
)

// Node is one element of the structural tree.
//
// Children holds every structural child in source order. For Module, Class
// and Function nodes, Body is the subset of Children that are the statements
// of the node's block, so Body[0] is the first statement.
type Node struct {
	Kind     Kind
	Name     string
	Line     int
	Op       BoolOperator
	Operands int
	Raw      string
	Children []*Node
	Body     []*Node
}

// IsScope reports whether n owns a statement body.
func (n *Node) IsScope() bool {
	switch n.Kind {
	case KindModule, KindClass, KindFunction:
		return true
	}
	return false
}

// Walk visits n and its descendants depth-first in source order. If fn
// returns false the children of that node are skipped.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Collect returns every node in n's subtree (n included) whose kind is one
// of kinds, in walk order.
func Collect(n *Node, kinds ...Kind) []*Node {
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	var out []*Node
	Walk(n, func(x *Node) bool {
		if want[x.Kind] {
			out = append(out, x)
		}
		return true
	})
	return out
}
