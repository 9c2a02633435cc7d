package syntax

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ParseError reports the first syntax error found in a source file.
type ParseError struct {
	Line int
	Msg  string

	// from is the first line an indentation error depends on; a grammar
	// error before it is reported first.
	from int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (line %d)", e.Msg, e.Line)
}

// ParsePython parses Python source into a structural tree rooted at a
// KindModule node. Source that does not parse cleanly yields a *ParseError.
func ParsePython(ctx context.Context, src []byte) (*Node, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse python source: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if perr := firstFailure(src, root); perr != nil {
		return nil, perr
	}

	b := builder{src: src}
	return b.module(root), nil
}

// firstFailure returns the error Python reports first for src, or nil.
// The grammar accepts some inputs Python 3 rejects, so the tree is also
// checked for Python 2 statements and the source for indentation errors.
func firstFailure(src []byte, root *sitter.Node) *ParseError {
	var grammar *ParseError
	if root.HasError() {
		if grammar = firstError(root); grammar == nil {
			grammar = &ParseError{Line: 1, Msg: "invalid syntax"}
		}
	}
	if perr := firstRejected(root); perr != nil && (grammar == nil || perr.Line < grammar.Line) {
		grammar = perr
	}

	indent := checkIndentation(src)
	switch {
	case indent == nil:
		return grammar
	case grammar != nil && grammar.Line < indent.from:
		return grammar
	}
	return indent
}

// rejectedStatements are accepted by the grammar for Python 2 code only.
var rejectedStatements = map[string]string{
	"print_statement": "print",
	"exec_statement":  "exec",
}

// firstRejected finds the first Python 2 statement, or a block with no
// statements, in source order.
func firstRejected(n *sitter.Node) *ParseError {
	line := int(n.StartPoint().Row) + 1
	if name, ok := rejectedStatements[n.Type()]; ok {
		return &ParseError{
			Line: line,
			Msg:  fmt.Sprintf("Missing parentheses in call to '%s'. Did you mean %s(...)?", name, name),
		}
	}
	if n.Type() == "block" && !hasStatement(n) {
		return &ParseError{Line: line + 1, Msg: "expected an indented block"}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c != nil {
			if perr := firstRejected(c); perr != nil {
				return perr
			}
		}
	}
	return nil
}

func hasStatement(block *sitter.Node) bool {
	for i := 0; i < int(block.NamedChildCount()); i++ {
		if c := block.NamedChild(i); c != nil && c.Type() != "comment" {
			return true
		}
	}
	return false
}

// firstError finds the first ERROR or MISSING node in source order.
func firstError(n *sitter.Node) *ParseError {
	line := int(n.StartPoint().Row) + 1
	if n.IsMissing() {
		return &ParseError{Line: line, Msg: fmt.Sprintf("invalid syntax: missing %q", n.Type())}
	}
	if n.Type() == "ERROR" {
		return &ParseError{Line: line, Msg: "invalid syntax"}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || !(c.HasError() || c.IsMissing()) {
			continue
		}
		if perr := firstError(c); perr != nil {
			return perr
		}
	}
	return nil
}

type builder struct {
	src []byte
}

func (b *builder) module(n *sitter.Node) *Node {
	m := &Node{Kind: KindModule, Line: 1, Raw: n.Type()}
	m.Body = b.children(n)
	m.Children = m.Body
	return m
}

// children converts the named children of n, dropping comments.
func (b *builder) children(n *sitter.Node) []*Node {
	var out []*Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, b.node(c))
	}
	return out
}

func (b *builder) node(n *sitter.Node) *Node {
	x := &Node{Raw: n.Type(), Line: int(n.StartPoint().Row) + 1}

	switch n.Type() {
	case "class_definition", "function_definition":
		x.Kind = KindFunction
		if n.Type() == "class_definition" {
			x.Kind = KindClass
		}
		if name := n.ChildByFieldName("name"); name != nil {
			x.Name = name.Content(b.src)
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c == nil || c.Type() == "comment" {
				continue
			}
			if c.Type() == "block" {
				x.Body = b.children(c)
				x.Children = append(x.Children, x.Body...)
				continue
			}
			x.Children = append(x.Children, b.node(c))
		}
		return x

	case "boolean_operator":
		return b.boolOp(n)

	case "string", "concatenated_string":
		if b.plainString(n) {
			x.Kind = KindString
			return x
		}

	case "if_statement", "elif_clause":
		x.Kind = KindIf
	case "while_statement":
		x.Kind = KindWhile
	case "for_statement":
		if !isAsync(n) {
			x.Kind = KindFor
		}
	case "parenthesized_expression":
		if inner := soleChild(n); inner != nil {
			return b.node(inner)
		}
	case "expression_statement":
		x.Kind = KindExpr
	}

	x.Children = b.children(n)
	return x
}

func isAsync(n *sitter.Node) bool {
	first := n.Child(0)
	return first != nil && first.Type() == "async"
}

// soleChild returns the only named child of n other than comments.
func soleChild(n *sitter.Node) *sitter.Node {
	var only *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		if only != nil {
			return nil
		}
		only = c
	}
	return only
}

// boolOp flattens unparenthesized chains of the same operator, so
// `a and b and c` becomes one node with three operands.
func (b *builder) boolOp(n *sitter.Node) *Node {
	x := &Node{
		Kind: KindBoolOp,
		Op:   boolOperator(n),
		Line: int(n.StartPoint().Row) + 1,
		Raw:  n.Type(),
	}

	for _, side := range []*sitter.Node{n.ChildByFieldName("left"), n.ChildByFieldName("right")} {
		if side == nil {
			continue
		}
		if side.Type() == "boolean_operator" && boolOperator(side) == x.Op {
			inner := b.boolOp(side)
			x.Operands += inner.Operands
			x.Children = append(x.Children, inner.Children...)
			continue
		}
		x.Operands++
		x.Children = append(x.Children, b.node(side))
	}
	return x
}

func boolOperator(n *sitter.Node) BoolOperator {
	op := n.ChildByFieldName("operator")
	if op == nil {
		return OpNone
	}
	switch op.Type() {
	case "and":
		return OpAnd
	case "or":
		return OpOr
	}
	return OpNone
}

// plainString reports whether a string node is a str constant: no f or b
// prefix on any of its parts.
func (b *builder) plainString(n *sitter.Node) bool {
	if n.Type() == "concatenated_string" {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c != nil && c.Type() == "string" && !b.plainString(c) {
				return false
			}
		}
		return true
	}

	text := n.Content(b.src)
	prefix := strings.ToLower(text[:strings.IndexAny(text+`"`, `"'`)])
	return !strings.ContainsAny(prefix, "fb")
}
