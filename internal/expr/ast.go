package expr

// Node is a sealed interface over the AST variants of the predictor
// language. Only the node types in this file implement it.
type Node interface {
	node() // Sealed - only expr types implement it.
}

// NumberNode is a numeric literal.
type NumberNode struct {
	Value float64
}

func (*NumberNode) node() {}

// StringNode is a string literal.
type StringNode struct {
	Value string
}

func (*StringNode) node() {}

// IdentNode references a name in the scope.
type IdentNode struct {
	Name string
}

func (*IdentNode) node() {}

// UnaryNode is unary minus.
type UnaryNode struct {
	Operand Node
}

func (*UnaryNode) node() {}

// BinaryOp enumerates binary operators.
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpPow BinaryOp = "^"
)

// BinaryNode applies a binary operator.
type BinaryNode struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

func (*BinaryNode) node() {}

// IndexNode is subscripting: target[index]. Indexing is 1-based.
type IndexNode struct {
	Target Node
	Index  Node
}

func (*IndexNode) node() {}

// CallArg is one argument of a call, optionally named.
type CallArg struct {
	Name string // Empty for positional arguments.
	Expr Node
}

// CallNode is function application: target(arg, name = arg, ...).
type CallNode struct {
	Target Node
	Args   []CallArg
}

func (*CallNode) node() {}
