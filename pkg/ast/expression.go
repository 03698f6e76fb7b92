package ast

// Literal is a null, boolean, number, or string constant.
type Literal struct {
	Span
	Value interface{} // nil, bool, float64, or string
}

func (*Literal) expressionNode() {}

// Variable is a bare identifier reference, resolved at compile time to
// a local slot, an upvalue, or a global lookup.
type Variable struct {
	Span
	Name string
}

func (*Variable) expressionNode() {}

// Assignment is `target = value`; Target is itself evaluated as an
// lvalue by the compiler (only a Variable target is legal — an
// `expr[index] = value` form is parsed into IndexAssignment instead,
// and any other target, a List included, is diagnostic.AssignTarget).
// Compound operators (+=, -=, *=, /=) are parsed into this same node
// with Operator set to the corresponding binary operator; the compiler
// desugars them into load-operate-store.
type Assignment struct {
	Span
	Target   Expression
	Operator string // "", "+", "-", "*", "/" (compound assignment)
	Value    Expression
}

func (*Assignment) expressionNode() {}

// Binary is a two-operand operator expression, including the `>>`
// pipeline operator (`a >> f` compiles as `f(a)`) and the short
// circuiting `&&`/`and`, `||`/`or`, and `??` operators.
type Binary struct {
	Span
	Left     Expression
	Operator string
	Right    Expression
}

func (*Binary) expressionNode() {}

// Unary is `-expr` or `!expr`.
type Unary struct {
	Span
	Operator   string
	Expression Expression
}

func (*Unary) expressionNode() {}

// Group is a parenthesised expression, kept as its own node only so a
// formatter could round-trip the source parens; it carries no runtime
// meaning beyond Expression's.
type Group struct {
	Span
	Expression Expression
}

func (*Group) expressionNode() {}

// Call is `callee(args...)`.
type Call struct {
	Span
	Callee    Expression
	Arguments []Expression
}

func (*Call) expressionNode() {}

// Parameter is one parameter of a Function expression: a name plus an
// optional parsed (never checked) type annotation.
type Parameter struct {
	Name string
	Type *TypeExpression
}

// Function is a function literal, `(params) -> retType` followed by an
// indented block (or a single statement on the same line), or the
// expression-bodied `(params) => expr`, which parses to the same
// node with Body wrapped in an implicit Return.
type Function struct {
	Span
	Name       string // "" for anonymous function expressions
	Parameters []Parameter
	Variadic   bool
	ReturnType *TypeExpression
	Body       *Block
}

func (*Function) expressionNode() {}

// FormatString is a backtick string with `${...}` splices: String
// literal segments alternate with the parsed sub-expressions that sit
// between them, Strings always has one more element than Expressions.
type FormatString struct {
	Span
	Strings     []string
	Expressions []Expression
}

func (*FormatString) expressionNode() {}

// List is a `[a, b, c]` literal.
type List struct {
	Span
	Items []Expression
}

func (*List) expressionNode() {}

// Index is `expression[index]`.
type Index struct {
	Span
	Expression Expression
	IndexExpr  Expression
}

func (*Index) expressionNode() {}

// IndexAssignment is `expression[index] = value`, including its
// compound forms; Index is evaluated exactly once by the compiler
// regardless of Operator.
type IndexAssignment struct {
	Span
	Expression Expression
	IndexExpr  Expression
	Operator   string
	Value      Expression
}

func (*IndexAssignment) expressionNode() {}

// ModuleAccess is `Module.symbol`, resolved by the compiler through
// the host Context at compile time.
type ModuleAccess struct {
	Span
	Module string
	Symbol string
}

func (*ModuleAccess) expressionNode() {}

// ExpressionComment wraps an expression a trailing `// ...` comment
// attached to, kept so lint rules and a formatter can see comment
// placement without the compiler treating it as anything but its inner
// Expression.
type ExpressionComment struct {
	Span
	Text       string
	Expression Expression
}

func (*ExpressionComment) expressionNode() {}
