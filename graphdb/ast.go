package graphdb

// Direction is the arrow direction of a relationship pattern.
type Direction int

const (
	DirRight Direction = iota // (a)-[]->(b)
	DirLeft                   // (a)<-[]-(b)
	DirEither                 // (a)-[]-(b)
)

// VarLength describes a `*`, `*n`, `*n..m` or `*..m` relationship
// repetition. The parser always fills Max: a bare `*` gets
// maxVarLengthHops, and `*n..` with no upper bound is rejected. The
// parser never sets Unbounded.
type VarLength struct {
	Min      int
	Max      int
	Unbounded bool
}

// NodePattern is `(var:Label1:Label2 {key: expr, ...})`.
type NodePattern struct {
	Variable   string
	Labels     []string
	Properties map[string]Expr
}

// RelPattern is `-[var:TYPE*min..max {key: expr}]-`.
type RelPattern struct {
	Variable   string
	Types      []string
	Properties map[string]Expr
	Direction  Direction
	VarLength  *VarLength
}

// PathPattern is an alternating chain of node/relationship patterns:
// len(Nodes) == len(Rels)+1.
type PathPattern struct {
	Nodes []NodePattern
	Rels  []RelPattern
}

// Expr is any node of the expression AST.
type Expr interface{ exprNode() }

type LiteralExpr struct{ Value Value }
type VariableExpr struct{ Name string }
type PropertyExpr struct {
	Variable string
	Key      string
}
type ListExpr struct{ Elements []Expr }
type ParamExpr struct{ Name string }

// UnaryExpr covers NOT and unary minus.
type UnaryExpr struct {
	Op      string
	Operand Expr
}

// BinaryExpr covers AND/OR, comparisons, string operators (CONTAINS,
// STARTS WITH, ENDS WITH, =~), and arithmetic.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

// FunctionCallExpr covers both scalar functions (UPPER, LENGTH, ...)
// and aggregate functions (COUNT, SUM, AVG, MIN, MAX, COLLECT); the
// executor distinguishes them by name via isAggregateFunction.
type FunctionCallExpr struct {
	Name     string
	Args     []Expr
	Distinct bool
}

func (LiteralExpr) exprNode()      {}
func (VariableExpr) exprNode()     {}
func (PropertyExpr) exprNode()     {}
func (ListExpr) exprNode()         {}
func (ParamExpr) exprNode()        {}
func (UnaryExpr) exprNode()        {}
func (BinaryExpr) exprNode()       {}
func (FunctionCallExpr) exprNode() {}

// ReturnItem is one projected expression, optionally aliased.
type ReturnItem struct {
	Expr  Expr
	Alias string
}

// OrderTerm is one ORDER BY expression and its direction.
type OrderTerm struct {
	Expr       Expr
	Descending bool
}

type MatchClause struct {
	Patterns []PathPattern
	Optional bool
}

type WhereClause struct{ Condition Expr }

type CreateClause struct{ Patterns []PathPattern }

// SetItem is one `var.key = expr` assignment, or `var:Label` to add a
// label to an already-bound node.
type SetItem struct {
	Variable string
	Key      string
	Label    string
	Value    Expr
}

type SetClause struct{ Assignments []SetItem }

type DeleteClause struct {
	Variables []string
	Detach    bool
}

// WithClause projects and optionally re-filters/re-orders a pipeline
// stage before a following MATCH/RETURN, per spec §4.4's WITH grammar.
type WithClause struct {
	Items    []ReturnItem
	Distinct bool
	Where    Expr
	OrderBy  []OrderTerm
	Skip     *int64
	Limit    *int64
}

type ReturnClause struct {
	Items    []ReturnItem
	Distinct bool
}

// Query is one full statement, holding at most one clause of each
// kind. The parser accepts clauses in any order and any combination
// (Set/Delete may appear alongside Create); when a clause kind appears
// twice, the later one replaces the earlier. The executor runs the
// clauses in its own fixed order, not in the order they were written.
type Query struct {
	Match    *MatchClause
	Where    *WhereClause
	Create   *CreateClause
	Set      *SetClause
	Delete   *DeleteClause
	With     *WithClause
	Return   *ReturnClause
	OrderBy  []OrderTerm
	Skip     *int64
	Limit    *int64
	Distinct bool
}

// isAggregateFunction reports whether a function name folds multiple
// rows into one, per spec §4.5's aggregate-vs-scalar AST distinction.
func isAggregateFunction(name string) bool {
	switch name {
	case "COUNT", "SUM", "AVG", "MIN", "MAX", "COLLECT":
		return true
	default:
		return false
	}
}

// containsAggregate reports whether an expression tree contains an
// aggregate function call anywhere, used by the executor to decide
// whether a RETURN/WITH projection requires grouping.
func containsAggregate(e Expr) bool {
	switch n := e.(type) {
	case FunctionCallExpr:
		if isAggregateFunction(n.Name) {
			return true
		}
		for _, a := range n.Args {
			if containsAggregate(a) {
				return true
			}
		}
		return false
	case UnaryExpr:
		return containsAggregate(n.Operand)
	case BinaryExpr:
		return containsAggregate(n.Left) || containsAggregate(n.Right)
	case ListExpr:
		for _, el := range n.Elements {
			if containsAggregate(el) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
