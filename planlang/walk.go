package planlang

// Inspect traverses the tree depth first, calling fn for every node. If fn
// returns false the node's children are skipped. After a node's children
// have been visited, fn is called once with nil, so callers can maintain an
// ancestor stack.
func Inspect(node any, fn func(node any) bool) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}

	switch n := node.(type) {

	case *File:
		for _, stmt := range n.Stmts {
			Inspect(stmt, fn)
		}

	case *DeclStmt:
		if n.Value != nil {
			Inspect(n.Value, fn)
		}

	case *AssignStmt:
		Inspect(n.LHS, fn)
		Inspect(n.RHS, fn)

	case *ExprStmt:
		Inspect(n.X, fn)

	case *BlockStmt:
		for _, stmt := range n.Stmts {
			Inspect(stmt, fn)
		}

	case *IfStmt:
		Inspect(n.Cond, fn)
		Inspect(n.Then, fn)
		if n.Else != nil {
			Inspect(n.Else, fn)
		}

	case *WhileStmt:
		Inspect(n.Cond, fn)
		Inspect(n.Body, fn)

	case *ForStmt:
		if n.Init != nil {
			Inspect(n.Init, fn)
		}
		if n.Cond != nil {
			Inspect(n.Cond, fn)
		}
		if n.Post != nil {
			Inspect(n.Post, fn)
		}
		Inspect(n.Body, fn)

	case *ForOfStmt:
		Inspect(n.X, fn)
		Inspect(n.Body, fn)

	case *ReturnStmt:
		if n.X != nil {
			Inspect(n.X, fn)
		}

	case *BreakStmt, *ContinueStmt, *Ident, *BasicLit:

	case *FuncDeclStmt:
		Inspect(n.Fn, fn)

	case *ArrayLit:
		for _, elem := range n.Elems {
			Inspect(elem, fn)
		}

	case *ObjectLit:
		for _, value := range n.Values {
			Inspect(value, fn)
		}

	case *FuncLit:
		if n.Body != nil {
			Inspect(n.Body, fn)
		}
		if n.ExprBody != nil {
			Inspect(n.ExprBody, fn)
		}

	case *CallExpr:
		Inspect(n.Fun, fn)
		for _, arg := range n.Args {
			Inspect(arg, fn)
		}

	case *IndexExpr:
		Inspect(n.X, fn)
		Inspect(n.Index, fn)

	case *MemberExpr:
		Inspect(n.X, fn)

	case *UnaryExpr:
		Inspect(n.X, fn)

	case *BinaryExpr:
		Inspect(n.X, fn)
		Inspect(n.Y, fn)

	case *CondExpr:
		Inspect(n.Cond, fn)
		Inspect(n.Then, fn)
		Inspect(n.Else, fn)

	case *AwaitExpr:
		Inspect(n.X, fn)

	case *ParenExpr:
		Inspect(n.X, fn)
	}

	fn(nil)
}
