package ast

// Walk traverses the tree depth first, calling fn for each node. When fn
// returns false the children of that node are skipped.
func Walk(node Node, fn func(Node) bool) {
	if isNil(node) || !fn(node) {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, group := range [][]*BlockStmt{n.Begin, n.BeginFile} {
			for _, b := range group {
				Walk(b, fn)
			}
		}
		for _, r := range n.Rules {
			Walk(r, fn)
		}
		for _, group := range [][]*BlockStmt{n.EndFile, n.EndBlocks} {
			for _, b := range group {
				Walk(b, fn)
			}
		}
		for _, f := range n.Functions {
			Walk(f, fn)
		}
	case *Rule:
		Walk(n.Pattern, fn)
		Walk(n.Action, fn)
	case *FuncDecl:
		Walk(n.Body, fn)

	case *FieldExpr:
		Walk(n.Index, fn)
	case *IndexExpr:
		Walk(n.Array, fn)
		walkList(n.Index, fn)
	case *BinaryExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *UnaryExpr:
		Walk(n.Expr, fn)
	case *TernaryExpr:
		Walk(n.Cond, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)
	case *AssignExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *ConcatExpr:
		walkList(n.Exprs, fn)
	case *GroupExpr:
		Walk(n.Expr, fn)
	case *ListExpr:
		walkList(n.Exprs, fn)
	case *CallExpr:
		walkList(n.Args, fn)
	case *BuiltinExpr:
		walkList(n.Args, fn)
	case *GetlineExpr:
		Walk(n.Command, fn)
		Walk(n.Target, fn)
		Walk(n.File, fn)
	case *InExpr:
		walkList(n.Index, fn)
		Walk(n.Array, fn)
	case *MatchExpr:
		Walk(n.Expr, fn)
		Walk(n.Pattern, fn)
	case *CommaExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)

	case *ExprStmt:
		Walk(n.Expr, fn)
	case *PrintStmt:
		walkList(n.Args, fn)
		Walk(n.Dest, fn)
	case *BlockStmt:
		for _, s := range n.Stmts {
			Walk(s, fn)
		}
	case *IfStmt:
		Walk(n.Cond, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)
	case *WhileStmt:
		Walk(n.Cond, fn)
		Walk(n.Body, fn)
	case *DoWhileStmt:
		Walk(n.Body, fn)
		Walk(n.Cond, fn)
	case *ForStmt:
		Walk(n.Init, fn)
		Walk(n.Cond, fn)
		Walk(n.Post, fn)
		Walk(n.Body, fn)
	case *ForInStmt:
		Walk(n.Var, fn)
		Walk(n.Array, fn)
		Walk(n.Body, fn)
	case *ReturnStmt:
		Walk(n.Value, fn)
	case *ExitStmt:
		Walk(n.Code, fn)
	case *DeleteStmt:
		Walk(n.Array, fn)
		walkList(n.Index, fn)
	}
}

func walkList(list []Expr, fn func(Node) bool) {
	for _, e := range list {
		Walk(e, fn)
	}
}

// isNil catches typed nil pointers stored in the Node interface, which the
// optional fields of several nodes produce.
func isNil(node Node) bool {
	switch n := node.(type) {
	case nil:
		return true
	case *BlockStmt:
		return n == nil
	case *Ident:
		return n == nil
	case *Rule:
		return n == nil
	}
	return false
}
