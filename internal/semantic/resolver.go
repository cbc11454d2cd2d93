package semantic

import (
	"github.com/kolkov/xawk/internal/ast"
	"github.com/kolkov/xawk/internal/token"
)

// maxInferencePasses bounds the type inference fixpoint.
const maxInferencePasses = 100

// ResolveResult is the outcome of resolving a program.
type ResolveResult struct {
	// Globals holds every global name, including the specials and the
	// predefined arrays.
	Globals *SymbolTable

	Functions map[string]*FuncInfo
	FuncList  []*FuncInfo // in declaration order

	// ScalarNames[i] names global scalar slot i; ArrayNames[i] names
	// global array slot i.
	ScalarNames []string
	ArrayNames  []string

	Errors   ErrorList
	Warnings WarningList
}

// Resolver binds names to symbols and infers which are arrays.
type Resolver struct {
	res   *ResolveResult
	fn    *FuncInfo // function whose body is being walked, nil elsewhere
	binds map[*ast.Ident]*Symbol

	// changes counts type refinements; a pass that makes none ends inference.
	changes int
	// final is set for the last pass, the only one that reports errors.
	final bool
}

// Resolve annotates the identifiers and calls of prog in place.
func Resolve(prog *ast.Program) (*ResolveResult, error) {
	r := &Resolver{
		res: &ResolveResult{
			Globals:   NewSymbolTable(nil, "global"),
			Functions: make(map[string]*FuncInfo),
		},
		binds: make(map[*ast.Ident]*Symbol),
	}

	r.predeclare()
	r.declareFunctions(prog)

	for pass := 0; pass < maxInferencePasses; pass++ {
		before := r.changes
		r.walkProgram(prog)
		if pass > 0 && r.changes == before {
			break
		}
	}
	r.defaultToScalar()

	r.final = true
	r.walkProgram(prog)

	r.assignSlots()
	r.annotate()
	r.warnUnused()

	return r.res, r.res.Errors.Err()
}

func (r *Resolver) errorf(pos token.Position, format string, args ...any) {
	if r.final {
		r.res.Errors.Add(pos, format, args...)
	}
}

func (r *Resolver) predeclare() {
	origin := token.Position{Line: 1, Column: 1}
	for id := V_ILLEGAL + 1; id < NumSpecials; id++ {
		sym := r.res.Globals.Define(specialNames[id], SymbolSpecial, TypeScalar, origin)
		sym.Index = id
		sym.Used = true
	}
	for _, name := range PredefinedArrays {
		r.res.Globals.Define(name, SymbolGlobal, TypeArray, origin).Used = true
	}
}

// declareFunctions records every function and its parameters, so calls
// can be bound before the callee's body is seen.
func (r *Resolver) declareFunctions(prog *ast.Program) {
	for _, decl := range prog.Functions {
		if r.res.Functions[decl.Name] != nil {
			r.res.Errors.Add(decl.NamePos, errDuplicateFunc, decl.Name)
			continue
		}
		info := &FuncInfo{
			Name:    decl.Name,
			Params:  decl.Params,
			Symbols: NewSymbolTable(r.res.Globals, decl.Name),
			Index:   len(r.res.FuncList),
			Pos:     decl.NamePos,
		}
		for slot, param := range decl.Params {
			if sym := info.Symbols.Define(param, SymbolLocal, TypeUnknown, decl.NamePos); sym != nil {
				sym.Index = slot
			} else {
				r.res.Errors.Add(decl.NamePos, errDuplicateParam, param, decl.Name)
			}
		}
		r.res.Functions[decl.Name] = info
		r.res.FuncList = append(r.res.FuncList, info)
	}
}

// walkProgram makes one resolution pass over every block and body.
func (r *Resolver) walkProgram(prog *ast.Program) {
	r.fn = nil
	for _, group := range [][]*ast.BlockStmt{prog.Begin, prog.BeginFile} {
		for _, b := range group {
			ast.Walk(b, r.visit)
		}
	}
	for _, rule := range prog.Rules {
		ast.Walk(rule, r.visit)
	}
	for _, group := range [][]*ast.BlockStmt{prog.EndFile, prog.EndBlocks} {
		for _, b := range group {
			ast.Walk(b, r.visit)
		}
	}
	for i, decl := range prog.Functions {
		// Duplicate declarations were never registered.
		if i >= len(r.res.FuncList) || r.res.FuncList[i].Name != decl.Name {
			continue
		}
		r.fn = r.res.FuncList[i]
		ast.Walk(decl.Body, r.visit)
	}
	r.fn = nil
}

// visit handles the nodes whose names carry a required shape and lets
// ast.Walk descend through the rest.
func (r *Resolver) visit(n ast.Node) bool {
	switch n := n.(type) {
	case *ast.Ident:
		r.bind(n, TypeScalar)
	case *ast.IndexExpr:
		r.bind(n.Array, TypeArray)
		r.walkAll(n.Index)
	case *ast.InExpr:
		r.walkAll(n.Index)
		r.bind(n.Array, TypeArray)
	case *ast.DeleteStmt:
		r.bind(n.Array, TypeArray)
		r.walkAll(n.Index)
	case *ast.ForInStmt:
		r.bind(n.Var, TypeScalar)
		r.bind(n.Array, TypeArray)
		ast.Walk(n.Body, r.visit)
	case *ast.CallExpr:
		r.call(n)
	case *ast.BuiltinExpr:
		r.builtin(n)
	default:
		return true
	}
	return false
}

func (r *Resolver) walkAll(list []ast.Expr) {
	for _, e := range list {
		ast.Walk(e, r.visit)
	}
}

// scoped finds name in the function's parameters or the globals without
// creating anything.
func (r *Resolver) scoped(name string) *Symbol {
	if r.fn != nil {
		if sym, ok := r.fn.Symbols.LookupLocal(name); ok {
			return sym
		}
	}
	sym, _ := r.res.Globals.LookupLocal(name)
	return sym
}

// bind resolves ident, declaring a global on first sight, and applies
// want to its type. TypeUnknown leaves the type as it is.
func (r *Resolver) bind(ident *ast.Ident, want VarType) *Symbol {
	if ident == nil {
		return nil
	}
	sym := r.scoped(ident.Name)
	if sym == nil {
		if r.res.Functions[ident.Name] != nil {
			r.errorf(ident.Pos(), errVarShadowsFunc, ident.Name)
			return nil
		}
		sym = r.res.Globals.Define(ident.Name, SymbolGlobal, want, ident.Pos())
		r.changes++
	}

	sym.Used = true
	r.binds[ident] = sym
	switch {
	case want == TypeUnknown || sym.Type == want:
	case sym.Type == TypeUnknown:
		sym.Type = want
		r.changes++
	default:
		r.errorf(ident.Pos(), errArrayScalarConflict, sym.Name)
	}
	return sym
}

// refine gives sym the type typ when sym has none yet.
func (r *Resolver) refine(sym *Symbol, typ VarType) {
	if sym != nil && sym.Type == TypeUnknown && typ != TypeUnknown {
		sym.Type = typ
		r.changes++
	}
}

// call binds a call to a user function, which wins over an extended
// builtin of the same name.
func (r *Resolver) call(c *ast.CallExpr) {
	if info := r.res.Functions[c.Name]; info != nil {
		c.Func, c.Builtin = info.Index, 0
		r.userCall(c, info)
		return
	}
	if b := LookupBuiltin(c.Name); b != BuiltinNone {
		c.Func, c.Builtin = -1, int(b)
		r.extendedCall(c, b)
		return
	}
	r.errorf(c.Pos(), errUndefinedFunc, c.Name)
	r.walkAll(c.Args)
}

// userCall passes types both ways between arguments and parameters. A bare
// name may be an array passed by reference; any other argument is a scalar.
func (r *Resolver) userCall(c *ast.CallExpr, info *FuncInfo) {
	info.Called = true
	if len(c.Args) > len(info.Params) {
		r.errorf(c.Pos(), errTooManyArgs, c.Name)
	}

	for i, arg := range c.Args {
		var param *Symbol
		if i < len(info.Params) {
			param, _ = info.Symbols.LookupLocal(info.Params[i])
		}
		ident, bare := arg.(*ast.Ident)
		if !bare {
			ast.Walk(arg, r.visit)
			r.refine(param, TypeScalar)
			continue
		}
		sym := r.bind(ident, TypeUnknown)
		if sym == nil || param == nil {
			continue
		}
		r.refine(param, sym.Type)
		r.refine(sym, param.Type)
	}
}

// extendedCall checks the arity of an extended builtin and types its
// array operands.
func (r *Resolver) extendedCall(c *ast.CallExpr, b Builtin) {
	info := b.Info()
	switch n := len(c.Args); {
	case n < info.MinArgs:
		r.errorf(c.Pos(), errNotEnoughArgs, info.Name)
	case n > info.MaxArgs:
		r.errorf(c.Pos(), errTooManyArgs, info.Name)
	}

	for i, arg := range c.Args {
		ident, bare := arg.(*ast.Ident)
		if !bare {
			ast.Walk(arg, r.visit)
			continue
		}
		want := TypeScalar
		switch {
		case b.TakesArray(i, len(c.Args)):
			// A scalar here holds the name of a global array.
			if sym := r.scoped(ident.Name); sym == nil || sym.Type != TypeScalar {
				want = TypeArray
			}
		case info.IsAnyArg(i):
			want = TypeUnknown
		}
		r.bind(ident, want)
	}
}

// builtin types the array operands of split and match. length of a bare
// name accepts either shape.
func (r *Resolver) builtin(b *ast.BuiltinExpr) {
	for i, arg := range b.Args {
		ident, bare := arg.(*ast.Ident)
		switch {
		case b.Func == token.F_SPLIT && i == 1, b.Func == token.F_MATCH && i == 2:
			r.bind(ident, TypeArray)
		case b.Func == token.F_LENGTH && bare:
			r.bind(ident, TypeUnknown)
		default:
			ast.Walk(arg, r.visit)
		}
	}
}

func (r *Resolver) defaultToScalar() {
	settle := func(_ string, sym *Symbol) {
		if sym.Type == TypeUnknown {
			sym.Type = TypeScalar
		}
	}
	r.res.Globals.ForEach(settle)
	for _, info := range r.res.FuncList {
		info.Symbols.ForEach(settle)
	}
}

// assignSlots numbers global scalars and arrays separately, in name order.
func (r *Resolver) assignSlots() {
	r.res.Globals.ForEach(func(name string, sym *Symbol) {
		if sym.Kind != SymbolGlobal {
			return
		}
		if sym.Type == TypeArray {
			sym.Index = len(r.res.ArrayNames)
			r.res.ArrayNames = append(r.res.ArrayNames, name)
			return
		}
		sym.Index = len(r.res.ScalarNames)
		r.res.ScalarNames = append(r.res.ScalarNames, name)
	})
}

// annotate copies each binding onto its identifier.
func (r *Resolver) annotate() {
	for ident, sym := range r.binds {
		ident.Index = sym.Index
		ident.Array = sym.Type == TypeArray
		switch sym.Kind {
		case SymbolLocal:
			ident.Scope = ast.ScopeLocal
		case SymbolSpecial:
			ident.Scope = ast.ScopeSpecial
		default:
			ident.Scope = ast.ScopeGlobal
		}
	}
}

func (r *Resolver) warnUnused() {
	for _, info := range r.res.FuncList {
		if !info.Called {
			r.res.Warnings.Add(info.Pos, warnUnusedFunc, info.Name)
		}
		for _, param := range info.Params {
			if sym, ok := info.Symbols.LookupLocal(param); ok && !sym.Used {
				r.res.Warnings.Add(sym.Pos, warnUnusedParam, param)
			}
		}
	}
}

// GetFunction returns the function called name.
func (r *ResolveResult) GetFunction(name string) (*FuncInfo, bool) {
	info, ok := r.Functions[name]
	return info, ok
}

// GlobalArray returns the slot of the global array called name.
func (r *ResolveResult) GlobalArray(name string) (int, bool) {
	return r.global(name, TypeArray)
}

// GlobalScalar returns the slot of the global scalar called name.
func (r *ResolveResult) GlobalScalar(name string) (int, bool) {
	return r.global(name, TypeScalar)
}

func (r *ResolveResult) global(name string, typ VarType) (int, bool) {
	sym, ok := r.Globals.LookupLocal(name)
	if !ok || sym.Kind != SymbolGlobal || sym.Type != typ {
		return 0, false
	}
	return sym.Index, true
}
