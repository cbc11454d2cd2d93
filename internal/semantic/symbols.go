package semantic

import (
	"slices"

	"github.com/kolkov/xawk/internal/token"
)

// SymbolKind says where a name lives.
type SymbolKind uint8

const (
	SymbolGlobal   SymbolKind = iota // created on first use
	SymbolLocal                      // parameter; unpassed parameters are locals
	SymbolSpecial                    // NR, NF, FS and friends
	SymbolFunction                   // user-defined function
)

var kindNames = [...]string{"global", "local", "special", "function"}

func (k SymbolKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// VarType is the inferred shape of a variable. A name starts out
// TypeUnknown and is fixed by its first scalar or array use.
type VarType uint8

const (
	TypeUnknown VarType = iota
	TypeScalar
	TypeArray
)

var typeNames = [...]string{"unknown", "scalar", "array"}

func (t VarType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "invalid"
}

// Symbol is one named variable.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Type  VarType
	Index int // global scalar/array slot, or frame slot for a local
	Pos   token.Position
	Used  bool
}

// SymbolTable is a single scope. Lookups that miss fall through to the
// enclosing scope, so a function table chains to the globals.
type SymbolTable struct {
	outer *SymbolTable
	scope string
	names map[string]*Symbol
}

// NewSymbolTable returns an empty scope nested in outer, which is nil for
// the global scope.
func NewSymbolTable(outer *SymbolTable, scope string) *SymbolTable {
	return &SymbolTable{outer: outer, scope: scope, names: map[string]*Symbol{}}
}

// Define adds name to this scope with no slot assigned yet. It returns
// nil when the scope already holds name.
func (st *SymbolTable) Define(name string, kind SymbolKind, typ VarType, pos token.Position) *Symbol {
	if st.names[name] != nil {
		return nil
	}
	sym := &Symbol{Name: name, Kind: kind, Type: typ, Index: -1, Pos: pos}
	st.names[name] = sym
	return sym
}

// Lookup finds name in this scope or an enclosing one.
func (st *SymbolTable) Lookup(name string) (*Symbol, bool) {
	for s := st; s != nil; s = s.outer {
		if sym := s.names[name]; sym != nil {
			return sym, true
		}
	}
	return nil, false
}

// LookupLocal finds name in this scope only.
func (st *SymbolTable) LookupLocal(name string) (*Symbol, bool) {
	sym := st.names[name]
	return sym, sym != nil
}

// ForEach calls fn for every symbol of this scope in name order.
func (st *SymbolTable) ForEach(fn func(name string, sym *Symbol)) {
	keys := make([]string, 0, len(st.names))
	for k := range st.names {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fn(k, st.names[k])
	}
}

// FuncInfo is what the resolver knows about a user function.
type FuncInfo struct {
	Name    string
	Params  []string // frame slot order
	Symbols *SymbolTable
	Index   int // into Program.Functions
	Pos     token.Position
	Called  bool
}

// ParamTypes lists the inferred type of each parameter slot.
func (fi *FuncInfo) ParamTypes() []VarType {
	out := make([]VarType, 0, len(fi.Params))
	for _, p := range fi.Params {
		typ := TypeUnknown
		if sym, ok := fi.Symbols.LookupLocal(p); ok {
			typ = sym.Type
		}
		out = append(out, typ)
	}
	return out
}

// Special variable ids, stored in the Index of a resolved special Ident.
const (
	V_ILLEGAL = iota
	V_ARGC
	V_CONVFMT
	V_FILENAME
	V_FNR
	V_FS
	V_NF
	V_NR
	V_OFMT
	V_OFS
	V_ORS
	V_RLENGTH
	V_RS
	V_RSTART
	V_SUBSEP

	NumSpecials
)

// specialNames is indexed by special variable id.
var specialNames = [NumSpecials]string{
	V_ARGC:     "ARGC",
	V_CONVFMT:  "CONVFMT",
	V_FILENAME: "FILENAME",
	V_FNR:      "FNR",
	V_FS:       "FS",
	V_NF:       "NF",
	V_NR:       "NR",
	V_OFMT:     "OFMT",
	V_OFS:      "OFS",
	V_ORS:      "ORS",
	V_RLENGTH:  "RLENGTH",
	V_RS:       "RS",
	V_RSTART:   "RSTART",
	V_SUBSEP:   "SUBSEP",
}

var specialVars = func() map[string]int {
	m := make(map[string]int, NumSpecials)
	for id, name := range specialNames {
		if name != "" {
			m[name] = id
		}
	}
	return m
}()

// PredefinedArrays exist in every program before it runs.
var PredefinedArrays = []string{"ARGV", "ENVIRON", "HDR", "PROCINFO"}

// ReadOnlyArrays may be read but not modified.
var ReadOnlyArrays = map[string]bool{"ENVIRON": true}

// IsSpecialVar reports whether name is a special scalar.
func IsSpecialVar(name string) bool {
	return SpecialVarIndex(name) > 0
}

// SpecialVarIndex returns the id of special variable name, or -1.
func SpecialVarIndex(name string) int {
	id, ok := specialVars[name]
	if !ok {
		return -1
	}
	return id
}

// SpecialVarName is the inverse of SpecialVarIndex.
func SpecialVarName(id int) string {
	if id <= V_ILLEGAL || id >= NumSpecials {
		return ""
	}
	return specialNames[id]
}

// IsPredefinedArray reports whether name is in PredefinedArrays.
func IsPredefinedArray(name string) bool {
	return slices.Contains(PredefinedArrays, name)
}
