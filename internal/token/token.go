// Package token defines the lexical tokens of the xawk language.
package token

// Token is a lexical token kind.
type Token uint8

const (
	ILLEGAL Token = iota
	EOF
	NEWLINE
	CONCAT

	operatorStart
	ADD
	ADD_ASSIGN
	SUB
	SUB_ASSIGN
	MUL
	MUL_ASSIGN
	DIV
	DIV_ASSIGN
	MOD
	MOD_ASSIGN
	POW
	POW_ASSIGN
	ASSIGN
	EQUALS
	NOT_EQUALS
	LESS
	LTE
	GREATER
	GTE
	AND
	OR
	NOT
	MATCH
	NOT_MATCH
	INCR
	DECR
	APPEND
	PIPE
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	COMMA
	SEMICOLON
	COLON
	QUESTION
	DOLLAR
	AT
	operatorEnd

	keywordStart
	BEGIN
	END
	BEGINFILE
	ENDFILE
	IF
	ELSE
	WHILE
	FOR
	DO
	BREAK
	CONTINUE
	FUNCTION
	RETURN
	DELETE
	EXIT
	NEXT
	NEXTFILE
	GETLINE
	PRINT
	PRINTF
	IN
	keywordEnd

	// POSIX builtins get their own tokens because several of them have
	// irregular call syntax (length without parens, split with a regex).
	// Extended builtins are parsed as ordinary calls and bound by name.
	builtinStart
	F_ATAN2
	F_CLOSE
	F_COS
	F_EXP
	F_FFLUSH
	F_GSUB
	F_INDEX
	F_INT
	F_LENGTH
	F_LOG
	F_MATCH
	F_RAND
	F_SIN
	F_SPLIT
	F_SPRINTF
	F_SQRT
	F_SRAND
	F_SUB
	F_SUBSTR
	F_SYSTEM
	F_TOLOWER
	F_TOUPPER
	builtinEnd

	NAME
	NUMBER
	STRING
	REGEX

	numTokens
)

var names = [numTokens]string{
	ILLEGAL: "<illegal>",
	EOF:     "EOF",
	NEWLINE: "<newline>",
	CONCAT:  "<concat>",

	ADD:        "+",
	ADD_ASSIGN: "+=",
	SUB:        "-",
	SUB_ASSIGN: "-=",
	MUL:        "*",
	MUL_ASSIGN: "*=",
	DIV:        "/",
	DIV_ASSIGN: "/=",
	MOD:        "%",
	MOD_ASSIGN: "%=",
	POW:        "^",
	POW_ASSIGN: "^=",
	ASSIGN:     "=",
	EQUALS:     "==",
	NOT_EQUALS: "!=",
	LESS:       "<",
	LTE:        "<=",
	GREATER:    ">",
	GTE:        ">=",
	AND:        "&&",
	OR:         "||",
	NOT:        "!",
	MATCH:      "~",
	NOT_MATCH:  "!~",
	INCR:       "++",
	DECR:       "--",
	APPEND:     ">>",
	PIPE:       "|",
	LPAREN:     "(",
	RPAREN:     ")",
	LBRACE:     "{",
	RBRACE:     "}",
	LBRACKET:   "[",
	RBRACKET:   "]",
	COMMA:      ",",
	SEMICOLON:  ";",
	COLON:      ":",
	QUESTION:   "?",
	DOLLAR:     "$",
	AT:         "@",

	BEGIN:     "BEGIN",
	END:       "END",
	BEGINFILE: "BEGINFILE",
	ENDFILE:   "ENDFILE",
	IF:        "if",
	ELSE:      "else",
	WHILE:     "while",
	FOR:       "for",
	DO:        "do",
	BREAK:     "break",
	CONTINUE:  "continue",
	FUNCTION:  "function",
	RETURN:    "return",
	DELETE:    "delete",
	EXIT:      "exit",
	NEXT:      "next",
	NEXTFILE:  "nextfile",
	GETLINE:   "getline",
	PRINT:     "print",
	PRINTF:    "printf",
	IN:        "in",

	F_ATAN2:   "atan2",
	F_CLOSE:   "close",
	F_COS:     "cos",
	F_EXP:     "exp",
	F_FFLUSH:  "fflush",
	F_GSUB:    "gsub",
	F_INDEX:   "index",
	F_INT:     "int",
	F_LENGTH:  "length",
	F_LOG:     "log",
	F_MATCH:   "match",
	F_RAND:    "rand",
	F_SIN:     "sin",
	F_SPLIT:   "split",
	F_SPRINTF: "sprintf",
	F_SQRT:    "sqrt",
	F_SRAND:   "srand",
	F_SUB:     "sub",
	F_SUBSTR:  "substr",
	F_SYSTEM:  "system",
	F_TOLOWER: "tolower",
	F_TOUPPER: "toupper",

	NAME:   "name",
	NUMBER: "number",
	STRING: "string",
	REGEX:  "regex",
}

// String returns the source spelling of operators and keywords, and a
// descriptive name for the other kinds.
func (t Token) String() string {
	if t < numTokens && names[t] != "" {
		return names[t]
	}
	return "<unknown>"
}

// IsOperator reports whether t is an operator or delimiter.
func (t Token) IsOperator() bool {
	return t > operatorStart && t < operatorEnd
}

// IsKeyword reports whether t is a reserved word.
func (t Token) IsKeyword() bool {
	return t > keywordStart && t < keywordEnd
}

// IsBuiltin reports whether t names a POSIX builtin function.
func (t Token) IsBuiltin() bool {
	return t > builtinStart && t < builtinEnd
}

// IsLiteral reports whether t is a name, number, string or regex.
func (t Token) IsLiteral() bool {
	return t == NAME || t == NUMBER || t == STRING || t == REGEX
}

var idents = func() map[string]Token {
	m := make(map[string]Token, int(builtinEnd-keywordStart))
	for t := keywordStart + 1; t < keywordEnd; t++ {
		m[names[t]] = t
	}
	for t := builtinStart + 1; t < builtinEnd; t++ {
		m[names[t]] = t
	}
	return m
}()

// LookupIdent maps an identifier to its keyword or builtin token, or NAME.
func LookupIdent(ident string) Token {
	if tok, ok := idents[ident]; ok {
		return tok
	}
	return NAME
}

// LookupKeyword returns the keyword token for name, or ILLEGAL.
func LookupKeyword(name string) Token {
	if tok, ok := idents[name]; ok && tok.IsKeyword() {
		return tok
	}
	return ILLEGAL
}

// LookupBuiltin returns the builtin token for name, or ILLEGAL.
func LookupBuiltin(name string) Token {
	if tok, ok := idents[name]; ok && tok.IsBuiltin() {
		return tok
	}
	return ILLEGAL
}
