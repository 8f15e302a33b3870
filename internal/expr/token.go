package expr

// TokenType identifies the kind of lexical token.
type TokenType int

const (
	// Literals and identifiers
	TokenEOF    TokenType = iota
	TokenIdent            // unquoted identifier (field name)
	TokenString           // "quoted string" or 'quoted string'
	TokenInt              // 123
	TokenFloat            // 1.23
	TokenBool             // true / false
	TokenNull             // null

	// Comparison operators
	TokenEQ  // ==
	TokenNEQ // !=
	TokenGT  // >
	TokenLT  // <
	TokenGTE // >=
	TokenLTE // <=

	// Logical operators
	TokenAnd // &&
	TokenOr  // ||
	TokenNot // !

	// Arithmetic operators
	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenPercent // %

	// Structure
	TokenDot    // .
	TokenLParen // (
	TokenRParen // )
)

// String returns a human-readable name for the token type.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenIdent:
		return "identifier"
	case TokenString:
		return "string"
	case TokenInt:
		return "integer"
	case TokenFloat:
		return "float"
	case TokenBool:
		return "boolean"
	case TokenNull:
		return "null"
	case TokenEQ:
		return "=="
	case TokenNEQ:
		return "!="
	case TokenGT:
		return ">"
	case TokenLT:
		return "<"
	case TokenGTE:
		return ">="
	case TokenLTE:
		return "<="
	case TokenAnd:
		return "&&"
	case TokenOr:
		return "||"
	case TokenNot:
		return "!"
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenStar:
		return "*"
	case TokenSlash:
		return "/"
	case TokenPercent:
		return "%"
	case TokenDot:
		return "."
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	default:
		return "unknown"
	}
}

// Token represents a single lexical token in an expression.
type Token struct {
	Type    TokenType
	Literal string // raw text of the token (cooked content for strings)
	Pos     int    // byte offset in source
	Line    int    // 1-based line number
	Col     int    // 1-based column number
}

// keywords maps keyword strings to their token types. Unlike field names,
// keywords are case-sensitive: Go developers expect lowercase true/false/null.
var keywords = map[string]TokenType{
	"true":  TokenBool,
	"false": TokenBool,
	"null":  TokenNull,
	"nil":   TokenNull, // accepted alias, normalized to null
}

// LookupKeyword returns the keyword token type for an identifier, or
// TokenIdent if the identifier is not a keyword.
func LookupKeyword(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdent
}
