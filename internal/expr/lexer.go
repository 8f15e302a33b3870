package expr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes expression source text.
type Lexer struct {
	input  string
	pos    int // current byte position
	line   int // 1-based
	col    int // 1-based
	tokens []Token
	errors []*ParseError
}

// NewLexer creates a lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: input,
		pos:   0,
		line:  1,
		col:   1,
	}
}

// Tokenize scans the entire input and returns all tokens plus any errors.
func (l *Lexer) Tokenize() ([]Token, []*ParseError) {
	for {
		tok := l.next()
		l.tokens = append(l.tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return l.tokens, l.errors
}

// peek returns the current rune without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

// peekAt returns the rune at offset from current position.
func (l *Lexer) peekAt(offset int) rune {
	p := l.pos + offset
	if p >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[p:])
	return r
}

// advance moves forward by one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

// skipWhitespace advances past spaces, tabs, and newlines.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r := l.peek()
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			l.advance()
		} else {
			break
		}
	}
}

// next scans and returns the next token.
func (l *Lexer) next() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos, Line: l.line, Col: l.col}
	}

	startPos := l.pos
	startLine := l.line
	startCol := l.col
	r := l.peek()

	// String literal
	if r == '"' || r == '\'' {
		return l.scanString(startPos, startLine, startCol)
	}

	// Number
	if r >= '0' && r <= '9' {
		return l.scanNumber(startPos, startLine, startCol)
	}

	// Identifier or keyword
	if isIdentStart(r) {
		return l.scanIdent(startPos, startLine, startCol)
	}

	mk := func(t TokenType, lit string) Token {
		return Token{Type: t, Literal: lit, Pos: startPos, Line: startLine, Col: startCol}
	}

	// Two-character operators
	if r == '=' && l.peekAt(1) == '=' {
		l.advance()
		l.advance()
		return mk(TokenEQ, "==")
	}
	if r == '!' && l.peekAt(1) == '=' {
		l.advance()
		l.advance()
		return mk(TokenNEQ, "!=")
	}
	if r == '>' && l.peekAt(1) == '=' {
		l.advance()
		l.advance()
		return mk(TokenGTE, ">=")
	}
	if r == '<' && l.peekAt(1) == '=' {
		l.advance()
		l.advance()
		return mk(TokenLTE, "<=")
	}
	if r == '&' && l.peekAt(1) == '&' {
		l.advance()
		l.advance()
		return mk(TokenAnd, "&&")
	}
	if r == '|' && l.peekAt(1) == '|' {
		l.advance()
		l.advance()
		return mk(TokenOr, "||")
	}

	// Single-character operators
	l.advance()
	switch r {
	case '=':
		l.errors = append(l.errors, &ParseError{
			Message:    "unexpected character '='",
			Line:       startLine,
			Col:        startCol,
			Pos:        startPos,
			Suggestion: "did you mean '=='?",
		})
		return mk(TokenEQ, "=")
	case '&':
		l.errors = append(l.errors, &ParseError{
			Message:    "unexpected character '&'",
			Line:       startLine,
			Col:        startCol,
			Pos:        startPos,
			Suggestion: "did you mean '&&'?",
		})
		return mk(TokenAnd, "&")
	case '|':
		l.errors = append(l.errors, &ParseError{
			Message:    "unexpected character '|'",
			Line:       startLine,
			Col:        startCol,
			Pos:        startPos,
			Suggestion: "did you mean '||'?",
		})
		return mk(TokenOr, "|")
	case '!':
		return mk(TokenNot, "!")
	case '>':
		return mk(TokenGT, ">")
	case '<':
		return mk(TokenLT, "<")
	case '+':
		return mk(TokenPlus, "+")
	case '-':
		return mk(TokenMinus, "-")
	case '*':
		return mk(TokenStar, "*")
	case '/':
		return mk(TokenSlash, "/")
	case '%':
		return mk(TokenPercent, "%")
	case '.':
		return mk(TokenDot, ".")
	case '(':
		return mk(TokenLParen, "(")
	case ')':
		return mk(TokenRParen, ")")
	}

	l.errors = append(l.errors, &ParseError{
		Message: "unexpected character " + string(r),
		Line:    startLine,
		Col:     startCol,
		Pos:     startPos,
	})
	return mk(TokenIdent, string(r))
}

// scanString reads a quoted string literal. The returned Literal holds the
// cooked content with escapes resolved.
func (l *Lexer) scanString(startPos, startLine, startCol int) Token {
	quote := l.advance() // consume opening quote
	var b strings.Builder
	for l.pos < len(l.input) {
		r := l.advance()
		if r == quote {
			return Token{Type: TokenString, Literal: b.String(), Pos: startPos, Line: startLine, Col: startCol}
		}
		if r == '\\' {
			next := l.advance()
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			case '\'':
				b.WriteByte('\'')
			default:
				b.WriteByte('\\')
				b.WriteRune(next)
			}
			continue
		}
		b.WriteRune(r)
	}
	l.errors = append(l.errors, &ParseError{
		Message: "unterminated string",
		Line:    startLine,
		Col:     startCol,
		Pos:     startPos,
	})
	return Token{Type: TokenString, Literal: b.String(), Pos: startPos, Line: startLine, Col: startCol}
}

// scanNumber reads an integer or float literal.
func (l *Lexer) scanNumber(startPos, startLine, startCol int) Token {
	start := l.pos
	isFloat := false
	for l.pos < len(l.input) {
		r := l.peek()
		if r >= '0' && r <= '9' || r == '_' {
			l.advance()
		} else if r == '.' && !isFloat {
			// Only consume the dot when a digit follows; a trailing dot would
			// otherwise swallow the member access operator.
			if l.peekAt(1) >= '0' && l.peekAt(1) <= '9' {
				isFloat = true
				l.advance()
			} else {
				break
			}
		} else {
			break
		}
	}
	lit := strings.ReplaceAll(l.input[start:l.pos], "_", "")
	if isFloat {
		return Token{Type: TokenFloat, Literal: lit, Pos: startPos, Line: startLine, Col: startCol}
	}
	return Token{Type: TokenInt, Literal: lit, Pos: startPos, Line: startLine, Col: startCol}
}

// scanIdent reads an identifier or keyword.
func (l *Lexer) scanIdent(startPos, startLine, startCol int) Token {
	start := l.pos
	for l.pos < len(l.input) {
		if isIdentPart(l.peek()) {
			l.advance()
		} else {
			break
		}
	}
	lit := l.input[start:l.pos]
	return Token{Type: LookupKeyword(lit), Literal: lit, Pos: startPos, Line: startLine, Col: startCol}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
