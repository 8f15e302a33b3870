package expr

import (
	"fmt"

	"facet-generator/internal/common"
)

// Parse parses a single expression from source text. The whole input must be
// consumed; trailing tokens are an error. The returned error, if any, is a
// *ParseError carrying position information.
func Parse(input string) (Expr, error) {
	tokens, lexErrs := NewLexer(input).Tokenize()
	if err, ok := common.First(lexErrs); ok {
		return nil, err
	}

	p := &parser{tokens: tokens}

	e := p.parseExpr()
	if err, ok := common.First(p.errors); ok {
		return nil, err
	}

	if !p.atEnd() {
		tok := p.peek()
		return nil, newParseErrorf(tok, "unexpected %s after expression", tok.Type)
	}

	return e, nil
}

// MustParse parses an expression and panics on error. Intended for tests and
// for expressions already validated during rule compilation.
func MustParse(input string) Expr {
	e, err := Parse(input)
	if err != nil {
		panic(fmt.Sprintf("expr: MustParse(%q): %v", input, err))
	}

	return e
}

// parser implements a recursive descent parser over the token stream.
// Precedence, loosest to tightest: || < && < comparisons < additive <
// multiplicative < unary.
type parser struct {
	tokens []Token
	pos    int
	errors []*ParseError
}

func (p *parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) advance() Token {
	tok := p.peek()
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) atEnd() bool {
	return p.peek().Type == TokenEOF
}

func (p *parser) check(t TokenType) bool {
	return p.peek().Type == t
}

func (p *parser) match(types ...TokenType) (Token, bool) {
	for _, t := range types {
		if p.check(t) {
			return p.advance(), true
		}
	}
	return Token{}, false
}

func (p *parser) expect(t TokenType) (Token, bool) {
	if p.check(t) {
		return p.advance(), true
	}
	tok := p.peek()
	p.addError(tok, fmt.Sprintf("expected %s, got %s", t, tok.Type))
	return tok, false
}

func (p *parser) addError(tok Token, msg string) {
	p.errors = append(p.errors, newParseError(tok, msg))
}

func (p *parser) parseExpr() Expr {
	return p.parseOr()
}

func (p *parser) parseOr() Expr {
	left := p.parseAnd()
	if left == nil {
		return nil
	}
	for p.check(TokenOr) {
		opTok := p.advance()
		right := p.parseAnd()
		if right == nil {
			return left
		}
		left = &Binary{TokenPos: opTok.Pos, Op: OpOr, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseAnd() Expr {
	left := p.parseComparison()
	if left == nil {
		return nil
	}
	for p.check(TokenAnd) {
		opTok := p.advance()
		right := p.parseComparison()
		if right == nil {
			return left
		}
		left = &Binary{TokenPos: opTok.Pos, Op: OpAnd, Left: left, Right: right}
	}
	return left
}

var comparisonOps = map[TokenType]BinaryOp{
	TokenEQ:  OpEQ,
	TokenNEQ: OpNEQ,
	TokenLT:  OpLT,
	TokenLTE: OpLTE,
	TokenGT:  OpGT,
	TokenGTE: OpGTE,
}

func (p *parser) parseComparison() Expr {
	left := p.parseAdditive()
	if left == nil {
		return nil
	}
	for {
		op, ok := comparisonOps[p.peek().Type]
		if !ok {
			return left
		}
		opTok := p.advance()
		right := p.parseAdditive()
		if right == nil {
			return left
		}
		left = &Binary{TokenPos: opTok.Pos, Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseAdditive() Expr {
	left := p.parseMultiplicative()
	if left == nil {
		return nil
	}
	for {
		var op BinaryOp
		switch p.peek().Type {
		case TokenPlus:
			op = OpAdd
		case TokenMinus:
			op = OpSub
		default:
			return left
		}
		opTok := p.advance()
		right := p.parseMultiplicative()
		if right == nil {
			return left
		}
		left = &Binary{TokenPos: opTok.Pos, Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() Expr {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for {
		var op BinaryOp
		switch p.peek().Type {
		case TokenStar:
			op = OpMul
		case TokenSlash:
			op = OpDiv
		case TokenPercent:
			op = OpMod
		default:
			return left
		}
		opTok := p.advance()
		right := p.parseUnary()
		if right == nil {
			return left
		}
		left = &Binary{TokenPos: opTok.Pos, Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() Expr {
	if tok, ok := p.match(TokenNot); ok {
		x := p.parseUnary()
		if x == nil {
			return nil
		}
		return &Unary{TokenPos: tok.Pos, Op: OpNot, X: x}
	}

	if tok, ok := p.match(TokenMinus); ok {
		x := p.parseUnary()
		if x == nil {
			return nil
		}
		return &Unary{TokenPos: tok.Pos, Op: OpNeg, X: x}
	}

	return p.parsePrimary()
}

func (p *parser) parsePrimary() Expr {
	tok := p.peek()

	switch tok.Type {
	case TokenLParen:
		p.advance()
		inner := p.parseExpr()
		p.expect(TokenRParen)
		if inner == nil {
			return nil
		}
		return &Paren{TokenPos: tok.Pos, X: inner}

	case TokenString:
		p.advance()
		return &Literal{TokenPos: tok.Pos, Type: LitString, Raw: tok.Literal}

	case TokenInt:
		p.advance()
		return &Literal{TokenPos: tok.Pos, Type: LitInt, Raw: tok.Literal}

	case TokenFloat:
		p.advance()
		return &Literal{TokenPos: tok.Pos, Type: LitFloat, Raw: tok.Literal}

	case TokenBool:
		p.advance()
		return &Literal{TokenPos: tok.Pos, Type: LitBool, Raw: tok.Literal}

	case TokenNull:
		p.advance()
		// "nil" is accepted on input but normalized for display.
		return &Literal{TokenPos: tok.Pos, Type: LitNull, Raw: "null"}

	case TokenIdent:
		return p.parsePath()

	default:
		p.addError(tok, fmt.Sprintf("expected expression, got %s", tok.Type))
		p.advance()
		return nil
	}
}

func (p *parser) parsePath() Expr {
	first, _ := p.expect(TokenIdent)
	path := &Path{TokenPos: first.Pos, Segments: []string{first.Literal}}

	for p.check(TokenDot) {
		p.advance()
		seg, ok := p.expect(TokenIdent)
		if !ok {
			return path
		}
		path.Segments = append(path.Segments, seg.Literal)
	}

	return path
}
