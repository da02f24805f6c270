package syntax

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Error is a parse error at a source range.
type Error struct {
	Range   Range
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Range.Start, e.Message)
}

// ErrorList collects every parse error of one input.
type ErrorList []*Error

func (l ErrorList) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Binding powers, loosest first.
const (
	precOr = iota + 1
	precAnd
	precCompare
	precConcat
	precAdd
	precMul
	precUnary
)

// Parse parses a single expression. On failure the returned tree is still
// complete, with placeholders where input was unusable, and the error is an
// ErrorList.
func Parse(src string) (Node, error) {
	p := &parser{toks: Lex(src)}
	n := p.parseExpr(precOr)
	if !p.at(TokenEOF) {
		p.errorHere("unexpected %q after expression", p.peek().Lexeme)
	}
	if len(p.errs) > 0 {
		return n, p.errs
	}
	return n, nil
}

// MustParse is Parse that panics on error. For tests and fixed inputs.
func MustParse(src string) Node {
	n, err := Parse(src)
	if err != nil {
		panic(fmt.Sprintf("syntax.MustParse(%q): %v", src, err))
	}
	return n
}

type parser struct {
	toks []Token
	pos  int
	errs ErrorList
}

func (p *parser) parseExpr(minPrec int) Node {
	left := p.parsePrefix()
	for {
		tok := p.peek()
		op, prec := infix(tok.Kind)
		if prec < minPrec {
			return left
		}
		p.advance()
		if prec == precCompare {
			left = p.parseChain(left, op)
			continue
		}
		right := p.parseExpr(prec + 1)
		left = &Binary{node: newNode(rangeOf(left).Join(rangeOf(right))), Op: op, Left: left, Right: right}
	}
}

// parseChain parses the rest of a comparison chain whose first operator has
// been consumed.
func (p *parser) parseChain(first Node, op string) Node {
	ops := []string{op}
	args := []Node{first, p.parseExpr(precCompare + 1)}
	for {
		next, prec := infix(p.peek().Kind)
		if prec != precCompare {
			break
		}
		p.advance()
		ops = append(ops, next)
		args = append(args, p.parseExpr(precCompare+1))
	}
	r := rangeOf(first).Join(rangeOf(args[len(args)-1]))
	return &Compare{node: newNode(r), Ops: ops, Args: args}
}

func infix(k TokenKind) (op string, prec int) {
	switch k {
	case TokenOr:
		return "or", precOr
	case TokenXor:
		return "xor", precOr
	case TokenAnd:
		return "and", precAnd
	case TokenEq:
		return "=", precCompare
	case TokenNe:
		return "!=", precCompare
	case TokenLt:
		return "<", precCompare
	case TokenLe:
		return "<=", precCompare
	case TokenGt:
		return ">", precCompare
	case TokenGe:
		return ">=", precCompare
	case TokenAmp:
		return "&", precConcat
	case TokenPlusPlus:
		return "++", precConcat
	case TokenPlus:
		return "+", precAdd
	case TokenMinus:
		return "-", precAdd
	case TokenStar:
		return "*", precMul
	case TokenSlash:
		return "/", precMul
	}
	return "", -1
}

func (p *parser) parsePrefix() Node {
	tok := p.peek()
	switch tok.Kind {
	case TokenMinus:
		p.advance()
		arg := p.parseExpr(precUnary)
		return &Unary{node: newNode(tok.Range.Join(rangeOf(arg))), Op: "-", Arg: arg}
	case TokenNot:
		p.advance()
		arg := p.parseExpr(precCompare)
		return &Unary{node: newNode(tok.Range.Join(rangeOf(arg))), Op: "not", Arg: arg}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *parser) parsePrimary() Node {
	tok := p.peek()
	switch tok.Kind {
	case TokenInt:
		p.advance()
		v, ok := new(big.Int).SetString(strings.ReplaceAll(tok.Lexeme, "_", ""), 10)
		if !ok {
			p.errorAt(tok.Range, "malformed integer %q", tok.Lexeme)
			v = new(big.Int)
		}
		return &IntLit{node: newNode(tok.Range), Value: v}
	case TokenFloat:
		p.advance()
		v, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.errorAt(tok.Range, "malformed number %q", tok.Lexeme)
		}
		return &FloatLit{node: newNode(tok.Range), Value: v}
	case TokenText:
		p.advance()
		v, err := strconv.Unquote(tok.Lexeme)
		if err != nil {
			p.errorAt(tok.Range, "malformed text literal %s", tok.Lexeme)
		}
		return &TextLit{node: newNode(tok.Range), Value: v}
	case TokenTrue, TokenFalse:
		p.advance()
		return &BoolLit{node: newNode(tok.Range), Value: tok.Kind == TokenTrue}
	case TokenNull:
		p.advance()
		return &NullLit{node: newNode(tok.Range)}
	case TokenIdent:
		p.advance()
		return &Name{node: newNode(tok.Range), Parts: []string{tok.Lexeme}}
	case TokenIndex:
		p.advance()
		return &IndexRef{node: newNode(tok.Range), Name: tok.Lexeme}
	case TokenLParen:
		return p.parseParen()
	case TokenLBracket:
		p.advance()
		items, end := p.parseList(TokenRBracket)
		return &SequenceLit{node: newNode(tok.Range.Join(end)), Items: items}
	case TokenLBrace:
		return p.parseRecord()
	case TokenIllegal:
		p.advance()
		p.errorAt(tok.Range, "illegal token %q", tok.Lexeme)
		return &NullLit{node: newNode(tok.Range)}
	}
	p.errorHere("expected expression")
	p.advance()
	return &NullLit{node: newNode(tok.Range)}
}

// parseParen parses a parenthesized expression or a tuple literal. A tuple
// with one item needs a trailing comma: (a,).
func (p *parser) parseParen() Node {
	open := p.advance()
	if p.at(TokenRParen) {
		end := p.advance()
		return &TupleLit{node: newNode(open.Range.Join(end.Range))}
	}
	first := p.parseExpr(precOr)
	if !p.at(TokenComma) {
		p.expect(TokenRParen, "expected `)`")
		return first
	}
	items := []Node{first}
	for p.match(TokenComma) {
		if p.at(TokenRParen) {
			break
		}
		items = append(items, p.parseExpr(precOr))
	}
	end := p.expect(TokenRParen, "expected `)`")
	return &TupleLit{node: newNode(open.Range.Join(end.Range)), Items: items}
}

func (p *parser) parseRecord() Node {
	open := p.advance()
	var fields []FieldInit
	for !p.at(TokenRBrace) && !p.at(TokenEOF) {
		name := p.expect(TokenIdent, "expected field name")
		p.expect(TokenColon, "expected `:` after field name")
		fields = append(fields, FieldInit{Name: name.Lexeme, Value: p.parseExpr(precOr)})
		if !p.match(TokenComma) {
			break
		}
	}
	end := p.expect(TokenRBrace, "expected `}`")
	return &RecordLit{node: newNode(open.Range.Join(end.Range)), Fields: fields}
}

// parseList parses comma separated expressions up to and including the
// closing token.
func (p *parser) parseList(closing TokenKind) ([]Node, Range) {
	var items []Node
	for !p.at(closing) && !p.at(TokenEOF) {
		items = append(items, p.parseExpr(precOr))
		if !p.match(TokenComma) {
			break
		}
	}
	end := p.expect(closing, "expected closing bracket")
	return items, end.Range
}

func (p *parser) parsePostfix(n Node) Node {
	for {
		switch {
		case p.at(TokenDot):
			p.advance()
			id := p.expect(TokenIdent, "expected identifier after `.`")
			r := rangeOf(n).Join(id.Range)
			if nm, ok := n.(*Name); ok {
				parts := append(append([]string(nil), nm.Parts...), id.Lexeme)
				n = &Name{node: newNode(r), Parts: parts}
			} else {
				n = &Field{node: newNode(r), Record: n, Name: id.Lexeme}
			}
		case p.at(TokenLParen):
			nm, ok := n.(*Name)
			if !ok {
				p.errorHere("only named operators can be called")
				return n
			}
			p.advance()
			args, end := p.parseArgs()
			n = &Call{
				node:      newNode(rangeOf(n).Join(end)),
				Path:      nm.Path(),
				PathRange: rangeOf(nm),
				Args:      args,
			}
		case p.at(TokenArrow):
			p.advance()
			n = p.parsePipe(n)
		case p.at(TokenLBracket):
			p.advance()
			indices, end := p.parseList(TokenRBracket)
			n = &Index{node: newNode(rangeOf(n).Join(end)), Tensor: n, Indices: indices}
		default:
			return n
		}
	}
}

// parsePipe parses F(args) after recv->, producing F(recv, args).
func (p *parser) parsePipe(recv Node) Node {
	first := p.expect(TokenIdent, "expected operator name after `->`")
	parts := []string{first.Lexeme}
	pathRange := first.Range
	for p.match(TokenDot) {
		id := p.expect(TokenIdent, "expected identifier after `.`")
		parts = append(parts, id.Lexeme)
		pathRange = pathRange.Join(id.Range)
	}
	end := pathRange
	var args []Arg
	if p.match(TokenLParen) {
		args, end = p.parseArgs()
	}
	return &Call{
		node:      newNode(rangeOf(recv).Join(end)),
		Path:      strings.Join(parts, "."),
		PathRange: pathRange,
		Args:      append([]Arg{{Value: recv}}, args...),
		Pipe:      true,
	}
}

// parseArgs parses call arguments after the opening parenthesis.
func (p *parser) parseArgs() ([]Arg, Range) {
	var args []Arg
	for !p.at(TokenRParen) && !p.at(TokenEOF) {
		args = append(args, p.parseArg())
		if !p.match(TokenComma) {
			break
		}
	}
	end := p.expect(TokenRParen, "expected `)`")
	return args, end.Range
}

func (p *parser) parseArg() Arg {
	var a Arg
	if p.at(TokenLBracket) && p.peekN(1).Kind == TokenIdent && p.peekN(2).Kind == TokenRBracket {
		switch dir := p.peekN(1); dir.Lexeme {
		case "with":
			a.Directive = DirectiveWith
		case "guard":
			a.Directive = DirectiveGuard
		default:
			p.errorAt(dir.Range, "unknown directive %q", dir.Lexeme)
		}
		p.pos += 3
	}
	if p.at(TokenIdent) && p.peekN(1).Kind == TokenColon {
		id := p.advance()
		p.advance()
		a.Name = id.Lexeme
		a.NameRange = id.Range
	}
	a.Value = p.parseExpr(precOr)
	return a
}

func rangeOf(n Node) Range { return n.Range() }

func (p *parser) peek() Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *parser) peekN(n int) Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) at(k TokenKind) bool { return p.peek().Kind == k }

func (p *parser) match(k TokenKind) bool {
	if p.at(k) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) advance() Token {
	t := p.peek()
	if t.Kind != TokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(k TokenKind, msg string) Token {
	if p.at(k) {
		return p.advance()
	}
	p.errorHere("%s", msg)
	return p.peek()
}

func (p *parser) errorHere(format string, args ...any) {
	p.errorAt(p.peek().Range, format, args...)
}

func (p *parser) errorAt(r Range, format string, args ...any) {
	p.errs = append(p.errs, &Error{Range: r, Message: fmt.Sprintf(format, args...)})
}
