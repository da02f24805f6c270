package syntax

// TokenKind classifies a token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenIllegal
	TokenIdent
	TokenInt
	TokenFloat
	TokenText
	TokenIndex // # or #name; Lexeme holds the name

	TokenTrue
	TokenFalse
	TokenNull
	TokenAnd
	TokenOr
	TokenXor
	TokenNot

	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenLBrace
	TokenRBrace
	TokenComma
	TokenColon
	TokenDot
	TokenArrow
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenAmp
	TokenPlusPlus
	TokenEq
	TokenNe
	TokenLt
	TokenLe
	TokenGt
	TokenGe
)

var keywords = map[string]TokenKind{
	"true":  TokenTrue,
	"false": TokenFalse,
	"null":  TokenNull,
	"and":   TokenAnd,
	"or":    TokenOr,
	"xor":   TokenXor,
	"not":   TokenNot,
}

// Token is one lexeme with its source range.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Range  Range
}

// Lex splits src into tokens. The last token is always TokenEOF. Characters
// that start no token become TokenIllegal; the parser reports them.
func Lex(src string) []Token {
	lx := &lexer{input: src}
	for {
		lx.skipSpaceAndComments()
		start := lx.pos
		if lx.pos >= len(lx.input) {
			lx.emit(TokenEOF, "", start)
			break
		}
		ch := lx.peek()
		switch {
		case isIdentStart(ch):
			lx.lexIdent()
		case isDigit(ch):
			lx.lexNumber()
		case ch == '"':
			lx.lexText()
		case ch == '#':
			lx.pos++
			for lx.pos < len(lx.input) && isIdentContinue(lx.input[lx.pos]) {
				lx.pos++
			}
			lx.emit(TokenIndex, lx.input[start+1:lx.pos], start)
		default:
			lx.lexPunct()
		}
	}
	return lx.tokens
}

type lexer struct {
	input  string
	pos    int
	tokens []Token
}

func (lx *lexer) peek() byte { return lx.input[lx.pos] }

func (lx *lexer) peekAt(off int) byte {
	if lx.pos+off < len(lx.input) {
		return lx.input[lx.pos+off]
	}
	return 0
}

func (lx *lexer) emit(k TokenKind, lex string, start int) {
	lx.tokens = append(lx.tokens, Token{Kind: k, Lexeme: lex, Range: Range{Start: start, End: lx.pos}})
}

func (lx *lexer) skipSpaceAndComments() {
	for lx.pos < len(lx.input) {
		ch := lx.input[lx.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			lx.pos++
			continue
		}
		// line comment
		if ch == '/' && lx.peekAt(1) == '/' {
			for lx.pos < len(lx.input) && lx.input[lx.pos] != '\n' {
				lx.pos++
			}
			continue
		}
		return
	}
}

func (lx *lexer) lexIdent() {
	start := lx.pos
	lx.pos++
	for lx.pos < len(lx.input) && isIdentContinue(lx.input[lx.pos]) {
		lx.pos++
	}
	lex := lx.input[start:lx.pos]
	if k, ok := keywords[lex]; ok {
		lx.emit(k, lex, start)
		return
	}
	lx.emit(TokenIdent, lex, start)
}

func (lx *lexer) lexNumber() {
	start := lx.pos
	kind := TokenInt
	for lx.pos < len(lx.input) && (isDigit(lx.input[lx.pos]) || lx.input[lx.pos] == '_') {
		lx.pos++
	}
	if lx.pos < len(lx.input) && lx.input[lx.pos] == '.' && isDigit(lx.peekAt(1)) {
		kind = TokenFloat
		lx.pos++
		for lx.pos < len(lx.input) && isDigit(lx.input[lx.pos]) {
			lx.pos++
		}
	}
	if lx.pos < len(lx.input) && (lx.input[lx.pos] == 'e' || lx.input[lx.pos] == 'E') {
		off := 1
		if c := lx.peekAt(1); c == '+' || c == '-' {
			off = 2
		}
		if isDigit(lx.peekAt(off)) {
			kind = TokenFloat
			lx.pos += off
			for lx.pos < len(lx.input) && isDigit(lx.input[lx.pos]) {
				lx.pos++
			}
		}
	}
	lx.emit(kind, lx.input[start:lx.pos], start)
}

func (lx *lexer) lexText() {
	start := lx.pos
	lx.pos++ // opening quote
	for lx.pos < len(lx.input) {
		switch lx.input[lx.pos] {
		case '\\':
			lx.pos += 2
			continue
		case '"':
			lx.pos++
			lx.emit(TokenText, lx.input[start:lx.pos], start)
			return
		case '\n':
			lx.emit(TokenIllegal, lx.input[start:lx.pos], start)
			return
		}
		lx.pos++
	}
	lx.pos = len(lx.input)
	lx.emit(TokenIllegal, lx.input[start:], start)
}

var twoCharOps = map[string]TokenKind{
	"->": TokenArrow,
	"++": TokenPlusPlus,
	"!=": TokenNe,
	"<=": TokenLe,
	">=": TokenGe,
}

var oneCharOps = map[byte]TokenKind{
	'(': TokenLParen,
	')': TokenRParen,
	'[': TokenLBracket,
	']': TokenRBracket,
	'{': TokenLBrace,
	'}': TokenRBrace,
	',': TokenComma,
	':': TokenColon,
	'.': TokenDot,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'&': TokenAmp,
	'=': TokenEq,
	'<': TokenLt,
	'>': TokenGt,
}

func (lx *lexer) lexPunct() {
	start := lx.pos
	if lx.pos+2 <= len(lx.input) {
		if k, ok := twoCharOps[lx.input[lx.pos:lx.pos+2]]; ok {
			lx.pos += 2
			lx.emit(k, lx.input[start:lx.pos], start)
			return
		}
	}
	ch := lx.peek()
	lx.pos++
	if k, ok := oneCharOps[ch]; ok {
		lx.emit(k, string(ch), start)
		return
	}
	lx.emit(TokenIllegal, string(ch), start)
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentContinue(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

// IsIdentifier reports whether s is a single identifier that is not a
// keyword.
func IsIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentContinue(s[i]) {
			return false
		}
	}
	_, kw := keywords[s]
	return !kw
}
