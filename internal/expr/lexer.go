package expr

import (
	"strings"
	"unicode"
)

// tokenKind enumerates lexical token categories.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokString
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokAssign
)

type token struct {
	kind tokenKind
	text string
	pos  int // Byte offset into the source, for error messages.
}

// lexer splits a predictor expression into tokens.
//
// Identifiers may contain dots so that the special ".data." binding and
// dotted hyperparameter names like "Precision_for_x" lex as single names.
// A token starting with a digit is always a number.
type lexer struct {
	src string
	off int
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// next returns the following token, advancing the lexer.
func (l *lexer) next() (token, error) {
	for l.off < len(l.src) && (l.src[l.off] == ' ' || l.src[l.off] == '\t' || l.src[l.off] == '\n' || l.src[l.off] == '\r') {
		l.off++
	}
	if l.off >= len(l.src) {
		return token{kind: tokEOF, pos: l.off}, nil
	}

	start := l.off
	ch := rune(l.src[l.off])

	switch ch {
	case '+':
		l.off++
		return token{kind: tokPlus, text: "+", pos: start}, nil
	case '-':
		l.off++
		return token{kind: tokMinus, text: "-", pos: start}, nil
	case '*':
		l.off++
		return token{kind: tokStar, text: "*", pos: start}, nil
	case '/':
		l.off++
		return token{kind: tokSlash, text: "/", pos: start}, nil
	case '^':
		l.off++
		return token{kind: tokCaret, text: "^", pos: start}, nil
	case '(':
		l.off++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case ')':
		l.off++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case '[':
		l.off++
		return token{kind: tokLBracket, text: "[", pos: start}, nil
	case ']':
		l.off++
		return token{kind: tokRBracket, text: "]", pos: start}, nil
	case ',':
		l.off++
		return token{kind: tokComma, text: ",", pos: start}, nil
	case '=':
		l.off++
		return token{kind: tokAssign, text: "=", pos: start}, nil
	case '"', '\'':
		return l.lexString(byte(ch))
	}

	if unicode.IsDigit(ch) {
		return l.lexNumber()
	}
	if isIdentStart(ch) {
		// A bare "." is not an identifier; require at least one ident rune
		// besides dots, or the canonical ".data." form.
		return l.lexIdent()
	}

	return token{}, NewEvaluationError(ErrCodeSyntax, "unexpected character %q at offset %d", ch, start)
}

func (l *lexer) lexNumber() (token, error) {
	start := l.off
	seenDot := false
	for l.off < len(l.src) {
		c := l.src[l.off]
		if c >= '0' && c <= '9' {
			l.off++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			l.off++
			continue
		}
		if (c == 'e' || c == 'E') && l.off+1 < len(l.src) {
			// Exponent part: e, e+, e- followed by digits.
			j := l.off + 1
			if l.src[j] == '+' || l.src[j] == '-' {
				j++
			}
			if j < len(l.src) && l.src[j] >= '0' && l.src[j] <= '9' {
				l.off = j
				continue
			}
		}
		break
	}
	return token{kind: tokNumber, text: l.src[start:l.off], pos: start}, nil
}

func (l *lexer) lexIdent() (token, error) {
	start := l.off
	for l.off < len(l.src) && isIdentPart(rune(l.src[l.off])) {
		l.off++
	}
	text := l.src[start:l.off]
	if strings.Trim(text, ".") == "" {
		return token{}, NewEvaluationError(ErrCodeSyntax, "bare %q is not a name (offset %d)", text, start)
	}
	return token{kind: tokIdent, text: text, pos: start}, nil
}

func (l *lexer) lexString(quote byte) (token, error) {
	start := l.off
	l.off++ // Opening quote.
	var b strings.Builder
	for l.off < len(l.src) {
		c := l.src[l.off]
		if c == quote {
			l.off++
			return token{kind: tokString, text: b.String(), pos: start}, nil
		}
		b.WriteByte(c)
		l.off++
	}
	return token{}, NewEvaluationError(ErrCodeSyntax, "unterminated string at offset %d", start)
}
