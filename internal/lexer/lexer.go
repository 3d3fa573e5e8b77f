// Package lexer turns source text into a token stream: a direct
// byte-at-a-time scanner, not a generated one.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/arcturus-lang/armc/internal/cerrors"
	"github.com/arcturus-lang/armc/internal/token"
)

// Lex tokenizes src in full, returning cerrors.Lexical on the first
// invalid character.
func Lex(src string) ([]token.Token, error) {
	l := &lexer{src: src}
	var out []token.Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out, nil
		}
	}
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) next() (token.Token, error) {
	l.skipSpaceAndComments()
	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Offset: l.pos}, nil
	}
	start := l.pos
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])

	switch {
	case unicode.IsDigit(r):
		for l.pos < len(l.src) && unicode.IsDigit(rune(l.src[l.pos])) {
			l.pos++
		}
		return token.Token{Kind: token.Int, Text: l.src[start:l.pos], Offset: start}, nil

	case unicode.IsLetter(r) || r == '_':
		for l.pos < len(l.src) {
			c, sz := utf8.DecodeRuneInString(l.src[l.pos:])
			if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' {
				break
			}
			l.pos += sz
		}
		text := l.src[start:l.pos]
		if kind, ok := token.Lookup(text); ok {
			return token.Token{Kind: kind, Text: text, Offset: start}, nil
		}
		return token.Token{Kind: token.Ident, Text: text, Offset: start}, nil
	}

	l.pos += size
	switch r {
	case '+':
		return token.Token{Kind: token.Plus, Text: "+", Offset: start}, nil
	case '-':
		if l.peek() == '>' {
			l.pos++
			return token.Token{Kind: token.Arrow, Text: "->", Offset: start}, nil
		}
		return token.Token{Kind: token.Minus, Text: "-", Offset: start}, nil
	case '*':
		return token.Token{Kind: token.Star, Text: "*", Offset: start}, nil
	case '%':
		return token.Token{Kind: token.Percent, Text: "%", Offset: start}, nil
	case '=':
		if l.peek() == '=' {
			l.pos++
			return token.Token{Kind: token.EqEq, Text: "==", Offset: start}, nil
		}
		return token.Token{Kind: token.Eq, Text: "=", Offset: start}, nil
	case '<':
		return token.Token{Kind: token.Lt, Text: "<", Offset: start}, nil
	case '>':
		return token.Token{Kind: token.Gt, Text: ">", Offset: start}, nil
	case '&':
		return token.Token{Kind: token.Amp, Text: "&", Offset: start}, nil
	case ':':
		return token.Token{Kind: token.Colon, Text: ":", Offset: start}, nil
	case ',':
		return token.Token{Kind: token.Comma, Text: ",", Offset: start}, nil
	case ';':
		return token.Token{Kind: token.Semi, Text: ";", Offset: start}, nil
	case '.':
		return token.Token{Kind: token.Dot, Text: ".", Offset: start}, nil
	case '(':
		return token.Token{Kind: token.LParen, Text: "(", Offset: start}, nil
	case ')':
		return token.Token{Kind: token.RParen, Text: ")", Offset: start}, nil
	case '{':
		return token.Token{Kind: token.LBrace, Text: "{", Offset: start}, nil
	case '}':
		return token.Token{Kind: token.RBrace, Text: "}", Offset: start}, nil
	default:
		return token.Token{}, cerrors.NewAt(cerrors.Lexical, start, "invalid character %q", r)
	}
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		if strings.HasPrefix(l.src[l.pos:], "//") {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			l.pos++
			continue
		}
		break
	}
}
