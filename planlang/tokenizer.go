package planlang

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

type Tokenizer struct {
	source *Source
	offset int
	line   int
	column int
}

func NewTokenizer(source *Source) *Tokenizer {
	return &Tokenizer{
		source: source,
		line:   1,
		column: 1,
	}
}

// Tokenize consumes the whole source. The parser works on the full slice so
// it can look ahead freely (arrow function detection needs it).
func Tokenize(source *Source) ([]Token, error) {
	t := NewTokenizer(source)
	var tokens []Token
	for {
		token, err := t.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
		if token.Kind == TokenEOF {
			return tokens, nil
		}
	}
}

// puncts longest-first so multi-rune operators win over their prefixes.
var puncts = []string{
	"===", "!==",
	"=>", "==", "!=", "<=", ">=", "&&", "||",
	"+=", "-=", "*=", "/=", "%=",
	"+", "-", "*", "/", "%", "<", ">", "=", "!",
	"(", ")", "[", "]", "{", "}",
	",", ";", ":", ".", "?",
}

func (t *Tokenizer) pos() Pos {
	return Pos{
		Source: t.source,
		Offset: t.offset,
		Line:   t.line,
		Column: t.column,
	}
}

func (t *Tokenizer) peekRune() (rune, int) {
	if t.offset >= len(t.source.Text) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(t.source.Text[t.offset:])
}

func (t *Tokenizer) advance(size int) {
	for i := 0; i < size; {
		r, n := utf8.DecodeRuneInString(t.source.Text[t.offset+i:])
		if r == '\n' {
			t.line++
			t.column = 1
		} else {
			t.column++
		}
		i += n
	}
	t.offset += size
}

func (t *Tokenizer) Next() (Token, error) {
	t.skipSpaceAndComments()
	start := t.pos()

	r, size := t.peekRune()
	if size == 0 {
		return Token{Kind: TokenEOF, Pos: start}, nil
	}

	switch {

	case unicode.IsLetter(r) || r == '_' || r == '$':
		return t.scanIdentifier(start), nil

	case unicode.IsDigit(r):
		return t.scanNumber(start), nil

	case r == '"' || r == '\'':
		return t.scanString(start, r)

	case r == '`':
		return t.scanRawString(start)
	}

	rest := t.source.Text[t.offset:]
	for _, p := range puncts {
		if len(rest) >= len(p) && rest[:len(p)] == p {
			t.advance(len(p))
			return Token{Kind: TokenPunct, Text: p, Pos: start}, nil
		}
	}

	return Token{}, WithPos(fmt.Errorf("unexpected character %q", r), start)
}

func (t *Tokenizer) skipSpaceAndComments() {
	for {
		r, size := t.peekRune()
		if size == 0 {
			return
		}
		if unicode.IsSpace(r) {
			t.advance(size)
			continue
		}
		rest := t.source.Text[t.offset:]
		if len(rest) >= 2 && rest[:2] == "//" {
			for {
				r, size := t.peekRune()
				if size == 0 || r == '\n' {
					break
				}
				t.advance(size)
			}
			continue
		}
		if len(rest) >= 2 && rest[:2] == "/*" {
			t.advance(2)
			for {
				r, size := t.peekRune()
				if size == 0 {
					return
				}
				if r == '*' && t.offset+1 < len(t.source.Text) && t.source.Text[t.offset+1] == '/' {
					t.advance(2)
					break
				}
				_ = r
				t.advance(size)
			}
			continue
		}
		return
	}
}

func (t *Tokenizer) scanIdentifier(start Pos) Token {
	for {
		r, size := t.peekRune()
		if size == 0 {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$' {
			t.advance(size)
			continue
		}
		break
	}
	return Token{
		Kind: TokenIdentifier,
		Text: t.source.Text[start.Offset:t.offset],
		Pos:  start,
	}
}

func (t *Tokenizer) scanNumber(start Pos) Token {
	seenDot := false
	seenExp := false
	for {
		r, size := t.peekRune()
		if size == 0 {
			break
		}
		if unicode.IsDigit(r) {
			t.advance(size)
			continue
		}
		if r == '.' && !seenDot && !seenExp {
			seenDot = true
			t.advance(size)
			continue
		}
		if (r == 'e' || r == 'E') && !seenExp {
			seenExp = true
			t.advance(size)
			if next, nsize := t.peekRune(); next == '+' || next == '-' {
				t.advance(nsize)
			}
			continue
		}
		break
	}
	return Token{
		Kind: TokenNumber,
		Text: t.source.Text[start.Offset:t.offset],
		Pos:  start,
	}
}

func (t *Tokenizer) scanString(start Pos, quote rune) (Token, error) {
	t.advance(1)
	var buf []rune
	for {
		r, size := t.peekRune()
		if size == 0 {
			return Token{}, WithPos(fmt.Errorf("unterminated string"), start)
		}
		if r == quote {
			t.advance(size)
			break
		}
		if r == '\\' {
			t.advance(size)
			esc, escSize := t.peekRune()
			if escSize == 0 {
				return Token{}, WithPos(fmt.Errorf("unterminated string"), start)
			}
			t.advance(escSize)
			switch esc {
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			case '\\', '\'', '"', '`':
				buf = append(buf, esc)
			default:
				buf = append(buf, '\\', esc)
			}
			continue
		}
		t.advance(size)
		buf = append(buf, r)
	}
	return Token{
		Kind:  TokenString,
		Text:  t.source.Text[start.Offset:t.offset],
		Value: string(buf),
		Pos:   start,
	}, nil
}

// scanRawString scans a backtick string. No escapes, no interpolation: the
// content between the backticks is the value, verbatim.
func (t *Tokenizer) scanRawString(start Pos) (Token, error) {
	t.advance(1)
	for {
		r, size := t.peekRune()
		if size == 0 {
			return Token{}, WithPos(fmt.Errorf("unterminated raw string"), start)
		}
		t.advance(size)
		if r == '`' {
			break
		}
	}
	text := t.source.Text[start.Offset:t.offset]
	return Token{
		Kind:  TokenString,
		Text:  text,
		Value: text[1 : len(text)-1],
		Pos:   start,
	}, nil
}
