package planlang

type Token struct {
	Kind  TokenKind
	Text  string
	Value string // decoded value for string tokens
	Pos   Pos
}

type TokenKind uint8

const (
	TokenInvalid TokenKind = iota
	TokenEOF
	TokenIdentifier
	TokenNumber
	TokenString
	TokenPunct
)

func (t Token) is(kind TokenKind, text string) bool {
	return t.Kind == kind && t.Text == text
}
