package planlang

import "testing"

func tokenize(t *testing.T, src string) []Token {
	t.Helper()
	toks, err := Tokenize(NewSource("test", src))
	if err != nil {
		t.Fatal(err)
	}
	return toks
}

func TestTokenizeBasics(t *testing.T) {
	toks := tokenize(t, `let x = 1.5; // comment
/* block
comment */ call($arg_1)`)
	var texts []string
	for _, tok := range toks {
		if tok.Kind == TokenEOF {
			break
		}
		texts = append(texts, tok.Text)
	}
	want := []string{"let", "x", "=", "1.5", ";", "call", "(", "$arg_1", ")"}
	if len(texts) != len(want) {
		t.Fatalf("got %v, want %v", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, texts[i], want[i])
		}
	}
}

func TestTokenizeMaximalMunch(t *testing.T) {
	toks := tokenize(t, `a === b => c >= d`)
	var puncts []string
	for _, tok := range toks {
		if tok.Kind == TokenPunct {
			puncts = append(puncts, tok.Text)
		}
	}
	want := []string{"===", "=>", ">="}
	for i := range want {
		if i >= len(puncts) || puncts[i] != want[i] {
			t.Fatalf("puncts = %v, want %v", puncts, want)
		}
	}
}

func TestTokenizeStrings(t *testing.T) {
	toks := tokenize(t, `"a\nb" 'it\'s' `+"`raw\\n`")
	if toks[0].Value != "a\nb" {
		t.Errorf("double quoted = %q", toks[0].Value)
	}
	if toks[1].Value != "it's" {
		t.Errorf("single quoted = %q", toks[1].Value)
	}
	if toks[2].Value != `raw\n` {
		t.Errorf("raw = %q", toks[2].Value)
	}
}

func TestTokenizePositions(t *testing.T) {
	src := "let a = 1\nlet b = 2"
	toks := tokenize(t, src)
	// second "let" starts line 2
	tok := toks[4]
	if tok.Text != "let" || tok.Pos.Line != 2 || tok.Pos.Column != 1 {
		t.Errorf("tok = %+v", tok)
	}
	// byte offsets index straight into the source text
	if src[tok.Pos.Offset:tok.Pos.Offset+3] != "let" {
		t.Errorf("offset = %d", tok.Pos.Offset)
	}
}

func TestTokenizeErrors(t *testing.T) {
	for _, src := range []string{
		`"open`,
		"`open",
		`@`,
	} {
		if _, err := Tokenize(NewSource("test", src)); err == nil {
			t.Errorf("no error for %q", src)
		}
	}
}
