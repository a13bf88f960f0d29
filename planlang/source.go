package planlang

import "strings"

type Source struct {
	Name  string
	Text  string
	Lines []string
}

func NewSource(name, text string) *Source {
	return &Source{
		Name:  name,
		Text:  text,
		Lines: strings.Split(text, "\n"),
	}
}

// Pos carries both line/column for diagnostics and the byte offset used by
// the text-splicing transformer.
type Pos struct {
	Source *Source
	Offset int
	Line   int
	Column int
}
