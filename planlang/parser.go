package planlang

import (
	"fmt"
	"strconv"
)

type parser struct {
	toks []Token
	i    int
}

// Parse builds the syntax tree for one plan. Any error is a terminal
// transform-stage failure; no part of the plan runs after a parse error.
func Parse(name, text string) (*File, error) {
	source := NewSource(name, text)
	toks, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	p := &parser{
		toks: toks,
	}
	file := &File{}
	for {
		p.skipSemis()
		if p.cur().Kind == TokenEOF {
			break
		}
		if err := p.parseStmtInto(&file.Stmts); err != nil {
			return nil, err
		}
	}
	return file, nil
}

func (p *parser) cur() Token {
	return p.toks[p.i]
}

func (p *parser) peek(k int) Token {
	if p.i+k >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+k]
}

func (p *parser) advance() Token {
	t := p.toks[p.i]
	if p.i < len(p.toks)-1 {
		p.i++
	}
	return t
}

func (p *parser) atPunct(text string) bool {
	return p.cur().is(TokenPunct, text)
}

func (p *parser) atKeyword(name string) bool {
	return p.cur().is(TokenIdentifier, name)
}

func (p *parser) expectPunct(text string) error {
	if !p.atPunct(text) {
		return p.errorf("expected %q, got %q", text, p.cur().Text)
	}
	p.advance()
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return WithPos(fmt.Errorf(format, args...), p.cur().Pos)
}

func (p *parser) skipSemis() {
	for p.atPunct(";") {
		p.advance()
	}
}

func (p *parser) parseStmtInto(stmts *[]Stmt) error {
	switch {

	case p.atKeyword("let") || p.atKeyword("const"):
		return p.parseDeclInto(stmts)

	case p.atKeyword("if"):
		stmt, err := p.parseIf()
		if err != nil {
			return err
		}
		*stmts = append(*stmts, stmt)
		return nil

	case p.atKeyword("while"):
		stmt, err := p.parseWhile()
		if err != nil {
			return err
		}
		*stmts = append(*stmts, stmt)
		return nil

	case p.atKeyword("for"):
		stmt, err := p.parseFor()
		if err != nil {
			return err
		}
		*stmts = append(*stmts, stmt)
		return nil

	case p.atKeyword("return"):
		stmt, err := p.parseReturn()
		if err != nil {
			return err
		}
		*stmts = append(*stmts, stmt)
		return nil

	case p.atKeyword("break"):
		tok := p.advance()
		p.skipSemis()
		*stmts = append(*stmts, &BreakStmt{Pos: tok.Pos})
		return nil

	case p.atKeyword("continue"):
		tok := p.advance()
		p.skipSemis()
		*stmts = append(*stmts, &ContinueStmt{Pos: tok.Pos})
		return nil

	case p.atKeyword("function") && p.peek(1).Kind == TokenIdentifier:
		stmt, err := p.parseFuncDecl(false)
		if err != nil {
			return err
		}
		*stmts = append(*stmts, stmt)
		return nil

	case p.atKeyword("async") &&
		p.peek(1).is(TokenIdentifier, "function") &&
		p.peek(2).Kind == TokenIdentifier:
		p.advance()
		stmt, err := p.parseFuncDecl(true)
		if err != nil {
			return err
		}
		*stmts = append(*stmts, stmt)
		return nil

	case p.atPunct("{"):
		block, err := p.parseBlock()
		if err != nil {
			return err
		}
		*stmts = append(*stmts, block)
		return nil
	}

	stmt, err := p.parseExprOrAssign()
	if err != nil {
		return err
	}
	p.skipSemis()
	*stmts = append(*stmts, stmt)
	return nil
}

func (p *parser) parseDeclInto(stmts *[]Stmt) error {
	keyword := p.advance()
	for {
		if p.cur().Kind != TokenIdentifier {
			return p.errorf("expected identifier after %s", keyword.Text)
		}
		name := p.advance()
		decl := &DeclStmt{
			Pos:     keyword.Pos,
			Keyword: keyword.Text,
			Name:    name.Text,
		}
		if p.atPunct("=") {
			p.advance()
			value, err := p.parseExpr()
			if err != nil {
				return err
			}
			decl.Value = value
		}
		*stmts = append(*stmts, decl)
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	p.skipSemis()
	return nil
}

func (p *parser) parseBlock() (*BlockStmt, error) {
	lbrace := p.cur()
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	block := &BlockStmt{
		Lbrace: lbrace.Pos,
	}
	for {
		p.skipSemis()
		if p.atPunct("}") {
			block.Rbrace = p.cur().Pos
			p.advance()
			return block, nil
		}
		if p.cur().Kind == TokenEOF {
			return nil, p.errorf("unexpected end of input, missing '}'")
		}
		if err := p.parseStmtInto(&block.Stmts); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseIf() (Stmt, error) {
	tok := p.advance()
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	then, err := p.parseBlockOrSingle()
	if err != nil {
		return nil, err
	}
	stmt := &IfStmt{
		Pos:  tok.Pos,
		Cond: cond,
		Then: then,
	}
	if p.atKeyword("else") {
		p.advance()
		if p.atKeyword("if") {
			elseStmt, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			stmt.Else = elseStmt
		} else {
			elseBlock, err := p.parseBlockOrSingle()
			if err != nil {
				return nil, err
			}
			stmt.Else = elseBlock
		}
	}
	return stmt, nil
}

// parseBlockOrSingle wraps a braceless single statement into a block; only
// if/else bodies allow that, loops require braces so the guard has a place
// to splice into.
func (p *parser) parseBlockOrSingle() (*BlockStmt, error) {
	if p.atPunct("{") {
		return p.parseBlock()
	}
	block := &BlockStmt{
		Lbrace: p.cur().Pos,
	}
	if err := p.parseStmtInto(&block.Stmts); err != nil {
		return nil, err
	}
	block.Rbrace = p.cur().Pos
	return block, nil
}

func (p *parser) parseWhile() (Stmt, error) {
	tok := p.advance()
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if !p.atPunct("{") {
		return nil, p.errorf("loop body must be a block")
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{
		Pos:  tok.Pos,
		Cond: cond,
		Body: body,
	}, nil
}

func (p *parser) parseFor() (Stmt, error) {
	tok := p.advance()
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	// for (x of e) and for (let x of e)
	ofIdx := -1
	if p.cur().Kind == TokenIdentifier && p.peek(1).is(TokenIdentifier, "of") {
		ofIdx = 0
	} else if (p.atKeyword("let") || p.atKeyword("const")) &&
		p.peek(1).Kind == TokenIdentifier &&
		p.peek(2).is(TokenIdentifier, "of") {
		ofIdx = 1
	}
	if ofIdx >= 0 {
		for range ofIdx {
			p.advance()
		}
		name := p.advance()
		p.advance() // of
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		if !p.atPunct("{") {
			return nil, p.errorf("loop body must be a block")
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ForOfStmt{
			Pos:  tok.Pos,
			Name: name.Text,
			X:    x,
			Body: body,
		}, nil
	}

	stmt := &ForStmt{
		Pos: tok.Pos,
	}
	if !p.atPunct(";") {
		var init []Stmt
		if p.atKeyword("let") || p.atKeyword("const") {
			keyword := p.advance()
			if p.cur().Kind != TokenIdentifier {
				return nil, p.errorf("expected identifier after %s", keyword.Text)
			}
			name := p.advance()
			decl := &DeclStmt{
				Pos:     keyword.Pos,
				Keyword: keyword.Text,
				Name:    name.Text,
			}
			if p.atPunct("=") {
				p.advance()
				value, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				decl.Value = value
			}
			init = append(init, decl)
		} else {
			s, err := p.parseExprOrAssign()
			if err != nil {
				return nil, err
			}
			init = append(init, s)
		}
		stmt.Init = init[0]
	}
	if err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	if !p.atPunct(";") {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Cond = cond
	}
	if err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	if !p.atPunct(")") {
		post, err := p.parseExprOrAssign()
		if err != nil {
			return nil, err
		}
		stmt.Post = post
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if !p.atPunct("{") {
		return nil, p.errorf("loop body must be a block")
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	return stmt, nil
}

func (p *parser) parseReturn() (Stmt, error) {
	tok := p.advance()
	stmt := &ReturnStmt{
		Pos: tok.Pos,
	}
	// same-line expression only, otherwise a bare return
	if p.cur().Kind != TokenEOF &&
		!p.atPunct(";") && !p.atPunct("}") &&
		p.cur().Pos.Line == tok.Pos.Line {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.X = x
	}
	p.skipSemis()
	return stmt, nil
}

func (p *parser) parseFuncDecl(async bool) (Stmt, error) {
	tok := p.cur()
	fn, err := p.parseFuncLit(async)
	if err != nil {
		return nil, err
	}
	name := fn.name
	if name == "" {
		return nil, WithPos(fmt.Errorf("function declaration needs a name"), tok.Pos)
	}
	return &FuncDeclStmt{
		Pos:  tok.Pos,
		Name: name,
		Fn:   fn.lit,
	}, nil
}

func (p *parser) parseExprOrAssign() (Stmt, error) {
	tok := p.cur()
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	for _, op := range []string{"=", "+=", "-=", "*=", "/=", "%="} {
		if p.atPunct(op) {
			switch x.(type) {
			case *Ident, *MemberExpr, *IndexExpr:
			default:
				return nil, p.errorf("invalid assignment target")
			}
			p.advance()
			rhs, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return &AssignStmt{
				Pos: tok.Pos,
				LHS: x,
				Op:  op,
				RHS: rhs,
			}, nil
		}
	}
	return &ExprStmt{
		Pos: tok.Pos,
		X:   x,
	}, nil
}

func (p *parser) parseExpr() (Expr, error) {
	return p.parseTernary()
}

func (p *parser) parseTernary() (Expr, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.atPunct("?") {
		return cond, nil
	}
	tok := p.advance()
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	elseExpr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &CondExpr{
		Pos:  tok.Pos,
		Cond: cond,
		Then: then,
		Else: elseExpr,
	}, nil
}

func (p *parser) parseBinary(ops []string, sub func() (Expr, error)) (Expr, error) {
	x, err := sub()
	if err != nil {
		return nil, err
	}
	for {
		matched := ""
		for _, op := range ops {
			if p.atPunct(op) {
				matched = op
				break
			}
		}
		if matched == "" {
			return x, nil
		}
		tok := p.advance()
		y, err := sub()
		if err != nil {
			return nil, err
		}
		x = &BinaryExpr{
			Pos: tok.Pos,
			Op:  matched,
			X:   x,
			Y:   y,
		}
	}
}

func (p *parser) parseOr() (Expr, error) {
	return p.parseBinary([]string{"||"}, p.parseAnd)
}

func (p *parser) parseAnd() (Expr, error) {
	return p.parseBinary([]string{"&&"}, p.parseEquality)
}

func (p *parser) parseEquality() (Expr, error) {
	return p.parseBinary([]string{"===", "!==", "==", "!="}, p.parseRelational)
}

func (p *parser) parseRelational() (Expr, error) {
	return p.parseBinary([]string{"<=", ">=", "<", ">"}, p.parseAdditive)
}

func (p *parser) parseAdditive() (Expr, error) {
	return p.parseBinary([]string{"+", "-"}, p.parseMultiplicative)
}

func (p *parser) parseMultiplicative() (Expr, error) {
	return p.parseBinary([]string{"*", "/", "%"}, p.parseUnary)
}

func (p *parser) parseUnary() (Expr, error) {
	if p.atKeyword("await") {
		tok := p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &AwaitExpr{
			Pos: tok.Pos,
			X:   x,
		}, nil
	}
	if p.atPunct("!") || p.atPunct("-") {
		tok := p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{
			Pos: tok.Pos,
			Op:  tok.Text,
			X:   x,
		}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	start := exprPos(x)
	for {
		switch {

		case p.atPunct("("):
			p.advance()
			call := &CallExpr{
				Pos: start,
				Fun: x,
			}
			for !p.atPunct(")") {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				call.Args = append(call.Args, arg)
				if p.atPunct(",") {
					p.advance()
					continue
				}
				break
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			x = call

		case p.atPunct("."):
			p.advance()
			if p.cur().Kind != TokenIdentifier {
				return nil, p.errorf("expected field name after '.'")
			}
			name := p.advance()
			x = &MemberExpr{
				Pos:  start,
				X:    x,
				Name: name.Text,
			}

		case p.atPunct("["):
			p.advance()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			x = &IndexExpr{
				Pos:   start,
				X:     x,
				Index: index,
			}

		default:
			return x, nil
		}
	}
}

type namedFuncLit struct {
	name string
	lit  *FuncLit
}

// parseFuncLit parses "function [name] (params) { ... }", optionally already
// marked async by the caller (whose token position is then the start).
func (p *parser) parseFuncLit(async bool) (*namedFuncLit, error) {
	start := p.cur().Pos
	p.advance() // function
	name := ""
	if p.cur().Kind == TokenIdentifier {
		name = p.advance().Text
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if !p.atPunct("{") {
		return nil, p.errorf("expected function body")
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &namedFuncLit{
		name: name,
		lit: &FuncLit{
			Pos:    start,
			Async:  async,
			Params: params,
			Body:   body,
		},
	}, nil
}

func (p *parser) parseParams() ([]string, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var params []string
	for !p.atPunct(")") {
		if p.cur().Kind != TokenIdentifier {
			return nil, p.errorf("expected parameter name")
		}
		params = append(params, p.advance().Text)
		if p.atPunct(",") {
			p.advance()
		}
	}
	p.advance()
	return params, nil
}

// isArrowAhead reports whether the token at the current position starts an
// arrow function parameter list: "( ... ) =>" with balanced parens.
func (p *parser) isArrowAhead() bool {
	if !p.atPunct("(") {
		return false
	}
	depth := 0
	for k := 0; p.i+k < len(p.toks); k++ {
		tok := p.toks[p.i+k]
		switch {
		case tok.is(TokenPunct, "("):
			depth++
		case tok.is(TokenPunct, ")"):
			depth--
			if depth == 0 {
				return p.peek(k + 1).is(TokenPunct, "=>")
			}
		case tok.Kind == TokenEOF:
			return false
		}
	}
	return false
}

func (p *parser) parseArrow(start Pos, async bool) (Expr, error) {
	var params []string
	if p.atPunct("(") {
		ps, err := p.parseParams()
		if err != nil {
			return nil, err
		}
		params = ps
	} else {
		params = []string{p.advance().Text}
	}
	if err := p.expectPunct("=>"); err != nil {
		return nil, err
	}
	lit := &FuncLit{
		Pos:    start,
		Async:  async,
		Arrow:  true,
		Params: params,
	}
	if p.atPunct("{") {
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		lit.Body = body
	} else {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lit.ExprBody = x
	}
	return lit, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.cur()

	switch tok.Kind {

	case TokenNumber:
		p.advance()
		if i, err := strconv.ParseInt(tok.Text, 10, 64); err == nil {
			return &BasicLit{Pos: tok.Pos, Kind: LitNumber, Text: tok.Text, Value: i}, nil
		}
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, WithPos(fmt.Errorf("invalid number: %s", tok.Text), tok.Pos)
		}
		return &BasicLit{Pos: tok.Pos, Kind: LitNumber, Text: tok.Text, Value: f}, nil

	case TokenString:
		p.advance()
		return &BasicLit{Pos: tok.Pos, Kind: LitString, Text: tok.Text, Value: tok.Value}, nil

	case TokenIdentifier:
		switch tok.Text {
		case "true", "false":
			p.advance()
			return &BasicLit{Pos: tok.Pos, Kind: LitBool, Text: tok.Text, Value: tok.Text == "true"}, nil
		case "null", "undefined":
			p.advance()
			return &BasicLit{Pos: tok.Pos, Kind: LitNull, Text: tok.Text, Value: nil}, nil
		case "function":
			fn, err := p.parseFuncLit(false)
			if err != nil {
				return nil, err
			}
			return fn.lit, nil
		case "async":
			if p.peek(1).is(TokenIdentifier, "function") {
				p.advance()
				fn, err := p.parseFuncLit(true)
				if err != nil {
					return nil, err
				}
				fn.lit.Pos = tok.Pos
				return fn.lit, nil
			}
			if p.peek(1).Kind == TokenIdentifier && p.peek(2).is(TokenPunct, "=>") {
				p.advance()
				return p.parseArrow(tok.Pos, true)
			}
			if p.peek(1).is(TokenPunct, "(") {
				save := p.i
				p.advance()
				if p.isArrowAhead() {
					return p.parseArrow(tok.Pos, true)
				}
				p.i = save
			}
		}
		if p.peek(1).is(TokenPunct, "=>") {
			return p.parseArrow(tok.Pos, false)
		}
		p.advance()
		return &Ident{Pos: tok.Pos, Name: tok.Text}, nil

	case TokenPunct:
		switch tok.Text {
		case "(":
			if p.isArrowAhead() {
				return p.parseArrow(tok.Pos, false)
			}
			p.advance()
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return &ParenExpr{Pos: tok.Pos, X: x}, nil

		case "[":
			p.advance()
			lit := &ArrayLit{Pos: tok.Pos}
			for !p.atPunct("]") {
				elem, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				lit.Elems = append(lit.Elems, elem)
				if p.atPunct(",") {
					p.advance()
					continue
				}
				break
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			return lit, nil

		case "{":
			p.advance()
			lit := &ObjectLit{Pos: tok.Pos}
			for !p.atPunct("}") {
				var key string
				switch p.cur().Kind {
				case TokenIdentifier:
					key = p.advance().Text
				case TokenString:
					key = p.advance().Value
				default:
					return nil, p.errorf("expected object key")
				}
				if p.atPunct(":") {
					p.advance()
					value, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					lit.Keys = append(lit.Keys, key)
					lit.Values = append(lit.Values, value)
				} else {
					// shorthand {a} for {a: a}
					lit.Keys = append(lit.Keys, key)
					lit.Values = append(lit.Values, &Ident{Pos: tok.Pos, Name: key})
				}
				if p.atPunct(",") {
					p.advance()
					continue
				}
				break
			}
			if err := p.expectPunct("}"); err != nil {
				return nil, err
			}
			return lit, nil
		}
	}

	return nil, p.errorf("unexpected token %q", tok.Text)
}

func exprPos(x Expr) Pos {
	switch e := x.(type) {
	case *Ident:
		return e.Pos
	case *BasicLit:
		return e.Pos
	case *ArrayLit:
		return e.Pos
	case *ObjectLit:
		return e.Pos
	case *FuncLit:
		return e.Pos
	case *CallExpr:
		return e.Pos
	case *IndexExpr:
		return e.Pos
	case *MemberExpr:
		return e.Pos
	case *UnaryExpr:
		return e.Pos
	case *BinaryExpr:
		return e.Pos
	case *CondExpr:
		return e.Pos
	case *AwaitExpr:
		return e.Pos
	case *ParenExpr:
		return e.Pos
	}
	return Pos{}
}
