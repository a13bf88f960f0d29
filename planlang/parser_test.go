package planlang

import "testing"

func parse(t *testing.T, src string) *File {
	t.Helper()
	file, err := Parse("test", src)
	if err != nil {
		t.Fatal(err)
	}
	return file
}

func TestParseDeclList(t *testing.T) {
	file := parse(t, `let a = 1, b, c = 3`)
	if len(file.Stmts) != 3 {
		t.Fatalf("stmts = %d, want 3", len(file.Stmts))
	}
	names := []string{"a", "b", "c"}
	for i, stmt := range file.Stmts {
		decl, ok := stmt.(*DeclStmt)
		if !ok {
			t.Fatalf("stmt %d is %T", i, stmt)
		}
		if decl.Name != names[i] {
			t.Errorf("decl %d = %s, want %s", i, decl.Name, names[i])
		}
	}
	if file.Stmts[1].(*DeclStmt).Value != nil {
		t.Error("b should have no initializer")
	}
}

func TestParseCallPos(t *testing.T) {
	src := `let x = search("query")`
	file := parse(t, src)
	decl := file.Stmts[0].(*DeclStmt)
	call, ok := decl.Value.(*CallExpr)
	if !ok {
		t.Fatalf("value is %T", decl.Value)
	}
	// the call position is the start of the callee, where a marker
	// keyword can be spliced in front
	if src[call.Pos.Offset:call.Pos.Offset+6] != "search" {
		t.Errorf("call pos offset = %d", call.Pos.Offset)
	}
}

func TestParseMemberCallPos(t *testing.T) {
	src := `obj.method(1)[0]`
	file := parse(t, src)
	x := file.Stmts[0].(*ExprStmt).X
	index, ok := x.(*IndexExpr)
	if !ok {
		t.Fatalf("expr is %T", x)
	}
	call := index.X.(*CallExpr)
	// postfix chains keep the position of the chain's start
	if src[call.Pos.Offset:call.Pos.Offset+3] != "obj" {
		t.Errorf("call pos offset = %d", call.Pos.Offset)
	}
}

func TestParseFuncLitPos(t *testing.T) {
	src := `let f = async function (x) { return x }`
	file := parse(t, src)
	lit := file.Stmts[0].(*DeclStmt).Value.(*FuncLit)
	if !lit.Async {
		t.Error("not async")
	}
	if src[lit.Pos.Offset:lit.Pos.Offset+5] != "async" {
		t.Errorf("lit pos offset = %d", lit.Pos.Offset)
	}
}

func TestParseAsyncFuncDecl(t *testing.T) {
	file := parse(t, `async function work(x) { return x }`)
	decl, ok := file.Stmts[0].(*FuncDeclStmt)
	if !ok {
		t.Fatalf("stmt is %T", file.Stmts[0])
	}
	if decl.Name != "work" || !decl.Fn.Async {
		t.Errorf("decl = %+v", decl)
	}
}

func TestParseArrowForms(t *testing.T) {
	for _, src := range []string{
		`let f = x => x`,
		`let f = (x) => x`,
		`let f = (a, b) => { return a }`,
		`let f = () => 1`,
		`let f = async x => x`,
		`let f = async (a, b) => a`,
	} {
		file := parse(t, src)
		decl := file.Stmts[0].(*DeclStmt)
		lit, ok := decl.Value.(*FuncLit)
		if !ok {
			t.Fatalf("%q: value is %T", src, decl.Value)
		}
		if !lit.Arrow {
			t.Errorf("%q: not an arrow", src)
		}
	}
}

func TestParseNotArrow(t *testing.T) {
	// a parenthesized expression followed by anything but => stays an
	// ordinary expression, and async stays callable as a plain name
	file := parse(t, `let a = (1 + 2) * 3
let b = async(1)`)
	if _, ok := file.Stmts[0].(*DeclStmt).Value.(*BinaryExpr); !ok {
		t.Errorf("a is %T", file.Stmts[0].(*DeclStmt).Value)
	}
	if _, ok := file.Stmts[1].(*DeclStmt).Value.(*CallExpr); !ok {
		t.Errorf("b is %T", file.Stmts[1].(*DeclStmt).Value)
	}
}

func TestParseForVariants(t *testing.T) {
	file := parse(t, `
for (let i = 0; i < 3; i += 1) { work() }
for (let x of items) { work() }
for (x of items) { work() }
for (;;) { break }
`)
	if _, ok := file.Stmts[0].(*ForStmt); !ok {
		t.Errorf("stmt 0 is %T", file.Stmts[0])
	}
	if _, ok := file.Stmts[1].(*ForOfStmt); !ok {
		t.Errorf("stmt 1 is %T", file.Stmts[1])
	}
	if _, ok := file.Stmts[2].(*ForOfStmt); !ok {
		t.Errorf("stmt 2 is %T", file.Stmts[2])
	}
	bare, ok := file.Stmts[3].(*ForStmt)
	if !ok {
		t.Fatalf("stmt 3 is %T", file.Stmts[3])
	}
	if bare.Init != nil || bare.Cond != nil || bare.Post != nil {
		t.Error("bare for should have empty clauses")
	}
}

func TestParseReturnSameLine(t *testing.T) {
	file := parse(t, `function f() {
	return
	1
}`)
	fn := file.Stmts[0].(*FuncDeclStmt).Fn
	ret, ok := fn.Body.Stmts[0].(*ReturnStmt)
	if !ok {
		t.Fatalf("stmt is %T", fn.Body.Stmts[0])
	}
	if ret.X != nil {
		t.Error("return value should not span lines")
	}
}

func TestParseLoopBodyBraces(t *testing.T) {
	// loop bodies must be blocks so a guard call has a place to go
	for _, src := range []string{
		`while (true) work()`,
		`for (let i = 0; i < 3; i += 1) work()`,
		`for (let x of items) work()`,
	} {
		if _, err := Parse("test", src); err == nil {
			t.Errorf("no error for %q", src)
		}
	}
}
