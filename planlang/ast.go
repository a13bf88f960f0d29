package planlang

type File struct {
	Stmts []Stmt
}

type Stmt interface {
	stmt()
}

type Expr interface {
	expr()
}

type DeclStmt struct {
	Pos     Pos
	Keyword string // "let" or "const"
	Name    string
	Value   Expr // nil when declared without initializer
}

type AssignStmt struct {
	Pos Pos
	LHS Expr
	Op  string // "=", "+=", "-=", "*=", "/=", "%="
	RHS Expr
}

type ExprStmt struct {
	Pos Pos
	X   Expr
}

type BlockStmt struct {
	Lbrace Pos
	Stmts  []Stmt
	Rbrace Pos
}

type IfStmt struct {
	Pos  Pos
	Cond Expr
	Then *BlockStmt
	Else Stmt // nil, *BlockStmt, or *IfStmt
}

type WhileStmt struct {
	Pos  Pos
	Cond Expr
	Body *BlockStmt
}

type ForStmt struct {
	Pos  Pos
	Init Stmt // nil, *DeclStmt, or *AssignStmt
	Cond Expr
	Post Stmt
	Body *BlockStmt
}

type ForOfStmt struct {
	Pos  Pos
	Name string
	X    Expr
	Body *BlockStmt
}

type ReturnStmt struct {
	Pos Pos
	X   Expr // nil for bare return
}

type BreakStmt struct {
	Pos Pos
}

type ContinueStmt struct {
	Pos Pos
}

type FuncDeclStmt struct {
	Pos  Pos
	Name string
	Fn   *FuncLit
}

func (*DeclStmt) stmt()     {}
func (*AssignStmt) stmt()   {}
func (*ExprStmt) stmt()     {}
func (*BlockStmt) stmt()    {}
func (*IfStmt) stmt()       {}
func (*WhileStmt) stmt()    {}
func (*ForStmt) stmt()      {}
func (*ForOfStmt) stmt()    {}
func (*ReturnStmt) stmt()   {}
func (*BreakStmt) stmt()    {}
func (*ContinueStmt) stmt() {}
func (*FuncDeclStmt) stmt() {}

type LitKind uint8

const (
	LitNumber LitKind = iota
	LitString
	LitBool
	LitNull
)

type Ident struct {
	Pos  Pos
	Name string
}

type BasicLit struct {
	Pos   Pos
	Kind  LitKind
	Text  string
	Value any
}

type ArrayLit struct {
	Pos   Pos
	Elems []Expr
}

type ObjectLit struct {
	Pos    Pos
	Keys   []string
	Values []Expr
}

// FuncLit covers both function expressions and arrow functions. Pos is the
// very start of the literal (the async keyword when present), which is where
// the transformer splices an async marker in.
type FuncLit struct {
	Pos      Pos
	Async    bool
	Arrow    bool
	Params   []string
	Body     *BlockStmt // nil for expression-bodied arrows
	ExprBody Expr       // nil for block bodies
}

type CallExpr struct {
	Pos  Pos // start of the callee, where the await marker goes
	Fun  Expr
	Args []Expr
}

type IndexExpr struct {
	Pos   Pos
	X     Expr
	Index Expr
}

type MemberExpr struct {
	Pos  Pos
	X    Expr
	Name string
}

type UnaryExpr struct {
	Pos Pos
	Op  string // "!", "-"
	X   Expr
}

type BinaryExpr struct {
	Pos Pos
	Op  string
	X   Expr
	Y   Expr
}

type CondExpr struct {
	Pos  Pos
	Cond Expr
	Then Expr
	Else Expr
}

type AwaitExpr struct {
	Pos Pos
	X   Expr
}

type ParenExpr struct {
	Pos Pos
	X   Expr
}

func (*Ident) expr()      {}
func (*BasicLit) expr()   {}
func (*ArrayLit) expr()   {}
func (*ObjectLit) expr()  {}
func (*FuncLit) expr()    {}
func (*CallExpr) expr()   {}
func (*IndexExpr) expr()  {}
func (*MemberExpr) expr() {}
func (*UnaryExpr) expr()  {}
func (*BinaryExpr) expr() {}
func (*CondExpr) expr()   {}
func (*AwaitExpr) expr()  {}
func (*ParenExpr) expr()  {}
