package planlang

import (
	"fmt"

	"github.com/reusee/taiplan/planvm"
)

// Compile parses and compiles one plan into a bytecode function. The
// returned function takes no parameters; the program's value is whatever it
// returns.
func Compile(name, text string) (*planvm.Function, error) {
	file, err := Parse(name, text)
	if err != nil {
		return nil, err
	}
	return CompileFile(name, file)
}

func CompileFile(name string, file *File) (*planvm.Function, error) {
	c := newFuncCompiler(name, nil, false)
	for _, stmt := range file.Stmts {
		if err := c.compileStmt(stmt); err != nil {
			return nil, err
		}
	}
	return c.finish(), nil
}

type funcCompiler struct {
	fun      *planvm.Function
	strIdx   map[string]int
	loops    []*loopContext
	depth    int
	tmpCount int
}

// loopContext tracks the jump fixups of one enclosing loop. depth is the
// scope depth at the loop head so break and continue can emit the right
// number of scope exits. iterOnStack marks for-of loops, whose break must
// also pop the live iterator.
type loopContext struct {
	depth       int
	iterOnStack bool
	breakIPs    []int
	continueIPs []int
}

func newFuncCompiler(name string, params []string, async bool) *funcCompiler {
	return &funcCompiler{
		fun: &planvm.Function{
			Name:       name,
			NumParams:  len(params),
			ParamNames: params,
			Async:      async,
		},
		strIdx: make(map[string]int),
	}
}

func (c *funcCompiler) finish() *planvm.Function {
	c.emit(planvm.OpLoadConst.With(c.addConst(nil)))
	c.emit(planvm.OpReturn)
	return c.fun
}

func (c *funcCompiler) emit(op planvm.OpCode) int {
	c.fun.Code = append(c.fun.Code, op)
	return len(c.fun.Code) - 1
}

func (c *funcCompiler) addConst(v any) int {
	if s, ok := v.(string); ok {
		if idx, ok := c.strIdx[s]; ok {
			return idx
		}
		c.fun.Constants = append(c.fun.Constants, v)
		idx := len(c.fun.Constants) - 1
		c.strIdx[s] = idx
		return idx
	}
	c.fun.Constants = append(c.fun.Constants, v)
	return len(c.fun.Constants) - 1
}

func (c *funcCompiler) nameConst(name string) int {
	return c.addConst(name)
}

// patchJump rewrites the jump at ip to land on the next instruction to be
// emitted. Offsets are relative to the instruction after the jump.
func (c *funcCompiler) patchJump(ip int) {
	offset := len(c.fun.Code) - ip - 1
	c.fun.Code[ip] = (c.fun.Code[ip] & 0xff).With(offset)
}

func (c *funcCompiler) tmpName() string {
	c.tmpCount++
	return fmt.Sprintf(".t%d", c.tmpCount)
}

func (c *funcCompiler) compileStmt(stmt Stmt) error {
	switch s := stmt.(type) {

	case *DeclStmt:
		if s.Value != nil {
			if err := c.compileExpr(s.Value); err != nil {
				return err
			}
		} else {
			c.emit(planvm.OpLoadConst.With(c.addConst(nil)))
		}
		c.emit(planvm.OpDefVar.With(c.nameConst(s.Name)))
		return nil

	case *AssignStmt:
		return c.compileAssign(s)

	case *ExprStmt:
		if err := c.compileExpr(s.X); err != nil {
			return err
		}
		c.emit(planvm.OpPop)
		return nil

	case *BlockStmt:
		return c.compileBlock(s)

	case *IfStmt:
		return c.compileIf(s)

	case *WhileStmt:
		return c.compileWhile(s)

	case *ForStmt:
		return c.compileFor(s)

	case *ForOfStmt:
		return c.compileForOf(s)

	case *ReturnStmt:
		if s.X != nil {
			if err := c.compileExpr(s.X); err != nil {
				return err
			}
		} else {
			c.emit(planvm.OpLoadConst.With(c.addConst(nil)))
		}
		c.emit(planvm.OpReturn)
		return nil

	case *BreakStmt:
		if len(c.loops) == 0 {
			return WithPos(fmt.Errorf("break outside loop"), s.Pos)
		}
		loop := c.loops[len(c.loops)-1]
		for range c.depth - loop.depth {
			c.emit(planvm.OpLeaveScope)
		}
		if loop.iterOnStack {
			c.emit(planvm.OpPop)
		}
		loop.breakIPs = append(loop.breakIPs, c.emit(planvm.OpJump))
		return nil

	case *ContinueStmt:
		if len(c.loops) == 0 {
			return WithPos(fmt.Errorf("continue outside loop"), s.Pos)
		}
		loop := c.loops[len(c.loops)-1]
		for range c.depth - loop.depth {
			c.emit(planvm.OpLeaveScope)
		}
		loop.continueIPs = append(loop.continueIPs, c.emit(planvm.OpJump))
		return nil

	case *FuncDeclStmt:
		if err := c.compileFuncLit(s.Fn, s.Name); err != nil {
			return err
		}
		c.emit(planvm.OpDefVar.With(c.nameConst(s.Name)))
		return nil
	}

	return fmt.Errorf("cannot compile statement: %T", stmt)
}

func (c *funcCompiler) compileBlock(block *BlockStmt) error {
	c.emit(planvm.OpEnterScope)
	c.depth++
	for _, stmt := range block.Stmts {
		if err := c.compileStmt(stmt); err != nil {
			return err
		}
	}
	c.depth--
	c.emit(planvm.OpLeaveScope)
	return nil
}

func (c *funcCompiler) compileAssign(s *AssignStmt) error {
	arithOp, augmented := augmentedOps[s.Op]

	switch lhs := s.LHS.(type) {

	case *Ident:
		if augmented {
			c.emit(planvm.OpLoadVar.With(c.nameConst(lhs.Name)))
		}
		if err := c.compileExpr(s.RHS); err != nil {
			return err
		}
		if augmented {
			c.emit(arithOp)
		}
		c.emit(planvm.OpSetVar.With(c.nameConst(lhs.Name)))
		return nil

	case *MemberExpr:
		if err := c.compileExpr(lhs.X); err != nil {
			return err
		}
		if augmented {
			c.emit(planvm.OpDup)
			c.emit(planvm.OpGetAttr.With(c.nameConst(lhs.Name)))
		}
		if err := c.compileExpr(s.RHS); err != nil {
			return err
		}
		if augmented {
			c.emit(arithOp)
		}
		c.emit(planvm.OpSetAttr.With(c.nameConst(lhs.Name)))
		return nil

	case *IndexExpr:
		if !augmented {
			if err := c.compileExpr(lhs.X); err != nil {
				return err
			}
			if err := c.compileExpr(lhs.Index); err != nil {
				return err
			}
			if err := c.compileExpr(s.RHS); err != nil {
				return err
			}
			c.emit(planvm.OpSetIndex)
			return nil
		}
		// target and key are needed twice, stash them in hidden locals
		target := c.tmpName()
		key := c.tmpName()
		if err := c.compileExpr(lhs.X); err != nil {
			return err
		}
		c.emit(planvm.OpDefVar.With(c.nameConst(target)))
		if err := c.compileExpr(lhs.Index); err != nil {
			return err
		}
		c.emit(planvm.OpDefVar.With(c.nameConst(key)))
		c.emit(planvm.OpLoadVar.With(c.nameConst(target)))
		c.emit(planvm.OpLoadVar.With(c.nameConst(key)))
		c.emit(planvm.OpLoadVar.With(c.nameConst(target)))
		c.emit(planvm.OpLoadVar.With(c.nameConst(key)))
		c.emit(planvm.OpGetIndex)
		if err := c.compileExpr(s.RHS); err != nil {
			return err
		}
		c.emit(arithOp)
		c.emit(planvm.OpSetIndex)
		return nil
	}

	return WithPos(fmt.Errorf("invalid assignment target: %T", s.LHS), s.Pos)
}

var augmentedOps = map[string]planvm.OpCode{
	"+=": planvm.OpAdd,
	"-=": planvm.OpSub,
	"*=": planvm.OpMul,
	"/=": planvm.OpDiv,
	"%=": planvm.OpMod,
}

func (c *funcCompiler) compileIf(s *IfStmt) error {
	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}
	toElse := c.emit(planvm.OpJumpFalse)
	if err := c.compileBlock(s.Then); err != nil {
		return err
	}
	if s.Else == nil {
		c.patchJump(toElse)
		return nil
	}
	toEnd := c.emit(planvm.OpJump)
	c.patchJump(toElse)
	if err := c.compileStmt(s.Else); err != nil {
		return err
	}
	c.patchJump(toEnd)
	return nil
}

func (c *funcCompiler) compileWhile(s *WhileStmt) error {
	loop := &loopContext{
		depth: c.depth,
	}
	c.loops = append(c.loops, loop)
	defer func() {
		c.loops = c.loops[:len(c.loops)-1]
	}()

	condStart := len(c.fun.Code)
	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}
	toEnd := c.emit(planvm.OpJumpFalse)
	if err := c.compileBlock(s.Body); err != nil {
		return err
	}
	for _, ip := range loop.continueIPs {
		c.fun.Code[ip] = planvm.OpJump.With(condStart - ip - 1)
	}
	c.emit(planvm.OpJump.With(condStart - len(c.fun.Code) - 1))
	c.patchJump(toEnd)
	for _, ip := range loop.breakIPs {
		c.patchJump(ip)
	}
	return nil
}

func (c *funcCompiler) compileFor(s *ForStmt) error {
	c.emit(planvm.OpEnterScope)
	c.depth++

	loop := &loopContext{
		depth: c.depth,
	}
	c.loops = append(c.loops, loop)

	if s.Init != nil {
		if err := c.compileStmt(s.Init); err != nil {
			return err
		}
	}
	condStart := len(c.fun.Code)
	toEnd := -1
	if s.Cond != nil {
		if err := c.compileExpr(s.Cond); err != nil {
			return err
		}
		toEnd = c.emit(planvm.OpJumpFalse)
	}
	if err := c.compileBlock(s.Body); err != nil {
		return err
	}

	postStart := len(c.fun.Code)
	for _, ip := range loop.continueIPs {
		c.fun.Code[ip] = planvm.OpJump.With(postStart - ip - 1)
	}
	if s.Post != nil {
		if err := c.compileStmt(s.Post); err != nil {
			return err
		}
	}
	c.emit(planvm.OpJump.With(condStart - len(c.fun.Code) - 1))
	if toEnd >= 0 {
		c.patchJump(toEnd)
	}
	for _, ip := range loop.breakIPs {
		c.patchJump(ip)
	}

	c.loops = c.loops[:len(c.loops)-1]
	c.depth--
	c.emit(planvm.OpLeaveScope)
	return nil
}

func (c *funcCompiler) compileForOf(s *ForOfStmt) error {
	if err := c.compileExpr(s.X); err != nil {
		return err
	}
	c.emit(planvm.OpGetIter)

	loop := &loopContext{
		depth:       c.depth,
		iterOnStack: true,
	}
	c.loops = append(c.loops, loop)

	loopStart := len(c.fun.Code)
	next := c.emit(planvm.OpNextIter)
	c.emit(planvm.OpEnterScope)
	c.depth++
	c.emit(planvm.OpDefVar.With(c.nameConst(s.Name)))
	for _, stmt := range s.Body.Stmts {
		if err := c.compileStmt(stmt); err != nil {
			return err
		}
	}
	c.depth--
	c.emit(planvm.OpLeaveScope)
	for _, ip := range loop.continueIPs {
		c.fun.Code[ip] = planvm.OpJump.With(loopStart - ip - 1)
	}
	c.emit(planvm.OpJump.With(loopStart - len(c.fun.Code) - 1))

	// NextIter pops the iterator on exhaustion before jumping here; breaks
	// pop it themselves before jumping here.
	c.patchJump(next)
	for _, ip := range loop.breakIPs {
		c.patchJump(ip)
	}

	c.loops = c.loops[:len(c.loops)-1]
	return nil
}

func (c *funcCompiler) compileFuncLit(lit *FuncLit, name string) error {
	sub := newFuncCompiler(name, lit.Params, lit.Async)
	if lit.ExprBody != nil {
		if err := sub.compileExpr(lit.ExprBody); err != nil {
			return err
		}
		sub.emit(planvm.OpReturn)
	} else {
		for _, stmt := range lit.Body.Stmts {
			if err := sub.compileStmt(stmt); err != nil {
				return err
			}
		}
	}
	fun := sub.finish()
	c.emit(planvm.OpMakeClosure.With(c.addConst(fun)))
	return nil
}

func (c *funcCompiler) compileExpr(expr Expr) error {
	switch e := expr.(type) {

	case *Ident:
		c.emit(planvm.OpLoadVar.With(c.nameConst(e.Name)))
		return nil

	case *BasicLit:
		c.emit(planvm.OpLoadConst.With(c.addConst(e.Value)))
		return nil

	case *ArrayLit:
		for _, elem := range e.Elems {
			if err := c.compileExpr(elem); err != nil {
				return err
			}
		}
		c.emit(planvm.OpMakeList.With(len(e.Elems)))
		return nil

	case *ObjectLit:
		for i, key := range e.Keys {
			c.emit(planvm.OpLoadConst.With(c.addConst(key)))
			if err := c.compileExpr(e.Values[i]); err != nil {
				return err
			}
		}
		c.emit(planvm.OpMakeMap.With(len(e.Keys)))
		return nil

	case *FuncLit:
		return c.compileFuncLit(e, "")

	case *CallExpr:
		if err := c.compileExpr(e.Fun); err != nil {
			return err
		}
		for _, arg := range e.Args {
			if err := c.compileExpr(arg); err != nil {
				return err
			}
		}
		c.emit(planvm.OpCall.With(len(e.Args)))
		return nil

	case *IndexExpr:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		if err := c.compileExpr(e.Index); err != nil {
			return err
		}
		c.emit(planvm.OpGetIndex)
		return nil

	case *MemberExpr:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		c.emit(planvm.OpGetAttr.With(c.nameConst(e.Name)))
		return nil

	case *UnaryExpr:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		switch e.Op {
		case "!":
			c.emit(planvm.OpNot)
		case "-":
			c.emit(planvm.OpNeg)
		default:
			return WithPos(fmt.Errorf("unknown unary operator: %s", e.Op), e.Pos)
		}
		return nil

	case *BinaryExpr:
		return c.compileBinary(e)

	case *CondExpr:
		if err := c.compileExpr(e.Cond); err != nil {
			return err
		}
		toElse := c.emit(planvm.OpJumpFalse)
		if err := c.compileExpr(e.Then); err != nil {
			return err
		}
		toEnd := c.emit(planvm.OpJump)
		c.patchJump(toElse)
		if err := c.compileExpr(e.Else); err != nil {
			return err
		}
		c.patchJump(toEnd)
		return nil

	case *AwaitExpr:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		c.emit(planvm.OpAwait)
		return nil

	case *ParenExpr:
		return c.compileExpr(e.X)
	}

	return fmt.Errorf("cannot compile expression: %T", expr)
}

var binaryOps = map[string]planvm.OpCode{
	"+":   planvm.OpAdd,
	"-":   planvm.OpSub,
	"*":   planvm.OpMul,
	"/":   planvm.OpDiv,
	"%":   planvm.OpMod,
	"==":  planvm.OpEq,
	"===": planvm.OpEq,
	"!=":  planvm.OpNe,
	"!==": planvm.OpNe,
	"<":   planvm.OpLt,
	"<=":  planvm.OpLe,
	">":   planvm.OpGt,
	">=":  planvm.OpGe,
}

func (c *funcCompiler) compileBinary(e *BinaryExpr) error {
	switch e.Op {

	case "&&":
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		toEnd := c.emit(planvm.OpJumpFalsePeek)
		c.emit(planvm.OpPop)
		if err := c.compileExpr(e.Y); err != nil {
			return err
		}
		c.patchJump(toEnd)
		return nil

	case "||":
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		toEnd := c.emit(planvm.OpJumpTruePeek)
		c.emit(planvm.OpPop)
		if err := c.compileExpr(e.Y); err != nil {
			return err
		}
		c.patchJump(toEnd)
		return nil
	}

	op, ok := binaryOps[e.Op]
	if !ok {
		return WithPos(fmt.Errorf("unknown binary operator: %s", e.Op), e.Pos)
	}
	if err := c.compileExpr(e.X); err != nil {
		return err
	}
	if err := c.compileExpr(e.Y); err != nil {
		return err
	}
	c.emit(op)
	return nil
}
