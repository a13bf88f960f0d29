package planvm

type OpCode uint32

const (
	OpLoadConst OpCode = iota + 8
	OpLoadVar
	OpDefVar
	OpSetVar
	OpPop
	OpDup
	OpJump
	OpJumpFalse
	OpJumpFalsePeek
	OpJumpTruePeek
	OpCall
	OpReturn
	OpAwait
	OpMakeClosure
	OpMakeList
	OpMakeMap
	OpGetIndex
	OpSetIndex
	OpGetAttr
	OpSetAttr
	OpGetIter
	OpNextIter
	OpEnterScope
	OpLeaveScope
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpNot
	OpNeg
)

func (o OpCode) With(arg int) OpCode {
	return o | (OpCode(arg) << 8)
}
