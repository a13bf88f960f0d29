package transforms

import (
	"sort"
	"strings"

	"github.com/reusee/taiplan/planlang"
)

// AsyncNames is the set of bare identifiers whose calls suspend. It is
// rebuilt whenever the enabled capability set changes.
type AsyncNames map[string]bool

// LoopGuardName is the binding every guarded loop calls on each iteration.
// The execution driver installs it alongside the capability bindings.
const LoopGuardName = "__loopGuard"

// MapName is the bounded-concurrency primitive. Its callback argument gets
// promoted when the callback body suspends, because map awaits the
// callback's result internally.
const MapName = "map"

type edit struct {
	offset int
	text   string
	// guards sort after awaits at the same offset so the guard call ends
	// up before the awaited expression in the output
	guard bool
}

// Transform rewrites plan source so that calls to suspending names are
// awaited in place, the function literals containing them become async,
// every loop body starts with a guard call, and the whole unit becomes the
// body of an immediately invoked async function.
//
// Edits are spliced into the original text from highest offset to lowest;
// the tree is never rendered back to source, so formatting survives. The
// transform is one shot: feeding its output back in produces double markers
// on purpose.
func Transform(name, text string, asyncNames AsyncNames) (string, error) {
	file, err := planlang.Parse(name, text)
	if err != nil {
		return "", err
	}

	var edits []edit
	promoted := make(map[int]bool)
	var stack []any

	promote := func(lit *planlang.FuncLit) {
		if lit.Async || promoted[lit.Pos.Offset] {
			return
		}
		promoted[lit.Pos.Offset] = true
		edits = append(edits, edit{
			offset: lit.Pos.Offset,
			text:   "async ",
		})
	}

	enclosingFunc := func() *planlang.FuncLit {
		for i := len(stack) - 1; i >= 0; i-- {
			if lit, ok := stack[i].(*planlang.FuncLit); ok {
				return lit
			}
		}
		return nil
	}

	planlang.Inspect(file, func(node any) bool {
		if node == nil {
			stack = stack[:len(stack)-1]
			return true
		}

		switch n := node.(type) {

		case *planlang.CallExpr:
			callee, ok := n.Fun.(*planlang.Ident)
			if !ok || !asyncNames[callee.Name] {
				break
			}
			edits = append(edits, edit{
				offset: n.Pos.Offset,
				text:   "await ",
			})
			if lit := enclosingFunc(); lit != nil {
				promote(lit)
			}
			if callee.Name == MapName && len(n.Args) >= 2 {
				if lit, ok := n.Args[1].(*planlang.FuncLit); ok && bodySuspends(lit, asyncNames) {
					promote(lit)
				}
			}

		case *planlang.WhileStmt:
			edits = append(edits, guardEdit(n.Body))
		case *planlang.ForStmt:
			edits = append(edits, guardEdit(n.Body))
		case *planlang.ForOfStmt:
			edits = append(edits, guardEdit(n.Body))
		}

		stack = append(stack, node)
		return true
	})

	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].offset != edits[j].offset {
			return edits[i].offset > edits[j].offset
		}
		return !edits[i].guard && edits[j].guard
	})
	for _, e := range edits {
		text = text[:e.offset] + e.text + text[e.offset:]
	}

	var sb strings.Builder
	sb.WriteString("return (async function () {\n")
	sb.WriteString(text)
	sb.WriteString("\n})()")
	return sb.String(), nil
}

func guardEdit(body *planlang.BlockStmt) edit {
	return edit{
		offset: body.Lbrace.Offset + 1,
		text:   " " + LoopGuardName + "();",
		guard:  true,
	}
}

// bodySuspends reports whether the literal's body calls any suspending name.
func bodySuspends(lit *planlang.FuncLit, asyncNames AsyncNames) bool {
	found := false
	inspect := func(node any) bool {
		if found || node == nil {
			return true
		}
		if call, ok := node.(*planlang.CallExpr); ok {
			if callee, ok := call.Fun.(*planlang.Ident); ok && asyncNames[callee.Name] {
				found = true
			}
		}
		return !found
	}
	if lit.Body != nil {
		planlang.Inspect(lit.Body, inspect)
	}
	if lit.ExprBody != nil {
		planlang.Inspect(lit.ExprBody, inspect)
	}
	return found
}
