// Package planvm is the stack machine plans execute on after transformation.
//
// The run loop is an iterator: ranging over VM.Run yields await interrupts
// and faults. A fault reported through the yield callback comes from the
// running code itself (undefined name, calling a non-function, loop budget
// exhausted); bridged capability failures never surface here because the
// capability wrapper converts them to "ERROR: ..." string results.
//
// Divergences from the surface language it hosts, chosen for orchestration
// scripts rather than general programs: missing call arguments bind to null
// and extras are dropped; out-of-range reads yield null instead of faulting;
// integer division of two integers truncates.
package planvm
