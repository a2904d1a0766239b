// Package layout runs resize passes over the views of a document.
//
// A pass visits every attached view but calls DoLayout only on the outermost
// view of each ancestor chain. Each view's DoLayout is expected to lay out
// the views nested in it, so inner views are never invoked directly by the
// pass. A failing hook is reported and the pass continues with the next
// chain.
//
// The typical frame sequence is:
//  1. The host signals a resize (engine.HandleResize).
//  2. The engine calls Propagate once per frame, however many signals arrived.
//  3. Propagate returns a Result naming the views laid out and the failures.
package layout
