// Package dom is the host document tree views are attached to.
//
// A Document wraps an HTML node tree parsed with golang.org/x/net/html.
// Nodes are plain *html.Node values; the package adds the small set of
// operations the view layer needs on top of them:
//
//   - fragment parsing for templates (ParseFragment)
//   - placement (AppendTo, PrependTo, ReplaceWith, Swap) and removal (Remove)
//   - removal listeners so side tables keyed by node can drop entries (OnRemove)
//   - class helpers and selector queries (QueryClass, Select)
//
// All mutation of a document's structure should go through the Document so
// removal listeners observe it. Documents are not safe for concurrent use;
// they belong to the UI goroutine.
package dom
