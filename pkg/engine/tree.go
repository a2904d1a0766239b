package engine

import (
	"reflect"

	"golang.org/x/net/html"

	"github.com/go-drift/stickyview/pkg/dom"
)

// maxTreeDepth limits recursion depth on malformed documents.
const maxTreeDepth = 500

// ViewTreeNode is a view in the serialized view tree. Children are the views
// whose nearest enclosing view is this one, in document order.
type ViewTreeNode struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Tag      string         `json:"tag"`
	Classes  []string       `json:"classes,omitempty"`
	Depth    int            `json:"depth"`
	Children []ViewTreeNode `json:"children,omitempty"`
}

// ViewTree returns the attached views as a forest in document order.
// Call it on the UI goroutine.
func (e *Engine) ViewTree() []ViewTreeNode {
	return e.collectViews(e.doc.Root(), 0, 0)
}

func (e *Engine) collectViews(n *html.Node, depth, guard int) []ViewTreeNode {
	if guard > maxTreeDepth {
		return nil
	}
	var out []ViewTreeNode
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		v, ok := e.registry.Lookup(c)
		if !ok {
			out = append(out, e.collectViews(c, depth, guard+1)...)
			continue
		}
		out = append(out, ViewTreeNode{
			ID:       v.ID(),
			Type:     reflect.TypeOf(v).String(),
			Tag:      c.Data,
			Classes:  dom.Classes(c),
			Depth:    depth,
			Children: e.collectViews(c, depth+1, guard+1),
		})
	}
	return out
}
