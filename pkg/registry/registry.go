// Package registry maps document nodes to the views that own them.
//
// The association lives in an explicit side table keyed by node identity
// rather than on the nodes themselves. Entries are removed explicitly when a
// node leaves the document (Detach), so a removed node never resolves to a
// view. A registration-ordered index of live views replaces scanning the
// document for marker classes.
package registry

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/go-drift/stickyview/pkg/dom"
	"github.com/go-drift/stickyview/pkg/errors"
)

// Owner is a value that owns exactly one root node.
type Owner interface {
	comparable
	ID() string
	Node() *html.Node
}

// Registry is the node to view side table. It is not safe for concurrent
// use; all access happens on the UI goroutine.
type Registry[V Owner] struct {
	byNode map[*html.Node]V
	byView map[V]*html.Node
	order  []V
}

// New creates an empty registry.
func New[V Owner]() *Registry[V] {
	return &Registry[V]{
		byNode: make(map[*html.Node]V),
		byView: make(map[V]*html.Node),
	}
}

// Attach records node as owned by v. Attaching the same view to the same
// node again is a no-op. A node owned by a different view, or a view that
// already owns a different node, is rejected and reported.
func (r *Registry[V]) Attach(node *html.Node, v V) error {
	if node == nil {
		err := errors.Configuration("registry.Attach", "nil node for view %s", v.ID())
		errors.Report(err)
		return err
	}
	if owner, ok := r.byNode[node]; ok {
		if owner == v {
			return nil
		}
		return r.conflict(v, owner.ID()+" already owns the node")
	}
	if _, ok := r.byView[v]; ok {
		return r.conflict(v, "view already owns a different node")
	}
	r.byNode[node] = v
	r.byView[v] = node
	r.order = append(r.order, v)
	return nil
}

func (r *Registry[V]) conflict(v V, reason string) error {
	err := &errors.ViewError{
		Op:   "registry.Attach",
		Kind: errors.KindConfiguration,
		View: v.ID(),
		Err:  fmt.Errorf("%w: %s", errors.ErrAlreadyAttached, reason),
	}
	errors.Report(err)
	return err
}

// Lookup returns the view owning exactly node.
func (r *Registry[V]) Lookup(node *html.Node) (V, bool) {
	v, ok := r.byNode[node]
	return v, ok
}

// Nearest returns the view owning node or, failing that, the view owning its
// nearest ancestor.
func (r *Registry[V]) Nearest(node *html.Node) (V, bool) {
	for cur := node; cur != nil; cur = cur.Parent {
		if v, ok := r.byNode[cur]; ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// ParentOf returns the nearest enclosing view of v other than v itself.
// A view whose node has been detached, or that is no longer registered,
// has no parent.
func (r *Registry[V]) ParentOf(v V) (V, bool) {
	var zero V
	node, ok := r.byView[v]
	if !ok || node.Parent == nil {
		return zero, false
	}
	return r.Nearest(node.Parent)
}

// Owns reports whether v is live in the registry.
func (r *Registry[V]) Owns(v V) bool {
	_, ok := r.byView[v]
	return ok
}

// Views returns every registered view in registration order.
func (r *Registry[V]) Views() []V {
	return append([]V(nil), r.order...)
}

// ViewsOf resolves each node to its nearest view and returns the distinct
// views in first-seen order. Nodes without a view are skipped.
func (r *Registry[V]) ViewsOf(nodes []*html.Node) []V {
	seen := make(map[V]bool, len(nodes))
	var out []V
	for _, n := range nodes {
		v, ok := r.Nearest(n)
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Detach removes the entry for node and every entry whose node lies inside
// node's subtree. The removed views are returned in registration order.
func (r *Registry[V]) Detach(node *html.Node) []V {
	if node == nil {
		return nil
	}
	var removed []V
	kept := r.order[:0]
	for _, v := range r.order {
		owned := r.byView[v]
		if dom.IsInclusiveAncestor(node, owned) {
			delete(r.byNode, owned)
			delete(r.byView, v)
			removed = append(removed, v)
			continue
		}
		kept = append(kept, v)
	}
	clear(r.order[len(kept):])
	r.order = kept
	return removed
}

// Len returns the number of registered views.
func (r *Registry[V]) Len() int {
	return len(r.order)
}
