package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const emptyDocument = "<!DOCTYPE html><html><head></head><body></body></html>"

// Document is a mutable HTML document.
type Document struct {
	root      *html.Node
	listeners []removeListener
	nextID    int
}

type removeListener struct {
	id int
	fn func(*html.Node)
}

// New returns an empty document with html, head and body elements.
func New() *Document {
	doc, err := ParseString(emptyDocument)
	if err != nil {
		panic(fmt.Sprintf("dom: parse empty document: %v", err))
	}
	return doc
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse document: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString parses an HTML document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Body returns the body element, or nil if the document has none.
func (d *Document) Body() *html.Node {
	return findElement(d.root, atom.Body)
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// Contains reports whether n is part of the document tree.
func (d *Document) Contains(n *html.Node) bool {
	return IsInclusiveAncestor(d.root, n)
}

// CreateElement returns a new detached element.
func (d *Document) CreateElement(tag string) *html.Node {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		tag = "div"
	}
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// fragmentContexts maps a leading tag that is only valid inside tables to
// the element it must be parsed in.
var fragmentContexts = map[atom.Atom]atom.Atom{
	atom.Tr:       atom.Tbody,
	atom.Td:       atom.Tr,
	atom.Th:       atom.Tr,
	atom.Thead:    atom.Table,
	atom.Tbody:    atom.Table,
	atom.Tfoot:    atom.Table,
	atom.Caption:  atom.Table,
	atom.Colgroup: atom.Table,
	atom.Col:      atom.Colgroup,
}

// ParseFragment parses markup and returns its top-level nodes, detached
// from any parent. Markup is parsed in a body context unless its first tag
// needs a table context, so "<tr>" and "<td>" survive as elements.
func (d *Document) ParseFragment(markup string) ([]*html.Node, error) {
	ctx := atom.Body
	if c, ok := fragmentContexts[leadingTag(markup)]; ok {
		ctx = c
	}
	context := &html.Node{Type: html.ElementNode, Data: ctx.String(), DataAtom: ctx}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	return nodes, nil
}

// leadingTag returns the atom of the first start tag in markup, skipping
// leading whitespace, comments and doctypes. Anything else before a tag
// yields 0.
func leadingTag(markup string) atom.Atom {
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			return atom.Lookup(name)
		case html.CommentToken, html.DoctypeToken:
		case html.TextToken:
			if strings.TrimSpace(string(z.Text())) != "" {
				return 0
			}
		default:
			return 0
		}
	}
}

// AppendTo moves n to be the last child of parent.
func (d *Document) AppendTo(parent, n *html.Node) {
	detach(n)
	parent.AppendChild(n)
}

// PrependTo moves n to be the first child of parent.
func (d *Document) PrependTo(parent, n *html.Node) {
	detach(n)
	parent.InsertBefore(n, parent.FirstChild)
}

// ReplaceWith puts n where old is and removes old from the document.
// Removal listeners are notified for old.
func (d *Document) ReplaceWith(old, n *html.Node) {
	d.Swap(old, n)()
}

// Swap puts n where old is and detaches old without notifying removal
// listeners. The returned commit notifies them; it does nothing if old has
// been put back into a tree by then.
func (d *Document) Swap(old, n *html.Node) (commit func()) {
	if old == n || old.Parent == nil {
		return func() {}
	}
	detach(n)
	old.Parent.InsertBefore(n, old)
	old.Parent.RemoveChild(old)
	return func() {
		if old.Parent == nil {
			d.notify(old)
		}
	}
}

// Remove detaches n from its parent and notifies removal listeners.
// Removing a detached node is a no-op.
func (d *Document) Remove(n *html.Node) {
	if n == nil || n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
	d.notify(n)
}

func (d *Document) notify(n *html.Node) {
	listeners := append([]removeListener(nil), d.listeners...)
	for _, l := range listeners {
		l.fn(n)
	}
}

// OnRemove registers fn to be called with the root of every subtree removed
// through Remove, ReplaceWith or a committed Swap. The returned function
// unregisters it.
func (d *Document) OnRemove(fn func(*html.Node)) func() {
	d.nextID++
	id := d.nextID
	d.listeners = append(d.listeners, removeListener{id: id, fn: fn})
	return func() {
		for i, l := range d.listeners {
			if l.id == id {
				d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
				return
			}
		}
	}
}

// QueryClass returns every element carrying class, in document order.
func (d *Document) QueryClass(class string) []*html.Node {
	var out []*html.Node
	Walk(d.root, func(n *html.Node) bool {
		if HasClass(n, class) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Select returns the document's elements matching a CSS selector.
func (d *Document) Select(selector string) ([]*html.Node, error) {
	return Select(d.root, selector)
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders n as HTML, for logs and tests.
func String(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return fmt.Sprintf("<render error: %v>", err)
	}
	return buf.String()
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}
