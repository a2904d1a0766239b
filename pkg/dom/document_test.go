package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func mustParse(t *testing.T, body string) *Document {
	t.Helper()
	doc, err := ParseString("<html><body>" + body + "</body></html>")
	require.NoError(t, err)
	return doc
}

func mustSelectOne(t *testing.T, doc *Document, selector string) *html.Node {
	t.Helper()
	nodes, err := doc.Select(selector)
	require.NoError(t, err)
	require.Len(t, nodes, 1, selector)
	return nodes[0]
}

func TestNewHasBody(t *testing.T) {
	doc := New()
	body := doc.Body()
	require.NotNil(t, body)
	assert.Equal(t, "body", body.Data)
	assert.True(t, doc.Contains(body))
}

func TestParseFragmentReturnsTopLevelNodes(t *testing.T) {
	doc := New()

	nodes, err := doc.ParseFragment(`<div class="a"><span>x</span></div> <p></p>`)
	require.NoError(t, err)

	var elements []string
	for _, n := range nodes {
		assert.Nil(t, n.Parent)
		if !IsBlank(n) {
			elements = append(elements, n.Data)
		}
	}
	assert.Equal(t, []string{"div", "p"}, elements)
}

func TestPlacement(t *testing.T) {
	doc := mustParse(t, `<ul id="list"><li id="first"></li></ul>`)
	list := mustSelectOne(t, doc, "#list")

	last := doc.CreateElement("li")
	doc.AppendTo(list, last)
	assert.Same(t, last, list.LastChild)

	head := doc.CreateElement("li")
	doc.PrependTo(list, head)
	assert.Same(t, head, list.FirstChild)

	// Appending an attached node moves it.
	doc.AppendTo(list, head)
	assert.Same(t, head, list.LastChild)
	assert.NotSame(t, head, list.FirstChild)
}

func TestReplaceWithNotifiesRemoval(t *testing.T) {
	doc := mustParse(t, `<div id="slot"><span></span></div>`)
	slot := mustSelectOne(t, doc, "#slot")

	var removed []*html.Node
	unsubscribe := doc.OnRemove(func(n *html.Node) {
		removed = append(removed, n)
	})

	replacement := doc.CreateElement("section")
	doc.ReplaceWith(slot, replacement)

	assert.True(t, doc.Contains(replacement))
	assert.False(t, doc.Contains(slot))
	assert.Equal(t, []*html.Node{slot}, removed)

	unsubscribe()
	doc.Remove(replacement)
	assert.Len(t, removed, 1)
}

func TestSwapDefersRemovalUntilCommit(t *testing.T) {
	doc := mustParse(t, `<div id="a"></div><div id="b"></div>`)
	a := mustSelectOne(t, doc, "#a")
	b := mustSelectOne(t, doc, "#b")
	var removed []*html.Node
	doc.OnRemove(func(n *html.Node) { removed = append(removed, n) })

	commit := doc.Swap(a, doc.CreateElement("section"))
	assert.False(t, doc.Contains(a))
	assert.Empty(t, removed)
	commit()
	assert.Equal(t, []*html.Node{a}, removed)

	// A swapped-out node put back before commit is not reported.
	commit = doc.Swap(b, doc.CreateElement("aside"))
	doc.AppendTo(doc.Body(), b)
	commit()
	assert.Len(t, removed, 1)
}

func TestParseFragmentKeepsTableParts(t *testing.T) {
	doc := New()
	tests := []struct {
		markup string
		tag    string
	}{
		{`<tr><td>x</td></tr>`, "tr"},
		{`<td>x</td>`, "td"},
		{`<th>x</th>`, "th"},
		{`<tbody></tbody>`, "tbody"},
		{`<caption>x</caption>`, "caption"},
		{`<col>`, "col"},
		{`<!-- c --> <tr></tr>`, "tr"},
		{`<div></div>`, "div"},
	}
	for _, tt := range tests {
		nodes, err := doc.ParseFragment(tt.markup)
		require.NoError(t, err)
		var elements []string
		for _, n := range nodes {
			if n.Type == html.ElementNode {
				elements = append(elements, n.Data)
			}
		}
		assert.Equal(t, []string{tt.tag}, elements, tt.markup)
	}
}

func TestRemoveDetachedIsNoop(t *testing.T) {
	doc := New()
	calls := 0
	doc.OnRemove(func(*html.Node) { calls++ })

	doc.Remove(doc.CreateElement("div"))
	doc.Remove(nil)

	assert.Zero(t, calls)
}

func TestQueryClassDocumentOrder(t *testing.T) {
	doc := mustParse(t, `<div id="a" class="v"><div id="b" class="x v"></div></div><div id="c" class="v"></div>`)

	var ids []string
	for _, n := range doc.QueryClass("v") {
		id, _ := Attr(n, "id")
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestSelectAndFind(t *testing.T) {
	doc := mustParse(t, `<div class="box"><div class="box inner"></div></div>`)
	outer := mustSelectOne(t, doc, "body > .box")

	all, err := Select(outer, ".box")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := Find(outer, ".box")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.True(t, HasClass(found[0], "inner"))

	_, err = Select(outer, "[[")
	assert.Error(t, err)
}

func TestClassHelpers(t *testing.T) {
	n := New().CreateElement("div")

	AddClass(n, "a b")
	AddClass(n, "b c")
	assert.Equal(t, []string{"a", "b", "c"}, Classes(n))

	RemoveClass(n, "b")
	assert.Equal(t, []string{"a", "c"}, Classes(n))

	RemoveClass(n, "a c")
	_, ok := Attr(n, "class")
	assert.False(t, ok)
}

func TestTextHelpers(t *testing.T) {
	doc := mustParse(t, `<p id="p">hello <b>world</b></p>`)
	p := mustSelectOne(t, doc, "#p")
	assert.Equal(t, "hello world", Text(p))

	SetText(p, "bye")
	assert.Equal(t, "bye", Text(p))
	assert.True(t, strings.Contains(String(p), ">bye<"))
}

func TestClosest(t *testing.T) {
	doc := mustParse(t, `<div class="owner"><p><span id="leaf"></span></p></div>`)
	leaf := mustSelectOne(t, doc, "#leaf")

	owner := Closest(leaf, func(n *html.Node) bool { return HasClass(n, "owner") })
	require.NotNil(t, owner)
	assert.Equal(t, "div", owner.Data)

	assert.Nil(t, Closest(leaf, func(n *html.Node) bool { return HasClass(n, "missing") }))
}
