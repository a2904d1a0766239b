package mount

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/stickyview/pkg/dom"
	"github.com/go-drift/stickyview/pkg/engine"
	"github.com/go-drift/stickyview/pkg/errors"
	"github.com/go-drift/stickyview/pkg/layout"
)

const page = `<main id="app"><div id="sidebar"><nav></nav><p class="note">hi</p></div><div id="slot"></div></main>`

const mounts = `
views:
  - name: header
    template: '<header class="hdr"><h1 class="title"></h1></header>'
    prepend_to: main
    model:
      title: Welcome
    bind:
      title: .title
  - name: sidebar
    selector: '#sidebar'
    class_name: sticky
    children:
      - name: menu
        selector: nav
      - name: badge
        tag_name: span
        class_name: badge
        append_to: .note
  - name: footer
    template: '<footer>bye</footer>'
    replace: '#slot'
`

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	e := engine.New(doc, engine.Config{})
	t.Cleanup(e.Close)
	return e
}

func TestParseAndMount(t *testing.T) {
	f, err := Parse([]byte(mounts))
	require.NoError(t, err)
	require.Len(t, f.Views, 3)

	e := newEngine(t)
	m := NewMounter(e.Controller(), e.Propagator().Viewport)
	views, err := m.Mount(f)
	require.NoError(t, err)
	require.Len(t, views, 3)

	header, sidebar, footer := views[0], views[1], views[2]
	assert.Equal(t, "header", header.Name())
	assert.Equal(t, "Welcome", dom.Text(header.Node()))
	assert.Same(t, e.Document().Body().FirstChild.FirstChild, header.Node(), "prepended into main")

	assert.True(t, dom.HasClass(sidebar.Node(), "sticky"))
	require.Len(t, sidebar.Children(), 2)
	assert.Equal(t, "nav", sidebar.Children()[0].Node().Data)
	badge := sidebar.Children()[1]
	assert.Equal(t, "span", badge.Node().Data)
	assert.True(t, dom.HasClass(badge.Node().Parent, "note"))

	slot, err := e.Document().Select("#slot")
	require.NoError(t, err)
	assert.Empty(t, slot, "replaced")
	assert.Equal(t, "footer", footer.Node().Data)

	assert.Same(t, sidebar, m.ByID(sidebar.ID()))
	assert.Equal(t, 5, e.Registry().Len())
}

func TestDoLayoutRecordsViewportAndCascades(t *testing.T) {
	f, err := Parse([]byte(mounts))
	require.NoError(t, err)
	e := newEngine(t)
	views, err := NewMounter(e.Controller(), e.Propagator().Viewport).Mount(f)
	require.NoError(t, err)

	snap := e.Resize(layout.Viewport{Width: 640, Height: 480})

	assert.Len(t, snap.Laid, 3, "only top-level views are laid out by the pass")
	menu := views[1].Children()[0]
	v, ok := dom.Attr(menu.Node(), "data-layout")
	assert.True(t, ok)
	assert.Equal(t, "640x480", v)
}

func TestMountSelectorErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no match", "views:\n  - name: a\n    selector: '#missing'\n"},
		{"many matches", "views:\n  - name: a\n    selector: div\n"},
		{"bad selector", "views:\n  - name: a\n    selector: '[['\n"},
		{"child escapes parent", "views:\n  - name: a\n    selector: '#sidebar'\n    children:\n      - name: b\n        selector: '#slot'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			e := newEngine(t)

			_, err = NewMounter(e.Controller(), nil).Mount(f)

			assert.ErrorIs(t, err, errors.ErrConfiguration)
			assert.Zero(t, e.Registry().Len())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"yaml", "views: [unterminated"},
		{"unknown key", "views:\n  - name: a\n    colour: red\n"},
		{"missing name", "views:\n  - selector: nav\n"},
		{"duplicate name", "views:\n  - name: a\n  - name: a\n"},
		{"selector and template", "views:\n  - name: a\n    selector: nav\n    template: '<p></p>'\n"},
		{"bind without model", "views:\n  - name: a\n    bind: {x: p}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mounts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mounts), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Views, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
