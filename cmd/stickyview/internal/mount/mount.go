// Package mount declares views in YAML and mounts them onto a document.
//
// A mount file lists views:
//
//	views:
//	  - name: header
//	    template: '<header><h1 class="title"></h1></header>'
//	    prepend_to: body
//	    model: {title: Welcome}
//	    bind: {title: .title}
//	  - name: sidebar
//	    selector: '#sidebar'
//	    class_name: sticky
//	    children:
//	      - name: menu
//	        selector: nav
//
// Top-level selectors resolve against the whole document; a child's
// selectors resolve inside its parent's root node. Children are created from
// the parent's CreateChildren hook and laid out by the parent's DoLayout.
package mount

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/stickyview/pkg/dom"
	"github.com/go-drift/stickyview/pkg/errors"
	"github.com/go-drift/stickyview/pkg/layout"
	"github.com/go-drift/stickyview/pkg/model"
	"github.com/go-drift/stickyview/pkg/view"
)

// File is a decoded mount file.
type File struct {
	Views []Spec `mapstructure:"views"`
}

// Spec declares one view.
type Spec struct {
	Name string `mapstructure:"name"`
	// Selector attaches the view to an existing element. Mutually exclusive
	// with Template.
	Selector string `mapstructure:"selector"`
	Template string `mapstructure:"template"`

	AppendTo  string `mapstructure:"append_to"`
	PrependTo string `mapstructure:"prepend_to"`
	Replace   string `mapstructure:"replace"`

	TagName    string            `mapstructure:"tag_name"`
	ID         string            `mapstructure:"id"`
	ClassName  string            `mapstructure:"class_name"`
	Attributes map[string]string `mapstructure:"attributes"`

	Model map[string]any    `mapstructure:"model"`
	Bind  map[string]string `mapstructure:"bind"`

	Children []Spec `mapstructure:"children"`
}

// Load reads and decodes a mount file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mount file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a mount file. Unknown keys are errors.
func Parse(data []byte) (*File, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse mount file: %w", err)
	}

	var f File
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &f,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid mount file: %w", err)
	}

	seen := make(map[string]bool)
	if err := validate(f.Views, seen); err != nil {
		return nil, err
	}
	return &f, nil
}

func validate(specs []Spec, seen map[string]bool) error {
	for _, s := range specs {
		if s.Name == "" {
			return fmt.Errorf("invalid mount file: view without a name")
		}
		if seen[s.Name] {
			return fmt.Errorf("invalid mount file: duplicate view name %q", s.Name)
		}
		seen[s.Name] = true
		if s.Selector != "" && s.Template != "" {
			return fmt.Errorf("invalid mount file: view %q sets both selector and template", s.Name)
		}
		if len(s.Bind) > 0 && len(s.Model) == 0 {
			return fmt.Errorf("invalid mount file: view %q binds without a model", s.Name)
		}
		if err := validate(s.Children, seen); err != nil {
			return err
		}
	}
	return nil
}

// View is a declared view. Its DoLayout records the current viewport on its
// root node as data-layout="WxH" and lays out its children.
type View struct {
	view.Base
	Spec Spec

	mounter  *Mounter
	children []*View
}

// Name returns the declared name.
func (v *View) Name() string {
	return v.Spec.Name
}

// Children returns the views created from the declared children.
func (v *View) Children() []*View {
	return v.children
}

func (v *View) CreateChildren() error {
	for _, child := range v.Spec.Children {
		cv, err := v.mounter.create(child, v.Node(), false)
		if err != nil {
			return fmt.Errorf("child %q: %w", child.Name, err)
		}
		v.children = append(v.children, cv)
	}
	return nil
}

func (v *View) DoLayout() error {
	vp := v.mounter.viewport()
	dom.SetAttr(v.Node(), "data-layout", fmt.Sprintf("%dx%d", vp.Width, vp.Height))
	for _, child := range v.children {
		if child.Removed() {
			continue
		}
		if err := child.DoLayout(); err != nil {
			return fmt.Errorf("child %q: %w", child.Name(), err)
		}
	}
	return nil
}

// Mounter creates declared views through a controller.
type Mounter struct {
	ctrl     *view.Controller
	viewport func() layout.Viewport
	byID     map[string]*View
}

// NewMounter returns a mounter creating views with ctrl. viewport supplies
// the size recorded by DoLayout; nil records 0x0.
func NewMounter(ctrl *view.Controller, viewport func() layout.Viewport) *Mounter {
	if viewport == nil {
		viewport = func() layout.Viewport { return layout.Viewport{} }
	}
	return &Mounter{ctrl: ctrl, viewport: viewport, byID: make(map[string]*View)}
}

// Mount creates the file's top-level views in order. It stops at the first
// failure; views created before it stay mounted.
func (m *Mounter) Mount(f *File) ([]*View, error) {
	var out []*View
	for _, s := range f.Views {
		v, err := m.create(s, m.ctrl.Document().Root(), true)
		if err != nil {
			return out, fmt.Errorf("view %q: %w", s.Name, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ByID returns the declared view with the engine id, or nil.
func (m *Mounter) ByID(id string) *View {
	if v := m.byID[id]; v != nil && !v.Removed() {
		return v
	}
	return nil
}

func (m *Mounter) create(s Spec, scope *html.Node, includeScope bool) (*View, error) {
	opts := map[string]any{
		"className":  s.ClassName,
		"tagName":    s.TagName,
		"id":         s.ID,
		"attributes": s.Attributes,
	}
	if s.Template != "" {
		opts["template"] = s.Template
	}
	targets := []struct{ key, selector string }{
		{"el", s.Selector},
		{"appendTo", s.AppendTo},
		{"prependTo", s.PrependTo},
		{"replaceEl", s.Replace},
	}
	for _, t := range targets {
		if t.selector == "" {
			continue
		}
		node, err := resolve(scope, t.selector, includeScope)
		if err != nil {
			return nil, err
		}
		opts[t.key] = node
	}
	if len(s.Model) > 0 {
		opts["model"] = model.New(s.Name, s.Model)
		if len(s.Bind) > 0 {
			opts["modelBinding"] = s.Bind
		}
	}

	v := &View{Spec: s, mounter: m}
	if err := m.ctrl.CreateFromMap(v, opts); err != nil {
		return nil, err
	}
	if !v.Removed() {
		m.byID[v.ID()] = v
	}
	return v, nil
}

// resolve finds the single element matching selector under scope.
func resolve(scope *html.Node, selector string, includeScope bool) (*html.Node, error) {
	find := dom.Find
	if includeScope {
		find = dom.Select
	}
	nodes, err := find(scope, selector)
	if err != nil {
		return nil, errors.Configuration("mount.resolve", "%v", err)
	}
	if len(nodes) != 1 {
		return nil, errors.Configuration("mount.resolve", "selector %q matched %d elements, want 1", selector, len(nodes))
	}
	return nodes[0], nil
}
