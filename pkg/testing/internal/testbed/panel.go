// Package testbed provides internal test views for the testing framework.
package testbed

import (
	"fmt"

	"github.com/go-drift/stickyview/pkg/dom"
	"github.com/go-drift/stickyview/pkg/view"
)

// Panel renders a titled list and creates one Item per entry in Items.
// Its DoLayout lays out its items, counting passes in Layouts.
type Panel struct {
	view.Base
	Title   string
	Items   []string
	Layouts int

	children []*Item
}

func (p *Panel) Template() view.Template {
	return view.TemplateFunc(func(map[string]any) (string, error) {
		return fmt.Sprintf(`<section class="panel"><h2 class="title">%s</h2><ul class="items"></ul></section>`, p.Title), nil
	})
}

func (p *Panel) CreateChildren() error {
	list, err := dom.Find(p.Node(), ".items")
	if err != nil || len(list) != 1 {
		return fmt.Errorf("panel has no item list")
	}
	for _, label := range p.Items {
		item := &Item{Label: label}
		if err := p.Controller().Create(item, view.Options{AppendTo: list[0]}); err != nil {
			return err
		}
		p.children = append(p.children, item)
	}
	return nil
}

func (p *Panel) DoLayout() error {
	p.Layouts++
	for _, item := range p.children {
		if !item.Removed() {
			if err := item.DoLayout(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Item is a list entry laid out by its Panel.
type Item struct {
	view.Base
	Label   string
	Layouts int
}

func (i *Item) Template() view.Template {
	return view.TemplateFunc(func(map[string]any) (string, error) {
		return fmt.Sprintf(`<li class="item">%s</li>`, i.Label), nil
	})
}

func (i *Item) DoLayout() error {
	i.Layouts++
	return nil
}
