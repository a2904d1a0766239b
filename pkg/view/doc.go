// Package view provides views bound to a single root node of a document and
// the controller that builds, attaches and removes them.
//
// A view is any struct that embeds Base:
//
//	type sidebar struct {
//	    view.Base
//	    width int
//	}
//
//	func (s *sidebar) DoLayout() error {
//	    // size own children; nested views are laid out from here if needed
//	    return nil
//	}
//
// Base supplies no-op OnRender, CreateChildren and DoLayout hooks; a view
// overrides the subset it needs. Controller.Create runs the lifecycle:
//
//  1. resolve the root node (template, existing element, or a new element)
//  2. register node -> view and add the marker class
//  3. place the node (AppendTo, PrependTo or ReplaceEl)
//  4. wire the model's destroy signal and optional model binding
//  5. OnRender, CreateChildren, DoLayout
//
// A failure at any step leaves no trace: the registry entry, classes,
// placement and subscriptions are rolled back.
package view
