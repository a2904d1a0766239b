package testing

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-drift/stickyview/pkg/dom"
	"github.com/go-drift/stickyview/pkg/view"
)

// Finder locates views attached to the tester's document.
type Finder interface {
	// Evaluate returns all matching views in document order.
	Evaluate(t *ViewTester) []view.View
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	views  []view.View
	finder Finder
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() view.View {
	if len(r.views) == 0 {
		panic(fmt.Sprintf("Finder found no views: %s", r.description()))
	}
	return r.views[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() view.View {
	if len(r.views) == 0 {
		return nil
	}
	return r.views[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) view.View {
	if index < 0 || index >= len(r.views) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.views), r.description()))
	}
	return r.views[index]
}

// All returns all matches in document order.
func (r FinderResult) All() []view.View {
	return r.views
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.views)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.views) > 0
}

func (r FinderResult) description() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

// --- Concrete finders ---

type typeFinder struct {
	viewType reflect.Type
}

func (f *typeFinder) Evaluate(t *ViewTester) []view.View {
	return collectMatches(t, func(v view.View) bool {
		return reflect.TypeOf(v) == f.viewType
	})
}

func (f *typeFinder) Description() string {
	return fmt.Sprintf("ByType(%s)", f.viewType)
}

// ByType returns a finder that matches views of type T.
func ByType[T view.View]() Finder {
	return &typeFinder{viewType: reflect.TypeFor[T]()}
}

type classFinder struct {
	class string
}

func (f *classFinder) Evaluate(t *ViewTester) []view.View {
	return collectMatches(t, func(v view.View) bool {
		return dom.HasClass(v.Node(), f.class)
	})
}

func (f *classFinder) Description() string {
	return fmt.Sprintf("ByClass(%q)", f.class)
}

// ByClass returns a finder that matches views whose root node has class.
func ByClass(class string) Finder {
	return &classFinder{class: class}
}

type selectorFinder struct {
	selector string
}

func (f *selectorFinder) Evaluate(t *ViewTester) []view.View {
	nodes, err := t.Document().Select(f.selector)
	if err != nil {
		panic(fmt.Sprintf("BySelector: %v", err))
	}
	var out []view.View
	reg := t.Engine().Registry()
	for _, n := range nodes {
		if v, ok := reg.Lookup(n); ok {
			out = append(out, v)
		}
	}
	return out
}

func (f *selectorFinder) Description() string {
	return fmt.Sprintf("BySelector(%q)", f.selector)
}

// BySelector returns a finder that matches views whose root node matches a
// CSS selector. An invalid selector panics on evaluation.
func BySelector(selector string) Finder {
	return &selectorFinder{selector: selector}
}

type textFinder struct {
	text     string
	contains bool
}

func (f *textFinder) Evaluate(t *ViewTester) []view.View {
	return collectMatches(t, func(v view.View) bool {
		text := strings.TrimSpace(dom.Text(v.Node()))
		if f.contains {
			return strings.Contains(text, f.text)
		}
		return text == f.text
	})
}

func (f *textFinder) Description() string {
	if f.contains {
		return fmt.Sprintf("ByTextContaining(%q)", f.text)
	}
	return fmt.Sprintf("ByText(%q)", f.text)
}

// ByText returns a finder that matches views whose trimmed text content,
// including nested views, equals text.
func ByText(text string) Finder {
	return &textFinder{text: text}
}

// ByTextContaining returns a finder that matches views whose text content
// contains substring.
func ByTextContaining(substring string) Finder {
	return &textFinder{text: substring, contains: true}
}

type predicateFinder struct {
	fn   func(view.View) bool
	desc string
}

func (f *predicateFinder) Evaluate(t *ViewTester) []view.View {
	return collectMatches(t, f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByPredicate returns a finder that matches views satisfying fn.
func ByPredicate(fn func(view.View) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}

// descendantFinder finds views matching 'matching' nested inside views
// matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(t *ViewTester) []view.View {
	ancestors := f.of.Evaluate(t)
	if len(ancestors) == 0 {
		return nil
	}
	return collectFrom(f.matching.Evaluate(t), func(v view.View) bool {
		for _, a := range ancestors {
			if a != v && dom.IsInclusiveAncestor(a.Node(), v.Node()) {
				return true
			}
		}
		return false
	})
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches views satisfying 'matching'
// nested inside views matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

// ancestorFinder finds views matching 'matching' that enclose views
// matching 'of'.
type ancestorFinder struct {
	of       Finder
	matching Finder
}

func (f *ancestorFinder) Evaluate(t *ViewTester) []view.View {
	descendants := f.of.Evaluate(t)
	if len(descendants) == 0 {
		return nil
	}
	return collectFrom(f.matching.Evaluate(t), func(v view.View) bool {
		for _, d := range descendants {
			if d != v && dom.IsInclusiveAncestor(v.Node(), d.Node()) {
				return true
			}
		}
		return false
	})
}

func (f *ancestorFinder) Description() string {
	return fmt.Sprintf("Ancestor(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Ancestor returns a finder that matches views satisfying 'matching' that
// enclose views matching 'of'.
func Ancestor(of, matching Finder) Finder {
	return &ancestorFinder{of: of, matching: matching}
}

// collectMatches filters the attached views in document order.
func collectMatches(t *ViewTester, predicate func(view.View) bool) []view.View {
	return collectFrom(t.Views(), predicate)
}

func collectFrom(views []view.View, predicate func(view.View) bool) []view.View {
	var results []view.View
	for _, v := range views {
		if predicate(v) {
			results = append(results, v)
		}
	}
	return results
}
