// Package errors provides structured error handling for stickyview.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindConfiguration indicates conflicting or invalid construction options.
	KindConfiguration
	// KindTemplate indicates a template that does not yield exactly one root node.
	KindTemplate
	// KindLayout indicates a failing OnRender, CreateChildren or DoLayout hook.
	KindLayout
	// KindStale indicates a node without the owning view a caller expected.
	KindStale
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTemplate:
		return "template"
	case KindLayout:
		return "layout"
	case KindStale:
		return "stale"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against a ViewError of the same kind.
var (
	ErrConfiguration     = stderrors.New("configuration error")
	ErrTemplateStructure = stderrors.New("template must have a single root element")
	ErrLayoutHook        = stderrors.New("layout hook failed")
	ErrStaleNode         = stderrors.New("node has no owning view")
	ErrAlreadyAttached   = stderrors.New("node or view already attached")
)

// ViewError represents a structured error raised while building, attaching
// or laying out a view.
type ViewError struct {
	// Op is the operation that failed (e.g., "view.Create").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// View is the id of the view involved, if any.
	View string
	// Hook is the lifecycle hook that failed, for KindLayout errors.
	Hook string
	// Err is the underlying error.
	Err error
	// Panic is the recovered value when a hook panicked, else nil.
	Panic any
	// StackTrace contains the call stack when the error came from a panic.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *ViewError) Error() string {
	switch {
	case e.View != "" && e.Hook != "":
		return fmt.Sprintf("%s [%s] view=%s hook=%s: %v", e.Op, e.Kind, e.View, e.Hook, e.Err)
	case e.View != "":
		return fmt.Sprintf("%s [%s] view=%s: %v", e.Op, e.Kind, e.View, e.Err)
	default:
		return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *ViewError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *ViewError) Is(target error) bool {
	switch e.Kind {
	case KindConfiguration:
		return target == ErrConfiguration
	case KindTemplate:
		return target == ErrTemplateStructure
	case KindLayout:
		return target == ErrLayoutHook
	case KindStale:
		return target == ErrStaleNode
	}
	return false
}

// Configuration returns a KindConfiguration error for op.
func Configuration(op string, format string, args ...any) *ViewError {
	return &ViewError{Op: op, Kind: KindConfiguration, Err: fmt.Errorf(format, args...)}
}

// TemplateStructure returns a KindTemplate error describing the offending
// markup. roots counts the non-blank top-level nodes; elements counts the
// elements among them.
func TemplateStructure(op string, markup string, roots, elements int) *ViewError {
	var err error
	switch {
	case roots == 0:
		err = fmt.Errorf("no root element in %q", truncate(markup, 80))
	case roots == 1:
		err = fmt.Errorf("top-level node is not an element in %q", truncate(markup, 80))
	default:
		err = fmt.Errorf("%d top-level nodes (%d elements), want exactly one element in %q", roots, elements, truncate(markup, 80))
	}
	return &ViewError{Op: op, Kind: KindTemplate, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "layout.Propagate").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by stickyview.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *ViewError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
