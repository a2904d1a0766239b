package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestViewErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *ViewError
		want string
	}{
		{
			name: "op only",
			err:  &ViewError{Op: "view.Create", Kind: KindConfiguration, Err: fmt.Errorf("boom")},
			want: "view.Create [configuration]: boom",
		},
		{
			name: "with view",
			err:  &ViewError{Op: "registry.Attach", Kind: KindConfiguration, View: "view3", Err: ErrAlreadyAttached},
			want: "registry.Attach [configuration] view=view3: node or view already attached",
		},
		{
			name: "with hook",
			err:  &ViewError{Op: "layout.Propagate", Kind: KindLayout, View: "view1", Hook: "DoLayout", Err: fmt.Errorf("bad size")},
			want: "layout.Propagate [layout] view=view1 hook=DoLayout: bad size",
		},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("%s: Error() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindConfiguration, "configuration"},
		{KindTemplate, "template"},
		{KindLayout, "layout"},
		{KindStale, "stale"},
		{KindPanic, "panic"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestViewErrorIsKindSentinel(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		sentinel error
	}{
		{KindConfiguration, ErrConfiguration},
		{KindTemplate, ErrTemplateStructure},
		{KindLayout, ErrLayoutHook},
		{KindStale, ErrStaleNode},
	}
	for _, tt := range tests {
		var err error = fmt.Errorf("wrapped: %w", &ViewError{Op: "test", Kind: tt.kind, Err: fmt.Errorf("x")})
		if !stderrors.Is(err, tt.sentinel) {
			t.Errorf("kind %s: errors.Is(%v) = false, want true", tt.kind, tt.sentinel)
		}
	}

	err := &ViewError{Op: "test", Kind: KindTemplate, Err: fmt.Errorf("x")}
	if stderrors.Is(err, ErrConfiguration) {
		t.Error("template error should not match ErrConfiguration")
	}
}

func TestViewErrorUnwrap(t *testing.T) {
	err := &ViewError{Op: "registry.Attach", Kind: KindConfiguration, Err: ErrAlreadyAttached}
	if !stderrors.Is(err, ErrAlreadyAttached) {
		t.Error("expected wrapped ErrAlreadyAttached to be found")
	}
	var ve *ViewError
	if !stderrors.As(fmt.Errorf("outer: %w", err), &ve) {
		t.Fatal("expected errors.As to find ViewError")
	}
	if ve.Op != "registry.Attach" {
		t.Errorf("Op = %q, want %q", ve.Op, "registry.Attach")
	}
}

func TestTemplateStructureTruncatesMarkup(t *testing.T) {
	markup := "<p>" + strings.Repeat("a", 200) + "</p>"
	err := TemplateStructure("view.Create", markup, 0, 0)
	if !strings.Contains(err.Error(), "no root element") {
		t.Errorf("Error() = %q, want root count", err.Error())
	}
	if !strings.Contains(err.Error(), "...") {
		t.Errorf("Error() = %q, want truncated markup", err.Error())
	}
}

func TestPanicErrorString(t *testing.T) {
	err := &PanicError{Value: "test panic", Timestamp: time.Now()}
	if got, want := err.Error(), "panic: test panic"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}

	err = &PanicError{Op: "layout.Propagate", Value: "test panic"}
	if got, want := err.Error(), "panic in layout.Propagate: test panic"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
}

func TestReport(t *testing.T) {
	var captured *ViewError
	handler := &testHandler{
		onError: func(err *ViewError) {
			captured = err
		},
	}

	SetHandler(handler)
	defer SetHandler(nil)

	Report(&ViewError{Op: "test.op", Kind: KindLayout, Err: fmt.Errorf("x")})

	if captured == nil {
		t.Fatal("expected error to be captured")
	}
	if captured.Op != "test.op" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.op")
	}
	if captured.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestRecover(t *testing.T) {
	var captured *PanicError
	handler := &testHandler{
		onPanic: func(err *PanicError) {
			captured = err
		},
	}

	SetHandler(handler)
	defer SetHandler(nil)

	func() {
		defer Recover("test.recover")
		panic("intentional test panic")
	}()

	if captured == nil {
		t.Fatal("expected panic to be recovered and captured")
	}
	if captured.Value != "intentional test panic" {
		t.Errorf("Value = %v, want %q", captured.Value, "intentional test panic")
	}
	if captured.Op != "test.recover" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.recover")
	}
	if captured.StackTrace == "" {
		t.Error("expected StackTrace to be captured")
	}
}

func TestSetHandlerNil(t *testing.T) {
	SetHandler(nil)
	if _, ok := Handler().(*LogHandler); !ok {
		t.Errorf("SetHandler(nil) should set LogHandler, got %T", Handler())
	}
}

func TestLogHandlerWritesAttributes(t *testing.T) {
	var buf bytes.Buffer
	h := &LogHandler{Logger: slog.New(slog.NewTextHandler(&buf, nil)), Verbose: true}

	h.HandleError(&ViewError{
		Op:         "layout.Propagate",
		Kind:       KindLayout,
		View:       "view7",
		Hook:       "DoLayout",
		Err:        fmt.Errorf("bad size"),
		StackTrace: "frame",
	})

	out := buf.String()
	for _, want := range []string{"op=layout.Propagate", "kind=layout", "view=view7", "hook=DoLayout", "stack=frame"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q should contain %q", out, want)
		}
	}
}

type testHandler struct {
	onError func(*ViewError)
	onPanic func(*PanicError)
}

func (h *testHandler) HandleError(err *ViewError) {
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *testHandler) HandlePanic(err *PanicError) {
	if h.onPanic != nil {
		h.onPanic(err)
	}
}

func TestRecoverHookReturnsLayoutError(t *testing.T) {
	reported := 0
	SetHandler(&testHandler{
		onError: func(*ViewError) { reported++ },
		onPanic: func(*PanicError) { reported++ },
	})
	defer SetHandler(nil)

	run := func() (err error) {
		defer RecoverHook("view.Create", "view3", "OnRender", &err)
		panic("bad render")
	}
	err := run()

	var ve *ViewError
	if !stderrors.As(err, &ve) {
		t.Fatalf("err = %T, want *ViewError", err)
	}
	if ve.Kind != KindLayout || ve.View != "view3" || ve.Hook != "OnRender" {
		t.Errorf("got kind=%v view=%q hook=%q", ve.Kind, ve.View, ve.Hook)
	}
	if ve.Panic != "bad render" {
		t.Errorf("Panic = %v, want %q", ve.Panic, "bad render")
	}
	if !strings.Contains(ve.StackTrace, "TestRecoverHookReturnsLayoutError") {
		t.Errorf("StackTrace should include the panicking function, got %q", ve.StackTrace)
	}
	if reported != 0 {
		t.Errorf("RecoverHook reported %d times, want 0", reported)
	}
}

func TestRecoverHookWithoutPanic(t *testing.T) {
	run := func() (err error) {
		defer RecoverHook("view.Create", "view1", "DoLayout", &err)
		return nil
	}
	if err := run(); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}

func TestTemplateStructureMessages(t *testing.T) {
	tests := []struct {
		roots, elements int
		want            string
	}{
		{0, 0, "no root element"},
		{1, 0, "not an element"},
		{2, 2, "2 top-level nodes (2 elements)"},
	}
	for _, tt := range tests {
		err := TemplateStructure("view.Create", "<p>", tt.roots, tt.elements)
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("TemplateStructure(%d, %d) = %q, want %q", tt.roots, tt.elements, err.Error(), tt.want)
		}
	}
}

func TestLogHandlerMarksHookPanics(t *testing.T) {
	var buf bytes.Buffer
	h := &LogHandler{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	h.HandleError(&ViewError{Op: "layout.Propagate", Kind: KindLayout, Hook: "DoLayout", Err: fmt.Errorf("panic: x"), Panic: "x"})
	h.HandleError(&ViewError{Op: "layout.Propagate", Kind: KindLayout, Hook: "DoLayout", Err: fmt.Errorf("plain")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], `msg="stickyview hook panic"`) || !strings.Contains(lines[0], "panic=x") {
		t.Errorf("panic line = %q", lines[0])
	}
	if !strings.Contains(lines[1], `msg="stickyview error"`) {
		t.Errorf("error line = %q", lines[1])
	}
}
