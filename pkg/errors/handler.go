package errors

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	handlerMu sync.RWMutex
	handler   ErrorHandler = &LogHandler{}
)

// SetHandler installs h as the process-wide handler. Nil restores a
// LogHandler writing to stderr.
func SetHandler(h ErrorHandler) {
	if h == nil {
		h = &LogHandler{}
	}
	handlerMu.Lock()
	handler = h
	handlerMu.Unlock()
}

// Handler returns the installed handler.
func Handler() ErrorHandler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return handler
}

// Report stamps err and passes it to the handler. A hook panic arrives here
// once, as a ViewError with Panic set.
func Report(err *ViewError) {
	if err == nil {
		return
	}
	stamp(&err.Timestamp)
	Handler().HandleError(err)
}

// ReportPanic stamps err and passes it to the handler.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	stamp(&err.Timestamp)
	Handler().HandlePanic(err)
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now()
	}
}

// Recover reports a panic in work that has no view to blame, such as a
// dispatched callback. Defer it directly:
//
//	defer errors.Recover("engine.Dispatch")
func Recover(op string) {
	if r := recover(); r != nil {
		ReportPanic(&PanicError{Op: op, Value: r, StackTrace: stack(3)})
	}
}

// RecoverHook turns a panic in a view hook into a KindLayout ViewError stored
// in *errp. The error is returned to the caller, not reported. Defer it
// directly from the function running the hook:
//
//	defer errors.RecoverHook(op, v.ID(), "DoLayout", &err)
func RecoverHook(op, view, hook string, errp *error) {
	r := recover()
	if r == nil {
		return
	}
	*errp = &ViewError{
		Op:         op,
		Kind:       KindLayout,
		View:       view,
		Hook:       hook,
		Err:        fmt.Errorf("panic: %v", r),
		Panic:      r,
		StackTrace: stack(3),
	}
}

// stack formats the calling goroutine's frames, starting skip frames above
// runtime.Callers. From Recover and RecoverHook, 3 starts at the panic.
func stack(skip int) string {
	pcs := make([]uintptr, 32)
	frames := runtime.CallersFrames(pcs[:runtime.Callers(skip, pcs)])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		if f.Function != "" {
			sb.WriteString(f.Function + "\n\t" + f.File + ":" + strconv.Itoa(f.Line) + "\n")
		}
		if !more {
			return sb.String()
		}
	}
}
