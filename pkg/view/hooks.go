package view

import (
	"github.com/go-drift/stickyview/pkg/errors"
)

// invokeHook runs fn, turning a returned error or a panic into a
// KindLayout ViewError. A panic keeps its recovered value in Panic.
func invokeHook(op string, v View, hook string, fn func() error) (err error) {
	defer errors.RecoverHook(op, v.ID(), hook, &err)
	if hookErr := fn(); hookErr != nil {
		return &errors.ViewError{Op: op, Kind: errors.KindLayout, View: v.ID(), Hook: hook, Err: hookErr}
	}
	return nil
}

// Layout runs v's DoLayout hook in isolation: a returned error or a panic
// comes back as a KindLayout ViewError.
func Layout(op string, v View) error {
	return invokeHook(op, v, "DoLayout", v.DoLayout)
}
