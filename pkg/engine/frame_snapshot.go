package engine

import (
	"github.com/go-drift/stickyview/pkg/dom"
	"github.com/go-drift/stickyview/pkg/layout"
)

// FrameSnapshot summarises a single frame. It is serialized as JSON by the
// CLI and the debug server.
type FrameSnapshot struct {
	FrameID  uint64            `json:"frameId"`
	LaidOut  bool              `json:"laidOut"`
	Viewport layout.Viewport   `json:"viewport"`
	Views    int               `json:"views"` // registered views after the frame
	Laid     []ViewSnapshot    `json:"laid,omitempty"`
	Failed   []FailureSnapshot `json:"failed,omitempty"`
	Skipped  int               `json:"skipped,omitempty"`

	// Result is the raw pass result, when LaidOut.
	Result layout.Result `json:"-"`
}

// ViewSnapshot identifies a view laid out during the frame.
type ViewSnapshot struct {
	ID      string   `json:"id"`
	Tag     string   `json:"tag"`
	Classes []string `json:"classes,omitempty"`
}

// FailureSnapshot describes a DoLayout failure.
type FailureSnapshot struct {
	View  string `json:"view"`
	Hook  string `json:"hook"`
	Error string `json:"error"`
}

func (s *FrameSnapshot) fill(vp layout.Viewport, res layout.Result) {
	s.LaidOut = true
	s.Viewport = vp
	s.Result = res
	s.Skipped = res.Skipped
	for _, v := range res.Laid {
		n := v.Node()
		s.Laid = append(s.Laid, ViewSnapshot{ID: v.ID(), Tag: n.Data, Classes: dom.Classes(n)})
	}
	for _, f := range res.Failed {
		s.Failed = append(s.Failed, FailureSnapshot{View: f.View, Hook: f.Hook, Error: f.Err.Error()})
	}
}
