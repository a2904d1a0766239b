package testing

import (
	"slices"
	"strings"
	"sync"

	"github.com/go-drift/stickyview/pkg/view"
)

// Recorder collects hook calls as "name.Hook" entries.
type Recorder struct {
	mu    sync.Mutex
	calls []string
}

// Record appends a call.
func (r *Recorder) Record(name, hook string) {
	r.mu.Lock()
	r.calls = append(r.calls, name+"."+hook)
	r.mu.Unlock()
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// CallsTo returns the names of the views that received hook, in order.
func (r *Recorder) CallsTo(hook string) []string {
	var out []string
	for _, c := range r.Calls() {
		if name, h, ok := strings.Cut(c, "."); ok && h == hook {
			out = append(out, name)
		}
	}
	return out
}

// Reset clears the recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

// RecordingView records its hooks. Each Fail* field, when set, is returned
// from the matching hook after recording.
type RecordingView struct {
	view.Base
	Name     string
	Recorder *Recorder

	FailRender   error
	FailChildren error
	FailLayout   error
	// OnLayout runs inside DoLayout after recording.
	OnLayout func()
}

// NewRecordingView returns a view named name that records into rec.
func NewRecordingView(name string, rec *Recorder) *RecordingView {
	return &RecordingView{Name: name, Recorder: rec}
}

func (v *RecordingView) OnRender() error {
	v.Recorder.Record(v.Name, "OnRender")
	return v.FailRender
}

func (v *RecordingView) CreateChildren() error {
	v.Recorder.Record(v.Name, "CreateChildren")
	return v.FailChildren
}

func (v *RecordingView) DoLayout() error {
	v.Recorder.Record(v.Name, "DoLayout")
	if v.OnLayout != nil {
		v.OnLayout()
	}
	return v.FailLayout
}
