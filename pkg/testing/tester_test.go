package testing

import (
	"fmt"
	"slices"
	"testing"

	"github.com/go-drift/stickyview/pkg/errors"
	"github.com/go-drift/stickyview/pkg/layout"
	"github.com/go-drift/stickyview/pkg/testing/internal/testbed"
	"github.com/go-drift/stickyview/pkg/view"
)

func TestNewViewTester_Defaults(t *testing.T) {
	tester := NewViewTesterWithT(t, `<main></main>`)

	if tester.viewport.Width != DefaultTestWidth || tester.viewport.Height != DefaultTestHeight {
		t.Errorf("expected default size %dx%d, got %+v", DefaultTestWidth, DefaultTestHeight, tester.viewport)
	}
	if tester.Document().Body() == nil {
		t.Fatal("expected a body element")
	}
}

func TestLifecycleOrder(t *testing.T) {
	tester := NewViewTesterWithT(t, `<div class="root"></div>`)
	rec := &Recorder{}

	if err := tester.MountOn(".root", NewRecordingView("root", rec), view.Options{}); err != nil {
		t.Fatal(err)
	}
	tester.Pump()

	want := []string{"root.OnRender", "root.CreateChildren", "root.DoLayout", "root.DoLayout"}
	if got := rec.Calls(); !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestResizeLaysOutOutermostView(t *testing.T) {
	tester := NewViewTesterWithT(t, `<div class="root"><div class="inner"></div></div>`)
	rec := &Recorder{}
	tester.MountOn(".root", NewRecordingView("A", rec), view.Options{})
	tester.MountOn(".inner", NewRecordingView("B", rec), view.Options{})
	rec.Reset()

	snap := tester.Resize(1024, 768)

	if got := rec.CallsTo("DoLayout"); !slices.Equal(got, []string{"A"}) {
		t.Errorf("DoLayout calls = %v, want [A]", got)
	}
	if snap.Viewport != (layout.Viewport{Width: 1024, Height: 768}) {
		t.Errorf("viewport = %+v", snap.Viewport)
	}
}

func TestFailingChainDoesNotStopOthers(t *testing.T) {
	errors.SetHandler(&errors.LogHandler{Logger: nopLogger()})
	defer errors.SetHandler(nil)

	tester := NewViewTesterWithT(t, `<div class="d"></div><div class="e"></div>`)
	rec := &Recorder{}
	d := NewRecordingView("D", rec)
	tester.MountOn(".d", d, view.Options{})
	tester.MountOn(".e", NewRecordingView("E", rec), view.Options{})
	d.FailLayout = fmt.Errorf("d failed")
	rec.Reset()

	snap := tester.Pump()

	if got := rec.CallsTo("DoLayout"); !slices.Equal(got, []string{"D", "E"}) {
		t.Errorf("DoLayout calls = %v, want [D E]", got)
	}
	if len(snap.Failed) != 1 || snap.Failed[0].View != d.ID() {
		t.Errorf("failed = %+v, want one failure for %s", snap.Failed, d.ID())
	}
}

func TestPanelCascadesLayoutToItems(t *testing.T) {
	tester := NewViewTesterWithT(t, `<main></main>`)
	panel := &testbed.Panel{Title: "Inbox", Items: []string{"one", "two"}}
	if err := tester.Mount(panel, view.Options{AppendTo: tester.Document().Body()}); err != nil {
		t.Fatal(err)
	}

	tester.Pump()

	if panel.Layouts != 2 {
		t.Errorf("panel layouts = %d, want 2", panel.Layouts)
	}
	for _, v := range tester.Find(ByType[*testbed.Item]()).All() {
		// One at creation, one from the panel at creation, one from the pass.
		if got := v.(*testbed.Item).Layouts; got != 3 {
			t.Errorf("item %s layouts = %d, want 3", v.ID(), got)
		}
	}
}

func TestDispatchRunsBeforeLayout(t *testing.T) {
	tester := NewViewTesterWithT(t, `<main></main>`)
	rec := &Recorder{}
	tester.Dispatch(func() {
		tester.Mount(NewRecordingView("late", rec), view.Options{AppendTo: tester.Document().Body()})
	})

	tester.Pump()

	if got := rec.CallsTo("DoLayout"); !slices.Equal(got, []string{"late", "late"}) {
		t.Errorf("DoLayout calls = %v, want [late late]", got)
	}
}

func TestMountOnRequiresSingleMatch(t *testing.T) {
	tester := NewViewTesterWithT(t, `<p></p><p></p>`)

	if err := tester.MountOn("p", &view.Base{}, view.Options{}); err == nil {
		t.Error("expected error for selector matching two elements")
	}
	if err := tester.MountOn("[[", &view.Base{}, view.Options{}); err == nil {
		t.Error("expected error for invalid selector")
	}
}
