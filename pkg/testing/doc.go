// Package testing provides a view testing framework for stickyview.
//
// # Quick Start
//
// Create a tester over some markup, mount views, and make assertions:
//
//	func TestMyView(t *testing.T) {
//	    tester := svtest.NewViewTesterWithT(t, `<div class="panel"></div>`)
//	    panel := &MyPanel{}
//	    tester.MountOn(".panel", panel, view.Options{})
//
//	    // Find views
//	    title := tester.Find(svtest.ByClass("title")).First()
//
//	    // Run a resize pass
//	    snap := tester.Resize(1024, 768)
//	    if len(snap.Failed) > 0 {
//	        t.Errorf("layout failed: %+v", snap.Failed)
//	    }
//	}
//
// # Hook Recording
//
// RecordingView logs every hook call to a shared Recorder:
//
//	rec := &svtest.Recorder{}
//	tester.MountOn(".root", svtest.NewRecordingView("root", rec), view.Options{})
//	tester.Resize(800, 600)
//	rec.Calls() // [root.OnRender root.CreateChildren root.DoLayout root.DoLayout]
//
// # Snapshot Testing
//
// Capture and compare view tree snapshots:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/my_view.snapshot.json")
//
// Update snapshots with:
//
//	STICKYVIEW_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import svtest "github.com/go-drift/stickyview/pkg/testing"
package testing
