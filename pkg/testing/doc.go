// Package testing provides a test harness for fiber component trees.
//
// # Quick Start
//
// Create a tester, render an element, and make assertions against the
// in-memory host tree:
//
//	func TestCounter(t *testing.T) {
//	    tester := fibertest.NewTesterWithT(t, core.Options{})
//	    tester.Render(core.C(Counter, nil))
//
//	    tester.Click(fibertest.ByTag("button"))
//
//	    if got := tester.Find(fibertest.ByTag("button")).Text(); got != "count 1" {
//	        t.Errorf("got %q", got)
//	    }
//	}
//
// # Time Slicing
//
// Pump runs a single idle slice measured on a fake clock, where every
// deadline poll costs SetUnitCost of fake time. PumpAll runs until the
// root is idle:
//
//	tester.Root().Render(el)
//	tester.Pump(2 * time.Millisecond) // partial progress, nothing committed
//	tester.PumpAll()
//
// # Snapshot Testing
//
// Capture and compare host tree snapshots:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/counter.snapshot.yaml")
//
// Update snapshots with:
//
//	FIBER_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import fibertest "github.com/go-drift/fiber/pkg/testing"
package testing
