package testutil

import "testing"

// Flow runs a ledger scenario as ordered subtests. Steps share state through
// closures, so once a step fails the remaining ones are skipped instead of
// asserting against a ledger that never reached the expected state.
type Flow struct {
	t      *testing.T
	broken string
}

func NewFlow(t *testing.T) *Flow {
	return &Flow{t: t}
}

func (f *Flow) Given(desc string, fn func(t *testing.T)) *Flow { return f.step("Given "+desc, fn) }
func (f *Flow) When(desc string, fn func(t *testing.T)) *Flow  { return f.step("When "+desc, fn) }
func (f *Flow) Then(desc string, fn func(t *testing.T)) *Flow  { return f.step("Then "+desc, fn) }
func (f *Flow) And(desc string, fn func(t *testing.T)) *Flow   { return f.step("And "+desc, fn) }

func (f *Flow) step(name string, fn func(t *testing.T)) *Flow {
	f.t.Helper()
	if f.broken != "" {
		f.t.Run(name, func(t *testing.T) {
			t.Skipf("skipped after failed step %q", f.broken)
		})
		return f
	}
	if !f.t.Run(name, fn) {
		f.broken = name
	}
	return f
}
