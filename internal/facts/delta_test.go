package facts

import "testing"

func TestComputeDeltaAddsAndRemoves(t *testing.T) {
	prev := Tables{
		Values: []ValueRow{
			{Path: "top.r0.f0", Property: "reset", Value: "1", File: "a.yaml"},
			{Path: "top.r0.f0", Property: "sw", Value: "accesstype::rw", File: "a.yaml"},
		},
		Diagnostics: []DiagnosticRow{
			{Code: "mutex-group", Path: "f", Message: "m", File: "a.yaml", Line: 3},
		},
	}
	next := Tables{
		Values: []ValueRow{
			{Path: "top.r0.f0", Property: "reset", Value: "2", File: "a.yaml"},
			{Path: "top.r0.f0", Property: "sw", Value: "accesstype::rw", File: "a.yaml"},
		},
		Diagnostics: []DiagnosticRow{
			{Code: "mutex-group", Path: "f", Message: "m", File: "a.yaml", Line: 9},
		},
	}

	delta := ComputeDelta(prev, next)

	if len(delta.Added.Values) != 1 || delta.Added.Values[0].Value != "2" {
		t.Fatalf("expected reset=2 added, got %+v", delta.Added.Values)
	}
	if len(delta.Removed.Values) != 1 || delta.Removed.Values[0].Value != "1" {
		t.Fatalf("expected reset=1 removed, got %+v", delta.Removed.Values)
	}
	if len(delta.Added.Diagnostics) != 0 || len(delta.Removed.Diagnostics) != 0 {
		t.Fatalf("a moved diagnostic is not a change, got %+v", delta)
	}
	if delta.Empty() {
		t.Fatalf("expected non-empty delta")
	}
	if !ComputeDelta(next, next).Empty() {
		t.Fatalf("expected empty delta for identical tables")
	}
}
