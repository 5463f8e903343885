package facts

import "strconv"

// Delta captures added and removed fact rows between two snapshots.
type Delta struct {
	Added   Tables `json:"added"`
	Removed Tables `json:"removed"`
}

// Empty reports whether the snapshots were identical.
func (d Delta) Empty() bool {
	return d.Added.Len() == 0 && d.Removed.Len() == 0
}

// Len returns the total number of rows.
func (t Tables) Len() int {
	return len(t.Files) + len(t.Properties) + len(t.Components) + len(t.Instances) +
		len(t.Assignments) + len(t.Values) + len(t.Diagnostics)
}

// ComputeDelta computes row-level additions and removals between two snapshots.
func ComputeDelta(prev, next Tables) Delta {
	return Delta{
		Added:   diffTables(prev, next),
		Removed: diffTables(next, prev),
	}
}

func diffTables(from, to Tables) Tables {
	out := emptyTables()

	out.Files = diffRows(from.Files, to.Files, func(r FileRow) string {
		return r.Path + "|" + r.Root + "|" + strconv.Itoa(r.Instances)
	})
	out.Properties = diffRows(from.Properties, to.Properties, func(r PropertyRow) string {
		return r.Name + "|" + r.Bindings + "|" + r.Types + "|" + r.Default + "|" + boolKey(r.Dynamic) + "|" +
			r.MutexGroup + "|" + r.Opposite + "|" + r.AliasOf + "|" + boolKey(r.UserDefined)
	})
	out.Components = diffRows(from.Components, to.Components, func(r ComponentRow) string {
		return r.Name + "|" + r.Kind + "|" + r.File
	})
	out.Instances = diffRows(from.Instances, to.Instances, func(r InstanceRow) string {
		return r.Path + "|" + r.Type + "|" + r.Kind + "|" + strconv.Itoa(r.Width) + "|" +
			boolKey(r.External) + "|" + boolKey(r.Specialized) + "|" + r.File
	})
	out.Assignments = diffRows(from.Assignments, to.Assignments, func(r AssignmentRow) string {
		return r.Target + "|" + r.Property + "|" + r.Value + "|" + boolKey(r.Dynamic) + "|" + r.File
	})
	out.Values = diffRows(from.Values, to.Values, func(r ValueRow) string {
		return r.Path + "|" + r.Property + "|" + r.Value + "|" + r.Kind + "|" + boolKey(r.Explicit) + "|" + r.File
	})
	// Line numbers shift with unrelated edits; a diagnostic is the same
	// finding if code, path and message agree.
	out.Diagnostics = diffRows(from.Diagnostics, to.Diagnostics, func(r DiagnosticRow) string {
		return r.Code + "|" + r.Severity + "|" + r.Path + "|" + r.Message + "|" + r.File
	})

	return out
}

func emptyTables() Tables {
	return Tables{
		Files:       []FileRow{},
		Properties:  []PropertyRow{},
		Components:  []ComponentRow{},
		Instances:   []InstanceRow{},
		Assignments: []AssignmentRow{},
		Values:      []ValueRow{},
		Diagnostics: []DiagnosticRow{},
	}
}

func diffRows[T any](from, to []T, key func(T) string) []T {
	fromSet := make(map[string]struct{}, len(from))
	for _, row := range from {
		fromSet[key(row)] = struct{}{}
	}
	diff := []T{}
	for _, row := range to {
		if _, ok := fromSet[key(row)]; !ok {
			diff = append(diff, row)
		}
	}
	return diff
}

func boolKey(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
