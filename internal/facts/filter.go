package facts

// FilterTablesByFiles returns a new Tables object containing only rows whose file
// is present in the provided file set. The property catalog is not tied to a
// file and is kept whole.
func FilterTablesByFiles(tables Tables, files map[string]bool) Tables {
	if len(files) == 0 {
		return emptyTables()
	}
	out := emptyTables()
	out.Properties = append(out.Properties, tables.Properties...)

	out.Files = filterRows(tables.Files, files, func(r FileRow) string { return r.Path })
	out.Components = filterRows(tables.Components, files, func(r ComponentRow) string { return r.File })
	out.Instances = filterRows(tables.Instances, files, func(r InstanceRow) string { return r.File })
	out.Assignments = filterRows(tables.Assignments, files, func(r AssignmentRow) string { return r.File })
	out.Values = filterRows(tables.Values, files, func(r ValueRow) string { return r.File })
	out.Diagnostics = filterRows(tables.Diagnostics, files, func(r DiagnosticRow) string { return r.File })

	return out
}

func filterRows[T any](rows []T, files map[string]bool, file func(T) string) []T {
	out := []T{}
	for _, row := range rows {
		if files[file(row)] {
			out = append(out, row)
		}
	}
	return out
}

// FilterDeltaByFiles returns a new Delta containing only rows for the specified files.
func FilterDeltaByFiles(delta Delta, files map[string]bool) Delta {
	if len(files) == 0 {
		return Delta{
			Added:   emptyTables(),
			Removed: emptyTables(),
		}
	}
	return Delta{
		Added:   FilterTablesByFiles(delta.Added, files),
		Removed: FilterTablesByFiles(delta.Removed, files),
	}
}
